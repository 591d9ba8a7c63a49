package vsco

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vscodl/pkg/logger"
)

// fakePage is one canned media listing response
type fakePage struct {
	Media      []map[string]interface{}
	NextCursor *string
}

// fakeVSCO emulates the gallery page, the media listing and the image CDN
type fakeVSCO struct {
	t      *testing.T
	server *httptest.Server

	mu            sync.Mutex
	galleryStatus int
	galleryHTML   string
	listingStatus int
	pages         map[string]fakePage // keyed by requested cursor
	files         map[string][]byte   // keyed by URL path
	fileDelay     time.Duration
	requests      []recordedRequest

	inFlight    int32
	maxInFlight int32
	fileHits    int32
}

type recordedRequest struct {
	Path          string
	Query         string
	Authorization string
	UserAgent     string
}

func newFakeVSCO(t *testing.T) *fakeVSCO {
	t.Helper()
	f := &fakeVSCO{
		t:             t,
		galleryStatus: http.StatusOK,
		listingStatus: http.StatusOK,
		pages:         make(map[string]fakePage),
		files:         make(map[string][]byte),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeVSCO) URL() string {
	return f.server.URL
}

func (f *fakeVSCO) client() *Client {
	return NewClient(5*time.Second, logger.NewNopLogger()).WithBaseURL(f.server.URL)
}

func (f *fakeVSCO) setGallery(status int, html string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.galleryStatus = status
	f.galleryHTML = html
}

func (f *fakeVSCO) setPage(cursor string, page fakePage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[cursor] = page
}

func (f *fakeVSCO) setFile(path string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = data
}

func (f *fakeVSCO) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

func (f *fakeVSCO) listingCalls() int {
	n := 0
	for _, r := range f.recorded() {
		if r.Path == MediaProfileEndpoint {
			n++
		}
	}
	return n
}

func (f *fakeVSCO) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Path:          r.URL.Path,
		Query:         r.URL.RawQuery,
		Authorization: r.Header.Get("Authorization"),
		UserAgent:     r.Header.Get("User-Agent"),
	})
	f.mu.Unlock()

	switch {
	case strings.HasSuffix(r.URL.Path, "/gallery"):
		f.mu.Lock()
		status, body := f.galleryStatus, f.galleryHTML
		f.mu.Unlock()
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(status)
		w.Write([]byte(body))

	case r.URL.Path == MediaProfileEndpoint:
		f.mu.Lock()
		status := f.listingStatus
		page, ok := f.pages[r.URL.Query().Get("cursor")]
		f.mu.Unlock()
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		if !ok {
			f.t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		media := page.Media
		if media == nil {
			media = []map[string]interface{}{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"media":       media,
			"next_cursor": page.NextCursor,
		})

	default:
		f.serveFile(w, r)
	}
}

func (f *fakeVSCO) serveFile(w http.ResponseWriter, r *http.Request) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		max := atomic.LoadInt32(&f.maxInFlight)
		if n <= max || atomic.CompareAndSwapInt32(&f.maxInFlight, max, n) {
			break
		}
	}
	atomic.AddInt32(&f.fileHits, 1)

	f.mu.Lock()
	data, ok := f.files[r.URL.Path]
	delay := f.fileDelay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

// galleryPage renders a gallery page embedding state the way the site does
func galleryPage(state string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html><head><title>gallery</title>
<script src="/static/app.js"></script>
</head><body><div id="root"></div>
<script>window.__PRELOADED_STATE__ = %s</script>
</body></html>`, state)
}

// stateJSON builds a preloaded state document
func stateJSON(token, siteID, cursor string, images map[string]map[string]interface{}) string {
	if images == nil {
		images = map[string]map[string]interface{}{}
	}
	state := map[string]interface{}{
		"users": map[string]interface{}{
			"currentUser": map[string]interface{}{"tkn": token},
		},
		"medias": map[string]interface{}{
			"bySiteId": map[string]interface{}{
				siteID: map[string]interface{}{"nextCursor": cursor},
			},
		},
		"entities": map[string]interface{}{"images": images},
	}
	data, _ := json.Marshal(state)
	return string(data)
}

func mediaImage(id, adaptiveBase string) map[string]interface{} {
	return map[string]interface{}{
		"type": "image",
		"image": map[string]interface{}{
			"_id":           id,
			"adaptive_base": adaptiveBase,
			"site_id":       123,
			"width":         4,
			"height":        3,
		},
	}
}

func strPtr(s string) *string {
	return &s
}

// pngBytes encodes a small solid image whose colour is derived from seed
func pngBytes(t *testing.T, seed uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for x := 0; x < 4; x++ {
		for y := 0; y < 3; y++ {
			img.Set(x, y, color.RGBA{R: seed, G: 255 - seed, B: 7, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
