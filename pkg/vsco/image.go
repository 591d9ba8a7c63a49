package vsco

import (
	"bytes"
	"context"
	"image"
	"net/http"
	"sync"

	// Decoders for the codecs the CDN serves.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	vscoerrors "vscodl/pkg/errors"
)

// Image is one enumerated image. Metadata is fixed once the record is
// built; the decoded payload starts empty and can be populated once.
type Image struct {
	Metadata

	client *Client

	mu      sync.RWMutex
	payload image.Image
	format  string
	size    int
}

// NewImage creates an image record that downloads through client
func NewImage(meta Metadata, client *Client) *Image {
	return &Image{Metadata: meta, client: client}
}

// Loaded reports whether the payload has been populated
func (img *Image) Loaded() bool {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.payload != nil
}

// Payload returns the decoded image, or nil before it is downloaded
func (img *Image) Payload() image.Image {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.payload
}

// Format returns the codec name the payload was decoded from ("jpeg", "png", ...)
func (img *Image) Format() string {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.format
}

// Size returns the number of encoded bytes the payload was decoded from
func (img *Image) Size() int {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.size
}

// URL returns the location of the image's binary
func (img *Image) URL() string {
	if img.client == nil {
		return ImageURL(BaseURL, img.AdaptiveBase)
	}
	return ImageURL(img.client.BaseURL(), img.AdaptiveBase)
}

// Download fetches the image from its adaptive base path and decodes it.
// It fails with an already_loaded error if the payload is populated, and
// with a request error on any status other than 200.
func (img *Image) Download(ctx context.Context) error {
	return img.fetch(ctx, img.URL())
}

// DownloadByID fetches the image through the id-addressed endpoint instead
// of the adaptive base path. The same single-population rule applies.
func (img *Image) DownloadByID(ctx context.Context) error {
	host := BaseURL
	if img.client != nil {
		host = img.client.BaseURL()
	}
	return img.fetch(ctx, ImageByIDURL(host, img.ID))
}

// SetPayload populates the payload directly. It fails with an
// already_loaded error if the payload is populated.
func (img *Image) SetPayload(decoded image.Image, format string) error {
	if decoded == nil {
		return vscoerrors.New(vscoerrors.ErrorTypeParsing, 0, "image %s: nil payload", img.ID)
	}
	img.mu.Lock()
	defer img.mu.Unlock()
	return img.setLocked(decoded, format, 0)
}

func (img *Image) fetch(ctx context.Context, url string) error {
	if img.Loaded() {
		return img.alreadyLoaded()
	}
	if img.client == nil {
		return vscoerrors.New(vscoerrors.ErrorTypeRequest, 0, "image %s has no client", img.ID)
	}

	img.client.logger.DebugWithFields("downloading image", map[string]interface{}{
		"image_id": img.ID,
		"url":      url,
	})

	resp, err := img.client.Get(ctx, url)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return vscoerrors.New(vscoerrors.ErrorTypeRequest, resp.StatusCode, "image %s: GET %s returned status %d", img.ID, url, resp.StatusCode)
	}

	decoded, format, err := image.Decode(bytes.NewReader(resp.Body))
	if err != nil {
		return vscoerrors.New(vscoerrors.ErrorTypeParsing, resp.StatusCode, "image %s: failed to decode: %v", img.ID, err)
	}

	img.mu.Lock()
	defer img.mu.Unlock()
	// A concurrent download may have won while this one was in flight.
	return img.setLocked(decoded, format, len(resp.Body))
}

func (img *Image) setLocked(decoded image.Image, format string, size int) error {
	if img.payload != nil {
		return img.alreadyLoaded()
	}
	img.payload = decoded
	img.format = format
	img.size = size
	return nil
}

func (img *Image) alreadyLoaded() error {
	return vscoerrors.New(vscoerrors.ErrorTypeAlreadyLoaded, 0, "image %s is already loaded", img.ID)
}
