package vsco

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	vscoerrors "vscodl/pkg/errors"
)

// preloadMarker precedes the state document inside its script tag
const preloadMarker = "window.__PRELOADED_STATE__ = "

// extractPreloadedState finds the script carrying the preloaded state in a
// gallery page and decodes the JSON document that follows the marker.
// Anything after the document (a trailing semicolon, more statements) is
// ignored.
func extractPreloadedState(page []byte) (*preloadedState, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, vscoerrors.New(vscoerrors.ErrorTypeMalformedPage, http.StatusOK, "failed to parse gallery page: %v", err)
	}

	script, ok := findPreloadScript(doc)
	if !ok {
		return nil, vscoerrors.New(vscoerrors.ErrorTypeMalformedPage, http.StatusOK, "preloaded state marker not found")
	}

	var state preloadedState
	dec := json.NewDecoder(strings.NewReader(script))
	if err := dec.Decode(&state); err != nil {
		return nil, vscoerrors.New(vscoerrors.ErrorTypeMalformedPage, http.StatusOK, "invalid preloaded state: %v", err)
	}
	return &state, nil
}

// findPreloadScript returns the text following the marker in the first
// script element that starts with it.
func findPreloadScript(n *html.Node) (string, bool) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Script {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.TextNode {
				continue
			}
			text := strings.TrimSpace(c.Data)
			if strings.HasPrefix(text, preloadMarker) {
				return text[len(preloadMarker):], true
			}
		}
		return "", false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if s, ok := findPreloadScript(c); ok {
			return s, true
		}
	}
	return "", false
}

// session returns the bearer token and the site id/cursor pair the
// listing starts from. The state is expected to carry exactly one site;
// when it carries more, the lowest site id wins and siteCount reports
// how many were present.
func (s *preloadedState) session() (token, siteID, cursor string, siteCount int, err error) {
	token = s.Users.CurrentUser.Token
	if token == "" {
		return "", "", "", 0, vscoerrors.New(vscoerrors.ErrorTypeMalformedPage, http.StatusOK, "preloaded state has no session token")
	}

	sites := s.Medias.BySiteID
	if len(sites) == 0 {
		return "", "", "", 0, vscoerrors.New(vscoerrors.ErrorTypeMalformedPage, http.StatusOK, "preloaded state has no site entry")
	}

	ids := make([]string, 0, len(sites))
	for id := range sites {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	siteID = ids[0]
	if next := sites[siteID].NextCursor; next != nil {
		cursor = *next
	}
	return token, siteID, cursor, len(ids), nil
}

// inlineImages returns the preloaded image entries in key order
func (s *preloadedState) inlineImages() []map[string]interface{} {
	keys := make([]string, 0, len(s.Entities.Images))
	for k := range s.Entities.Images {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	images := make([]map[string]interface{}, 0, len(keys))
	for _, k := range keys {
		if raw := s.Entities.Images[k]; raw != nil {
			images = append(images, raw)
		}
	}
	return images
}
