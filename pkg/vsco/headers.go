package vsco

import (
	"net/http"
	"sort"
)

// Headers is an immutable set of request headers. Every modifying method
// returns a new value, so a Headers can be shared freely between
// goroutines.
type Headers struct {
	values map[string]string
}

// NewHeaders builds a Headers from a plain map. The map is copied.
func NewHeaders(values map[string]string) Headers {
	h := Headers{values: make(map[string]string, len(values))}
	for k, v := range values {
		h.values[http.CanonicalHeaderKey(k)] = v
	}
	return h
}

// DefaultHeaders identifies the client as a desktop browser
func DefaultHeaders(userAgent string) Headers {
	return NewHeaders(map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	})
}

// With returns a copy of h with key set to value
func (h Headers) With(key, value string) Headers {
	return h.Merge(NewHeaders(map[string]string{key: value}))
}

// Merge returns a copy of h overlaid with other; other wins on conflicts
func (h Headers) Merge(other Headers) Headers {
	merged := Headers{values: make(map[string]string, len(h.values)+len(other.values))}
	for k, v := range h.values {
		merged.values[k] = v
	}
	for k, v := range other.values {
		merged.values[k] = v
	}
	return merged
}

// Get returns the value for key, or "" when unset
func (h Headers) Get(key string) string {
	return h.values[http.CanonicalHeaderKey(key)]
}

// Len returns the number of headers
func (h Headers) Len() int {
	return len(h.values)
}

// Keys returns the header names in sorted order
func (h Headers) Keys() []string {
	keys := make([]string, 0, len(h.values))
	for k := range h.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (h Headers) apply(req *http.Request) {
	for k, v := range h.values {
		req.Header.Set(k, v)
	}
}
