package vsco

import (
	"fmt"
	"net/url"
	"strings"

	"vscodl/pkg/config"
)

const (
	// BaseURL is the default content host
	BaseURL = config.DefaultHost

	// MediaProfileEndpoint lists a site's media, one cursor page at a time
	MediaProfileEndpoint = "/api/3.0/medias/profile"

	// MediaPageLimit is the page size requested from the media listing
	MediaPageLimit = 9999
)

// GalleryURL returns the gallery page of username, which embeds the
// preloaded state document.
func GalleryURL(host, username string) string {
	return fmt.Sprintf("%s/%s/gallery", trimHost(host), url.PathEscape(username))
}

// MediaProfileURL returns the media listing URL for one page of siteID
// starting at cursor.
func MediaProfileURL(host, siteID, cursor string) string {
	return fmt.Sprintf("%s%s?site_id=%s&limit=%d&cursor=%s",
		trimHost(host),
		MediaProfileEndpoint,
		url.QueryEscape(siteID),
		MediaPageLimit,
		url.QueryEscape(cursor),
	)
}

// ImageURL returns the location of an image's binary given its adaptive base path
func ImageURL(host, adaptiveBase string) string {
	return trimHost(host) + "/" + strings.TrimLeft(adaptiveBase, "/")
}

// ImageByIDURL returns the location of an image's binary given its id
func ImageByIDURL(host, imageID string) string {
	return fmt.Sprintf("%s/i/%s", trimHost(host), url.PathEscape(imageID))
}

// SanitizeUsername strips a leading @, surrounding whitespace and trailing slashes
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	username = strings.TrimPrefix(username, "@")
	return strings.TrimRight(username, "/ ")
}

func trimHost(host string) string {
	return strings.TrimRight(host, "/")
}
