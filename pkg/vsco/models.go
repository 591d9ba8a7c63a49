package vsco

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Source records which schema an image record was built from
type Source string

const (
	// SourceMediaAPI marks records from the paginated media listing
	SourceMediaAPI Source = "media_api"
	// SourcePreload marks records from the gallery page's preloaded state
	SourcePreload Source = "preload"
)

// Metadata is the normalized description of one image. The media listing
// uses snake_case names (json tags) and the preloaded state uses camelCase
// names (preload tags); both decode into this one struct.
type Metadata struct {
	ID                  string                 `json:"_id" preload:"id"`
	GridName            string                 `json:"grid_name" preload:"gridName"`
	AdaptiveBase        string                 `json:"adaptive_base" preload:"adaptiveBase"`
	SiteID              int64                  `json:"site_id" preload:"siteId"`
	Description         string                 `json:"description" preload:"description"`
	DescriptionAnchored string                 `json:"description_anchored" preload:"descriptionAnchored"`
	CopyrightClasses    []string               `json:"copyright_classes" preload:"copyrightClasses"`
	CaptureDate         int64                  `json:"capture_date" preload:"captureDate"`
	CaptureDateMs       int64                  `json:"capture_date_ms" preload:"captureDateMs"`
	UploadDate          int64                  `json:"upload_date" preload:"uploadDate"`
	LastUpdated         int64                  `json:"last_updated" preload:"lastUpdated"`
	LocationCoords      interface{}            `json:"location_coords" preload:"locationCoords"`
	HasLocation         bool                   `json:"has_location" preload:"hasLocation"`
	FeatureLink         string                 `json:"feature_link" preload:"featureLink"`
	IsFeatured          bool                   `json:"is_featured" preload:"isFeatured"`
	IsVideo             bool                   `json:"is_video" preload:"isVideo"`
	PermaDomain         string                 `json:"perma_domain" preload:"permaDomain"`
	PermaSubdomain      string                 `json:"perma_subdomain" preload:"permaSubdomain"`
	Permalink           string                 `json:"permalink" preload:"permalink"`
	ShareLink           string                 `json:"share_link" preload:"shareLink"`
	ResponsiveURL       string                 `json:"responsive_url" preload:"responsiveUrl"`
	ShowLocation        int                    `json:"show_location" preload:"showLocation"`
	ImageStatus         map[string]interface{} `json:"image_status" preload:"imageStatus"`
	ImageMeta           map[string]interface{} `json:"image_meta" preload:"imageMeta"`
	Height              int                    `json:"height" preload:"height"`
	Width               int                    `json:"width" preload:"width"`
	Source              Source                 `json:"source" preload:"-"`
}

const (
	mediaTag   = "json"
	preloadTag = "preload"
)

// decodeMetadata maps a raw JSON object onto Metadata using the field
// names selected by tag. Input is weakly typed: numbers that arrive as
// strings (and the reverse) are converted.
func decodeMetadata(raw map[string]interface{}, tag string, source Source) (Metadata, error) {
	var meta Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          tag,
		WeaklyTypedInput: true,
		Result:           &meta,
	})
	if err != nil {
		return meta, err
	}
	if err := dec.Decode(raw); err != nil {
		return meta, fmt.Errorf("decoding %s image: %w", source, err)
	}
	meta.Source = source
	return meta, nil
}

// parseMediaImage builds metadata from one media listing entry's image object
func parseMediaImage(raw map[string]interface{}) (Metadata, error) {
	return decodeMetadata(raw, mediaTag, SourceMediaAPI)
}

// parsePreloadImage builds metadata from one preloaded state image entry
func parsePreloadImage(raw map[string]interface{}) (Metadata, error) {
	return decodeMetadata(raw, preloadTag, SourcePreload)
}

// mediaPage is one response of the media listing endpoint
type mediaPage struct {
	Media      []mediaEntry `json:"media"`
	NextCursor *string      `json:"next_cursor"`
}

// mediaEntry is one item of a media page. Image is absent for non-image
// media such as videos.
type mediaEntry struct {
	Type  string                 `json:"type"`
	Image map[string]interface{} `json:"image"`
}

// preloadedState is the subset of the gallery page's embedded state the
// loader reads.
type preloadedState struct {
	Users struct {
		CurrentUser struct {
			Token string `json:"tkn"`
		} `json:"currentUser"`
	} `json:"users"`
	Medias struct {
		BySiteID map[string]struct {
			NextCursor *string `json:"nextCursor"`
		} `json:"bySiteId"`
	} `json:"medias"`
	Entities struct {
		Images map[string]map[string]interface{} `json:"images"`
	} `json:"entities"`
}
