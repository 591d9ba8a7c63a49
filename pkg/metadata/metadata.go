package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vscodl/pkg/vsco"
)

// ImageMetadata is the sidecar written next to each saved image
type ImageMetadata struct {
	// Core identifiers
	ID       string      `json:"id"`
	Username string      `json:"username"`
	SiteID   int64       `json:"site_id"`
	Source   vsco.Source `json:"source"`

	// Locations
	URL           string `json:"url"`
	Permalink     string `json:"permalink,omitempty"`
	ShareLink     string `json:"share_link,omitempty"`
	ResponsiveURL string `json:"responsive_url,omitempty"`

	// Media properties
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`

	// Timestamps
	CapturedAt   time.Time `json:"captured_at,omitzero"`
	UploadedAt   time.Time `json:"uploaded_at,omitzero"`
	UpdatedAt    time.Time `json:"updated_at,omitzero"`
	DownloadedAt time.Time `json:"downloaded_at"`

	// Content
	Description      string      `json:"description,omitempty"`
	CopyrightClasses []string    `json:"copyright_classes,omitempty"`
	HasLocation      bool        `json:"has_location"`
	Location         interface{} `json:"location,omitempty"`
	IsFeatured       bool        `json:"is_featured"`
	ImageMeta        interface{} `json:"image_meta,omitempty"`
}

// FromImage builds the sidecar for img as saved under username
func FromImage(img *vsco.Image, username string, fileSize int64) *ImageMetadata {
	meta := &ImageMetadata{
		ID:               img.ID,
		Username:         username,
		SiteID:           img.SiteID,
		Source:           img.Source,
		URL:              img.URL(),
		Permalink:        img.Permalink,
		ShareLink:        img.ShareLink,
		ResponsiveURL:    img.ResponsiveURL,
		Width:            img.Width,
		Height:           img.Height,
		Format:           img.Format(),
		FileSize:         fileSize,
		UploadedAt:       fromMillis(img.UploadDate),
		UpdatedAt:        fromMillis(img.LastUpdated),
		DownloadedAt:     time.Now().UTC(),
		Description:      img.Description,
		CopyrightClasses: img.CopyrightClasses,
		HasLocation:      img.HasLocation,
		IsFeatured:       img.IsFeatured,
	}

	// Prefer the millisecond capture time when both are present
	if img.CaptureDateMs > 0 {
		meta.CapturedAt = fromMillis(img.CaptureDateMs)
	} else if img.CaptureDate > 0 {
		meta.CapturedAt = time.Unix(img.CaptureDate, 0).UTC()
	}

	if img.HasLocation {
		meta.Location = img.LocationCoords
	}
	if len(img.ImageMeta) > 0 {
		meta.ImageMeta = img.ImageMeta
	}

	// The payload's real size wins over the advertised one
	if p := img.Payload(); p != nil {
		b := p.Bounds()
		meta.Width, meta.Height = b.Dx(), b.Dy()
	}

	return meta
}

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// Save writes the metadata to a JSON file next to imagePath
func (m *ImageMetadata) Save(imagePath string) error {
	metadataPath := imagePath + ".json"

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(metadataPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	return nil
}

// Load reads the metadata saved next to imagePath
func Load(imagePath string) (*ImageMetadata, error) {
	metadataPath := imagePath + ".json"

	data, err := os.ReadFile(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var meta ImageMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &meta, nil
}

// GetFormattedDescription returns the description on one line, truncated
// to maxLength runes.
func (m *ImageMetadata) GetFormattedDescription(maxLength int) string {
	if m.Description == "" || maxLength <= 0 {
		return ""
	}

	desc := strings.Join(strings.Fields(m.Description), " ")
	runes := []rune(desc)
	if len(runes) > maxLength {
		if maxLength <= 3 {
			return string(runes[:maxLength])
		}
		desc = string(runes[:maxLength-3]) + "..."
	}

	return desc
}

// GetAspectRatio returns the aspect ratio as a string
func (m *ImageMetadata) GetAspectRatio() string {
	if m.Height == 0 {
		return "unknown"
	}

	ratio := float64(m.Width) / float64(m.Height)

	switch {
	case ratio > 1.7 && ratio < 1.8:
		return "16:9"
	case ratio > 1.45 && ratio < 1.55:
		return "3:2"
	case ratio > 1.3 && ratio < 1.4:
		return "4:3"
	case ratio > 0.9 && ratio < 1.1:
		return "1:1"
	case ratio > 0.74 && ratio < 0.76:
		return "3:4"
	case ratio > 0.65 && ratio < 0.68:
		return "2:3"
	case ratio > 0.55 && ratio < 0.57:
		return "9:16"
	default:
		return fmt.Sprintf("%.2f:1", ratio)
	}
}

// MetadataExists checks if a metadata file exists for an image
func MetadataExists(imagePath string) bool {
	_, err := os.Stat(imagePath + ".json")
	return err == nil
}

// CleanOrphanedMetadata removes metadata files whose image is gone
func CleanOrphanedMetadata(directory string) (int, error) {
	removed := 0
	err := filepath.Walk(directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		imagePath := strings.TrimSuffix(path, ".json")
		if filepath.Ext(imagePath) == "" {
			return nil
		}
		if _, err := os.Stat(imagePath); os.IsNotExist(err) {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove orphaned metadata %s: %w", path, err)
			}
			removed++
		}

		return nil
	})
	return removed, err
}
