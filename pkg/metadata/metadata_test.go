package metadata

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vscodl/pkg/vsco"
)

func sampleImage(t *testing.T) *vsco.Image {
	t.Helper()
	img := vsco.NewImage(vsco.Metadata{
		ID:               "5f3a",
		SiteID:           123,
		AdaptiveBase:     "aws-us-west-2/1/5f3a.jpg",
		Description:      "golden\nhour   at the pier",
		CopyrightClasses: []string{"a"},
		CaptureDateMs:    1600000000123,
		CaptureDate:      1,
		UploadDate:       1600000100000,
		HasLocation:      true,
		LocationCoords:   []interface{}{1.5, 2.5},
		IsFeatured:       true,
		Permalink:        "https://vsco.co/someone/media/5f3a",
		Width:            2000,
		Height:           3000,
		Source:           vsco.SourceMediaAPI,
		ImageMeta:        map[string]interface{}{"aperture": 2.8},
	}, vsco.NewClient(time.Second, nil))
	return img
}

func TestFromImage(t *testing.T) {
	meta := FromImage(sampleImage(t), "someone", 1234)

	assert.Equal(t, "5f3a", meta.ID)
	assert.Equal(t, "someone", meta.Username)
	assert.Equal(t, int64(123), meta.SiteID)
	assert.Equal(t, vsco.SourceMediaAPI, meta.Source)
	assert.Equal(t, "https://vsco.co/aws-us-west-2/1/5f3a.jpg", meta.URL)
	assert.Equal(t, int64(1234), meta.FileSize)
	assert.Equal(t, 2000, meta.Width)
	assert.Equal(t, 3000, meta.Height)
	assert.Equal(t, time.UnixMilli(1600000000123).UTC(), meta.CapturedAt)
	assert.Equal(t, time.UnixMilli(1600000100000).UTC(), meta.UploadedAt)
	assert.True(t, meta.UpdatedAt.IsZero())
	assert.False(t, meta.DownloadedAt.IsZero())
	assert.Equal(t, []interface{}{1.5, 2.5}, meta.Location)
	assert.True(t, meta.IsFeatured)
}

func TestFromImageUsesPayloadBounds(t *testing.T) {
	img := sampleImage(t)
	require.NoError(t, img.SetPayload(image.NewGray(image.Rect(0, 0, 30, 20)), "jpeg"))

	meta := FromImage(img, "someone", 0)
	assert.Equal(t, 30, meta.Width)
	assert.Equal(t, 20, meta.Height)
	assert.Equal(t, "jpeg", meta.Format)
}

func TestFromImageSecondsCaptureDate(t *testing.T) {
	img := vsco.NewImage(vsco.Metadata{ID: "x", CaptureDate: 1600000000}, nil)
	meta := FromImage(img, "someone", 0)
	assert.Equal(t, time.Unix(1600000000, 0).UTC(), meta.CapturedAt)
	assert.Nil(t, meta.Location)
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "5f3a.jpg")

	meta := FromImage(sampleImage(t), "someone", 99)
	require.NoError(t, meta.Save(imagePath))
	assert.True(t, MetadataExists(imagePath))

	loaded, err := Load(imagePath)
	require.NoError(t, err)
	assert.Equal(t, meta.ID, loaded.ID)
	assert.Equal(t, meta.Description, loaded.Description)
	assert.True(t, meta.CapturedAt.Equal(loaded.CapturedAt))
	assert.Equal(t, meta.FileSize, loaded.FileSize)

	raw, err := os.ReadFile(imagePath + ".json")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "updated_at", "zero times are omitted")
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.jpg"))
	assert.Error(t, err)
	assert.False(t, MetadataExists(filepath.Join(t.TempDir(), "nope.jpg")))
}

func TestGetFormattedDescription(t *testing.T) {
	meta := &ImageMetadata{Description: "golden\nhour   at the pier"}

	assert.Equal(t, "golden hour at the pier", meta.GetFormattedDescription(100))
	assert.Equal(t, "golden...", meta.GetFormattedDescription(9))
	assert.Equal(t, "go", meta.GetFormattedDescription(2))
	assert.Equal(t, "", (&ImageMetadata{}).GetFormattedDescription(10))
}

func TestGetAspectRatio(t *testing.T) {
	tests := []struct {
		w, h int
		want string
	}{
		{1920, 1080, "16:9"},
		{3000, 2000, "3:2"},
		{800, 600, "4:3"},
		{500, 500, "1:1"},
		{2000, 3000, "2:3"},
		{1080, 1920, "9:16"},
		{100, 0, "unknown"},
		{300, 100, "3.00:1"},
	}

	for _, tt := range tests {
		meta := &ImageMetadata{Width: tt.w, Height: tt.h}
		assert.Equal(t, tt.want, meta.GetAspectRatio(), "%dx%d", tt.w, tt.h)
	}
}

func TestCleanOrphanedMetadata(t *testing.T) {
	dir := t.TempDir()
	kept := filepath.Join(dir, "kept.jpg")
	require.NoError(t, os.WriteFile(kept, []byte("x"), 0644))
	require.NoError(t, (&ImageMetadata{ID: "kept"}).Save(kept))
	require.NoError(t, (&ImageMetadata{ID: "gone"}).Save(filepath.Join(dir, "gone.jpg")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{}"), 0644))

	removed, err := CleanOrphanedMetadata(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.True(t, MetadataExists(kept))
	assert.False(t, MetadataExists(filepath.Join(dir, "gone.jpg")))
	_, err = os.Stat(filepath.Join(dir, "config.json"))
	assert.NoError(t, err, "json files that are not sidecars are left alone")
}
