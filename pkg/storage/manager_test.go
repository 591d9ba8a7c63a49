package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for x := 0; x < 8; x++ {
		for y := 0; y < 6; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	return img
}

func TestManager(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if manager.GetDownloadedCount() != 0 {
		t.Error("Expected initial download count to be 0")
	}

	if manager.IsDownloaded("5f3a") {
		t.Error("Expected IsDownloaded to return false for non-existent file")
	}

	path, size, err := manager.SaveImage("5f3a", testImage())
	if err != nil {
		t.Fatalf("Failed to save image: %v", err)
	}

	expectedPath := filepath.Join(tempDir, "5f3a.jpg")
	if path != expectedPath {
		t.Errorf("Expected path %s, got %s", expectedPath, path)
	}

	info, err := os.Stat(expectedPath)
	if err != nil {
		t.Fatalf("Expected file to be created: %v", err)
	}
	if info.Size() != size {
		t.Errorf("Reported size %d does not match file size %d", size, info.Size())
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("Expected mode 0644, got %o", info.Mode().Perm())
	}

	f, err := os.Open(expectedPath)
	if err != nil {
		t.Fatalf("Failed to open saved file: %v", err)
	}
	defer f.Close()
	decoded, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("Saved file is not a JPEG: %v", err)
	}
	if decoded.Bounds() != image.Rect(0, 0, 8, 6) {
		t.Errorf("Unexpected bounds %v", decoded.Bounds())
	}

	if !manager.IsDownloaded("5f3a") {
		t.Error("Expected IsDownloaded to return true for existing file")
	}

	if manager.GetDownloadedCount() != 1 {
		t.Errorf("Expected download count to be 1, got %d", manager.GetDownloadedCount())
	}

	// Create another file manually
	manualFile := filepath.Join(tempDir, "manual456.jpg")
	if err := os.WriteFile(manualFile, []byte("manual"), 0644); err != nil {
		t.Fatalf("Failed to create manual file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create unrelated file: %v", err)
	}

	manager2, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create second manager: %v", err)
	}

	if manager2.GetDownloadedCount() != 2 {
		t.Errorf("Expected download count to be 2 after scanning, got %d", manager2.GetDownloadedCount())
	}

	if !manager2.IsDownloaded("manual456") {
		t.Error("Expected manually created file to be detected")
	}
}

func TestIsDownloadedSeesLateFiles(t *testing.T) {
	tempDir := t.TempDir()
	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := os.WriteFile(filepath.Join(tempDir, "late.jpg"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if !manager.IsDownloaded("late") {
		t.Error("Expected file written after the scan to be detected")
	}
	if manager.GetDownloadedCount() != 1 {
		t.Errorf("Expected the late file to be cached, count %d", manager.GetDownloadedCount())
	}
}

func TestSaveRawAndNilPayload(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	path, err := manager.SaveRaw(bytes.NewReader([]byte("raw bytes")), "raw1")
	if err != nil {
		t.Fatalf("Failed to save raw data: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if string(content) != "raw bytes" {
		t.Errorf("Unexpected content %q", content)
	}

	if _, _, err := manager.SaveImage("empty", nil); err == nil {
		t.Error("Expected an error saving a nil payload")
	}
	if manager.IsDownloaded("empty") {
		t.Error("Failed save must not be recorded")
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"5f3a9c", "5f3a9c.jpg"},
		{"a/b", "a_b.jpg"},
		{`..\evil`, "_evil.jpg"},
		{"", "_.jpg"},
		{"..", "_.jpg"},
	}

	for _, tt := range tests {
		if got := FileName(tt.id); got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestConcurrentSavesLeaveNoTempFiles(t *testing.T) {
	tempDir := t.TempDir()
	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	img := testImage()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := manager.SaveImage("same", img); err != nil {
				t.Errorf("Concurrent save failed: %v", err)
			}
		}()
	}
	wg.Wait()

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("Temporary file left behind: %s", e.Name())
		}
	}
	if len(entries) != 1 {
		t.Errorf("Expected exactly one file, got %d", len(entries))
	}
}
