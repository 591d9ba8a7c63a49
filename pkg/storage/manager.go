package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// JPEGQuality is the quality decoded payloads are re-encoded with
const JPEGQuality = 95

const fileExt = ".jpg"

// Manager handles file storage operations and duplicate detection
type Manager struct {
	outputDir        string
	downloadedImages map[string]bool
	mu               sync.RWMutex
}

// NewManager creates a new storage manager
func NewManager(outputDir string) (*Manager, error) {
	// Create output directory if it doesn't exist
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		outputDir:        outputDir,
		downloadedImages: make(map[string]bool),
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

// scanExistingFiles records the images already saved in the output directory
func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && filepath.Ext(name) == fileExt {
			m.downloadedImages[strings.TrimSuffix(name, fileExt)] = true
		}
	}

	return nil
}

// Path returns where the image with the given id is (or would be) saved
func (m *Manager) Path(imageID string) string {
	return filepath.Join(m.outputDir, FileName(imageID))
}

// FileName maps an image id to a safe file name
func FileName(imageID string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, imageID)
	name = strings.Trim(name, ". ")
	if name == "" {
		name = "_"
	}
	return name + fileExt
}

// IsDownloaded checks if the image with the given id has already been saved
func (m *Manager) IsDownloaded(imageID string) bool {
	key := strings.TrimSuffix(FileName(imageID), fileExt)

	m.mu.RLock()
	known := m.downloadedImages[key]
	m.mu.RUnlock()
	if known {
		return true
	}

	// The file may have been written by another process since the scan
	if _, err := os.Stat(m.Path(imageID)); err == nil {
		m.mu.Lock()
		m.downloadedImages[key] = true
		m.mu.Unlock()
		return true
	}

	return false
}

// SaveImage encodes img as JPEG and writes it under the image's id. It
// returns the written path and its size in bytes.
func (m *Manager) SaveImage(imageID string, img image.Image) (string, int64, error) {
	if img == nil {
		return "", 0, fmt.Errorf("image %s has no payload", imageID)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return "", 0, fmt.Errorf("failed to encode image %s: %w", imageID, err)
	}
	size := int64(buf.Len())

	path, err := m.save(&buf, imageID)
	if err != nil {
		return "", 0, err
	}
	return path, size, nil
}

// SaveRaw writes already-encoded JPEG bytes from r under the image's id
func (m *Manager) SaveRaw(r io.Reader, imageID string) (string, error) {
	return m.save(r, imageID)
}

func (m *Manager) save(r io.Reader, imageID string) (string, error) {
	filename := m.Path(imageID)

	// Unique temp names keep concurrent saves of one id apart
	out, err := os.CreateTemp(m.outputDir, "."+FileName(imageID)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := out.Name()

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to save image data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to set file mode: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.downloadedImages[strings.TrimSuffix(FileName(imageID), fileExt)] = true
	m.mu.Unlock()

	return filename, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// GetDownloadedCount returns the number of saved images
func (m *Manager) GetDownloadedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.downloadedImages)
}
