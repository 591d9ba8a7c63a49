package scraper

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"vscodl/pkg/config"
	"vscodl/pkg/logger"
	"vscodl/pkg/metadata"
	"vscodl/pkg/storage"
	"vscodl/pkg/vsco"
)

// minBatchSize is the smallest number of images decoded before they are
// written out and released.
const minBatchSize = 16

// errNotDownloaded is reported for images whose download failed; the
// underlying errors are part of the error Download returns.
var errNotDownloaded = errors.New("image was not downloaded")

// Scraper orchestrates saving a profile's images to disk
type Scraper struct {
	loader   ProfileLoader
	config   *config.Config
	logger   logger.Logger
	reporter Reporter
}

// Result summarizes one Download run
type Result struct {
	Username  string
	OutputDir string
	// Total is the number of images the profile lists
	Total int
	// Skipped counts images already on disk, duplicates and videos
	Skipped  int
	Saved    int
	Failed   int
	Bytes    int64
	Duration time.Duration
}

// New creates a Scraper talking to the host configured in cfg
func New(cfg *config.Config) (*Scraper, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.GetLogger()
	client := vsco.NewClientWithConfig(&cfg.VSCO, cfg.Download.Timeout, log)
	return NewWithLoader(cfg, vsco.NewLoader(client, log), log), nil
}

// NewWithLoader creates a Scraper that enumerates profiles through loader
func NewWithLoader(cfg *config.Config, loader ProfileLoader, log logger.Logger) *Scraper {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scraper{
		loader:   loader,
		config:   cfg,
		logger:   logger.OrDefault(log),
		reporter: nopReporter{},
	}
}

// SetReporter sets the progress receiver for subsequent runs
func (s *Scraper) SetReporter(r Reporter) {
	if r == nil {
		r = nopReporter{}
	}
	s.reporter = r
}

// OutputDir returns the directory username's images are saved to
func (s *Scraper) OutputDir(username string) string {
	username = vsco.SanitizeUsername(username)
	if s.config.Output.CreateUserFolders {
		return filepath.Join(s.config.Output.Directory, username)
	}
	return s.config.Output.Directory
}

// List enumerates username's images without downloading them
func (s *Scraper) List(ctx context.Context, username string) (vsco.Images, error) {
	profile, err := s.loader.Profile(ctx, username)
	if err != nil {
		return nil, err
	}
	return profile.Images, nil
}

// Download enumerates username's images, downloads the ones not already
// on disk and saves them. Individual failures do not stop the run: they
// are counted in the result and returned joined together. A profile that
// cannot be loaded fails the run with no result.
func (s *Scraper) Download(ctx context.Context, username string) (*Result, error) {
	start := time.Now()
	log := s.logger.WithField("username", username)
	log.Info("starting profile download")

	profile, err := s.loader.Profile(ctx, username)
	if err != nil {
		log.WithError(err).Error("failed to load profile")
		return nil, fmt.Errorf("failed to load profile %s: %w", username, err)
	}

	outputDir := s.OutputDir(profile.Username)
	store, err := storage.NewManager(outputDir)
	if err != nil {
		log.WithError(err).Error("failed to create storage manager")
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	pending := s.pendingImages(profile.Images, store, log)
	result := &Result{
		Username:  profile.Username,
		OutputDir: outputDir,
		Total:     len(profile.Images),
		Skipped:   len(profile.Images) - len(pending),
	}
	s.reporter.Found(result.Total, len(pending))

	log.InfoWithFields("downloading images", map[string]interface{}{
		"total":      result.Total,
		"pending":    len(pending),
		"output_dir": outputDir,
	})

	var errs []error
	for _, batch := range batches(pending, s.batchSize()) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		// Fresh records so decoded payloads are released after each batch
		work := make(vsco.Images, len(batch))
		for i, img := range batch {
			work[i] = vsco.NewImage(img.Metadata, profile.Client())
		}
		errs = append(errs, s.processBatch(ctx, work, profile.Username, store, result, log)...)
	}

	result.Duration = time.Since(start)
	s.reporter.Complete()

	log.InfoWithFields("profile download finished", map[string]interface{}{
		"saved":    result.Saved,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
		"bytes":    result.Bytes,
		"duration": result.Duration.String(),
	})

	return result, errors.Join(errs...)
}

// pendingImages drops videos, repeated ids and images already on disk
func (s *Scraper) pendingImages(images vsco.Images, store *storage.Manager, log logger.Logger) vsco.Images {
	seen := make(map[string]bool, len(images))
	return images.Filter(func(img *vsco.Image) bool {
		switch {
		case img.IsVideo:
			log.DebugWithFields("skipping video", map[string]interface{}{"image_id": img.ID})
			return false
		case seen[img.ID]:
			return false
		}
		seen[img.ID] = true
		if store.IsDownloaded(img.ID) {
			log.DebugWithFields("skipping already saved image", map[string]interface{}{"image_id": img.ID})
			return false
		}
		return true
	})
}

// processBatch downloads a batch and writes every image that decoded
func (s *Scraper) processBatch(ctx context.Context, batch vsco.Images, username string, store *storage.Manager, result *Result, log logger.Logger) []error {
	var errs []error
	if err := batch.LoadAll(ctx, s.config.Download.Concurrency, log); err != nil {
		errs = append(errs, err)
	}

	var (
		mu       sync.Mutex
		saved    int64
		written  int64
		failures []error
	)
	fail := func(id string, err error) {
		mu.Lock()
		failures = append(failures, err)
		mu.Unlock()
		s.reporter.Failed(id, err)
	}

	for _, img := range batch.Filter(func(img *vsco.Image) bool { return !img.Loaded() }) {
		s.reporter.Failed(img.ID, errNotDownloaded)
		result.Failed++
	}

	var g errgroup.Group
	g.SetLimit(max(1, s.config.Download.Concurrency))
	for _, img := range batch.Loaded() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, size, err := store.SaveImage(img.ID, img.Payload())
			if err != nil {
				log.WithError(err).WithField("image_id", img.ID).Warn("failed to save image")
				fail(img.ID, err)
				return nil
			}
			if s.config.Output.SaveMetadata {
				if err := metadata.FromImage(img, username, size).Save(path); err != nil {
					log.WithError(err).WithField("image_id", img.ID).Warn("failed to save metadata")
				}
			}
			atomic.AddInt64(&saved, 1)
			atomic.AddInt64(&written, size)
			s.reporter.Saved(img.ID, size)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}

	result.Saved += int(saved)
	result.Bytes += written
	result.Failed += len(failures)
	return append(errs, failures...)
}

func (s *Scraper) batchSize() int {
	return max(minBatchSize, s.config.Download.Concurrency*8)
}

func batches(images vsco.Images, size int) []vsco.Images {
	var out []vsco.Images
	for len(images) > 0 {
		n := min(size, len(images))
		out = append(out, images[:n])
		images = images[n:]
	}
	return out
}
