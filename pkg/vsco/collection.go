package vsco

import (
	"context"
	"errors"

	"vscodl/internal/downloader"
	vscoerrors "vscodl/pkg/errors"
	"vscodl/pkg/logger"
)

// LoadAll downloads every image in images. With concurrency 0 (or less)
// images are fetched one after another in order; otherwise a pool of
// concurrency workers fetches them and LoadAll returns once all have
// finished.
//
// Images that are already loaded are skipped with a debug log. Every
// other failure is collected, and the failures are returned together
// via errors.Join.
func LoadAll(ctx context.Context, images []*Image, concurrency int, log logger.Logger) error {
	log = logger.OrDefault(log)

	var errs []error
	record := func(img *Image, err error) {
		switch {
		case err == nil:
		case vscoerrors.IsAlreadyLoaded(err):
			log.DebugWithFields("image already loaded", map[string]interface{}{
				"image_id": img.ID,
			})
		default:
			log.WithError(err).DebugWithFields("image download failed", map[string]interface{}{
				"image_id": img.ID,
			})
			errs = append(errs, err)
		}
	}

	if concurrency <= 0 {
		for _, img := range images {
			record(img, img.Download(ctx))
		}
	} else {
		jobs := make([]downloader.Job, len(images))
		for i, img := range images {
			jobs[i] = downloader.Job{Key: img.ID, Item: img}
		}
		pool := downloader.NewWorkerPool(concurrency, log)
		for _, r := range pool.Run(ctx, jobs) {
			record(images[r.Job.Index], r.Error)
		}
	}

	if len(errs) > 0 {
		log.WarnWithFields("some images failed to download", map[string]interface{}{
			"failed": len(errs),
			"total":  len(images),
		})
	}
	return errors.Join(errs...)
}

// Images is an enumerated image collection
type Images []*Image

// LoadAll downloads every image in the collection; see the package-level LoadAll
func (imgs Images) LoadAll(ctx context.Context, concurrency int, log logger.Logger) error {
	return LoadAll(ctx, imgs, concurrency, log)
}

// Loaded returns the images whose payload is populated
func (imgs Images) Loaded() Images {
	return imgs.Filter((*Image).Loaded)
}

// Filter returns the images for which keep returns true
func (imgs Images) Filter(keep func(*Image) bool) Images {
	var out Images
	for _, img := range imgs {
		if keep(img) {
			out = append(out, img)
		}
	}
	return out
}

// Find returns the image with the given id
func (imgs Images) Find(id string) (*Image, bool) {
	for _, img := range imgs {
		if img.ID == id {
			return img, true
		}
	}
	return nil, false
}
