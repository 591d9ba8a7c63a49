package scraper

import (
	"context"

	"vscodl/pkg/vsco"
)

// ProfileLoader enumerates the images of a profile
type ProfileLoader interface {
	Profile(ctx context.Context, username string) (*vsco.Profile, error)
}

// Reporter receives progress while a profile is being saved. Saved and
// Failed may be called concurrently.
type Reporter interface {
	Found(total, pending int)
	Saved(imageID string, size int64)
	Failed(imageID string, err error)
	Complete()
}

type nopReporter struct{}

func (nopReporter) Found(int, int)       {}
func (nopReporter) Saved(string, int64)  {}
func (nopReporter) Failed(string, error) {}
func (nopReporter) Complete()            {}
