// Package scraper saves a VSCO profile's images to disk.
//
// The Scraper ties the pieces together: a vsco.Loader enumerates the
// profile, images already present in the output directory are skipped,
// the rest are downloaded in batches through vsco.Images.LoadAll and
// written by a storage.Manager, optionally with a JSON metadata sidecar.
//
// Usage:
//
//	cfg, err := config.Load("", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	s, err := scraper.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := s.Download(ctx, "someone")
//	if err != nil && result == nil {
//	    log.Fatal(err)
//	}
//
// Storage:
//
// Images are saved as {id}.jpg under the configured output directory, in
// a per-user folder when Output.CreateUserFolders is set. Decoded payloads
// are re-encoded as JPEG whatever codec the CDN served.
package scraper
