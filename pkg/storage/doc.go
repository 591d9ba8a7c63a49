// Package storage writes downloaded images to disk.
//
// A Manager owns one output directory. Images are stored as <id>.jpg,
// written to a temporary file first and renamed into place, so a partial
// write never looks like a saved image. Existing files are scanned when
// the manager is created and used for duplicate detection:
//
//	manager, err := storage.NewManager("downloads/someone")
//	if err != nil {
//	    return err
//	}
//	if !manager.IsDownloaded(img.ID) {
//	    path, size, err := manager.SaveImage(img.ID, img.Payload())
//	    ...
//	}
package storage
