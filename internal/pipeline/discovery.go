package pipeline

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// discover walks root recursively, enqueuing every supported regular file
// whose path is not already in the catalog with matching (mtime, size).
// A file already cataloged and unchanged since its last scan is skipped
// entirely: it is neither counted as discovered nor enqueued, so
// re-running an import over an unchanged tree reports zero new
// discoveries. It terminates when the walk completes or the cancel
// token's global flag is set, per §4.B.
func discover(root string, cancel *CancelToken, tracker *Tracker, lookup exifLookup, out chan<- *item, importBatchID string) {
	defer close(out)

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if cancel.Canceled() {
			return filepath.SkipAll
		}
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		if !supportedExtensions[ext] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		modTime, size := info.ModTime().Unix(), info.Size()

		if catalogedModTime, catalogedSize, ok, lookupErr := lookup.LookupByPath(path); lookupErr == nil && ok {
			if catalogedModTime == modTime && catalogedSize == size {
				return nil
			}
		}

		tracker.IncDiscovered()
		tracker.IncPending(StageExif)
		out <- &item{
			path:          path,
			modTime:       modTime,
			size:          size,
			importBatchID: importBatchID,
		}
		return nil
	})
}
