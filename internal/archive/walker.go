package archive

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
)

// Walker enumerates everything below a root directory, depth first and in
// lexical order. Entries that cannot be read are counted and passed to the
// skip callback instead of ending the walk.
type Walker struct {
	root    string
	onSkip  func(path string, err error)
	skipped int
	started bool
}

func NewWalker(root string, onSkip func(path string, err error)) *Walker {
	return &Walker{
		root:   root,
		onSkip: onSkip,
	}
}

func (w *Walker) Skipped() int {
	return w.skipped
}

// Entries returns the walk as a single-use sequence. Ranging over it a
// second time yields nothing.
func (w *Walker) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		if w.started {
			return
		}
		w.started = true

		_ = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				w.skip(path, err)
				return nil
			}

			if path == w.root {
				return nil
			}

			entry, ok := w.classify(path, d)
			if !ok {
				return nil
			}

			if !yield(entry) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func (w *Walker) classify(path string, d fs.DirEntry) (Entry, bool) {
	mode := d.Type()

	switch {
	case d.IsDir():
		return Entry{Path: path, IsDir: true}, true
	case mode.IsRegular():
		return Entry{Path: path}, true
	case mode&fs.ModeSymlink != 0:
		info, err := os.Stat(path)
		if err != nil {
			w.skip(path, err)
			return Entry{}, false
		}
		if info.IsDir() {
			return Entry{Path: path, IsDir: true}, true
		}
		if info.Mode().IsRegular() {
			return Entry{Path: path}, true
		}
		w.skip(path, fmt.Errorf("unsupported link target type %s", info.Mode().Type()))
		return Entry{}, false
	default:
		w.skip(path, fmt.Errorf("unsupported file type %s", mode))
		return Entry{}, false
	}
}

func (w *Walker) skip(path string, err error) {
	w.skipped++
	if w.onSkip != nil {
		w.onSkip(path, err)
	}
}
