package archive

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	qt "github.com/frankban/quicktest"
	"github.com/klauspost/compress/zip"
)

// writeTree creates files under root. Keys ending in "/" become empty
// directories.
func writeTree(c *qt.C, root string, files map[string]string) {
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if strings.HasSuffix(name, "/") {
			c.Assert(os.MkdirAll(path, 0755), qt.IsNil)
			continue
		}
		c.Assert(os.MkdirAll(filepath.Dir(path), 0755), qt.IsNil)
		c.Assert(os.WriteFile(path, []byte(content), 0644), qt.IsNil)
	}
}

type zipEntry struct {
	content []byte
	method  uint16
	isDir   bool
}

func readZip(c *qt.C, path string) map[string]zipEntry {
	reader, err := zip.OpenReader(path)
	c.Assert(err, qt.IsNil)
	defer reader.Close()

	entries := make(map[string]zipEntry)
	for _, f := range reader.File {
		_, dup := entries[f.Name]
		c.Assert(dup, qt.IsFalse, qt.Commentf("duplicate entry %s", f.Name))

		rc, err := f.Open()
		c.Assert(err, qt.IsNil)
		data, err := io.ReadAll(rc)
		rc.Close()
		c.Assert(err, qt.IsNil)

		entries[f.Name] = zipEntry{
			content: data,
			method:  f.Method,
			isDir:   f.FileInfo().IsDir(),
		}
	}
	return entries
}

func names(entries map[string]zipEntry) []string {
	out := make([]string, 0, len(entries))
	for name := range entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func dirListing(c *qt.C, dir string) []string {
	entries, err := os.ReadDir(dir)
	c.Assert(err, qt.IsNil)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out
}

type recordingProgress struct {
	mu       sync.Mutex
	messages []string
	errors   []string
}

func (r *recordingProgress) WriteMessage(msgType string, data string) {
	if msgType == StreamTypeError {
		r.WriteError(data)
		return
	}
	r.WriteStdout(data)
}

func (r *recordingProgress) WriteError(data string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, data)
}

func (r *recordingProgress) WriteStdout(data string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, data)
}
