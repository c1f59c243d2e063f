package archive

import (
	"bytes"
	"crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

func newTestHandler(c *qt.C) *ZipHandler {
	h, err := NewZipHandler(Deflate, flate.DefaultCompression, nil)
	c.Assert(err, qt.IsNil)
	return h
}

func TestNewZipHandlerRejectsBadSettings(t *testing.T) {
	c := qt.New(t)

	_, err := NewZipHandler(Method(zip.Store), flate.DefaultCompression, nil)
	c.Assert(err, qt.ErrorIs, ErrUnsupportedMethod)

	_, err = NewZipHandler(Deflate, 10, nil)
	c.Assert(err, qt.ErrorMatches, "invalid compression level 10")

	_, err = NewZipHandler(Deflate, flate.BestSpeed, nil)
	c.Assert(err, qt.IsNil)
}

func TestZipHandlerCreate(t *testing.T) {
	c := qt.New(t)

	root := c.TempDir()
	big := make([]byte, 256*1024)
	_, err := rand.Read(big)
	c.Assert(err, qt.IsNil)

	writeTree(c, root, map[string]string{
		"small.txt":      "tiny",
		"nested/big.bin": string(big),
		"nested/after":   "short after big",
		"empty/":         "",
		"zero.txt":       "",
	})

	dest := filepath.Join(c.TempDir(), "out.zip")
	progress := &recordingProgress{}

	result, err := newTestHandler(c).Create(NewWalker(root, nil).Entries(), root, dest, progress)
	c.Assert(err, qt.IsNil)
	c.Assert(result.Path, qt.Equals, dest)
	c.Assert(result.Files, qt.Equals, 4)
	c.Assert(result.Directories, qt.Equals, 2)
	c.Assert(result.Bytes, qt.Equals, int64(len(big)+len("tiny")+len("short after big")))
	c.Assert(progress.messages, qt.HasLen, 6)

	entries := readZip(c, dest)
	c.Assert(names(entries), qt.DeepEquals, []string{
		"empty/",
		"nested/",
		"nested/after",
		"nested/big.bin",
		"small.txt",
		"zero.txt",
	})

	c.Assert(bytes.Equal(entries["nested/big.bin"].content, big), qt.IsTrue)
	c.Assert(string(entries["nested/after"].content), qt.Equals, "short after big")
	c.Assert(string(entries["small.txt"].content), qt.Equals, "tiny")
	c.Assert(entries["zero.txt"].content, qt.HasLen, 0)

	for name, entry := range entries {
		if entry.isDir {
			c.Assert(entry.content, qt.HasLen, 0, qt.Commentf(name))
			continue
		}
		c.Assert(entry.method, qt.Equals, zip.Deflate, qt.Commentf(name))
	}
}

func TestZipHandlerSkipsOwnArchive(t *testing.T) {
	c := qt.New(t)

	root := c.TempDir()
	writeTree(c, root, map[string]string{"a.txt": "a"})
	dest := filepath.Join(root, "self.zip")

	progress := &recordingProgress{}
	result, err := newTestHandler(c).Create(NewWalker(root, nil).Entries(), root, dest, progress)
	c.Assert(err, qt.IsNil)
	c.Assert(names(readZip(c, dest)), qt.DeepEquals, []string{"a.txt"})
	c.Assert(result.Files, qt.Equals, 1)
	c.Assert(result.Skipped, qt.Equals, 1)
	c.Assert(progress.errors, qt.DeepEquals, []string{"Skipping " + dest + ": archive being written"})
}

func TestServiceCountsOwnArchiveAsSkipped(t *testing.T) {
	c := qt.New(t)

	root := mustResolve(c, c.TempDir())
	writeTree(c, root, map[string]string{"a.txt": "a", "b/c.txt": "c"})

	svc, err := NewService(flate.DefaultCompression, nil)
	c.Assert(err, qt.IsNil)

	// self.zip exists before the walk starts, so the walk always meets it.
	result, err := svc.Compress(Request{"self", root, root}, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(result.Skipped, qt.Equals, 1)
	c.Assert(result.Files+result.Directories, qt.Equals, 3)
}

// failingWriter rejects every write. The zip writer buffers small
// archives, so the first write it sees is the final flush.
type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestZipHandlerFinalizeFailure(t *testing.T) {
	c := qt.New(t)

	root := c.TempDir()
	writeTree(c, root, map[string]string{"a.txt": "a", "sub/": ""})
	dest := filepath.Join(c.TempDir(), "out.zip")

	result, err := newTestHandler(c).write(failingWriter{}, NewWalker(root, nil).Entries(), root, dest, nil)
	c.Assert(err, qt.ErrorIs, ErrFinalize)
	c.Assert(err, qt.ErrorMatches, "archive finalize failed: .*disk full")
	c.Assert(KindOf(err), qt.Equals, KindFinalize)
	c.Assert(result.Files, qt.Equals, 1)
	c.Assert(result.Directories, qt.Equals, 1)
}

func TestZipHandlerCreateFailsOnUnopenableDestination(t *testing.T) {
	c := qt.New(t)

	root := c.TempDir()
	dest := filepath.Join(c.TempDir(), "missing", "out.zip")

	_, err := newTestHandler(c).Create(NewWalker(root, nil).Entries(), root, dest, nil)
	c.Assert(err, qt.ErrorIs, ErrIOFailure)

	var archiveErr *Error
	c.Assert(err, qt.ErrorAs, &archiveErr)
	c.Assert(archiveErr.Path, qt.Equals, dest)
}

func TestZipHandlerCreateFailsOnVanishedFile(t *testing.T) {
	c := qt.New(t)

	root := c.TempDir()
	writeTree(c, root, map[string]string{"a.txt": "a"})
	ghost := filepath.Join(root, "ghost.txt")

	entries := slices.Values([]Entry{
		{Path: filepath.Join(root, "a.txt")},
		{Path: ghost},
	})

	dest := filepath.Join(c.TempDir(), "out.zip")
	_, err := newTestHandler(c).Create(entries, root, dest, nil)
	c.Assert(err, qt.ErrorIs, ErrIOFailure)

	var archiveErr *Error
	c.Assert(err, qt.ErrorAs, &archiveErr)
	c.Assert(archiveErr.Path, qt.Equals, ghost)

	// The partial archive is left behind.
	_, statErr := os.Stat(dest)
	c.Assert(statErr, qt.IsNil)
}

func TestZipHandlerRejectsNonUTF8Names(t *testing.T) {
	c := qt.New(t)
	if runtime.GOOS != "linux" {
		c.Skip("needs a filesystem that accepts arbitrary bytes in names")
	}

	root := c.TempDir()
	bad := filepath.Join(root, "bad\xff.txt")
	if err := os.WriteFile(bad, []byte("x"), 0644); err != nil {
		c.Skip("filesystem rejected non utf-8 name: ", err)
	}

	dest := filepath.Join(c.TempDir(), "out.zip")
	_, err := newTestHandler(c).Create(NewWalker(root, nil).Entries(), root, dest, nil)
	c.Assert(err, qt.ErrorIs, ErrNonUTF8Path)
}

func TestZipHandlerExtract(t *testing.T) {
	c := qt.New(t)

	src := c.TempDir()
	writeTree(c, src, map[string]string{
		"a.txt":      "alpha",
		"dir/b.txt":  "bravo",
		"dir/empty/": "",
	})

	archivePath := filepath.Join(c.TempDir(), "in.zip")
	h := newTestHandler(c)
	_, err := h.Create(NewWalker(src, nil).Entries(), src, archivePath, nil)
	c.Assert(err, qt.IsNil)

	dest := filepath.Join(c.TempDir(), "unpacked")
	count, err := h.Extract(archivePath, dest, ExtractOptions{}, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 2)

	data, err := os.ReadFile(filepath.Join(dest, "dir", "b.txt"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "bravo")

	info, err := os.Stat(filepath.Join(dest, "dir", "empty"))
	c.Assert(err, qt.IsNil)
	c.Assert(info.IsDir(), qt.IsTrue)

	c.Run("existing files kept without overwrite", func(c *qt.C) {
		c.Assert(os.WriteFile(filepath.Join(dest, "a.txt"), []byte("changed"), 0644), qt.IsNil)

		progress := &recordingProgress{}
		count, err := h.Extract(archivePath, dest, ExtractOptions{}, progress)
		c.Assert(err, qt.IsNil)
		c.Assert(count, qt.Equals, 0)
		c.Assert(progress.messages, qt.Contains, "Skipping existing file: a.txt")

		data, err := os.ReadFile(filepath.Join(dest, "a.txt"))
		c.Assert(err, qt.IsNil)
		c.Assert(string(data), qt.Equals, "changed")
	})

	c.Run("overwrite replaces files", func(c *qt.C) {
		count, err := h.Extract(archivePath, dest, ExtractOptions{Overwrite: true}, nil)
		c.Assert(err, qt.IsNil)
		c.Assert(count, qt.Equals, 2)

		data, err := os.ReadFile(filepath.Join(dest, "a.txt"))
		c.Assert(err, qt.IsNil)
		c.Assert(string(data), qt.Equals, "alpha")
	})
}
