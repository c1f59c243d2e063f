package archive

import (
	"github.com/klauspost/compress/zip"
)

type Method uint16

const Deflate Method = Method(zip.Deflate)

func (m Method) String() string {
	if m == Deflate {
		return "deflate"
	}
	return "unknown"
}

type Request struct {
	ArchiveName    string `json:"archive_name"`
	DestinationDir string `json:"destination_dir"`
	SourceDir      string `json:"source_dir"`
}

// Result totals one archive run. Skipped counts entries left out: those
// that could not be read and the archive file itself when it lies inside
// the source tree.
type Result struct {
	Path        string `json:"path"`
	Files       int    `json:"files"`
	Directories int    `json:"directories"`
	Bytes       int64  `json:"bytes"`
	Skipped     int    `json:"skipped"`
}

// Entry is one filesystem object found under the traversal root.
type Entry struct {
	Path  string
	IsDir bool
}

type ExtractOptions struct {
	Overwrite bool
}

type ProgressWriter interface {
	WriteMessage(msgType string, data string)
	WriteError(data string)
	WriteStdout(data string)
}

type discardProgress struct{}

func (discardProgress) WriteMessage(string, string) {}
func (discardProgress) WriteError(string) {}
func (discardProgress) WriteStdout(string) {}

func progressOrDiscard(w ProgressWriter) ProgressWriter {
	if w == nil {
		return discardProgress{}
	}
	return w
}
