package archive

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/tech-arch1tect/pawash/internal/logging"

	"go.uber.org/zap"
)

type ZipHandler struct {
	method Method
	level  int
	logger *logging.Logger
}

func NewZipHandler(method Method, level int, logger *logging.Logger) (*ZipHandler, error) {
	if method != Deflate {
		return nil, newError(KindUnsupportedMethod, "", fmt.Errorf("method %d", uint16(method)))
	}
	if level < flate.HuffmanOnly || level > flate.BestCompression {
		return nil, fmt.Errorf("invalid compression level %d", level)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ZipHandler{
		method: method,
		level:  level,
		logger: logger,
	}, nil
}

// Create writes every entry to a new zip file at dest, naming each one
// relative to root. The archive is finalized only when every entry was
// written; on failure the partial file stays on disk.
func (h *ZipHandler) Create(entries iter.Seq[Entry], root, dest string, writer ProgressWriter) (result *Result, err error) {
	zipFile, err := os.Create(dest)
	if err != nil {
		return &Result{Path: dest}, newError(KindIOFailure, dest, err)
	}
	defer func() {
		if closeErr := zipFile.Close(); closeErr != nil && err == nil {
			err = newError(KindIOFailure, dest, closeErr)
		}
	}()

	return h.write(zipFile, entries, root, dest, writer)
}

// write streams the archive for entries into out. dest is the path out
// is stored at; an entry with that path is the archive itself and is
// skipped.
func (h *ZipHandler) write(out io.Writer, entries iter.Seq[Entry], root, dest string, writer ProgressWriter) (*Result, error) {
	writer = progressOrDiscard(writer)
	result := &Result{Path: dest}

	zipWriter := zip.NewWriter(out)
	zipWriter.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, h.level)
	})

	var buf bytes.Buffer

	for entry := range entries {
		if entry.Path == dest {
			result.Skipped++
			writer.WriteError(fmt.Sprintf("Skipping %s: archive being written", entry.Path))
			continue
		}

		relPath, err := filepath.Rel(root, entry.Path)
		if err != nil {
			return result, newError(KindIOFailure, entry.Path, err)
		}

		if !utf8.ValidString(relPath) {
			return result, newError(KindNonUTF8Path, fmt.Sprintf("%q", relPath), nil)
		}

		name := filepath.ToSlash(relPath)

		if entry.IsDir {
			if relPath == "." {
				continue
			}
			if err := h.addDirectory(zipWriter, entry.Path, name); err != nil {
				return result, err
			}
			result.Directories++
			writer.WriteStdout(fmt.Sprintf("adding dir %s as %s/", entry.Path, name))
			continue
		}

		n, err := h.addFile(zipWriter, &buf, entry.Path, name)
		if err != nil {
			return result, err
		}
		result.Files++
		result.Bytes += n
		writer.WriteStdout(fmt.Sprintf("adding file %s as %s", entry.Path, name))
	}

	if err := zipWriter.Close(); err != nil {
		return result, newError(KindFinalize, dest, err)
	}

	h.logger.Debug("archive finalized",
		zap.String("path", dest),
		zap.Int("files", result.Files),
		zap.Int("directories", result.Directories),
		zap.Int64("bytes", result.Bytes),
	)

	return result, nil
}

// addFile buffers the whole file in buf and writes it as one entry. buf is
// empty again on return.
func (h *ZipHandler) addFile(zipWriter *zip.Writer, buf *bytes.Buffer, path, name string) (int64, error) {
	defer buf.Reset()

	file, err := os.Open(path)
	if err != nil {
		return 0, newError(KindIOFailure, path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, newError(KindIOFailure, path, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return 0, newError(KindIOFailure, path, err)
	}
	header.Name = name
	header.Method = uint16(h.method)

	if _, err := buf.ReadFrom(file); err != nil {
		return 0, newError(KindIOFailure, path, err)
	}

	w, err := zipWriter.CreateHeader(header)
	if err != nil {
		return 0, newError(KindIOFailure, path, err)
	}

	n, err := w.Write(buf.Bytes())
	if err != nil {
		return 0, newError(KindIOFailure, path, err)
	}

	h.logger.Debug("file added", zap.String("name", name), zap.Int("size", n))
	return int64(n), nil
}

func (h *ZipHandler) addDirectory(zipWriter *zip.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return newError(KindIOFailure, path, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return newError(KindIOFailure, path, err)
	}
	header.Name = name + "/"
	header.Method = zip.Store

	if _, err := zipWriter.CreateHeader(header); err != nil {
		return newError(KindIOFailure, path, err)
	}

	h.logger.Debug("directory added", zap.String("name", header.Name))
	return nil
}

// Extract unpacks the zip at archivePath into dest and returns the number
// of files written. Entries that would land outside dest are skipped.
func (h *ZipHandler) Extract(archivePath, dest string, opts ExtractOptions, writer ProgressWriter) (int, error) {
	writer = progressOrDiscard(writer)

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, fmt.Errorf("failed to open zip file: %w", err)
	}
	defer reader.Close()

	if err := os.MkdirAll(dest, 0755); err != nil {
		return 0, fmt.Errorf("failed to create destination directory: %w", err)
	}

	fileCount := 0
	for _, file := range reader.File {
		path, err := ValidateExtractPath(dest, file.Name)
		if err != nil {
			writer.WriteError(fmt.Sprintf("Skipping file outside destination: %s", file.Name))
			continue
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(path, 0755); err != nil {
				return fileCount, fmt.Errorf("failed to create directory %s: %w", path, err)
			}
			continue
		}

		if _, err := os.Stat(path); err == nil && !opts.Overwrite {
			writer.WriteStdout(fmt.Sprintf("Skipping existing file: %s", file.Name))
			continue
		}

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fileCount, fmt.Errorf("failed to create parent directory for %s: %w", path, err)
		}

		if err := extractFile(file, path); err != nil {
			return fileCount, err
		}

		fileCount++
		writer.WriteStdout(fmt.Sprintf("extracted %s", file.Name))
	}

	h.logger.Debug("archive extracted",
		zap.String("archive", archivePath),
		zap.String("destination", dest),
		zap.Int("files", fileCount),
	)

	return fileCount, nil
}

func extractFile(file *zip.File, path string) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open entry %s: %w", file.Name, err)
	}
	defer src.Close()

	mode := file.FileInfo().Mode().Perm()
	if mode == 0 {
		mode = 0644
	}

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("failed to extract file %s: %w", file.Name, err)
	}

	return out.Close()
}
