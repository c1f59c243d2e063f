package archive

import (
	"fmt"
	"path/filepath"

	"github.com/tech-arch1tect/pawash/internal/logging"

	"go.uber.org/zap"
)

type Service struct {
	zip    *ZipHandler
	logger *logging.Logger
}

func NewService(compressionLevel int, logger *logging.Logger) (*Service, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(zap.String("service", "archive"))

	handler, err := NewZipHandler(Deflate, compressionLevel, logger)
	if err != nil {
		return nil, err
	}

	return &Service{
		zip:    handler,
		logger: logger,
	}, nil
}

// Compress packs req.SourceDir into req.DestinationDir/<name>.zip. Every
// input is validated before the archive file is created.
func (s *Service) Compress(req Request, writer ProgressWriter) (*Result, error) {
	writer = progressOrDiscard(writer)

	name, err := ValidateName(req.ArchiveName)
	if err != nil {
		s.logger.Warn("invalid archive name", zap.Int("length", len(req.ArchiveName)), zap.Error(err))
		return nil, err
	}

	srcDir, err := ValidateDirectory(req.SourceDir)
	if err != nil {
		s.logger.Warn("invalid source directory", zap.String("source_dir", req.SourceDir), zap.Error(err))
		return nil, err
	}

	destDir, err := ValidateDirectory(req.DestinationDir)
	if err != nil {
		s.logger.Warn("invalid destination directory", zap.String("destination_dir", req.DestinationDir), zap.Error(err))
		return nil, err
	}

	archivePath := filepath.Join(destDir, name)
	writer.WriteStdout(fmt.Sprintf("Creating zip archive: %s", archivePath))
	s.logger.Info("creating archive",
		zap.String("archive", archivePath),
		zap.String("source_dir", srcDir),
	)

	walker := NewWalker(srcDir, func(path string, err error) {
		s.logger.Debug("skipping unreadable entry", zap.String("path", path), zap.Error(err))
		writer.WriteError(fmt.Sprintf("Skipping %s: %v", path, err))
	})

	result, err := s.zip.Create(walker.Entries(), srcDir, archivePath, writer)
	if result != nil {
		result.Skipped += walker.Skipped()
	}
	if err != nil {
		s.logger.Error("archive creation failed",
			zap.String("archive", archivePath),
			zap.Error(err),
		)
		return result, err
	}

	s.logger.Info("archive created",
		zap.String("archive", archivePath),
		zap.Int("files", result.Files),
		zap.Int("directories", result.Directories),
		zap.Int("skipped", result.Skipped),
	)
	writer.WriteStdout(fmt.Sprintf("Archive created with %d files and %d directories", result.Files, result.Directories))

	return result, nil
}

func (s *Service) Extract(archivePath, dest string, opts ExtractOptions, writer ProgressWriter) (int, error) {
	writer = progressOrDiscard(writer)
	writer.WriteStdout(fmt.Sprintf("Extracting archive: %s", filepath.Base(archivePath)))

	count, err := s.zip.Extract(archivePath, dest, opts, writer)
	if err != nil {
		s.logger.Error("archive extraction failed", zap.String("archive", archivePath), zap.Error(err))
		return count, err
	}

	writer.WriteStdout(fmt.Sprintf("Extracted %d files", count))
	return count, nil
}
