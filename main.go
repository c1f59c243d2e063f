package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tech-arch1tect/pawash/config"
	"github.com/tech-arch1tect/pawash/internal/archive"
	"github.com/tech-arch1tect/pawash/internal/download"
	"github.com/tech-arch1tect/pawash/internal/logging"
	"github.com/tech-arch1tect/pawash/internal/operations"
	"github.com/tech-arch1tect/pawash/internal/server"
	"github.com/tech-arch1tect/pawash/internal/websocket"

	"github.com/jpillora/opts"
	"go.uber.org/fx"
)

var version = "0.0.0-src" // set with ldflags

type root struct{}

type compressCmd struct {
	ArchiveName string `opts:"mode=arg" help:"archive file name, .zip is appended when missing"`
	ArchiveDest string `opts:"mode=arg" help:"directory the archive is written to"`
	SrcDir      string `opts:"mode=arg" help:"directory to compress"`
}

type downloadCmd struct {
	URL    string `opts:"mode=arg" help:"url of the file to download"`
	Output string `opts:"short=o" help:"local file path (default: last segment of the url path)"`
}

type extractCmd struct {
	Archive     string `opts:"mode=arg" help:"zip archive to extract"`
	Destination string `opts:"mode=arg" help:"directory to extract into"`
	Overwrite   bool   `help:"replace files that already exist"`
}

type serveCmd struct{}

func main() {
	opts.New(&root{}).
		Name("pawash").
		Version(version).
		AddCommand(opts.New(&compressCmd{}).Name("compress")).
		AddCommand(opts.New(&downloadCmd{}).Name("download")).
		AddCommand(opts.New(&extractCmd{}).Name("extract")).
		AddCommand(opts.New(&serveCmd{}).Name("serve")).
		Parse().
		RunFatal()
}

// newCLIRuntime loads the configuration and a logger that keeps stdout
// free for progress output.
func newCLIRuntime() (*config.Config, *logging.Logger, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.NewLogger(cfg.LogLevel, "stderr")
	if err != nil {
		return nil, nil, err
	}

	return cfg, logger, nil
}

func (c *compressCmd) Run() error {
	cfg, logger, err := newCLIRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync()

	service, err := archive.NewService(cfg.CompressionLevel, logger)
	if err != nil {
		return err
	}

	progress := archive.NewConsoleProgressWriter(os.Stdout, os.Stderr)
	_, err = service.Compress(archive.Request{
		ArchiveName:    c.ArchiveName,
		DestinationDir: c.ArchiveDest,
		SourceDir:      c.SrcDir,
	}, progress)
	return err
}

func (c *downloadCmd) Run() error {
	cfg, logger, err := newCLIRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync()

	bytesPerSecond, err := config.ParseRate(cfg.DownloadRateLimit)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	downloader := download.NewDownloader(&http.Client{Timeout: cfg.DownloadTimeout}, bytesPerSecond, logger)
	reporter := download.NewConsoleReporter(os.Stdout, 250*time.Millisecond)

	result, err := downloader.Download(ctx, c.URL, c.Output, reporter)
	if err != nil {
		return err
	}

	fmt.Println(result.Path)
	return nil
}

func (c *extractCmd) Run() error {
	cfg, logger, err := newCLIRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync()

	service, err := archive.NewService(cfg.CompressionLevel, logger)
	if err != nil {
		return err
	}

	progress := archive.NewConsoleProgressWriter(os.Stdout, os.Stderr)
	_, err = service.Extract(c.Archive, c.Destination, archive.ExtractOptions{Overwrite: c.Overwrite}, progress)
	return err
}

func (c *serveCmd) Run() error {
	app := fx.New(
		config.Module,
		logging.Module,
		archive.Module,
		download.Module,
		websocket.Module,
		operations.Module,
		server.Module(version),
		fx.NopLogger,
	)
	app.Run()
	return app.Err()
}
