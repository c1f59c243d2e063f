package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/tech-arch1tect/pawash/internal/logging"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultFileName = "new_file"
	chunkSize       = 32 * 1024
)

var ErrNoContentLength = errors.New("response has no content length")

type Reporter interface {
	Start(url string, total int64)
	Advance(position int64)
	Finish(url, path string)
}

type Result struct {
	URL   string `json:"url"`
	Path  string `json:"path"`
	Bytes int64  `json:"bytes"`
}

type Downloader struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  *logging.Logger
}

// NewDownloader returns a Downloader throttled to bytesPerSecond. Zero
// disables throttling.
func NewDownloader(client *http.Client, bytesPerSecond int, logger *logging.Logger) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if bytesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(bytesPerSecond), bytesPerSecond*3)
	}

	return &Downloader{
		client:  client,
		limiter: limiter,
		logger:  logger.With(zap.String("service", "download")),
	}
}

// DefaultPath names the local file after the last segment of the URL path.
func DefaultPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return DefaultFileName
	}

	base := path.Base(u.Path)
	if base == "" || base == "." || base == "/" {
		return DefaultFileName
	}
	return base
}

func (d *Downloader) Download(ctx context.Context, rawURL, dest string, reporter Reporter) (*Result, error) {
	if dest == "" {
		dest = DefaultPath(rawURL)
	}
	if reporter == nil {
		reporter = nopReporter{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for '%s': %w", rawURL, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to GET from '%s': %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to GET from '%s': unexpected status %s", rawURL, resp.Status)
	}

	total := resp.ContentLength
	if total < 0 {
		return nil, fmt.Errorf("failed to get content length from '%s': %w", rawURL, ErrNoContentLength)
	}

	file, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to create file '%s': %w", dest, err)
	}
	defer file.Close()

	d.logger.Info("download started",
		zap.String("url", rawURL),
		zap.String("path", dest),
		zap.Int64("total_bytes", total),
	)
	reporter.Start(rawURL, total)

	start := time.Now()
	written, err := d.copy(ctx, file, resp.Body, total, reporter)
	if err != nil {
		d.logger.Error("download failed", zap.String("url", rawURL), zap.Int64("written", written), zap.Error(err))
		return nil, err
	}

	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file '%s': %w", dest, err)
	}

	reporter.Finish(rawURL, dest)
	d.logger.Info("download finished",
		zap.String("url", rawURL),
		zap.String("path", dest),
		zap.Int64("bytes", written),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Result{URL: rawURL, Path: dest, Bytes: written}, nil
}

func (d *Downloader) copy(ctx context.Context, dst io.Writer, src io.Reader, total int64, reporter Reporter) (int64, error) {
	size := chunkSize
	if burst := d.limiter.Burst(); d.limiter.Limit() != rate.Inf && burst < size {
		size = burst
	}
	buf := make([]byte, size)

	var downloaded int64
	chunk := 0
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			chunk++
			if err := d.limiter.WaitN(ctx, n); err != nil {
				return downloaded, fmt.Errorf("error while downloading file: %w", err)
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return downloaded, fmt.Errorf("error while writing chunk %d to file: %w", chunk, err)
			}
			downloaded = min(downloaded+int64(n), total)
			reporter.Advance(downloaded)
		}
		if readErr == io.EOF {
			return downloaded, nil
		}
		if readErr != nil {
			return downloaded, fmt.Errorf("error while downloading file: %w", readErr)
		}
	}
}

type nopReporter struct{}

func (nopReporter) Start(string, int64) {}
func (nopReporter) Advance(int64) {}
func (nopReporter) Finish(string, string) {}
