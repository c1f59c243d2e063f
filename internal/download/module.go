package download

import (
	"net/http"

	"github.com/tech-arch1tect/pawash/config"
	"github.com/tech-arch1tect/pawash/internal/logging"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(NewDownloaderFromConfig),
)

func NewDownloaderFromConfig(cfg *config.Config, logger *logging.Logger) (*Downloader, error) {
	bytesPerSecond, err := config.ParseRate(cfg.DownloadRateLimit)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: cfg.DownloadTimeout}
	return NewDownloader(client, bytesPerSecond, logger), nil
}
