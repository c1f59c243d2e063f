package operations

import (
	"context"

	"github.com/tech-arch1tect/pawash/internal/archive"
	"github.com/tech-arch1tect/pawash/internal/download"
	"github.com/tech-arch1tect/pawash/internal/logging"
	"github.com/tech-arch1tect/pawash/internal/websocket"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(NewServiceWithHub),
	fx.Provide(NewHandler),
	fx.Invoke(RegisterShutdown),
)

func NewServiceWithHub(archiveService *archive.Service, downloader *download.Downloader, hub *websocket.Hub, logger *logging.Logger) *Service {
	return NewService(archiveService, downloader, hub, logger)
}

func RegisterShutdown(lc fx.Lifecycle, service *Service) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			service.Close()
			return nil
		},
	})
}
