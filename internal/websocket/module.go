package websocket

import (
	"context"

	"github.com/tech-arch1tect/pawash/internal/logging"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Options(
	fx.Provide(func(logger *logging.Logger) *Hub {
		return NewHub(logger.With(zap.String("service", "websocket")))
	}),
	fx.Provide(NewHandler),
	fx.Invoke(StartHub),
)

func StartHub(lc fx.Lifecycle, hub *Hub) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go hub.Run()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			hub.Stop()
			return nil
		},
	})
}
