package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/tech-arch1tect/pawash/config"
	"github.com/tech-arch1tect/pawash/internal/auth"
	"github.com/tech-arch1tect/pawash/internal/health"
	"github.com/tech-arch1tect/pawash/internal/logging"
	"github.com/tech-arch1tect/pawash/internal/operations"
	"github.com/tech-arch1tect/pawash/internal/websocket"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module(version string) fx.Option {
	return fx.Options(
		fx.Provide(func() *health.Handler { return health.NewHandler(version) }),
		fx.Provide(NewEcho),
		fx.Invoke(RegisterRoutes),
		fx.Invoke(StartServer),
		fx.Invoke(WatchConfig),
	)
}

func NewEcho(logger *logging.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomiddleware.Recover())
	e.Use(logging.RequestLoggingMiddleware(logger))
	return e
}

func RegisterRoutes(
	e *echo.Echo,
	cfg *config.Config,
	logger *logging.Logger,
	healthHandler *health.Handler,
	operationsHandler *operations.Handler,
	wsHandler *websocket.Handler,
) {
	tokenMiddleware := auth.TokenMiddleware(cfg.AccessToken, logger)

	api := e.Group("/api")
	api.GET("/health", healthHandler.Health)

	protected := api.Group("", tokenMiddleware)
	protected.POST("/archives", operationsHandler.StartCompress)
	protected.POST("/downloads", operationsHandler.StartDownload)
	protected.GET("/operations/:operationId/stream", operationsHandler.StreamOperation)
	protected.GET("/operations/:operationId/status", operationsHandler.GetOperationStatus)

	e.GET("/ws/operations", wsHandler.HandleOperationsWebSocket, tokenMiddleware)
}

func StartServer(lc fx.Lifecycle, e *echo.Echo, cfg *config.Config, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info("server listening", zap.String("port", cfg.Port))
				if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}

// WatchConfig applies log level changes from the config file while the
// server runs. It does nothing when no config file is in use.
func WatchConfig(lc fx.Lifecycle, cfg *config.Config, logger *logging.Logger) {
	if cfg.ConfigPath == "" {
		return
	}

	var watcher *config.Watcher
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			w, err := config.NewWatcher(cfg.ConfigPath, func(updated *config.Config) {
				if updated.LogLevel == cfg.LogLevel {
					return
				}
				if err := logger.SetLevel(updated.LogLevel); err != nil {
					logger.Warn("ignoring invalid log level", zap.String("log_level", updated.LogLevel), zap.Error(err))
					return
				}
				logger.Info("log level changed",
					zap.String("from", cfg.LogLevel),
					zap.String("to", updated.LogLevel))
				cfg.LogLevel = updated.LogLevel
			}, func(err error) {
				logger.Warn("config reload failed", zap.Error(err))
			})
			if err != nil {
				return err
			}
			watcher = w
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if watcher == nil {
				return nil
			}
			return watcher.Close()
		},
	})
}
