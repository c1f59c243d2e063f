package archive

import (
	"github.com/tech-arch1tect/pawash/config"
	"github.com/tech-arch1tect/pawash/internal/logging"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(NewServiceFromConfig),
)

func NewServiceFromConfig(cfg *config.Config, logger *logging.Logger) (*Service, error) {
	return NewService(cfg.CompressionLevel, logger)
}
