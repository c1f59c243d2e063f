package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AccessToken       string        `yaml:"access_token"`
	Port              string        `yaml:"port"`
	LogLevel          string        `yaml:"log_level"`
	CompressionLevel  int           `yaml:"compression_level"`
	DownloadRateLimit string        `yaml:"download_rate_limit"`
	DownloadTimeout   time.Duration `yaml:"download_timeout"`
	ConfigPath        string        `yaml:"-"`
}

func defaults() *Config {
	return &Config{
		Port:             "8080",
		LogLevel:         "info",
		CompressionLevel: -1,
	}
}

// NewConfig reads the optional YAML file named by PAWASH_CONFIG and then
// applies PAWASH_* environment overrides on top of it.
func NewConfig() (*Config, error) {
	return Load(os.Getenv("PAWASH_CONFIG"))
}

func Load(path string) (*Config, error) {
	cfg := defaults()
	cfg.ConfigPath = path

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	cfg.AccessToken = getEnv("PAWASH_ACCESS_TOKEN", cfg.AccessToken)
	cfg.Port = getEnv("PAWASH_PORT", cfg.Port)
	cfg.LogLevel = getEnv("PAWASH_LOG_LEVEL", cfg.LogLevel)
	cfg.CompressionLevel = getEnvInt("PAWASH_COMPRESSION_LEVEL", cfg.CompressionLevel)
	cfg.DownloadRateLimit = getEnv("PAWASH_DOWNLOAD_RATE_LIMIT", cfg.DownloadRateLimit)
	cfg.DownloadTimeout = getEnvDuration("PAWASH_DOWNLOAD_TIMEOUT", cfg.DownloadTimeout)

	if _, err := ParseRate(cfg.DownloadRateLimit); err != nil {
		return nil, fmt.Errorf("invalid download rate limit %q: %w", cfg.DownloadRateLimit, err)
	}

	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

var ErrRateTooLarge = errors.New("rate exceeds int range")

// ParseRate turns a throughput setting into bytes per second. Zero means
// unlimited. Accepts the presets low, medium and high, or any size string
// such as "500kb" or "2 MB".
func ParseRate(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "low":
		return 50000, nil
	case "medium":
		return 500000, nil
	case "high":
		return 1500000, nil
	case "unlimited", "0", "":
		return 0, nil
	}

	var v datasize.ByteSize
	if err := v.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}
	if v > 2147483647 {
		return 0, ErrRateTooLarge
	}

	return int(v), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

var Module = fx.Options(
	fx.Provide(NewConfig),
)
