// Package config loads runtime settings from defaults, an optional config
// file, EXPLORER_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/damacus/bucket-explorer/internal/kvstore"
	"github.com/damacus/bucket-explorer/internal/navigator"
	"github.com/damacus/bucket-explorer/internal/services"
)

// EnvPrefix is prepended to every environment override, e.g. EXPLORER_SERVER_PORT
const EnvPrefix = "EXPLORER"

const appDir = "bucket-explorer"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Storage StorageConfig `mapstructure:"storage"`
	Store   StoreConfig   `mapstructure:"store"`
	Browse  BrowseConfig  `mapstructure:"browse"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	AccessToken     string        `mapstructure:"access_token"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns host:port for the HTTP listener
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StorageConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	SecretKey string `mapstructure:"secret_key"`
}

type StoreConfig struct {
	Driver         string        `mapstructure:"driver"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type BrowseConfig struct {
	PageSize int `mapstructure:"page_size"`
}

// SetDefaults registers every key so environment overrides are picked up by Unmarshal
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.access_token", "")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("storage.driver", kvstore.DriverFile)
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.secret_key", "")

	v.SetDefault("store.driver", services.DriverMinio)
	v.SetDefault("store.request_timeout", "30s")

	v.SetDefault("browse.page_size", navigator.DefaultPageSize)
}

// New returns a viper instance with defaults and environment binding applied
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configFile when given and decodes the merged settings
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Storage.Path == "" && cfg.Storage.Driver != kvstore.DriverMemory {
		path, err := DefaultStoragePath(cfg.Storage.Driver)
		if err != nil {
			return nil, err
		}
		cfg.Storage.Path = path
	}
	return &cfg, nil
}

// DefaultStoragePath returns the per-user state location for driver
func DefaultStoragePath(driver string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config dir: %w", err)
	}
	name := "state.json"
	if driver == kvstore.DriverSQLite {
		name = "state.db"
	}
	return filepath.Join(dir, appDir, name), nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must not be negative"))
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}

	switch c.Storage.Driver {
	case kvstore.DriverMemory, kvstore.DriverFile, kvstore.DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	if c.Storage.SecretKey != "" && len(c.Storage.SecretKey) != services.SecretKeySize {
		errs = append(errs, fmt.Errorf("storage.secret_key must be %d bytes", services.SecretKeySize))
	}

	switch c.Store.Driver {
	case services.DriverMinio, services.DriverAWS:
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}
	if c.Store.RequestTimeout < 0 {
		errs = append(errs, errors.New("store.request_timeout must not be negative"))
	}

	if c.Browse.PageSize < 1 || c.Browse.PageSize > navigator.MaxPageSize {
		errs = append(errs, fmt.Errorf("browse.page_size must be between 1 and %d", navigator.MaxPageSize))
	}

	return errors.Join(errs...)
}
