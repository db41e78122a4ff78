package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ptrevino/mediashelf/catalog"
	mediashelfhttp "github.com/ptrevino/mediashelf/http"
	"github.com/ptrevino/mediashelf/s3"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for mediashelf.
type Config struct {
	Server  ServerConfig              `mapstructure:"server"`
	Storage StorageConfig             `mapstructure:"storage"`
	Gateway GatewayConfig             `mapstructure:"gateway"`
	Presign PresignConfig             `mapstructure:"presign"`
	Catalog catalog.Config            `mapstructure:"catalog"`
	CORS    mediashelfhttp.CORSConfig `mapstructure:"cors"`
	Log     LogConfig                 `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port              int `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadHeaderTimeout int `mapstructure:"read_header_timeout" validate:"min=1"`
	ShutdownTimeout   int `mapstructure:"shutdown_timeout" validate:"min=1"`
}

// StorageConfig selects and configures the object store backend.
type StorageConfig struct {
	Type string    `mapstructure:"type" validate:"required,oneof=s3 filesystem"`
	Path string    `mapstructure:"path"`
	S3   s3.Config `mapstructure:"s3"`
}

// GatewayConfig holds streaming deadlines, in seconds.
type GatewayConfig struct {
	MetadataTimeout  int `mapstructure:"metadata_timeout" validate:"min=1"`
	FetchTimeout     int `mapstructure:"fetch_timeout" validate:"min=1"`
	IdleTimeout      int `mapstructure:"idle_timeout" validate:"min=1"`
	WatchdogInterval int `mapstructure:"watchdog_interval" validate:"min=1"`
}

// PresignConfig holds presigned URL lifetimes, in seconds.
type PresignConfig struct {
	TTL    int `mapstructure:"ttl" validate:"min=60"`
	MaxTTL int `mapstructure:"max_ttl" validate:"min=60"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"storage-type": "storage.type",
	"storage-path": "storage.path",
	"catalog-type": "catalog.type",
	"catalog-dsn":  "catalog.dsn",
	"port":         "server.port",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_header_timeout", 10) // seconds
	v.SetDefault("server.shutdown_timeout", 30)    // seconds

	v.SetDefault("storage.type", "filesystem")
	v.SetDefault("storage.path", "./media")
	v.SetDefault("storage.s3.region", "us-east-1")

	v.SetDefault("gateway.metadata_timeout", 5)
	v.SetDefault("gateway.fetch_timeout", 10)
	v.SetDefault("gateway.idle_timeout", 60)
	v.SetDefault("gateway.watchdog_interval", 15)

	v.SetDefault("presign.ttl", 900)
	v.SetDefault("presign.max_ttl", 86400)

	v.SetDefault("catalog.type", "sqlite")
	v.SetDefault("catalog.dsn", "mediashelf.db")
	v.SetDefault("catalog.table", catalog.DefaultTable)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("MEDIASHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
