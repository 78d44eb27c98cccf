package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Google GoogleConfig `yaml:"google" mapstructure:"google"`
	Search SearchConfig `yaml:"search" mapstructure:"search"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// GoogleConfig holds Places API credentials.
type GoogleConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// SearchConfig configures discovery and qualification.
type SearchConfig struct {
	CenterLat       float64 `yaml:"center_lat" mapstructure:"center_lat"`
	CenterLng       float64 `yaml:"center_lng" mapstructure:"center_lng"`
	RadiusMeters    float64 `yaml:"radius_meters" mapstructure:"radius_meters"`
	MaxCandidates   int     `yaml:"max_candidates" mapstructure:"max_candidates"`
	MinReviews      int     `yaml:"min_reviews" mapstructure:"min_reviews"`
	CallTimeoutSecs int     `yaml:"call_timeout_secs" mapstructure:"call_timeout_secs"`
	RateLimit       float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults: search bias centered on Sri Lanka.
	v.SetDefault("search.center_lat", 7.8731)
	v.SetDefault("search.center_lng", 80.7718)
	v.SetDefault("search.radius_meters", 150000)
	v.SetDefault("search.max_candidates", 20)
	v.SetDefault("search.min_reviews", 10)
	v.SetDefault("search.call_timeout_secs", 10)
	v.SetDefault("search.rate_limit", 10)
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.path", "leadscout.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the fields required by the given mode are set.
// Modes: "search" (provider credentials plus a store), "serve" (the same
// plus a listen port), "pipeline" (store only).
func (c *Config) Validate(mode string) error {
	var errs []string

	storeRequired := func() {
		switch c.Store.Driver {
		case "postgres":
			if c.Store.DatabaseURL == "" {
				errs = append(errs, "store.database_url is required")
			}
		case "sqlite":
			if c.Store.Path == "" {
				errs = append(errs, "store.path is required")
			}
		default:
			errs = append(errs, "store.driver must be postgres or sqlite")
		}
	}

	switch mode {
	case "search":
		if c.Google.Key == "" {
			errs = append(errs, "google.key is required")
		}
		storeRequired()
	case "serve":
		if c.Google.Key == "" {
			errs = append(errs, "google.key is required")
		}
		storeRequired()
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "pipeline":
		storeRequired()
	default:
		return eris.Errorf("config: unknown mode: %s", mode)
	}

	if mode == "search" || mode == "serve" {
		if c.Search.MaxCandidates < 1 || c.Search.MaxCandidates > 60 {
			errs = append(errs, "search.max_candidates must be between 1 and 60")
		}
		if c.Search.MinReviews < 0 {
			errs = append(errs, "search.min_reviews must be >= 0")
		}
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
