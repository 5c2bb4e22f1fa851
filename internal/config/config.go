package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Input      InputConfig      `yaml:"input" mapstructure:"input"`
	Proximity  ProximityConfig  `yaml:"proximity" mapstructure:"proximity"`
	Projection ProjectionConfig `yaml:"projection" mapstructure:"projection"`
	Render     RenderConfig     `yaml:"render" mapstructure:"render"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// InputConfig locates the store and competitor tables.
type InputConfig struct {
	Stores      SourceConfig `yaml:"stores" mapstructure:"stores"`
	Competitors SourceConfig `yaml:"competitors" mapstructure:"competitors"`
}

// SourceConfig is one input table. Sheet only applies to xlsx files.
type SourceConfig struct {
	Path  string `yaml:"path" mapstructure:"path"`
	Sheet string `yaml:"sheet" mapstructure:"sheet"`
}

// ProximityConfig configures competitor counting.
type ProximityConfig struct {
	RadiiMiles         []float64 `yaml:"radii_miles" mapstructure:"radii_miles"`
	Index              string    `yaml:"index" mapstructure:"index"`
	RequireCompetitors bool      `yaml:"require_competitors" mapstructure:"require_competitors"`
	Workers            int       `yaml:"workers" mapstructure:"workers"`
}

// ProjectionConfig selects the planar frame. EPSG 0 picks the UTM zone of
// the data extent.
type ProjectionConfig struct {
	EPSG int `yaml:"epsg" mapstructure:"epsg"`
}

// RenderConfig configures the map look.
type RenderConfig struct {
	Title           string `yaml:"title" mapstructure:"title"`
	Zoom            int    `yaml:"zoom" mapstructure:"zoom"`
	Width           int    `yaml:"width" mapstructure:"width"`
	Height          int    `yaml:"height" mapstructure:"height"`
	StoreColor      string `yaml:"store_color" mapstructure:"store_color"`
	CompetitorColor string `yaml:"competitor_color" mapstructure:"competitor_color"`
}

// ServerConfig configures the dashboard server.
type ServerConfig struct {
	Port           int           `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	CacheEntries   int           `yaml:"cache_entries" mapstructure:"cache_entries"`
	CacheTTL       time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
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
	v.SetEnvPrefix("COMPMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("input.stores.path", "")
	v.SetDefault("input.stores.sheet", "")
	v.SetDefault("input.competitors.path", "")
	v.SetDefault("input.competitors.sheet", "")
	v.SetDefault("proximity.radii_miles", []float64{5, 7, 10})
	v.SetDefault("proximity.index", "naive")
	v.SetDefault("proximity.require_competitors", false)
	v.SetDefault("proximity.workers", 1)
	v.SetDefault("projection.epsg", 0)
	v.SetDefault("render.title", "Stores with Local Competitors")
	v.SetDefault("render.zoom", 8)
	v.SetDefault("render.width", 1400)
	v.SetDefault("render.height", 1000)
	v.SetDefault("render.store_color", "#1f77b4")
	v.SetDefault("render.competitor_color", "#ff7f0e")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.cache_entries", 16)
	v.SetDefault("server.cache_ttl", "10m")
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

// Validate checks the settings a command needs. Mode is one of "analyze",
// "plot" or "serve". All problems are reported together.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "analyze", "plot":
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.CacheEntries < 1 {
			errs = append(errs, "server.cache_entries must be >= 1")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Input.Stores.Path == "" {
		errs = append(errs, "input.stores.path is required")
	}
	if c.Input.Competitors.Path == "" {
		errs = append(errs, "input.competitors.path is required")
	}

	if len(c.Proximity.RadiiMiles) == 0 {
		errs = append(errs, "proximity.radii_miles must not be empty")
	}
	for _, r := range c.Proximity.RadiiMiles {
		if !(r > 0) {
			errs = append(errs, "proximity.radii_miles values must be > 0")
			break
		}
	}
	switch c.Proximity.Index {
	case "", "naive", "rtree":
	default:
		errs = append(errs, "proximity.index must be naive or rtree")
	}

	if e := c.Projection.EPSG; e != 0 && !(e >= 32601 && e <= 32660) && !(e >= 32701 && e <= 32760) {
		errs = append(errs, "projection.epsg must be 0 or a WGS84 UTM code (326zz/327zz)")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
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
