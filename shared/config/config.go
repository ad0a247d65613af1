// Package config loads service configuration from defaults, an optional .env
// file and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/flathunt/platform/shared/geo"
	"github.com/spf13/viper"
)

const (
	ModeDevelopment = "development"
	ModeTest        = "test"
	ModeProduction  = "production"

	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// DefaultEnvFile is read when present in the working directory.
const DefaultEnvFile = ".env"

// Config holds every setting used by the services, the gateway and the CLI.
// Keys mirror the environment variable names.
type Config struct {
	NodeEnv       string `mapstructure:"node_env"`
	AppEnv        string `mapstructure:"app_env"`
	JWTSecret     string `mapstructure:"jwt_secret"`
	StoreDriver   string `mapstructure:"store_driver"`
	DevelopmentDB string `mapstructure:"development_db"`
	TestDB        string `mapstructure:"test_db"`
	ProductionDB  string `mapstructure:"production_db"`
	DatabaseName  string `mapstructure:"database_name"`
	Port          string `mapstructure:"port"`
	LogLevel      string `mapstructure:"log_level"`

	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	RedisPoolSize int           `mapstructure:"redis_pool_size"`
	RedisTimeout  time.Duration `mapstructure:"redis_timeout"`

	StoreTimeout    time.Duration `mapstructure:"store_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	AccountServiceURL string `mapstructure:"account_service_url"`
	ListingServiceURL string `mapstructure:"listing_service_url"`

	SearchOriginLng float64 `mapstructure:"search_origin_lng"`
	SearchOriginLat float64 `mapstructure:"search_origin_lat"`

	GraphiQL           bool   `mapstructure:"graphiql"`
	CORSAllowedOrigins string `mapstructure:"cors_allowed_origins"`
}

// Load reads DefaultEnvFile (if any) and the environment.
// defaultPort is the listen port used when PORT is unset.
func Load(defaultPort string) (*Config, error) {
	return LoadFile(DefaultEnvFile, defaultPort)
}

// LoadFile is Load with an explicit .env path. A missing file is not an error.
func LoadFile(path, defaultPort string) (*Config, error) {
	v := viper.New()
	setDefaults(v, defaultPort)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.NodeEnv = strings.ToLower(strings.TrimSpace(cfg.NodeEnv))
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	return &cfg, nil
}

func setDefaults(v *viper.Viper, defaultPort string) {
	v.SetDefault("node_env", ModeDevelopment)
	v.SetDefault("app_env", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("store_driver", DriverMongo)
	v.SetDefault("development_db", "mongodb://localhost:27017")
	v.SetDefault("test_db", "mongodb://localhost:27017")
	v.SetDefault("production_db", "")
	v.SetDefault("database_name", "flathunt")
	v.SetDefault("port", defaultPort)
	v.SetDefault("log_level", "info")

	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_pool_size", 10)
	v.SetDefault("redis_timeout", "3s")

	v.SetDefault("store_timeout", "5s")
	v.SetDefault("shutdown_timeout", "10s")

	v.SetDefault("account_service_url", "http://localhost:8081")
	v.SetDefault("listing_service_url", "http://localhost:8082")

	// Berlin city centre.
	v.SetDefault("search_origin_lng", 13.404954)
	v.SetDefault("search_origin_lat", 52.520008)

	v.SetDefault("graphiql", true)
	v.SetDefault("cors_allowed_origins", "*")
}

// Mode is the runtime mode. APP_ENV wins over NODE_ENV.
func (c *Config) Mode() string {
	if c.AppEnv != "" {
		return c.AppEnv
	}
	return c.NodeEnv
}

// DatabaseURL returns the connection string selected by the runtime mode.
func (c *Config) DatabaseURL() string {
	switch c.Mode() {
	case ModeTest:
		return c.TestDB
	case ModeProduction:
		return c.ProductionDB
	default:
		return c.DevelopmentDB
	}
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Validate checks the settings shared by every binary.
func (c *Config) Validate() error {
	switch c.Mode() {
	case ModeDevelopment, ModeTest, ModeProduction:
	default:
		return fmt.Errorf("unknown runtime mode %q", c.Mode())
	}
	switch c.StoreDriver {
	case DriverMongo, DriverPostgres:
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("store timeout must be positive")
	}
	if !geo.ValidateCoordinates(c.SearchOriginLng, c.SearchOriginLat) {
		return fmt.Errorf("search origin %v,%v is out of range", c.SearchOriginLng, c.SearchOriginLat)
	}
	return nil
}

// RequireJWTSecret is called by every binary that signs or verifies tokens.
func (c *Config) RequireJWTSecret() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	return nil
}

// RequireDatabase checks that the selected mode has a connection string.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL() == "" {
		return fmt.Errorf("no database configured for %s mode", c.Mode())
	}
	return nil
}
