package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"NODE_ENV", "APP_ENV", "JWT_SECRET", "STORE_DRIVER", "DEVELOPMENT_DB", "TEST_DB",
	"PRODUCTION_DB", "DATABASE_NAME", "PORT", "LOG_LEVEL", "REDIS_ADDR", "REDIS_PASSWORD",
	"REDIS_DB", "REDIS_POOL_SIZE", "REDIS_TIMEOUT", "STORE_TIMEOUT", "SHUTDOWN_TIMEOUT", "ACCOUNT_SERVICE_URL",
	"LISTING_SERVICE_URL", "SEARCH_ORIGIN_LNG", "SEARCH_ORIGIN_LAT", "GRAPHIQL",
	"CORS_ALLOWED_ORIGINS",
}

// clearEnv blanks every key so the host environment cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadFile_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"), "8081")
	require.NoError(t, err)

	want := &Config{
		NodeEnv:            ModeDevelopment,
		StoreDriver:        DriverMongo,
		DevelopmentDB:      "mongodb://localhost:27017",
		TestDB:             "mongodb://localhost:27017",
		DatabaseName:       "flathunt",
		Port:               "8081",
		LogLevel:           "info",
		RedisAddr:          "localhost:6379",
		RedisPoolSize:      10,
		RedisTimeout:       3 * time.Second,
		StoreTimeout:       5 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		AccountServiceURL:  "http://localhost:8081",
		ListingServiceURL:  "http://localhost:8082",
		SearchOriginLng:    13.404954,
		SearchOriginLat:    52.520008,
		GraphiQL:           true,
		CORSAllowedOrigins: "*",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, ModeDevelopment, cfg.Mode())
	assert.NoError(t, cfg.Validate())
	assert.Error(t, cfg.RequireJWTSecret())
}

func TestLoadFile_EnvFileAndOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	content := strings.Join([]string{
		"JWT_SECRET=from-file",
		"NODE_ENV=production",
		"PRODUCTION_DB=postgres://prod/flathunt",
		"STORE_DRIVER=Postgres",
		"STORE_TIMEOUT=2s",
		"PORT=9000",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("PORT", "9100")

	cfg, err := LoadFile(path, "8081")
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, ModeProduction, cfg.Mode())
	assert.Equal(t, "postgres://prod/flathunt", cfg.DatabaseURL())
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 2*time.Second, cfg.StoreTimeout)
	assert.Equal(t, "9100", cfg.Port)
	assert.NoError(t, cfg.RequireJWTSecret())
	assert.NoError(t, cfg.RequireDatabase())
}

func TestMode_AppEnvWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("NODE_ENV", "production")
	t.Setenv("APP_ENV", "TEST")
	t.Setenv("TEST_DB", "mongodb://test:27017")

	cfg, err := LoadFile("", "8082")
	require.NoError(t, err)
	assert.Equal(t, ModeTest, cfg.Mode())
	assert.Equal(t, "mongodb://test:27017", cfg.DatabaseURL())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			NodeEnv:         ModeDevelopment,
			StoreDriver:     DriverMongo,
			StoreTimeout:    time.Second,
			SearchOriginLng: 13.4,
			SearchOriginLat: 52.5,
		}
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"unknown mode", func(c *Config) { c.NodeEnv = "staging" }, true},
		{"unknown driver", func(c *Config) { c.StoreDriver = "sqlite" }, true},
		{"zero timeout", func(c *Config) { c.StoreTimeout = 0 }, true},
		{"origin out of range", func(c *Config) { c.SearchOriginLat = 91 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequireDatabase(t *testing.T) {
	cfg := &Config{NodeEnv: ModeProduction}
	assert.Error(t, cfg.RequireDatabase())
}

func TestAllowedOrigins(t *testing.T) {
	cfg := &Config{CORSAllowedOrigins: " https://a.example , ,https://b.example"}
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
}
