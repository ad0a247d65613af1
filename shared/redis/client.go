package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/flathunt/platform/shared/config"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPoolSize = 10
	defaultTimeout  = 3 * time.Second
)

// Options configures the shared connection. Zero PoolSize and Timeout take
// the package defaults.
type Options struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	// Timeout bounds dialling, the start-up ping and each read or write.
	Timeout time.Duration
}

// OptionsFromConfig picks the REDIS_* settings out of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPoolSize,
		Timeout:  cfg.RedisTimeout,
	}
}

type Client struct {
	*redis.Client
}

// NewClient connects and pings once, so a service learns at start-up
// whether streams and counters are available.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.PoolSize <= 0 {
		opts.PoolSize = defaultPoolSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		DialTimeout:  opts.Timeout,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return &Client{Client: rdb}, nil
}
