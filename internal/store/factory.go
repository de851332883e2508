package store

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// BackendType selects a Backend driver.
type BackendType string

const (
	BackendFile   BackendType = "file"
	BackendRedis  BackendType = "redis"
	BackendMemory BackendType = "memory"
)

// BackendOption is a functional option for NewBackend.
type BackendOption func(*backendConfig)

type backendConfig struct {
	dir         string
	redisClient *redis.Client
	redisTTL    time.Duration
}

// WithDir sets the base directory for the file driver.
func WithDir(dir string) BackendOption {
	return func(c *backendConfig) { c.dir = dir }
}

// WithRedisClient sets the client for the redis driver.
func WithRedisClient(client *redis.Client) BackendOption {
	return func(c *backendConfig) { c.redisClient = client }
}

// WithRedisTTL sets the expiry for redis records. Zero keeps records forever.
func WithRedisTTL(ttl time.Duration) BackendOption {
	return func(c *backendConfig) { c.redisTTL = ttl }
}

// NewBackend creates a Backend of the given driver type.
func NewBackend(t BackendType, opts ...BackendOption) (Backend, error) {
	cfg := &backendConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	switch t {
	case BackendFile:
		if cfg.dir == "" {
			return nil, ErrInvalidConfig
		}
		return NewFileBackend(cfg.dir)

	case BackendRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		return NewRedisBackend(cfg.redisClient, cfg.redisTTL), nil

	case BackendMemory:
		return NewMemoryBackend(), nil

	default:
		return nil, ErrInvalidDriver
	}
}
