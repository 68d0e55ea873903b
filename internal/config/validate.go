package config

import (
	"errors"
	"fmt"
)

var ErrInvalid = errors.New("invalid configuration")

// Validate checks that the selected backend has what it needs to connect.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory":
	case "bolt":
		if c.Store.BoltPath == "" {
			return fmt.Errorf("%w: BOLT_PATH is required for the bolt backend", ErrInvalid)
		}
	case "mongo":
		if c.MongoDB.URI == "" {
			return fmt.Errorf("%w: MONGODB_URI is required for the mongo backend", ErrInvalid)
		}
	case "redis":
		if c.Redis.Host == "" {
			return fmt.Errorf("%w: REDIS_HOST is required for the redis backend", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown DOCSTORE_BACKEND %q", ErrInvalid, c.Store.Backend)
	}
	if c.RateLimit.UseRedis && c.Redis.Host == "" {
		return fmt.Errorf("%w: RATE_LIMIT_USE_REDIS needs REDIS_HOST", ErrInvalid)
	}
	return nil
}
