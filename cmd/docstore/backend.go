package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gogotex/docstore/internal/config"
	"github.com/gogotex/docstore/internal/database"
	"github.com/gogotex/docstore/internal/store/repository"
	"github.com/gogotex/docstore/pkg/logger"
)

// backend is an opened repository plus what main needs to keep it healthy.
type backend struct {
	repo  repository.Repository
	redis *redis.Client // set when the backend or the rate limiter uses Redis
	ping  func(ctx context.Context) error
	close func()
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Store.Backend {
	case "memory":
		logger.Infof("using in-memory store (data is lost on restart)")
		return &backend{
			repo:  repository.NewMemoryRepo(),
			ping:  func(context.Context) error { return nil },
			close: func() {},
		}, nil

	case "bolt":
		bdb, err := database.OpenBolt(cfg.Store.BoltPath)
		if err != nil {
			return nil, err
		}
		logger.Infof("using bolt store at %s", cfg.Store.BoltPath)
		return &backend{
			repo:  repository.NewBoltRepo(bdb),
			ping:  func(context.Context) error { return nil },
			close: func() { _ = bdb.Close() },
		}, nil

	case "mongo":
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
		if err != nil {
			return nil, err
		}
		col := client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection)
		repo, err := repository.NewMongoRepo(ctx, col)
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		logger.Infof("using mongo store %s.%s", cfg.MongoDB.Database, cfg.MongoDB.Collection)
		return &backend{
			repo:  repo,
			ping:  func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close: func() { _ = client.Disconnect(context.Background()) },
		}, nil

	case "redis":
		client, err := database.ConnectRedis(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		logger.Infof("using redis store at %s (prefix %q)", cfg.Redis.Addr(), cfg.Redis.Prefix)
		return &backend{
			repo:  repository.NewRedisRepo(client, cfg.Redis.Prefix),
			redis: client,
			ping:  func(ctx context.Context) error { return client.Ping(ctx).Err() },
			close: func() { _ = client.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// rateLimitRedis returns the Redis client shared rate limiting should use,
// connecting separately when the store itself is not on Redis.
func (b *backend) rateLimitRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if b.redis != nil {
		return b.redis
	}
	if cfg.Redis.Host == "" {
		return nil
	}
	client, err := database.ConnectRedis(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warnf("redis rate limiter unavailable, falling back to in-memory: %v", err)
		return nil
	}
	prev := b.close
	b.close = func() { _ = client.Close(); prev() }
	return client
}
