// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recordstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
)

// RedisConfig configures OpenRedis.
type RedisConfig struct {
	// URL is a redis:// or rediss:// URL. Required.
	URL string

	// KeyPrefix namespaces the hash keys. Defaults to "huddle:".
	KeyPrefix string

	Logger *slog.Logger
}

// Redis stores each collection as one hash: HSET {prefix}{collection}
// {key} {data}. Whole-record writes map to single HSET commands, so a
// reader never sees half a record.
type Redis struct {
	client    *redis.Client
	keyPrefix string
	logger    *slog.Logger
}

var _ Store = (*Redis)(nil)

// OpenRedis connects and pings the server.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("recordstore: redis URL is required")
	}
	options, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("recordstore: parsing redis URL: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("recordstore: redis ping %s: %w", options.Addr, err)
	}
	logger.Info("redis record store connected", "addr", options.Addr, "db", options.DB)

	return newRedis(client, cfg.KeyPrefix, logger), nil
}

func newRedis(client *redis.Client, keyPrefix string, logger *slog.Logger) *Redis {
	if keyPrefix == "" {
		keyPrefix = "huddle:"
	}
	return &Redis{client: client, keyPrefix: keyPrefix, logger: logger}
}

func (r *Redis) hashKey(collection string) string {
	return r.keyPrefix + collection
}

func (r *Redis) Put(ctx context.Context, collection, key string, data []byte) error {
	if err := r.client.HSet(ctx, r.hashKey(collection), key, data).Err(); err != nil {
		return fmt.Errorf("recordstore: put %s/%s: %w", collection, key, err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, collection, key string) ([]byte, error) {
	data, err := r.client.HGet(ctx, r.hashKey(collection), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("recordstore: get %s/%s: %w", collection, key, err)
	}
	return data, nil
}

func (r *Redis) Delete(ctx context.Context, collection, key string) error {
	if err := r.client.HDel(ctx, r.hashKey(collection), key).Err(); err != nil {
		return fmt.Errorf("recordstore: delete %s/%s: %w", collection, key, err)
	}
	return nil
}

func (r *Redis) ListAll(ctx context.Context, collection string) (map[string][]byte, error) {
	values, err := r.client.HGetAll(ctx, r.hashKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("recordstore: list %s: %w", collection, err)
	}
	records := make(map[string][]byte, len(values))
	for key, value := range values {
		records[key] = []byte(value)
	}
	return records, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
