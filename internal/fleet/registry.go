// Package fleet tracks which process in a horizontally-scaled simulator
// deployment owns a given station, so a worker command naming a hashId
// can be routed to the one process actually holding that station's
// in-memory state.
package fleet

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/charging-platform/cs-simulator/internal/cache"
	"github.com/charging-platform/cs-simulator/internal/config"
)

// Registry maps a station hashId to the processId that currently owns it,
// backed by Redis for cross-process visibility and fronted by a small
// local LRU to avoid a round trip on every lookup.
type Registry struct {
	client *redis.Client
	prefix string
	local  *cache.LRUCache
	ttl    time.Duration
}

// NewRegistry dials Redis per cfg and builds a Registry whose entries
// expire after ttl unless refreshed (a process that dies without
// deregistering eventually stops being considered the owner).
func NewRegistry(cfg config.RedisConfig, ttl time.Duration) (*Registry, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}

	return NewRegistryWithClient(client, ttl), nil
}

// NewRegistryWithClient builds a Registry around an already-constructed
// Redis client, for dependency injection in tests (see redismock).
func NewRegistryWithClient(client *redis.Client, ttl time.Duration) *Registry {
	local := cache.NewLRUCache(cache.DefaultCacheConfig())
	_ = local.Start()
	return &Registry{
		client: client,
		prefix: "fleet:station:",
		local:  local,
		ttl:    ttl,
	}
}

// Claim registers this process as the owner of hashId, renewing the TTL
// on every call; a claim that is not renewed within ttl expires.
func (r *Registry) Claim(ctx context.Context, hashId, processId string) error {
	key := r.prefix + hashId
	if err := r.client.Set(ctx, key, processId, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to claim station %s: %w", hashId, err)
	}
	_ = r.local.Set(hashId, processId, r.ttl)
	return nil
}

// Owner returns the processId currently owning hashId, or redis.Nil if no
// process has claimed it (or its claim expired).
func (r *Registry) Owner(ctx context.Context, hashId string) (string, error) {
	if v, ok := r.local.Get(hashId); ok {
		return v.(string), nil
	}
	key := r.prefix + hashId
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return "", err
	}
	_ = r.local.Set(hashId, val, r.ttl)
	return val, nil
}

// Release removes this process's claim on hashId, e.g. on
// DELETE_CHARGING_STATIONS or graceful shutdown.
func (r *Registry) Release(ctx context.Context, hashId string) error {
	r.local.Delete(hashId)
	key := r.prefix + hashId
	return r.client.Del(ctx, key).Err()
}

// Close releases the underlying Redis client and stops the local cache's
// background eviction worker.
func (r *Registry) Close() error {
	_ = r.local.Stop()
	return r.client.Close()
}
