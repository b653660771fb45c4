// Package claim provides a redis-backed claim registry so concurrent
// driver runs skip each other's in-flight documents instead of racing to
// the revision guard.
package claim

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sasayosh1/prorenata-sub004/internal/util"
)

// Registry claims document ids with SETNX and a TTL. The TTL bounds how
// long a crashed driver can block a document; the revision guard still
// protects correctness if two drivers do overlap.
type Registry struct {
	client *redis.Client
	prefix string
	holder string
	ttl    time.Duration
}

// NewRegistry connects to redis and verifies the connection.
func NewRegistry(redisURL string, ttl time.Duration) (*Registry, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRegistryWithClient(client, ttl), nil
}

// NewRegistryWithClient builds a registry from an existing client.
func NewRegistryWithClient(client *redis.Client, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Registry{
		client: client,
		prefix: "editclaim:",
		holder: util.NewID("driver"),
		ttl:    ttl,
	}
}

func (r *Registry) key(documentID string) string {
	return r.prefix + documentID
}

// Acquire claims a document id. Returns false when another driver holds it.
func (r *Registry) Acquire(ctx context.Context, documentID string) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.key(documentID), r.holder, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire claim %s: %w", documentID, err)
	}
	return ok, nil
}

// Release frees a claim this driver holds. Releasing another driver's
// claim is refused silently; it just means our own claim already expired.
func (r *Registry) Release(ctx context.Context, documentID string) error {
	key := r.key(documentID)
	holder, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("release claim %s: %w", documentID, err)
	}
	if holder != r.holder {
		return nil
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("release claim %s: %w", documentID, err)
	}
	return nil
}

// Ping checks the redis connection.
func (r *Registry) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *Registry) Close() error {
	return r.client.Close()
}
