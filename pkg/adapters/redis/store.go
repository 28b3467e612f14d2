// Package redis implements the plan store on Redis, so a fleet of bins
// seeing the same stream configurations shares one cache of planning
// results.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/switchyard/pkg/domain"
)

// Store implements ports.PlanStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for cached plans.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithPrefix sets the key prefix for cached plans.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New creates a Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "switchyard:plan:",
		ttl:    0, // No expiration by default
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(signature string) string {
	return s.prefix + signature
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the plan to Redis.
func (s *Store) Save(ctx context.Context, signature string, plan *domain.Plan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(signature), data, s.ttl)

	// Index entry scored by expiry so List can prune lazily.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: signature})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the plan from Redis.
func (s *Store) Load(ctx context.Context, signature string) (*domain.Plan, error) {
	val, err := s.client.Get(ctx, s.key(signature)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var plan domain.Plan
	if err := json.Unmarshal([]byte(val), &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	return &plan, nil
}

// Delete removes the cached plan.
func (s *Store) Delete(ctx context.Context, signature string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(signature))
	pipe.ZRem(ctx, s.indexKey(), signature)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns the cached signatures, pruning expired index entries and
// leaving out signatures whose plan key has expired.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired plans: %w", err)
	}

	sigs, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	// The server expires plan keys on its own clock; keep only live ones.
	pipe := s.client.Pipeline()
	exists := make([]*backend.IntCmd, len(sigs))
	for i, sig := range sigs {
		exists[i] = pipe.Exists(ctx, s.key(sig))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	live := make([]string, 0, len(sigs))
	for i, sig := range sigs {
		if exists[i].Val() > 0 {
			live = append(live, sig)
		}
	}
	return live, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
