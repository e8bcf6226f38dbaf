// Package idempotency remembers the outcome of travel creation requests in
// Redis so a client can safely retry a POST with the same Idempotency-Key.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultTTL is how long a key is remembered when no TTL is configured.
const DefaultTTL = 24 * time.Hour

// Record is the remembered result of one creation request.
type Record struct {
	TravelID  int64     `msgpack:"travel_id"`
	BodyHash  uint64    `msgpack:"body_hash"`
	CreatedAt time.Time `msgpack:"created_at"`
}

// Fingerprint hashes a request body for comparison with a later replay.
func Fingerprint(body []byte) uint64 {
	return xxhash.Sum64(body)
}

// SameRequest reports whether body is the request that produced r.
func (r Record) SameRequest(body []byte) bool {
	return r.BodyHash == Fingerprint(body)
}

// Store wraps a Redis client and provides typed get/save for records.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore constructs a Store. A non-positive ttl falls back to DefaultTTL.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

// key returns the Redis key for an idempotency key. UUIDs compare case-insensitively.
func key(k string) string {
	return "idempotency:travel:" + strings.ToLower(strings.TrimSpace(k))
}

// Get retrieves the record for k.
// Returns nil, nil when the key is unknown or expired.
func (s *Store) Get(ctx context.Context, k string) (*Record, error) {
	val, err := s.client.Get(ctx, key(k)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("idempotency get for key %s: %w", k, err)
	}

	var rec Record
	if err := msgpack.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("decoding idempotency record for key %s: %w", k, err)
	}

	return &rec, nil
}

// Save stores rec under k with the configured TTL. If k is already recorded
// the existing record is kept, so the first completed request wins.
func (s *Store) Save(ctx context.Context, k string, rec Record) error {
	b, err := msgpack.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding idempotency record for key %s: %w", k, err)
	}

	if err := s.client.SetNX(ctx, key(k), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency save for key %s: %w", k, err)
	}

	return nil
}

// Ping checks connectivity to Redis.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
