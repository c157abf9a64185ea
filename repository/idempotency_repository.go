package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrRequestInProgress means another request holding the same key has
	// not finished yet.
	ErrRequestInProgress = errors.New("request with this idempotency key is in progress")
	// ErrFingerprintMismatch means the key was first used for a different
	// request.
	ErrFingerprintMismatch = errors.New("idempotency key reused with a different request")
)

const (
	stateProcessing = "PROCESSING"
	stateComplete   = "COMPLETE"
)

// CachedResponse is a processor reply stored for replay.
type CachedResponse struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body,omitempty"`
}

type idempotencyEntry struct {
	State       string          `json:"state"`
	Fingerprint string          `json:"fingerprint"`
	Response    *CachedResponse `json:"response,omitempty"`
	CreatedAt   int64           `json:"created_at"`
}

// IdempotencyStore deduplicates retried checkout calls.
type IdempotencyStore interface {
	// Begin claims key for a new request. It returns the cached response
	// when the same request already completed.
	Begin(ctx context.Context, scope, key, fingerprint string) (*CachedResponse, error)
	Complete(ctx context.Context, scope, key, fingerprint string, resp CachedResponse) error
	// Release drops an in-flight claim so the caller may retry.
	Release(ctx context.Context, scope, key string) error
}

type RedisIdempotencyStore struct {
	client    *redis.Client
	ttl       time.Duration
	inFlight  time.Duration
	keyPrefix string
}

// NewRedisIdempotencyStore keeps completed responses for ttl. An in-flight
// claim expires after inFlight so a crashed request cannot block a key
// forever.
func NewRedisIdempotencyStore(client *redis.Client, ttl, inFlight time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{
		client:    client,
		ttl:       ttl,
		inFlight:  inFlight,
		keyPrefix: "idem:checkout:",
	}
}

func (s *RedisIdempotencyStore) getKey(scope, key string) string {
	return s.keyPrefix + scope + ":" + key
}

func (s *RedisIdempotencyStore) Begin(ctx context.Context, scope, key, fingerprint string) (*CachedResponse, error) {
	claim, err := json.Marshal(idempotencyEntry{
		State:       stateProcessing,
		Fingerprint: fingerprint,
		CreatedAt:   time.Now().Unix(),
	})
	if err != nil {
		return nil, err
	}

	redisKey := s.getKey(scope, key)
	ok, err := s.client.SetNX(ctx, redisKey, claim, s.inFlight).Result()
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, nil
	}

	data, err := s.client.Get(ctx, redisKey).Bytes()
	if err == redis.Nil {
		// expired between SETNX and GET; treat as busy and let the client retry
		return nil, ErrRequestInProgress
	}
	if err != nil {
		return nil, err
	}

	var entry idempotencyEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	if entry.Fingerprint != fingerprint {
		return nil, ErrFingerprintMismatch
	}
	if entry.State != stateComplete || entry.Response == nil {
		return nil, ErrRequestInProgress
	}
	return entry.Response, nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, scope, key, fingerprint string, resp CachedResponse) error {
	data, err := json.Marshal(idempotencyEntry{
		State:       stateComplete,
		Fingerprint: fingerprint,
		Response:    &resp,
		CreatedAt:   time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.getKey(scope, key), data, s.ttl).Err()
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, scope, key string) error {
	return s.client.Del(ctx, s.getKey(scope, key)).Err()
}
