package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/cb-discovery/internal/survey"
)

// KeyPrefix namespaces session keys in Redis.
const KeyPrefix = "cb:session:"

// RedisStore keeps sessions as JSON values with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing client. A non-positive ttl uses DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

func key(id string) string {
	return KeyPrefix + id
}

// Get loads the session with id.
func (r *RedisStore) Get(ctx context.Context, id string) (survey.Session, error) {
	data, err := r.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return survey.Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return survey.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	var s survey.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return survey.Session{}, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return s, nil
}

// Save writes s if its version is current and refreshes its TTL. The read
// and write run under WATCH so a concurrent writer aborts the transaction.
func (r *RedisStore) Save(ctx context.Context, s survey.Session) error {
	if s.ID == "" {
		return fmt.Errorf("session id is empty")
	}
	k := key(s.ID)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		stored, exists, err := storedVersion(ctx, tx, k)
		if err != nil {
			return err
		}
		if err := checkVersion(s, stored, exists); err != nil {
			return err
		}

		next := s
		next.Version++
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, data, r.ttl)
			return nil
		})
		return err
	}, k)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return fmt.Errorf("%w: %s", ErrConflict, s.ID)
	case errors.Is(err, ErrConflict), errors.Is(err, ErrNotFound):
		return err
	default:
		return fmt.Errorf("failed to save session: %w", err)
	}
}

// storedVersion reads the version of the session stored at k.
func storedVersion(ctx context.Context, tx *redis.Tx, k string) (int64, bool, error) {
	data, err := tx.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to load session: %w", err)
	}
	var stored struct {
		Version int64 `json:"version"`
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		return 0, false, fmt.Errorf("failed to decode stored session: %w", err)
	}
	return stored.Version, true, nil
}

// Delete removes the session with id.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Ping checks that Redis is reachable.
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
