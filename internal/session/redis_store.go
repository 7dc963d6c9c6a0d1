package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fjod/go_cart/storefront/internal/cart"
)

const maxTxRetries = 10

var ErrConflict = errors.New("session changed concurrently, retries exhausted")

// RedisStore keeps each session as JSON under session:<id> with a sliding TTL.
// Updates are optimistic WATCH/MULTI transactions.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (r *RedisStore) Create(ctx context.Context) (*Session, error) {
	sess := New(r.now())
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("marshal session failed: %w", err)
	}
	ok, err := r.client.SetNX(ctx, sessionKey(sess.ID), data, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis set failed: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("session id collision: %s", sess.ID)
	}
	return sess, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	key := sessionKey(id)
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	sess, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
		return nil, fmt.Errorf("redis expire failed: %w", err)
	}
	return sess, nil
}

func (r *RedisStore) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	key := sessionKey(id)
	var saved *Session

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("redis get failed: %w", err)
		}
		sess, err := decode(data)
		if err != nil {
			return err
		}
		if err := fn(sess); err != nil {
			return err
		}
		sess.UpdatedAt = r.now()
		out, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("marshal session failed: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, r.ttl)
			return nil
		})
		if err == nil {
			saved = sess
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return saved, nil
	}
	return nil, ErrConflict
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Close is a no-op; the caller owns the redis client.
func (r *RedisStore) Close() error { return nil }

func decode(data []byte) (*Session, error) {
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err)
	}
	if sess.Cart == nil {
		sess.Cart = cart.New()
	}
	return &sess, nil
}
