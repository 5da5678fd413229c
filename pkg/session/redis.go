package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "blazeweb:session:"

// RedisStore keeps sessions as JSON under "<prefix><token>" with a TTL equal
// to the time left before expiry. A second key maps the ID to the token so
// sessions can be deleted by ID.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore returns a store backed by client. An empty prefix uses
// "blazeweb:session:".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	return r.write(ctx, s)
}

func (r *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	data, err := r.client.Get(ctx, r.tokenKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.IsExpired() {
		return nil, ErrExpired
	}
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	return &s, nil
}

func (r *RedisStore) Update(ctx context.Context, s *Session) error {
	old, err := r.client.Get(ctx, r.idKey(s.ID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if old != "" && old != s.Token {
		if err := r.client.Del(ctx, r.tokenKey(old)).Err(); err != nil {
			return err
		}
	}
	return r.write(ctx, s)
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	token, err := r.client.Get(ctx, r.idKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	return r.client.Del(ctx, r.tokenKey(token), r.idKey(id)).Err()
}

// Purge is a no-op: Redis expires keys on its own.
func (r *RedisStore) Purge(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (r *RedisStore) write(ctx context.Context, s *Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return ErrExpired
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.tokenKey(s.Token), data, ttl)
		p.Set(ctx, r.idKey(s.ID), s.Token, ttl)
		return nil
	})
	return err
}

func (r *RedisStore) tokenKey(token string) string { return r.prefix + "t:" + token }
func (r *RedisStore) idKey(id string) string       { return r.prefix + "id:" + id }
