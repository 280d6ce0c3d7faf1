package redisad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"voyager_booking/internal/adapters/observability"
	"voyager_booking/internal/domain"
)

const (
	keyPrefix = "session:"

	maxUpdateAttempts = 50
)

// SessionStore keeps one JSON document per session under session:<id>.
type SessionStore struct{ c *redis.Client }

func New(addr, pass string, db int) *SessionStore {
	return NewFromClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}))
}

func NewFromClient(c *redis.Client) *SessionStore { return &SessionStore{c: c} }

func (r *SessionStore) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

// Save overwrites the session and resets its expiry.
func (r *SessionStore) Save(ctx context.Context, s domain.Session, ttl time.Duration) error {
	if s.ID == "" {
		return fmt.Errorf("session id is required")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	observability.ObserveSession("redis", "save")
	return r.c.Set(ctx, keyPrefix+s.ID, b, ttl).Err()
}

func (r *SessionStore) Load(ctx context.Context, id string) (domain.Session, error) {
	if id == "" {
		return domain.Session{}, domain.ErrNoSession
	}
	return get(ctx, r.c, id)
}

// Update reads, changes and writes the session under WATCH. When another
// writer touches the key in between, EXEC aborts and fn runs again on the
// fresh copy.
func (r *SessionStore) Update(ctx context.Context, id string, ttl time.Duration, fn func(*domain.Session) error) (domain.Session, error) {
	if id == "" {
		return domain.Session{}, domain.ErrNoSession
	}
	key := keyPrefix + id

	var out domain.Session
	txf := func(tx *redis.Tx) error {
		s, err := get(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(&s); err != nil {
			return err
		}
		b, err := json.Marshal(s)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, ttl)
			return nil
		})
		if err == nil {
			out = s
		}
		return err
	}

	for i := 0; i < maxUpdateAttempts; i++ {
		err := r.c.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			observability.ObserveSession("redis", "conflict")
			continue
		}
		if err != nil {
			return domain.Session{}, err
		}
		observability.ObserveSession("redis", "save")
		return out, nil
	}
	return domain.Session{}, fmt.Errorf("update session %s: gave up after %d conflicts", id, maxUpdateAttempts)
}

// getter is satisfied by both *redis.Client and the *redis.Tx of a WATCH.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func get(ctx context.Context, c getter, id string) (domain.Session, error) {
	v, err := c.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.ObserveSession("redis", "miss")
		return domain.Session{}, domain.ErrNoSession
	}
	if err != nil {
		return domain.Session{}, err
	}
	observability.ObserveSession("redis", "hit")
	var s domain.Session
	if err := json.Unmarshal(v, &s); err != nil {
		return domain.Session{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return s, nil
}

func (r *SessionStore) Delete(ctx context.Context, id string) error {
	observability.ObserveSession("redis", "del")
	return r.c.Del(ctx, keyPrefix+id).Err()
}
