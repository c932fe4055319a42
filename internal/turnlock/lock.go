package turnlock

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/park285/othello-turn-client/internal/obslog"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrHeld     = errors.New("turn lock is held by another client")
	ErrNotOwner = errors.New("turn lock is no longer owned")
)

const DefaultTTL = 30 * time.Second

// Lock is a Redis turn token for one remote game session, so two client
// processes cannot drive the same session at once.
type Lock struct {
	rdb       *redis.Client
	sessionID string
	ttl       time.Duration
}

func New(rdb *redis.Client, sessionID string, ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Lock{rdb: rdb, sessionID: strings.TrimSpace(sessionID), ttl: ttl}
}

// Dial connects to REDIS_URL and pings it.
func Dial(ctx context.Context, redisURL string) (*redis.Client, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, errors.New("REDIS_URL required for turn lock")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (l *Lock) key() string { return "othello:turn:" + l.sessionID }

// Acquire takes the lock for this client. The returned func releases it only
// while this client still owns it.
func (l *Lock) Acquire(ctx context.Context) (func(context.Context) error, error) {
	owner := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.key(), owner, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("turn lock acquire: %w", err)
	}
	if !ok {
		return nil, ErrHeld
	}
	obslog.L().Debug("turn_lock_acquired", zap.String("session_id", l.sessionID), zap.String("owner", owner))
	return func(ctx context.Context) error { return l.release(ctx, owner) }, nil
}

func (l *Lock) release(ctx context.Context, owner string) error {
	key := l.key()
	err := l.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return ErrNotOwner
		}
		if err != nil {
			return err
		}
		if cur != owner {
			return ErrNotOwner
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("turn lock release: %w", err)
	}
	obslog.L().Debug("turn_lock_released", zap.String("session_id", l.sessionID), zap.String("owner", owner))
	return nil
}

// Held reports whether any client holds the lock.
func (l *Lock) Held(ctx context.Context) (bool, error) {
	n, err := l.rdb.Exists(ctx, l.key()).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
