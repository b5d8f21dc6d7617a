package grpc

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type FetchFunc[T any] func(ctx context.Context) (T, error)

const (
	defaultFetchTimeout = 15 * time.Second
	defaultSetTimeout   = 5 * time.Second
	maxJitter           = 15 * time.Second
)

// cacheEntry wraps a cached value with the time it was stored so hits can
// decide whether a refresh-ahead is due.
type cacheEntry[T any] struct {
	Value    T         `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

// addTTLJitter spreads expirations by up to ±15s.
func addTTLJitter(ttl time.Duration) time.Duration {
	if ttl <= 2*maxJitter {
		return ttl
	}
	jitter := time.Duration(rand.Int63n(int64(2*maxJitter))) - maxJitter
	return ttl + jitter
}

// refreshDue reports whether an entry has lived past half its TTL.
func refreshDue(storedAt time.Time, ttl time.Duration, now time.Time) bool {
	if storedAt.IsZero() || ttl <= 0 {
		return true
	}
	return now.Sub(storedAt) >= ttl/2
}

func storeEntry[T any](c Cacher, key string, value T, ttl time.Duration, logger *zap.Logger, reason string) {
	setCtx, cancel := context.WithTimeout(context.Background(), defaultSetTimeout)
	defer cancel()

	ttlWithJitter := addTTLJitter(ttl)
	entry := cacheEntry[T]{Value: value, StoredAt: time.Now().UTC()}
	if err := c.Set(setCtx, key, entry, ttlWithJitter); err != nil {
		logger.Warn("failed to set cache", zap.String("key", key), zap.String("reason", reason), zap.Error(err))
		return
	}
	logger.Debug("cache populated",
		zap.String("key", key),
		zap.String("reason", reason),
		zap.Duration("ttl", ttlWithJitter))
}

func triggerBackgroundRefresh[T any](
	c Cacher,
	sf *singleflight.Group,
	key string,
	ttl time.Duration,
	logger *zap.Logger,
	fn FetchFunc[T],
) {
	go func() {
		_, _, _ = sf.Do(key+":refresh", func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), defaultFetchTimeout)
			defer cancel()

			value, err := fn(ctx)
			if err != nil {
				logger.Warn("background refresh failed", zap.String("key", key), zap.Error(err))
				return nil, err
			}
			storeEntry(c, key, value, ttl, logger, "refresh")
			return value, nil
		})
	}()
}

// FindAndCache implements read-through caching with singleflight and
// refresh-ahead. A nil Cacher disables caching but keeps de-duplication.
func FindAndCache[T any](
	ctx context.Context,
	c Cacher,
	sf *singleflight.Group,
	key string,
	ttl time.Duration,
	logger *zap.Logger,
	fn FetchFunc[T],
) (T, error) {
	var zero T
	if logger == nil {
		logger = zap.NewNop()
	}

	if c != nil {
		var cached cacheEntry[T]
		err := c.Get(ctx, key, &cached)
		switch {
		case err == nil:
			logger.Debug("cache hit", zap.String("key", key))
			if refreshDue(cached.StoredAt, ttl, time.Now()) {
				triggerBackgroundRefresh(c, sf, key, ttl, logger, fn)
			}
			return cached.Value, nil

		case errors.Is(err, redis.Nil):
			logger.Debug("cache miss", zap.String("key", key))

		default:
			logger.Warn("cache get error (treating as miss)", zap.String("key", key), zap.Error(err))
		}
	}

	v, err, shared := sf.Do(key, func() (any, error) {
		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if c != nil {
			go storeEntry(c, key, value, ttl, logger, "miss")
		}
		return value, nil
	})
	if err != nil {
		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		logger.Error("singleflight type mismatch", zap.String("key", key))
		return zero, fmt.Errorf("type mismatch for key %q", key)
	}

	if shared {
		logger.Debug("singleflight shared result", zap.String("key", key))
	}

	return value, nil
}
