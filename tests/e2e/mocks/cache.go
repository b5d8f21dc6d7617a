package mocks

import (
	"context"
	"sync/atomic"
	"time"
)

// Cacher matches the handler-side cache interface.
type Cacher interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Close() error
}

// TrackingCache counts calls made to an underlying cache.
type TrackingCache struct {
	inner    Cacher
	getCalls atomic.Int64
	hits     atomic.Int64
	setCalls atomic.Int64
}

func NewTrackingCache(inner Cacher) *TrackingCache {
	return &TrackingCache{inner: inner}
}

func (c *TrackingCache) Get(ctx context.Context, key string, dest any) error {
	c.getCalls.Add(1)
	err := c.inner.Get(ctx, key, dest)
	if err == nil {
		c.hits.Add(1)
	}
	return err
}

func (c *TrackingCache) Set(ctx context.Context, key string, value any, exp time.Duration) error {
	c.setCalls.Add(1)
	return c.inner.Set(ctx, key, value, exp)
}

func (c *TrackingCache) Close() error {
	return c.inner.Close()
}

func (c *TrackingCache) GetCalls() int64 { return c.getCalls.Load() }
func (c *TrackingCache) Hits() int64     { return c.hits.Load() }
func (c *TrackingCache) SetCalls() int64 { return c.setCalls.Load() }
