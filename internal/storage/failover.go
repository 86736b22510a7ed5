package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// FailoverBackend routes to a primary backend and falls back to a secondary
// when the primary errors. After a cooldown the primary is probed again.
type FailoverBackend struct {
	primary  Backend
	fallback Backend
	logger   *zerolog.Logger
	cooldown time.Duration

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverBackend(primary, fallback Backend, logger *zerolog.Logger) *FailoverBackend {
	return &FailoverBackend{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		cooldown: time.Minute,
	}
}

func (b *FailoverBackend) markDown(err error) {
	b.logger.Error().Err(err).Msg("primary storage backend failed, falling back")
	b.isDown.Store(true)
	b.mu.Lock()
	b.lastCheck = time.Now()
	b.mu.Unlock()
}

// shouldProbe reports whether the cooldown elapsed and the primary may be retried.
func (b *FailoverBackend) shouldProbe() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if time.Since(b.lastCheck) < b.cooldown {
		return false
	}
	b.lastCheck = time.Now()
	return true
}

func (b *FailoverBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if !b.isDown.Load() {
		val, ok, err := b.primary.Get(ctx, key)
		if err == nil {
			return val, ok, nil
		}
		b.markDown(err)
	} else if b.shouldProbe() {
		val, ok, err := b.primary.Get(ctx, key)
		if err == nil {
			b.isDown.Store(false)
			return val, ok, nil
		}
	}

	return b.fallback.Get(ctx, key)
}

func (b *FailoverBackend) Set(ctx context.Context, key string, value []byte) error {
	if !b.isDown.Load() {
		err := b.primary.Set(ctx, key, value)
		if err == nil {
			return nil
		}
		b.markDown(err)
	}

	return b.fallback.Set(ctx, key, value)
}

func (b *FailoverBackend) Delete(ctx context.Context, key string) error {
	if !b.isDown.Load() {
		err := b.primary.Delete(ctx, key)
		if err == nil {
			return nil
		}
		b.markDown(err)
	}

	return b.fallback.Delete(ctx, key)
}

func (b *FailoverBackend) Close() error {
	err := b.primary.Close()
	if ferr := b.fallback.Close(); err == nil {
		err = ferr
	}
	return err
}
