package cache

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerStore wraps a Store with a circuit breaker. The cache is
// best-effort by contract, but without a breaker a dead Redis still costs
// every request a connect timeout; with it, an unhealthy backend degrades
// to instant misses until the probe succeeds again.
type BreakerStore struct {
	inner Store
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerStore wraps inner with a circuit breaker tuned for a cache:
// trip fast, retry soon.
func NewBreakerStore(inner Store, logger *zap.Logger) *BreakerStore {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "cache",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("cache circuit breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &BreakerStore{inner: inner, cb: cb}
}

func (s *BreakerStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.cb.Execute(func() (interface{}, error) {
		data, err := s.inner.Get(ctx, key)
		if err == ErrNotFound {
			// A miss is a healthy outcome, not a backend failure.
			return nil, nil
		}
		return data, err
	})
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, ErrNotFound
	}
	return val.([]byte), nil
}

func (s *BreakerStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.inner.Set(ctx, key, value, ttl)
	})
	return err
}

func (s *BreakerStore) Delete(ctx context.Context, key string) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.inner.Delete(ctx, key)
	})
	return err
}

func (s *BreakerStore) DeletePattern(ctx context.Context, pattern string) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.inner.DeletePattern(ctx, pattern)
	})
	return err
}

func (s *BreakerStore) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

func (s *BreakerStore) Close() error {
	return s.inner.Close()
}
