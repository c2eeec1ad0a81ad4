// Tunedeck - Personal Music Streaming and Recommendations
// Copyright 2026 Tunedeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunedeck/tunedeck

package catalog

import (
	"context"
	"errors"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/tunedeck/tunedeck/internal/config"
	"github.com/tunedeck/tunedeck/internal/logging"
	"github.com/tunedeck/tunedeck/internal/metrics"
	"github.com/tunedeck/tunedeck/internal/models"
)

// Ensure BreakerClient implements Catalog.
var _ Catalog = (*BreakerClient)(nil)

// BreakerClient wraps a Catalog with a circuit breaker so a degraded
// catalog sheds load instead of dragging every strategy through its
// connect timeout.
//
// The breaker uses real time for its interval and timeout calculations;
// tests should mock the underlying Catalog, not the breaker.
type BreakerClient struct {
	inner Catalog
	cb    *gobreaker.CircuitBreaker[any]
	name  string
}

// NewBreakerClient wraps inner with a circuit breaker configured from cfg.
// The circuit opens when the failure ratio reaches cfg.BreakerFailureRatio
// over at least cfg.BreakerMinRequests requests, and probes again after
// cfg.BreakerTimeout.
func NewBreakerClient(inner Catalog, cfg *config.CatalogConfig) *BreakerClient {
	const cbName = "catalog"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	minRequests := cfg.BreakerMinRequests
	if minRequests == 0 {
		minRequests = 10
	}
	failureRatio := cfg.BreakerFailureRatio
	if failureRatio <= 0 {
		failureRatio = 0.6
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    cbName,
		Timeout: cfg.BreakerTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= failureRatio
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &BreakerClient{
		inner: inner,
		cb:    cb,
		name:  cbName,
	}
}

// Search implements Catalog.
func (b *BreakerClient) Search(ctx context.Context, query, resultType string, limit int) ([]models.Song, error) {
	result, err := b.execute("search", func() (any, error) {
		return b.inner.Search(ctx, query, resultType, limit)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.Song), nil
}

// HomeFeed implements Catalog.
func (b *BreakerClient) HomeFeed(ctx context.Context) ([]models.HomeSection, error) {
	result, err := b.execute("home_feed", func() (any, error) {
		return b.inner.HomeFeed(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.HomeSection), nil
}

// Song implements Catalog.
func (b *BreakerClient) Song(ctx context.Context, songID string) (*models.Song, error) {
	result, err := b.execute("song", func() (any, error) {
		return b.inner.Song(ctx, songID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Song), nil
}

// execute runs fn through the breaker, keeping the per-operation metrics.
func (b *BreakerClient) execute(operation string, fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CatalogRequests.WithLabelValues(operation, "rejected").Inc()
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		metrics.CatalogRequests.WithLabelValues(operation, "failure").Inc()
		return nil, err
	}

	metrics.CatalogRequests.WithLabelValues(operation, "success").Inc()
	return result, nil
}

// stateToFloat maps breaker states to the gauge encoding.
func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
