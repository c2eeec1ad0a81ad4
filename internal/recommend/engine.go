// Tunedeck - Personal Music Streaming and Recommendations
// Copyright 2026 Tunedeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunedeck/tunedeck

package recommend

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tunedeck/tunedeck/internal/config"
	"github.com/tunedeck/tunedeck/internal/metrics"
)

// Engine blends the three strategies into a single ranked response.
// It is safe for concurrent use.
type Engine struct {
	cfg    *config.RecommendConfig
	logger zerolog.Logger

	content       Strategy
	collaborative Strategy
	trending      Strategy
}

// NewEngine creates a recommendation engine over the three strategies.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *config.RecommendConfig, content, collaborative, trending Strategy, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:           cfg,
		logger:        logger.With().Str("component", "recommend").Logger(),
		content:       content,
		collaborative: collaborative,
		trending:      trending,
	}
}

// Recommend generates up to limit candidates for the user.
//
// Single-strategy modes invoke one strategy with the full limit. Mixed
// mode splits the limit into three equal integer shares (the remainder
// is not redistributed) and fans out to all three strategies
// concurrently, concatenating results in fixed order: content, then
// collaborative, then trending. The result never exceeds limit but may
// fall short when strategies underproduce.
//
// The only errors returned are ErrInvalidLimit and ErrUnknownMode;
// every collaborator failure is absorbed below the strategy boundary.
func (e *Engine) Recommend(ctx context.Context, userID string, mode Mode, limit int) ([]Candidate, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if limit > e.cfg.MaxLimit {
		limit = e.cfg.MaxLimit
	}

	start := time.Now()
	metrics.RecommendRequests.WithLabelValues(mode.String()).Inc()

	var out []Candidate
	switch mode {
	case ModeContent:
		out = e.content.Recommend(ctx, userID, limit)
	case ModeCollaborative:
		out = e.collaborative.Recommend(ctx, userID, limit)
	case ModeTrending:
		out = e.trending.Recommend(ctx, userID, limit)
	case ModeMixed:
		out = e.blend(ctx, userID, limit)
	default:
		return nil, ErrUnknownMode
	}

	metrics.RecommendCandidates.WithLabelValues(mode.String()).Observe(float64(len(out)))
	e.logger.Debug().
		Str("user_id", userID).
		Str("mode", mode.String()).
		Int("limit", limit).
		Int("returned", len(out)).
		Dur("elapsed", time.Since(start)).
		Msg("recommendation complete")

	return out, nil
}

// blend fans out to all three strategies with an equal share each and
// concatenates their contributions in fixed strategy order. The
// strategies have no data dependency on each other, so the fan-out is
// purely a latency optimization.
func (e *Engine) blend(ctx context.Context, userID string, limit int) []Candidate {
	share := limit / 3
	if share == 0 {
		return []Candidate{}
	}

	var content, collaborative, trending []Candidate

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		content = e.content.Recommend(gctx, userID, share)
		return nil
	})
	g.Go(func() error {
		collaborative = e.collaborative.Recommend(gctx, userID, share)
		return nil
	})
	g.Go(func() error {
		trending = e.trending.Recommend(gctx, userID, share)
		return nil
	})
	_ = g.Wait() // strategies never return errors

	out := make([]Candidate, 0, len(content)+len(collaborative)+len(trending))
	out = append(out, content...)
	out = append(out, collaborative...)
	out = append(out, trending...)
	return out
}
