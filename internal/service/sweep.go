package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/pribylovaa/articles-service/internal/metrics"
	"github.com/pribylovaa/articles-service/internal/models"
	"github.com/pribylovaa/articles-service/internal/trending"
	"github.com/pribylovaa/articles-service/pkg/log"
)

// scoreEpsilon — изменения trending_score меньше этого порога не записываются.
const scoreEpsilon = 1e-6

// RecomputeTrending — один проход пересчёта trending_score по всем опубликованным статьям.
// Возвращает число статей, чей score был перезаписан.
func (s *Service) RecomputeTrending(ctx context.Context) (int, error) {
	const op = "service/sweep/RecomputeTrending"

	lg := log.From(ctx)
	start := time.Now()
	now := s.now()

	var seen, written int
	err := s.storage.ForEachPublished(ctx, func(a models.Article) error {
		seen++

		score := trending.ForArticle(&a, now)
		if math.Abs(score-a.TrendingScore) < scoreEpsilon {
			return nil
		}

		if err := s.storage.SetTrendingScore(ctx, a.ID, score); err != nil {
			return fmt.Errorf("set score %s: %w", a.ID, err)
		}
		written++

		return nil
	})

	metrics.ObserveSweep(time.Since(start), written)

	if err != nil {
		return written, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("trending_sweep_done",
		slog.String("op", op),
		slog.Int("seen", seen),
		slog.Int("written", written),
		slog.Duration("took", time.Since(start)),
	)

	return written, nil
}

// StartTrendingSweep запускает периодический пересчёт trending_score с интервалом
// s.cfg.Trending.SweepInterval. Первый проход — сразу. Останавливается по ctx.
// Интервал <= 0 отключает sweep: функция сразу возвращает nil.
func (s *Service) StartTrendingSweep(ctx context.Context) error {
	const op = "service/sweep/StartTrendingSweep"

	interval := s.cfg.Trending.SweepInterval
	lg := log.From(ctx)

	if interval <= 0 {
		lg.Info("trending_sweep_disabled", slog.String("op", op))
		return nil
	}

	lg.Info("trending_sweep_start", slog.String("op", op), slog.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.sweepOnce(ctx, op)

	for {
		select {
		case <-ctx.Done():
			lg.Info("trending_sweep_stop", slog.String("op", op))
			return nil
		case <-ticker.C:
			s.sweepOnce(ctx, op)
		}
	}
}

func (s *Service) sweepOnce(ctx context.Context, op string) {
	if _, err := s.RecomputeTrending(ctx); err != nil && ctx.Err() == nil {
		log.From(ctx).Warn("trending_sweep_error",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}
}

// Reindex перестраивает внешний поисковый индекс по хранилищу (на старте).
// Без Searcher — no-op.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	const op = "service/sweep/Reindex"

	if s.searcher == nil {
		return 0, nil
	}

	start := time.Now()
	n, err := s.searcher.IndexFromStorage(ctx, s.storage)
	if err != nil {
		return n, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("search_reindex_done",
		slog.String("op", op),
		slog.Int("indexed", n),
		slog.Duration("took", time.Since(start)),
	)

	return n, nil
}
