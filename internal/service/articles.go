package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/articles-service/internal/lifecycle"
	"github.com/pribylovaa/articles-service/internal/metrics"
	"github.com/pribylovaa/articles-service/internal/models"
	"github.com/pribylovaa/articles-service/internal/slug"
	"github.com/pribylovaa/articles-service/internal/storage"
	"github.com/pribylovaa/articles-service/internal/trending"
	"github.com/pribylovaa/articles-service/internal/validator"
	"github.com/pribylovaa/articles-service/pkg/log"
)

// CreateInput — поля новой статьи.
type CreateInput = lifecycle.NewInput

// UpdateInput — частичное обновление; nil-поля не меняются.
type UpdateInput = lifecycle.Patch

// CreateArticle — создание черновика от имени actor.
//
// Поведение/ошибки:
//   - анонимный actor -> models.ErrNotAuthorized;
//   - нарушение ограничений полей -> models.ErrValidation (детали по полям в validation.Errors);
//   - slug подбирается как base, base-2, ...; если свободного нет или его
//     занимают между проверкой и вставкой чаще maxSlugRaces раз -> models.ErrSlugCollision;
//   - прочие ошибки стораджа -> ErrInternal.
func (s *Service) CreateArticle(ctx context.Context, actor models.Identity, in CreateInput) (*models.Article, error) {
	const op = "service/articles/CreateArticle"

	lg := log.Op(ctx, op, slog.String("author_id", actor.UserID.String()))

	if err := requireIdentity(actor); err != nil {
		return nil, s.fail(lg, op, err)
	}

	a, _, err := lifecycle.New(uuid.New(), actor.UserID, in, s.now())
	if err != nil {
		return nil, s.fail(lg, op, err)
	}
	a.Version = 1

	for race := 1; ; race++ {
		a.Slug, err = s.resolveSlug(ctx, a.Title, a.ID)
		if err != nil {
			return nil, s.fail(lg, op, err)
		}

		err = s.storage.CreateArticle(ctx, a)
		if err == nil {
			break
		}

		if !errors.Is(err, storage.ErrConflict) || race == maxSlugRaces {
			return nil, s.fail(lg, op, err)
		}

		lg.Debug("slug_race_retry", slog.String("slug", a.Slug), slog.Int("attempt", race))
	}

	lg.Info("article_created",
		slog.String("article_id", a.ID.String()),
		slog.String("slug", a.Slug),
	)

	return &a, nil
}

// UpdateArticle применяет частичное обновление и (если задан in.Status) переход статуса
// одним шагом: slug, excerpt, reading time и published_at пересчитываются согласованно
// до записи.
//
// Поведение/ошибки:
//   - чужая статья -> models.ErrNotAuthorized; переход вне таблицы -> *models.TransitionError;
//   - новый заголовок до первой публикации -> новый уникальный slug;
//   - после записи опубликованная статья попадает в индекс, снятая с публикации — удаляется из него.
func (s *Service) UpdateArticle(ctx context.Context, actor models.Identity, id uuid.UUID, in UpdateInput) (*models.Article, error) {
	const op = "service/articles/UpdateArticle"

	lg := log.Op(ctx, op,
		slog.String("article_id", id.String()),
		slog.String("actor_id", actor.UserID.String()),
	)

	if err := requireIdentity(actor); err != nil {
		return nil, s.fail(lg, op, err)
	}

	if in.Status != nil && !in.Status.Valid() {
		return nil, s.fail(lg, op, fmt.Errorf("status %q: %w", *in.Status, ErrInvalidArgument))
	}

	var (
		action  lifecycle.Action
		derived lifecycle.Derived
	)

	write := func(a *models.Article) error {
		var err error
		derived, action, err = lifecycle.ApplyUpdate(a, in, actor, s.now())
		if err != nil {
			return err
		}

		if derived.NeedsSlug {
			if a.Slug, err = s.resolveSlug(ctx, a.Title, a.ID); err != nil {
				return err
			}
		}

		return nil
	}

	a, err := s.writeWithSlugRetry(ctx, id, write)
	if err != nil {
		return nil, s.fail(lg, op, err)
	}

	if action != "" {
		metrics.ObserveTransition(string(action))
	}

	s.afterWrite(ctx, a, derived.Published)

	lg.Info("article_updated",
		slog.String("status", string(a.Status)),
		slog.String("action", string(action)),
		slog.Bool("content_changed", derived.ContentChanged),
		slog.Int64("version", a.Version),
	)

	out := visible(*a, actor)

	return &out, nil
}

// TransitionStatus выполняет один переход статуса по таблице lifecycle.Transition.
// Переход в текущий статус — тоже *models.TransitionError.
func (s *Service) TransitionStatus(ctx context.Context, actor models.Identity, id uuid.UUID, to models.Status, reason string) (*models.Article, error) {
	const op = "service/articles/TransitionStatus"

	lg := log.Op(ctx, op,
		slog.String("article_id", id.String()),
		slog.String("actor_id", actor.UserID.String()),
		slog.String("to", string(to)),
	)

	if err := requireIdentity(actor); err != nil {
		return nil, s.fail(lg, op, err)
	}

	if !to.Valid() {
		return nil, s.fail(lg, op, fmt.Errorf("status %q: %w", to, ErrInvalidArgument))
	}

	var (
		action    lifecycle.Action
		published bool
	)

	a, err := s.mutate(ctx, id, func(a *models.Article) error {
		now := s.now()
		prev := a.Clone()

		var err error
		if action, err = lifecycle.Transition(a, to, actor, reason, now); err != nil {
			return err
		}

		published = lifecycle.Recompute(a, &prev, now).Published

		return nil
	})
	if err != nil {
		return nil, s.fail(lg, op, err)
	}

	metrics.ObserveTransition(string(action))
	s.afterWrite(ctx, a, published)

	lg.Info("article_transitioned",
		slog.String("action", string(action)),
		slog.String("status", string(a.Status)),
	)

	out := visible(*a, actor)

	return &out, nil
}

// ArticleByID — статья по id глазами viewer.
// Неопубликованную видят только автор и модераторы; остальным — models.ErrNotFound.
func (s *Service) ArticleByID(ctx context.Context, viewer models.Identity, id uuid.UUID) (*models.Article, error) {
	const op = "service/articles/ArticleByID"

	lg := log.Op(ctx, op, slog.String("article_id", id.String()))

	a, err := s.storage.ArticleByID(ctx, id)
	if err != nil {
		return nil, s.fail(lg, op, err)
	}

	if !readable(a, viewer) {
		return nil, s.fail(lg, op, models.ErrNotFound)
	}

	out := visible(*a, viewer)

	return &out, nil
}

// ArticleBySlug — опубликованная статья по slug; засчитывает просмотр viewerKey
// (см. RecordView). Неопубликованные по slug не отдаются.
func (s *Service) ArticleBySlug(ctx context.Context, viewer models.Identity, slugValue, viewerKey string) (*models.Article, error) {
	const op = "service/articles/ArticleBySlug"

	slugValue = strings.TrimSpace(slugValue)
	lg := log.Op(ctx, op, slog.String("slug", slugValue))

	if slugValue == "" {
		return nil, s.fail(lg, op, fmt.Errorf("empty slug: %w", ErrInvalidArgument))
	}

	a, err := s.storage.ArticleBySlug(ctx, slugValue)
	if err != nil {
		return nil, s.fail(lg, op, err)
	}

	if a.Status != models.StatusPublished {
		return nil, s.fail(lg, op, models.ErrNotFound)
	}

	counted, views, err := s.RecordView(ctx, a.ID, viewerKey)
	if err != nil {
		return nil, err
	}

	if counted {
		a.Views = views
	}

	out := visible(*a, viewer)

	return &out, nil
}

// SetFeatured — модератор помечает статью как избранную и задаёт приоритет среди избранных.
func (s *Service) SetFeatured(ctx context.Context, actor models.Identity, id uuid.UUID, featured bool, priority int) (*models.Article, error) {
	const op = "service/articles/SetFeatured"

	lg := log.Op(ctx, op,
		slog.String("article_id", id.String()),
		slog.Bool("featured", featured),
		slog.Int("priority", priority),
	)

	if !actor.IsModerator() {
		return nil, s.fail(lg, op, fmt.Errorf("set featured: %w", models.ErrNotAuthorized))
	}

	a, err := s.mutate(ctx, id, func(a *models.Article) error {
		a.IsFeatured = featured
		a.Priority = priority
		if !featured {
			a.Priority = 0
		}
		a.UpdatedAt = s.now().UTC()

		return nil
	})
	if err != nil {
		return nil, s.fail(lg, op, err)
	}

	lg.Info("article_featured_set")

	return a, nil
}

// SetAdminNotes — модератор сохраняет служебные заметки (не длиннее 500 символов).
func (s *Service) SetAdminNotes(ctx context.Context, actor models.Identity, id uuid.UUID, notes string) (*models.Article, error) {
	const op = "service/articles/SetAdminNotes"

	lg := log.Op(ctx, op, slog.String("article_id", id.String()))

	if !actor.IsModerator() {
		return nil, s.fail(lg, op, fmt.Errorf("set admin notes: %w", models.ErrNotAuthorized))
	}

	notes = strings.TrimSpace(notes)
	a, err := s.mutate(ctx, id, func(a *models.Article) error {
		prev := a.Clone()
		a.AdminNotes = notes
		lifecycle.Recompute(a, &prev, s.now())

		return validator.Article(a)
	})
	if err != nil {
		return nil, s.fail(lg, op, err)
	}

	lg.Info("admin_notes_set", slog.Int("length", len([]rune(notes))))

	return a, nil
}

// resolveSlug подбирает свободный slug для title; своя статья (id) не считается коллизией.
func (s *Service) resolveSlug(ctx context.Context, title string, id uuid.UUID) (string, error) {
	exists := func(ctx context.Context, candidate string) (bool, error) {
		return s.storage.SlugExists(ctx, candidate, id)
	}

	v, err := slug.Resolve(ctx, title, exists, s.cfg.Slug.MaxAttempts)
	if errors.Is(err, slug.ErrExhausted) {
		return "", fmt.Errorf("%w: %w", models.ErrSlugCollision, err)
	}

	return v, err
}

// writeWithSlugRetry — mutate, повторяемый, если выбранный slug успели занять до записи.
func (s *Service) writeWithSlugRetry(ctx context.Context, id uuid.UUID, fn func(a *models.Article) error) (*models.Article, error) {
	for race := 1; ; race++ {
		a, err := s.mutate(ctx, id, fn)
		if err == nil || !errors.Is(err, storage.ErrConflict) || race == maxSlugRaces {
			return a, err
		}

		log.From(ctx).Debug("slug_race_retry", slog.String("article_id", id.String()), slog.Int("attempt", race))
	}
}

// afterWrite синхронизирует производные хранилища после записи документа:
// поисковый индекс и, при первой публикации, trending_score.
// Ошибки здесь не отменяют уже выполненную запись — только логируются.
func (s *Service) afterWrite(ctx context.Context, a *models.Article, published bool) {
	if published {
		s.refreshTrending(ctx, a)
	}

	if s.searcher == nil {
		return
	}

	if err := s.searcher.Put(ctx, *a); err != nil {
		log.From(ctx).Warn("search_index_sync_failed",
			slog.String("article_id", a.ID.String()),
			slog.String("err", err.Error()),
		)
	}
}

// refreshTrending пересчитывает и точечно сохраняет trending_score опубликованной статьи.
func (s *Service) refreshTrending(ctx context.Context, a *models.Article) {
	if a.Status != models.StatusPublished {
		return
	}

	score := trending.ForArticle(a, s.now())
	if err := s.storage.SetTrendingScore(ctx, a.ID, score); err != nil {
		log.From(ctx).Warn("trending_refresh_failed",
			slog.String("article_id", a.ID.String()),
			slog.String("err", err.Error()),
		)
		return
	}

	a.TrendingScore = score
}
