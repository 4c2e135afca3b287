// service содержит бизнес-логику articles-сервиса: сценарии поверх ядра
// (lifecycle/engagement/trending/ranking), хранилища и поискового индекса.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/articles-service/internal/cache"
	"github.com/pribylovaa/articles-service/internal/config"
	"github.com/pribylovaa/articles-service/internal/models"
	"github.com/pribylovaa/articles-service/internal/search"
	"github.com/pribylovaa/articles-service/internal/storage"
	"github.com/pribylovaa/articles-service/pkg/log"
)

var (
	// ErrInvalidArgument — неверные входные параметры запроса к сервису.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConcurrentUpdate — документ так и не удалось записать из-за конкурентных правок.
	ErrConcurrentUpdate = errors.New("concurrent update")
	// ErrInternal — внутренняя ошибка (стораж/индекс/кэш и т.д.).
	ErrInternal = errors.New("internal")
)

const (
	// maxWriteAttempts — попыток read-modify-write при конфликте версий.
	maxWriteAttempts = 5
	// maxSlugRaces — повторов подбора slug, если его заняли между проверкой и записью.
	maxSlugRaces = 3
)

// Searcher — внешний полнотекстовый индекс (search.Index).
// Если не задан, поиск выполняет хранилище.
type Searcher interface {
	Put(ctx context.Context, a models.Article) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, q models.SearchQuery, limit int) (search.Hits, error)
	IndexFromStorage(ctx context.Context, st storage.Storage) (int, error)
}

// Service — описывает бизнес-логику articles-service.
type Service struct {
	storage  storage.Storage
	cfg      config.Config
	searcher Searcher
	views    cache.ViewGuard
	now      func() time.Time
}

// Option — необязательная зависимость сервиса.
type Option func(*Service)

// WithSearcher подключает внешний поисковый индекс.
func WithSearcher(sr Searcher) Option {
	return func(s *Service) { s.searcher = sr }
}

// WithViewGuard включает дедупликацию просмотров.
func WithViewGuard(g cache.ViewGuard) Option {
	return func(s *Service) { s.views = g }
}

// WithClock подменяет источник времени (тесты).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New создает новый экземпляр Service.
func New(storage storage.Storage, cfg config.Config, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		cfg:     cfg,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// mutate — read-modify-write одного документа с оптимистичной блокировкой.
// fn меняет копию, прочитанную из хранилища; при ErrVersionConflict документ
// перечитывается и fn применяется заново (до maxWriteAttempts раз).
// Ошибка fn прерывает цикл и возвращается как есть.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(a *models.Article) error) (*models.Article, error) {
	for attempt := 1; ; attempt++ {
		a, err := s.storage.ArticleByID(ctx, id)
		if err != nil {
			return nil, err
		}

		expected := a.Version
		if err := fn(a); err != nil {
			return nil, err
		}

		err = s.storage.UpdateArticle(ctx, *a, expected)
		if err == nil {
			a.Version = expected + 1
			return a, nil
		}

		if !errors.Is(err, storage.ErrVersionConflict) {
			return nil, err
		}

		if attempt == maxWriteAttempts {
			return nil, fmt.Errorf("%w: %w", ErrConcurrentUpdate, err)
		}

		log.From(ctx).Debug("version_conflict_retry",
			slog.String("article_id", id.String()),
			slog.Int("attempt", attempt),
		)
	}
}

// fail переводит ошибку нижних слоёв в ошибку сервиса и логирует её.
// Доменные ошибки (models.Err*) и ошибки контекста прокидываются как есть.
func (s *Service) fail(lg *slog.Logger, op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		lg.Warn("article_not_found")
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	case errors.Is(err, storage.ErrConflict):
		lg.Warn("slug_conflict", slog.String("err", err.Error()))
		return fmt.Errorf("%s: %w", op, models.ErrSlugCollision)
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrCommentNotFound),
		errors.Is(err, models.ErrNotAuthorized),
		errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrSlugCollision),
		errors.Is(err, ErrInvalidArgument):
		lg.Warn("request_rejected", slog.String("err", err.Error()))
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, ErrConcurrentUpdate):
		lg.Warn("write_attempts_exhausted", slog.String("err", err.Error()))
		return fmt.Errorf("%s: %w", op, ErrConcurrentUpdate)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		lg.Warn("context_done", slog.String("err", err.Error()))
		return fmt.Errorf("%s: %w", op, err)
	default:
		lg.Error("storage_error", slog.String("err", err.Error()))
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}
}

// page нормализует пагинацию по конфигу:
//   - page < 1 -> 1;
//   - limit <= 0 -> cfg.Limits.Default;
//   - limit > max -> cfg.Limits.Max.
func (s *Service) page(p models.PageRequest) models.PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}

	if p.Limit <= 0 {
		p.Limit = s.cfg.Limits.Default
	}

	if s.cfg.Limits.Max > 0 && p.Limit > s.cfg.Limits.Max {
		p.Limit = s.cfg.Limits.Max
	}

	return p
}

// visible отдаёт статью в том виде, в каком её можно показать viewer:
// поля модерации видят только модераторы.
func visible(a models.Article, viewer models.Identity) models.Article {
	if viewer.IsModerator() {
		return a
	}

	return a.Public()
}

// readable — может ли viewer видеть статью вообще: опубликованную видят все,
// остальные статусы — только автор и модераторы.
func readable(a *models.Article, viewer models.Identity) bool {
	return a.Status == models.StatusPublished || viewer.CanManage(a)
}

// requireIdentity — операции записи недоступны анонимам.
func requireIdentity(actor models.Identity) error {
	if actor.IsAnonymous() {
		return fmt.Errorf("anonymous actor: %w", models.ErrNotAuthorized)
	}

	return nil
}
