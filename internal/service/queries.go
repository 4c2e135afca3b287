package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pribylovaa/articles-service/internal/lifecycle"
	"github.com/pribylovaa/articles-service/internal/models"
	"github.com/pribylovaa/articles-service/internal/ranking"
	"github.com/pribylovaa/articles-service/pkg/log"
)

// ListPublished возвращает страницу опубликованных статей.
//
// Правила нормализации:
//   - пустой sort -> recent; неизвестный -> ErrInvalidArgument;
//   - теги/категории фильтра приводятся к lower-case без пустых;
//   - limit/page — см. Service.page.
func (s *Service) ListPublished(ctx context.Context, q models.ListQuery) (*models.ArticlePage, error) {
	const op = "service/queries/ListPublished"

	if q.Sort == "" {
		q.Sort = models.SortRecent
	}

	lg := log.Op(ctx, op, slog.String("sort", string(q.Sort)))

	if !q.Sort.Valid() {
		return nil, s.fail(lg, op, fmt.Errorf("sort %q: %w", q.Sort, ErrInvalidArgument))
	}

	q.Filters = normalizeFilters(q.Filters)
	q.Page = s.page(q.Page)

	lg.Info("list_published_request",
		slog.Int("page", q.Page.Page),
		slog.Int("limit", q.Page.Limit),
		slog.Int("tags", len(q.Filters.Tags)),
		slog.Int("categories", len(q.Filters.Categories)),
	)

	page, err := s.storage.ListPublished(ctx, q)
	if err != nil {
		return nil, s.fail(lg, op, err)
	}

	lg.Info("list_published_ok", slog.Int("items", len(page.Items)), slog.Bool("has_more", page.HasMore))

	return page, nil
}

// SearchPublished — полнотекстовый поиск по опубликованным статьям.
//
// Особенности:
//   - запрос без значимых токенов -> ErrInvalidArgument;
//   - при подключённом Searcher релевантность считает индекс, документы берутся из хранилища;
//     статьи, снятые с публикации после индексации, отбрасываются;
//   - без Searcher поиск выполняет хранилище.
func (s *Service) SearchPublished(ctx context.Context, q models.SearchQuery) (*models.ArticlePage, error) {
	const op = "service/queries/SearchPublished"

	lg := log.Op(ctx, op, slog.String("q", q.Text))

	if len(ranking.QueryTokens(q.Text)) == 0 {
		return nil, s.fail(lg, op, fmt.Errorf("empty query: %w", ErrInvalidArgument))
	}

	q.Filters = normalizeFilters(q.Filters)
	q.Page = s.page(q.Page)

	lg.Info("search_published_request",
		slog.Int("page", q.Page.Page),
		slog.Int("limit", q.Page.Limit),
		slog.Bool("index", s.searcher != nil),
	)

	if s.searcher == nil {
		page, err := s.storage.SearchPublished(ctx, q)
		if err != nil {
			return nil, s.fail(lg, op, err)
		}

		lg.Info("search_published_ok", slog.Int("items", len(page.Items)))

		return page, nil
	}

	hits, err := s.searcher.Search(ctx, q, q.Page.Limit)
	if err != nil {
		return nil, s.fail(lg, op, err)
	}

	docs, err := s.storage.ArticlesByIDs(ctx, hits.IDs)
	if err != nil {
		return nil, s.fail(lg, op, err)
	}

	page := &models.ArticlePage{
		Items:   make([]models.Article, 0, len(docs)),
		Page:    q.Page.Page,
		Limit:   q.Page.Limit,
		HasMore: hits.HasMore,
	}
	for _, a := range docs {
		if a.Status == models.StatusPublished {
			page.Items = append(page.Items, a.Public())
		}
	}

	lg.Info("search_published_ok", slog.Int("items", len(page.Items)), slog.Int("hits", len(hits.IDs)))

	return page, nil
}

// ListByAuthor — статьи автора. Сам автор и модераторы видят все статусы,
// остальные — только опубликованные.
func (s *Service) ListByAuthor(ctx context.Context, viewer models.Identity, authorID uuid.UUID, p models.PageRequest) (*models.ArticlePage, error) {
	const op = "service/queries/ListByAuthor"

	lg := log.Op(ctx, op, slog.String("author_id", authorID.String()))

	if authorID == uuid.Nil {
		return nil, s.fail(lg, op, fmt.Errorf("empty author_id: %w", ErrInvalidArgument))
	}

	publishedOnly := viewer.IsAnonymous() || (viewer.UserID != authorID && !viewer.IsModerator())

	page, err := s.storage.ListByAuthor(ctx, authorID, publishedOnly, s.page(p))
	if err != nil {
		return nil, s.fail(lg, op, err)
	}

	for i := range page.Items {
		page.Items[i] = visible(page.Items[i], viewer)
	}

	return page, nil
}

// ModerationQueue — статьи, ожидающие модерации (pending), старые первыми.
func (s *Service) ModerationQueue(ctx context.Context, actor models.Identity, p models.PageRequest) (*models.ArticlePage, error) {
	const op = "service/queries/ModerationQueue"

	lg := log.Op(ctx, op, slog.String("actor_id", actor.UserID.String()))

	if !actor.IsModerator() {
		return nil, s.fail(lg, op, fmt.Errorf("moderation queue: %w", models.ErrNotAuthorized))
	}

	page, err := s.storage.ListByStatus(ctx, models.StatusPending, s.page(p))
	if err != nil {
		return nil, s.fail(lg, op, err)
	}

	lg.Info("moderation_queue_ok", slog.Int("items", len(page.Items)))

	return page, nil
}

func normalizeFilters(f models.Filters) models.Filters {
	return models.Filters{
		Tags:       lifecycle.NormalizeTerms(f.Tags),
		Categories: lifecycle.NormalizeTerms(f.Categories),
	}
}
