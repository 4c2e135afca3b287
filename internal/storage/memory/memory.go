// Package memory — хранилище статей в памяти процесса (db.driver: memory и тесты).
// Записи по одному документу сериализуются мьютексом; наружу отдаются только копии.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/pribylovaa/articles-service/internal/models"
	"github.com/pribylovaa/articles-service/internal/ranking"
	"github.com/pribylovaa/articles-service/internal/storage"
)

// Memory — потокобезопасная реализация storage.Storage.
type Memory struct {
	mu       sync.RWMutex
	articles map[uuid.UUID]*models.Article
	slugs    map[string]uuid.UUID
}

var _ storage.Storage = (*Memory)(nil)

// New создаёт пустое хранилище.
func New() *Memory {
	return &Memory{
		articles: make(map[uuid.UUID]*models.Article),
		slugs:    make(map[string]uuid.UUID),
	}
}

func (m *Memory) CreateArticle(_ context.Context, a models.Article) error {
	const op = "storage/memory/CreateArticle"

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.articles[a.ID]; ok {
		return fmt.Errorf("%s: id %s: %w", op, a.ID, storage.ErrConflict)
	}

	if _, ok := m.slugs[a.Slug]; ok {
		return fmt.Errorf("%s: slug %q: %w", op, a.Slug, storage.ErrConflict)
	}

	doc := a.Clone()
	m.articles[a.ID] = &doc
	m.slugs[a.Slug] = a.ID

	return nil
}

func (m *Memory) ArticleByID(_ context.Context, id uuid.UUID) (*models.Article, error) {
	const op = "storage/memory/ArticleByID"

	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.articles[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	out := doc.Clone()

	return &out, nil
}

func (m *Memory) ArticleBySlug(_ context.Context, slug string) (*models.Article, error) {
	const op = "storage/memory/ArticleBySlug"

	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.slugs[slug]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	out := m.articles[id].Clone()

	return &out, nil
}

func (m *Memory) SlugExists(_ context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.slugs[slug]

	return ok && id != excludeID, nil
}

func (m *Memory) UpdateArticle(_ context.Context, a models.Article, expectedVersion int64) error {
	const op = "storage/memory/UpdateArticle"

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.articles[a.ID]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	if cur.Version != expectedVersion {
		return fmt.Errorf("%s: have %d, want %d: %w", op, cur.Version, expectedVersion, storage.ErrVersionConflict)
	}

	if owner, ok := m.slugs[a.Slug]; ok && owner != a.ID {
		return fmt.Errorf("%s: slug %q: %w", op, a.Slug, storage.ErrConflict)
	}

	doc := a.Clone()
	doc.Views = cur.Views
	doc.TrendingScore = cur.TrendingScore
	doc.Version = expectedVersion + 1

	if cur.Slug != doc.Slug {
		delete(m.slugs, cur.Slug)
		m.slugs[doc.Slug] = doc.ID
	}
	m.articles[a.ID] = &doc

	return nil
}

func (m *Memory) IncrementViews(_ context.Context, id uuid.UUID, n int64) (int64, error) {
	const op = "storage/memory/IncrementViews"

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.articles[id]
	if !ok {
		return 0, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	doc.Views += n

	return doc.Views, nil
}

func (m *Memory) SetTrendingScore(_ context.Context, id uuid.UUID, score float64) error {
	const op = "storage/memory/SetTrendingScore"

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.articles[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	doc.TrendingScore = score

	return nil
}

func (m *Memory) ListPublished(_ context.Context, q models.ListQuery) (*models.ArticlePage, error) {
	page := ranking.List(m.snapshot(nil), q)

	return &page, nil
}

func (m *Memory) SearchPublished(_ context.Context, q models.SearchQuery) (*models.ArticlePage, error) {
	page := ranking.Search(m.snapshot(nil), q)

	return &page, nil
}

func (m *Memory) ListByAuthor(_ context.Context, authorID uuid.UUID, publishedOnly bool, p models.PageRequest) (*models.ArticlePage, error) {
	items := m.snapshot(func(a *models.Article) bool {
		if a.AuthorID != authorID {
			return false
		}
		return !publishedOnly || a.Status == models.StatusPublished
	})

	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })

	return page(items, p), nil
}

func (m *Memory) ListByStatus(_ context.Context, status models.Status, p models.PageRequest) (*models.ArticlePage, error) {
	items := m.snapshot(func(a *models.Article) bool { return a.Status == status })

	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })

	return page(items, p), nil
}

func (m *Memory) ArticlesByIDs(_ context.Context, ids []uuid.UUID) ([]models.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Article, 0, len(ids))
	for _, id := range ids {
		if doc, ok := m.articles[id]; ok {
			out = append(out, doc.Clone())
		}
	}

	return out, nil
}

func (m *Memory) ForEachPublished(ctx context.Context, fn func(models.Article) error) error {
	items := m.snapshot(func(a *models.Article) bool { return a.Status == models.StatusPublished })

	for _, a := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := fn(a); err != nil {
			return err
		}
	}

	return nil
}

func (m *Memory) Close(context.Context) error { return nil }

// snapshot копирует документы под RLock; keep == nil — все документы.
func (m *Memory) snapshot(keep func(*models.Article) bool) []models.Article {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Article, 0, len(m.articles))
	for _, doc := range m.articles {
		if keep == nil || keep(doc) {
			out = append(out, doc.Clone())
		}
	}

	// порядок map случаен, стабилизируем до сортировок
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })

	return out
}

// page режет страницу без снятия полей модерации: списки автора и очереди
// отдаются сервису целиком, он сам решает, что показать.
func page(items []models.Article, p models.PageRequest) *models.ArticlePage {
	if p.Page < 1 {
		p.Page = 1
	}

	out := &models.ArticlePage{Page: p.Page, Limit: p.Limit, Items: []models.Article{}}

	start, end := 0, len(items)
	if p.Limit > 0 {
		start = min(p.Offset(), len(items))
		end = min(start+p.Limit, len(items))
	}

	out.HasMore = end < len(items)
	out.Items = append(out.Items, items[start:end]...)

	return out
}
