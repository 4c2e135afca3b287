package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pribylovaa/articles-service/internal/models"
)

var (
	// ErrNotFound — сущность отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrConflict — конфликт уникальности (slug или id).
	ErrConflict = errors.New("conflict")
	// ErrVersionConflict — документ изменён другим писателем после чтения.
	ErrVersionConflict = errors.New("version conflict")
)

// Storage описывает операции над документами статей.
type Storage interface {
	// CreateArticle вставляет новый документ (Version должен быть 1).
	// Занятый slug или id — ErrConflict.
	CreateArticle(ctx context.Context, a models.Article) error

	// ArticleByID / ArticleBySlug возвращают полный документ.
	// Если запись не найдена — ErrNotFound.
	ArticleByID(ctx context.Context, id uuid.UUID) (*models.Article, error)
	ArticleBySlug(ctx context.Context, slug string) (*models.Article, error)

	// SlugExists — занят ли slug другой статьей (excludeID не учитывается).
	SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)

	// UpdateArticle перезаписывает документ, если сохранённая версия равна expectedVersion;
	// сохранённая версия становится expectedVersion+1.
	// Views и TrendingScore этой операцией не меняются.
	// Возможные ошибки: ErrNotFound, ErrVersionConflict, ErrConflict (slug).
	UpdateArticle(ctx context.Context, a models.Article, expectedVersion int64) error

	// IncrementViews атомарно прибавляет n к views и возвращает новое значение.
	IncrementViews(ctx context.Context, id uuid.UUID, n int64) (int64, error)

	// SetTrendingScore точечно записывает trending_score.
	SetTrendingScore(ctx context.Context, id uuid.UUID, score float64) error

	// ListPublished / SearchPublished — страницы опубликованных статей без полей модерации.
	// Порядок см. пакет ranking; HasMore выставляется, если за страницей есть записи.
	ListPublished(ctx context.Context, q models.ListQuery) (*models.ArticlePage, error)
	SearchPublished(ctx context.Context, q models.SearchQuery) (*models.ArticlePage, error)

	// ListByAuthor — статьи автора, сначала новые (created_at DESC).
	// publishedOnly ограничивает выдачу статусом published.
	ListByAuthor(ctx context.Context, authorID uuid.UUID, publishedOnly bool, p models.PageRequest) (*models.ArticlePage, error)

	// ListByStatus — статьи в статусе status, сначала старые (created_at ASC), удобно для очереди модерации.
	ListByStatus(ctx context.Context, status models.Status, p models.PageRequest) (*models.ArticlePage, error)

	// ArticlesByIDs возвращает найденные документы в порядке ids; отсутствующие пропускаются.
	ArticlesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Article, error)

	// ForEachPublished обходит все опубликованные статьи; ошибка fn прерывает обход.
	ForEachPublished(ctx context.Context, fn func(models.Article) error) error

	// Close закрывает соединения/ресурсы хранилища.
	Close(ctx context.Context) error
}
