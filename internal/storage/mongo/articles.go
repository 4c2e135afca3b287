package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pribylovaa/articles-service/internal/models"
	"github.com/pribylovaa/articles-service/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// limitOrDefault приводит запрошенный размер страницы к [1, Max], 0 -> Default.
func (m *Mongo) limitOrDefault(limit int) int {
	if limit <= 0 {
		limit = m.cfg.Limits.Default
	}

	if limit > m.cfg.Limits.Max {
		limit = m.cfg.Limits.Max
	}

	return limit
}

// CreateArticle вставляет документ; дубль _id или slug — storage.ErrConflict.
func (m *Mongo) CreateArticle(ctx context.Context, a models.Article) error {
	const op = "storage/mongo/CreateArticle"

	if _, err := m.articles.InsertOne(ctx, toArticleDoc(&a)); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrConflict)
		}

		return fmt.Errorf("%s: insert: %w", op, err)
	}

	return nil
}

// ArticleByID возвращает документ по идентификатору.
// Если запись не найдена — storage.ErrNotFound.
func (m *Mongo) ArticleByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	const op = "storage/mongo/ArticleByID"

	return m.findOne(ctx, op, bson.D{{Key: "_id", Value: id.String()}})
}

// ArticleBySlug возвращает документ по slug.
// Если запись не найдена — storage.ErrNotFound.
func (m *Mongo) ArticleBySlug(ctx context.Context, slug string) (*models.Article, error) {
	const op = "storage/mongo/ArticleBySlug"

	return m.findOne(ctx, op, bson.D{{Key: "slug", Value: strings.TrimSpace(slug)}})
}

// SlugExists использует уникальный индекс slug; excludeID позволяет статье «занимать» свой slug.
func (m *Mongo) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	const op = "storage/mongo/SlugExists"

	filter := bson.D{{Key: "slug", Value: slug}}
	if excludeID != uuid.Nil {
		filter = append(filter, bson.E{Key: "_id", Value: bson.D{{Key: "$ne", Value: excludeID.String()}}})
	}

	n, err := m.articles.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

// UpdateArticle — условная перезапись по (_id, version).
// views и trending_score не входят в $set: их меняют только точечные $inc/$set,
// поэтому параллельные просмотры не теряются.
func (m *Mongo) UpdateArticle(ctx context.Context, a models.Article, expectedVersion int64) error {
	const op = "storage/mongo/UpdateArticle"

	doc := toArticleDoc(&a)
	doc.Version = expectedVersion + 1

	set := bson.D{
		{Key: "title", Value: doc.Title},
		{Key: "slug", Value: doc.Slug},
		{Key: "content", Value: doc.Content},
		{Key: "excerpt", Value: doc.Excerpt},
		{Key: "excerpt_auto", Value: doc.ExcerptAuto},
		{Key: "status", Value: doc.Status},
		{Key: "tags", Value: doc.Tags},
		{Key: "categories", Value: doc.Categories},
		{Key: "featured_image", Value: doc.FeaturedImage},
		{Key: "seo", Value: doc.SEO},
		{Key: "likes", Value: doc.Likes},
		{Key: "comments", Value: doc.Comments},
		{Key: "reading_time_minutes", Value: doc.ReadingTimeMinutes},
		{Key: "published_at", Value: doc.PublishedAt},
		{Key: "is_featured", Value: doc.IsFeatured},
		{Key: "priority", Value: doc.Priority},
		{Key: "admin_notes", Value: doc.AdminNotes},
		{Key: "rejection_reason", Value: doc.RejectionReason},
		{Key: "updated_at", Value: doc.UpdatedAt},
		{Key: "version", Value: doc.Version},
	}

	filter := bson.D{
		{Key: "_id", Value: doc.ID},
		{Key: "version", Value: expectedVersion},
	}

	res, err := m.articles.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrConflict)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 1 {
		return nil
	}

	// Не совпало: либо документа нет, либо его версия ушла вперёд.
	n, err := m.articles.CountDocuments(ctx, bson.D{{Key: "_id", Value: doc.ID}}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("%s: count: %w", op, err)
	}

	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return fmt.Errorf("%s: %w", op, storage.ErrVersionConflict)
}

// IncrementViews — атомарный $inc views; возвращает новое значение.
func (m *Mongo) IncrementViews(ctx context.Context, id uuid.UUID, n int64) (int64, error) {
	const op = "storage/mongo/IncrementViews"

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.D{{Key: "views", Value: 1}})

	var out struct {
		Views int64 `bson:"views"`
	}

	err := m.articles.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id.String()}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "views", Value: n}}}},
		opts,
	).Decode(&out)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return out.Views, nil
}

// SetTrendingScore — точечный $set trending_score без изменения version.
func (m *Mongo) SetTrendingScore(ctx context.Context, id uuid.UUID, score float64) error {
	const op = "storage/mongo/SetTrendingScore"

	res, err := m.articles.UpdateByID(ctx, id.String(), bson.D{
		{Key: "$set", Value: bson.D{{Key: "trending_score", Value: score}}},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// ListPublished — выборка опубликованных с сортировкой по режиму:
//   - recent: published_at DESC;
//   - trending: trending_score DESC, published_at DESC;
//   - featured: is_featured=true, priority DESC, published_at DESC.
func (m *Mongo) ListPublished(ctx context.Context, q models.ListQuery) (*models.ArticlePage, error) {
	const op = "storage/mongo/ListPublished"

	filter := publishedFilter(q.Filters)

	var sort bson.D
	switch q.Sort {
	case models.SortTrending:
		sort = bson.D{{Key: "trending_score", Value: -1}, {Key: "published_at", Value: -1}, {Key: "_id", Value: 1}}
	case models.SortFeatured:
		filter = append(filter, bson.E{Key: "is_featured", Value: true})
		sort = bson.D{{Key: "priority", Value: -1}, {Key: "published_at", Value: -1}, {Key: "_id", Value: 1}}
	default:
		sort = bson.D{{Key: "published_at", Value: -1}, {Key: "_id", Value: 1}}
	}

	page, err := m.findPage(ctx, filter, options.Find().SetSort(sort), q.Page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return stripModeration(page), nil
}

// SearchPublished — $text по взвешенному индексу, сортировка по textScore, затем published_at DESC.
func (m *Mongo) SearchPublished(ctx context.Context, q models.SearchQuery) (*models.ArticlePage, error) {
	const op = "storage/mongo/SearchPublished"

	text := strings.TrimSpace(q.Text)
	if text == "" {
		return &models.ArticlePage{Page: max(q.Page.Page, 1), Limit: m.limitOrDefault(q.Page.Limit), Items: []models.Article{}}, nil
	}

	filter := append(publishedFilter(q.Filters), bson.E{Key: "$text", Value: bson.D{{Key: "$search", Value: text}}})
	score := bson.D{{Key: "$meta", Value: "textScore"}}

	opts := options.Find().
		SetProjection(bson.D{{Key: "score", Value: score}}).
		SetSort(bson.D{{Key: "score", Value: score}, {Key: "published_at", Value: -1}})

	page, err := m.findPage(ctx, filter, opts, q.Page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return stripModeration(page), nil
}

// ListByAuthor — статьи автора, created_at DESC.
func (m *Mongo) ListByAuthor(ctx context.Context, authorID uuid.UUID, publishedOnly bool, p models.PageRequest) (*models.ArticlePage, error) {
	const op = "storage/mongo/ListByAuthor"

	filter := bson.D{{Key: "author_id", Value: authorID.String()}}
	if publishedOnly {
		filter = append(filter, bson.E{Key: "status", Value: string(models.StatusPublished)})
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})

	page, err := m.findPage(ctx, filter, opts, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

// ListByStatus — статьи в статусе, created_at ASC (очередь модерации).
func (m *Mongo) ListByStatus(ctx context.Context, status models.Status, p models.PageRequest) (*models.ArticlePage, error) {
	const op = "storage/mongo/ListByStatus"

	filter := bson.D{{Key: "status", Value: string(status)}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	page, err := m.findPage(ctx, filter, opts, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

// ArticlesByIDs — документы в порядке ids (порядок выдачи внешнего индекса).
func (m *Mongo) ArticlesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Article, error) {
	const op = "storage/mongo/ArticlesByIDs"

	if len(ids) == 0 {
		return nil, nil
	}

	keys := make(bson.A, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	cur, err := m.articles.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: keys}}}})
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	byID := make(map[uuid.UUID]models.Article, len(ids))
	for cur.Next(ctx) {
		a, err := decode(cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		byID[a.ID] = a
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	out := make([]models.Article, 0, len(byID))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}

	return out, nil
}

// ForEachPublished обходит опубликованные статьи курсором, не загружая выборку целиком.
func (m *Mongo) ForEachPublished(ctx context.Context, fn func(models.Article) error) error {
	const op = "storage/mongo/ForEachPublished"

	cur, err := m.articles.Find(ctx, bson.D{{Key: "status", Value: string(models.StatusPublished)}})
	if err != nil {
		return fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		a, err := decode(cur)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := fn(a); err != nil {
			return err
		}
	}

	if err := cur.Err(); err != nil {
		return fmt.Errorf("%s: cursor: %w", op, err)
	}

	return nil
}

func (m *Mongo) findOne(ctx context.Context, op string, filter bson.D) (*models.Article, error) {
	var doc articleDoc
	if err := m.articles.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a, err := doc.toModel()
	if err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}

	return &a, nil
}

// findPage читает limit+1 документ: лишний означает, что за страницей есть ещё записи.
func (m *Mongo) findPage(ctx context.Context, filter bson.D, opts *options.FindOptions, p models.PageRequest) (*models.ArticlePage, error) {
	p.Limit = m.limitOrDefault(p.Limit)
	if p.Page < 1 {
		p.Page = 1
	}

	opts.SetSkip(int64(p.Offset())).SetLimit(int64(p.Limit + 1))

	cur, err := m.articles.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	defer cur.Close(ctx)

	page := &models.ArticlePage{Page: p.Page, Limit: p.Limit, Items: make([]models.Article, 0, p.Limit)}
	for cur.Next(ctx) {
		if len(page.Items) == p.Limit {
			page.HasMore = true
			break
		}

		a, err := decode(cur)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, a)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("cursor: %w", err)
	}

	return page, nil
}

func decode(cur *mongodriver.Cursor) (models.Article, error) {
	var doc articleDoc
	if err := cur.Decode(&doc); err != nil {
		return models.Article{}, fmt.Errorf("decode: %w", err)
	}

	a, err := doc.toModel()
	if err != nil {
		return models.Article{}, fmt.Errorf("decode: %w", err)
	}

	return a, nil
}

// publishedFilter — status=published плюс $in по тегам/категориям (AND между измерениями).
func publishedFilter(f models.Filters) bson.D {
	filter := bson.D{{Key: "status", Value: string(models.StatusPublished)}}

	if tags := lower(f.Tags); len(tags) > 0 {
		filter = append(filter, bson.E{Key: "tags", Value: bson.D{{Key: "$in", Value: tags}}})
	}

	if cats := lower(f.Categories); len(cats) > 0 {
		filter = append(filter, bson.E{Key: "categories", Value: bson.D{{Key: "$in", Value: cats}}})
	}

	return filter
}

func lower(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}

	return out
}

func stripModeration(p *models.ArticlePage) *models.ArticlePage {
	for i := range p.Items {
		p.Items[i] = p.Items[i].Public()
	}

	return p
}
