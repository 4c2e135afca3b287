package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pribylovaa/articles-service/internal/config"
	"github.com/pribylovaa/articles-service/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	articlesCollection = "articles"
	defaultDBName      = "articles"
)

// Mongo - тонкий адаптер для подключения и коллекций MongoDB.
type Mongo struct {
	cfg      *config.Config
	client   *mongodriver.Client
	db       *mongodriver.Database
	articles *mongodriver.Collection
}

var _ storage.Storage = (*Mongo)(nil)

// New подключается к MongoDB, проверяет его, подготавливает коллекции и обеспечивает индексацию.
func New(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mongo: nil config")
	}

	if cfg.DB.URL == "" {
		return nil, fmt.Errorf("mongo: empty cfg.DB.URL")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(cfg.DB.URL))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := cli.Database(databaseFromURI(cfg.DB.URL))

	m := &Mongo{
		cfg:      cfg,
		client:   cli,
		db:       db,
		articles: db.Collection(articlesCollection),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Ping — проверка готовности для /healthz.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// ensureIndexes создает индексы, необходимые для службы статей.
// - уникальный slug (глобальная уникальность обеспечивается хранилищем);
// - текстовый индекс с весами title 10, excerpt 5, tags 3, categories 2, content 1;
// - выборки опубликованных: status + published_at / trending_score / is_featured+priority;
// - списки автора и очередь модерации.
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	models := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("slug_unique").SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "excerpt", Value: "text"},
				{Key: "tags", Value: "text"},
				{Key: "categories", Value: "text"},
				{Key: "content", Value: "text"},
			},
			Options: options.Index().
				SetName("articles_text").
				SetDefaultLanguage("none").
				SetWeights(bson.D{
					{Key: "title", Value: 10},
					{Key: "excerpt", Value: 5},
					{Key: "tags", Value: 3},
					{Key: "categories", Value: 2},
					{Key: "content", Value: 1},
				}),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "published_at", Value: -1}},
			Options: options.Index().SetName("status_published_desc"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "trending_score", Value: -1}, {Key: "published_at", Value: -1}},
			Options: options.Index().SetName("status_trending_desc"),
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "is_featured", Value: 1},
				{Key: "priority", Value: -1},
				{Key: "published_at", Value: -1},
			},
			Options: options.Index().SetName("status_featured_priority_desc"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "tags", Value: 1}},
			Options: options.Index().SetName("status_tags"),
		},
		{
			Keys:    bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("author_created_desc"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("status_created_asc"),
		},
	}

	_, err := m.articles.Indexes().CreateMany(ctx, models)
	if err != nil {
		return fmt.Errorf("mongo ensure indexes: %w", err)
	}

	return nil
}

// databaseFromURI извлекает имя базы данных из URI-пути mongodb.
// Если оно отсутствует или не поддается расшифровке, возвращает разумное значение по умолчанию.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}

	return defaultDBName
}
