package mongo

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/articles-service/internal/config"
	"github.com/pribylovaa/articles-service/internal/models"
	"github.com/pribylovaa/articles-service/internal/storage"
	"github.com/stretchr/testify/require"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// testTimeout — общий дедлайн на операции с БД в тестах.
const testTimeout = 10 * time.Second

// TestMain запускает MongoDB в контейнере один раз на весь пакет тестов.
// Адрес контейнера прокидывается в ENV DATABASE_URL, а каждый тест
// создаёт свою БД с уникальным именем (см. newTestConfig).
func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7.0",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
	}

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start mongo testcontainer: %v\n", err)
		os.Exit(1)
	}

	host, err := mongoC.Host(ctx)
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}

	port, err := mongoC.MappedPort(ctx, "27017/tcp")
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get mapped port: %v\n", err)
		os.Exit(1)
	}

	_ = os.Setenv("DATABASE_URL", fmt.Sprintf("mongodb://%s:%s", host, port.Port()))

	code := m.Run()

	_ = mongoC.Terminate(context.Background())
	os.Exit(code)
}

// newTestConfig создаёт конфиг с отдельной тестовой БД.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("set GO_TEST_INTEGRATION=1 to run MongoDB integration tests")
	}

	baseURL := strings.TrimRight(os.Getenv("DATABASE_URL"), "/")
	if baseURL == "" {
		baseURL = "mongodb://localhost:27017"
	}

	return &config.Config{
		DB:     config.DBConfig{Driver: config.DriverMongo, URL: baseURL + "/articles_test_" + uuid.New().String()},
		Limits: config.LimitsConfig{Default: 2, Max: 100},
	}
}

// mustNewMongo создаёт подключение к тестовой БД и регистрирует очистку по завершении теста.
func mustNewMongo(t *testing.T) *Mongo {
	t.Helper()
	cfg := newTestConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	m, err := New(ctx, cfg)
	require.NoError(t, err, "DATABASE_URL=%s", cfg.DB.URL)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		_ = m.db.Drop(ctx)
		_ = m.Close(ctx)
	})

	return m
}

func testArticle(slug string, status models.Status, created time.Time) models.Article {
	created = created.UTC().Truncate(time.Millisecond)
	a := models.Article{
		ID:                 uuid.New(),
		Title:              "Title " + slug,
		Slug:               slug,
		Content:            strings.Repeat("body text ", 10),
		Excerpt:            "excerpt",
		ExcerptAuto:        true,
		AuthorID:           uuid.New(),
		Status:             status,
		ReadingTimeMinutes: 1,
		CreatedAt:          created,
		UpdatedAt:          created,
		Version:            1,
		AdminNotes:         "internal",
	}
	if status == models.StatusPublished {
		p := created
		a.PublishedAt = &p
	}

	return a
}

func TestDatabaseFromURI(t *testing.T) {
	require.Equal(t, "blog", databaseFromURI("mongodb://localhost:27017/blog?replicaSet=rs0"))
	require.Equal(t, defaultDBName, databaseFromURI("mongodb://localhost:27017"))
	require.Equal(t, defaultDBName, databaseFromURI("::bad"))
}

func TestLimitOrDefault(t *testing.T) {
	m := &Mongo{cfg: &config.Config{Limits: config.LimitsConfig{Default: 10, Max: 50}}}

	require.Equal(t, 10, m.limitOrDefault(0))
	require.Equal(t, 10, m.limitOrDefault(-5))
	require.Equal(t, 25, m.limitOrDefault(25))
	require.Equal(t, 50, m.limitOrDefault(200))
}

func TestDocumentRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	a := testArticle("round", models.StatusPublished, now)
	a.Tags = []string{"go"}
	a.FeaturedImage = &models.Image{URL: "https://img", Alt: "alt"}
	a.Likes = []models.Like{{UserID: uuid.New(), LikedAt: now}}
	root := models.Comment{ID: uuid.New(), UserID: uuid.New(), Content: "root", CreatedAt: now}
	reply := models.Comment{ID: uuid.New(), UserID: uuid.New(), Content: "reply", ParentID: root.ID, CreatedAt: now}
	a.Comments = []models.Comment{root, reply}

	doc := toArticleDoc(&a)
	require.Empty(t, doc.Comments[0].ParentID)
	require.Equal(t, root.ID.String(), doc.Comments[1].ParentID)

	got, err := doc.toModel()
	require.NoError(t, err)
	require.Equal(t, a, got)
}

func TestCreateAndFind(t *testing.T) {
	m := mustNewMongo(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	a := testArticle("hello-world", models.StatusDraft, time.Now())
	require.NoError(t, m.CreateArticle(ctx, a))

	got, err := m.ArticleByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, a.Slug, got.Slug)
	require.Equal(t, a.AuthorID, got.AuthorID)

	got, err = m.ArticleBySlug(ctx, "hello-world")
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)

	_, err = m.ArticleByID(ctx, uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)

	dup := testArticle("hello-world", models.StatusDraft, time.Now())
	require.ErrorIs(t, m.CreateArticle(ctx, dup), storage.ErrConflict)

	exists, err := m.SlugExists(ctx, "hello-world", uuid.Nil)
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = m.SlugExists(ctx, "hello-world", a.ID)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestUpdateArticle_OptimisticLocking(t *testing.T) {
	m := mustNewMongo(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	a := testArticle("versioned", models.StatusPublished, time.Now())
	require.NoError(t, m.CreateArticle(ctx, a))

	views, err := m.IncrementViews(ctx, a.ID, 5)
	require.NoError(t, err)
	require.Equal(t, int64(5), views)
	require.NoError(t, m.SetTrendingScore(ctx, a.ID, 12.5))

	a.Title = "Updated"
	require.NoError(t, m.UpdateArticle(ctx, a, 1))

	got, err := m.ArticleByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "Updated", got.Title)
	require.Equal(t, int64(2), got.Version)
	require.Equal(t, int64(5), got.Views)
	require.Equal(t, 12.5, got.TrendingScore)

	require.ErrorIs(t, m.UpdateArticle(ctx, a, 1), storage.ErrVersionConflict)

	other := testArticle("other", models.StatusDraft, time.Now())
	require.NoError(t, m.CreateArticle(ctx, other))
	other.Slug = "versioned"
	require.ErrorIs(t, m.UpdateArticle(ctx, other, 1), storage.ErrConflict)

	missing := testArticle("missing", models.StatusDraft, time.Now())
	require.ErrorIs(t, m.UpdateArticle(ctx, missing, 1), storage.ErrNotFound)
}

func TestIncrementViews_Concurrent(t *testing.T) {
	m := mustNewMongo(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	a := testArticle("popular", models.StatusPublished, time.Now())
	require.NoError(t, m.CreateArticle(ctx, a))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.IncrementViews(ctx, a.ID, 1)
		}()
	}
	wg.Wait()

	got, err := m.ArticleByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, int64(20), got.Views)
}

func TestListPublished_SortModesAndPaging(t *testing.T) {
	m := mustNewMongo(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	base := time.Now().Add(-time.Hour)
	old := testArticle("old", models.StatusPublished, base)
	old.TrendingScore = 50
	old.IsFeatured = true
	old.Priority = 1
	mid := testArticle("mid", models.StatusPublished, base.Add(10*time.Minute))
	mid.Tags = []string{"go"}
	mid.IsFeatured = true
	mid.Priority = 5
	fresh := testArticle("fresh", models.StatusPublished, base.Add(20*time.Minute))
	fresh.TrendingScore = 10
	draft := testArticle("draft", models.StatusDraft, base.Add(30*time.Minute))

	for _, a := range []models.Article{old, mid, fresh, draft} {
		require.NoError(t, m.CreateArticle(ctx, a))
		require.NoError(t, m.SetTrendingScore(ctx, a.ID, a.TrendingScore))
	}

	page, err := m.ListPublished(ctx, models.ListQuery{Sort: models.SortRecent, Page: models.PageRequest{Page: 1}})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, "fresh", page.Items[0].Slug)
	require.Equal(t, "mid", page.Items[1].Slug)
	require.True(t, page.HasMore)
	require.Empty(t, page.Items[0].AdminNotes)

	page, err = m.ListPublished(ctx, models.ListQuery{Sort: models.SortRecent, Page: models.PageRequest{Page: 2}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.False(t, page.HasMore)

	page, err = m.ListPublished(ctx, models.ListQuery{Sort: models.SortTrending, Page: models.PageRequest{Limit: 10}})
	require.NoError(t, err)
	require.Equal(t, "old", page.Items[0].Slug)
	require.Equal(t, "fresh", page.Items[1].Slug)

	page, err = m.ListPublished(ctx, models.ListQuery{Sort: models.SortFeatured, Page: models.PageRequest{Limit: 10}})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, "mid", page.Items[0].Slug)

	page, err = m.ListPublished(ctx, models.ListQuery{Filters: models.Filters{Tags: []string{"GO"}}, Page: models.PageRequest{Limit: 10}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "mid", page.Items[0].Slug)
}

func TestSearchPublished_TitleOutranksContent(t *testing.T) {
	m := mustNewMongo(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	inContent := testArticle("state", models.StatusPublished, time.Now())
	inContent.Title = "Frontend state"
	inContent.Content = strings.Repeat("react hooks ", 30)
	inTitle := testArticle("hooks", models.StatusPublished, time.Now().Add(-48*time.Hour))
	inTitle.Title = "Understanding React Hooks"
	hidden := testArticle("hidden", models.StatusHidden, time.Now())
	hidden.Title = "React Hooks hidden"

	for _, a := range []models.Article{inContent, inTitle, hidden} {
		require.NoError(t, m.CreateArticle(ctx, a))
	}

	page, err := m.SearchPublished(ctx, models.SearchQuery{Text: "react hooks", Page: models.PageRequest{Limit: 10}})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, "hooks", page.Items[0].Slug)
	require.Equal(t, "state", page.Items[1].Slug)
}

func TestListByAuthorAndStatus(t *testing.T) {
	m := mustNewMongo(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	author := uuid.New()
	base := time.Now().Add(-time.Hour)
	a1 := testArticle("a1", models.StatusPublished, base)
	a1.AuthorID = author
	a2 := testArticle("a2", models.StatusPending, base.Add(time.Minute))
	a2.AuthorID = author
	p := testArticle("p", models.StatusPending, base.Add(2*time.Minute))

	for _, a := range []models.Article{a1, a2, p} {
		require.NoError(t, m.CreateArticle(ctx, a))
	}

	page, err := m.ListByAuthor(ctx, author, false, models.PageRequest{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, "a2", page.Items[0].Slug)

	page, err = m.ListByAuthor(ctx, author, true, models.PageRequest{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	queue, err := m.ListByStatus(ctx, models.StatusPending, models.PageRequest{Limit: 10})
	require.NoError(t, err)
	require.Len(t, queue.Items, 2)
	require.Equal(t, "a2", queue.Items[0].Slug)

	got, err := m.ArticlesByIDs(ctx, []uuid.UUID{p.ID, uuid.New(), a1.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, p.ID, got[0].ID)

	n := 0
	require.NoError(t, m.ForEachPublished(ctx, func(models.Article) error { n++; return nil }))
	require.Equal(t, 1, n)
}
