package service

// Тесты сервисного слоя articles-service.
//
//  Проверяем:
//  - маппинг ошибок storage -> service (NotFound / SlugCollision / ConcurrentUpdate / Internal);
//  - цикл оптимистичной блокировки (повтор на ErrVersionConflict, предел попыток);
//  - сценарии на memory-хранилище: создание, slug-коллизии, модерация, лайки, комментарии,
//    просмотры, выдачи и sweep;
//  - конкурентные лайки разных пользователей не теряются.
//
// Подготовка окружения:
//   mockgen -source=./internal/storage/storage.go -destination=./mocks/storage.go -package=mocks
//   mockgen -source=./internal/cache/cache.go -destination=./mocks/cache.go -package=mocks
//   go test ./internal/service -v -race -count=1

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/articles-service/internal/config"
	"github.com/pribylovaa/articles-service/internal/models"
	"github.com/pribylovaa/articles-service/internal/search"
	"github.com/pribylovaa/articles-service/internal/storage"
	"github.com/pribylovaa/articles-service/internal/storage/memory"
	"github.com/pribylovaa/articles-service/mocks"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func testConfig() config.Config {
	var cfg config.Config
	cfg.Limits.Default = 20
	cfg.Limits.Max = 100
	cfg.Slug.MaxAttempts = 20
	cfg.Trending.SweepInterval = time.Minute

	return cfg
}

// clock — управляемое время для тестов.
type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

// newServiceWithMocks — поднимает сервис с моками стораджа.
func newServiceWithMocks(t *testing.T) (*Service, *mocks.MockStorage) {
	t.Helper()
	ctrl := gomock.NewController(t)
	ms := mocks.NewMockStorage(ctrl)

	return New(ms, testConfig(), WithClock(func() time.Time { return t0 })), ms
}

// newMemoryService — сервис на memory-хранилище с управляемыми часами.
func newMemoryService(t *testing.T, opts ...Option) (*Service, *memory.Memory, *clock) {
	t.Helper()
	st := memory.New()
	c := &clock{now: t0}

	return New(st, testConfig(), append([]Option{WithClock(c.Now)}, opts...)...), st, c
}

func body(words int) string {
	return strings.TrimSpace(strings.Repeat("lorem ipsum ", words/2))
}

var (
	author    = models.Identity{UserID: uuid.New(), Role: models.RoleUser}
	moderator = models.Identity{UserID: uuid.New(), Role: models.RoleModerator}
	reader    = models.Identity{UserID: uuid.New(), Role: models.RoleUser}
)

// publish — создаёт статью и проводит её через модерацию.
func publish(t *testing.T, s *Service, title string, tags ...string) *models.Article {
	t.Helper()
	ctx := context.Background()

	a, err := s.CreateArticle(ctx, author, CreateInput{Title: title, Content: body(400), Tags: tags})
	require.NoError(t, err)

	_, err = s.TransitionStatus(ctx, author, a.ID, models.StatusPending, "")
	require.NoError(t, err)

	a, err = s.TransitionStatus(ctx, moderator, a.ID, models.StatusPublished, "")
	require.NoError(t, err)

	return a
}

func TestMutate_RetriesOnVersionConflict(t *testing.T) {
	s, ms := newServiceWithMocks(t)
	id := uuid.New()

	gomock.InOrder(
		ms.EXPECT().ArticleByID(gomock.Any(), id).Return(&models.Article{ID: id, Version: 3}, nil),
		ms.EXPECT().UpdateArticle(gomock.Any(), gomock.Any(), int64(3)).Return(storage.ErrVersionConflict),
		ms.EXPECT().ArticleByID(gomock.Any(), id).Return(&models.Article{ID: id, Version: 4}, nil),
		ms.EXPECT().UpdateArticle(gomock.Any(), gomock.Any(), int64(4)).Return(nil),
	)

	calls := 0
	a, err := s.mutate(context.Background(), id, func(a *models.Article) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Equal(t, int64(5), a.Version)
}

func TestMutate_GivesUpAfterMaxAttempts(t *testing.T) {
	s, ms := newServiceWithMocks(t)
	id := uuid.New()

	ms.EXPECT().ArticleByID(gomock.Any(), id).Return(&models.Article{ID: id, Version: 1}, nil).Times(maxWriteAttempts)
	ms.EXPECT().UpdateArticle(gomock.Any(), gomock.Any(), int64(1)).Return(storage.ErrVersionConflict).Times(maxWriteAttempts)

	_, err := s.mutate(context.Background(), id, func(*models.Article) error { return nil })
	require.ErrorIs(t, err, ErrConcurrentUpdate)
}

func TestMutate_FnErrorStopsWithoutWrite(t *testing.T) {
	s, ms := newServiceWithMocks(t)
	id := uuid.New()

	ms.EXPECT().ArticleByID(gomock.Any(), id).Return(&models.Article{ID: id, Version: 1}, nil)

	boom := errors.New("boom")
	_, err := s.mutate(context.Background(), id, func(*models.Article) error { return boom })
	require.ErrorIs(t, err, boom)
}

func TestService_StorageErrorMapping(t *testing.T) {
	s, ms := newServiceWithMocks(t)
	ctx := context.Background()
	id := uuid.New()

	ms.EXPECT().ArticleByID(gomock.Any(), id).Return(nil, storage.ErrNotFound)
	_, err := s.ArticleByID(ctx, reader, id)
	require.ErrorIs(t, err, models.ErrNotFound)

	ms.EXPECT().ArticleByID(gomock.Any(), id).Return(nil, errors.New("connection reset"))
	_, err = s.ArticleByID(ctx, reader, id)
	require.ErrorIs(t, err, ErrInternal)

	ms.EXPECT().ArticleByID(gomock.Any(), id).Return(nil, context.DeadlineExceeded)
	_, err = s.ArticleByID(ctx, reader, id)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestService_CreateArticle_SlugRaceRetried(t *testing.T) {
	s, ms := newServiceWithMocks(t)

	ms.EXPECT().SlugExists(gomock.Any(), "hello-world", gomock.Any()).Return(false, nil)
	ms.EXPECT().SlugExists(gomock.Any(), "hello-world", gomock.Any()).Return(true, nil)
	ms.EXPECT().SlugExists(gomock.Any(), "hello-world-2", gomock.Any()).Return(false, nil)
	gomock.InOrder(
		ms.EXPECT().CreateArticle(gomock.Any(), gomock.Any()).Return(storage.ErrConflict),
		ms.EXPECT().CreateArticle(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, a models.Article) error {
			require.Equal(t, "hello-world-2", a.Slug)
			require.Equal(t, int64(1), a.Version)
			return nil
		}),
	)

	a, err := s.CreateArticle(context.Background(), author, CreateInput{Title: "Hello World", Content: body(100)})
	require.NoError(t, err)
	require.Equal(t, "hello-world-2", a.Slug)
}

func TestService_CreateArticle_SlugRaceExhausted(t *testing.T) {
	s, ms := newServiceWithMocks(t)

	ms.EXPECT().SlugExists(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil).Times(maxSlugRaces)
	ms.EXPECT().CreateArticle(gomock.Any(), gomock.Any()).Return(storage.ErrConflict).Times(maxSlugRaces)

	_, err := s.CreateArticle(context.Background(), author, CreateInput{Title: "Hello", Content: body(100)})
	require.ErrorIs(t, err, models.ErrSlugCollision)
}

func TestService_CreateArticle_Validation(t *testing.T) {
	s, _ := newServiceWithMocks(t)
	ctx := context.Background()

	_, err := s.CreateArticle(ctx, models.Identity{}, CreateInput{Title: "T", Content: body(100)})
	require.ErrorIs(t, err, models.ErrNotAuthorized)

	_, err = s.CreateArticle(ctx, author, CreateInput{Title: "T", Content: "short"})
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestService_CreateArticle_UniqueSlugs(t *testing.T) {
	s, _, _ := newMemoryService(t)
	ctx := context.Background()

	a1, err := s.CreateArticle(ctx, author, CreateInput{Title: "Hello, World! 2024", Content: body(400)})
	require.NoError(t, err)
	a2, err := s.CreateArticle(ctx, author, CreateInput{Title: "Hello World 2024", Content: body(400)})
	require.NoError(t, err)

	require.Equal(t, "hello-world-2024", a1.Slug)
	require.Equal(t, "hello-world-2024-2", a2.Slug)
	require.Equal(t, models.StatusDraft, a1.Status)
	require.Equal(t, 2, a1.ReadingTimeMinutes)
}

func TestService_CreateArticle_SlugCandidatesExhausted(t *testing.T) {
	s, _, _ := newMemoryService(t)
	s.cfg.Slug.MaxAttempts = 2
	ctx := context.Background()

	for range 2 {
		_, err := s.CreateArticle(ctx, author, CreateInput{Title: "Same", Content: body(100)})
		require.NoError(t, err)
	}

	_, err := s.CreateArticle(ctx, author, CreateInput{Title: "Same", Content: body(100)})
	require.ErrorIs(t, err, models.ErrSlugCollision)
}

func TestService_UpdateArticle_SlugFollowsTitleUntilPublished(t *testing.T) {
	s, st, _ := newMemoryService(t)
	ctx := context.Background()

	a, err := s.CreateArticle(ctx, author, CreateInput{Title: "Draft title", Content: body(100)})
	require.NoError(t, err)

	title := "Better title"
	a, err = s.UpdateArticle(ctx, author, a.ID, UpdateInput{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "better-title", a.Slug)
	require.Equal(t, int64(2), a.Version)

	_, err = st.ArticleBySlug(ctx, "draft-title")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.TransitionStatus(ctx, author, a.ID, models.StatusPending, "")
	require.NoError(t, err)
	_, err = s.TransitionStatus(ctx, moderator, a.ID, models.StatusPublished, "")
	require.NoError(t, err)

	renamed := "Renamed after publish"
	a, err = s.UpdateArticle(ctx, author, a.ID, UpdateInput{Title: &renamed})
	require.NoError(t, err)
	require.Equal(t, "better-title", a.Slug)
	require.Equal(t, renamed, a.Title)
}

func TestService_UpdateArticle_StrangerAndBadStatus(t *testing.T) {
	s, _, _ := newMemoryService(t)
	ctx := context.Background()

	a, err := s.CreateArticle(ctx, author, CreateInput{Title: "Mine", Content: body(100)})
	require.NoError(t, err)

	title := "hijack"
	_, err = s.UpdateArticle(ctx, reader, a.ID, UpdateInput{Title: &title})
	require.ErrorIs(t, err, models.ErrNotAuthorized)

	bad := models.Status("archived")
	_, err = s.UpdateArticle(ctx, author, a.ID, UpdateInput{Status: &bad})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.UpdateArticle(ctx, author, uuid.New(), UpdateInput{Title: &title})
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestService_TransitionStatus(t *testing.T) {
	s, _, c := newMemoryService(t)
	ctx := context.Background()

	a, err := s.CreateArticle(ctx, author, CreateInput{Title: "Flow", Content: body(100)})
	require.NoError(t, err)

	_, err = s.TransitionStatus(ctx, moderator, a.ID, models.StatusPublished, "")
	var te *models.TransitionError
	require.ErrorAs(t, err, &te)
	require.Equal(t, models.StatusDraft, te.From)

	_, err = s.TransitionStatus(ctx, author, a.ID, models.StatusPending, "")
	require.NoError(t, err)

	_, err = s.TransitionStatus(ctx, author, a.ID, models.StatusPublished, "")
	require.ErrorIs(t, err, models.ErrNotAuthorized)

	a, err = s.TransitionStatus(ctx, moderator, a.ID, models.StatusPublished, "")
	require.NoError(t, err)
	require.Equal(t, t0, *a.PublishedAt)

	c.now = t0.Add(time.Hour)
	_, err = s.TransitionStatus(ctx, moderator, a.ID, models.StatusHidden, "")
	require.NoError(t, err)
	a, err = s.TransitionStatus(ctx, moderator, a.ID, models.StatusPublished, "")
	require.NoError(t, err)
	require.Equal(t, t0, *a.PublishedAt)

	_, err = s.TransitionStatus(ctx, moderator, a.ID, "gone", "")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestService_RejectionReasonHiddenFromAuthor(t *testing.T) {
	s, _, _ := newMemoryService(t)
	ctx := context.Background()

	a, err := s.CreateArticle(ctx, author, CreateInput{Title: "Spammy", Content: body(100)})
	require.NoError(t, err)
	_, err = s.TransitionStatus(ctx, author, a.ID, models.StatusPending, "")
	require.NoError(t, err)

	_, err = s.TransitionStatus(ctx, moderator, a.ID, models.StatusRejected, "")
	require.ErrorIs(t, err, models.ErrValidation)

	rejected, err := s.TransitionStatus(ctx, moderator, a.ID, models.StatusRejected, "off-topic")
	require.NoError(t, err)
	require.Equal(t, "off-topic", rejected.RejectionReason)

	_, err = s.SetAdminNotes(ctx, moderator, a.ID, "watch this author")
	require.NoError(t, err)

	own, err := s.ArticleByID(ctx, author, a.ID)
	require.NoError(t, err)
	require.Empty(t, own.RejectionReason)
	require.Empty(t, own.AdminNotes)

	mod, err := s.ArticleByID(ctx, moderator, a.ID)
	require.NoError(t, err)
	require.Equal(t, "off-topic", mod.RejectionReason)
	require.Equal(t, "watch this author", mod.AdminNotes)

	_, err = s.ArticleByID(ctx, reader, a.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestService_SetAdminNotes_Rules(t *testing.T) {
	s, _, _ := newMemoryService(t)
	ctx := context.Background()
	a := publish(t, s, "Notes")

	_, err := s.SetAdminNotes(ctx, author, a.ID, "x")
	require.ErrorIs(t, err, models.ErrNotAuthorized)

	_, err = s.SetAdminNotes(ctx, moderator, a.ID, strings.Repeat("n", 501))
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestService_ToggleLike(t *testing.T) {
	s, _, _ := newMemoryService(t)
	ctx := context.Background()
	a := publish(t, s, "Likeable")

	res, err := s.ToggleLike(ctx, reader, a.ID)
	require.NoError(t, err)
	require.Equal(t, LikeResult{Liked: true, Likes: 1}, res)

	got, err := s.ArticleByID(ctx, reader, a.ID)
	require.NoError(t, err)
	require.InDelta(t, 4.0, got.TrendingScore, 1e-9)

	res, err = s.ToggleLike(ctx, reader, a.ID)
	require.NoError(t, err)
	require.Equal(t, LikeResult{Liked: false, Likes: 0}, res)

	_, err = s.ToggleLike(ctx, models.Identity{}, a.ID)
	require.ErrorIs(t, err, models.ErrNotAuthorized)
}

func TestService_ToggleLike_DraftIsNotFound(t *testing.T) {
	s, _, _ := newMemoryService(t)
	ctx := context.Background()

	a, err := s.CreateArticle(ctx, author, CreateInput{Title: "Draft", Content: body(100)})
	require.NoError(t, err)

	_, err = s.ToggleLike(ctx, reader, a.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestService_ConcurrentLikesAllPersist(t *testing.T) {
	s, _, _ := newMemoryService(t)
	ctx := context.Background()
	a := publish(t, s, "Popular")

	const users = 4
	errs := make(chan error, users)
	for range users {
		u := models.Identity{UserID: uuid.New(), Role: models.RoleUser}
		go func() {
			_, err := s.ToggleLike(ctx, u, a.ID)
			errs <- err
		}()
	}

	for range users {
		require.NoError(t, <-errs)
	}

	got, err := s.ArticleByID(ctx, reader, a.ID)
	require.NoError(t, err)
	require.Equal(t, users, got.LikeCount())
}

func TestService_Comments(t *testing.T) {
	s, _, _ := newMemoryService(t)
	ctx := context.Background()
	a := publish(t, s, "Discuss")
	other := publish(t, s, "Elsewhere")

	root, err := s.AddComment(ctx, reader, AddCommentInput{ArticleID: a.ID, Content: "first"})
	require.NoError(t, err)

	reply, err := s.AddComment(ctx, author, AddCommentInput{ArticleID: a.ID, ParentID: root.ID, Content: "thanks"})
	require.NoError(t, err)

	_, err = s.AddComment(ctx, reader, AddCommentInput{ArticleID: other.ID, ParentID: root.ID, Content: "cross"})
	require.ErrorIs(t, err, models.ErrCommentNotFound)

	_, err = s.EditComment(ctx, author, a.ID, root.ID, "not mine")
	require.ErrorIs(t, err, models.ErrNotAuthorized)

	edited, err := s.EditComment(ctx, reader, a.ID, root.ID, "first!")
	require.NoError(t, err)
	require.True(t, edited.IsEdited)

	lr, err := s.ToggleCommentLike(ctx, author, a.ID, reply.ID)
	require.NoError(t, err)
	require.Equal(t, LikeResult{Liked: true, Likes: 1}, lr)

	require.NoError(t, s.DeleteComment(ctx, reader, a.ID, root.ID))

	_, err = s.EditComment(ctx, reader, a.ID, root.ID, "resurrect")
	require.ErrorIs(t, err, models.ErrCommentNotFound)

	_, err = s.AddComment(ctx, reader, AddCommentInput{ArticleID: a.ID, ParentID: root.ID, Content: "still ok"})
	require.NoError(t, err)

	tree, err := s.ListComments(ctx, models.Identity{}, a.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.True(t, tree[0].Comment.IsDeleted)
	require.Len(t, tree[0].Replies, 2)
	require.Equal(t, "thanks", tree[0].Replies[0].Comment.Content)
}

func TestService_RecordView_Dedup(t *testing.T) {
	ctrl := gomock.NewController(t)
	guard := mocks.NewMockViewGuard(ctrl)
	s, _, _ := newMemoryService(t, WithViewGuard(guard))
	ctx := context.Background()
	a := publish(t, s, "Viewed")

	gomock.InOrder(
		guard.EXPECT().FirstView(gomock.Any(), a.ID, "10.0.0.1").Return(true, nil),
		guard.EXPECT().FirstView(gomock.Any(), a.ID, "10.0.0.1").Return(false, nil),
		guard.EXPECT().FirstView(gomock.Any(), a.ID, "10.0.0.1").Return(false, errors.New("redis down")),
	)

	got, err := s.ArticleBySlug(ctx, reader, a.Slug, "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, int64(1), got.Views)

	got, err = s.ArticleBySlug(ctx, reader, a.Slug, "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, int64(1), got.Views)

	// недоступный Redis не мешает чтению: просмотр засчитан
	got, err = s.ArticleBySlug(ctx, reader, a.Slug, "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, int64(2), got.Views)
}

func TestService_ArticleBySlug_UnpublishedHidden(t *testing.T) {
	s, _, _ := newMemoryService(t)
	ctx := context.Background()

	a, err := s.CreateArticle(ctx, author, CreateInput{Title: "Secret draft", Content: body(100)})
	require.NoError(t, err)

	_, err = s.ArticleBySlug(ctx, author, a.Slug, "")
	require.ErrorIs(t, err, models.ErrNotFound)

	_, err = s.ArticleBySlug(ctx, author, " ", "")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestService_SetFeaturedAndListings(t *testing.T) {
	s, _, c := newMemoryService(t)
	ctx := context.Background()

	a1 := publish(t, s, "First", "go")
	c.now = t0.Add(time.Hour)
	a2 := publish(t, s, "Second", "rust")
	c.now = t0.Add(2 * time.Hour)
	a3 := publish(t, s, "Third", "go")

	_, err := s.SetFeatured(ctx, author, a1.ID, true, 1)
	require.ErrorIs(t, err, models.ErrNotAuthorized)

	_, err = s.SetFeatured(ctx, moderator, a1.ID, true, 5)
	require.NoError(t, err)
	_, err = s.SetFeatured(ctx, moderator, a2.ID, true, 9)
	require.NoError(t, err)

	recent, err := s.ListPublished(ctx, models.ListQuery{})
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{a3.ID, a2.ID, a1.ID}, ids(recent.Items))
	require.Equal(t, 20, recent.Limit)

	featured, err := s.ListPublished(ctx, models.ListQuery{Sort: models.SortFeatured})
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{a2.ID, a1.ID}, ids(featured.Items))

	tagged, err := s.ListPublished(ctx, models.ListQuery{Filters: models.Filters{Tags: []string{" GO "}}})
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{a3.ID, a1.ID}, ids(tagged.Items))

	paged, err := s.ListPublished(ctx, models.ListQuery{Page: models.PageRequest{Page: 1, Limit: 1000}})
	require.NoError(t, err)
	require.Equal(t, 100, paged.Limit)

	_, err = s.ListPublished(ctx, models.ListQuery{Sort: "random"})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestService_SearchPublished_Store(t *testing.T) {
	s, _, c := newMemoryService(t)
	ctx := context.Background()

	contentOnly, err := s.CreateArticle(ctx, author, CreateInput{
		Title:   "Frontend notes",
		Content: strings.Repeat("react hooks everywhere, react hooks all day. ", 5),
	})
	require.NoError(t, err)
	_, err = s.TransitionStatus(ctx, author, contentOnly.ID, models.StatusPending, "")
	require.NoError(t, err)
	_, err = s.TransitionStatus(ctx, moderator, contentOnly.ID, models.StatusPublished, "")
	require.NoError(t, err)

	c.now = t0.Add(-time.Hour)
	titled := publish(t, s, "React Hooks in Depth")

	page, err := s.SearchPublished(ctx, models.SearchQuery{Text: "react hooks"})
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{titled.ID, contentOnly.ID}, ids(page.Items))

	_, err = s.SearchPublished(ctx, models.SearchQuery{Text: "  !! "})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestService_SearchPublished_Searcher(t *testing.T) {
	ctrl := gomock.NewController(t)
	sr := mocks.NewMockSearcher(ctrl)
	sr.EXPECT().Put(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	s, _, _ := newMemoryService(t, WithSearcher(sr))
	ctx := context.Background()
	a := publish(t, s, "Indexed")

	hidden := publish(t, s, "Hidden later")
	_, err := s.TransitionStatus(ctx, moderator, hidden.ID, models.StatusHidden, "")
	require.NoError(t, err)

	sr.EXPECT().
		Search(gomock.Any(), gomock.Any(), 20).
		Return(searchHits(true, hidden.ID, a.ID), nil)

	page, err := s.SearchPublished(ctx, models.SearchQuery{Text: "indexed"})
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{a.ID}, ids(page.Items))
	require.True(t, page.HasMore)
}

func TestService_ListByAuthorAndQueue(t *testing.T) {
	s, _, _ := newMemoryService(t)
	ctx := context.Background()

	published := publish(t, s, "Out there")
	draft, err := s.CreateArticle(ctx, author, CreateInput{Title: "Work in progress", Content: body(100)})
	require.NoError(t, err)
	pending, err := s.CreateArticle(ctx, author, CreateInput{Title: "Waiting", Content: body(100)})
	require.NoError(t, err)
	_, err = s.TransitionStatus(ctx, author, pending.ID, models.StatusPending, "")
	require.NoError(t, err)

	own, err := s.ListByAuthor(ctx, author, author.UserID, models.PageRequest{})
	require.NoError(t, err)
	require.Len(t, own.Items, 3)

	public, err := s.ListByAuthor(ctx, reader, author.UserID, models.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{published.ID}, ids(public.Items))

	_, err = s.ModerationQueue(ctx, author, models.PageRequest{})
	require.ErrorIs(t, err, models.ErrNotAuthorized)

	queue, err := s.ModerationQueue(ctx, moderator, models.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{pending.ID}, ids(queue.Items))
	require.NotContains(t, ids(queue.Items), draft.ID)
}

func TestService_RecomputeTrending(t *testing.T) {
	s, _, c := newMemoryService(t)
	ctx := context.Background()
	a := publish(t, s, "Trending")

	_, err := s.ToggleLike(ctx, reader, a.ID)
	require.NoError(t, err)

	// через период полураспада score падает вдвое
	c.now = t0.Add(72 * time.Hour)
	n, err := s.RecomputeTrending(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := s.ArticleByID(ctx, reader, a.ID)
	require.NoError(t, err)
	require.InDelta(t, 2.0, got.TrendingScore, 1e-9)

	// повторный проход без изменений ничего не пишет
	n, err = s.RecomputeTrending(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestService_ViewsReachTrendingOnlyViaSweep(t *testing.T) {
	s, _, _ := newMemoryService(t)
	ctx := context.Background()
	a := publish(t, s, "Viewed trending")

	counted, views, err := s.RecordView(ctx, a.ID, "")
	require.NoError(t, err)
	require.True(t, counted)
	require.Equal(t, int64(1), views)

	got, err := s.ArticleByID(ctx, reader, a.ID)
	require.NoError(t, err)
	require.Zero(t, got.TrendingScore)

	n, err := s.RecomputeTrending(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err = s.ArticleByID(ctx, reader, a.ID)
	require.NoError(t, err)
	require.InDelta(t, 0.15, got.TrendingScore, 1e-9)
}

func TestService_StartTrendingSweep_StopsOnCancel(t *testing.T) {
	s, _, _ := newMemoryService(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.StartTrendingSweep(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not stop")
	}

	s.cfg.Trending.SweepInterval = 0
	require.NoError(t, s.StartTrendingSweep(context.Background()))
}

func TestService_Reindex(t *testing.T) {
	s, _, _ := newMemoryService(t)
	n, err := s.Reindex(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)

	ctrl := gomock.NewController(t)
	sr := mocks.NewMockSearcher(ctrl)
	s.searcher = sr
	sr.EXPECT().IndexFromStorage(gomock.Any(), s.storage).Return(7, nil)

	n, err = s.Reindex(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, n)
}

func ids(items []models.Article) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(items))
	for _, a := range items {
		out = append(out, a.ID)
	}

	return out
}

func searchHits(more bool, ids ...uuid.UUID) search.Hits {
	return search.Hits{IDs: ids, HasMore: more}
}
