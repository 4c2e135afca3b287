package validator

import (
	"strings"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/articles-service/internal/models"
)

func validArticle() *models.Article {
	return &models.Article{
		Title:              "Valid title",
		Content:            strings.Repeat("c", ContentMinLength),
		AuthorID:           uuid.New(),
		Status:             models.StatusDraft,
		ReadingTimeMinutes: 1,
	}
}

func TestArticle_OK(t *testing.T) {
	require.NoError(t, Article(validArticle()))
}

func TestArticle_FieldErrors(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(a *models.Article)
		field string
	}{
		{"empty title", func(a *models.Article) { a.Title = "" }, "title"},
		{"long title", func(a *models.Article) { a.Title = strings.Repeat("t", TitleMaxLength+1) }, "title"},
		{"short content", func(a *models.Article) { a.Content = strings.Repeat("c", ContentMinLength-1) }, "content"},
		{"long excerpt", func(a *models.Article) { a.Excerpt = strings.Repeat("e", ExcerptMaxLength+1) }, "excerpt"},
		{"nil author", func(a *models.Article) { a.AuthorID = uuid.Nil }, "author_id"},
		{"bad status", func(a *models.Article) { a.Status = "archived" }, "status"},
		{"zero reading time", func(a *models.Article) { a.ReadingTimeMinutes = 0 }, "reading_time_minutes"},
		{"long admin notes", func(a *models.Article) { a.AdminNotes = strings.Repeat("n", ModerationMaxLength+1) }, "admin_notes"},
		{"published without published_at", func(a *models.Article) { a.Status = models.StatusPublished }, "published_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validArticle()
			tt.edit(a)

			err := Article(a)
			require.ErrorIs(t, err, models.ErrValidation)
			require.Contains(t, Fields(err), tt.field)
		})
	}
}

func TestArticle_TitleLengthCountsRunes(t *testing.T) {
	a := validArticle()
	a.Title = strings.Repeat("я", TitleMaxLength) // 200 байт, 100 символов
	require.NoError(t, Article(a))
}

func TestArticle_PublishedWithTimestampOK(t *testing.T) {
	a := validArticle()
	now := time.Now()
	a.Status = models.StatusPublished
	a.PublishedAt = &now
	require.NoError(t, Article(a))
}

func TestComment(t *testing.T) {
	require.NoError(t, Comment("nice"))
	require.ErrorIs(t, Comment(""), models.ErrValidation)
	require.ErrorIs(t, Comment(strings.Repeat("x", CommentMaxLength+1)), models.ErrValidation)
	require.NoError(t, Comment(strings.Repeat("x", CommentMaxLength)))
}

func TestField(t *testing.T) {
	err := Field("rejection_reason", "reason_required", "rejection reason is required")
	require.ErrorIs(t, err, models.ErrValidation)
	require.Equal(t, map[string]string{"rejection_reason": "rejection reason is required"}, Fields(err))
}

func TestFields_NonValidationError(t *testing.T) {
	require.Nil(t, Fields(models.ErrNotFound))
}

func TestArticle_ErrorCodeAndMessage(t *testing.T) {
	a := validArticle()
	a.Title = ""

	err := Article(a)

	var errs validation.Errors
	require.ErrorAs(t, err, &errs)

	var verr validation.Error
	require.ErrorAs(t, errs["title"], &verr)
	require.Equal(t, "title_required", verr.Code())
	require.Equal(t, "title is required", Fields(err)["title"])
}
