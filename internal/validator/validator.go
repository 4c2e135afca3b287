// Package validator — ограничения полей статьи и комментария (ozzo-validation).
//
// Ошибки возвращаются как validation.Errors (ключи — snake_case имена полей),
// обёрнутые вместе с models.ErrValidation: errors.Is(err, models.ErrValidation) == true,
// а errors.As(err, &validation.Errors{}) отдаёт детали по полям.
package validator

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/pribylovaa/articles-service/internal/models"
)

const (
	TitleMaxLength      = 100
	ContentMinLength    = 50
	ExcerptMaxLength    = 300
	CommentMaxLength    = 1000
	ModerationMaxLength = 500
)

var validStatuses = []interface{}{
	models.StatusDraft,
	models.StatusPending,
	models.StatusPublished,
	models.StatusRejected,
	models.StatusHidden,
}

// Article проверяет документ статьи перед записью.
func Article(a *models.Article) error {
	errs := validation.Errors{
		"title": validation.Validate(a.Title,
			validation.Required.ErrorObject(validation.NewError("title_required", "title is required")),
			validation.RuneLength(1, TitleMaxLength).ErrorObject(validation.NewError("title_too_long", "title must be at most 100 characters")),
		),
		"content": validation.Validate(a.Content,
			validation.Required.ErrorObject(validation.NewError("content_required", "content is required")),
			validation.RuneLength(ContentMinLength, 0).ErrorObject(validation.NewError("content_too_short", "content must be at least 50 characters")),
		),
		"excerpt": validation.Validate(a.Excerpt,
			validation.RuneLength(0, ExcerptMaxLength).ErrorObject(validation.NewError("excerpt_too_long", "excerpt must be at most 300 characters")),
		),
		"author_id": validation.Validate(a.AuthorID, validation.By(requiredUUID("author_id_required"))),
		"status": validation.Validate(a.Status,
			validation.Required.ErrorObject(validation.NewError("status_required", "status is required")),
			validation.In(validStatuses...).ErrorObject(validation.NewError("invalid_status", "unknown status")),
		),
		"reading_time_minutes": validation.Validate(a.ReadingTimeMinutes, validation.By(positive("reading_time_must_be_positive"))),
		"admin_notes": validation.Validate(a.AdminNotes,
			validation.RuneLength(0, ModerationMaxLength).ErrorObject(validation.NewError("admin_notes_too_long", "admin notes must be at most 500 characters")),
		),
		"rejection_reason": validation.Validate(a.RejectionReason,
			validation.RuneLength(0, ModerationMaxLength).ErrorObject(validation.NewError("rejection_reason_too_long", "rejection reason must be at most 500 characters")),
		),
	}

	if a.Status == models.StatusPublished || a.Status == models.StatusHidden {
		if a.PublishedAt == nil {
			errs["published_at"] = validation.NewError("published_requires_published_at", "published articles must have published_at")
		}
	}

	return wrap(errs.Filter())
}

// Comment проверяет текст комментария: обязателен и не длиннее CommentMaxLength.
func Comment(content string) error {
	err := validation.Errors{
		"content": validation.Validate(content,
			validation.Required.ErrorObject(validation.NewError("comment_required", "comment is required")),
			validation.RuneLength(1, CommentMaxLength).ErrorObject(validation.NewError("comment_too_long", "comment must be at most 1000 characters")),
		),
	}.Filter()

	return wrap(err)
}

// Field — ошибка валидации одного поля (для правил, которые проверяются вне ozzo).
func Field(name, code, message string) error {
	return wrap(validation.Errors{name: validation.NewError(code, message)})
}

// Fields извлекает детали по полям из ошибки валидации: поле -> сообщение.
func Fields(err error) map[string]string {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return nil
	}

	out := make(map[string]string, len(errs))
	for k, v := range errs {
		if v != nil {
			out[k] = v.Error()
		}
	}

	return out
}

func wrap(err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w: %w", models.ErrValidation, err)
}

func positive(code string) validation.RuleFunc {
	return func(value interface{}) error {
		if n, _ := value.(int); n < 1 {
			return validation.NewError(code, "must be >= 1")
		}

		return nil
	}
}

func requiredUUID(code string) validation.RuleFunc {
	return func(value interface{}) error {
		id, _ := value.(uuid.UUID)
		if id == uuid.Nil {
			return validation.NewError(code, "cannot be blank")
		}

		return nil
	}
}
