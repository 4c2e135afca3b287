package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pribylovaa/articles-service/internal/engagement"
	"github.com/pribylovaa/articles-service/internal/metrics"
	"github.com/pribylovaa/articles-service/internal/models"
	"github.com/pribylovaa/articles-service/pkg/log"
)

// LikeResult — состояние после переключения лайка.
type LikeResult struct {
	Liked bool
	Likes int
}

// ToggleLike ставит или снимает лайк actor на опубликованной статье.
// Конкурентные переключения разных пользователей не теряются: запись идёт через mutate.
func (s *Service) ToggleLike(ctx context.Context, actor models.Identity, id uuid.UUID) (LikeResult, error) {
	const op = "service/engagement/ToggleLike"

	lg := log.Op(ctx, op,
		slog.String("article_id", id.String()),
		slog.String("user_id", actor.UserID.String()),
	)

	if err := requireIdentity(actor); err != nil {
		return LikeResult{}, s.fail(lg, op, err)
	}

	var liked bool
	a, err := s.mutate(ctx, id, func(a *models.Article) error {
		if a.Status != models.StatusPublished {
			return models.ErrNotFound
		}

		liked = engagement.ToggleLike(a, actor.UserID, s.now())

		return nil
	})
	if err != nil {
		return LikeResult{}, s.fail(lg, op, err)
	}

	metrics.ObserveLike("article", liked)
	s.refreshTrending(ctx, a)

	lg.Info("article_like_toggled", slog.Bool("liked", liked), slog.Int("likes", a.LikeCount()))

	return LikeResult{Liked: liked, Likes: a.LikeCount()}, nil
}

// AddCommentInput — новый комментарий; ParentID == uuid.Nil — корневой.
type AddCommentInput struct {
	ArticleID uuid.UUID
	ParentID  uuid.UUID
	Content   string
}

// AddComment добавляет комментарий к опубликованной статье.
//
// Поведение/ошибки:
//   - пустой или длиннее 1000 символов текст -> models.ErrValidation;
//   - ParentID не найден в этой статье -> models.ErrCommentNotFound;
//   - статья не опубликована -> models.ErrNotFound.
func (s *Service) AddComment(ctx context.Context, actor models.Identity, in AddCommentInput) (*models.Comment, error) {
	const op = "service/engagement/AddComment"

	lg := log.Op(ctx, op,
		slog.String("article_id", in.ArticleID.String()),
		slog.String("parent_id", in.ParentID.String()),
		slog.String("user_id", actor.UserID.String()),
	)

	if err := requireIdentity(actor); err != nil {
		return nil, s.fail(lg, op, err)
	}

	commentID := uuid.New()

	var c models.Comment
	a, err := s.mutate(ctx, in.ArticleID, func(a *models.Article) error {
		if a.Status != models.StatusPublished {
			return models.ErrNotFound
		}

		var err error
		c, err = engagement.AddComment(a, actor.UserID, in.Content, in.ParentID, commentID, s.now())

		return err
	})
	if err != nil {
		return nil, s.fail(lg, op, err)
	}

	metrics.ObserveComment("add")
	s.refreshTrending(ctx, a)

	lg.Info("comment_added", slog.String("comment_id", c.ID.String()))

	return &c, nil
}

// EditComment меняет текст комментария (автор комментария или модератор).
func (s *Service) EditComment(ctx context.Context, actor models.Identity, articleID, commentID uuid.UUID, text string) (*models.Comment, error) {
	const op = "service/engagement/EditComment"

	lg := log.Op(ctx, op,
		slog.String("article_id", articleID.String()),
		slog.String("comment_id", commentID.String()),
	)

	if err := requireIdentity(actor); err != nil {
		return nil, s.fail(lg, op, err)
	}

	var c models.Comment
	_, err := s.mutate(ctx, articleID, func(a *models.Article) error {
		if i := a.FindComment(commentID); i >= 0 && a.Comments[i].IsDeleted {
			return fmt.Errorf("comment %s deleted: %w", commentID, models.ErrCommentNotFound)
		}

		var err error
		c, err = engagement.EditComment(a, commentID, actor, text, s.now())

		return err
	})
	if err != nil {
		return nil, s.fail(lg, op, err)
	}

	metrics.ObserveComment("edit")
	lg.Info("comment_edited")

	return &c, nil
}

// DeleteComment мягко удаляет комментарий (автор комментария или модератор).
func (s *Service) DeleteComment(ctx context.Context, actor models.Identity, articleID, commentID uuid.UUID) error {
	const op = "service/engagement/DeleteComment"

	lg := log.Op(ctx, op,
		slog.String("article_id", articleID.String()),
		slog.String("comment_id", commentID.String()),
	)

	if err := requireIdentity(actor); err != nil {
		return s.fail(lg, op, err)
	}

	a, err := s.mutate(ctx, articleID, func(a *models.Article) error {
		return engagement.DeleteComment(a, commentID, actor)
	})
	if err != nil {
		return s.fail(lg, op, err)
	}

	metrics.ObserveComment("delete")
	s.refreshTrending(ctx, a)

	lg.Info("comment_deleted")

	return nil
}

// ToggleCommentLike — ToggleLike для комментария.
func (s *Service) ToggleCommentLike(ctx context.Context, actor models.Identity, articleID, commentID uuid.UUID) (LikeResult, error) {
	const op = "service/engagement/ToggleCommentLike"

	lg := log.Op(ctx, op,
		slog.String("article_id", articleID.String()),
		slog.String("comment_id", commentID.String()),
		slog.String("user_id", actor.UserID.String()),
	)

	if err := requireIdentity(actor); err != nil {
		return LikeResult{}, s.fail(lg, op, err)
	}

	var res LikeResult
	_, err := s.mutate(ctx, articleID, func(a *models.Article) error {
		if a.Status != models.StatusPublished {
			return models.ErrNotFound
		}

		i := a.FindComment(commentID)
		if i >= 0 && a.Comments[i].IsDeleted {
			return fmt.Errorf("comment %s deleted: %w", commentID, models.ErrCommentNotFound)
		}

		liked, err := engagement.ToggleCommentLike(a, commentID, actor.UserID, s.now())
		if err != nil {
			return err
		}

		res = LikeResult{Liked: liked, Likes: len(a.Comments[i].Likes)}

		return nil
	})
	if err != nil {
		return LikeResult{}, s.fail(lg, op, err)
	}

	metrics.ObserveLike("comment", res.Liked)
	lg.Info("comment_like_toggled", slog.Bool("liked", res.Liked))

	return res, nil
}

// ListComments — дерево комментариев статьи, видимой viewer.
func (s *Service) ListComments(ctx context.Context, viewer models.Identity, articleID uuid.UUID) ([]models.CommentNode, error) {
	const op = "service/engagement/ListComments"

	lg := log.Op(ctx, op, slog.String("article_id", articleID.String()))

	a, err := s.storage.ArticleByID(ctx, articleID)
	if err != nil {
		return nil, s.fail(lg, op, err)
	}

	if !readable(a, viewer) {
		return nil, s.fail(lg, op, models.ErrNotFound)
	}

	return engagement.Thread(a), nil
}

// RecordView засчитывает просмотр статьи.
//
// Особенности:
//   - если подключён ViewGuard и viewerKey не пуст, один зритель засчитывается раз в окно TTL;
//   - недоступность Redis не блокирует чтение: просмотр засчитывается без дедупликации;
//   - views меняется атомарным инкрементом, мимо версионной записи документа;
//   - trending_score здесь не пересчитывается: просмотры учтёт ближайший лайк/комментарий или sweep.
func (s *Service) RecordView(ctx context.Context, id uuid.UUID, viewerKey string) (bool, int64, error) {
	const op = "service/engagement/RecordView"

	lg := log.Op(ctx, op, slog.String("article_id", id.String()))

	if s.views != nil && viewerKey != "" {
		first, err := s.views.FirstView(ctx, id, viewerKey)
		switch {
		case err != nil:
			lg.Warn("view_guard_unavailable", slog.String("err", err.Error()))
		case !first:
			metrics.ObserveView(false)
			return false, 0, nil
		}
	}

	views, err := s.storage.IncrementViews(ctx, id, 1)
	if err != nil {
		return false, 0, s.fail(lg, op, err)
	}

	metrics.ObserveView(true)

	return true, views, nil
}
