// Package engagement — лайки и древовидные комментарии внутри документа статьи.
//
// Все функции меняют статью в памяти; атомарность записи обеспечивает
// вызывающий (оптимистичная блокировка по version в сервисе).
package engagement

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/articles-service/internal/models"
	"github.com/pribylovaa/articles-service/internal/validator"
)

// ToggleLike ставит или снимает лайк пользователя. true — лайк теперь стоит.
func ToggleLike(a *models.Article, userID uuid.UUID, now time.Time) bool {
	var liked bool
	a.Likes, liked = toggle(a.Likes, userID, now)

	return liked
}

// AddComment добавляет комментарий в конец последовательности.
// parentID == uuid.Nil — корневой комментарий; иначе родитель должен быть в этой же статье
// (мягко удалённый родитель допустим).
func AddComment(a *models.Article, userID uuid.UUID, text string, parentID, id uuid.UUID, now time.Time) (models.Comment, error) {
	text = strings.TrimSpace(text)
	if err := validator.Comment(text); err != nil {
		return models.Comment{}, err
	}

	if parentID != uuid.Nil && a.FindComment(parentID) < 0 {
		return models.Comment{}, fmt.Errorf("parent %s: %w", parentID, models.ErrCommentNotFound)
	}

	c := models.Comment{
		ID:        id,
		UserID:    userID,
		Content:   text,
		ParentID:  parentID,
		CreatedAt: now.UTC(),
	}
	a.Comments = append(a.Comments, c)

	return c, nil
}

// EditComment меняет текст комментария. Править может автор комментария или модератор.
func EditComment(a *models.Article, commentID uuid.UUID, actor models.Identity, text string, now time.Time) (models.Comment, error) {
	c, err := lookup(a, commentID)
	if err != nil {
		return models.Comment{}, err
	}

	if c.UserID != actor.UserID && !actor.IsModerator() {
		return models.Comment{}, fmt.Errorf("edit comment: %w", models.ErrNotAuthorized)
	}

	text = strings.TrimSpace(text)
	if err := validator.Comment(text); err != nil {
		return models.Comment{}, err
	}

	t := now.UTC()
	c.Content = text
	c.IsEdited = true
	c.EditedAt = &t

	return *c, nil
}

// ToggleCommentLike — то же, что ToggleLike, для комментария.
func ToggleCommentLike(a *models.Article, commentID, userID uuid.UUID, now time.Time) (bool, error) {
	c, err := lookup(a, commentID)
	if err != nil {
		return false, err
	}

	var liked bool
	c.Likes, liked = toggle(c.Likes, userID, now)

	return liked, nil
}

// DeleteComment мягко удаляет комментарий: текст и лайки очищаются, id остаётся,
// чтобы ответы по-прежнему ссылались на существующего родителя.
func DeleteComment(a *models.Article, commentID uuid.UUID, actor models.Identity) error {
	c, err := lookup(a, commentID)
	if err != nil {
		return err
	}

	if c.UserID != actor.UserID && !actor.IsModerator() {
		return fmt.Errorf("delete comment: %w", models.ErrNotAuthorized)
	}

	c.IsDeleted = true
	c.Content = ""
	c.Likes = nil

	return nil
}

// Thread восстанавливает дерево ответов. Порядок братьев — порядок вставки.
func Thread(a *models.Article) []models.CommentNode {
	children := make(map[uuid.UUID][]int, len(a.Comments))
	for i := range a.Comments {
		p := a.Comments[i].ParentID
		if p != uuid.Nil && a.FindComment(p) < 0 {
			// осиротевший ответ показываем как корневой
			p = uuid.Nil
		}
		children[p] = append(children[p], i)
	}

	var build func(parent uuid.UUID) []models.CommentNode
	build = func(parent uuid.UUID) []models.CommentNode {
		idx := children[parent]
		if len(idx) == 0 {
			return nil
		}

		out := make([]models.CommentNode, 0, len(idx))
		for _, i := range idx {
			c := a.Comments[i]
			out = append(out, models.CommentNode{Comment: c, Replies: build(c.ID)})
		}

		return out
	}

	return build(uuid.Nil)
}

func lookup(a *models.Article, id uuid.UUID) (*models.Comment, error) {
	i := a.FindComment(id)
	if i < 0 {
		return nil, fmt.Errorf("comment %s: %w", id, models.ErrCommentNotFound)
	}

	return &a.Comments[i], nil
}

func toggle(likes []models.Like, userID uuid.UUID, now time.Time) ([]models.Like, bool) {
	for i, l := range likes {
		if l.UserID == userID {
			out := append(likes[:i:i], likes[i+1:]...)
			if len(out) == 0 {
				return nil, false
			}

			return out, false
		}
	}

	return append(likes, models.Like{UserID: userID, LikedAt: now.UTC()}), true
}
