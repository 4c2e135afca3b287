package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment — комментарий, встроенный в документ статьи.
// Важно:
//   - ParentID == uuid.Nil — корневой комментарий; иначе ссылается на комментарий той же статьи;
//   - порядок в Article.Comments — порядок вставки (он же порядок показа соседей);
//   - IsDeleted — мягкое удаление: Content очищается, ID остаётся, чтобы ответы не «повисли».
type Comment struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Content   string
	ParentID  uuid.UUID
	Likes     []Like
	IsEdited  bool
	EditedAt  *time.Time
	IsDeleted bool
	CreatedAt time.Time
}

// IsRoot — комментарий верхнего уровня.
func (c *Comment) IsRoot() bool { return c.ParentID == uuid.Nil }

// IsLikedBy — есть ли отметка пользователя на комментарии.
func (c *Comment) IsLikedBy(userID uuid.UUID) bool { return hasLike(c.Likes, userID) }

func (c Comment) clone() Comment {
	out := c
	out.Likes = append([]Like(nil), c.Likes...)
	if c.EditedAt != nil {
		t := *c.EditedAt
		out.EditedAt = &t
	}

	return out
}

// CommentNode — узел восстановленного дерева комментариев.
type CommentNode struct {
	Comment Comment
	Replies []CommentNode
}
