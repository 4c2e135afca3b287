// Package models содержит доменные сущности articles-сервиса.
// Эти типы используются ядром (slug/content/lifecycle/engagement/trending/ranking),
// слоями хранилища, сервиса и транспорта.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Status — состояние статьи в процессе модерации.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusRejected  Status = "rejected"
	StatusHidden    Status = "hidden"
)

// Valid сообщает, входит ли значение в перечисление статусов.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusPublished, StatusRejected, StatusHidden:
		return true
	default:
		return false
	}
}

// Image — метаданные изображения (сам файл хранится вне сервиса).
type Image struct {
	URL     string
	Alt     string
	Caption string
}

// SEO — метаданные для поисковиков и карточек соцсетей.
type SEO struct {
	MetaTitle       string
	MetaDescription string
	MetaKeywords    []string
	OGImage         string
}

// Like — отметка «нравится» от пользователя; в наборе не более одной на UserID.
type Like struct {
	UserID  uuid.UUID
	LikedAt time.Time
}

// Article — документ статьи.
//
// Особенности:
//   - ID, AuthorID — UUID, неизменяемы после создания;
//   - Slug, Excerpt, ReadingTimeMinutes, PublishedAt — производные поля,
//     пересчитываются явным шагом lifecycle.Recompute;
//   - ExcerptAuto — Excerpt выведен из Content (а не задан автором);
//   - Views и TrendingScore обновляются точечно и не участвуют в версионной записи;
//   - Version — счётчик оптимистичной блокировки, растёт на каждую запись документа;
//   - AdminNotes, RejectionReason — только для модераторов (см. Public).
type Article struct {
	ID                 uuid.UUID
	Title              string
	Slug               string
	Content            string
	Excerpt            string
	ExcerptAuto        bool
	AuthorID           uuid.UUID
	Status             Status
	Tags               []string
	Categories         []string
	FeaturedImage      *Image
	SEO                SEO
	Likes              []Like
	Comments           []Comment
	Views              int64
	ReadingTimeMinutes int
	PublishedAt        *time.Time
	IsFeatured         bool
	Priority           int
	TrendingScore      float64
	AdminNotes         string
	RejectionReason    string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Version            int64
}

// LikeCount — число отметок «нравится».
func (a *Article) LikeCount() int { return len(a.Likes) }

// CommentCount — число неудалённых комментариев.
func (a *Article) CommentCount() int {
	n := 0
	for i := range a.Comments {
		if !a.Comments[i].IsDeleted {
			n++
		}
	}

	return n
}

// IsLikedBy — есть ли отметка пользователя.
func (a *Article) IsLikedBy(userID uuid.UUID) bool {
	return hasLike(a.Likes, userID)
}

// URL — публичный путь статьи.
func (a *Article) URL() string { return "/article/" + a.Slug }

// FindComment возвращает индекс комментария по ID или -1.
func (a *Article) FindComment(id uuid.UUID) int {
	for i := range a.Comments {
		if a.Comments[i].ID == id {
			return i
		}
	}

	return -1
}

// Clone — глубокая копия документа: срезы и указатели не разделяются с оригиналом.
func (a Article) Clone() Article {
	out := a
	out.Tags = append([]string(nil), a.Tags...)
	out.Categories = append([]string(nil), a.Categories...)
	out.SEO.MetaKeywords = append([]string(nil), a.SEO.MetaKeywords...)
	out.Likes = append([]Like(nil), a.Likes...)

	if a.FeaturedImage != nil {
		img := *a.FeaturedImage
		out.FeaturedImage = &img
	}

	if a.PublishedAt != nil {
		t := *a.PublishedAt
		out.PublishedAt = &t
	}

	if a.Comments != nil {
		out.Comments = make([]Comment, len(a.Comments))
		for i := range a.Comments {
			out.Comments[i] = a.Comments[i].clone()
		}
	}

	return out
}

// Public возвращает копию без полей модерации.
func (a Article) Public() Article {
	out := a.Clone()
	out.AdminNotes = ""
	out.RejectionReason = ""

	return out
}

func hasLike(likes []Like, userID uuid.UUID) bool {
	for _, l := range likes {
		if l.UserID == userID {
			return true
		}
	}

	return false
}
