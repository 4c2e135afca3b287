// Package trending — затухающий по времени рейтинг популярности статьи.
package trending

import (
	"math"
	"time"

	"github.com/pribylovaa/articles-service/internal/models"
)

const (
	HalfLife = 72 * time.Hour

	LikeWeight    = 4.0
	CommentWeight = 3.0
	ViewWeight    = 0.15
)

// Inputs — счётчики и опорные даты, от которых зависит рейтинг.
type Inputs struct {
	Likes       int
	Comments    int
	Views       int64
	PublishedAt *time.Time
	CreatedAt   time.Time
}

// Score = (likes*4 + comments*3 + views*0.15) * 0.5^(ageHours/72).
// Возраст отсчитывается от PublishedAt, а для неопубликованных от CreatedAt;
// отрицательный возраст считается нулевым. Результат всегда конечен и >= 0.
func Score(in Inputs, now time.Time) float64 {
	ref := in.CreatedAt
	if in.PublishedAt != nil {
		ref = *in.PublishedAt
	}

	ageHours := now.Sub(ref).Hours()
	if ageHours < 0 || math.IsNaN(ageHours) {
		ageHours = 0
	}

	raw := float64(in.Likes)*LikeWeight + float64(in.Comments)*CommentWeight + float64(in.Views)*ViewWeight
	score := raw * math.Pow(0.5, ageHours/HalfLife.Hours())

	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return 0
	}

	return score
}

// ForArticle — Score по текущему состоянию статьи.
func ForArticle(a *models.Article, now time.Time) float64 {
	return Score(Inputs{
		Likes:       a.LikeCount(),
		Comments:    a.CommentCount(),
		Views:       a.Views,
		PublishedAt: a.PublishedAt,
		CreatedAt:   a.CreatedAt,
	}, now)
}
