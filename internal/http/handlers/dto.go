package handlers

import (
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/articles-service/internal/models"
	"github.com/pribylovaa/articles-service/internal/service"
)

// Запросы.

type ImageDTO struct {
	URL     string `json:"url"`
	Alt     string `json:"alt,omitempty"`
	Caption string `json:"caption,omitempty"`
}

type SEODTO struct {
	MetaTitle       string   `json:"meta_title,omitempty"`
	MetaDescription string   `json:"meta_description,omitempty"`
	MetaKeywords    []string `json:"meta_keywords,omitempty"`
	OGImage         string   `json:"og_image,omitempty"`
}

type CreateArticleRequest struct {
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Excerpt       string    `json:"excerpt,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	Categories    []string  `json:"categories,omitempty"`
	FeaturedImage *ImageDTO `json:"featured_image,omitempty"`
	SEO           *SEODTO   `json:"seo,omitempty"`
}

func (in CreateArticleRequest) toInput() service.CreateInput {
	out := service.CreateInput{
		Title:         in.Title,
		Content:       in.Content,
		Excerpt:       in.Excerpt,
		Tags:          in.Tags,
		Categories:    in.Categories,
		FeaturedImage: in.FeaturedImage.toModel(),
	}
	if in.SEO != nil {
		out.SEO = in.SEO.toModel()
	}

	return out
}

// UpdateArticleRequest — частичное обновление: nil-поле не меняется.
type UpdateArticleRequest struct {
	Title         *string   `json:"title,omitempty"`
	Content       *string   `json:"content,omitempty"`
	Excerpt       *string   `json:"excerpt,omitempty"`
	Tags          *[]string `json:"tags,omitempty"`
	Categories    *[]string `json:"categories,omitempty"`
	FeaturedImage *ImageDTO `json:"featured_image,omitempty"`
	SEO           *SEODTO   `json:"seo,omitempty"`
	Status        *string   `json:"status,omitempty"`
	Reason        string    `json:"reason,omitempty"`
}

func (in UpdateArticleRequest) toInput() service.UpdateInput {
	out := service.UpdateInput{
		Title:         in.Title,
		Content:       in.Content,
		Excerpt:       in.Excerpt,
		Tags:          in.Tags,
		Categories:    in.Categories,
		FeaturedImage: in.FeaturedImage.toModel(),
		Reason:        in.Reason,
	}
	if in.SEO != nil {
		seo := in.SEO.toModel()
		out.SEO = &seo
	}
	if in.Status != nil {
		st := models.Status(*in.Status)
		out.Status = &st
	}

	return out
}

type StatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type FeaturedRequest struct {
	Featured bool `json:"featured"`
	Priority int  `json:"priority"`
}

type NotesRequest struct {
	Notes string `json:"notes"`
}

type AddCommentRequest struct {
	Content  string `json:"content"`
	ParentID string `json:"parent_id,omitempty"`
}

type EditCommentRequest struct {
	Content string `json:"content"`
}

func (d *ImageDTO) toModel() *models.Image {
	if d == nil {
		return nil
	}

	return &models.Image{URL: d.URL, Alt: d.Alt, Caption: d.Caption}
}

func (d SEODTO) toModel() models.SEO {
	return models.SEO{
		MetaTitle:       d.MetaTitle,
		MetaDescription: d.MetaDescription,
		MetaKeywords:    d.MetaKeywords,
		OGImage:         d.OGImage,
	}
}

// Ответы.

// ArticleResponse — статья целиком. admin_notes и rejection_reason сервис заполняет только для модераторов.
type ArticleResponse struct {
	ArticleSummary
	Content         string    `json:"content"`
	SEO             SEODTO    `json:"seo"`
	AdminNotes      string    `json:"admin_notes,omitempty"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Version         int64     `json:"version"`
}

// ArticleSummary — карточка статьи в выдачах.
type ArticleSummary struct {
	ID                 uuid.UUID  `json:"id"`
	Title              string     `json:"title"`
	Slug               string     `json:"slug"`
	URL                string     `json:"url"`
	Excerpt            string     `json:"excerpt"`
	AuthorID           uuid.UUID  `json:"author_id"`
	Status             string     `json:"status"`
	Tags               []string   `json:"tags"`
	Categories         []string   `json:"categories"`
	FeaturedImage      *ImageDTO  `json:"featured_image,omitempty"`
	Likes              int        `json:"likes"`
	LikedByMe          bool       `json:"liked_by_me"`
	CommentCount       int        `json:"comment_count"`
	Views              int64      `json:"views"`
	ReadingTimeMinutes int        `json:"reading_time_minutes"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`
	IsFeatured         bool       `json:"is_featured"`
	Priority           int        `json:"priority"`
	TrendingScore      float64    `json:"trending_score"`
}

type ArticlePageResponse struct {
	Items   []ArticleSummary `json:"items"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
	HasMore bool             `json:"has_more"`
}

type CommentResponse struct {
	ID        uuid.UUID         `json:"id"`
	UserID    uuid.UUID         `json:"user_id"`
	Content   string            `json:"content"`
	ParentID  *uuid.UUID        `json:"parent_id,omitempty"`
	Likes     int               `json:"likes"`
	LikedByMe bool              `json:"liked_by_me"`
	IsEdited  bool              `json:"is_edited"`
	EditedAt  *time.Time        `json:"edited_at,omitempty"`
	IsDeleted bool              `json:"is_deleted"`
	CreatedAt time.Time         `json:"created_at"`
	Replies   []CommentResponse `json:"replies,omitempty"`
}

type CommentsResponse struct {
	Items []CommentResponse `json:"items"`
}

type LikeResponse struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

func summaryFromModel(a *models.Article, viewer models.Identity) ArticleSummary {
	out := ArticleSummary{
		ID:                 a.ID,
		Title:              a.Title,
		Slug:               a.Slug,
		URL:                a.URL(),
		Excerpt:            a.Excerpt,
		AuthorID:           a.AuthorID,
		Status:             string(a.Status),
		Tags:               nonNil(a.Tags),
		Categories:         nonNil(a.Categories),
		Likes:              a.LikeCount(),
		LikedByMe:          !viewer.IsAnonymous() && a.IsLikedBy(viewer.UserID),
		CommentCount:       a.CommentCount(),
		Views:              a.Views,
		ReadingTimeMinutes: a.ReadingTimeMinutes,
		PublishedAt:        a.PublishedAt,
		IsFeatured:         a.IsFeatured,
		Priority:           a.Priority,
		TrendingScore:      a.TrendingScore,
	}
	if img := a.FeaturedImage; img != nil {
		out.FeaturedImage = &ImageDTO{URL: img.URL, Alt: img.Alt, Caption: img.Caption}
	}

	return out
}

func articleFromModel(a *models.Article, viewer models.Identity) ArticleResponse {
	return ArticleResponse{
		ArticleSummary: summaryFromModel(a, viewer),
		Content:        a.Content,
		SEO: SEODTO{
			MetaTitle:       a.SEO.MetaTitle,
			MetaDescription: a.SEO.MetaDescription,
			MetaKeywords:    a.SEO.MetaKeywords,
			OGImage:         a.SEO.OGImage,
		},
		AdminNotes:      a.AdminNotes,
		RejectionReason: a.RejectionReason,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
		Version:         a.Version,
	}
}

func pageFromModel(p *models.ArticlePage, viewer models.Identity) ArticlePageResponse {
	out := ArticlePageResponse{
		Items:   make([]ArticleSummary, 0, len(p.Items)),
		Page:    p.Page,
		Limit:   p.Limit,
		HasMore: p.HasMore,
	}
	for i := range p.Items {
		out.Items = append(out.Items, summaryFromModel(&p.Items[i], viewer))
	}

	return out
}

func commentFromModel(c *models.Comment, viewer models.Identity) CommentResponse {
	out := CommentResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		Content:   c.Content,
		Likes:     len(c.Likes),
		LikedByMe: !viewer.IsAnonymous() && c.IsLikedBy(viewer.UserID),
		IsEdited:  c.IsEdited,
		EditedAt:  c.EditedAt,
		IsDeleted: c.IsDeleted,
		CreatedAt: c.CreatedAt,
	}
	if !c.IsRoot() {
		pid := c.ParentID
		out.ParentID = &pid
	}

	return out
}

func threadFromModel(nodes []models.CommentNode, viewer models.Identity) []CommentResponse {
	out := make([]CommentResponse, 0, len(nodes))
	for i := range nodes {
		c := commentFromModel(&nodes[i].Comment, viewer)
		if len(nodes[i].Replies) > 0 {
			c.Replies = threadFromModel(nodes[i].Replies, viewer)
		}
		out = append(out, c)
	}

	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
