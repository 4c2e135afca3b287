package mongo

import (
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/articles-service/internal/models"
)

// Документы хранят UUID строками: так фильтры и индексы читаемы в mongosh,
// а кодек драйвера не зависит от представления uuid.UUID.

type likeDoc struct {
	UserID  string    `bson:"user_id"`
	LikedAt time.Time `bson:"liked_at"`
}

type commentDoc struct {
	ID        string     `bson:"id"`
	UserID    string     `bson:"user_id"`
	Content   string     `bson:"content"`
	ParentID  string     `bson:"parent_id,omitempty"`
	Likes     []likeDoc  `bson:"likes,omitempty"`
	IsEdited  bool       `bson:"is_edited"`
	EditedAt  *time.Time `bson:"edited_at,omitempty"`
	IsDeleted bool       `bson:"is_deleted"`
	CreatedAt time.Time  `bson:"created_at"`
}

type imageDoc struct {
	URL     string `bson:"url"`
	Alt     string `bson:"alt,omitempty"`
	Caption string `bson:"caption,omitempty"`
}

type seoDoc struct {
	MetaTitle       string   `bson:"meta_title,omitempty"`
	MetaDescription string   `bson:"meta_description,omitempty"`
	MetaKeywords    []string `bson:"meta_keywords,omitempty"`
	OGImage         string   `bson:"og_image,omitempty"`
}

type articleDoc struct {
	ID                 string       `bson:"_id"`
	Title              string       `bson:"title"`
	Slug               string       `bson:"slug"`
	Content            string       `bson:"content"`
	Excerpt            string       `bson:"excerpt"`
	ExcerptAuto        bool         `bson:"excerpt_auto"`
	AuthorID           string       `bson:"author_id"`
	Status             string       `bson:"status"`
	Tags               []string     `bson:"tags"`
	Categories         []string     `bson:"categories"`
	FeaturedImage      *imageDoc    `bson:"featured_image,omitempty"`
	SEO                seoDoc       `bson:"seo"`
	Likes              []likeDoc    `bson:"likes"`
	Comments           []commentDoc `bson:"comments"`
	Views              int64        `bson:"views"`
	ReadingTimeMinutes int          `bson:"reading_time_minutes"`
	PublishedAt        *time.Time   `bson:"published_at,omitempty"`
	IsFeatured         bool         `bson:"is_featured"`
	Priority           int          `bson:"priority"`
	TrendingScore      float64      `bson:"trending_score"`
	AdminNotes         string       `bson:"admin_notes,omitempty"`
	RejectionReason    string       `bson:"rejection_reason,omitempty"`
	CreatedAt          time.Time    `bson:"created_at"`
	UpdatedAt          time.Time    `bson:"updated_at"`
	Version            int64        `bson:"version"`
}

// MongoDB DateTime хранит миллисекунды.
func toMS(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

func toMSPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	v := toMS(*t)

	return &v
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	v := t.UTC()

	return &v
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}

func toLikeDocs(in []models.Like) []likeDoc {
	if len(in) == 0 {
		return nil
	}

	out := make([]likeDoc, len(in))
	for i, l := range in {
		out[i] = likeDoc{UserID: l.UserID.String(), LikedAt: toMS(l.LikedAt)}
	}

	return out
}

func fromLikeDocs(in []likeDoc) []models.Like {
	if len(in) == 0 {
		return nil
	}

	out := make([]models.Like, 0, len(in))
	for _, l := range in {
		id, err := uuid.Parse(l.UserID)
		if err != nil {
			continue
		}
		out = append(out, models.Like{UserID: id, LikedAt: l.LikedAt.UTC()})
	}

	return out
}

func toArticleDoc(a *models.Article) articleDoc {
	doc := articleDoc{
		ID:                 a.ID.String(),
		Title:              a.Title,
		Slug:               a.Slug,
		Content:            a.Content,
		Excerpt:            a.Excerpt,
		ExcerptAuto:        a.ExcerptAuto,
		AuthorID:           a.AuthorID.String(),
		Status:             string(a.Status),
		Tags:               emptyIfNil(a.Tags),
		Categories:         emptyIfNil(a.Categories),
		Likes:              toLikeDocs(a.Likes),
		Views:              a.Views,
		ReadingTimeMinutes: a.ReadingTimeMinutes,
		PublishedAt:        toMSPtr(a.PublishedAt),
		IsFeatured:         a.IsFeatured,
		Priority:           a.Priority,
		TrendingScore:      a.TrendingScore,
		AdminNotes:         a.AdminNotes,
		RejectionReason:    a.RejectionReason,
		CreatedAt:          toMS(a.CreatedAt),
		UpdatedAt:          toMS(a.UpdatedAt),
		Version:            a.Version,
		SEO: seoDoc{
			MetaTitle:       a.SEO.MetaTitle,
			MetaDescription: a.SEO.MetaDescription,
			MetaKeywords:    a.SEO.MetaKeywords,
			OGImage:         a.SEO.OGImage,
		},
	}

	if doc.Likes == nil {
		doc.Likes = []likeDoc{}
	}

	if a.FeaturedImage != nil {
		doc.FeaturedImage = &imageDoc{URL: a.FeaturedImage.URL, Alt: a.FeaturedImage.Alt, Caption: a.FeaturedImage.Caption}
	}

	doc.Comments = make([]commentDoc, len(a.Comments))
	for i, c := range a.Comments {
		cd := commentDoc{
			ID:        c.ID.String(),
			UserID:    c.UserID.String(),
			Content:   c.Content,
			Likes:     toLikeDocs(c.Likes),
			IsEdited:  c.IsEdited,
			EditedAt:  toMSPtr(c.EditedAt),
			IsDeleted: c.IsDeleted,
			CreatedAt: toMS(c.CreatedAt),
		}
		if c.ParentID != uuid.Nil {
			cd.ParentID = c.ParentID.String()
		}
		doc.Comments[i] = cd
	}

	return doc
}

func (d *articleDoc) toModel() (models.Article, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.Article{}, err
	}

	authorID, err := uuid.Parse(d.AuthorID)
	if err != nil {
		return models.Article{}, err
	}

	a := models.Article{
		ID:                 id,
		Title:              d.Title,
		Slug:               d.Slug,
		Content:            d.Content,
		Excerpt:            d.Excerpt,
		ExcerptAuto:        d.ExcerptAuto,
		AuthorID:           authorID,
		Status:             models.Status(d.Status),
		Likes:              fromLikeDocs(d.Likes),
		Views:              d.Views,
		ReadingTimeMinutes: d.ReadingTimeMinutes,
		PublishedAt:        utcPtr(d.PublishedAt),
		IsFeatured:         d.IsFeatured,
		Priority:           d.Priority,
		TrendingScore:      d.TrendingScore,
		AdminNotes:         d.AdminNotes,
		RejectionReason:    d.RejectionReason,
		CreatedAt:          d.CreatedAt.UTC(),
		UpdatedAt:          d.UpdatedAt.UTC(),
		Version:            d.Version,
		SEO: models.SEO{
			MetaTitle:       d.SEO.MetaTitle,
			MetaDescription: d.SEO.MetaDescription,
			MetaKeywords:    d.SEO.MetaKeywords,
			OGImage:         d.SEO.OGImage,
		},
	}

	if len(d.Tags) > 0 {
		a.Tags = d.Tags
	}

	if len(d.Categories) > 0 {
		a.Categories = d.Categories
	}

	if d.FeaturedImage != nil {
		a.FeaturedImage = &models.Image{URL: d.FeaturedImage.URL, Alt: d.FeaturedImage.Alt, Caption: d.FeaturedImage.Caption}
	}

	if len(d.Comments) > 0 {
		a.Comments = make([]models.Comment, 0, len(d.Comments))
		for _, cd := range d.Comments {
			c := models.Comment{
				Content:   cd.Content,
				Likes:     fromLikeDocs(cd.Likes),
				IsEdited:  cd.IsEdited,
				EditedAt:  utcPtr(cd.EditedAt),
				IsDeleted: cd.IsDeleted,
				CreatedAt: cd.CreatedAt.UTC(),
			}
			if c.ID, err = uuid.Parse(cd.ID); err != nil {
				return models.Article{}, err
			}
			if c.UserID, err = uuid.Parse(cd.UserID); err != nil {
				return models.Article{}, err
			}
			if cd.ParentID != "" {
				if c.ParentID, err = uuid.Parse(cd.ParentID); err != nil {
					return models.Article{}, err
				}
			}
			a.Comments = append(a.Comments, c)
		}
	}

	return a, nil
}
