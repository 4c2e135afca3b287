package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/articles-service/internal/content"
	"github.com/pribylovaa/articles-service/internal/models"
	"github.com/pribylovaa/articles-service/internal/validator"
)

// Derived — что изменил пересчёт и что должен довершить вызывающий.
// NeedsSlug: заголовок новый/изменён до первой публикации — вызывающий подбирает
// уникальный slug через slug.Resolve (уникальность проверяется только хранилищем).
type Derived struct {
	NeedsSlug      bool
	ContentChanged bool
	Published      bool
}

// NewInput — поля, которые автор задаёт при создании.
type NewInput struct {
	Title         string
	Content       string
	Excerpt       string
	Tags          []string
	Categories    []string
	FeaturedImage *models.Image
	SEO           models.SEO
}

// New собирает черновик: статус draft, производные поля пересчитаны.
// Slug остаётся пустым — его проставляет вызывающий (Derived.NeedsSlug == true).
func New(id, authorID uuid.UUID, in NewInput, now time.Time) (models.Article, Derived, error) {
	now = now.UTC()
	a := models.Article{
		ID:            id,
		AuthorID:      authorID,
		Title:         strings.TrimSpace(in.Title),
		Content:       in.Content,
		Tags:          in.Tags,
		Categories:    in.Categories,
		FeaturedImage: in.FeaturedImage,
		SEO:           in.SEO,
		Status:        models.StatusDraft,
		CreatedAt:     now,
	}
	setExcerpt(&a, in.Excerpt)

	d := Recompute(&a, nil, now)
	if err := validator.Article(&a); err != nil {
		return models.Article{}, Derived{}, err
	}

	return a, d, nil
}

// Patch — частичное обновление статьи; nil-поля не меняются.
// Excerpt: непустое значение фиксирует ручной анонс, пустая строка возвращает автогенерацию.
// Status: переход выполняется по таблице Transition в том же шаге, что и правки полей;
// статус, равный текущему, не считается переходом (клиент может прислать документ целиком).
// TransitionStatus, в отличие от патча, такой запрос отклоняет.
type Patch struct {
	Title         *string
	Content       *string
	Excerpt       *string
	Tags          *[]string
	Categories    *[]string
	FeaturedImage *models.Image
	SEO           *models.SEO
	Status        *models.Status
	Reason        string
}

// ApplyUpdate применяет Patch от имени actor и одним шагом пересчитывает производные поля,
// чтобы title/content/status из одного запроса дали согласованные slug/excerpt/reading time/published_at.
// Поля может менять автор или модератор; переход статуса проверяется отдельно по таблице.
func ApplyUpdate(a *models.Article, p Patch, actor models.Identity, now time.Time) (Derived, Action, error) {
	if !actor.CanManage(a) {
		return Derived{}, "", fmt.Errorf("update: %w", models.ErrNotAuthorized)
	}

	prev := a.Clone()

	if p.Title != nil {
		a.Title = strings.TrimSpace(*p.Title)
	}

	if p.Content != nil {
		a.Content = *p.Content
	}

	if p.Excerpt != nil {
		setExcerpt(a, *p.Excerpt)
	}

	if p.Tags != nil {
		a.Tags = *p.Tags
	}

	if p.Categories != nil {
		a.Categories = *p.Categories
	}

	if p.FeaturedImage != nil {
		img := *p.FeaturedImage
		a.FeaturedImage = &img
	}

	if p.SEO != nil {
		a.SEO = *p.SEO
	}

	var action Action
	if p.Status != nil && *p.Status != a.Status {
		var err error
		if action, err = Transition(a, *p.Status, actor, p.Reason, now); err != nil {
			*a = prev
			return Derived{}, "", err
		}
	}

	d := Recompute(a, &prev, now)
	if err := validator.Article(a); err != nil {
		*a = prev
		return Derived{}, "", err
	}

	return d, action, nil
}

// Recompute — явный шаг пересчёта производных полей, который вызывает каждый писатель.
// prev == nil означает новый документ.
//
//   - tags/categories нормализуются (lower, trim, без пустых и дублей);
//   - при изменении content: reading time и (если ExcerptAuto) excerpt;
//   - при новом/изменённом title, если до этой правки статья не публиковалась, — NeedsSlug;
//   - published_at выставляется при первом попадании в published;
//   - updated_at = now.
func Recompute(a *models.Article, prev *models.Article, now time.Time) Derived {
	now = now.UTC()
	var d Derived

	a.Tags = NormalizeTerms(a.Tags)
	a.Categories = NormalizeTerms(a.Categories)

	contentChanged := prev == nil || prev.Content != a.Content
	excerptReset := prev != nil && a.ExcerptAuto && !prev.ExcerptAuto
	if contentChanged || excerptReset {
		a.ReadingTimeMinutes = content.ReadingTime(a.Content)
		if a.ExcerptAuto {
			a.Excerpt = content.Excerpt(a.Content)
		}
		d.ContentChanged = contentChanged
	}

	if a.ReadingTimeMinutes < 1 {
		a.ReadingTimeMinutes = 1
	}

	wasPublished := prev != nil && prev.PublishedAt != nil
	titleChanged := prev == nil || prev.Title != a.Title
	if titleChanged && !wasPublished {
		d.NeedsSlug = true
	}

	markPublished(a, now)
	d.Published = a.PublishedAt != nil && !wasPublished

	a.UpdatedAt = now

	return d
}

// NormalizeTerms приводит теги/категории к множеству: lower-case, trim, без пустых,
// дубли удаляются с сохранением порядка первого появления.
func NormalizeTerms(in []string) []string {
	if len(in) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}

		if _, ok := seen[v]; ok {
			continue
		}

		seen[v] = struct{}{}
		out = append(out, v)
	}

	if len(out) == 0 {
		return nil
	}

	return out
}

func setExcerpt(a *models.Article, excerpt string) {
	excerpt = strings.TrimSpace(excerpt)
	if excerpt == "" {
		a.ExcerptAuto = true
		return
	}

	a.ExcerptAuto = false
	a.Excerpt = excerpt
}
