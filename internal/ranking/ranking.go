// Package ranking — упорядочивание, фильтрация и релевантный поиск по опубликованным статьям.
//
// Функции чистые и работают над снимком статей; хранилище в памяти использует их
// напрямую, остальные бэкенды воспроизводят тот же контракт своими средствами.
package ranking

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/pribylovaa/articles-service/internal/content"
	"github.com/pribylovaa/articles-service/internal/models"
)

// Веса полей поиска. Порядок весов — часть контракта: совпадение в заголовке
// всегда выше совпадения только в тексте.
const (
	TitleWeight    = 10.0
	ExcerptWeight  = 5.0
	TagWeight      = 3.0
	CategoryWeight = 2.0
	ContentWeight  = 1.0

	// MaxQueryTokens — сколько различных токенов запроса учитывается.
	// При 8 токенах минимальный вклад заголовка 10/8 > максимального вклада content.
	MaxQueryTokens = 8
)

// Filter оставляет опубликованные статьи, прошедшие фильтры по тегам и категориям.
func Filter(in []models.Article, f models.Filters) []models.Article {
	tags := normalize(f.Tags)
	cats := normalize(f.Categories)

	out := make([]models.Article, 0, len(in))
	for i := range in {
		a := &in[i]
		if a.Status != models.StatusPublished {
			continue
		}

		if !anyOf(a.Tags, tags) || !anyOf(a.Categories, cats) {
			continue
		}

		out = append(out, *a)
	}

	return out
}

// Sort упорядочивает статьи по режиму mode (на месте) и возвращает результат.
// Для SortFeatured нерекомендованные статьи отбрасываются.
func Sort(in []models.Article, mode models.SortMode) []models.Article {
	switch mode {
	case models.SortTrending:
		sort.SliceStable(in, func(i, j int) bool {
			if in[i].TrendingScore != in[j].TrendingScore {
				return in[i].TrendingScore > in[j].TrendingScore
			}
			return newer(&in[i], &in[j])
		})
	case models.SortFeatured:
		out := in[:0]
		for _, a := range in {
			if a.IsFeatured {
				out = append(out, a)
			}
		}
		in = out
		sort.SliceStable(in, func(i, j int) bool {
			if in[i].Priority != in[j].Priority {
				return in[i].Priority > in[j].Priority
			}
			return newer(&in[i], &in[j])
		})
	default:
		sort.SliceStable(in, func(i, j int) bool { return newer(&in[i], &in[j]) })
	}

	return in
}

// List — Filter + Sort + Paginate для ListQuery.
func List(in []models.Article, q models.ListQuery) models.ArticlePage {
	items := Sort(Filter(in, q.Filters), q.Sort)

	return Paginate(items, q.Page)
}

// Search ранжирует опубликованные статьи по релевантности запросу.
// Статьи с нулевой релевантностью не попадают в выдачу; при равенстве — published_at DESC.
func Search(in []models.Article, q models.SearchQuery) models.ArticlePage {
	tokens := QueryTokens(q.Text)
	if len(tokens) == 0 {
		return Paginate(nil, q.Page)
	}

	type scored struct {
		a     models.Article
		score float64
	}

	candidates := Filter(in, q.Filters)
	hits := make([]scored, 0, len(candidates))
	for i := range candidates {
		if s := Relevance(&candidates[i], tokens); s > 0 {
			hits = append(hits, scored{a: candidates[i], score: s})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return newer(&hits[i].a, &hits[j].a)
	})

	items := make([]models.Article, len(hits))
	for i := range hits {
		items[i] = hits[i].a
	}

	return Paginate(items, q.Page)
}

// Relevance — взвешенное покрытие токенов запроса: сумма по полям
// weight * (совпавших токенов / токенов запроса).
func Relevance(a *models.Article, tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}

	fields := []struct {
		weight float64
		set    map[string]struct{}
	}{
		{TitleWeight, tokenSet(a.Title)},
		{ExcerptWeight, tokenSet(a.Excerpt)},
		{TagWeight, tokenSet(strings.Join(a.Tags, " "))},
		{CategoryWeight, tokenSet(strings.Join(a.Categories, " "))},
		{ContentWeight, tokenSet(content.PlainText(a.Content))},
	}

	n := float64(len(tokens))
	var score float64
	for _, f := range fields {
		matched := 0
		for _, t := range tokens {
			if _, ok := f.set[t]; ok {
				matched++
			}
		}
		score += f.weight * float64(matched) / n
	}

	return score
}

// QueryTokens — первые MaxQueryTokens различных токенов запроса.
func QueryTokens(q string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, MaxQueryTokens)
	for _, t := range Tokenize(q) {
		if _, ok := seen[t]; ok {
			continue
		}

		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == MaxQueryTokens {
			break
		}
	}

	return out
}

// Tokenize режет строку на токены lower-case по границам букв и цифр.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Paginate вырезает страницу и снимает поля модерации.
// Page <= 0 трактуется как 1; Limit <= 0 — без ограничения.
func Paginate(items []models.Article, p models.PageRequest) models.ArticlePage {
	if p.Page < 1 {
		p.Page = 1
	}

	page := models.ArticlePage{Page: p.Page, Limit: p.Limit, Items: []models.Article{}}

	start, end := 0, len(items)
	if p.Limit > 0 {
		start = p.Offset()
		if start > len(items) {
			start = len(items)
		}
		if end = start + p.Limit; end > len(items) {
			end = len(items)
		}
	}

	page.HasMore = end < len(items)
	for i := start; i < end; i++ {
		page.Items = append(page.Items, items[i].Public())
	}

	return page
}

func tokenSet(s string) map[string]struct{} {
	tokens := Tokenize(s)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}

	return set
}

// newer — a опубликована позже b. Статьи без даты публикации — в конце;
// при равных датах порядок по id, чтобы выдача была детерминированной.
func newer(a, b *models.Article) bool {
	ta, tb := publishedAt(a), publishedAt(b)
	if !ta.Equal(tb) {
		return ta.After(tb)
	}

	return a.ID.String() < b.ID.String()
}

func publishedAt(a *models.Article) time.Time {
	if a.PublishedAt == nil {
		return time.Time{}
	}

	return *a.PublishedAt
}

func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}

	return out
}

// anyOf — want пуст или хотя бы одно значение из want есть в have.
func anyOf(have, want []string) bool {
	if len(want) == 0 {
		return true
	}

	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}

	return false
}
