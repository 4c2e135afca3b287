// Package search — полнотекстовый индекс опубликованных статей на bleve.
//
// Индекс хранит только опубликованные статьи; документ без статуса published
// при индексации удаляется. bleve отбирает все совпадения, итоговый порядок задаёт
// ranking.Relevance (title 10, excerpt 5, tags 3, categories 2, content 1):
// TF-IDF bleve не гарантирует, что совпадение в заголовке выше совпадения в тексте.
// При равной релевантности — published_at DESC.
package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/google/uuid"

	"github.com/pribylovaa/articles-service/internal/content"
	"github.com/pribylovaa/articles-service/internal/models"
	"github.com/pribylovaa/articles-service/internal/ranking"
	"github.com/pribylovaa/articles-service/internal/storage"
)

const (
	batchSize = 500
	// searchBatch — размер порции совпадений, выбираемых из bleve за один запрос.
	searchBatch = 1000
)

var storedFields = []string{"Title", "Excerpt", "Content", "Tags", "Categories", "PublishedAt"}

// Index — обёртка над bleve.Index.
type Index struct {
	index bleve.Index
}

// indexedDocument — представление статьи в индексе.
type indexedDocument struct {
	Title       string
	Excerpt     string
	Content     string
	Tags        []string
	Categories  []string
	PublishedAt time.Time
}

// Hits — страница результатов: id статей в порядке релевантности.
type Hits struct {
	IDs     []uuid.UUID
	HasMore bool
}

// Open открывает индекс по пути или создаёт новый; пустой path — индекс в памяти.
func Open(path string) (*Index, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create mem index: %w", err)
		}

		return &Index{index: idx}, nil
	}

	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	return &Index{index: idx}, nil
}

// buildIndexMapping: текстовые поля со стандартным анализатором,
// теги и категории — keyword (точное совпадение для фильтров и поиска по токену).
func buildIndexMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = "standard"
	text.Store = true

	keyword := bleve.NewKeywordFieldMapping()
	keyword.Store = true

	date := bleve.NewDateTimeFieldMapping()

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("Title", text)
	docMapping.AddFieldMappingsAt("Excerpt", text)
	docMapping.AddFieldMappingsAt("Content", text)
	docMapping.AddFieldMappingsAt("Tags", keyword)
	docMapping.AddFieldMappingsAt("Categories", keyword)
	docMapping.AddFieldMappingsAt("PublishedAt", date)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = "standard"

	return indexMapping
}

// Close закрывает индекс.
func (i *Index) Close() error {
	return i.index.Close()
}

// Put индексирует опубликованную статью или удаляет из индекса неопубликованную.
func (i *Index) Put(_ context.Context, a models.Article) error {
	if a.Status != models.StatusPublished {
		return i.index.Delete(a.ID.String())
	}

	if err := i.index.Index(a.ID.String(), toDocument(&a)); err != nil {
		return fmt.Errorf("index %s: %w", a.ID, err)
	}

	return nil
}

// Delete убирает статью из индекса.
func (i *Index) Delete(_ context.Context, id uuid.UUID) error {
	return i.index.Delete(id.String())
}

// Search выполняет запрос и возвращает страницу id.
func (i *Index) Search(ctx context.Context, q models.SearchQuery, limit int) (Hits, error) {
	tokens := ranking.QueryTokens(q.Text)
	if len(tokens) == 0 || limit <= 0 {
		return Hits{}, nil
	}

	candidates, err := i.matches(ctx, buildQuery(q, tokens))
	if err != nil {
		return Hits{}, err
	}

	p := q.Page
	p.Limit = limit

	page := ranking.Search(candidates, models.SearchQuery{Text: q.Text, Page: p})

	hits := Hits{IDs: make([]uuid.UUID, 0, len(page.Items)), HasMore: page.HasMore}
	for _, a := range page.Items {
		hits.IDs = append(hits.IDs, a.ID)
	}

	return hits, nil
}

// matches выбирает все совпадения порциями по searchBatch. Переранжируется весь набор,
// поэтому ни одно совпадение не теряется за пределами первой порции.
func (i *Index) matches(ctx context.Context, qr query.Query) ([]models.Article, error) {
	var out []models.Article

	for from := 0; ; from += searchBatch {
		req := bleve.NewSearchRequestOptions(qr, searchBatch, from, false)
		req.Fields = storedFields
		req.SortBy([]string{"-_score", "-PublishedAt", "_id"})

		res, err := i.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}

		if out == nil {
			out = make([]models.Article, 0, res.Total)
		}

		for _, h := range res.Hits {
			id, err := uuid.Parse(h.ID)
			if err != nil {
				continue
			}
			out = append(out, fromFields(id, h.Fields))
		}

		if len(res.Hits) < searchBatch || uint64(from+len(res.Hits)) >= res.Total {
			return out, nil
		}
	}
}

// IndexFromStorage перестраивает индекс по всем опубликованным статьям хранилища.
func (i *Index) IndexFromStorage(ctx context.Context, st storage.Storage) (int, error) {
	batch := i.index.NewBatch()
	total := 0

	err := st.ForEachPublished(ctx, func(a models.Article) error {
		if err := batch.Index(a.ID.String(), toDocument(&a)); err != nil {
			return fmt.Errorf("batch index %s: %w", a.ID, err)
		}
		total++

		if batch.Size() >= batchSize {
			if err := i.index.Batch(batch); err != nil {
				return fmt.Errorf("commit batch: %w", err)
			}
			batch.Reset()
		}

		return nil
	})
	if err != nil {
		return total, err
	}

	if batch.Size() > 0 {
		if err := i.index.Batch(batch); err != nil {
			return total, fmt.Errorf("commit batch: %w", err)
		}
	}

	return total, nil
}

// Count возвращает число документов в индексе.
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}

func toDocument(a *models.Article) indexedDocument {
	doc := indexedDocument{
		Title:      a.Title,
		Excerpt:    a.Excerpt,
		Content:    content.PlainText(a.Content),
		Tags:       a.Tags,
		Categories: a.Categories,
	}

	if a.PublishedAt != nil {
		doc.PublishedAt = *a.PublishedAt
	}

	return doc
}

// fromFields восстанавливает из сохранённых полей ровно то, что нужно для ранжирования.
func fromFields(id uuid.UUID, fields map[string]interface{}) models.Article {
	a := models.Article{
		ID:         id,
		Status:     models.StatusPublished,
		Title:      stringField(fields["Title"]),
		Excerpt:    stringField(fields["Excerpt"]),
		Content:    stringField(fields["Content"]),
		Tags:       stringsField(fields["Tags"]),
		Categories: stringsField(fields["Categories"]),
	}

	switch v := fields["PublishedAt"].(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			a.PublishedAt = &t
		} else if ns, err := strconv.ParseInt(v, 10, 64); err == nil {
			// дата без layout хранится как unix nanos
			t := time.Unix(0, ns).UTC()
			a.PublishedAt = &t
		}
	case time.Time:
		a.PublishedAt = &v
	}

	return a
}

func stringField(v interface{}) string {
	s, _ := v.(string)
	return s
}

// stringsField: многозначное поле приходит как []interface{}, одиночное — как string.
func stringsField(v interface{}) []string {
	switch v := v.(type) {
	case string:
		return []string{v}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}

	return nil
}

// buildQuery: дизъюнкция взвешенных совпадений по полям, в конъюнкции с фильтрами.
func buildQuery(q models.SearchQuery, tokens []string) query.Query {
	var should []query.Query

	for _, f := range []struct {
		field string
		boost float64
	}{
		{"Title", ranking.TitleWeight},
		{"Excerpt", ranking.ExcerptWeight},
		{"Content", ranking.ContentWeight},
	} {
		for _, t := range tokens {
			mq := bleve.NewMatchQuery(t)
			mq.SetField(f.field)
			mq.SetBoost(f.boost)
			should = append(should, mq)
		}
	}

	for _, t := range tokens {
		should = append(should,
			termQuery("Tags", t, ranking.TagWeight),
			termQuery("Categories", t, ranking.CategoryWeight),
		)
	}

	must := []query.Query{bleve.NewDisjunctionQuery(should...)}

	if f := anyTerm("Tags", q.Filters.Tags); f != nil {
		must = append(must, f)
	}

	if f := anyTerm("Categories", q.Filters.Categories); f != nil {
		must = append(must, f)
	}

	return bleve.NewConjunctionQuery(must...)
}

func termQuery(field, term string, boost float64) query.Query {
	tq := bleve.NewTermQuery(term)
	tq.SetField(field)
	tq.SetBoost(boost)

	return tq
}

// anyTerm — OR по точным значениям одного измерения фильтра; nil, если фильтр пуст.
func anyTerm(field string, values []string) query.Query {
	var qs []query.Query
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			qs = append(qs, termQuery(field, v, 1))
		}
	}

	if len(qs) == 0 {
		return nil
	}

	return bleve.NewDisjunctionQuery(qs...)
}
