package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/pribylovaa/articles-service/internal/errors"
	"github.com/pribylovaa/articles-service/internal/http/middleware"
	"github.com/pribylovaa/articles-service/internal/models"
	"github.com/pribylovaa/articles-service/internal/service"
)

// ArticleService — операции ядра, которые вызывает HTTP-слой (реализует *service.Service).
type ArticleService interface {
	CreateArticle(ctx context.Context, actor models.Identity, in service.CreateInput) (*models.Article, error)
	UpdateArticle(ctx context.Context, actor models.Identity, id uuid.UUID, in service.UpdateInput) (*models.Article, error)
	TransitionStatus(ctx context.Context, actor models.Identity, id uuid.UUID, to models.Status, reason string) (*models.Article, error)
	ArticleByID(ctx context.Context, viewer models.Identity, id uuid.UUID) (*models.Article, error)
	ArticleBySlug(ctx context.Context, viewer models.Identity, slug, viewerKey string) (*models.Article, error)
	SetFeatured(ctx context.Context, actor models.Identity, id uuid.UUID, featured bool, priority int) (*models.Article, error)
	SetAdminNotes(ctx context.Context, actor models.Identity, id uuid.UUID, notes string) (*models.Article, error)

	ToggleLike(ctx context.Context, actor models.Identity, id uuid.UUID) (service.LikeResult, error)
	AddComment(ctx context.Context, actor models.Identity, in service.AddCommentInput) (*models.Comment, error)
	EditComment(ctx context.Context, actor models.Identity, articleID, commentID uuid.UUID, text string) (*models.Comment, error)
	DeleteComment(ctx context.Context, actor models.Identity, articleID, commentID uuid.UUID) error
	ToggleCommentLike(ctx context.Context, actor models.Identity, articleID, commentID uuid.UUID) (service.LikeResult, error)
	ListComments(ctx context.Context, viewer models.Identity, articleID uuid.UUID) ([]models.CommentNode, error)

	ListPublished(ctx context.Context, q models.ListQuery) (*models.ArticlePage, error)
	SearchPublished(ctx context.Context, q models.SearchQuery) (*models.ArticlePage, error)
	ListByAuthor(ctx context.Context, viewer models.Identity, authorID uuid.UUID, p models.PageRequest) (*models.ArticlePage, error)
	ModerationQueue(ctx context.Context, actor models.Identity, p models.PageRequest) (*models.ArticlePage, error)
}

// Handlers агрегирует зависимости HTTP-обработчиков.
type Handlers struct {
	svc ArticleService
}

func New(svc ArticleService) *Handlers {
	return &Handlers{svc: svc}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(value); err != nil {
		return fmt.Errorf("decode body: %w: %w", apierrors.ErrBadRequest, err)
	}

	return nil
}

// uuidParam — UUID из параметра маршрута chi.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("param %s: %w", name, apierrors.ErrBadRequest)
	}

	return id, nil
}

// pageParams разбирает page/limit; отсутствующие значения — 0 (сервис подставит default).
func pageParams(r *http.Request) (models.PageRequest, error) {
	var p models.PageRequest

	page, err := intQuery(r, "page")
	if err != nil {
		return p, err
	}
	limit, err := intQuery(r, "limit")
	if err != nil {
		return p, err
	}

	p.Page, p.Limit = page, limit

	return p, nil
}

func intQuery(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("query %s: %w", name, apierrors.ErrBadRequest)
	}

	return n, nil
}

// filterParams — tag/category: повторяющиеся параметры и/или значения через запятую.
func filterParams(r *http.Request) models.Filters {
	return models.Filters{
		Tags:       multiQuery(r, "tag"),
		Categories: multiQuery(r, "category"),
	}
}

func multiQuery(r *http.Request, name string) []string {
	var out []string
	for _, v := range r.URL.Query()[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}

// viewerKey — ключ дедупликации просмотров: пользователь, а для анонимов — адрес клиента.
func viewerKey(r *http.Request, id models.Identity) string {
	if !id.IsAnonymous() {
		return "u:" + id.UserID.String()
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	return "ip:" + host
}

func identity(r *http.Request) models.Identity {
	return middleware.IdentityFrom(r.Context())
}
