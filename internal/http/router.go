package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/articles-service/internal/errors"
	"github.com/pribylovaa/articles-service/internal/http/handlers"
	"github.com/pribylovaa/articles-service/internal/http/middleware"
	"github.com/pribylovaa/articles-service/internal/models"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc handlers.ArticleService, auth *middleware.Authenticator, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Metrics(),            // метрики по шаблону маршрута
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Auth(auth),           // Identity из bearer-токена; 401 попадает в лог запроса
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	root.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apierrors.WriteError(w, r, models.ErrNotFound)
	})

	h := handlers.New(svc)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
// Маршруты записи требуют аутентификации (401), права проверяет сервис (403).
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	// чтение
	r.Get("/articles", h.ListArticles)
	r.Get("/articles/search", h.SearchArticles)
	r.Get("/articles/slug/{slug}", h.GetArticleBySlug)
	r.Get("/articles/{id}", h.GetArticleByID)
	r.Get("/articles/{id}/comments", h.ListComments)
	r.Get("/authors/{id}/articles", h.ListByAuthor)

	// запись
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireIdentity())

		r.Post("/articles", h.CreateArticle)
		r.Patch("/articles/{id}", h.UpdateArticle)
		r.Post("/articles/{id}/status", h.TransitionStatus)
		r.Post("/articles/{id}/like", h.ToggleLike)
		r.Put("/articles/{id}/featured", h.SetFeatured)
		r.Put("/articles/{id}/notes", h.SetAdminNotes)

		r.Post("/articles/{id}/comments", h.AddComment)
		r.Patch("/articles/{id}/comments/{comment_id}", h.EditComment)
		r.Delete("/articles/{id}/comments/{comment_id}", h.DeleteComment)
		r.Post("/articles/{id}/comments/{comment_id}/like", h.ToggleCommentLike)

		r.Get("/moderation/queue", h.ModerationQueue)
	})
}
