package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/articles-service/internal/config"
	apierrors "github.com/pribylovaa/articles-service/internal/errors"
	"github.com/pribylovaa/articles-service/internal/models"
	"github.com/pribylovaa/articles-service/pkg/log"
)

// ErrInvalidToken — подпись, срок, issuer/audience или claims токена не прошли проверку.
var ErrInvalidToken = errors.New("invalid token")

type identityKey struct{}

// Claims — access-токен auth-сервиса: uid + роль поверх стандартных claims.
type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator проверяет bearer-токены (HS256, общий секрет с auth-сервисом).
type Authenticator struct {
	secret   []byte
	issuer   string
	audience []string
}

// NewAuthenticator — аутентификатор по секции auth конфигурации.
func NewAuthenticator(cfg config.AuthConfig) *Authenticator {
	return &Authenticator{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}
}

// Parse валидирует токен и возвращает Identity.
// Пустая роль трактуется как models.RoleUser.
func (a *Authenticator) Parse(tokenStr string) (models.Identity, error) {
	const op = "http/middleware/Authenticator.Parse"

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5 * time.Second),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if len(a.audience) > 0 {
		opts = append(opts, jwt.WithAudience(a.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			return a.secret, nil
		},
		opts...,
	)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return models.Identity{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid, err := uuid.Parse(claims.UserID)
	if err != nil || uid == uuid.Nil {
		return models.Identity{}, fmt.Errorf("%s: uid: %w", op, ErrInvalidToken)
	}

	role := models.Role(claims.Role)
	switch role {
	case "":
		role = models.RoleUser
	case models.RoleUser, models.RoleModerator, models.RoleAdmin:
	default:
		return models.Identity{}, fmt.Errorf("%s: role %q: %w", op, claims.Role, ErrInvalidToken)
	}

	return models.Identity{UserID: uid, Role: role}, nil
}

// Auth извлекает Bearer-токен из Authorization и кладёт Identity в контекст,
// а user_id — в request-scoped логгер.
//
// Поведение:
//   - заголовка нет — запрос анонимный (Identity{}), решение о доступе принимает сервис;
//   - заголовок есть, но это не Bearer или токен невалиден — 401 unauthenticated.
func Auth(a *Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				next.ServeHTTP(w, r)
				return
			}

			const prefix = "Bearer "
			token := ""
			if strings.HasPrefix(auth, prefix) {
				token = strings.TrimSpace(auth[len(prefix):])
			}
			if token == "" {
				apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
				return
			}

			id, err := a.Parse(token)
			if err != nil {
				log.From(r.Context()).Warn("auth_token_rejected",
					slog.String("path", r.URL.Path),
					slog.String("err", err.Error()),
				)
				apierrors.WriteError(w, r, fmt.Errorf("%w: %w", apierrors.ErrUnauthenticated, err))
				return
			}

			ctx := WithIdentity(r.Context(), id)
			ctx = log.Into(ctx, log.From(ctx).With(slog.String("user_id", id.UserID.String())))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity отклоняет анонимные запросы с 401 (маршруты записи).
func RequireIdentity() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IdentityFrom(r.Context()).IsAnonymous() {
				apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity кладёт Identity в контекст.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom — Identity из контекста или анонимная.
func IdentityFrom(ctx context.Context) models.Identity {
	id, _ := ctx.Value(identityKey{}).(models.Identity)
	return id
}
