// errors стандартизирует ответы об ошибках HTTP-слоя articles-service.
// На вход принимает ошибку сервиса/ядра (сравнение через errors.Is/As),
// на выход даёт:
//   - корректный HTTP-статус;
//   - стабильный машиночитаемый code и безопасное message без утечки деталей;
//   - детали по полям для ошибок валидации и from/to для недопустимых переходов.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/articles-service/internal/models"
	"github.com/pribylovaa/articles-service/internal/service"
	"github.com/pribylovaa/articles-service/internal/validator"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// ErrUnauthenticated — нет или невалиден bearer-токен (401).
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrBadRequest — запрос не разобран на транспортном уровне (битый JSON, UUID, query).
var ErrBadRequest = errors.New("bad request")

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
// Fields — ошибки по полям (validation_failed).
// From/To — текущий и запрошенный статус (invalid_transition).
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	RequestID string            `json:"request_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	From      string            `json:"from,omitempty"`
	To        string            `json:"to,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil — программная ошибка вызова: 500/internal, чтобы не послать "200 OK" с телом ошибки;
//   - models.ErrValidation -> 400 validation_failed (+fields);
//   - service.ErrInvalidArgument, ErrBadRequest -> 400 invalid_argument;
//   - ErrUnauthenticated -> 401; models.ErrNotAuthorized -> 403;
//   - models.ErrNotFound -> 404 not_found; models.ErrCommentNotFound -> 404 comment_not_found;
//   - models.ErrSlugCollision -> 409 slug_collision;
//   - models.ErrInvalidTransition -> 409 invalid_transition (+from/to);
//   - service.ErrConcurrentUpdate -> 409 concurrent_update;
//   - context.Canceled -> 499; context.DeadlineExceeded -> 504;
//   - прочее -> 500/internal.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return internal()
	}

	var te *models.TransitionError

	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, ErrorResponse{Error: APIError{
			Code:    "validation_failed",
			Message: "validation failed",
			Fields:  validator.Fields(err),
		}}
	case errors.Is(err, service.ErrInvalidArgument), errors.Is(err, ErrBadRequest):
		return resp(http.StatusBadRequest, "invalid_argument", "invalid argument")
	case errors.Is(err, ErrUnauthenticated):
		return resp(http.StatusUnauthorized, "unauthenticated", "unauthenticated")
	case errors.Is(err, models.ErrNotAuthorized):
		return resp(http.StatusForbidden, "permission_denied", "permission denied")
	case errors.Is(err, models.ErrCommentNotFound):
		return resp(http.StatusNotFound, "comment_not_found", "comment not found")
	case errors.Is(err, models.ErrNotFound):
		return resp(http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, models.ErrSlugCollision):
		return resp(http.StatusConflict, "slug_collision", "slug already taken")
	case errors.As(err, &te):
		return http.StatusConflict, ErrorResponse{Error: APIError{
			Code:    "invalid_transition",
			Message: "status transition not allowed",
			From:    string(te.From),
			To:      string(te.To),
		}}
	case errors.Is(err, models.ErrInvalidTransition):
		return resp(http.StatusConflict, "invalid_transition", "status transition not allowed")
	case errors.Is(err, service.ErrConcurrentUpdate):
		return resp(http.StatusConflict, "concurrent_update", "article is being modified, retry")
	case errors.Is(err, context.Canceled):
		return resp(StatusClientClosedRequest, "canceled", "canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return resp(http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded")
	default:
		return internal()
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func resp(status int, code, msg string) (int, ErrorResponse) {
	return status, ErrorResponse{Error: APIError{Code: code, Message: msg}}
}

func internal() (int, ErrorResponse) {
	return resp(http.StatusInternalServerError, "internal", "internal error")
}
