// Package lifecycle — машина состояний публикации и явный пересчёт производных полей.
//
// Таблица переходов (from -> to: действие, кто):
//
//	draft     -> pending   : submit  — автор или модератор
//	pending   -> published : approve — модератор; published_at ставится только если пуст
//	pending   -> rejected  : reject  — модератор; обязателен rejection_reason
//	published -> hidden    : hide    — модератор
//	hidden    -> published : unhide  — модератор; published_at не меняется
//	rejected  -> draft     : revise  — автор или модератор; rejection_reason очищается
//
// Всё остальное — *models.TransitionError (errors.Is(err, models.ErrInvalidTransition)).
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/pribylovaa/articles-service/internal/models"
	"github.com/pribylovaa/articles-service/internal/validator"
)

// Action — название перехода (для логов и метрик).
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionHide    Action = "hide"
	ActionUnhide  Action = "unhide"
	ActionRevise  Action = "revise"
)

type rule struct {
	action        Action
	moderatorOnly bool
}

var transitions = map[models.Status]map[models.Status]rule{
	models.StatusDraft: {
		models.StatusPending: {action: ActionSubmit},
	},
	models.StatusPending: {
		models.StatusPublished: {action: ActionApprove, moderatorOnly: true},
		models.StatusRejected:  {action: ActionReject, moderatorOnly: true},
	},
	models.StatusPublished: {
		models.StatusHidden: {action: ActionHide, moderatorOnly: true},
	},
	models.StatusHidden: {
		models.StatusPublished: {action: ActionUnhide, moderatorOnly: true},
	},
	models.StatusRejected: {
		models.StatusDraft: {action: ActionRevise},
	},
}

// Allowed сообщает, есть ли переход в таблице, и возвращает его действие.
func Allowed(from, to models.Status) (Action, bool) {
	r, ok := transitions[from][to]
	return r.action, ok
}

// Transition переводит статью в статус to от имени actor.
//
// Порядок проверок:
//  1. переход есть в таблице, иначе *models.TransitionError;
//  2. actor имеет право (модератор; для submit/revise — ещё и автор), иначе models.ErrNotAuthorized;
//  3. для reject — непустой reason, иначе models.ErrValidation.
//
// Побочные эффекты: approve ставит PublishedAt = now, только если он пуст;
// reject сохраняет reason; revise очищает RejectionReason.
func Transition(a *models.Article, to models.Status, actor models.Identity, reason string, now time.Time) (Action, error) {
	r, ok := transitions[a.Status][to]
	if !ok {
		return "", &models.TransitionError{From: a.Status, To: to}
	}

	if r.moderatorOnly && !actor.IsModerator() {
		return "", fmt.Errorf("%s requires moderator: %w", r.action, models.ErrNotAuthorized)
	}

	if !r.moderatorOnly && !actor.CanManage(a) {
		return "", fmt.Errorf("%s requires author or moderator: %w", r.action, models.ErrNotAuthorized)
	}

	switch r.action {
	case ActionReject:
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return "", validator.Field("rejection_reason", "rejection_reason_required", "rejection reason is required")
		}
		a.RejectionReason = reason
	case ActionRevise:
		a.RejectionReason = ""
	}

	a.Status = to
	markPublished(a, now)

	return r.action, nil
}

// markPublished выставляет PublishedAt при первом попадании в published.
func markPublished(a *models.Article, now time.Time) {
	if a.Status == models.StatusPublished && a.PublishedAt == nil {
		t := now.UTC()
		a.PublishedAt = &t
	}
}
