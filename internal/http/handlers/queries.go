package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/articles-service/internal/errors"
	"github.com/pribylovaa/articles-service/internal/models"
)

// ListArticles — GET /articles?sort=recent|trending|featured&tag=&category=&page=&limit=.
func (h *Handlers) ListArticles(w http.ResponseWriter, r *http.Request) {
	p, err := pageParams(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	page, err := h.svc.ListPublished(r.Context(), models.ListQuery{
		Sort:    models.SortMode(r.URL.Query().Get("sort")),
		Filters: filterParams(r),
		Page:    p,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pageFromModel(page, identity(r)))
}

// SearchArticles — GET /articles/search?q=&tag=&category=&page=&limit=.
func (h *Handlers) SearchArticles(w http.ResponseWriter, r *http.Request) {
	p, err := pageParams(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	page, err := h.svc.SearchPublished(r.Context(), models.SearchQuery{
		Text:    r.URL.Query().Get("q"),
		Filters: filterParams(r),
		Page:    p,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pageFromModel(page, identity(r)))
}

func (h *Handlers) ListByAuthor(w http.ResponseWriter, r *http.Request) {
	authorID, err := uuidParam(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	p, err := pageParams(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	me := identity(r)
	page, err := h.svc.ListByAuthor(r.Context(), me, authorID, p)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pageFromModel(page, me))
}

func (h *Handlers) ModerationQueue(w http.ResponseWriter, r *http.Request) {
	p, err := pageParams(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	me := identity(r)
	page, err := h.svc.ModerationQueue(r.Context(), me, p)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pageFromModel(page, me))
}
