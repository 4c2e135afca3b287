package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/articles-service/internal/errors"
	"github.com/pribylovaa/articles-service/internal/models"
)

func (h *Handlers) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var in CreateArticleRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	me := identity(r)
	a, err := h.svc.CreateArticle(r.Context(), me, in.toInput())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.Header().Set("Location", "/articles/"+a.ID.String())
	writeJSON(w, http.StatusCreated, articleFromModel(a, me))
}

func (h *Handlers) GetArticleByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	me := identity(r)
	a, err := h.svc.ArticleByID(r.Context(), me, id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, articleFromModel(a, me))
}

// GetArticleBySlug — публичное чтение статьи; засчитывает просмотр.
func (h *Handlers) GetArticleBySlug(w http.ResponseWriter, r *http.Request) {
	me := identity(r)

	a, err := h.svc.ArticleBySlug(r.Context(), me, chi.URLParam(r, "slug"), viewerKey(r, me))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, articleFromModel(a, me))
}

func (h *Handlers) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in UpdateArticleRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	me := identity(r)
	a, err := h.svc.UpdateArticle(r.Context(), me, id, in.toInput())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, articleFromModel(a, me))
}

func (h *Handlers) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in StatusRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	me := identity(r)
	a, err := h.svc.TransitionStatus(r.Context(), me, id, models.Status(in.Status), in.Reason)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, articleFromModel(a, me))
}

func (h *Handlers) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	res, err := h.svc.ToggleLike(r.Context(), identity(r), id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LikeResponse{Liked: res.Liked, Likes: res.Likes})
}

func (h *Handlers) SetFeatured(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in FeaturedRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	me := identity(r)
	a, err := h.svc.SetFeatured(r.Context(), me, id, in.Featured, in.Priority)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, articleFromModel(a, me))
}

func (h *Handlers) SetAdminNotes(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in NotesRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	me := identity(r)
	a, err := h.svc.SetAdminNotes(r.Context(), me, id, in.Notes)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, articleFromModel(a, me))
}
