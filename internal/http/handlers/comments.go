package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	apierrors "github.com/pribylovaa/articles-service/internal/errors"
	"github.com/pribylovaa/articles-service/internal/service"
)

func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	me := identity(r)
	nodes, err := h.svc.ListComments(r.Context(), me, id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, CommentsResponse{Items: threadFromModel(nodes, me)})
}

func (h *Handlers) AddComment(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in AddCommentRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var parentID uuid.UUID
	if in.ParentID != "" {
		if parentID, err = uuid.Parse(in.ParentID); err != nil {
			apierrors.WriteError(w, r, fmt.Errorf("parent_id: %w", apierrors.ErrBadRequest))
			return
		}
	}

	me := identity(r)
	c, err := h.svc.AddComment(r.Context(), me, service.AddCommentInput{
		ArticleID: id,
		ParentID:  parentID,
		Content:   in.Content,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, commentFromModel(c, me))
}

func (h *Handlers) EditComment(w http.ResponseWriter, r *http.Request) {
	articleID, commentID, err := commentParams(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in EditCommentRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	me := identity(r)
	c, err := h.svc.EditComment(r.Context(), me, articleID, commentID, in.Content)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, commentFromModel(c, me))
}

func (h *Handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	articleID, commentID, err := commentParams(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.DeleteComment(r.Context(), identity(r), articleID, commentID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ToggleCommentLike(w http.ResponseWriter, r *http.Request) {
	articleID, commentID, err := commentParams(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	res, err := h.svc.ToggleCommentLike(r.Context(), identity(r), articleID, commentID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LikeResponse{Liked: res.Liked, Likes: res.Likes})
}

func commentParams(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	articleID, err := uuidParam(r, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	commentID, err := uuidParam(r, "comment_id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	return articleID, commentID, nil
}
