package handler

import (
	"net/http"

	"blog_api/internal/api/middleware"
	"blog_api/internal/app/service"
	"blog_api/internal/common"

	"github.com/go-chi/chi/v5"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(cs *service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: cs}
}

func (h *CommentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/post/{postId}", h.listByPost)

	r.Group(func(authRouter chi.Router) {
		authRouter.Use(middleware.Authenticator)
		authRouter.Post("/", h.createComment)
		authRouter.Patch("/{id}", h.updateComment)
		authRouter.Delete("/{id}", h.deleteComment)
	})
}

func (h *CommentHandler) listByPost(w http.ResponseWriter, r *http.Request) {
	comments, err := h.commentService.FindAllByPost(r.Context(), chi.URLParam(r, "postId"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, comments)
}

func (h *CommentHandler) createComment(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var req service.CreateCommentRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	comment, err := h.commentService.Create(r.Context(), req, actor)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, comment)
}

func (h *CommentHandler) updateComment(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var req service.UpdateCommentRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	comment, err := h.commentService.Update(r.Context(), chi.URLParam(r, "id"), req, actor)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, comment)
}

func (h *CommentHandler) deleteComment(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	if err := h.commentService.Remove(r.Context(), chi.URLParam(r, "id"), actor); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
