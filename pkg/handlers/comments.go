package handlers

import (
	"net/http"

	"todolis-backend/pkg/config"
	"todolis-backend/pkg/models"
	"todolis-backend/pkg/services"
	"todolis-backend/pkg/utils"

	chiRoute "github.com/go-chi/chi/v5"
)

type CommentsHandler struct {
	config   *config.Config
	comments *services.CommentService
}

func NewCommentsHandler(cfg *config.Config, comments *services.CommentService) *CommentsHandler {
	return &CommentsHandler{config: cfg, comments: comments}
}

// GET /api/goals/{goal_id}/comments
func (h *CommentsHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	list, err := h.comments.ListComments(r.Context(), chiRoute.URLParam(r, "goal_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteSuccessResponse(w, list)
}

// POST /api/goals/{goal_id}/comments
func (h *CommentsHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCommentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := h.comments.AddComment(r.Context(), chiRoute.URLParam(r, "goal_id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteCreatedResponse(w, map[string]interface{}{
		"message": "Comment created successfully.",
		"comment": c,
	})
}

// GET /api/goals/{goal_id}/reactions
func (h *CommentsHandler) ListReactions(w http.ResponseWriter, r *http.Request) {
	list, err := h.comments.ListReactions(r.Context(), chiRoute.URLParam(r, "goal_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteSuccessResponse(w, list)
}

// POST /api/goals/{goal_id}/reactions
func (h *CommentsHandler) AddReaction(w http.ResponseWriter, r *http.Request) {
	var req models.CreateReactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	reaction, err := h.comments.AddReaction(r.Context(), chiRoute.URLParam(r, "goal_id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteCreatedResponse(w, map[string]interface{}{
		"message":  "Reaction created successfully.",
		"reaction": reaction,
	})
}
