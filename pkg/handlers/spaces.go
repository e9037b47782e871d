package handlers

import (
	"errors"
	"net/http"

	"todolis-backend/pkg/config"
	"todolis-backend/pkg/models"
	"todolis-backend/pkg/services"
	"todolis-backend/pkg/utils"

	chiRoute "github.com/go-chi/chi/v5"
)

type SpacesHandler struct {
	config *config.Config
	svc    *services.Services
}

func NewSpacesHandler(cfg *config.Config, svc *services.Services) *SpacesHandler {
	return &SpacesHandler{config: cfg, svc: svc}
}

// POST /api/spaces
func (h *SpacesHandler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSpaceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := h.svc.Spaces.CreateSpace(r.Context(), req.Title, req.Members)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteCreatedResponse(w, map[string]interface{}{
		"space_id":   created.SpaceID,
		"view_token": created.ViewToken,
		"edit_token": created.EditToken,
		"message":    "Group created successfully.",
	})
}

// GET /api/spaces/{space_id}
func (h *SpacesHandler) GetSpace(w http.ResponseWriter, r *http.Request) {
	space, err := h.svc.Spaces.GetSpace(r.Context(), chiRoute.URLParam(r, "space_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteSuccessResponse(w, space)
}

// PUT /api/spaces/{space_id}  (edit token)
func (h *SpacesHandler) UpdateSpace(w http.ResponseWriter, r *http.Request) {
	var patch models.SpacePatch
	if !decodeBody(w, r, &patch) {
		return
	}

	updated, err := h.svc.Spaces.UpdateSpace(r.Context(), chiRoute.URLParam(r, "space_id"), utils.SpaceToken(r), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{
		"space":   updated.Space,
		"members": updated.Members,
		"message": "Space updated successfully.",
	})
}

// GET /api/spaces/{space_id}/summary  (view token, enforced by middleware)
func (h *SpacesHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	progress, err := h.svc.Summaries.Progress(r.Context(), chiRoute.URLParam(r, "space_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteSuccessResponse(w, progress)
}

// GET /api/spaces/{space_id}/permission
func (h *SpacesHandler) GetPermission(w http.ResponseWriter, r *http.Request) {
	spaceID := chiRoute.URLParam(r, "space_id")
	token := utils.SpaceToken(r)
	if token == "" {
		utils.WriteUnauthorizedResponse(w, services.ErrUnauthorized.Error())
		return
	}

	result, err := h.svc.Auth.Validate(r.Context(), spaceID, token)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteSuccessResponse(w, result)
}

// GET /api/goals/list/{space_id}
func (h *SpacesHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	spaceID := chiRoute.URLParam(r, "space_id")
	summary, err := h.svc.Summaries.Summary(r.Context(), spaceID)

	var empty *services.EmptyResultError
	if errors.As(err, &empty) {
		utils.WriteSuccessResponse(w, map[string]interface{}{
			"space_id": spaceID,
			"error":    empty.Error(),
		})
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteSuccessResponse(w, summary)
}
