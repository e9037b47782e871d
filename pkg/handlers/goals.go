package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"todolis-backend/pkg/config"
	"todolis-backend/pkg/models"
	"todolis-backend/pkg/services"
	"todolis-backend/pkg/utils"

	chiRoute "github.com/go-chi/chi/v5"
)

type GoalsHandler struct {
	config *config.Config
	goals  *services.GoalService
}

func NewGoalsHandler(cfg *config.Config, goals *services.GoalService) *GoalsHandler {
	return &GoalsHandler{config: cfg, goals: goals}
}

// POST /api/spaces/{space_id}/goals
func (h *GoalsHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	spaceID := chiRoute.URLParam(r, "space_id")

	var req models.CreateGoalRequest
	if !decodeBody(w, r, &req) {
		return
	}

	goal, err := h.goals.CreateGoal(r.Context(), spaceID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("ETag", etag(goal.Version))
	utils.WriteCreatedResponse(w, map[string]interface{}{
		"message":  fmt.Sprintf("Goal created successfully in space %s with ID: %s", spaceID, goal.ID),
		"space_id": spaceID,
		"goal_id":  goal.ID,
		"goal":     goal,
	})
}

// PUT /api/goals/{goal_id}
// An If-Match header carrying the goal's ETag makes the write conditional.
func (h *GoalsHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	goalID := chiRoute.URLParam(r, "goal_id")

	var patch models.GoalPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	goal, err := h.goals.UpdateGoal(r.Context(), goalID, patch, ifMatch(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("ETag", etag(goal.Version))
	utils.WriteSuccessResponse(w, map[string]interface{}{
		"goal_id": goalID,
		"goal":    goal,
		"message": fmt.Sprintf("Goal with ID %s updated successfully.", goalID),
	})
}

// DELETE /api/goals/{goal_id}
func (h *GoalsHandler) CloseGoal(w http.ResponseWriter, r *http.Request) {
	if err := h.goals.CloseGoal(r.Context(), chiRoute.URLParam(r, "goal_id")); err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteNoContentResponse(w)
}

func etag(version int) string {
	return `"` + strconv.Itoa(version) + `"`
}

// ifMatch returns the version a client expects, 0 when the header is absent
// or "*", and -1 (never stored) when it is not a version at all.
func ifMatch(r *http.Request) int {
	v := strings.TrimSpace(r.Header.Get("If-Match"))
	if v == "" || v == "*" {
		return 0
	}
	v = strings.Trim(strings.TrimPrefix(v, "W/"), `"`)
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return -1
	}
	return n
}
