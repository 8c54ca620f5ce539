package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/altius/slurm-proxy/internal/common"
	"github.com/altius/slurm-proxy/internal/models"
	"github.com/altius/slurm-proxy/internal/services/submit"
)

// SubmitHandler serves the task submission endpoints.
type SubmitHandler struct {
	service *submit.Service
	logger  arbor.ILogger
}

func NewSubmitHandler(service *submit.Service) *SubmitHandler {
	return &SubmitHandler{
		service: service,
		logger:  common.GetLogger(),
	}
}

type submitRequest struct {
	Task *models.Task `json:"task"`
}

// SubmitTaskHandler handles POST /submit/. The body carries the task
// envelope; unknown fields are rejected.
func (h *SubmitHandler) SubmitTaskHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req submitRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Task == nil {
		WriteError(w, http.StatusBadRequest, "No task provided")
		return
	}

	jobID, err := h.service.Submit(r.Context(), req.Task)
	if err != nil {
		h.logger.Warn().Err(err).Str("task", req.Task.Name).Msg("Task submission rejected")
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"uuid":         req.Task.UUID,
		"slurm_job_id": jobID,
	})
}

// ListTasksHandler handles GET /submit/tasks, returning the task registry.
func (h *SubmitHandler) ListTasksHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": h.service.Tasks(),
	})
}
