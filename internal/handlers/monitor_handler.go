package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/altius/slurm-proxy/internal/common"
	"github.com/altius/slurm-proxy/internal/models"
	"github.com/altius/slurm-proxy/internal/services/monitor"
)

// MonitorHandler serves the job monitoring endpoints.
type MonitorHandler struct {
	service *monitor.Service
	logger  arbor.ILogger
}

func NewMonitorHandler(service *monitor.Service) *MonitorHandler {
	return &MonitorHandler{
		service: service,
		logger:  common.GetLogger(),
	}
}

type registerRequest struct {
	Job *registerJob `json:"job"`
}

type registerJob struct {
	JobID int         `json:"slurm_job_id"`
	Task  models.Task `json:"task"`
}

// schedulerView is the live scheduler side of a job status response.
type schedulerView struct {
	JobID int          `json:"job_id"`
	State models.State `json:"state"`
}

// RegisterJobHandler handles POST /monitor/, registering an
// externally-submitted job for tracking.
func (h *MonitorHandler) RegisterJobHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Job == nil {
		WriteError(w, http.StatusBadRequest, "No job provided to be monitored")
		return
	}

	if err := h.service.Register(r.Context(), req.Job.JobID, req.Job.Task); err != nil {
		h.logger.Warn().Err(err).Int("job_id", req.Job.JobID).Msg("Job registration failed")
		WriteError(w, http.StatusBadRequest, "Failed to monitor job: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, req.Job)
}

// JobByIDHandler handles GET and DELETE on /monitor/slurm_job_id/<id>.
func (h *MonitorHandler) JobByIDHandler(w http.ResponseWriter, r *http.Request) {
	jobID, ok := h.jobIDFromPath(w, r, "/monitor/slurm_job_id/")
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getJob(w, r, jobID)
	case http.MethodDelete:
		h.deleteJob(w, r, jobID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *MonitorHandler) getJob(w http.ResponseWriter, r *http.Request, jobID int) {
	status, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if status.Scheduler == nil && status.Store == nil {
		WriteError(w, http.StatusNotFound, "Job and monitor information not found")
		return
	}

	state := models.StateUnknown
	if status.Scheduler != nil {
		state = status.Scheduler.State
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"scheduler": schedulerView{JobID: jobID, State: state},
		"store":     status.Store,
	})
}

func (h *MonitorHandler) deleteJob(w http.ResponseWriter, r *http.Request, jobID int) {
	removed, err := h.service.Cancel(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, monitor.ErrNotTracked) {
			WriteError(w, http.StatusNotFound, "Job not found in monitor database")
			return
		}
		h.logger.Warn().Err(err).Int("job_id", jobID).Msg("Job cancellation failed")
		WriteError(w, http.StatusBadRequest, "Job could not be deleted from scheduler: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, removed)
}

// JobByTaskUUIDHandler handles GET /monitor/task_uuid/<uuid>.
func (h *MonitorHandler) JobByTaskUUIDHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	taskUUID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/monitor/task_uuid/"), "/")
	if taskUUID == "" {
		WriteError(w, http.StatusBadRequest, "No task UUID provided")
		return
	}
	if _, err := uuid.Parse(taskUUID); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid task UUID: "+taskUUID)
		return
	}

	record, err := h.service.GetJobByTaskUUID(r.Context(), taskUUID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if record == nil {
		WriteError(w, http.StatusNotFound, "Job monitor information not found")
		return
	}

	status, err := h.service.GetJob(r.Context(), record.JobID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	state := models.StateUnknown
	if status.Scheduler != nil {
		state = status.Scheduler.State
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"scheduler": schedulerView{JobID: record.JobID, State: state},
		"store":     record,
	})
}

// JobsByStateHandler handles GET /monitor/slurm_state/<state>.
func (h *MonitorHandler) JobsByStateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	raw := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/monitor/slurm_state/"), "/")
	state := models.State(raw)
	if !models.IsKnownState(state) {
		WriteError(w, http.StatusBadRequest, "Invalid state key")
		return
	}

	jobs, err := h.service.GetJobsByState(r.Context(), state)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if jobs == nil {
		jobs = []models.JobSnapshot{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": jobs,
	})
}

// StatesHandler handles GET /monitor/slurm_states, returning the canonical
// state reference table.
func (h *MonitorHandler) StatesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"states": models.StateTable(),
	})
}

func (h *MonitorHandler) jobIDFromPath(w http.ResponseWriter, r *http.Request, prefix string) (int, bool) {
	raw := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, prefix), "/")
	jobID, err := strconv.Atoi(raw)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid job id: "+raw)
		return 0, false
	}
	return jobID, true
}
