package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altius/slurm-proxy/internal/models"
	"github.com/altius/slurm-proxy/internal/services/monitor"
	"github.com/altius/slurm-proxy/internal/services/submit"
	"github.com/altius/slurm-proxy/internal/tasks"
)

func newSubmitHandler(store *memStore, scheduler *mockScheduler) *SubmitHandler {
	monitorService := monitor.NewService(store, scheduler, nopNotifier{})
	return NewSubmitHandler(submit.NewService(tasks.NewRegistry(), scheduler, monitorService))
}

const validSubmitBody = `{
  "task": {
    "name": "echo_hello_world",
    "params": ["Hello,", "World!"],
    "uuid": "123e4567-e89b-12d3-a456-426614174000",
    "slurm": {
      "job_name": "hello",
      "output": "out.txt",
      "error": "err.txt",
      "nodes": 1,
      "mem": "2G",
      "cpus_per_task": 1,
      "ntasks_per_node": 1,
      "partition": "batch",
      "time": "00:10:00"
    },
    "dirs": {
      "input": "/scratch/in",
      "output": "/scratch/out",
      "error": "/scratch/err"
    }
  }
}`

func TestSubmitHappyPath(t *testing.T) {
	store := newMemStore()
	var submitted string
	scheduler := &mockScheduler{
		submitFunc: func(ctx context.Context, command string) (int, error) {
			submitted = command
			return 4242, nil
		},
		queryFunc: func(ctx context.Context, jobID int) (*models.JobSnapshot, error) {
			return &models.JobSnapshot{JobID: "4242", State: models.StatePending}, nil
		},
	}
	handler := newSubmitHandler(store, scheduler)

	req := httptest.NewRequest("POST", "/submit/", strings.NewReader(validSubmitBody))
	rec := httptest.NewRecorder()
	handler.SubmitTaskHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		UUID  string `json:"uuid"`
		JobID int    `json:"slurm_job_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "123e4567-e89b-12d3-a456-426614174000", body.UUID)
	assert.Equal(t, 4242, body.JobID)

	assert.Contains(t, submitted, "mkdir -p /scratch/in")
	assert.Contains(t, submitted, "--wrap='echo Hello, World!'")

	record, err := store.Find(context.Background(), 4242)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, models.StatePending, record.State)
	assert.Equal(t, "echo_hello_world", record.Task.Name)
}

func TestSubmitUnregisteredTask(t *testing.T) {
	handler := newSubmitHandler(newMemStore(), &mockScheduler{})

	body := strings.Replace(validSubmitBody, "echo_hello_world", "no_such_task", 1)
	req := httptest.NewRequest("POST", "/submit/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.SubmitTaskHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitMissingUUID(t *testing.T) {
	handler := newSubmitHandler(newMemStore(), &mockScheduler{})

	body := strings.Replace(validSubmitBody, `"uuid": "123e4567-e89b-12d3-a456-426614174000",`, "", 1)
	req := httptest.NewRequest("POST", "/submit/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.SubmitTaskHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitUnknownFieldRejected(t *testing.T) {
	handler := newSubmitHandler(newMemStore(), &mockScheduler{})

	body := strings.Replace(validSubmitBody, `"name":`, `"surprise": true, "name":`, 1)
	req := httptest.NewRequest("POST", "/submit/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.SubmitTaskHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitNoTask(t *testing.T) {
	handler := newSubmitHandler(newMemStore(), &mockScheduler{})

	req := httptest.NewRequest("POST", "/submit/", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.SubmitTaskHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitSchedulerFailure(t *testing.T) {
	scheduler := &mockScheduler{
		submitFunc: func(ctx context.Context, command string) (int, error) {
			return models.BadJobID, assert.AnError
		},
	}
	handler := newSubmitHandler(newMemStore(), scheduler)

	req := httptest.NewRequest("POST", "/submit/", strings.NewReader(validSubmitBody))
	rec := httptest.NewRecorder()
	handler.SubmitTaskHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTasks(t *testing.T) {
	handler := newSubmitHandler(newMemStore(), &mockScheduler{})

	req := httptest.NewRequest("GET", "/submit/tasks", nil)
	rec := httptest.NewRecorder()
	handler.ListTasksHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "echo_hello_world")
}

func TestPing(t *testing.T) {
	handler := NewAPIHandler()

	req := httptest.NewRequest("GET", "/ping", nil)
	rec := httptest.NewRecorder()
	handler.PingHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestPingRejectsPost(t *testing.T) {
	handler := NewAPIHandler()

	req := httptest.NewRequest("POST", "/ping", nil)
	rec := httptest.NewRecorder()
	handler.PingHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
