package monitor

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/altius/slurm-proxy/internal/common"
	"github.com/altius/slurm-proxy/internal/interfaces"
	"github.com/altius/slurm-proxy/internal/models"
)

// ErrNotTracked is returned for operations on job ids with no monitor record.
var ErrNotTracked = errors.New("job is not tracked")

// Service owns the monitored-job lifecycle: registration, queries, and
// cancellation. The store holds one record per job id; records leave the
// store when the job reaches a terminal state or is cancelled.
type Service struct {
	store     interfaces.JobStore
	scheduler interfaces.SchedulerClient
	notifier  interfaces.Notifier
	logger    arbor.ILogger
}

func NewService(store interfaces.JobStore, scheduler interfaces.SchedulerClient, notifier interfaces.Notifier) *Service {
	return &Service{
		store:     store,
		scheduler: scheduler,
		notifier:  notifier,
		logger:    common.GetLogger(),
	}
}

// Register starts monitoring a job. The scheduler must confirm the job id;
// registration fails when it has no accounting record for it, so a record
// exists only for jobs the scheduler accepted. The confirmed state seeds the
// record. A job already terminal at registration is notified immediately and
// never stored. Registering an id that is already tracked is a no-op.
func (s *Service) Register(ctx context.Context, jobID int, task models.Task) error {
	if jobID == models.BadJobID {
		return fmt.Errorf("invalid job id %d", jobID)
	}

	snap, err := s.scheduler.QueryJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("could not confirm job %d with scheduler: %w", jobID, err)
	}
	if snap == nil {
		return fmt.Errorf("job %d is unknown to the scheduler", jobID)
	}
	state := snap.State

	if models.IsTerminal(state) {
		s.logger.Info().Int("job_id", jobID).Str("state", string(state)).Msg("Job already terminal at registration")
		if err := s.notifier.Emit(ctx, jobID, models.StateUnknown, state, task); err != nil {
			s.logger.Warn().Err(err).Int("job_id", jobID).Msg("Notification failed")
		}
		return nil
	}

	inserted, err := s.store.Insert(ctx, &models.TrackedJob{
		JobID: jobID,
		State: state,
		Task:  task,
	})
	if err != nil {
		return fmt.Errorf("failed to register job %d: %w", jobID, err)
	}
	if !inserted {
		s.logger.Warn().Int("job_id", jobID).Msg("Job already registered")
		return nil
	}

	s.logger.Info().
		Int("job_id", jobID).
		Str("task", task.Name).
		Str("state", string(state)).
		Msg("Job registered for monitoring")
	return nil
}

// JobStatus pairs the live scheduler view of a job with its monitor record.
// Either side may be absent.
type JobStatus struct {
	Scheduler *models.JobSnapshot `json:"scheduler"`
	Store     *models.TrackedJob  `json:"store"`
}

// GetJob returns the scheduler snapshot and the monitor record for a job id.
// Both nil means the job is unknown on both sides.
func (s *Service) GetJob(ctx context.Context, jobID int) (*JobStatus, error) {
	snap, err := s.scheduler.QueryJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query job %d: %w", jobID, err)
	}
	record, err := s.store.Find(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &JobStatus{Scheduler: snap, Store: record}, nil
}

// GetJobByTaskUUID returns the monitor record holding the task uuid, or nil.
func (s *Service) GetJobByTaskUUID(ctx context.Context, taskUUID string) (*models.TrackedJob, error) {
	return s.store.FindByTaskUUID(ctx, taskUUID)
}

// GetJobsByState returns all scheduler accounting records in a canonical
// state.
func (s *Service) GetJobsByState(ctx context.Context, state models.State) ([]models.JobSnapshot, error) {
	if !models.IsKnownState(state) {
		return nil, fmt.Errorf("unknown state %q", state)
	}
	return s.scheduler.QueryJobsByState(ctx, state)
}

// ListTracked returns every monitor record.
func (s *Service) ListTracked(ctx context.Context) ([]*models.TrackedJob, error) {
	return s.store.List(ctx)
}

// Cancel removes a tracked job from the scheduler queue and from the store,
// returning the removed record. Untracked ids fail with ErrNotTracked before
// any scheduler call. A failed scheduler cancellation leaves the record in
// place for the reconciler.
func (s *Service) Cancel(ctx context.Context, jobID int) (*models.TrackedJob, error) {
	record, err := s.store.Find(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNotTracked
	}

	if err := s.scheduler.Cancel(ctx, jobID); err != nil {
		return nil, fmt.Errorf("failed to cancel job %d: %w", jobID, err)
	}

	removed, err := s.store.DeleteAndReturn(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if removed == nil {
		// The reconciler won the race; the cancellation still succeeded.
		return record, nil
	}

	s.logger.Info().Int("job_id", jobID).Msg("Job cancelled and removed from monitoring")
	return removed, nil
}
