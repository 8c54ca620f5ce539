package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/altius/slurm-proxy/internal/common"
	"github.com/altius/slurm-proxy/internal/models"
)

// Reconciler periodically folds the scheduler's view of every tracked job
// back into the store. Terminal jobs are notified and removed; vanished jobs
// are removed without notification. Runs are single-flight: a tick that fires
// while the previous run is still working is skipped.
type Reconciler struct {
	service *Service
	cron    *cron.Cron
	logger  arbor.ILogger

	mu        sync.Mutex
	isRunning bool
}

func NewReconciler(service *Service) *Reconciler {
	return &Reconciler{
		service: service,
		cron:    cron.New(),
		logger:  common.GetLogger(),
	}
}

// Start schedules the reconciliation loop at the polling interval.
func (r *Reconciler) Start(interval time.Duration) error {
	schedule := fmt.Sprintf("@every %s", interval)
	_, err := r.cron.AddFunc(schedule, func() {
		r.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reconciler: %w", err)
	}

	r.cron.Start()
	r.logger.Info().Str("interval", interval.String()).Msg("Job monitor started")
	return nil
}

// Stop halts the loop, waiting for an in-flight run to finish.
func (r *Reconciler) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info().Msg("Job monitor stopped")
}

// RunOnce reconciles every tracked job against the scheduler. Per-job errors
// are logged and do not stop the sweep. Returns false if a previous run was
// still in flight.
func (r *Reconciler) RunOnce(ctx context.Context) bool {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		r.logger.Warn().Msg("Previous monitor run still in flight, skipping")
		return false
	}
	r.isRunning = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.isRunning = false
		r.mu.Unlock()
	}()

	jobs, err := r.service.store.List(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to list tracked jobs")
		return true
	}

	for _, job := range jobs {
		if err := r.reconcileJob(ctx, job); err != nil {
			r.logger.Error().Err(err).Int("job_id", job.JobID).Msg("Failed to reconcile job")
		}
	}
	return true
}

func (r *Reconciler) reconcileJob(ctx context.Context, job *models.TrackedJob) error {
	snap, err := r.service.scheduler.QueryJob(ctx, job.JobID)
	if err != nil {
		return err
	}

	// The scheduler no longer knows the job; stop tracking it.
	if snap == nil {
		r.logger.Warn().Int("job_id", job.JobID).Msg("Job vanished from scheduler, removing")
		_, err := r.service.store.Delete(ctx, job.JobID)
		return err
	}

	if snap.State == job.State {
		return nil
	}

	r.logger.Info().
		Int("job_id", job.JobID).
		Str("old_state", string(job.State)).
		Str("new_state", string(snap.State)).
		Msg("Job state changed")

	if models.IsTerminal(snap.State) {
		// Notify before removal so a crash between the two repeats the
		// notification rather than losing it.
		if err := r.service.notifier.Emit(ctx, job.JobID, job.State, snap.State, job.Task); err != nil {
			return fmt.Errorf("notification failed: %w", err)
		}
		_, err := r.service.store.Delete(ctx, job.JobID)
		return err
	}

	_, err = r.service.store.UpdateState(ctx, job.JobID, snap.State)
	return err
}
