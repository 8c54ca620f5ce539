package interfaces

import (
	"context"

	"github.com/altius/slurm-proxy/internal/models"
)

// SchedulerClient is the capability surface against the batch scheduler.
// Implementations exist for a remote shell channel and for slurmrestd;
// the backend is selected by configuration at startup.
type SchedulerClient interface {
	// Submit runs the rendered submission command and returns the
	// scheduler-assigned job id, or models.BadJobID with an error.
	Submit(ctx context.Context, command string) (int, error)

	// QueryJob returns the accounting snapshot for a job, or nil when the
	// scheduler no longer recognizes the id.
	QueryJob(ctx context.Context, jobID int) (*models.JobSnapshot, error)

	// QueryJobsByState returns all accounting records in the given state.
	QueryJobsByState(ctx context.Context, state models.State) ([]models.JobSnapshot, error)

	// Cancel removes the job from the scheduler queue; success iff the
	// remote cancellation exits zero.
	Cancel(ctx context.Context, jobID int) error

	// Close releases the underlying channel.
	Close() error
}
