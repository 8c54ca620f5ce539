package interfaces

import (
	"context"

	"github.com/altius/slurm-proxy/internal/models"
)

// JobStore is the durable mapping from job id to tracked-job record.
// Uniqueness on insert is enforced by the storage layer, not the caller:
// two requests racing to register the same id resolve to exactly one record.
type JobStore interface {
	// Insert adds the record iff no record with its job id exists.
	// Returns whether insertion occurred.
	Insert(ctx context.Context, job *models.TrackedJob) (bool, error)

	// Find returns the record, or nil when absent.
	Find(ctx context.Context, jobID int) (*models.TrackedJob, error)

	// FindByTaskUUID returns the record for a task uuid, or nil when absent.
	FindByTaskUUID(ctx context.Context, taskUUID string) (*models.TrackedJob, error)

	// UpdateState sets the stored state iff the record exists and the
	// stored state differs. Returns whether a modification occurred.
	UpdateState(ctx context.Context, jobID int, state models.State) (bool, error)

	// Delete removes the record. Returns whether a record was removed.
	Delete(ctx context.Context, jobID int) (bool, error)

	// DeleteAndReturn atomically removes and returns the record, or nil
	// when absent.
	DeleteAndReturn(ctx context.Context, jobID int) (*models.TrackedJob, error)

	// List returns a snapshot of all records. The snapshot need not be a
	// consistent cut but never surfaces torn records.
	List(ctx context.Context) ([]*models.TrackedJob, error)

	// Close releases the underlying store.
	Close() error
}
