package interfaces

import (
	"context"

	"github.com/altius/slurm-proxy/internal/models"
)

// Notifier publishes terminal-transition notifications, at least once.
// Consumers must be idempotent on the job id.
type Notifier interface {
	Emit(ctx context.Context, jobID int, oldState, newState models.State, task models.Task) error
	Close() error
}
