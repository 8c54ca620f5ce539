package notify

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/altius/slurm-proxy/internal/common"
	"github.com/altius/slurm-proxy/internal/interfaces"
	"github.com/altius/slurm-proxy/internal/models"
	"github.com/altius/slurm-proxy/internal/tasks"
)

// LogNotifier writes transitions to the application log. Used when no broker
// is configured.
type LogNotifier struct {
	logger arbor.ILogger
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: common.GetLogger()}
}

func (n *LogNotifier) Emit(ctx context.Context, jobID int, oldState, newState models.State, task models.Task) error {
	n.logger.Info().
		Int("job_id", jobID).
		Str("task", task.Name).
		Str("uuid", task.UUID).
		Str("old_state", string(oldState)).
		Str("new_state", string(newState)).
		Msg("Job reached terminal state")
	return nil
}

func (n *LogNotifier) Close() error {
	return nil
}

// NewNotifier selects the notifier backend: RabbitMQ when enabled, otherwise
// log-only.
func NewNotifier(config *common.Config, registry *tasks.Registry) interfaces.Notifier {
	if config.RabbitMQ.Enabled {
		return NewRabbitNotifier(config, registry)
	}
	return NewLogNotifier()
}
