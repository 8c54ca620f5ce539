package submit

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/altius/slurm-proxy/internal/common"
	"github.com/altius/slurm-proxy/internal/interfaces"
	"github.com/altius/slurm-proxy/internal/models"
	"github.com/altius/slurm-proxy/internal/services/monitor"
	"github.com/altius/slurm-proxy/internal/slurm"
	"github.com/altius/slurm-proxy/internal/tasks"
)

// ErrUnknownTask is returned when the task name has no registry entry.
var ErrUnknownTask = errors.New("task is not registered")

// Service validates task envelopes, submits them to the scheduler, and hands
// accepted jobs to the monitor.
type Service struct {
	registry  *tasks.Registry
	scheduler interfaces.SchedulerClient
	monitor   *monitor.Service
	validate  *validator.Validate
	logger    arbor.ILogger
}

func NewService(registry *tasks.Registry, scheduler interfaces.SchedulerClient, monitorService *monitor.Service) *Service {
	return &Service{
		registry:  registry,
		scheduler: scheduler,
		monitor:   monitorService,
		validate:  validator.New(),
		logger:    common.GetLogger(),
	}
}

// Validate checks the task envelope: required fields, a well-formed uuid, and
// a registered task name.
func (s *Service) Validate(task *models.Task) error {
	if err := s.validate.Struct(task); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}
	if _, ok := s.registry.Lookup(task.Name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, task.Name)
	}
	return nil
}

// Submit validates the task, renders and runs the submission command, and
// registers the accepted job for monitoring. Returns the scheduler-assigned
// job id.
func (s *Service) Submit(ctx context.Context, task *models.Task) (int, error) {
	if err := s.Validate(task); err != nil {
		return models.BadJobID, err
	}

	taskCmd, err := s.registry.Command(task.Name, task.Params)
	if err != nil {
		return models.BadJobID, err
	}
	command := slurm.BuildSubmitCommand(task, taskCmd)

	jobID, err := s.scheduler.Submit(ctx, command)
	if err != nil {
		return models.BadJobID, fmt.Errorf("submission failed for task %s: %w", task.Name, err)
	}
	if jobID == models.BadJobID {
		return models.BadJobID, fmt.Errorf("submission failed for task %s", task.Name)
	}

	s.logger.Info().
		Int("job_id", jobID).
		Str("task", task.Name).
		Str("uuid", task.UUID).
		Msg("Task submitted")

	if err := s.monitor.Register(ctx, jobID, *task); err != nil {
		// The job is running regardless; surface the tracking failure.
		return jobID, fmt.Errorf("job %d submitted but not registered for monitoring: %w", jobID, err)
	}
	return jobID, nil
}

// Tasks returns the registry contents for listing.
func (s *Service) Tasks() map[string]tasks.Descriptor {
	return s.registry.All()
}
