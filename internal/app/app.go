package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/altius/slurm-proxy/internal/common"
	"github.com/altius/slurm-proxy/internal/handlers"
	"github.com/altius/slurm-proxy/internal/interfaces"
	"github.com/altius/slurm-proxy/internal/notify"
	"github.com/altius/slurm-proxy/internal/services/monitor"
	"github.com/altius/slurm-proxy/internal/services/submit"
	"github.com/altius/slurm-proxy/internal/slurm"
	"github.com/altius/slurm-proxy/internal/storage"
	"github.com/altius/slurm-proxy/internal/tasks"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Registry  *tasks.Registry
	JobStore  interfaces.JobStore
	Scheduler interfaces.SchedulerClient
	Notifier  interfaces.Notifier

	MonitorService *monitor.Service
	SubmitService  *submit.Service
	Reconciler     *monitor.Reconciler

	// HTTP handlers
	APIHandler     *handlers.APIHandler
	SubmitHandler  *handlers.SubmitHandler
	MonitorHandler *handlers.MonitorHandler
}

// New wires the application from configuration: task registry, job store,
// scheduler client, notifier, services, and handlers.
func New(ctx context.Context, config *common.Config) (*App, error) {
	logger := common.GetLogger()

	registry := tasks.NewRegistry()
	if config.Tasks.DefinitionsFile != "" {
		if err := registry.LoadFile(config.Tasks.DefinitionsFile); err != nil {
			return nil, err
		}
	}
	logger.Info().Int("tasks", len(registry.Names())).Msg("Task registry loaded")

	store, err := storage.NewJobStore(ctx, logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize job store: %w", err)
	}

	scheduler, err := newSchedulerClient(config)
	if err != nil {
		store.Close()
		return nil, err
	}

	notifier := notify.NewNotifier(config, registry)

	monitorService := monitor.NewService(store, scheduler, notifier)
	submitService := submit.NewService(registry, scheduler, monitorService)
	reconciler := monitor.NewReconciler(monitorService)

	return &App{
		Config:         config,
		Logger:         logger,
		Registry:       registry,
		JobStore:       store,
		Scheduler:      scheduler,
		Notifier:       notifier,
		MonitorService: monitorService,
		SubmitService:  submitService,
		Reconciler:     reconciler,
		APIHandler:     handlers.NewAPIHandler(),
		SubmitHandler:  handlers.NewSubmitHandler(submitService),
		MonitorHandler: handlers.NewMonitorHandler(monitorService),
	}, nil
}

func newSchedulerClient(config *common.Config) (interfaces.SchedulerClient, error) {
	switch config.Scheduler.Backend {
	case "ssh", "":
		return slurm.NewSSHExecutor(config.SSH), nil
	case "rest":
		return slurm.NewRESTClient(config.Scheduler.REST), nil
	default:
		return nil, fmt.Errorf("unsupported scheduler backend: %s (supported: ssh, rest)", config.Scheduler.Backend)
	}
}

// Start launches the background reconciliation loop.
func (a *App) Start() error {
	return a.Reconciler.Start(a.Config.PollingInterval())
}

// Close stops background work and releases all resources.
func (a *App) Close() {
	a.Reconciler.Stop()

	if err := a.Notifier.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to close notifier")
	}
	if err := a.Scheduler.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to close scheduler client")
	}
	if err := a.JobStore.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to close job store")
	}
}
