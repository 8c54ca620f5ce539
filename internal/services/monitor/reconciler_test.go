package monitor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altius/slurm-proxy/internal/models"
)

func TestReconcileTerminalNotifiesThenRemoves(t *testing.T) {
	store := newMemStore()
	seedJob(t, store, 999, models.StateRunning)

	scheduler := &mockScheduler{
		queryFunc: func(ctx context.Context, jobID int) (*models.JobSnapshot, error) {
			return snapshotInState(models.StateCompleted), nil
		},
	}
	notifier := &recordingNotifier{}
	// The record must still be present while the notification is emitted
	notifier.onEmit = func() {
		job, err := store.Find(context.Background(), 999)
		assert.NoError(t, err)
		assert.NotNil(t, job)
	}

	reconciler := NewReconciler(NewService(store, scheduler, notifier))
	assert.True(t, reconciler.RunOnce(context.Background()))

	assert.Equal(t, 0, store.count())
	require.Len(t, notifier.emissions, 1)
	assert.Equal(t, emission{999, models.StateRunning, models.StateCompleted}, notifier.emissions[0])
}

func TestReconcileVanishedJobRemovedSilently(t *testing.T) {
	store := newMemStore()
	seedJob(t, store, 888, models.StatePending)

	scheduler := &mockScheduler{
		queryFunc: func(ctx context.Context, jobID int) (*models.JobSnapshot, error) {
			return nil, nil
		},
	}
	notifier := &recordingNotifier{}

	reconciler := NewReconciler(NewService(store, scheduler, notifier))
	reconciler.RunOnce(context.Background())

	assert.Equal(t, 0, store.count())
	assert.Empty(t, notifier.emissions)
}

func TestReconcileNonTerminalTransitionUpdatesState(t *testing.T) {
	store := newMemStore()
	seedJob(t, store, 999, models.StatePending)

	scheduler := &mockScheduler{
		queryFunc: func(ctx context.Context, jobID int) (*models.JobSnapshot, error) {
			return snapshotInState(models.StateRunning), nil
		},
	}
	notifier := &recordingNotifier{}

	reconciler := NewReconciler(NewService(store, scheduler, notifier))
	reconciler.RunOnce(context.Background())

	job, err := store.Find(context.Background(), 999)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, models.StateRunning, job.State)
	assert.Empty(t, notifier.emissions)
}

func TestReconcileSameStateIsNoOp(t *testing.T) {
	store := newMemStore()
	seedJob(t, store, 999, models.StateRunning)

	scheduler := &mockScheduler{
		queryFunc: func(ctx context.Context, jobID int) (*models.JobSnapshot, error) {
			return snapshotInState(models.StateRunning), nil
		},
	}
	notifier := &recordingNotifier{}

	reconciler := NewReconciler(NewService(store, scheduler, notifier))
	reconciler.RunOnce(context.Background())

	assert.Equal(t, 1, store.count())
	assert.Empty(t, notifier.emissions)
}

func TestReconcileQueryErrorKeepsRecord(t *testing.T) {
	store := newMemStore()
	seedJob(t, store, 999, models.StateRunning)

	scheduler := &mockScheduler{
		queryFunc: func(ctx context.Context, jobID int) (*models.JobSnapshot, error) {
			return nil, assert.AnError
		},
	}
	notifier := &recordingNotifier{}

	reconciler := NewReconciler(NewService(store, scheduler, notifier))
	reconciler.RunOnce(context.Background())

	assert.Equal(t, 1, store.count())
	assert.Empty(t, notifier.emissions)
}

func TestRunOnceIsSingleFlight(t *testing.T) {
	store := newMemStore()
	seedJob(t, store, 999, models.StateRunning)

	entered := make(chan struct{})
	release := make(chan struct{})
	scheduler := &mockScheduler{
		queryFunc: func(ctx context.Context, jobID int) (*models.JobSnapshot, error) {
			close(entered)
			<-release
			return snapshotInState(models.StateRunning), nil
		},
	}

	reconciler := NewReconciler(NewService(store, scheduler, &recordingNotifier{}))

	done := make(chan bool)
	go func() {
		done <- reconciler.RunOnce(context.Background())
	}()

	<-entered
	// A tick firing while the first run is in flight is skipped
	assert.False(t, reconciler.RunOnce(context.Background()))

	close(release)
	assert.True(t, <-done)
}
