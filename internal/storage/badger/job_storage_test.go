package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/altius/slurm-proxy/internal/common"
	"github.com/altius/slurm-proxy/internal/interfaces"
	"github.com/altius/slurm-proxy/internal/models"
)

func newTestStore(t *testing.T) interfaces.JobStore {
	t.Helper()

	logger := arbor.NewLogger()
	db, err := NewBadgerDB(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &JobStorage{db: db, logger: logger}
}

func testJob(jobID int, uuid string) *models.TrackedJob {
	return &models.TrackedJob{
		JobID: jobID,
		State: models.StatePending,
		Task: models.Task{
			Name: "echo_hello_world",
			UUID: uuid,
		},
	}
}

func TestInsertAndFind(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	inserted, err := store.Insert(ctx, testJob(4242, "uuid-a"))
	require.NoError(t, err)
	assert.True(t, inserted)

	job, err := store.Find(ctx, 4242)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, 4242, job.JobID)
	assert.Equal(t, models.StatePending, job.State)
	assert.Equal(t, "echo_hello_world", job.Task.Name)
}

func TestInsertDuplicateJobID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	inserted, err := store.Insert(ctx, testJob(4242, "uuid-a"))
	require.NoError(t, err)
	assert.True(t, inserted)

	// Second insert with the same id is refused, first record survives
	dup := testJob(4242, "uuid-b")
	dup.State = models.StateRunning
	inserted, err = store.Insert(ctx, dup)
	require.NoError(t, err)
	assert.False(t, inserted)

	job, err := store.Find(ctx, 4242)
	require.NoError(t, err)
	assert.Equal(t, "uuid-a", job.Task.UUID)
}

func TestFindMissingReturnsNil(t *testing.T) {
	store := newTestStore(t)

	job, err := store.Find(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestFindByTaskUUID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Insert(ctx, testJob(1, "uuid-a"))
	require.NoError(t, err)
	_, err = store.Insert(ctx, testJob(2, "uuid-b"))
	require.NoError(t, err)

	job, err := store.FindByTaskUUID(ctx, "uuid-b")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, 2, job.JobID)

	job, err = store.FindByTaskUUID(ctx, "uuid-c")
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestUpdateState(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Insert(ctx, testJob(4242, "uuid-a"))
	require.NoError(t, err)

	updated, err := store.UpdateState(ctx, 4242, models.StateRunning)
	require.NoError(t, err)
	assert.True(t, updated)

	job, err := store.Find(ctx, 4242)
	require.NoError(t, err)
	assert.Equal(t, models.StateRunning, job.State)

	// Same state is a no-op
	updated, err = store.UpdateState(ctx, 4242, models.StateRunning)
	require.NoError(t, err)
	assert.False(t, updated)

	// Missing record is a no-op, not an error
	updated, err = store.UpdateState(ctx, 999, models.StateRunning)
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Insert(ctx, testJob(4242, "uuid-a"))
	require.NoError(t, err)

	deleted, err := store.Delete(ctx, 4242)
	require.NoError(t, err)
	assert.True(t, deleted)

	job, err := store.Find(ctx, 4242)
	require.NoError(t, err)
	assert.Nil(t, job)

	deleted, err = store.Delete(ctx, 4242)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDeleteAndReturn(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Insert(ctx, testJob(4242, "uuid-a"))
	require.NoError(t, err)

	removed, err := store.DeleteAndReturn(ctx, 4242)
	require.NoError(t, err)
	require.NotNil(t, removed)
	assert.Equal(t, 4242, removed.JobID)
	assert.Equal(t, "uuid-a", removed.Task.UUID)

	job, err := store.Find(ctx, 4242)
	require.NoError(t, err)
	assert.Nil(t, job)

	removed, err = store.DeleteAndReturn(ctx, 4242)
	require.NoError(t, err)
	assert.Nil(t, removed)
}

func TestList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	jobs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	_, err = store.Insert(ctx, testJob(1, "uuid-a"))
	require.NoError(t, err)
	_, err = store.Insert(ctx, testJob(2, "uuid-b"))
	require.NoError(t, err)

	jobs, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}
