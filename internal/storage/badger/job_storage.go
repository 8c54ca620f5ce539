package badger

import (
	"context"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/altius/slurm-proxy/internal/interfaces"
	"github.com/altius/slurm-proxy/internal/models"
)

// JobStorage implements the JobStore interface for Badger. The job id is the
// record key, so insert uniqueness comes from the store itself.
type JobStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewJobStorage creates a new JobStorage instance
func NewJobStorage(db *BadgerDB, logger arbor.ILogger) interfaces.JobStore {
	return &JobStorage{
		db:     db,
		logger: logger,
	}
}

func (s *JobStorage) Insert(ctx context.Context, job *models.TrackedJob) (bool, error) {
	if job == nil {
		return false, fmt.Errorf("job is required")
	}
	if err := s.db.Store().Insert(job.JobID, job); err != nil {
		if err == badgerhold.ErrKeyExists {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert job: %w", err)
	}
	return true, nil
}

func (s *JobStorage) Find(ctx context.Context, jobID int) (*models.TrackedJob, error) {
	var job models.TrackedJob
	if err := s.db.Store().Get(jobID, &job); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

func (s *JobStorage) FindByTaskUUID(ctx context.Context, taskUUID string) (*models.TrackedJob, error) {
	var jobs []models.TrackedJob
	if err := s.db.Store().Find(&jobs, badgerhold.Where("Task.UUID").Eq(taskUUID)); err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	if len(jobs) == 0 {
		return nil, nil
	}
	return &jobs[0], nil
}

func (s *JobStorage) UpdateState(ctx context.Context, jobID int, state models.State) (bool, error) {
	updated := false
	err := s.db.Store().Badger().Update(func(tx *badgerdb.Txn) error {
		var job models.TrackedJob
		if err := s.db.Store().TxGet(tx, jobID, &job); err != nil {
			if err == badgerhold.ErrNotFound {
				return nil
			}
			return err
		}
		if job.State == state {
			return nil
		}
		job.State = state
		if err := s.db.Store().TxUpdate(tx, jobID, &job); err != nil {
			return err
		}
		updated = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to update job state: %w", err)
	}
	return updated, nil
}

func (s *JobStorage) Delete(ctx context.Context, jobID int) (bool, error) {
	if err := s.db.Store().Delete(jobID, models.TrackedJob{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete job: %w", err)
	}
	return true, nil
}

func (s *JobStorage) DeleteAndReturn(ctx context.Context, jobID int) (*models.TrackedJob, error) {
	var job models.TrackedJob
	found := false
	err := s.db.Store().Badger().Update(func(tx *badgerdb.Txn) error {
		if err := s.db.Store().TxGet(tx, jobID, &job); err != nil {
			if err == badgerhold.ErrNotFound {
				return nil
			}
			return err
		}
		if err := s.db.Store().TxDelete(tx, jobID, models.TrackedJob{}); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete job: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &job, nil
}

func (s *JobStorage) List(ctx context.Context) ([]*models.TrackedJob, error) {
	var jobs []models.TrackedJob
	if err := s.db.Store().Find(&jobs, nil); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	result := make([]*models.TrackedJob, len(jobs))
	for i := range jobs {
		result[i] = &jobs[i]
	}
	return result, nil
}

func (s *JobStorage) Close() error {
	return s.db.Close()
}
