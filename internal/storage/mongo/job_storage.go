package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/altius/slurm-proxy/internal/common"
	"github.com/altius/slurm-proxy/internal/interfaces"
	"github.com/altius/slurm-proxy/internal/models"
)

const jobsCollection = "jobs"

// JobStorage implements the JobStore interface on MongoDB. A unique index on
// the job id field makes insert-if-absent a single server-side operation.
type JobStorage struct {
	client *mongo.Client
	jobs   *mongo.Collection
	logger arbor.ILogger
}

// NewJobStorage connects to MongoDB and ensures the unique job id index.
func NewJobStorage(ctx context.Context, config *common.MongoConfig, logger arbor.ILogger) (*JobStorage, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	jobs := client.Database(config.Database).Collection(jobsCollection)
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "slurm_job_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := jobs.Indexes().CreateOne(connectCtx, index); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create job index: %w", err)
	}

	logger.Debug().Str("database", config.Database).Msg("MongoDB storage initialized")

	return &JobStorage{
		client: client,
		jobs:   jobs,
		logger: logger,
	}, nil
}

var _ interfaces.JobStore = (*JobStorage)(nil)

func (s *JobStorage) Insert(ctx context.Context, job *models.TrackedJob) (bool, error) {
	if job == nil {
		return false, fmt.Errorf("job is required")
	}
	if _, err := s.jobs.InsertOne(ctx, job); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert job: %w", err)
	}
	return true, nil
}

func (s *JobStorage) Find(ctx context.Context, jobID int) (*models.TrackedJob, error) {
	var job models.TrackedJob
	err := s.jobs.FindOne(ctx, bson.M{"slurm_job_id": jobID}).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

func (s *JobStorage) FindByTaskUUID(ctx context.Context, taskUUID string) (*models.TrackedJob, error) {
	var job models.TrackedJob
	err := s.jobs.FindOne(ctx, bson.M{"task.uuid": taskUUID}).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

func (s *JobStorage) UpdateState(ctx context.Context, jobID int, state models.State) (bool, error) {
	result, err := s.jobs.UpdateOne(ctx,
		bson.M{"slurm_job_id": jobID, "slurm_job_state": bson.M{"$ne": state}},
		bson.M{"$set": bson.M{"slurm_job_state": state}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to update job state: %w", err)
	}
	return result.ModifiedCount > 0, nil
}

func (s *JobStorage) Delete(ctx context.Context, jobID int) (bool, error) {
	result, err := s.jobs.DeleteOne(ctx, bson.M{"slurm_job_id": jobID})
	if err != nil {
		return false, fmt.Errorf("failed to delete job: %w", err)
	}
	return result.DeletedCount > 0, nil
}

func (s *JobStorage) DeleteAndReturn(ctx context.Context, jobID int) (*models.TrackedJob, error) {
	var job models.TrackedJob
	err := s.jobs.FindOneAndDelete(ctx, bson.M{"slurm_job_id": jobID}).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to delete job: %w", err)
	}
	return &job, nil
}

func (s *JobStorage) List(ctx context.Context) ([]*models.TrackedJob, error) {
	cursor, err := s.jobs.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer cursor.Close(ctx)

	var jobs []*models.TrackedJob
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("failed to decode jobs: %w", err)
	}
	return jobs, nil
}

func (s *JobStorage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
