package storage

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/altius/slurm-proxy/internal/common"
	"github.com/altius/slurm-proxy/internal/interfaces"
	"github.com/altius/slurm-proxy/internal/storage/badger"
	"github.com/altius/slurm-proxy/internal/storage/mongo"
)

// NewJobStore creates the job store backend selected by config.
func NewJobStore(ctx context.Context, logger arbor.ILogger, config *common.Config) (interfaces.JobStore, error) {
	switch config.Storage.Type {
	case "badger", "":
		db, err := badger.NewBadgerDB(logger, &config.Storage.Badger)
		if err != nil {
			return nil, err
		}
		return badger.NewJobStorage(db, logger), nil
	case "mongo":
		return mongo.NewJobStorage(ctx, &config.Storage.Mongo, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s (supported: badger, mongo)", config.Storage.Type)
	}
}
