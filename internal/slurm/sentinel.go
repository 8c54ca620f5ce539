package slurm

import "github.com/altius/slurm-proxy/internal/models"

// TestJobID is a reserved job id that never reaches the scheduler. Queries
// for it return a fixed completed snapshot so end-to-end monitoring can be
// exercised without a live cluster.
const TestJobID = 123

func testJobSnapshot() *models.JobSnapshot {
	return &models.JobSnapshot{
		JobID:     "123",
		JobName:   "abcd1234",
		State:     models.StateCompleted,
		User:      "username",
		Partition: "partition",
		TimeLimit: "UNLIMITED",
		Start:     "2025-04-14T08:57:46",
		End:       "2025-04-14T11:00:44",
		Elapsed:   "02:02:58",
	}
}
