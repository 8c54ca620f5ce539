package slurm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altius/slurm-proxy/internal/models"
)

func TestParseJobSnapshot(t *testing.T) {
	out := "4242|hello|RUNNING|alice|batch|00:10:00|2025-04-14T08:57:46|Unknown|00:01:02\n" +
		"4242.batch|batch|RUNNING|alice|batch|00:10:00|2025-04-14T08:57:46|Unknown|00:01:02\n"

	snap := ParseJobSnapshot(out)
	require.NotNil(t, snap)
	assert.Equal(t, "4242", snap.JobID)
	assert.Equal(t, "hello", snap.JobName)
	assert.Equal(t, models.StateRunning, snap.State)
	assert.Equal(t, "alice", snap.User)
	assert.Equal(t, "batch", snap.Partition)
	assert.Equal(t, "00:10:00", snap.TimeLimit)
	assert.Equal(t, "00:01:02", snap.Elapsed)
}

func TestParseJobSnapshotEmptyOutput(t *testing.T) {
	assert.Nil(t, ParseJobSnapshot(""))
	assert.Nil(t, ParseJobSnapshot("   \n"))
}

func TestParseJobSnapshotUnknownState(t *testing.T) {
	out := "4242|hello|CANCELLED by 1000|alice|batch|00:10:00|a|b|c"
	snap := ParseJobSnapshot(out)
	require.NotNil(t, snap)
	assert.Equal(t, models.StateUnknown, snap.State)
}

func TestParseJobSnapshotShortLine(t *testing.T) {
	assert.Nil(t, ParseJobSnapshot("4242|hello|RUNNING"))
}

func TestParseJobSnapshots(t *testing.T) {
	out := "1|a|RUNNING|u|p|t|s|e|el\n2|b|PENDING|u|p|t|s|e|el\n"
	snaps := ParseJobSnapshots(out)
	require.Len(t, snaps, 2)
	assert.Equal(t, "1", snaps[0].JobID)
	assert.Equal(t, models.StatePending, snaps[1].State)
}
