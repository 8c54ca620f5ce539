package slurm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altius/slurm-proxy/internal/models"
)

func TestParseSubmitOutput(t *testing.T) {
	jobID, err := parseSubmitOutput("4242\n", "")
	require.NoError(t, err)
	assert.Equal(t, 4242, jobID)
}

func TestParseSubmitOutputClusterSuffix(t *testing.T) {
	jobID, err := parseSubmitOutput("4242;cluster\n", "")
	require.NoError(t, err)
	assert.Equal(t, 4242, jobID)
}

func TestParseSubmitOutputStderrFailsSubmission(t *testing.T) {
	// sbatch can exit zero with a parseable id while still warning on
	// stderr; that still counts as a failed submission.
	jobID, err := parseSubmitOutput("4242\n", "sbatch: error: invalid partition specified\n")
	require.Error(t, err)
	assert.Equal(t, models.BadJobID, jobID)
	assert.Contains(t, err.Error(), "invalid partition")
}

func TestParseSubmitOutputGarbageStdout(t *testing.T) {
	jobID, err := parseSubmitOutput("Submitted batch job 4242\n", "")
	require.Error(t, err)
	assert.Equal(t, models.BadJobID, jobID)
}
