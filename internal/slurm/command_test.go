package slurm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/altius/slurm-proxy/internal/models"
)

func testTask() *models.Task {
	return &models.Task{
		Name:   "echo_hello_world",
		Params: []string{"Hello,", "World!"},
		UUID:   "123e4567-e89b-12d3-a456-426614174000",
		Slurm: models.SlurmParams{
			JobName:       "hello",
			Output:        "out.txt",
			Error:         "err.txt",
			Nodes:         1,
			Mem:           "2G",
			CPUsPerTask:   1,
			NTasksPerNode: 1,
			Partition:     "batch",
			Time:          "00:10:00",
		},
		Dirs: models.TaskDirs{
			Input:  "/scratch/in",
			Output: "/scratch/out",
			Error:  "/scratch/err",
		},
	}
}

func TestBuildSubmitCommand(t *testing.T) {
	cmd := BuildSubmitCommand(testTask(), "echo Hello, World!")

	expected := "mkdir -p /scratch/in ; mkdir -p /scratch/out ; mkdir -p /scratch/err ; " +
		"sbatch --parsable --job-name=hello --output=/scratch/out/out.txt --error=/scratch/err/err.txt " +
		"--nodes=1 --mem=2G --cpus-per-task=1 --ntasks-per-node=1 --partition=batch --time=00:10:00 " +
		"--wrap='echo Hello, World!'"
	assert.Equal(t, expected, cmd)
}

func TestBuildSubmitCommandOmitsEmptyTime(t *testing.T) {
	task := testTask()
	task.Slurm.Time = ""

	cmd := BuildSubmitCommand(task, "echo hi")
	assert.NotContains(t, cmd, "--time")
	assert.Contains(t, cmd, "--partition=batch --wrap='echo hi'")
}

func TestQueryJobCommand(t *testing.T) {
	cmd := QueryJobCommand(4242)
	assert.Equal(t,
		"sacct -j 4242 --format=JobID,Jobname%-128,state,User,partition,time,start,end,elapsed --noheader --parsable2",
		cmd)
}

func TestQueryStateCommand(t *testing.T) {
	cmd := QueryStateCommand(models.StateRunning)
	assert.Equal(t,
		"sacct --state RUNNING --format=JobID,Jobname%-128,state,User,partition,time,start,end,elapsed --noheader --parsable2",
		cmd)
}

func TestCancelCommand(t *testing.T) {
	assert.Equal(t, "scancel 777", CancelCommand(777))
}
