package slurm

import (
	"fmt"
	"path"
	"strings"

	"github.com/altius/slurm-proxy/internal/models"
)

// sacctFormat pins the accounting column order; parsing depends on it.
const sacctFormat = "--format=JobID,Jobname%-128,state,User,partition,time,start,end,elapsed"

// BuildSubmitCommand renders the full remote submission command for a task:
// directory creation followed by sbatch, joined so a single shell invocation
// runs both. The task command is already rendered by the registry.
func BuildSubmitCommand(task *models.Task, taskCmd string) string {
	dirCmd := strings.Join([]string{
		fmt.Sprintf("mkdir -p %s", task.Dirs.Input),
		fmt.Sprintf("mkdir -p %s", task.Dirs.Output),
		fmt.Sprintf("mkdir -p %s", task.Dirs.Error),
	}, " ; ")

	parts := []string{
		"sbatch",
		"--parsable",
		fmt.Sprintf("--job-name=%s", task.Slurm.JobName),
		fmt.Sprintf("--output=%s", path.Join(task.Dirs.Output, task.Slurm.Output)),
		fmt.Sprintf("--error=%s", path.Join(task.Dirs.Error, task.Slurm.Error)),
		fmt.Sprintf("--nodes=%d", task.Slurm.Nodes),
		fmt.Sprintf("--mem=%s", task.Slurm.Mem),
		fmt.Sprintf("--cpus-per-task=%d", task.Slurm.CPUsPerTask),
		fmt.Sprintf("--ntasks-per-node=%d", task.Slurm.NTasksPerNode),
		fmt.Sprintf("--partition=%s", task.Slurm.Partition),
	}
	if task.Slurm.Time != "" {
		parts = append(parts, fmt.Sprintf("--time=%s", task.Slurm.Time))
	}
	parts = append(parts, fmt.Sprintf("--wrap='%s'", taskCmd))

	return dirCmd + " ; " + strings.Join(parts, " ")
}

// QueryJobCommand renders the accounting lookup for a single job id.
func QueryJobCommand(jobID int) string {
	return strings.Join([]string{
		"sacct",
		"-j",
		fmt.Sprintf("%d", jobID),
		sacctFormat,
		"--noheader",
		"--parsable2",
	}, " ")
}

// QueryStateCommand renders the accounting lookup for all jobs in a state.
func QueryStateCommand(state models.State) string {
	return strings.Join([]string{
		"sacct",
		"--state",
		string(state),
		sacctFormat,
		"--noheader",
		"--parsable2",
	}, " ")
}

// CancelCommand renders the queue removal for a job id.
func CancelCommand(jobID int) string {
	return fmt.Sprintf("scancel %d", jobID)
}
