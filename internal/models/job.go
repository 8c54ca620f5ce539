package models

// BadJobID is the sentinel returned when a submission fails before the
// scheduler assigns a job id.
const BadJobID = -1

// Task is the client-supplied task envelope, preserved verbatim from
// submission through queries and notifications. Unknown fields are rejected
// at the HTTP boundary; params stay opaque, the registered command owns
// their interpretation.
type Task struct {
	Name   string      `json:"name" toml:"name" bson:"name" validate:"required"`
	Params []string    `json:"params" toml:"params" bson:"params"`
	UUID   string      `json:"uuid" toml:"uuid" bson:"uuid" validate:"required,uuid"`
	Slurm  SlurmParams `json:"slurm" toml:"slurm" bson:"slurm" validate:"required"`
	Dirs   TaskDirs    `json:"dirs" toml:"dirs" bson:"dirs" validate:"required"`
}

// SlurmParams carries the scheduling fields rendered into the sbatch command.
// An empty Time means no limit and omits the --time flag entirely.
type SlurmParams struct {
	JobName       string `json:"job_name" toml:"job_name" bson:"job_name" validate:"required"`
	Output        string `json:"output" toml:"output" bson:"output" validate:"required"`
	Error         string `json:"error" toml:"error" bson:"error" validate:"required"`
	Nodes         int    `json:"nodes" toml:"nodes" bson:"nodes" validate:"required,min=1"`
	Mem           string `json:"mem" toml:"mem" bson:"mem" validate:"required"`
	CPUsPerTask   int    `json:"cpus_per_task" toml:"cpus_per_task" bson:"cpus_per_task" validate:"required,min=1"`
	NTasksPerNode int    `json:"ntasks_per_node" toml:"ntasks_per_node" bson:"ntasks_per_node" validate:"required,min=1"`
	Partition     string `json:"partition" toml:"partition" bson:"partition" validate:"required"`
	Time          string `json:"time" toml:"time" bson:"time"`
}

// TaskDirs are scheduler-visible directories created before submission.
type TaskDirs struct {
	Input  string `json:"input" toml:"input" bson:"input" validate:"required"`
	Output string `json:"output" toml:"output" bson:"output" validate:"required"`
	Error  string `json:"error" toml:"error" bson:"error" validate:"required"`
}

// TrackedJob is one job under active monitoring. A record exists iff the
// scheduler accepted the job id and its last observed state is non-terminal.
type TrackedJob struct {
	JobID int   `json:"slurm_job_id" badgerhold:"key" bson:"slurm_job_id"`
	State State `json:"slurm_job_state" bson:"slurm_job_state"`
	Task  Task  `json:"task" bson:"task"`
}

// JobSnapshot is one record of the scheduler's accounting output, fields in
// the declared sacct format order. The state is already canonical.
type JobSnapshot struct {
	JobID     string `json:"job_id"`
	JobName   string `json:"job_name"`
	State     State  `json:"state"`
	User      string `json:"user"`
	Partition string `json:"partition"`
	TimeLimit string `json:"time"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Elapsed   string `json:"elapsed"`
}
