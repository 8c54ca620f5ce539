package models

// State is a canonical SLURM job state. Any scheduler token outside the
// canonical set folds to StateUnknown before it is stored or returned.
type State string

const (
	StateCompleted  State = "COMPLETED"
	StateCompleting State = "COMPLETING"
	StateFailed     State = "FAILED"
	StatePending    State = "PENDING"
	StatePreempted  State = "PREEMPTED"
	StateRunning    State = "RUNNING"
	StateSuspended  State = "SUSPENDED"
	StateStopped    State = "STOPPED"
	StateCancelled  State = "CANCELLED"
	StateUnknown    State = "UNKNOWN"
)

// StateInfo carries the short accounting code and human explanation for a
// canonical state, returned in diagnostic responses.
type StateInfo struct {
	Code        string `json:"code"`
	Explanation string `json:"explanation"`
}

// stateTable is the read-only reference table for canonical states.
// SUSPENDED may resume, so it is not terminal.
var stateTable = map[State]StateInfo{
	StateCompleted:  {Code: "CD", Explanation: "The job has completed successfully."},
	StateCompleting: {Code: "CG", Explanation: "The job is finishing but some processes are still active."},
	StateFailed:     {Code: "F", Explanation: "The job terminated with a non-zero exit code and failed to execute."},
	StatePending:    {Code: "PD", Explanation: "The job is waiting for resource allocation. It will eventually run."},
	StatePreempted:  {Code: "PR", Explanation: "The job was terminated because of preemption by another job."},
	StateRunning:    {Code: "R", Explanation: "The job currently is allocated to a node and is running."},
	StateSuspended:  {Code: "S", Explanation: "A running job has been stopped with its cores released to other jobs."},
	StateStopped:    {Code: "ST", Explanation: "A running job has been stopped with its cores retained."},
	StateCancelled:  {Code: "CA", Explanation: "The job has been cancelled by the user."},
}

// terminalStates are the states from which no further transition is expected.
var terminalStates = map[State]bool{
	StateCompleted: true,
	StateFailed:    true,
	StateCancelled: true,
}

// CanonicalizeState maps a raw scheduler token to a canonical state.
// Unknown tokens map to StateUnknown, never to the raw string.
func CanonicalizeState(raw string) State {
	s := State(raw)
	if _, ok := stateTable[s]; ok {
		return s
	}
	return StateUnknown
}

// IsKnownState reports whether s is one of the canonical states
// (StateUnknown is not a member of the canonical set).
func IsKnownState(s State) bool {
	_, ok := stateTable[s]
	return ok
}

// IsTerminal reports whether s triggers notification and removal.
func IsTerminal(s State) bool {
	return terminalStates[s]
}

// StateTable returns a copy of the canonical state reference table.
func StateTable() map[State]StateInfo {
	table := make(map[State]StateInfo, len(stateTable))
	for s, info := range stateTable {
		table[s] = info
	}
	return table
}
