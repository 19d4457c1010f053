package engine

import "time"

// Report is the aggregated outcome of one batch. Every submitted action id
// appears exactly once, in Succeeded or in Failed, in completion order.
type Report struct {
	BatchID    string         `json:"batch_id"`
	Succeeded  []string       `json:"succeeded"`
	Failed     []string       `json:"failed"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Actions    []ActionResult `json:"actions"`
	Artifacts  string         `json:"artifacts,omitempty"`
}

// Success reports whether no action failed.
func (r Report) Success() bool {
	return len(r.Failed) == 0
}

// Total is the number of actions the batch ran.
func (r Report) Total() int {
	return len(r.Succeeded) + len(r.Failed)
}

// ActionResult describes the outcome of a single action.
type ActionResult struct {
	ID       string          `json:"id"`
	Kind     string          `json:"kind"`
	Status   string          `json:"status"` // succeeded, failed
	Label    string          `json:"label,omitempty"`
	Duration string          `json:"duration,omitempty"`
	Commands []CommandResult `json:"commands,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// CommandResult is the audit summary of one invocation inside an action.
type CommandResult struct {
	Command  string `json:"command"`
	ExitCode int    `json:"exit_code"`
	OK       bool   `json:"ok"`
}

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)
