package model

// KeyOutcome records the terminal state of one session key within a run.
type KeyOutcome struct {
	Key    string `json:"key"`
	Reason string `json:"reason,omitempty"`
}

// RunResult aggregates per-key outcomes for one pipeline invocation. It is
// produced once per run and has no persisted lifecycle.
type RunResult struct {
	Processed  []KeyOutcome `json:"processed"`
	Skipped    []KeyOutcome `json:"skipped"`
	Errors     []KeyOutcome `json:"errors"`
	DurationMS int64        `json:"duration_ms"`
}

// Counts returns processed/skipped/errored totals.
func (r *RunResult) Counts() (processed, skipped, errored int) {
	return len(r.Processed), len(r.Skipped), len(r.Errors)
}
