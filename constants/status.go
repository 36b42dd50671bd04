package constants

// RunStatus is the canonical status for rows in pipeline_runs.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusNotStarted RunStatus = "not_started" // accepted, not yet picked up
	RunStatusProcessing RunStatus = "processing"  // orchestrator has started
	RunStatusCompleted  RunStatus = "completed"   // every file produced rows
	RunStatusIncomplete RunStatus = "incomplete"  // some files failed, at least one succeeded
	RunStatusFailed     RunStatus = "failed"      // terminal failure, no output written
)

// Terminal reports whether a run in this status will never change again.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusIncomplete, RunStatusFailed:
		return true
	}
	return false
}
