package orchestrator

import "fmt"

// Phase is the lifecycle position of the current run
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseRunning
	PhaseCompleted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	case PhaseRunning:
		return "running"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RunState is the single published value describing the current run.
// Exactly one of the phases is active; the remaining fields are only
// meaningful for the phases noted below. All transitions are owned by
// the orchestrator; observers are read-only.
type RunState struct {
	Phase Phase

	// Message carries the Submitting progress text or the Failed
	// user-facing error
	Message string

	// JobID is set for Running and Completed, and for Failed when
	// the failure happened after the job reached the server
	JobID string

	// Status and Progress mirror the latest poll for Running
	Status   string
	Progress *float64

	// SavedLocators holds the persisted asset locators for Completed
	SavedLocators []string

	// CanRetry is set for Failed and drives whether a retry action
	// is offered
	CanRetry bool
}

func (s RunState) String() string {
	switch s.Phase {
	case PhaseSubmitting:
		return fmt.Sprintf("submitting: %s", s.Message)
	case PhaseRunning:
		if s.Progress != nil {
			return fmt.Sprintf("running: job %s %s (%.0f%%)", s.JobID, s.Status, *s.Progress*100)
		}
		return fmt.Sprintf("running: job %s %s", s.JobID, s.Status)
	case PhaseCompleted:
		return fmt.Sprintf("completed: job %s, %d assets saved", s.JobID, len(s.SavedLocators))
	case PhaseFailed:
		return fmt.Sprintf("failed: %s", s.Message)
	default:
		return s.Phase.String()
	}
}

// Terminal reports whether the run has finished, successfully or not
func (s RunState) Terminal() bool {
	return s.Phase == PhaseCompleted || s.Phase == PhaseFailed
}
