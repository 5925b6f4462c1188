package models

import (
	"strings"
	"time"
)

// Job status strings reported by the wan2gp server. The set is open:
// the server may report states this client has never seen, and any
// unrecognized (or empty) status is treated as still in progress.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// JobStatus is one observation of a job, produced by a single poll
type JobStatus struct {
	JobID    string   `json:"jobId"`
	Status   string   `json:"status"`
	Progress *float64 `json:"progress,omitempty"` // fraction in [0,1]
	Error    string   `json:"error,omitempty"`
}

// IsTerminalStatus reports whether a status string ends the poll loop.
// Comparison is case-insensitive and matches exactly completed, failed
// and cancelled.
func IsTerminalStatus(status string) bool {
	switch strings.ToLower(status) {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// IsCompleted reports whether the status is the successful terminal state
func IsCompleted(status string) bool {
	return strings.EqualFold(status, StatusCompleted)
}

// Asset is one output of a completed job. URL may be absolute or
// relative to the server base address.
type Asset struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType,omitempty"`
	FileName string `json:"fileName,omitempty"`
}

// HistoryEntry records one successful completion: the job and the
// locators returned by the media store for its persisted assets.
type HistoryEntry struct {
	JobID         string    `json:"jobId"`
	SavedLocators []string  `json:"savedLocators"`
	CreatedAt     time.Time `json:"createdAt"`
}
