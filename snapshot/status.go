// Package snapshot implements the asynchronous dataset-collection workflow
// against the datasets API: trigger a collection job, poll its progress until
// a terminal status, fetch the finished snapshot, persist it.
package snapshot

// Status represents the remote-reported state of a collection job
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
	StatusUnknown Status = "unknown"
)

// IsValidStatus returns true if the status string is a status the API reports
func IsValidStatus(s string) bool {
	switch Status(s) {
	case StatusQueued, StatusRunning, StatusReady, StatusFailed, StatusError:
		return true
	default:
		return false
	}
}

// ParseStatus maps a wire status value onto the Status enumeration.
// Unrecognized values (including "") map to StatusUnknown.
func ParseStatus(s string) Status {
	if IsValidStatus(s) {
		return Status(s)
	}
	return StatusUnknown
}

// Terminal reports whether no further transition can occur.
// StatusUnknown is non-terminal: it covers both unrecognized wire values and
// failed status checks, and polling continues through it.
func (s Status) Terminal() bool {
	switch s {
	case StatusReady, StatusFailed, StatusError:
		return true
	default:
		return false
	}
}

// Succeeded reports whether the job reached the sole success-terminal state
func (s Status) Succeeded() bool {
	return s == StatusReady
}
