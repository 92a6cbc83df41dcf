package model

import (
	"encoding/json"
	"time"
)

// Job status constants, following the OGC API - Processes status codes.
const (
	StatusAccepted   = "accepted"
	StatusRunning    = "running"
	StatusSuccessful = "successful"
	StatusFailed     = "failed"
	StatusDismissed  = "dismissed"
)

// validTransitions maps each status to the set of statuses it may transition to.
// Terminal statuses (successful, failed, dismissed) have no outgoing edges.
var validTransitions = map[string]map[string]bool{
	StatusAccepted: {
		StatusRunning:   true,
		StatusFailed:    true,
		StatusDismissed: true,
	},
	StatusRunning: {
		StatusSuccessful: true,
		StatusFailed:     true,
	},
}

// ValidTransition reports whether transitioning from one status to another is allowed.
func ValidTransition(from, to string) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// Terminal reports whether a status is terminal, i.e. no further transition
// will ever occur.
func Terminal(status string) bool {
	return status == StatusSuccessful || status == StatusFailed || status == StatusDismissed
}

// Job tracks the lifecycle and outcome of one asynchronous process execution.
// It is mutated only through the store's transition methods.
type Job struct {
	ID         string          `json:"jobID"`
	ProcessID  string          `json:"processID"`
	Status     string          `json:"status"`
	Message    string          `json:"message,omitempty"`
	Progress   int             `json:"progress"`
	ResultMIME string          `json:"-"`
	Result     json.RawMessage `json:"-"`
	CreatedAt  time.Time       `json:"created"`
	UpdatedAt  time.Time       `json:"updated"`
	StartedAt  *time.Time      `json:"started,omitempty"`
	FinishedAt *time.Time      `json:"finished,omitempty"`
}
