package org

import (
	"fmt"
	"time"
)

// logTimeFormat is a fixed-width, lexicographically sortable wall-clock stamp.
const logTimeFormat = "2006-01-02 15:04:05"

// transitions is the review state machine. Resubmission
// (revision_requested -> pending) is an explicit caller action,
// nothing triggers it automatically.
var transitions = map[Status][]Status{
	StatusPending:           {StatusApproved, StatusRevisionRequested},
	StatusRevisionRequested: {StatusPending, StatusApproved},
	StatusApproved:          {StatusRevisionRequested},
}

// CanTransition reports whether the review workflow allows moving a
// requirement from one status to another.
func CanTransition(from, to Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// NewLogEntry formats one audit-log line for a status change.
func NewLogEntry(at time.Time, actor, role string, newStatus Status) string {
	return fmt.Sprintf("[%s] Updated by %s (%s) → Status: %s",
		at.UTC().Format(logTimeFormat), actor, role, newStatus)
}
