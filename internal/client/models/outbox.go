package models

import (
	"fmt"
	"time"
)

// Action is the kind of remote mutation an outbox entry replays.
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ParseAction validates a stored action string.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionInsert, ActionUpdate, ActionDelete:
		return Action(s), nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

// OutboxEntry is a pending remote mutation. Entries are append-only: a
// later local change enqueues a new entry instead of editing a queued one.
type OutboxEntry struct {
	ID string
	// Seq is the monotonic sequence key; replay order is Seq ascending.
	Seq        int64
	Entity     string
	Action     Action
	RecordID   string
	Payload    Payload
	EnqueuedAt time.Time
}

// SyncReport summarizes one drain cycle.
type SyncReport struct {
	Synced     int
	Duplicates int
	Abandoned  int
	Failed     int
	Remaining  int
	// Skipped is set when no cycle ran (already draining, offline, or no
	// genuine session).
	Skipped bool
}
