// Package models defines the client-side data model of the sync engine:
// todo records, outbox entries, replay payloads and cached credentials.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/common"
)

// Priority classifies a todo.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority accepts "", low, medium and high. Empty maps to low.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case "":
		return PriorityLow, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), nil
	default:
		return "", fmt.Errorf("priority %q: %w", s, common.ErrorInvalidArgument)
	}
}

// Todo is the replicated record.
type Todo struct {
	// ID is client generated and stable across online/offline creation.
	ID          string
	Title       string
	Description string
	Priority    Priority
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      string

	// Dirty is set while local changes are not confirmed by the remote.
	Dirty bool
}

// NewTodo is the input of a create. ID may be preset by the caller.
type NewTodo struct {
	ID          string
	Title       string
	Description string
	Priority    Priority
}

// TodoPatch carries a partial update. Nil fields are left untouched.
type TodoPatch struct {
	Title       *string
	Description *string
	Priority    *Priority
	Completed   *bool
	UpdatedAt   *time.Time
	Dirty       *bool
}

// Empty reports whether the patch changes no user-visible field.
func (p TodoPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil && p.Completed == nil
}

// Apply merges non-nil patch fields into t.
func (p TodoPatch) Apply(t *Todo) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.UpdatedAt != nil {
		t.UpdatedAt = *p.UpdatedAt
	}
	if p.Dirty != nil {
		t.Dirty = *p.Dirty
	}
}

// MutationResult is returned by every optimistic write.
type MutationResult struct {
	ID     string
	Synced bool
}

// Ptr returns a pointer to v; handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}

// Completion selects todos by their completed flag.
type Completion string

const (
	CompletionAll       Completion = ""
	CompletionActive    Completion = "active"
	CompletionCompleted Completion = "completed"
)

// TodoFilter narrows a todo list. Zero fields match everything.
type TodoFilter struct {
	Completion Completion
	Priority   Priority
	// Query is matched case-insensitively against title and description.
	Query string
}

func (f TodoFilter) Match(t *Todo) bool {
	switch f.Completion {
	case CompletionActive:
		if t.Completed {
			return false
		}
	case CompletionCompleted:
		if !t.Completed {
			return false
		}
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}

// Apply returns the todos that match, keeping their order.
func (f TodoFilter) Apply(todos []*Todo) []*Todo {
	out := make([]*Todo, 0, len(todos))
	for _, t := range todos {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}
