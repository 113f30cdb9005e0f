package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Payload keys. Times are unix milliseconds.
const (
	FieldID          = "id"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldPriority    = "priority"
	FieldCompleted   = "completed"
	FieldUserID      = "user_id"
	FieldCreatedAt   = "created_at"
	FieldUpdatedAt   = "updated_at"
)

// Payload is the minimal field set needed to replay an action remotely.
type Payload map[string]any

// ID returns the record id carried by the payload, or "".
func (p Payload) ID() string {
	s, _ := p[FieldID].(string)
	return s
}

// Fields returns a copy of the payload without the id key.
func (p Payload) Fields() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		if k != FieldID {
			out[k] = v
		}
	}
	return out
}

// InsertPayload carries the full record.
func InsertPayload(t *Todo) Payload {
	return Payload{
		FieldID:          t.ID,
		FieldTitle:       t.Title,
		FieldDescription: t.Description,
		FieldPriority:    string(t.Priority),
		FieldCompleted:   t.Completed,
		FieldUserID:      t.UserID,
		FieldCreatedAt:   t.CreatedAt.UnixMilli(),
		FieldUpdatedAt:   t.UpdatedAt.UnixMilli(),
	}
}

// UpdatePayload carries the changed fields, the id and the new updated_at.
func UpdatePayload(id string, p TodoPatch, updatedAt time.Time) Payload {
	out := Payload{FieldID: id, FieldUpdatedAt: updatedAt.UnixMilli()}
	if p.Title != nil {
		out[FieldTitle] = *p.Title
	}
	if p.Description != nil {
		out[FieldDescription] = *p.Description
	}
	if p.Priority != nil {
		out[FieldPriority] = string(*p.Priority)
	}
	if p.Completed != nil {
		out[FieldCompleted] = *p.Completed
	}
	return out
}

// DeletePayload carries only the id.
func DeletePayload(id string) Payload {
	return Payload{FieldID: id}
}

// TodoFromPayload builds a record from a full remote row. The result is
// clean (Dirty=false) because it mirrors remote state.
func TodoFromPayload(p Payload) (*Todo, error) {
	id := p.ID()
	if id == "" {
		return nil, fmt.Errorf("payload without id")
	}
	t := &Todo{ID: id, Priority: PriorityLow}
	t.Title, _ = p[FieldTitle].(string)
	t.Description, _ = p[FieldDescription].(string)
	t.UserID, _ = p[FieldUserID].(string)
	t.Completed, _ = p[FieldCompleted].(bool)
	if s, ok := p[FieldPriority].(string); ok && s != "" {
		t.Priority = Priority(s)
	}
	if ms, ok := Millis(p[FieldCreatedAt]); ok {
		t.CreatedAt = time.UnixMilli(ms)
	}
	if ms, ok := Millis(p[FieldUpdatedAt]); ok {
		t.UpdatedAt = time.UnixMilli(ms)
	}
	return t, nil
}

// Millis converts the numeric shapes produced by JSON and structpb decoding
// into an int64.
func Millis(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
