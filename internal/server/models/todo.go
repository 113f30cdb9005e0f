package models

import (
	"encoding/json"
	"fmt"
)

// Record keys on the wire. Times are unix milliseconds.
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

const DefaultPriority = "low"

// Todo is a stored record. CreatedAt and UpdatedAt are unix milliseconds as
// sent by the client.
type Todo struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Priority    string
	Completed   bool
	CreatedAt   int64
	UpdatedAt   int64
}

// TodoUpdate holds the fields present in an update request.
type TodoUpdate struct {
	Title       *string
	Description *string
	Priority    *string
	Completed   *bool
	UpdatedAt   *int64
}

func (u TodoUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Priority == nil && u.Completed == nil && u.UpdatedAt == nil
}

// Apply merges u into t.
func (u TodoUpdate) Apply(t *Todo) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
	if u.Completed != nil {
		t.Completed = *u.Completed
	}
	if u.UpdatedAt != nil {
		t.UpdatedAt = *u.UpdatedAt
	}
}

// Map renders t with the wire keys.
func (t *Todo) Map() map[string]any {
	return map[string]any{
		FieldID:          t.ID,
		FieldUserID:      t.UserID,
		FieldTitle:       t.Title,
		FieldDescription: t.Description,
		FieldPriority:    t.Priority,
		FieldCompleted:   t.Completed,
		FieldCreatedAt:   t.CreatedAt,
		FieldUpdatedAt:   t.UpdatedAt,
	}
}

// TodoFromMap reads a full record. The owner is not taken from m.
func TodoFromMap(m map[string]any) (*Todo, error) {
	t := &Todo{Priority: DefaultPriority}
	var err error

	if t.ID, err = str(m, FieldID); err != nil {
		return nil, err
	}
	if t.ID == "" {
		return nil, fmt.Errorf("%s is required", FieldID)
	}
	if t.Title, err = str(m, FieldTitle); err != nil {
		return nil, err
	}
	if t.Description, err = str(m, FieldDescription); err != nil {
		return nil, err
	}
	if p, err := str(m, FieldPriority); err != nil {
		return nil, err
	} else if p != "" {
		t.Priority = p
	}
	if v, ok := m[FieldCompleted]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return nil, fmt.Errorf("%s: want bool, got %T", FieldCompleted, v)
		}
		t.Completed = b
	}
	if t.CreatedAt, err = millis(m, FieldCreatedAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = millis(m, FieldUpdatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

// TodoUpdateFromMap reads the fields present in m. Unknown keys are ignored.
func TodoUpdateFromMap(m map[string]any) (TodoUpdate, error) {
	var u TodoUpdate
	for _, key := range []string{FieldTitle, FieldDescription, FieldPriority} {
		if _, ok := m[key]; !ok {
			continue
		}
		s, err := str(m, key)
		if err != nil {
			return TodoUpdate{}, err
		}
		switch key {
		case FieldTitle:
			u.Title = &s
		case FieldDescription:
			u.Description = &s
		case FieldPriority:
			u.Priority = &s
		}
	}
	if v, ok := m[FieldCompleted]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return TodoUpdate{}, fmt.Errorf("%s: want bool, got %T", FieldCompleted, v)
		}
		u.Completed = &b
	}
	if _, ok := m[FieldUpdatedAt]; ok {
		ms, err := millis(m, FieldUpdatedAt)
		if err != nil {
			return TodoUpdate{}, err
		}
		u.UpdatedAt = &ms
	}
	return u, nil
}

func str(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: want string, got %T", key, v)
	}
	return s, nil
}

// millis accepts the number types a decoded Struct or JSON body can carry.
func millis(m map[string]any, key string) (int64, error) {
	switch v := m[key].(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	default:
		return 0, fmt.Errorf("%s: want number, got %T", key, v)
	}
}
