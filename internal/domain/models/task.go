package models

import (
	"database/sql"
	"time"

	"taskhub/internal/store"
)

// Task statuses.
const (
	TaskStatusToDo       = "to_do"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

// Task mirrors the tasks table.
type Task struct {
	ID          int64
	Summary     string
	Description sql.NullString
	Status      string
	CreatedAt   time.Time
	CreatedBy   sql.NullInt64
	UpdatedAt   sql.NullTime
	UpdatedBy   sql.NullInt64
	DeletedAt   sql.NullTime
	DeletedBy   sql.NullInt64
}

func (t *Task) IsDeleted() bool { return t.DeletedAt.Valid }

// ValidTaskStatus reports whether s is one of the declared statuses.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusToDo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

func TaskDescriptor() store.Descriptor[Task] {
	return store.Descriptor[Task]{
		Table: "tasks",
		Columns: []string{
			"id", "summary", "description", "status",
			"created_at", "created_by", "updated_at", "updated_by",
			"deleted_at", "deleted_by",
		},
		ScanDest: func(t *Task) []any {
			return []any{
				&t.ID, &t.Summary, &t.Description, &t.Status,
				&t.CreatedAt, &t.CreatedBy, &t.UpdatedAt, &t.UpdatedBy,
				&t.DeletedAt, &t.DeletedBy,
			}
		},
		Values: func(t *Task) []any {
			return []any{
				t.ID, t.Summary, t.Description, t.Status,
				t.CreatedAt, t.CreatedBy, t.UpdatedAt, t.UpdatedBy,
				t.DeletedAt, t.DeletedBy,
			}
		},
		ID:         func(t *Task) int64 { return t.ID },
		SetID:      func(t *Task, id int64) { t.ID = id },
		SoftDelete: true,
	}
}

// TaskPatch supports PATCH-style updates via key presence.
type TaskPatch struct {
	Summary     *string
	Description *string
	Status      *string
}

func (p TaskPatch) Changes() store.Changes {
	ch := store.Changes{}
	if p.Summary != nil {
		ch["summary"] = *p.Summary
	}
	if p.Description != nil {
		ch["description"] = *p.Description
	}
	if p.Status != nil {
		ch["status"] = *p.Status
	}
	return ch
}
