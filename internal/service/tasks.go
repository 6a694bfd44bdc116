package service

import (
	"context"
	"database/sql"
	"time"

	"taskhub/internal/domain"
	"taskhub/internal/domain/models"
	"taskhub/internal/scope"
	"taskhub/internal/store"
)

// TaskService adds task-specific create/edit stamping on top of the
// generic service.
type TaskService struct {
	*Service[models.Task]
}

func NewTasks(st *store.Store[models.Task]) *TaskService {
	return &TaskService{Service: New(Config[models.Task]{
		Name:  "tasks",
		Store: st,
	})}
}

// Create inserts a new task owned by the caller. Status always starts at
// to_do regardless of the payload.
func (s *TaskService) Create(ctx context.Context, summary, description string, ident scope.Identity) (*models.Task, error) {
	task := &models.Task{
		Summary:   summary,
		Status:    models.TaskStatusToDo,
		CreatedAt: time.Now(),
	}
	if description != "" {
		task.Description = sql.NullString{String: description, Valid: true}
	}
	if ident.UserID != nil {
		task.CreatedBy = sql.NullInt64{Int64: *ident.UserID, Valid: true}
	}
	return s.Save(ctx, task, ident)
}

// Edit applies a partial update with audit stamping and modified
// detection.
func (s *TaskService) Edit(ctx context.Context, id int64, patch models.TaskPatch, ident scope.Identity) (*models.Task, error) {
	if patch.Status != nil && !models.ValidTaskStatus(*patch.Status) {
		return nil, domain.ValidationError{Field: "status", Msg: "must be to_do, in_progress or done"}
	}
	changes := patch.Changes()
	changes["updated_at"] = time.Now()
	changes["updated_by"] = nullableID(ident.UserID)
	return s.UpdateByID(ctx, id, changes, ident, nil, true, false, false)
}

// List is a scoped pass-through with task search fields applied when a
// search term is present.
func (s *TaskService) List(ctx context.Context, ident scope.Identity, p store.ListParams) (store.Page[models.Task], error) {
	if p.Search != "" && len(p.SearchFields) == 0 {
		p.SearchFields = []string{"summary", "description"}
	}
	return s.GetAll(ctx, ident, p, false)
}
