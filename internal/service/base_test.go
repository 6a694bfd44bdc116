package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"taskhub/internal/domain"
	"taskhub/internal/domain/models"
	"taskhub/internal/scope"
	"taskhub/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const testSchema = `
CREATE TABLE users (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	fullname   TEXT NOT NULL,
	email      TEXT NOT NULL,
	phone      TEXT,
	password   TEXT NOT NULL,
	type       TEXT NOT NULL DEFAULT 'user',
	created_at TIMESTAMP NOT NULL,
	created_by INTEGER,
	updated_at TIMESTAMP,
	updated_by INTEGER,
	deleted_at TIMESTAMP,
	deleted_by INTEGER
);
CREATE UNIQUE INDEX uq_users_email ON users (email);

CREATE TABLE tasks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	summary     TEXT NOT NULL,
	description TEXT,
	status      TEXT NOT NULL DEFAULT 'to_do',
	created_at  TIMESTAMP NOT NULL,
	created_by  INTEGER,
	updated_at  TIMESTAMP,
	updated_by  INTEGER,
	deleted_at  TIMESTAMP,
	deleted_by  INTEGER
);`

// newTestDB opens an in-memory SQLite database pinned to one connection,
// since every in-memory connection is a separate database.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTaskService(t *testing.T) *TaskService {
	t.Helper()
	return NewTasks(store.New(newTestDB(t), models.TaskDescriptor()))
}

func strptr(s string) *string { return &s }

func TestGetByIDNotFoundPolicy(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	_, err := svc.GetByID(ctx, 404, scope.System(), false, false)
	assert.True(t, domain.IsNotFound(err), "expected NotFound, got %v", err)

	task, err := svc.GetByID(ctx, 404, scope.System(), true, false)
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestListScopedToOwner(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()
	alice := scope.ForUser(1, scope.RoleUser)
	bob := scope.ForUser(2, scope.RoleUser)

	for _, summary := range []string{"alice one", "alice two"} {
		_, err := svc.Create(ctx, summary, "", alice)
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, "bob one", "", bob)
	require.NoError(t, err)

	page, err := svc.List(ctx, alice, store.ListParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalItems)
	for _, task := range page.Results {
		assert.EqualValues(t, 1, task.CreatedBy.Int64)
	}

	// Admins and system calls see every row.
	page, err = svc.List(ctx, scope.ForUser(99, scope.RoleAdmin), store.ListParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.TotalItems)
}

func TestForeignRowLooksAbsent(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()
	alice := scope.ForUser(1, scope.RoleUser)
	bob := scope.ForUser(2, scope.RoleUser)

	task, err := svc.Create(ctx, "private", "", alice)
	require.NoError(t, err)

	_, err = svc.GetByID(ctx, task.ID, bob, false, false)
	assert.True(t, domain.IsNotFound(err), "foreign row must read as NotFound, got %v", err)

	_, err = svc.Edit(ctx, task.ID, models.TaskPatch{Summary: strptr("stolen")}, bob)
	assert.True(t, domain.IsNotFound(err), "foreign update must fail NotFound, got %v", err)

	removed, err := svc.HardDeleteByID(ctx, task.ID, bob, true, false)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestEditRejectsNoOpPayload(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()
	alice := scope.ForUser(1, scope.RoleUser)

	task, err := svc.Create(ctx, "write report", "quarterly", alice)
	require.NoError(t, err)

	// Identical values, audit stamps excluded from the comparison.
	_, err = svc.Edit(ctx, task.ID, models.TaskPatch{
		Summary:     strptr("write report"),
		Description: strptr("quarterly"),
		Status:      strptr(models.TaskStatusToDo),
	}, alice)
	assert.True(t, domain.IsNotModified(err), "expected NotModified, got %v", err)

	updated, err := svc.Edit(ctx, task.ID, models.TaskPatch{Status: strptr(models.TaskStatusDone)}, alice)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusDone, updated.Status)
	assert.Equal(t, "write report", updated.Summary)
	assert.True(t, updated.UpdatedAt.Valid)
	assert.EqualValues(t, 1, updated.UpdatedBy.Int64)
}

func TestEditValidatesStatus(t *testing.T) {
	svc := newTaskService(t)
	_, err := svc.Edit(context.Background(), 1, models.TaskPatch{Status: strptr("archived")}, scope.System())
	assert.True(t, domain.IsValidation(err), "expected ValidationError, got %v", err)
}

func TestSoftDeleteHidesRow(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()
	alice := scope.ForUser(1, scope.RoleUser)

	task, err := svc.Create(ctx, "short lived", "", alice)
	require.NoError(t, err)

	deleted, err := svc.SoftDeleteByID(ctx, task.ID, alice, false)
	require.NoError(t, err)
	assert.True(t, deleted.DeletedAt.Valid)
	assert.EqualValues(t, 1, deleted.DeletedBy.Int64)

	_, err = svc.GetByID(ctx, task.ID, alice, false, false)
	assert.True(t, domain.IsNotFound(err), "deleted row must read as NotFound, got %v", err)

	kept, err := svc.GetByID(ctx, task.ID, alice, false, true)
	require.NoError(t, err)
	assert.True(t, kept.IsDeleted())

	// A second soft delete cannot find the row anymore.
	_, err = svc.SoftDeleteByID(ctx, task.ID, alice, false)
	assert.True(t, domain.IsNotFound(err), "expected NotFound, got %v", err)
}

func TestSoftDeletePanicsWithoutColumns(t *testing.T) {
	desc := models.TaskDescriptor()
	desc.SoftDelete = false
	svc := New(Config[models.Task]{Name: "tasks", Store: store.New(newTestDB(t), desc)})

	require.Panics(t, func() {
		svc.SoftDeleteByID(context.Background(), 1, scope.System(), false)
	})
}

func TestHardDeleteNotFoundPolicy(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	_, err := svc.HardDeleteByID(ctx, 404, scope.System(), false, false)
	assert.True(t, domain.IsNotFound(err), "expected NotFound, got %v", err)

	removed, err := svc.HardDeleteByID(ctx, 404, scope.System(), true, false)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestCheckUniqueSkipsNilOnlyPayload(t *testing.T) {
	svc := newTaskService(t)

	// All-nil candidate values must not query and must not pass as proof.
	ok, err := svc.CheckUnique(context.Background(), map[string]any{"summary": nil}, []string{"summary"}, false)
	require.NoError(t, err)
	assert.False(t, ok)

	// Unknown columns are dropped rather than collapsing the predicate
	// into a match-everything count.
	_, err = svc.Create(context.Background(), "existing", "", scope.System())
	require.NoError(t, err)
	ok, err = svc.CheckUnique(context.Background(), map[string]any{"color": "red"}, []string{"color"}, false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckUniqueReportsConflict(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "taken", "", scope.System())
	require.NoError(t, err)

	ok, err := svc.CheckUnique(ctx, map[string]any{"summary": "taken"}, []string{"summary"}, false)
	assert.False(t, ok)
	assert.True(t, domain.IsConflict(err), "expected Conflict, got %v", err)

	ok, err = svc.CheckUnique(ctx, map[string]any{"summary": "taken"}, []string{"summary"}, true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveManyInsertsBatch(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	batch := []*models.Task{
		{Summary: "one", Status: models.TaskStatusToDo, CreatedAt: time.Now()},
		{Summary: "two", Status: models.TaskStatusToDo, CreatedAt: time.Now()},
	}
	saved, err := svc.SaveMany(ctx, batch, scope.System())
	require.NoError(t, err)
	for _, task := range saved {
		assert.NotZero(t, task.ID)
	}

	page, err := svc.GetAll(ctx, scope.System(), store.ListParams{}, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalItems)
}
