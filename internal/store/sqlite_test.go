package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

const noteSchema = `
CREATE TABLE notes (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	title      TEXT NOT NULL,
	body       TEXT,
	created_at TIMESTAMP NOT NULL,
	created_by INTEGER,
	deleted_at TIMESTAMP
);
CREATE UNIQUE INDEX uq_notes_title ON notes (title);`

// openTestDB opens an in-memory SQLite database. The pool is pinned to a
// single connection because each in-memory connection is its own database.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(noteSchema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedNotes(t *testing.T, s *Store[note], n int, owner int64) {
	t.Helper()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		err := s.Save(context.Background(), &note{
			Title:     fmt.Sprintf("note %02d owner %d", i, owner),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			CreatedBy: sql.NullInt64{Int64: owner, Valid: true},
		})
		if err != nil {
			t.Fatalf("seed row %d: %v", i, err)
		}
	}
}

func TestPaginationCoversAllRowsWithoutOverlap(t *testing.T) {
	s := New(openTestDB(t), noteDescriptor())
	seedNotes(t, s, 25, 1)

	seen := map[int64]bool{}
	var sizes []int
	for pageNo := 1; pageNo <= 3; pageNo++ {
		page, err := s.GetAll(context.Background(), ListParams{
			Page:   pageNo,
			Limit:  10,
			SortBy: "id",
			Order:  "asc",
		})
		if err != nil {
			t.Fatalf("page %d: %v", pageNo, err)
		}
		if page.TotalItems != 25 || page.TotalPage != 3 {
			t.Fatalf("page %d: total_items=%d total_page=%d", pageNo, page.TotalItems, page.TotalPage)
		}
		sizes = append(sizes, len(page.Results))
		for _, n := range page.Results {
			if seen[n.ID] {
				t.Fatalf("row %d returned twice", n.ID)
			}
			seen[n.ID] = true
		}
	}
	if sizes[0] != 10 || sizes[1] != 10 || sizes[2] != 5 {
		t.Fatalf("page sizes = %v, want [10 10 5]", sizes)
	}
	if len(seen) != 25 {
		t.Fatalf("saw %d distinct rows, want 25", len(seen))
	}
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	s := New(openTestDB(t), noteDescriptor())
	now := time.Now().UTC()
	for _, title := range []string{"Grocery List", "meeting notes", "Groceries again"} {
		if err := s.Save(context.Background(), &note{Title: title, CreatedAt: now}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	page, err := s.GetAll(context.Background(), ListParams{
		Search:       "GROCER",
		SearchFields: []string{"title", "body"},
	})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if page.TotalItems != 2 {
		t.Fatalf("total_items = %d, want 2", page.TotalItems)
	}
}

func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	s := New(openTestDB(t), noteDescriptor())
	now := time.Now().UTC()
	for _, title := range []string{"done 50%", "done 500"} {
		if err := s.Save(context.Background(), &note{Title: title, CreatedAt: now}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	page, err := s.GetAll(context.Background(), ListParams{
		Search:       "50%",
		SearchFields: []string{"title"},
	})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if page.TotalItems != 1 {
		t.Fatalf("total_items = %d, want 1 (percent must not act as a wildcard)", page.TotalItems)
	}
}

func TestPredicateScopesRowsByOwner(t *testing.T) {
	s := New(openTestDB(t), noteDescriptor())
	seedNotes(t, s, 3, 1)
	seedNotes(t, s, 2, 2)

	page, err := s.GetAll(context.Background(), ListParams{
		Predicate: Predicate{"created_by": int64(2)},
	})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if page.TotalItems != 2 {
		t.Fatalf("total_items = %d, want 2", page.TotalItems)
	}
	for _, n := range page.Results {
		if n.CreatedBy.Int64 != 2 {
			t.Fatalf("leaked row owned by %d", n.CreatedBy.Int64)
		}
	}

	count, err := s.Count(context.Background(), Predicate{"created_by": int64(1)})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}

func TestSaveUniqueAgainstRealIndex(t *testing.T) {
	s := New(openTestDB(t), noteDescriptor())
	now := time.Now().UTC()

	first := &note{Title: "singleton", CreatedAt: now}
	saved, err := s.SaveUnique(context.Background(), first, []string{"title"})
	if err != nil || !saved {
		t.Fatalf("first SaveUnique: saved=%v err=%v", saved, err)
	}

	saved, err = s.SaveUnique(context.Background(), &note{Title: "singleton", CreatedAt: now}, []string{"title"})
	if err != nil {
		t.Fatalf("second SaveUnique: %v", err)
	}
	if saved {
		t.Fatalf("duplicate title must not be saved")
	}

	// A raw insert hits the unique index directly; the store must
	// recognize the backend's duplicate-key error.
	err = s.Save(context.Background(), &note{Title: "singleton", CreatedAt: now})
	if err == nil {
		t.Fatalf("expected unique index violation")
	}
	if !isDuplicateKey(err) {
		t.Fatalf("error not recognized as duplicate key: %v", err)
	}
}

func TestSaveManyPersistsAllRows(t *testing.T) {
	s := New(openTestDB(t), noteDescriptor())
	now := time.Now().UTC()

	batch := []*note{
		{Title: "batch one", CreatedAt: now},
		{Title: "batch two", CreatedAt: now},
		{Title: "batch three", CreatedAt: now},
	}
	if err := s.SaveMany(context.Background(), batch); err != nil {
		t.Fatalf("SaveMany: %v", err)
	}
	for _, n := range batch {
		if n.ID == 0 {
			t.Fatalf("row %q did not receive an id", n.Title)
		}
	}
	count, err := s.Count(context.Background(), nil)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}

func TestUpdateByIDTouchesOnlyListedColumns(t *testing.T) {
	s := New(openTestDB(t), noteDescriptor())
	orig := &note{Title: "keep me", CreatedAt: time.Now().UTC()}
	if err := s.Save(context.Background(), orig); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.UpdateByID(context.Background(), orig.ID, nil, Changes{"body": "added later"})
	if err != nil {
		t.Fatalf("UpdateByID: %v", err)
	}
	if got == nil {
		t.Fatalf("row vanished")
	}
	if got.Title != "keep me" {
		t.Fatalf("title changed to %q", got.Title)
	}
	if got.Body.String != "added later" {
		t.Fatalf("body = %q, want %q", got.Body.String, "added later")
	}
}

func TestSoftDeletedRowHiddenFromScopedReads(t *testing.T) {
	s := New(openTestDB(t), noteDescriptor())
	n := &note{Title: "short lived", CreatedAt: time.Now().UTC()}
	if err := s.Save(context.Background(), n); err != nil {
		t.Fatalf("Save: %v", err)
	}

	marked, err := s.UpdateByID(context.Background(), n.ID, Predicate{"deleted_at": nil}, Changes{
		"deleted_at": time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("UpdateByID: %v", err)
	}
	if marked == nil || !marked.DeletedAt.Valid {
		t.Fatalf("soft delete not stamped: %+v", marked)
	}

	hidden, err := s.GetByID(context.Background(), n.ID, Predicate{"deleted_at": nil})
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if hidden != nil {
		t.Fatalf("soft-deleted row still visible under live-rows predicate")
	}

	visible, err := s.GetByID(context.Background(), n.ID, nil)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if visible == nil {
		t.Fatalf("soft-deleted row must stay reachable without the predicate")
	}
}
