package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Descriptor declares everything the store needs to know about an entity
// type. Each entity registers one descriptor; no reflection is involved.
// Columns[0] must be the numeric id column.
type Descriptor[T any] struct {
	Table   string
	Columns []string

	// ScanDest returns scan targets aligned with Columns.
	ScanDest func(*T) []any
	// Values returns column values aligned with Columns.
	Values func(*T) []any

	ID    func(*T) int64
	SetID func(*T, int64)

	// SoftDelete reports whether the table carries deleted_at/deleted_by.
	SoftDelete bool
}

// Store runs typed CRUD against one table. All scoping arrives as a
// pre-built Predicate; the store itself applies no ownership rules.
type Store[T any] struct {
	db    *sql.DB
	desc  Descriptor[T]
	known map[string]struct{}
}

func New[T any](db *sql.DB, desc Descriptor[T]) *Store[T] {
	if desc.Table == "" || len(desc.Columns) == 0 {
		panic("store: descriptor needs a table and columns")
	}
	if desc.Columns[0] != "id" {
		panic("store: first descriptor column must be id")
	}
	known := make(map[string]struct{}, len(desc.Columns))
	for _, c := range desc.Columns {
		known[c] = struct{}{}
	}
	return &Store[T]{db: db, desc: desc, known: known}
}

// Table exposes the backing table name (used in log lines).
func (s *Store[T]) Table() string { return s.desc.Table }

// HasSoftDelete reports whether the entity declares soft-delete columns.
func (s *Store[T]) HasSoftDelete() bool { return s.desc.SoftDelete }

// HasColumn reports whether the descriptor declares the column.
func (s *Store[T]) HasColumn(col string) bool {
	_, ok := s.known[col]
	return ok
}

// Value reads one column value off an entity by column name.
func (s *Store[T]) Value(e *T, col string) (any, bool) {
	vals := s.desc.Values(e)
	for i, c := range s.desc.Columns {
		if c == col {
			return vals[i], true
		}
	}
	return nil, false
}

func (s *Store[T]) selectList() string {
	return strings.Join(s.desc.Columns, ", ")
}

func (s *Store[T]) scanOne(row *sql.Row) (*T, error) {
	var e T
	if err := row.Scan(s.desc.ScanDest(&e)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// GetByID returns the row matching id plus every predicate field, or nil
// when no row matches.
func (s *Store[T]) GetByID(ctx context.Context, id int64, pred Predicate) (*T, error) {
	conds := []string{"id = ?"}
	args := []any{id}
	conds, args = appendPredicate(conds, args, pred, s.known)

	query := "SELECT " + s.selectList() + " FROM " + s.desc.Table +
		" WHERE " + strings.Join(conds, " AND ") + " LIMIT 1"
	return s.scanOne(s.db.QueryRowContext(ctx, query, args...))
}

// GetByField returns every row whose named column equals value, under the
// predicate. An empty result is a valid outcome, not an error.
func (s *Store[T]) GetByField(ctx context.Context, field string, value any, pred Predicate) ([]T, error) {
	if _, ok := s.known[field]; !ok {
		return nil, fmt.Errorf("store: %s has no column %q", s.desc.Table, field)
	}
	conds := []string{field + " = ?"}
	args := []any{value}
	conds, args = appendPredicate(conds, args, pred, s.known)

	query := "SELECT " + s.selectList() + " FROM " + s.desc.Table +
		" WHERE " + strings.Join(conds, " AND ")
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var e T
		if err := rows.Scan(s.desc.ScanDest(&e)...); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetAll applies the predicate as an exact-match conjunction, optionally
// ANDs in an OR-group of case-insensitive substring matches over
// SearchFields, counts before paginating, then sorts and slices.
// Unknown sort or predicate columns are silently ignored.
func (s *Store[T]) GetAll(ctx context.Context, p ListParams) (Page[T], error) {
	var page Page[T]

	conds := []string{"1=1"}
	args := []any{}
	conds, args = appendPredicate(conds, args, p.Predicate, s.known)

	if p.Search != "" && len(p.SearchFields) > 0 {
		group := []string{}
		needle := "%" + strings.ToLower(likeEscape(p.Search)) + "%"
		for _, f := range p.SearchFields {
			if _, ok := s.known[f]; !ok {
				continue
			}
			group = append(group, "LOWER("+f+") LIKE ? ESCAPE '!'")
			args = append(args, needle)
		}
		if len(group) > 0 {
			conds = append(conds, "("+strings.Join(group, " OR ")+")")
		}
	}

	where := strings.Join(conds, " AND ")

	countQuery := "SELECT COUNT(*) FROM " + s.desc.Table + " WHERE " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&page.TotalItems); err != nil {
		return page, err
	}

	query := "SELECT " + s.selectList() + " FROM " + s.desc.Table + " WHERE " + where
	if _, ok := s.known[p.SortBy]; ok {
		dir := "DESC"
		if strings.EqualFold(p.Order, "asc") {
			dir = "ASC"
		}
		query += " ORDER BY " + p.SortBy + " " + dir
	}
	if p.Limit > 0 {
		pageNo := p.Page
		if pageNo < 1 {
			pageNo = 1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, p.Limit, (pageNo-1)*p.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return page, err
	}
	defer rows.Close()

	page.Results = []T{}
	for rows.Next() {
		var e T
		if err := rows.Scan(s.desc.ScanDest(&e)...); err != nil {
			return page, err
		}
		page.Results = append(page.Results, e)
	}
	if err := rows.Err(); err != nil {
		return page, err
	}

	page.RecordsPerPage = len(page.Results)
	if p.Limit > 0 {
		page.TotalPage = (page.TotalItems + int64(p.Limit) - 1) / int64(p.Limit)
	} else {
		page.TotalPage = 1
	}
	return page, nil
}

func (s *Store[T]) insertOne(run func(query string, args ...any) (sql.Result, error), e *T) error {
	cols := s.desc.Columns[1:]
	vals := s.desc.Values(e)[1:]
	ph := make([]string, len(cols))
	for i := range ph {
		ph[i] = "?"
	}
	query := "INSERT INTO " + s.desc.Table + " (" + strings.Join(cols, ", ") +
		") VALUES (" + strings.Join(ph, ", ") + ")"
	res, err := run(query, vals...)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.desc.SetID(e, id)
	return nil
}

// Save inserts the entity and fills in the generated id.
func (s *Store[T]) Save(ctx context.Context, e *T) error {
	return s.insertOne(func(q string, args ...any) (sql.Result, error) {
		return s.db.ExecContext(ctx, q, args...)
	}, e)
}

// SaveMany inserts all entities in one transaction: either every row is
// persisted or none are.
func (s *Store[T]) SaveMany(ctx context.Context, es []*T) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, e := range es {
		if err := s.insertOne(func(q string, args ...any) (sql.Result, error) {
			return tx.ExecContext(ctx, q, args...)
		}, e); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// SaveUnique inserts the entity only when no existing row matches all of
// uniqueFields (conjunction) against the candidate's values. Returns false
// without inserting when a match exists. The check and insert share one
// transaction, and a duplicate-key error from the table's unique index is
// also reported as "not saved", which keeps concurrent racers from both
// succeeding.
func (s *Store[T]) SaveUnique(ctx context.Context, e *T, uniqueFields []string) (bool, error) {
	conds := []string{"1=1"}
	args := []any{}
	for _, f := range uniqueFields {
		if _, ok := s.known[f]; !ok {
			continue
		}
		v, _ := s.Value(e, f)
		if v == nil {
			conds = append(conds, f+" IS NULL")
			continue
		}
		conds = append(conds, f+" = ?")
		args = append(args, v)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}

	var count int64
	countQuery := "SELECT COUNT(*) FROM " + s.desc.Table + " WHERE " + strings.Join(conds, " AND ")
	if err := tx.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		tx.Rollback()
		return false, err
	}
	if count > 0 {
		tx.Rollback()
		return false, nil
	}

	if err := s.insertOne(func(q string, qargs ...any) (sql.Result, error) {
		return tx.ExecContext(ctx, q, qargs...)
	}, e); err != nil {
		tx.Rollback()
		if isDuplicateKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, tx.Commit()
}

// UpdateByID applies only the columns present in changes to the row
// matching id plus predicate, then returns the refreshed row. Returns nil
// when no row matches.
func (s *Store[T]) UpdateByID(ctx context.Context, id int64, pred Predicate, changes Changes) (*T, error) {
	existing, err := s.GetByID(ctx, id, pred)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	set := []string{}
	args := []any{}
	for _, col := range sortedKeys(changes) {
		if col == "id" {
			continue
		}
		if _, ok := s.known[col]; !ok {
			continue
		}
		set = append(set, col+" = ?")
		args = append(args, changes[col])
	}
	if len(set) > 0 {
		args = append(args, id)
		query := "UPDATE " + s.desc.Table + " SET " + strings.Join(set, ", ") + " WHERE id = ?"
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return nil, err
		}
	}
	// Refresh by id alone: a soft delete stops matching the original
	// predicate as soon as it lands.
	return s.GetByID(ctx, id, nil)
}

// DeleteByID hard-deletes the row matching id plus predicate and reports
// whether a row was removed.
func (s *Store[T]) DeleteByID(ctx context.Context, id int64, pred Predicate) (bool, error) {
	conds := []string{"id = ?"}
	args := []any{id}
	conds, args = appendPredicate(conds, args, pred, s.known)

	query := "DELETE FROM " + s.desc.Table + " WHERE " + strings.Join(conds, " AND ")
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count returns how many rows match the predicate.
func (s *Store[T]) Count(ctx context.Context, pred Predicate) (int64, error) {
	conds := []string{"1=1"}
	args := []any{}
	conds, args = appendPredicate(conds, args, pred, s.known)

	var count int64
	query := "SELECT COUNT(*) FROM " + s.desc.Table + " WHERE " + strings.Join(conds, " AND ")
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// isDuplicateKey recognizes unique-index violations from MySQL (1062) and
// from the SQLite backend used in tests.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
