// Package service layers invariant checks over the record store: every
// read and write is scoped through the ownership predicate, updates are
// rejected when they would change nothing, and uniqueness conflicts
// surface as domain errors.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"taskhub/internal/domain"
	"taskhub/internal/scope"
	"taskhub/internal/store"
)

const (
	defaultOwnershipField = "created_by"
)

// Config declares one entity's service behavior. Zero values fall back to
// the conventional ownership field and audit exclusion set.
type Config[T any] struct {
	// Name identifies the entity in error messages ("users", "tasks").
	Name  string
	Store *store.Store[T]
	// OwnershipField scopes non-admin access; defaults to created_by.
	OwnershipField string
	// AuditExcluded lists columns ignored by modified-detection;
	// defaults to updated_at and updated_by.
	AuditExcluded []string
}

// Service implements the generic operations shared by every entity.
type Service[T any] struct {
	name           string
	store          *store.Store[T]
	ownershipField string
	auditExcluded  map[string]struct{}
}

func New[T any](cfg Config[T]) *Service[T] {
	if cfg.Store == nil {
		panic(fmt.Sprintf("service %s: nil store", cfg.Name))
	}
	if cfg.OwnershipField == "" {
		cfg.OwnershipField = defaultOwnershipField
	}
	if cfg.AuditExcluded == nil {
		cfg.AuditExcluded = []string{"updated_at", "updated_by"}
	}
	excluded := make(map[string]struct{}, len(cfg.AuditExcluded))
	for _, f := range cfg.AuditExcluded {
		excluded[f] = struct{}{}
	}
	return &Service[T]{
		name:           cfg.Name,
		store:          cfg.Store,
		ownershipField: cfg.OwnershipField,
		auditExcluded:  excluded,
	}
}

func (s *Service[T]) Name() string { return s.name }

// Store exposes the underlying record store for entity-specific services.
func (s *Service[T]) Store() *store.Store[T] { return s.store }

func (s *Service[T]) scoped(ident scope.Identity, extra store.Predicate, includeDeleted bool) store.Predicate {
	return scope.EffectivePredicate(ident, extra, includeDeleted, s.ownershipField)
}

// GetByID fetches one row under the caller's scope. Absent rows fail with
// NotFound unless ignoreError, in which case nil is returned silently.
func (s *Service[T]) GetByID(ctx context.Context, id int64, ident scope.Identity, ignoreError, includeDeleted bool) (*T, error) {
	item, err := s.store.GetByID(ctx, id, s.scoped(ident, nil, includeDeleted))
	if err != nil {
		return nil, err
	}
	if item == nil && !ignoreError {
		return nil, domain.NotFoundError{Resource: s.name, Key: fmt.Sprint(id)}
	}
	return item, nil
}

// GetByField fetches rows matching one column value under the caller's
// scope. An empty result follows the same not-found policy as GetByID.
func (s *Service[T]) GetByField(ctx context.Context, value any, field string, ident scope.Identity, ignoreError, includeDeleted bool) ([]T, error) {
	items, err := s.store.GetByField(ctx, field, value, s.scoped(ident, nil, includeDeleted))
	if err != nil {
		return nil, err
	}
	if len(items) == 0 && !ignoreError {
		return nil, domain.NotFoundError{Resource: s.name, Key: fmt.Sprint(value)}
	}
	return items, nil
}

// GetAll lists rows under the caller's scope. An empty page is a valid
// outcome, never an error.
func (s *Service[T]) GetAll(ctx context.Context, ident scope.Identity, p store.ListParams, includeDeleted bool) (store.Page[T], error) {
	p.Predicate = s.scoped(ident, p.Predicate, includeDeleted)
	return s.store.GetAll(ctx, p)
}

// CheckUnique verifies no row matches the non-nil values of uniqueFields.
// When every candidate value is nil it reports "not unique" without
// querying, so an empty payload can never pass as a uniqueness proof.
func (s *Service[T]) CheckUnique(ctx context.Context, values map[string]any, uniqueFields []string, ignoreError bool) (bool, error) {
	pred := store.Predicate{}
	var first any
	for _, f := range uniqueFields {
		// An unknown column would vanish from the count predicate and
		// make every row look like a conflict.
		if !s.store.HasColumn(f) {
			continue
		}
		v, ok := values[f]
		if !ok || isNilValue(v) {
			continue
		}
		if first == nil {
			first = v
		}
		pred[f] = v
	}
	if len(pred) == 0 {
		return false, nil
	}
	total, err := s.store.Count(ctx, pred)
	if err != nil {
		return false, err
	}
	if total == 0 {
		return true, nil
	}
	if ignoreError {
		return false, nil
	}
	return false, domain.ConflictError{Resource: s.name, Value: fmt.Sprint(first)}
}

// Save inserts the entity. Creation is never ownership-scoped.
func (s *Service[T]) Save(ctx context.Context, e *T, _ scope.Identity) (*T, error) {
	if err := s.store.Save(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// SaveMany inserts all entities atomically.
func (s *Service[T]) SaveMany(ctx context.Context, es []*T, _ scope.Identity) ([]*T, error) {
	if err := s.store.SaveMany(ctx, es); err != nil {
		return nil, err
	}
	return es, nil
}

// SaveUnique inserts the entity unless a row already matches uniqueFields,
// failing with Conflict (naming the first unique field's value) unless
// ignoreError, in which case nil is returned.
func (s *Service[T]) SaveUnique(ctx context.Context, e *T, uniqueFields []string, _ scope.Identity, ignoreError bool) (*T, error) {
	saved, err := s.store.SaveUnique(ctx, e, uniqueFields)
	if err != nil {
		return nil, err
	}
	if !saved {
		if ignoreError {
			return nil, nil
		}
		var value any
		if len(uniqueFields) > 0 {
			value, _ = s.store.Value(e, uniqueFields[0])
		}
		return nil, domain.ConflictError{Resource: s.name, Value: fmt.Sprint(normalizeValue(value))}
	}
	return e, nil
}

// UpdateByID resolves the row under the caller's scope, optionally rejects
// no-op payloads (NotModified) and uniqueness conflicts, then applies only
// the columns present in changes.
func (s *Service[T]) UpdateByID(ctx context.Context, id int64, changes store.Changes, ident scope.Identity, uniqueFields []string, checkModified, ignoreError, includeDeleted bool) (*T, error) {
	existing, err := s.GetByID(ctx, id, ident, ignoreError, includeDeleted)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	if checkModified && !s.isModified(existing, changes) {
		if !ignoreError {
			return nil, domain.NotModifiedError{Resource: s.name}
		}
		return nil, nil
	}

	if len(uniqueFields) > 0 {
		if _, err := s.CheckUnique(ctx, changes, uniqueFields, ignoreError); err != nil {
			return nil, err
		}
	}

	return s.store.UpdateByID(ctx, id, s.scoped(ident, nil, includeDeleted), changes)
}

// HardDeleteByID removes the row permanently under the caller's scope.
func (s *Service[T]) HardDeleteByID(ctx context.Context, id int64, ident scope.Identity, ignoreError, includeDeleted bool) (bool, error) {
	removed, err := s.store.DeleteByID(ctx, id, s.scoped(ident, nil, includeDeleted))
	if err != nil {
		return false, err
	}
	if !removed && !ignoreError {
		return false, domain.NotFoundError{Resource: s.name, Key: fmt.Sprint(id)}
	}
	return removed, nil
}

// SoftDeleteByID stamps deleted_at/deleted_by through UpdateByID. The
// default scope already excludes deleted rows, so a second soft delete
// fails NotFound. Panics when the entity type lacks soft-delete columns:
// that is a wiring mistake, not a domain error.
func (s *Service[T]) SoftDeleteByID(ctx context.Context, id int64, ident scope.Identity, ignoreError bool) (*T, error) {
	if !s.store.HasSoftDelete() {
		panic(fmt.Sprintf("service %s: entity does not declare deleted_at/deleted_by", s.name))
	}
	changes := store.Changes{
		"deleted_at": time.Now(),
		"deleted_by": nullableID(ident.UserID),
	}
	// Soft delete always counts as a valid update even when nothing else
	// on the row changed.
	return s.UpdateByID(ctx, id, changes, ident, nil, false, ignoreError, false)
}

// isModified reports whether any non-audit column in changes differs from
// the stored row.
func (s *Service[T]) isModified(existing *T, changes store.Changes) bool {
	for col, val := range changes {
		if _, excluded := s.auditExcluded[col]; excluded {
			continue
		}
		current, ok := s.store.Value(existing, col)
		if !ok {
			continue
		}
		if !valuesEqual(current, val) {
			return true
		}
	}
	return false
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func isNilValue(v any) bool {
	return normalizeValue(v) == nil
}

// normalizeValue strips sql.Null* wrappers and pointers so patch values
// compare cleanly against scanned column values.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *int64:
		if x == nil {
			return nil
		}
		return *x
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	case sql.NullInt64:
		if !x.Valid {
			return nil
		}
		return x.Int64
	case sql.NullString:
		if !x.Valid {
			return nil
		}
		return x.String
	case sql.NullTime:
		if !x.Valid {
			return nil
		}
		return x.Time
	case int:
		return int64(x)
	case int32:
		return int64(x)
	default:
		return v
	}
}

func valuesEqual(a, b any) bool {
	na, nb := normalizeValue(a), normalizeValue(b)
	if ta, ok := na.(time.Time); ok {
		tb, ok := nb.(time.Time)
		return ok && ta.Equal(tb)
	}
	return na == nb
}
