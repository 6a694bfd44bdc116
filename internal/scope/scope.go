// Package scope derives the predicate that confines every read and write
// to the rows the caller may touch. Building a predicate never blocks and
// never touches the store.
package scope

import (
	"taskhub/internal/store"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// DeletedAtColumn is the soft-delete marker column shared by all entities
// that support soft deletion.
const DeletedAtColumn = "deleted_at"

// Identity is the per-request caller context, built once from the
// authentication state and immutable afterwards.
type Identity struct {
	UserID      *int64
	Role        string
	IsPublicAPI bool
}

func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

// System is the identity for internal calls: no user, no scoping.
func System() Identity { return Identity{} }

// ForUser builds an identity for a known user id and role.
func ForUser(userID int64, role string) Identity {
	return Identity{UserID: &userID, Role: role}
}

// OwnershipPredicate returns the predicate confining non-admin callers to
// their own rows. System calls (no user) and admins get no scoping.
func OwnershipPredicate(id Identity, ownershipField string) store.Predicate {
	if id.UserID == nil {
		return nil
	}
	if id.IsAdmin() {
		return nil
	}
	return store.Predicate{ownershipField: *id.UserID}
}

// EffectivePredicate is the single scoping mechanism for every read,
// update and delete: caller filters first, then soft-delete visibility,
// then ownership. Ownership keys win on conflict so a caller-supplied
// filter can never widen the scope.
func EffectivePredicate(id Identity, extra store.Predicate, includeDeleted bool, ownershipField string) store.Predicate {
	pred := store.Predicate{}
	for k, v := range extra {
		pred[k] = v
	}
	if !includeDeleted {
		pred[DeletedAtColumn] = nil
	}
	for k, v := range OwnershipPredicate(id, ownershipField) {
		pred[k] = v
	}
	return pred
}
