package models

import (
	"database/sql"
	"time"

	"taskhub/internal/store"
)

// User mirrors the users table. Password holds the bcrypt hash, never the
// plaintext. DeletedAt/DeletedBy are set together or not at all.
type User struct {
	ID        int64
	Fullname  string
	Email     string
	Phone     sql.NullString
	Password  string
	Type      string // "admin" or "user"
	CreatedAt time.Time
	CreatedBy sql.NullInt64
	UpdatedAt sql.NullTime
	UpdatedBy sql.NullInt64
	DeletedAt sql.NullTime
	DeletedBy sql.NullInt64
}

func (u *User) IsDeleted() bool { return u.DeletedAt.Valid }

func UserDescriptor() store.Descriptor[User] {
	return store.Descriptor[User]{
		Table: "users",
		Columns: []string{
			"id", "fullname", "email", "phone", "password", "type",
			"created_at", "created_by", "updated_at", "updated_by",
			"deleted_at", "deleted_by",
		},
		ScanDest: func(u *User) []any {
			return []any{
				&u.ID, &u.Fullname, &u.Email, &u.Phone, &u.Password, &u.Type,
				&u.CreatedAt, &u.CreatedBy, &u.UpdatedAt, &u.UpdatedBy,
				&u.DeletedAt, &u.DeletedBy,
			}
		},
		Values: func(u *User) []any {
			return []any{
				u.ID, u.Fullname, u.Email, u.Phone, u.Password, u.Type,
				u.CreatedAt, u.CreatedBy, u.UpdatedAt, u.UpdatedBy,
				u.DeletedAt, u.DeletedBy,
			}
		},
		ID:         func(u *User) int64 { return u.ID },
		SetID:      func(u *User, id int64) { u.ID = id },
		SoftDelete: true,
	}
}

// UserPatch supports PATCH-style updates via key presence: only non-nil
// fields reach the store.
type UserPatch struct {
	Fullname *string
	Email    *string
	Phone    *string
}

func (p UserPatch) Changes() store.Changes {
	ch := store.Changes{}
	if p.Fullname != nil {
		ch["fullname"] = *p.Fullname
	}
	if p.Email != nil {
		ch["email"] = *p.Email
	}
	if p.Phone != nil {
		ch["phone"] = *p.Phone
	}
	return ch
}
