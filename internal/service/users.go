package service

import (
	"context"
	"database/sql"
	"time"

	"taskhub/internal/auth"
	"taskhub/internal/domain"
	"taskhub/internal/domain/models"
	"taskhub/internal/scope"
	"taskhub/internal/store"
)

// UserService adds registration, login and role management on top of the
// generic service.
type UserService struct {
	*Service[models.User]
}

func NewUsers(st *store.Store[models.User]) *UserService {
	// Users own their row by id, not created_by: self-registered
	// accounts have no creator yet must read their own profile.
	return &UserService{Service: New(Config[models.User]{
		Name:           "users",
		Store:          st,
		OwnershipField: "id",
	})}
}

// GetByEmail returns the first user with the given email visible to the
// caller, or nil when ignoreError is set and none exists.
func (s *UserService) GetByEmail(ctx context.Context, email string, ident scope.Identity, ignoreError bool) (*models.User, error) {
	users, err := s.GetByField(ctx, email, "email", ident, ignoreError, false)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

// Register creates a user with a hashed password and a unique email.
func (s *UserService) Register(ctx context.Context, fullname, email, password, phone string, ident scope.Identity) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Fullname:  fullname,
		Email:     email,
		Password:  hash,
		Type:      scope.RoleUser,
		CreatedAt: time.Now(),
	}
	if phone != "" {
		user.Phone = sql.NullString{String: phone, Valid: true}
	}
	if ident.UserID != nil {
		user.CreatedBy = sql.NullInt64{Int64: *ident.UserID, Valid: true}
	}
	return s.SaveUnique(ctx, user, []string{"email"}, ident, false)
}

// Login validates credentials and returns the user. A wrong email and a
// wrong password fail identically.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetByEmail(ctx, email, scope.System(), true)
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(user.Password, password) {
		return nil, domain.UnauthorizedError{}
	}
	return user, nil
}

// Edit applies a partial update, stamping the audit columns and keeping
// email unique.
func (s *UserService) Edit(ctx context.Context, id int64, patch models.UserPatch, ident scope.Identity) (*models.User, error) {
	changes := patch.Changes()
	changes["updated_at"] = time.Now()
	changes["updated_by"] = nullableID(ident.UserID)
	return s.UpdateByID(ctx, id, changes, ident, []string{"email"}, true, false, false)
}

// GrantAdmin promotes a user to the admin role.
func (s *UserService) GrantAdmin(ctx context.Context, id int64, ident scope.Identity) (*models.User, error) {
	changes := store.Changes{
		"type":       scope.RoleAdmin,
		"updated_at": time.Now(),
		"updated_by": nullableID(ident.UserID),
	}
	return s.UpdateByID(ctx, id, changes, ident, nil, true, false, false)
}

// EnsureAdmin idempotently creates the bootstrap admin account. Called at
// startup with system scope.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, nil
	}
	ident := scope.System()
	existing, err := s.GetByEmail(ctx, email, ident, true)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	admin, err := s.Register(ctx, "Admin", email, password, "", ident)
	if err != nil {
		return nil, err
	}
	return s.GrantAdmin(ctx, admin.ID, ident)
}
