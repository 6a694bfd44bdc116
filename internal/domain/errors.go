package domain

import (
	"errors"
	"fmt"
)

// NotFoundError covers every way a row can be out of reach: missing,
// soft-deleted, or owned by another user. Callers cannot tell these apart.
type NotFoundError struct {
	Resource string
	Key      string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.Key)
}

func (e NotFoundError) Unwrap() error { return e.Err }

// NotModifiedError signals an update whose payload matches the stored row
// field for field, audit fields excluded.
type NotModifiedError struct {
	Resource string
}

func (e NotModifiedError) Error() string {
	if e.Resource == "" {
		return "not modified"
	}
	return fmt.Sprintf("%s not modified", e.Resource)
}

// ConflictError signals a uniqueness violation. Value names the first
// offending field value so the API layer can build its payload.
type ConflictError struct {
	Resource string
	Value    string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Value != "" && e.Resource != "":
		return fmt.Sprintf("%s %s already exists", e.Resource, e.Value)
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type UnauthorizedError struct {
	Msg string
}

func (e UnauthorizedError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "could not authorize credentials"
}

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsNotModified(err error) bool {
	var target NotModifiedError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsUnauthorized(err error) bool {
	var target UnauthorizedError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}
