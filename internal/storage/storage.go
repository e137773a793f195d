package storage

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrBookNotFound    = errors.New("book not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrOTPNotFound     = errors.New("one-time password not found")
)

// DuplicateFieldError reports which unique field rejected an insert.
// It matches ErrUserExists with errors.Is.
type DuplicateFieldError struct {
	Field string
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("%q already exists", e.Field)
}

func (e *DuplicateFieldError) Is(target error) bool {
	return target == ErrUserExists
}
