package service

import (
	"errors"
	"strings"

	"github.com/iliyamo/theater-management/internal/authz"
	"github.com/iliyamo/theater-management/internal/repository"
)

// Error taxonomy shared by every service. Handlers map these to HTTP status
// codes with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = repository.ErrNotFound
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = authz.ErrUnauthorized
	ErrForbidden          = authz.ErrForbidden
)

// ValidationError describes malformed input. It unwraps to ErrValidation.
type ValidationError struct {
	Field    string
	Problems []string
}

func invalid(field string, problems ...string) *ValidationError {
	return &ValidationError{Field: field, Problems: problems}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
