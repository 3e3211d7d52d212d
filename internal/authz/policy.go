// Package authz holds the authorization rules for theater operations. The
// functions are pure: they look only at the caller and the theater state
// passed in and never touch storage.
package authz

import (
	"errors"

	"github.com/iliyamo/theater-management/internal/model"
)

var (
	// ErrUnauthorized means the caller could not be identified.
	ErrUnauthorized = errors.New("not authenticated")
	// ErrForbidden means the caller is known but lacks the privilege.
	ErrForbidden = errors.New("forbidden")
)

// Deny codes carried by DenyError.
const (
	CodeAdminRequired   = "ADMIN_REQUIRED"
	CodeNotManager      = "NOT_MANAGER"
	CodeManagerReassign = "MANAGER_REASSIGN_FORBIDDEN"
)

// DenyError explains a forbidden decision. It unwraps to ErrForbidden.
type DenyError struct {
	Code    string
	Message string
}

func (e *DenyError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *DenyError) Unwrap() error { return ErrForbidden }

// IsDenyError extracts a DenyError from an error chain.
func IsDenyError(err error) (*DenyError, bool) {
	var deny *DenyError
	if errors.As(err, &deny) {
		return deny, true
	}
	return nil, false
}

// Caller is the identity behind a request. The zero value is an anonymous
// caller.
type Caller struct {
	ID    int64
	Roles []string
}

// Authenticated reports whether the caller was resolved from a session.
func (c Caller) Authenticated() bool { return c.ID > 0 }

// HasRole reports whether the caller holds the named role.
func (c Caller) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the caller holds the Admin role.
func IsAdmin(c Caller) bool { return c.Authenticated() && c.HasRole(model.RoleAdmin) }

// CanReadTheater always allows: theaters are public.
func CanReadTheater(Caller, *model.Theater) error { return nil }

// CanCreateTheater allows admins only.
func CanCreateTheater(c Caller) error {
	if !c.Authenticated() {
		return ErrUnauthorized
	}
	if !IsAdmin(c) {
		return &DenyError{Code: CodeAdminRequired, Message: "only admins can create theaters"}
	}
	return nil
}

// UpdateDecision tells the caller of CanUpdateTheater which changes may be
// applied.
type UpdateDecision struct {
	// ReassignManager is true only for an admin asking for a manager other
	// than the current one. Otherwise the manager stays untouched.
	ReassignManager bool
}

// CanUpdateTheater allows admins and the theater's own manager. A manager
// may edit the other fields but may not ask for a different manager; asking
// for the current manager (or none) is accepted and ignored.
func CanUpdateTheater(c Caller, t model.Theater, proposedManagerID *int64) (UpdateDecision, error) {
	if !c.Authenticated() {
		return UpdateDecision{}, ErrUnauthorized
	}
	changes := proposedManagerID != nil && !sameManager(t.ManagerID, *proposedManagerID)
	if IsAdmin(c) {
		return UpdateDecision{ReassignManager: changes}, nil
	}
	if !t.ManagedBy(c.ID) {
		return UpdateDecision{}, &DenyError{Code: CodeNotManager, Message: "only admins or the manager can update this theater"}
	}
	if changes {
		return UpdateDecision{}, &DenyError{Code: CodeManagerReassign, Message: "only admins can change the manager"}
	}
	return UpdateDecision{}, nil
}

// CanDeleteTheater allows admins only.
func CanDeleteTheater(c Caller) error {
	if !c.Authenticated() {
		return ErrUnauthorized
	}
	if !IsAdmin(c) {
		return &DenyError{Code: CodeAdminRequired, Message: "only admins can delete theaters"}
	}
	return nil
}

// CanCreateUser allows admins only.
func CanCreateUser(c Caller) error {
	if !c.Authenticated() {
		return ErrUnauthorized
	}
	if !IsAdmin(c) {
		return &DenyError{Code: CodeAdminRequired, Message: "only admins can create users"}
	}
	return nil
}

func sameManager(current *int64, proposed int64) bool {
	return current != nil && *current == proposed
}
