// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as services
// to distinguish between different failure scenarios without depending on
// driver specific errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique constraint, such
// as creating a second user with the same user name.
var ErrDuplicate = errors.New("duplicate")

// ErrUnknownRole is returned when a role name is not part of the role table.
var ErrUnknownRole = errors.New("unknown role")

// isDuplicate recognizes unique violations from both supported drivers.
func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
