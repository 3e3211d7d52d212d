package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/theater-management/internal/model"
)

// RoleRepo persists the role universe.
type RoleRepo struct{ db *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{db: db} }

// List returns every role ordered by id.
func (r *RoleRepo) List(ctx context.Context) ([]model.Role, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM roles ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	var out []model.Role
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

// Ensure creates the named role if it is missing and reports whether it did.
func (r *RoleRepo) Ensure(ctx context.Context, name string) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, "SELECT id FROM roles WHERE name = ?", name).Scan(&id)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("lookup role: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, "INSERT INTO roles (name) VALUES (?)", name); err != nil {
		if isDuplicate(err) {
			return false, nil // created concurrently
		}
		return false, fmt.Errorf("insert role: %w", err)
	}
	return true, nil
}
