package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/theater-management/internal/model"
	"github.com/iliyamo/theater-management/internal/utils"
)

// UserRepo is the identity store: users, their bcrypt credentials and the
// roles linked to them through user_roles.
type UserRepo struct {
	db   *sql.DB
	cost int
}

// NewUserRepo constructs a UserRepo hashing new passwords with the given
// bcrypt cost.
func NewUserRepo(db *sql.DB, bcryptCost int) *UserRepo {
	return &UserRepo{db: db, cost: bcryptCost}
}

const selectUser = "SELECT id, user_name, password_hash, created_at, updated_at FROM users"

// FindByUsername fetches a user and its roles by user name.
func (r *UserRepo) FindByUsername(ctx context.Context, userName string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, selectUser+" WHERE user_name = ? LIMIT 1", strings.TrimSpace(userName))
	return r.scanWithRoles(ctx, row)
}

// FindByID fetches a user and its roles by id.
func (r *UserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, selectUser+" WHERE id = ? LIMIT 1", id)
	return r.scanWithRoles(ctx, row)
}

func (r *UserRepo) scanWithRoles(ctx context.Context, row *sql.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.UserName, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	roles, err := r.RolesFor(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Roles = roles
	return &u, nil
}

// CheckPassword safely compares the stored hash with a plain password.
func (r *UserRepo) CheckPassword(u *model.User, password string) bool {
	return utils.VerifyPassword(u.PasswordHash, password)
}

// Create inserts a user with a hashed password and links every requested
// role inside one transaction.  Either the user exists with all its roles
// afterwards or nothing was written.
func (r *UserRepo) Create(ctx context.Context, userName, password string, roles []string) (u *model.User, err error) {
	hash, err := utils.HashPassword(password, r.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (user_name, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?)",
		userName, hash, now, now)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("user last insert id: %w", err)
	}

	for _, role := range roles {
		if err = linkRole(ctx, tx, id, role); err != nil {
			return nil, err
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit user: %w", err)
	}

	return &model.User{
		ID:           id,
		UserName:     userName,
		PasswordHash: hash,
		Roles:        append([]string(nil), roles...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func linkRole(ctx context.Context, tx *sql.Tx, userID int64, role string) error {
	var roleID int64
	if err := tx.QueryRowContext(ctx, "SELECT id FROM roles WHERE name = ?", role).Scan(&roleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrUnknownRole, role)
		}
		return fmt.Errorf("lookup role: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)", userID, roleID); err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user role: %w", err)
	}
	return nil
}

// RolesFor returns the role names of a user ordered by name.
func (r *UserRepo) RolesFor(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT r.name FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = ? ORDER BY r.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	roles := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		roles = append(roles, name)
	}
	return roles, rows.Err()
}

// Delete removes a user. Role links and sessions go with it through the
// foreign keys.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of users.
func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}
