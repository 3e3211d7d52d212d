// Package repository contains data access logic separated from HTTP handlers.
// This file defines the theater repository: CRUD and lookups over the
// `theaters` table.  Manager references are nullable foreign keys into users.
package repository

import (
	"context"      // context allows passing deadlines and cancellation signals to DB operations
	"database/sql" // sql provides generic database operations and drivers
	"errors"       // errors distinguishes sql.ErrNoRows
	"fmt"          // fmt wraps driver errors with the failing operation
	"iter"         // iter exposes the listing as a lazy sequence
	"time"         // time stamps created_at / updated_at

	"github.com/iliyamo/theater-management/internal/model"
)

// TheaterRepo encapsulates all database queries related to theaters.
type TheaterRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewTheaterRepo constructs a TheaterRepo with the provided DB handle.
func NewTheaterRepo(db *sql.DB) *TheaterRepo {
	return &TheaterRepo{db: db}
}

const selectTheater = "SELECT id, name, address, seat_count, manager_id, created_at, updated_at FROM theaters"

type scanner interface{ Scan(dest ...any) error }

func scanTheater(row scanner) (model.Theater, error) {
	var (
		t       model.Theater
		manager sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Address, &t.SeatCount, &manager, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return model.Theater{}, err
	}
	if manager.Valid {
		id := manager.Int64
		t.ManagerID = &id
	}
	return t, nil
}

func nullable(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

// All streams every theater ordered by id.  Rows are read as the sequence is
// consumed and released when iteration stops; a query or scan failure is
// yielded once as the error value and ends the sequence.
func (r *TheaterRepo) All(ctx context.Context) iter.Seq2[model.Theater, error] {
	return func(yield func(model.Theater, error) bool) {
		rows, err := r.db.QueryContext(ctx, selectTheater+" ORDER BY id")
		if err != nil {
			yield(model.Theater{}, fmt.Errorf("query theaters: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTheater(rows)
			if err != nil {
				yield(model.Theater{}, fmt.Errorf("scan theater: %w", err))
				return
			}
			if !yield(t, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(model.Theater{}, err)
		}
	}
}

// GetByID fetches a theater by its ID.  It returns ErrNotFound if no row is
// found.
func (r *TheaterRepo) GetByID(ctx context.Context, id int64) (*model.Theater, error) {
	t, err := scanTheater(r.db.QueryRowContext(ctx, selectTheater+" WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get theater: %w", err)
	}
	return &t, nil
}

// Create inserts a new theater.  On success the theater's ID and timestamps
// are populated.
func (r *TheaterRepo) Create(ctx context.Context, t *model.Theater) error {
	return insertTheater(ctx, r.db, t)
}

// CreateAll inserts every theater in one transaction: all rows are written
// or none.
func (r *TheaterRepo) CreateAll(ctx context.Context, theaters []*model.Theater) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, t := range theaters {
		if err := insertTheater(ctx, tx, t); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTheater(ctx context.Context, db execer, t *model.Theater) error {
	now := time.Now().UTC()
	res, err := db.ExecContext(ctx,
		"INSERT INTO theaters (name, address, seat_count, manager_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		t.Name, t.Address, t.SeatCount, nullable(t.ManagerID), now, now)
	if err != nil {
		return fmt.Errorf("insert theater: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("theater last insert id: %w", err)
	}
	t.ID = id
	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}

// Update writes name, address, seat count and manager of an existing
// theater.  Concurrent updates are last-writer-wins.
func (r *TheaterRepo) Update(ctx context.Context, t *model.Theater) error {
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx,
		"UPDATE theaters SET name = ?, address = ?, seat_count = ?, manager_id = ?, updated_at = ? WHERE id = ?",
		t.Name, t.Address, t.SeatCount, nullable(t.ManagerID), now, t.ID); err != nil {
		return fmt.Errorf("update theater: %w", err)
	}
	t.UpdatedAt = now
	return nil
}

// Delete removes a theater.  It returns ErrNotFound when no row matched.
func (r *TheaterRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM theaters WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete theater: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of theaters.
func (r *TheaterRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM theaters").Scan(&n)
	return n, err
}
