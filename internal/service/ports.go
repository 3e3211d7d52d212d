package service

import (
	"context"
	"iter"
	"time"

	"github.com/iliyamo/theater-management/internal/model"
	"github.com/iliyamo/theater-management/internal/queue"
)

// IdentityStore persists users, their credentials and role links.
// Implemented by repository.UserRepo.
type IdentityStore interface {
	FindByUsername(ctx context.Context, userName string) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	CheckPassword(u *model.User, password string) bool
	Create(ctx context.Context, userName, password string, roles []string) (*model.User, error)
}

// RoleStore lists the role universe. Implemented by repository.RoleRepo.
type RoleStore interface {
	List(ctx context.Context) ([]model.Role, error)
}

// TheaterStore persists theaters. Implemented by repository.TheaterRepo.
type TheaterStore interface {
	All(ctx context.Context) iter.Seq2[model.Theater, error]
	GetByID(ctx context.Context, id int64) (*model.Theater, error)
	Create(ctx context.Context, t *model.Theater) error
	Update(ctx context.Context, t *model.Theater) error
	Delete(ctx context.Context, id int64) error
}

// SessionStore persists login sessions keyed by the hash of their id.
// Implemented by repository.SessionRepo.
type SessionStore interface {
	Create(ctx context.Context, userID int64, tokenHash string, exp time.Time) error
	Validate(ctx context.Context, tokenHash string) (int64, time.Time, error)
	Extend(ctx context.Context, tokenHash string, exp time.Time) error
	Revoke(ctx context.Context, tokenHash string) error
}

// EventPublisher receives committed theater changes.
type EventPublisher interface {
	Publish(ctx context.Context, event queue.TheaterEvent) error
}
