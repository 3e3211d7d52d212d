// Package seed bootstraps an empty deployment with the baseline roles, users
// and theaters. Every step takes its stores as parameters and may run on every
// startup.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-management/internal/model"
	"github.com/iliyamo/theater-management/internal/repository"
)

type RoleStore interface {
	Ensure(ctx context.Context, name string) (bool, error)
}

type UserStore interface {
	FindByUsername(ctx context.Context, userName string) (*model.User, error)
	Create(ctx context.Context, userName, password string, roles []string) (*model.User, error)
}

type TheaterStore interface {
	Count(ctx context.Context) (int, error)
	CreateAll(ctx context.Context, theaters []*model.Theater) error
}

// BaselineUser is a seeded account holding exactly one role.
type BaselineUser struct {
	UserName string
	Role     string
}

// ManagerUserName manages the baseline theaters.
const ManagerUserName = "galkadi"

var (
	BaselineRoles = []string{model.RoleAdmin, model.RoleUser}

	BaselineUsers = []BaselineUser{
		{UserName: ManagerUserName, Role: model.RoleAdmin},
		{UserName: "bob", Role: model.RoleUser},
		{UserName: "sue", Role: model.RoleUser},
	}

	BaselineTheaters = []model.Theater{
		{Name: "Theater One", Address: "123 Main Street", SeatCount: 100},
		{Name: "Theater Two", Address: "456 Oak Avenue", SeatCount: 200},
		{Name: "Theater Three", Address: "789 Elm Road", SeatCount: 300},
	}
)

// Stores groups the handles the seeding steps write to.
type Stores struct {
	Roles    RoleStore
	Users    UserStore
	Theaters TheaterStore
}

// Run seeds roles, then users, then theaters.
func Run(ctx context.Context, st Stores, password string, log *logrus.Logger) error {
	if err := Roles(ctx, st.Roles, BaselineRoles, log); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	if err := Users(ctx, st.Users, BaselineUsers, password, log); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	if err := Theaters(ctx, st.Theaters, st.Users, ManagerUserName, BaselineTheaters, log); err != nil {
		return fmt.Errorf("seed theaters: %w", err)
	}
	return nil
}

// Roles creates every missing role.
func Roles(ctx context.Context, store RoleStore, names []string, log *logrus.Logger) error {
	for _, name := range names {
		created, err := store.Ensure(ctx, name)
		if err != nil {
			return err
		}
		if created {
			log.WithField("role", name).Info("seeded role")
		}
	}
	return nil
}

// Users creates the accounts that do not exist yet. Existing accounts keep
// their password and roles.
func Users(ctx context.Context, store UserStore, users []BaselineUser, password string, log *logrus.Logger) error {
	for _, bu := range users {
		_, err := store.FindByUsername(ctx, bu.UserName)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		u, err := store.Create(ctx, bu.UserName, password, []string{bu.Role})
		if errors.Is(err, repository.ErrDuplicate) {
			continue
		}
		if err != nil {
			return fmt.Errorf("create %s: %w", bu.UserName, err)
		}
		log.WithFields(logrus.Fields{"user": u.UserName, "role": bu.Role}).Info("seeded user")
	}
	return nil
}

// Theaters inserts the baseline theaters, all managed by managerName, but
// only when no theater exists at all.
func Theaters(ctx context.Context, theaters TheaterStore, users UserStore, managerName string, baseline []model.Theater, log *logrus.Logger) error {
	n, err := theaters.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.WithField("count", n).Debug("theaters present; skipping theater seed")
		return nil
	}
	manager, err := users.FindByUsername(ctx, managerName)
	if err != nil {
		return fmt.Errorf("find manager %s: %w", managerName, err)
	}

	batch := make([]*model.Theater, 0, len(baseline))
	for _, t := range baseline {
		t := t
		t.ManagerID = &manager.ID
		batch = append(batch, &t)
	}
	if err := theaters.CreateAll(ctx, batch); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"count": len(batch), "manager": managerName}).Info("seeded theaters")
	return nil
}
