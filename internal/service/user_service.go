package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-management/internal/authz"
	"github.com/iliyamo/theater-management/internal/repository"
	"github.com/iliyamo/theater-management/internal/utils"
)

// UserService provisions accounts on behalf of admins.
type UserService struct {
	users IdentityStore
	roles RoleStore
	log   *logrus.Logger
}

func NewUserService(users IdentityStore, roles RoleStore, log *logrus.Logger) *UserService {
	return &UserService{users: users, roles: roles, log: log}
}

// CreateUser creates an account with the requested roles. The user row and
// its role links are written together or not at all.
func (s *UserService) CreateUser(ctx context.Context, dto CreateUserDTO, caller authz.Caller) (UserDTO, error) {
	if err := authz.CanCreateUser(caller); err != nil {
		return UserDTO{}, err
	}
	if len(dto.Roles) == 0 {
		return UserDTO{}, invalid("roles", "at least one role required")
	}
	name := strings.TrimSpace(dto.UserName)
	if name == "" {
		return UserDTO{}, invalid("userName", "userName is required")
	}
	if problems := utils.PasswordProblems(dto.Password); len(problems) > 0 {
		return UserDTO{}, invalid("password", problems...)
	}

	if _, err := s.users.FindByUsername(ctx, name); err == nil {
		return UserDTO{}, invalid("userName", "username is already taken")
	} else if !errors.Is(err, ErrNotFound) {
		return UserDTO{}, fmt.Errorf("check username: %w", err)
	}

	roles, err := s.canonicalRoles(ctx, dto.Roles)
	if err != nil {
		return UserDTO{}, err
	}

	u, err := s.users.Create(ctx, name, dto.Password, roles)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return UserDTO{}, invalid("userName", "username is already taken")
	case errors.Is(err, repository.ErrUnknownRole):
		return UserDTO{}, invalid("roles", err.Error())
	case err != nil:
		return UserDTO{}, fmt.Errorf("create user: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": u.ID, "roles": roles, "caller_id": caller.ID}).Info("user created")
	return toUserDTO(u), nil
}

// canonicalRoles matches requested names case-insensitively against the
// role table, drops duplicates and reports every unknown name at once.
func (s *UserService) canonicalRoles(ctx context.Context, requested []string) ([]string, error) {
	known, err := s.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	byKey := make(map[string]string, len(known))
	for _, r := range known {
		byKey[strings.ToLower(r.Name)] = r.Name
	}

	seen := make(map[string]bool, len(requested))
	var out, unknown []string
	for _, raw := range requested {
		name, ok := byKey[strings.ToLower(strings.TrimSpace(raw))]
		if !ok {
			unknown = append(unknown, raw)
			continue
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	if len(unknown) > 0 {
		return nil, invalid("roles", "invalid roles: "+strings.Join(unknown, ", "))
	}
	return out, nil
}
