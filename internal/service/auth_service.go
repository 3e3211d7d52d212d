package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-management/internal/authz"
	"github.com/iliyamo/theater-management/internal/utils"
)

// IssuedSession is a freshly signed session token that the HTTP layer has to
// write into the session cookie.
type IssuedSession struct {
	Token     string
	ExpiresAt time.Time
}

// AuthService logs users in and out and resolves session tokens to callers.
type AuthService struct {
	users    IdentityStore
	sessions SessionStore
	secret   string
	ttl      time.Duration
	log      *logrus.Logger
	now      func() time.Time
}

// NewAuthService wires an AuthService. Sessions last ttl and slide forward
// when used past half their lifetime.
func NewAuthService(users IdentityStore, sessions SessionStore, secret string, ttl time.Duration, log *logrus.Logger) *AuthService {
	return &AuthService{users: users, sessions: sessions, secret: secret, ttl: ttl, log: log, now: time.Now}
}

// Login checks the credentials and opens a session. A missing user and a
// wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, dto LoginDTO) (UserDTO, IssuedSession, error) {
	name := strings.TrimSpace(dto.UserName)
	if name == "" || dto.Password == "" {
		return UserDTO{}, IssuedSession{}, ErrInvalidCredentials
	}
	u, err := s.users.FindByUsername(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return UserDTO{}, IssuedSession{}, ErrInvalidCredentials
		}
		return UserDTO{}, IssuedSession{}, fmt.Errorf("find user: %w", err)
	}
	if !s.users.CheckPassword(u, dto.Password) {
		return UserDTO{}, IssuedSession{}, ErrInvalidCredentials
	}

	sid := utils.NewSessionID()
	exp := s.now().Add(s.ttl).UTC()
	if err := s.sessions.Create(ctx, u.ID, utils.HashToken(sid), exp); err != nil {
		return UserDTO{}, IssuedSession{}, err
	}
	token, err := utils.NewSessionToken(s.secret, u.ID, sid, u.Roles, exp)
	if err != nil {
		return UserDTO{}, IssuedSession{}, fmt.Errorf("sign session: %w", err)
	}
	s.log.WithField("user_id", u.ID).Info("user logged in")
	return toUserDTO(u), IssuedSession{Token: token, ExpiresAt: exp}, nil
}

// Resolve turns a session token into a caller. An empty token is an anonymous
// caller with no error. Invalid, expired or revoked sessions return
// ErrUnauthorized. When the session was renewed the new token is returned.
func (s *AuthService) Resolve(ctx context.Context, token string) (authz.Caller, *IssuedSession, error) {
	if token == "" {
		return authz.Caller{}, nil, nil
	}
	claims, err := utils.ParseSessionToken(s.secret, token)
	if err != nil {
		return authz.Caller{}, nil, ErrUnauthorized
	}
	userID, _ := claims.UserID()

	hash := utils.HashToken(claims.SessionID)
	owner, exp, err := s.sessions.Validate(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return authz.Caller{}, nil, ErrUnauthorized
		}
		return authz.Caller{}, nil, err
	}
	if owner != userID {
		return authz.Caller{}, nil, ErrUnauthorized
	}
	caller := authz.Caller{ID: userID, Roles: claims.Roles}

	now := s.now()
	if exp.Sub(now) > s.ttl/2 {
		return caller, nil, nil
	}
	renewed := now.Add(s.ttl).UTC()
	if err := s.sessions.Extend(ctx, hash, renewed); err != nil {
		// the current session is still valid, keep serving it
		s.log.WithError(err).WithField("user_id", userID).Warn("session renewal failed")
		return caller, nil, nil
	}
	fresh, err := utils.NewSessionToken(s.secret, userID, claims.SessionID, claims.Roles, renewed)
	if err != nil {
		return caller, nil, nil
	}
	return caller, &IssuedSession{Token: fresh, ExpiresAt: renewed}, nil
}

// CurrentUser returns the caller's profile. Deleted users are unauthorized.
func (s *AuthService) CurrentUser(ctx context.Context, caller authz.Caller) (UserDTO, error) {
	if !caller.Authenticated() {
		return UserDTO{}, ErrUnauthorized
	}
	u, err := s.users.FindByID(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return UserDTO{}, ErrUnauthorized
		}
		return UserDTO{}, err
	}
	return toUserDTO(u), nil
}

// Logout revokes the session behind token if there is one. It never fails;
// store errors are only logged.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	claims, err := utils.ParseSessionToken(s.secret, token)
	if err != nil {
		return
	}
	if err := s.sessions.Revoke(ctx, utils.HashToken(claims.SessionID)); err != nil {
		s.log.WithError(err).Warn("session revoke failed")
	}
}
