package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theater-management/internal/authz"
	"github.com/iliyamo/theater-management/internal/model"
	"github.com/iliyamo/theater-management/internal/utils"
)

const testSecret = "test-session-secret"

func newAuthFixture(t *testing.T) (*AuthService, *memUsers, *memSessions) {
	t.Helper()
	log, _ := quietLogger()
	users := newMemUsers(model.RoleAdmin, model.RoleUser)
	users.add("galkadi", "Password123!", model.RoleAdmin)
	sessions := newMemSessions()
	return NewAuthService(users, sessions, testSecret, time.Hour, log), users, sessions
}

func TestAuthService_Login(t *testing.T) {
	svc, _, sessions := newAuthFixture(t)

	user, issued, err := svc.Login(context.Background(), LoginDTO{UserName: "galkadi", Password: "Password123!"})
	require.NoError(t, err)
	assert.Equal(t, "galkadi", user.UserName)
	assert.Equal(t, []string{model.RoleAdmin}, user.Roles)
	assert.NotEmpty(t, issued.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), issued.ExpiresAt, 5*time.Second)
	assert.Equal(t, 1, sessions.active())

	claims, err := utils.ParseSessionToken(testSecret, issued.Token)
	require.NoError(t, err)
	id, _ := claims.UserID()
	assert.Equal(t, user.ID, id)
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _, sessions := newAuthFixture(t)
	ctx := context.Background()

	_, _, wrongPw := svc.Login(ctx, LoginDTO{UserName: "galkadi", Password: "nope"})
	_, _, noUser := svc.Login(ctx, LoginDTO{UserName: "ghost", Password: "Password123!"})
	_, _, blank := svc.Login(ctx, LoginDTO{})

	require.ErrorIs(t, wrongPw, ErrInvalidCredentials)
	require.ErrorIs(t, noUser, ErrInvalidCredentials)
	require.ErrorIs(t, blank, ErrInvalidCredentials)
	assert.Equal(t, wrongPw.Error(), noUser.Error())
	assert.Zero(t, sessions.active())
}

func TestAuthService_LoginStoreError(t *testing.T) {
	svc, users, _ := newAuthFixture(t)
	users.err = errStore
	_, _, err := svc.Login(context.Background(), LoginDTO{UserName: "galkadi", Password: "Password123!"})
	assert.ErrorIs(t, err, errStore)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Resolve(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()
	user, issued, err := svc.Login(ctx, LoginDTO{UserName: "galkadi", Password: "Password123!"})
	require.NoError(t, err)

	caller, renewed, err := svc.Resolve(ctx, issued.Token)
	require.NoError(t, err)
	assert.Nil(t, renewed, "fresh sessions are not renewed")
	assert.Equal(t, authz.Caller{ID: user.ID, Roles: []string{model.RoleAdmin}}, caller)

	caller, _, err = svc.Resolve(ctx, "")
	require.NoError(t, err)
	assert.False(t, caller.Authenticated())

	_, _, err = svc.Resolve(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_ResolveSlidesExpiration(t *testing.T) {
	svc, _, sessions := newAuthFixture(t)
	ctx := context.Background()
	_, issued, err := svc.Login(ctx, LoginDTO{UserName: "galkadi", Password: "Password123!"})
	require.NoError(t, err)

	later := time.Now().Add(40 * time.Minute)
	svc.now = func() time.Time { return later }

	caller, renewed, err := svc.Resolve(ctx, issued.Token)
	require.NoError(t, err)
	assert.True(t, caller.Authenticated())
	require.NotNil(t, renewed)
	assert.WithinDuration(t, later.Add(time.Hour), renewed.ExpiresAt, time.Second)

	claims, err := utils.ParseSessionToken(testSecret, renewed.Token)
	require.NoError(t, err)
	_, exp, err := sessions.Validate(ctx, utils.HashToken(claims.SessionID))
	require.NoError(t, err)
	assert.WithinDuration(t, renewed.ExpiresAt, exp, time.Second)
}

func TestAuthService_ResolveKeepsSessionWhenRenewalFails(t *testing.T) {
	svc, _, sessions := newAuthFixture(t)
	ctx := context.Background()
	_, issued, err := svc.Login(ctx, LoginDTO{UserName: "galkadi", Password: "Password123!"})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(40 * time.Minute) }
	sessions.extendErr = errStore

	caller, renewed, err := svc.Resolve(ctx, issued.Token)
	require.NoError(t, err)
	assert.True(t, caller.Authenticated())
	assert.Nil(t, renewed)
}

func TestAuthService_LogoutRevokes(t *testing.T) {
	svc, _, sessions := newAuthFixture(t)
	ctx := context.Background()
	_, issued, err := svc.Login(ctx, LoginDTO{UserName: "galkadi", Password: "Password123!"})
	require.NoError(t, err)

	svc.Logout(ctx, issued.Token)
	assert.Zero(t, sessions.active())

	_, _, err = svc.Resolve(ctx, issued.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// idempotent and tolerant of junk
	svc.Logout(ctx, issued.Token)
	svc.Logout(ctx, "")
	svc.Logout(ctx, "garbage")
}

func TestAuthService_ResolveRejectsForeignSession(t *testing.T) {
	svc, _, sessions := newAuthFixture(t)
	ctx := context.Background()

	sid := utils.NewSessionID()
	require.NoError(t, sessions.Create(ctx, 2, utils.HashToken(sid), time.Now().Add(time.Hour)))
	token, err := utils.NewSessionToken(testSecret, 1, sid, nil, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, _, err = svc.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_CurrentUser(t *testing.T) {
	svc, users, _ := newAuthFixture(t)
	ctx := context.Background()
	bob := users.add("bob", "pw", model.RoleUser)

	got, err := svc.CurrentUser(ctx, authz.Caller{ID: bob.ID, Roles: bob.Roles})
	require.NoError(t, err)
	assert.Equal(t, UserDTO{ID: bob.ID, UserName: "bob", Roles: []string{model.RoleUser}}, got)

	_, err = svc.CurrentUser(ctx, authz.Caller{})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.CurrentUser(ctx, authz.Caller{ID: 999})
	assert.ErrorIs(t, err, ErrUnauthorized)
}
