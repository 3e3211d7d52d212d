package seed

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/theater-management/internal/database"
	"github.com/iliyamo/theater-management/internal/model"
	"github.com/iliyamo/theater-management/internal/repository"
)

type counts struct{ roles, users, theaters int }

func TestRun_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(ctx, db, database.SQLite))

	roles := repository.NewRoleRepo(db)
	users := repository.NewUserRepo(db, bcrypt.MinCost)
	theaters := repository.NewTheaterRepo(db)
	st := Stores{Roles: roles, Users: users, Theaters: theaters}
	log, _ := test.NewNullLogger()

	snapshot := func() counts {
		r, err := roles.List(ctx)
		require.NoError(t, err)
		u, err := users.Count(ctx)
		require.NoError(t, err)
		th, err := theaters.Count(ctx)
		require.NoError(t, err)
		return counts{len(r), u, th}
	}

	require.NoError(t, Run(ctx, st, "Password123!", log))
	first := snapshot()
	assert.Equal(t, counts{2, 3, 3}, first)

	require.NoError(t, Run(ctx, st, "Different1!", log))
	assert.Equal(t, first, snapshot())

	galkadi, err := users.FindByUsername(ctx, ManagerUserName)
	require.NoError(t, err)
	assert.Equal(t, []string{model.RoleAdmin}, galkadi.Roles)
	assert.True(t, users.CheckPassword(galkadi, "Password123!"), "second run keeps the password")

	for th, err := range theaters.All(ctx) {
		require.NoError(t, err)
		require.NotNil(t, th.ManagerID)
		assert.Equal(t, galkadi.ID, *th.ManagerID)
	}
}

func TestRun_RestoresDeletedUser(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(ctx, db, database.SQLite))

	users := repository.NewUserRepo(db, bcrypt.MinCost)
	st := Stores{Roles: repository.NewRoleRepo(db), Users: users, Theaters: repository.NewTheaterRepo(db)}
	log, _ := test.NewNullLogger()
	require.NoError(t, Run(ctx, st, "Password123!", log))

	sue, err := users.FindByUsername(ctx, "sue")
	require.NoError(t, err)
	require.NoError(t, users.Delete(ctx, sue.ID))
	_, err = users.FindByUsername(ctx, "sue")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, Run(ctx, st, "Password123!", log))
	again, err := users.FindByUsername(ctx, "sue")
	require.NoError(t, err)
	assert.Equal(t, []string{model.RoleUser}, again.Roles)
	n, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

type fakeTheaters struct {
	n       int
	created []*model.Theater
}

func (f *fakeTheaters) Count(context.Context) (int, error) { return f.n, nil }
func (f *fakeTheaters) CreateAll(_ context.Context, ts []*model.Theater) error {
	f.created = append(f.created, ts...)
	return nil
}

type fakeUsers struct{ byName map[string]*model.User }

func (f *fakeUsers) FindByUsername(_ context.Context, name string) (*model.User, error) {
	if u, ok := f.byName[name]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}
func (f *fakeUsers) Create(_ context.Context, name, _ string, roles []string) (*model.User, error) {
	u := &model.User{ID: int64(len(f.byName) + 1), UserName: name, Roles: roles}
	f.byName[name] = u
	return u, nil
}

func TestTheaters_SkipsWhenAnyTheaterExists(t *testing.T) {
	log, _ := test.NewNullLogger()
	ft := &fakeTheaters{n: 1}
	fu := &fakeUsers{byName: map[string]*model.User{}}

	require.NoError(t, Theaters(context.Background(), ft, fu, ManagerUserName, BaselineTheaters, log))
	assert.Empty(t, ft.created)
}

func TestTheaters_MissingManager(t *testing.T) {
	log, _ := test.NewNullLogger()
	ft := &fakeTheaters{}
	fu := &fakeUsers{byName: map[string]*model.User{}}

	err := Theaters(context.Background(), ft, fu, ManagerUserName, BaselineTheaters, log)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, ft.created)
}

func TestUsers_AssignsExactlyOneRole(t *testing.T) {
	log, hook := test.NewNullLogger()
	fu := &fakeUsers{byName: map[string]*model.User{}}

	require.NoError(t, Users(context.Background(), fu, BaselineUsers, "pw", log))
	require.Len(t, fu.byName, 3)
	assert.Equal(t, []string{model.RoleUser}, fu.byName["bob"].Roles)
	assert.Len(t, hook.AllEntries(), 3)

	hook.Reset()
	require.NoError(t, Users(context.Background(), fu, BaselineUsers, "pw", log))
	assert.Empty(t, hook.AllEntries())
}
