package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-catalog/internal/domain"
	"movie-catalog/pkg/apperr"
)

func TestUpdateMe(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.signup(t, "neo@example.com")

	nick := "  the one  "
	got, err := e.users.UpdateMe(ctx, u.ID, &nick)
	require.NoError(t, err)
	assert.Equal(t, "the one", got.Nickname)

	blank := "   "
	_, err = e.users.UpdateMe(ctx, u.ID, &blank)
	requireCode(t, err, apperr.CodeValidationFailed)

	_, err = e.users.Me(ctx, 9999)
	requireCode(t, err, apperr.CodeUserNotFound)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.signup(t, "neo@example.com")
	res, err := e.auth.Login(ctx, "neo@example.com", "password1")
	require.NoError(t, err)

	err = e.users.ChangePassword(ctx, u.ID, "nope", "password2")
	requireCode(t, err, apperr.CodeBadRequest)

	require.NoError(t, e.users.ChangePassword(ctx, u.ID, "password1", "password2"))

	_, err = e.auth.Login(ctx, "neo@example.com", "password1")
	requireCode(t, err, apperr.CodeUnauthorized)
	_, err = e.auth.Login(ctx, "neo@example.com", "password2")
	require.NoError(t, err)

	_, err = e.auth.Refresh(ctx, res.RefreshToken)
	requireCode(t, err, apperr.CodeUnauthorized)
}

func TestDeleteMeHidesUser(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.signup(t, "neo@example.com")
	require.NoError(t, e.users.DeleteMe(ctx, u.ID))

	_, err := e.users.Me(ctx, u.ID)
	requireCode(t, err, apperr.CodeUserNotFound)

	// 管理端仍可见
	got, err := e.users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted())
	assert.Equal(t, domain.StatusDeleted, got.Status)
}

func TestAdminChangeRole(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.signup(t, "neo@example.com")

	got, err := e.users.ChangeRole(ctx, u.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got.Role)

	_, err = e.users.ChangeRole(ctx, u.ID, "ROOT")
	requireCode(t, err, apperr.CodeBadRequest)

	_, err = e.users.ChangeRole(ctx, 9999, "USER")
	requireCode(t, err, apperr.CodeUserNotFound)
}

func TestAdminChangeStatusRestores(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.signup(t, "neo@example.com")
	require.NoError(t, e.users.DeleteMe(ctx, u.ID))

	out, err := e.users.ChangeStatus(ctx, u.ID, "ACTIVE")
	require.NoError(t, err)
	assert.True(t, out.Restored)
	assert.False(t, out.User.IsDeleted())

	_, err = e.auth.Login(ctx, "neo@example.com", "password1")
	require.NoError(t, err)

	out, err = e.users.ChangeStatus(ctx, u.ID, "BLOCKED")
	require.NoError(t, err)
	assert.False(t, out.Restored)
	_, err = e.auth.Login(ctx, "neo@example.com", "password1")
	requireCode(t, err, apperr.CodeForbidden)

	out, err = e.users.ChangeStatus(ctx, u.ID, "DELETED")
	require.NoError(t, err)
	assert.True(t, out.User.IsDeleted())

	_, err = e.users.ChangeStatus(ctx, u.ID, "GONE")
	requireCode(t, err, apperr.CodeBadRequest)
}

func TestAdminForceDelete(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.signup(t, "neo@example.com")

	require.NoError(t, e.users.ForceDelete(ctx, u.ID))
	err := e.users.ForceDelete(ctx, u.ID)
	requireCode(t, err, apperr.CodeStateConflict)

	err = e.users.ForceDelete(ctx, 9999)
	requireCode(t, err, apperr.CodeUserNotFound)
}

func TestAdminListUsers(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.signup(t, "a@example.com")
	gone := e.signup(t, "b@example.com")
	e.signup(t, "c@example.com")
	require.NoError(t, e.users.DeleteMe(ctx, gone.ID))

	page, err := e.users.List(ctx, domain.UserFilter{PageQuery: domain.PageQuery{Page: 1, Size: 2}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Len(t, page.Items, 2)

	page, err = e.users.List(ctx, domain.UserFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)

	page, err = e.users.List(ctx, domain.UserFilter{Query: "C@EXAMPLE"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "c@example.com", page.Items[0].Email)
}

func TestSeederIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	seeder := NewSeeder(e.store, e.genres, nil)

	res, err := seeder.Seed(ctx, DefaultSeedUsers, "password1")
	require.NoError(t, err)
	assert.Equal(t, 3, res.UsersCreated)
	assert.Equal(t, len(DefaultGenres), res.Genres)

	res, err = seeder.Seed(ctx, DefaultSeedUsers, "password1")
	require.NoError(t, err)
	assert.Equal(t, 0, res.UsersCreated)
	assert.Equal(t, 3, res.UsersSkipped)

	page, err := e.genres.List(ctx, GenreListQuery{PageQuery: domain.PageQuery{Size: 100}})
	require.NoError(t, err)
	assert.EqualValues(t, len(DefaultGenres), page.Total)

	admin, err := e.auth.Login(ctx, "admin@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.User.Role)

	promoted, err := seeder.Promote(ctx, "USER1@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, promoted.Role)

	_, err = seeder.Promote(ctx, "nobody@example.com")
	requireCode(t, err, apperr.CodeUserNotFound)
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthCheck(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	h, err := NewHealthService(e.store, nil, "1.0.0", "now").Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "disabled", h.Redis)

	down := pingerFunc(func(context.Context) error { return errRegistryDown })
	h, err = NewHealthService(e.store, down, "1.0.0", "now").Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, "degraded", h.Status)
	assert.Equal(t, "down", h.Redis)
	assert.Equal(t, "up", h.DB)
}
