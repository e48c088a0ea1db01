package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-catalog/internal/core/auth"
	"movie-catalog/internal/core/session"
	"movie-catalog/internal/domain"
	"movie-catalog/internal/provider/identity"
	"movie-catalog/internal/provider/tmdb"
	"movie-catalog/internal/repo"
	"movie-catalog/internal/testutil"
	"movie-catalog/pkg/apperr"
)

// fakeProvider 内存版元数据提供方
type fakeProvider struct {
	mu         sync.Mutex
	movies     map[int64]*tmdb.Movie
	genres     []tmdb.Genre
	err        error
	movieCalls int
}

func newFakeProvider() *fakeProvider {
	rt := 136
	return &fakeProvider{
		movies: map[int64]*tmdb.Movie{
			603: {
				ID: 603, Title: "The Matrix", Overview: "Neo learns the truth.",
				ReleaseDate: "1999-03-31", Runtime: &rt, VoteAverage: 8.2, VoteCount: 25000,
				Genres: []tmdb.Genre{{ID: 28, Name: "Action"}, {ID: 878, Name: "Science Fiction"}},
			},
			13: {
				ID: 13, Title: "Forrest Gump", ReleaseDate: "1994-06-23",
				Genres: []tmdb.Genre{{ID: 18, Name: "Drama"}, {ID: 35, Name: "Comedy"}},
			},
		},
		genres: append([]tmdb.Genre(nil), DefaultGenres...),
	}
}

func (f *fakeProvider) FetchMovie(_ context.Context, id int64) (*tmdb.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movieCalls++
	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.movies[id]
	if !ok {
		return nil, tmdb.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeProvider) FetchGenres(context.Context) ([]tmdb.Genre, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]tmdb.Genre(nil), f.genres...), nil
}

// brokenRegistry 模拟已配置但不可用的 Redis
type brokenRegistry struct{}

var errRegistryDown = errors.New("registry down")

func (brokenRegistry) Store(context.Context, int64, string, time.Duration) error { return errRegistryDown }
func (brokenRegistry) Validate(context.Context, int64, string) (bool, error) {
	return false, errRegistryDown
}
func (brokenRegistry) Revoke(context.Context, int64) error { return errRegistryDown }

type fakeVerifier struct {
	id  *identity.Identity
	err error
}

func (f fakeVerifier) Verify(context.Context, string) (*identity.Identity, error) {
	return f.id, f.err
}

type env struct {
	store    *repo.Store
	provider *fakeProvider
	jwt      *auth.JWTer
	sessions session.Registry

	auth      *AuthService
	users     *UserService
	genres    *GenreService
	contents  *ContentService
	reviews   *ReviewService
	bookmarks *BookmarkService
	watches   *WatchHistoryService
}

func newEnv(t *testing.T) *env {
	return newEnvWithRegistry(t, session.NewMemory())
}

func newEnvWithRegistry(t *testing.T, reg session.Registry) *env {
	t.Helper()
	store := repo.NewStore(testutil.NewDB(t))
	p := newFakeProvider()
	j := &auth.JWTer{
		Secret:     []byte("test-secret"),
		Issuer:     "movie-catalog-test",
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}
	genres := NewGenreService(store, p, nil)
	return &env{
		store:     store,
		provider:  p,
		jwt:       j,
		sessions:  reg,
		auth:      NewAuthService(store, j, reg, nil, nil),
		users:     NewUserService(store, reg, nil),
		genres:    genres,
		contents:  NewContentService(store, p, genres, nil, time.Minute, nil),
		reviews:   NewReviewService(store, nil, nil),
		bookmarks: NewBookmarkService(store),
		watches:   NewWatchHistoryService(store),
	}
}

func (e *env) signup(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := e.auth.Signup(context.Background(), SignupInput{Email: email, Password: "password1", Nickname: "nick"})
	require.NoError(t, err)
	return u
}

func (e *env) ingest(t *testing.T, externalID int64) *domain.Content {
	t.Helper()
	out, err := e.contents.Create(context.Background(), externalID)
	require.NoError(t, err)
	return out.Content
}

func requireCode(t *testing.T, err error, code string) *apperr.Error {
	t.Helper()
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %T: %v", err, err)
	assert.Equal(t, code, ae.Code, ae.Message)
	return ae
}

func TestParseDayRange(t *testing.T) {
	from, to, err := parseDayRange("dateFrom", "2024-01-01", "dateTo", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, to.Sub(*from), "dateTo includes the whole day")

	_, _, err = parseDayRange("dateFrom", "2024-13-01", "dateTo", "")
	requireCode(t, err, apperr.CodeInvalidQueryParam)

	_, _, err = parseDayRange("dateFrom", "2024-02-01", "dateTo", "2024-01-01")
	requireCode(t, err, apperr.CodeInvalidQueryParam)

	from, to, err = parseDayRange("dateFrom", "", "dateTo", "")
	require.NoError(t, err)
	assert.Nil(t, from)
	assert.Nil(t, to)
}

func TestProviderErrMapping(t *testing.T) {
	requireCode(t, providerErr(tmdb.ErrNotFound), apperr.CodeResourceNotFound)
	requireCode(t, providerErr(tmdb.ErrNoAPIKey), apperr.CodeInternalServerError)
	ae := requireCode(t, providerErr(&tmdb.StatusError{StatusCode: 503}), apperr.CodeUnknownError)
	assert.Equal(t, 502, ae.Status)
	assert.Equal(t, 503, ae.Details["providerStatus"])
}
