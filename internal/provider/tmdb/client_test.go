package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{APIKey: "key", BaseURL: srv.URL})
}

func TestFetchMovie(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/603", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "ko-KR", r.URL.Query().Get("language"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":603,"title":"The Matrix","overview":"Neo","release_date":"1999-03-31",
			"runtime":136,"poster_path":"/p.jpg","vote_average":8.2,"vote_count":25000,
			"genres":[{"id":28,"name":"Action"},{"id":878,"name":"Science Fiction"}]}`))
	})

	m, err := c.FetchMovie(context.Background(), 603)
	require.NoError(t, err)
	assert.Equal(t, "The Matrix", m.Title)
	require.NotNil(t, m.Runtime)
	assert.Equal(t, 136, *m.Runtime)
	assert.Len(t, m.Genres, 2)
	d := m.ParsedReleaseDate()
	require.NotNil(t, d)
	assert.Equal(t, 1999, d.Year())
}

func TestFetchMovieNotFound(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := c.FetchMovie(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchGenresUpstreamError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := c.FetchGenres(context.Background())
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
}

func TestFetchGenres(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/genre/movie/list", r.URL.Path)
		_, _ = w.Write([]byte(`{"genres":[{"id":28,"name":"Action"},{"id":18,"name":"Drama"}]}`))
	})
	gs, err := c.FetchGenres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Genre{{ID: 28, Name: "Action"}, {ID: 18, Name: "Drama"}}, gs)
}

func TestMissingAPIKey(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	t.Cleanup(srv.Close)

	c := New(Options{BaseURL: srv.URL})
	_, err := c.FetchMovie(context.Background(), 603)
	assert.ErrorIs(t, err, ErrNoAPIKey)
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestCircuitBreakerOpens(t *testing.T) {
	var hits int32
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	for i := 0; i < 10; i++ {
		_, _ = c.FetchGenres(context.Background())
	}
	assert.Equal(t, int32(6), atomic.LoadInt32(&hits), "breaker trips after six consecutive failures")
}

func TestFetchMovieSurvivesFirstCallerCancel(t *testing.T) {
	var hits int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		started <- struct{}{}
		<-release
		_, _ = w.Write([]byte(`{"id":603,"title":"The Matrix"}`))
	})

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.FetchMovie(firstCtx, 603)
		firstErr <- err
	}()
	<-started

	type result struct {
		m   *Movie
		err error
	}
	second := make(chan result, 1)
	go func() {
		m, err := c.FetchMovie(context.Background(), 603)
		second <- result{m, err}
	}()
	time.Sleep(20 * time.Millisecond) // 让第二个调用加入同一次请求

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, "The Matrix", res.m.Title)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, gobreaker.StateClosed, c.cb.State())
}

func TestCallerCancelDoesNotTripBreaker(t *testing.T) {
	c := New(Options{APIKey: "key"})
	for i := 0; i < 10; i++ {
		_, err := c.cb.Execute(func() (any, error) {
			return nil, fmt.Errorf("tmdb: request failed: %w", context.Canceled)
		})
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, c.cb.State())

	for i := 0; i < 6; i++ {
		_, _ = c.cb.Execute(func() (any, error) {
			return nil, fmt.Errorf("tmdb: request failed: %w", context.DeadlineExceeded)
		})
	}
	assert.Equal(t, gobreaker.StateOpen, c.cb.State(), "upstream timeouts still count")
}

func TestParsedReleaseDateInvalid(t *testing.T) {
	assert.Nil(t, (&Movie{}).ParsedReleaseDate())
	assert.Nil(t, (&Movie{ReleaseDate: "soon"}).ParsedReleaseDate())
}
