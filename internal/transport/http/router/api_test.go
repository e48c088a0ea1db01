package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-catalog/internal/core/auth"
	"movie-catalog/internal/core/session"
	"movie-catalog/internal/domain"
	"movie-catalog/internal/provider/tmdb"
	"movie-catalog/internal/repo"
	"movie-catalog/internal/service"
	"movie-catalog/internal/testutil"
	"movie-catalog/internal/transport/http/router"
)

type stubProvider struct{}

func (stubProvider) FetchMovie(_ context.Context, id int64) (*tmdb.Movie, error) {
	if id != 603 {
		return nil, tmdb.ErrNotFound
	}
	return &tmdb.Movie{
		ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-31",
		Genres: []tmdb.Genre{{ID: 28, Name: "Action"}},
	}, nil
}

func (stubProvider) FetchGenres(context.Context) ([]tmdb.Genre, error) {
	return []tmdb.Genre{{ID: 28, Name: "Action"}}, nil
}

type envelope struct {
	Status  int             `json:"status"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Path    string          `json:"path"`
	Data    json.RawMessage `json:"data"`
	Details map[string]any  `json:"details"`
}

type harness struct {
	t     *testing.T
	r     *gin.Engine
	store *repo.Store
	jwt   *auth.JWTer
}

func newHarness(t *testing.T, lim router.Limits) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := repo.NewStore(testutil.NewDB(t))
	j := &auth.JWTer{
		Secret:     []byte("router-test"),
		Issuer:     "movie-catalog-test",
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}
	reg := session.NewMemory()
	var p stubProvider
	genres := service.NewGenreService(store, p, nil)
	r := router.NewAPIEngine(router.Deps{
		JWT:       j,
		Users:     store.Users(),
		Limits:    lim,
		Auth:      service.NewAuthService(store, j, reg, nil, nil),
		User:      service.NewUserService(store, reg, nil),
		Genres:    genres,
		Contents:  service.NewContentService(store, p, genres, nil, time.Minute, nil),
		Reviews:   service.NewReviewService(store, nil, nil),
		Bookmarks: service.NewBookmarkService(store),
		Watches:   service.NewWatchHistoryService(store),
		Health:    service.NewHealthService(store, nil, "test", "now"),
	})
	return &harness{t: t, r: r, store: store, jwt: j}
}

func (h *harness) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	h.t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(h.t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (h *harness) signupAndLogin(email string) (int64, service.LoginResult) {
	h.t.Helper()
	w, env := h.do(http.MethodPost, "/users/signup", "", map[string]any{
		"email": email, "password": "password1", "nickname": "nick",
	})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	var u domain.User
	require.NoError(h.t, json.Unmarshal(env.Data, &u))

	w, env = h.do(http.MethodPost, "/auth/login", "", map[string]any{"email": email, "password": "password1"})
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
	var lr service.LoginResult
	require.NoError(h.t, json.Unmarshal(env.Data, &lr))
	require.NotEmpty(h.t, lr.AccessToken)
	return u.ID, lr
}

func (h *harness) promote(email string) {
	h.t.Helper()
	ctx := context.Background()
	u, err := h.store.Users().FindByEmail(ctx, email)
	require.NoError(h.t, err)
	require.NotNil(h.t, u)
	u.Role = domain.RoleAdmin
	require.NoError(h.t, h.store.Users().Save(ctx, u))
}

func TestReviewLikeFlow(t *testing.T) {
	h := newHarness(t, router.Limits{})
	_, author := h.signupAndLogin("a@x.com")
	h.promote("a@x.com")
	_, fan := h.signupAndLogin("b@x.com")

	w, env := h.do(http.MethodPost, "/contents", author.AccessToken, map[string]any{"externalId": 603})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var content struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &content))
	assert.Equal(t, "The Matrix", content.Title)

	path := "/contents/" + itoa(content.ID) + "/reviews"
	w, env = h.do(http.MethodPost, path, author.AccessToken, map[string]any{"rating": 5, "comment": "x"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var review struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &review))

	w, _ = h.do(http.MethodPost, "/reviews/"+itoa(review.ID)+"/likes", fan.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = h.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page domain.Page[domain.ReviewView]
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(1), page.Items[0].LikeCount)
	assert.Equal(t, "nick", page.Items[0].Nickname)
	assert.Equal(t, int64(1), page.Total)
}

func TestErrorEnvelopes(t *testing.T) {
	h := newHarness(t, router.Limits{})

	t.Run("signup validation returns field map", func(t *testing.T) {
		w, env := h.do(http.MethodPost, "/users/signup", "", map[string]any{
			"email": "not-an-email", "password": "short", "nickname": "  ",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "VALIDATION_FAILED", env.Code)
		assert.Equal(t, "/users/signup", env.Path)
		assert.Contains(t, env.Details, "email")
		assert.Contains(t, env.Details, "password")
		assert.Contains(t, env.Details, "nickname")
	})

	t.Run("malformed json", func(t *testing.T) {
		w, env := h.do(http.MethodPost, "/auth/login", "", `{"email":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "BAD_REQUEST", env.Code)
	})

	t.Run("bad paging", func(t *testing.T) {
		for _, q := range []string{"page=0", "page=abc", "size=500"} {
			w, env := h.do(http.MethodGet, "/contents?"+q, "", nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, q)
			assert.Equal(t, "INVALID_QUERY_PARAM", env.Code, q)
		}
	})

	t.Run("unknown route", func(t *testing.T) {
		w, env := h.do(http.MethodGet, "/nope", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, http.StatusNotFound, env.Status)
	})

	t.Run("unknown content", func(t *testing.T) {
		w, env := h.do(http.MethodGet, "/contents/999", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "RESOURCE_NOT_FOUND", env.Code)
	})

	t.Run("non numeric id", func(t *testing.T) {
		w, _ := h.do(http.MethodGet, "/contents/abc", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthGuards(t *testing.T) {
	h := newHarness(t, router.Limits{})
	uid, user := h.signupAndLogin("u@x.com")

	t.Run("missing token", func(t *testing.T) {
		w, env := h.do(http.MethodGet, "/users/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "UNAUTHORIZED", env.Code)
	})

	t.Run("me", func(t *testing.T) {
		w, env := h.do(http.MethodGet, "/users/me", user.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var u domain.User
		require.NoError(t, json.Unmarshal(env.Data, &u))
		assert.Equal(t, uid, u.ID)
		assert.NotContains(t, string(env.Data), "password")
	})

	t.Run("user on admin route", func(t *testing.T) {
		w, env := h.do(http.MethodPost, "/contents", user.AccessToken, map[string]any{"externalId": 603})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "FORBIDDEN", env.Code)
	})

	t.Run("expired access token", func(t *testing.T) {
		expired := *h.jwt
		expired.AccessTTL = -time.Hour
		tok, _, err := expired.Issue(uid, auth.KindAccess)
		require.NoError(t, err)
		w, env := h.do(http.MethodGet, "/users/me", tok, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "TOKEN_EXPIRED", env.Code)
	})

	t.Run("refresh token is not a bearer", func(t *testing.T) {
		w, _ := h.do(http.MethodGet, "/users/me", user.RefreshToken, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("refresh then logout", func(t *testing.T) {
		w, env := h.do(http.MethodPost, "/auth/refresh", "", map[string]any{"refreshToken": user.RefreshToken})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var lr service.LoginResult
		require.NoError(t, json.Unmarshal(env.Data, &lr))

		w, _ = h.do(http.MethodPost, "/auth/logout", lr.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w, _ = h.do(http.MethodPost, "/auth/refresh", "", map[string]any{"refreshToken": lr.RefreshToken})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestBookmarkConflict(t *testing.T) {
	h := newHarness(t, router.Limits{})
	_, admin := h.signupAndLogin("admin@x.com")
	h.promote("admin@x.com")

	w, env := h.do(http.MethodPost, "/contents", admin.AccessToken, map[string]any{"externalId": 603})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var content struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &content))

	w, _ = h.do(http.MethodPost, "/bookmarks", admin.AccessToken, map[string]any{"contentId": content.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env = h.do(http.MethodPost, "/bookmarks", admin.AccessToken, map[string]any{"contentId": content.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_RESOURCE", env.Code)

	w, env = h.do(http.MethodGet, "/bookmarks", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page domain.Page[domain.BookmarkView]
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Items, 1)

	w, _ = h.do(http.MethodPost, "/contents", admin.AccessToken, map[string]any{"externalId": 603})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRateLimit(t *testing.T) {
	h := newHarness(t, router.Limits{RateLimitRPS: 1, RateLimitBurst: 1})

	w, _ := h.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", env.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestPanicRecovery(t *testing.T) {
	h := newHarness(t, router.Limits{})
	h.r.GET("/boom", func(*gin.Context) { panic("boom") })

	w, env := h.do(http.MethodGet, "/boom", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", env.Code)
	assert.NotContains(t, env.Message, "boom")

	// 服务仍然可用
	w, _ = h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, router.Limits{})

	w, env := h.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "test")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, _ = h.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "movie_catalog_http_requests_total")
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
