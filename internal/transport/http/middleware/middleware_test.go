package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"movie-catalog/internal/core/auth"
	"movie-catalog/internal/domain"
)

func init() { gin.SetMode(gin.TestMode) }

type loaderFunc func(ctx context.Context, id int64) (*domain.User, error)

func (f loaderFunc) FindByID(ctx context.Context, id int64) (*domain.User, error) { return f(ctx, id) }

func testJWT() *auth.JWTer {
	return &auth.JWTer{Secret: []byte("mw-test"), Issuer: "mw", AccessTTL: time.Minute, RefreshTTL: time.Hour}
}

func serve(r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func bearer(path, tok string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req
}

func TestAuthJWT(t *testing.T) {
	j := testJWT()
	users := map[int64]*domain.User{
		1: {ID: 1, Role: domain.RoleUser, Status: domain.StatusActive},
		2: {ID: 2, Role: domain.RoleAdmin, Status: domain.StatusActive},
		3: {ID: 3, Role: domain.RoleUser, Status: domain.StatusBlocked},
	}
	loader := loaderFunc(func(_ context.Context, id int64) (*domain.User, error) {
		if id == 99 {
			return nil, errors.New("db down")
		}
		return users[id], nil
	})

	r := gin.New()
	r.GET("/me", AuthJWT(j, loader), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": UserID(c), "role": CurrentUser(c).Role})
	})
	r.GET("/admin", AuthJWT(j, loader), RequireRole(domain.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	access := func(id int64) string {
		tok, _, err := j.Issue(id, auth.KindAccess)
		require.NoError(t, err)
		return tok
	}

	w, body := serve(r, bearer("/me", access(1)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["id"])

	cases := []struct {
		name   string
		req    *http.Request
		status int
		code   string
	}{
		{"no header", bearer("/me", ""), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"garbage", bearer("/me", "abc"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"unknown user", bearer("/me", access(42)), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"blocked", bearer("/me", access(3)), http.StatusForbidden, "FORBIDDEN"},
		{"loader error", bearer("/me", access(99)), http.StatusInternalServerError, "DATABASE_ERROR"},
		{"user on admin", bearer("/admin", access(1)), http.StatusForbidden, "FORBIDDEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := serve(r, tc.req)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, body["code"])
		})
	}

	t.Run("refresh token rejected", func(t *testing.T) {
		tok, _, err := j.Issue(1, auth.KindRefresh)
		require.NoError(t, err)
		w, _ := serve(r, bearer("/me", tok))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired", func(t *testing.T) {
		old := *j
		old.AccessTTL = -time.Hour
		tok, _, err := old.Issue(1, auth.KindAccess)
		require.NoError(t, err)
		w, body := serve(r, bearer("/me", tok))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "TOKEN_EXPIRED", body["code"])
	})

	t.Run("admin passes", func(t *testing.T) {
		w, _ := serve(r, bearer("/admin", access(2)))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, RequestIDOf(c)) })

	w, _ := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(KeyRequestID)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(KeyRequestID, "abc-123")
	w, _ = serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(KeyRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(KeyRequestID, strings.Repeat("x", 200))
	w, _ = serve(r, req)
	assert.Len(t, w.Header().Get(KeyRequestID), 36)
}

func TestMaxBodyBytes(t *testing.T) {
	r := gin.New()
	r.Use(MaxBodyBytes(8))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w, _ := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, body := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.EqualValues(t, http.StatusRequestEntityTooLarge, body["status"])
}

func TestRateLimitPerIP(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitPerIP(rate.Limit(1), 2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	from := func(ip string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		return req
	}

	for i := 0; i < 2; i++ {
		w, _ := serve(r, from("10.0.0.1"))
		require.Equal(t, http.StatusNoContent, w.Code)
	}
	w, body := serve(r, from("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	details, _ := body["details"].(map[string]any)
	assert.EqualValues(t, 1, details["retryAfter"])

	// 其他 IP 不受影响
	w, _ = serve(r, from("10.0.0.2"))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAllowCancelsRejectedReservation(t *testing.T) {
	lim := rate.NewLimiter(rate.Limit(1), 1)
	now := time.Now()
	_, ok := allow(lim, now)
	require.True(t, ok)
	wait, ok := allow(lim, now)
	require.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))
	// 被拒的请求不占用令牌，1 秒后恰好放行
	_, ok = allow(lim, now.Add(time.Second))
	assert.True(t, ok)
}

func TestConcurrencyLimitReleases(t *testing.T) {
	r := gin.New()
	r.Use(ConcurrencyLimit(1))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	for i := 0; i < 3; i++ {
		w, _ := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestRecoveryAndTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()), Timeout(10*time.Millisecond))
	r.GET("/panic", func(*gin.Context) { panic("kaboom") })
	r.GET("/slow", func(c *gin.Context) { <-c.Request.Context().Done() })

	w, body := serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", body["code"])

	w, body = serve(r, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.EqualValues(t, http.StatusGatewayTimeout, body["status"])
}

func TestHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg, "test")
	r := gin.New()
	r.Use(m.Handler())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodGet, "/items/1", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/items/2", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/missing", nil))

	n, err := testutil.GatherAndCount(reg, "test_http_requests_total")
	require.NoError(t, err)
	// 路由模板聚合：/items/:id 一条，unmatched 一条
	assert.Equal(t, 2, n)
}
