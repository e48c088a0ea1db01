package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"movie-catalog/internal/core/auth"
	"movie-catalog/internal/core/server"
	"movie-catalog/internal/service"
	"movie-catalog/internal/transport/http/ez"
	"movie-catalog/internal/transport/http/handler"
	mdw "movie-catalog/internal/transport/http/middleware"
	resp "movie-catalog/internal/transport/http/response"
)

// Limits 中间件参数；零值取默认
type Limits struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxConcurrent  int64
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	CORSOrigins    []string
}

func (l Limits) withDefaults() Limits {
	if l.RateLimitRPS <= 0 {
		l.RateLimitRPS = 50
	}
	if l.RateLimitBurst <= 0 {
		l.RateLimitBurst = 100
	}
	if l.MaxConcurrent <= 0 {
		l.MaxConcurrent = 300
	}
	if l.MaxBodyBytes <= 0 {
		l.MaxBodyBytes = 1 << 20
	}
	if l.RequestTimeout <= 0 {
		l.RequestTimeout = 10 * time.Second
	}
	return l
}

// Deps 由 cmd/api 构造后注入
type Deps struct {
	Log     *zap.Logger
	JWT     *auth.JWTer
	Users   mdw.UserLoader
	Limits  Limits
	Metrics *prometheus.Registry // nil 时新建

	Auth      *service.AuthService
	User      *service.UserService
	Genres    *service.GenreService
	Contents  *service.ContentService
	Reviews   *service.ReviewService
	Bookmarks *service.BookmarkService
	Watches   *service.WatchHistoryService
	Health    *service.HealthService
}

func NewAPIEngine(d Deps) *gin.Engine {
	l := d.Log
	if l == nil {
		l = zap.NewNop()
	}
	lim := d.Limits.withDefaults()
	reg := d.Metrics
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	r := server.NewRouter(server.Options{CORSOrigins: lim.CORSOrigins})

	// 中间件
	r.Use(
		mdw.RequestID(),
		mdw.Recovery(l),
		mdw.AccessLog(l),
		mdw.NewHTTPMetrics(reg, "movie_catalog").Handler(),
		mdw.RateLimitPerIP(rate.Limit(lim.RateLimitRPS), lim.RateLimitBurst),
		mdw.ConcurrencyLimit(lim.MaxConcurrent),
		mdw.MaxBodyBytes(lim.MaxBodyBytes),
		mdw.Timeout(lim.RequestTimeout),
	)
	r.NoRoute(func(c *gin.Context) { resp.Error(c, http.StatusNotFound, "route not found") })

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	root := ez.New(&r.RouterGroup, l)
	user, admin := authGroups(root, d.JWT, d.Users)
	routes := handler.Routes{Public: root, User: user, Admin: admin}

	var mods Registry
	mods.Register(
		handler.NewHealthHandler(d.Health),
		handler.NewAuthHandler(d.Auth),
		handler.NewUserHandler(d.User, d.Reviews, d.Bookmarks, d.Watches),
		handler.NewGenreHandler(d.Genres),
		handler.NewContentHandler(d.Contents),
		handler.NewReviewHandler(d.Reviews),
		handler.NewBookmarkHandler(d.Bookmarks),
		handler.NewAdminHandler(d.User),
	)
	mods.MountAll(routes)
	return r
}
