package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"movie-catalog/internal/core/auth"
	"movie-catalog/internal/core/cache"
	"movie-catalog/internal/core/config"
	"movie-catalog/internal/core/database"
	"movie-catalog/internal/core/logger"
	"movie-catalog/internal/core/server"
	"movie-catalog/internal/core/session"
	"movie-catalog/internal/provider/identity"
	"movie-catalog/internal/provider/tmdb"
	"movie-catalog/internal/repo"
	"movie-catalog/internal/service"
	"movie-catalog/internal/transport/http/router"
)

// 构建时注入：-ldflags "-X main.version=... -X main.buildTime=..."
var (
	version   = ""
	buildTime = ""
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if version != "" {
		cfg.App.Version = version
	}
	if buildTime != "" {
		cfg.App.BuildTime = buildTime
	}

	log, flush := logger.New(logger.Options{
		Level:   cfg.Log.Level,
		JSON:    cfg.Log.JSON,
		Service: cfg.App.Name,
		Rotate: logger.FileRotate{
			Enable:     cfg.Log.Rotate.Enable,
			Filename:   cfg.Log.Rotate.Filename,
			MaxSizeMB:  cfg.Log.Rotate.MaxSizeMB,
			MaxBackups: cfg.Log.Rotate.MaxBackups,
			MaxAgeDays: cfg.Log.Rotate.MaxAgeDays,
			Compress:   cfg.Log.Rotate.Compress,
		},
	})
	defer flush()
	defer logger.RedirectStdLog(log)()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 数据库（失败直接退出）
	db := mustOpenDB(cfg, log)
	defer func() { _ = database.Close(db) }()
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))
	if cfg.DB.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}
	store := repo.NewStore(db)

	// Redis 可选：连不上就降级（无缓存、无会话白名单）
	rdb := openRedis(ctx, cfg.Redis, log)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}
	topRated := cache.New(nil, "")
	var pinger service.Pinger
	if rdb != nil {
		topRated = cache.New(rdb, cfg.App.Name+":")
		pinger = topRated
	}
	sessions := buildSessions(cfg.Session.Store, rdb, log)

	jwter := &auth.JWTer{
		Secret:     []byte(cfg.JWT.Secret),
		Issuer:     cfg.JWT.Issuer,
		AccessTTL:  cfg.JWT.AccessTTL(),
		RefreshTTL: cfg.JWT.RefreshTTL(),
	}

	provider := tmdb.New(tmdb.Options{
		APIKey:   cfg.TMDB.APIKey,
		BaseURL:  cfg.TMDB.BaseURL,
		Language: cfg.TMDB.Language,
		Timeout:  time.Duration(cfg.TMDB.TimeoutSec) * time.Second,
		Logger:   log.Named("tmdb"),
	})
	if cfg.TMDB.APIKey == "" {
		log.Warn("tmdb api key is empty; content ingestion and genre sync will fail")
	}

	verifiers := buildVerifiers(ctx, cfg.Identity, log)

	// 服务
	genres := service.NewGenreService(store, provider, log)
	deps := router.Deps{
		Log:   log,
		JWT:   jwter,
		Users: store.Users(),
		Limits: router.Limits{
			RateLimitRPS:   cfg.HTTP.RateLimitRPS,
			RateLimitBurst: cfg.HTTP.RateLimitBurst,
			MaxConcurrent:  cfg.HTTP.MaxConcurrent,
			MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
			RequestTimeout: time.Duration(cfg.HTTP.RequestTimeoutSec) * time.Second,
			CORSOrigins:    cfg.HTTP.CORSOrigins,
		},
		Metrics: newMetricsRegistry(),

		Auth:      service.NewAuthService(store, jwter, sessions, verifiers, log),
		User:      service.NewUserService(store, sessions, log),
		Genres:    genres,
		Contents:  service.NewContentService(store, provider, genres, topRated, time.Duration(cfg.Redis.TopRatedTTLSec)*time.Second, log),
		Reviews:   service.NewReviewService(store, topRated, log),
		Bookmarks: service.NewBookmarkService(store),
		Watches:   service.NewWatchHistoryService(store),
		Health:    service.NewHealthService(store, pinger, cfg.App.Version, cfg.App.BuildTime),
	}
	r := router.NewAPIEngine(deps)

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("movie catalog api starting",
		zap.String("env", cfg.App.Env),
		zap.String("version", cfg.App.Version),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("metrics", baseURL+"/metrics"),
		zap.String("session_store", sessionMode(sessions, cfg.Session.Store)),
	)

	if err := server.Serve(ctx, srv, log, time.Duration(cfg.App.HTTP.ShutdownSec)*time.Second); err != nil {
		log.Error("http server stopped with error", zap.Error(err))
		return
	}
	log.Info("movie catalog api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	}, l)
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}

func openRedis(ctx context.Context, c config.Redis, l *zap.Logger) *redis.Client {
	if strings.TrimSpace(c.Addr) == "" {
		l.Info("redis disabled")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		l.Warn("redis unreachable, running without cache and session registry",
			zap.String("addr", c.Addr), zap.Error(err))
		_ = rdb.Close()
		return nil
	}
	l.Info("redis connected", zap.String("addr", c.Addr))
	return rdb
}

// buildSessions nil 表示不做刷新令牌白名单校验
func buildSessions(mode string, rdb *redis.Client, l *zap.Logger) session.Registry {
	switch mode {
	case "memory":
		l.Warn("session registry is in-memory; refresh tokens are lost on restart")
		return session.NewMemory()
	case "redis":
		if rdb != nil {
			return session.NewRedis(rdb)
		}
		l.Warn("session registry requested but redis is unavailable; refresh tokens are not revocable")
	}
	return nil
}

func sessionMode(reg session.Registry, want string) string {
	if reg == nil {
		return "none"
	}
	return want
}

func buildVerifiers(ctx context.Context, c config.Identity, l *zap.Logger) map[string]identity.Verifier {
	out := map[string]identity.Verifier{}
	if c.OIDC.Issuer != "" && c.OIDC.ClientID != "" {
		v, err := identity.NewOIDC(ctx, c.OIDC.Name, c.OIDC.Issuer, c.OIDC.ClientID)
		if err != nil {
			l.Warn("oidc provider disabled", zap.String("issuer", c.OIDC.Issuer), zap.Error(err))
		} else {
			out[strings.ToLower(c.OIDC.Name)] = v
		}
	}
	if c.Kakao.UserInfoURL != "" {
		out["kakao"] = identity.NewKakao(c.Kakao.UserInfoURL, 5*time.Second)
	}
	names := make([]string, 0, len(out))
	for k := range out {
		names = append(names, k)
	}
	l.Info("social login providers", zap.Strings("providers", names))
	return out
}

func newMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
