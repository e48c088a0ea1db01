package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"movie-catalog/internal/core/config"
	"movie-catalog/internal/core/database"
	"movie-catalog/internal/core/logger"
	"movie-catalog/internal/provider/tmdb"
	"movie-catalog/internal/repo"
	"movie-catalog/internal/service"
)

const usage = `movie-catalog admin

usage:
  admin migrate -op=up|down|version|force [-steps=n] [-version=n]
  admin automigrate
  admin seed [-password=...]
  admin sync-genres
  admin promote -email=...
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(2)
	}
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, flush := logger.New(logger.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON, Service: cfg.App.Name + "-admin"})
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := mustOpenDB(cfg, log)
	defer func() { _ = database.Close(db) }()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "migrate":
		err = runMigrate(db, args, log)
	case "automigrate":
		err = database.AutoMigrate(db)
	case "seed":
		err = runSeed(ctx, cfg, db, args, log)
	case "sync-genres":
		err = runSyncGenres(ctx, cfg, db, log)
	case "promote":
		err = runPromote(ctx, cfg, db, args, log)
	default:
		fmt.Print(usage)
		os.Exit(2)
	}
	if err != nil {
		log.Error("admin command failed", zap.String("cmd", cmd), zap.Error(err))
		flush()
		os.Exit(1)
	}
	log.Info("admin command done", zap.String("cmd", cmd))
}

func runMigrate(db *gorm.DB, args []string, l *zap.Logger) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	op := fs.String("op", "up", "operation: up, down, version, force")
	steps := fs.Int("steps", 0, "number of steps for up/down (0 = all)")
	version := fs.Int("version", -1, "target version for force")
	_ = fs.Parse(args)

	m, err := database.NewMigrator(db)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	switch *op {
	case "up":
		return m.Up(*steps)
	case "down":
		return m.Down(*steps)
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		l.Info("migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return nil
	case "force":
		if *version < 0 {
			return errors.New("force requires -version")
		}
		return m.Force(*version)
	}
	return fmt.Errorf("unknown migrate op %q", *op)
}

func genreService(cfg *config.Config, store *repo.Store, l *zap.Logger) *service.GenreService {
	provider := tmdb.New(tmdb.Options{
		APIKey:   cfg.TMDB.APIKey,
		BaseURL:  cfg.TMDB.BaseURL,
		Language: cfg.TMDB.Language,
		Timeout:  time.Duration(cfg.TMDB.TimeoutSec) * time.Second,
		Logger:   l.Named("tmdb"),
	})
	return service.NewGenreService(store, provider, l)
}

func runSeed(ctx context.Context, cfg *config.Config, db *gorm.DB, args []string, l *zap.Logger) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	password := fs.String("password", "password1234", "password for seeded accounts")
	_ = fs.Parse(args)

	store := repo.NewStore(db)
	seeder := service.NewSeeder(store, genreService(cfg, store, l), l)
	_, err := seeder.Seed(ctx, service.DefaultSeedUsers, *password)
	return err
}

func runSyncGenres(ctx context.Context, cfg *config.Config, db *gorm.DB, l *zap.Logger) error {
	res, err := genreService(cfg, repo.NewStore(db), l).Sync(ctx)
	if err != nil {
		return err
	}
	if res.Skipped {
		l.Warn("genre sync skipped: provider returned no genres")
	}
	return nil
}

func runPromote(ctx context.Context, cfg *config.Config, db *gorm.DB, args []string, l *zap.Logger) error {
	fs := flag.NewFlagSet("promote", flag.ExitOnError)
	email := fs.String("email", "", "email of the account to promote")
	_ = fs.Parse(args)
	if *email == "" {
		return errors.New("promote requires -email")
	}
	store := repo.NewStore(db)
	u, err := service.NewSeeder(store, genreService(cfg, store, l), l).Promote(ctx, *email)
	if err != nil {
		return err
	}
	l.Info("user promoted", zap.Int64("user_id", u.ID), zap.String("email", u.Email))
	return nil
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
