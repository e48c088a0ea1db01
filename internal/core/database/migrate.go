package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var MigrationsFS embed.FS

// Migrator 基于 golang-migrate 的版本化迁移（仅 postgres）
type Migrator struct {
	m *migrate.Migrate
}

func NewMigrator(db *gorm.DB) (*Migrator, error) {
	if name := db.Dialector.Name(); name != "postgres" {
		return nil, fmt.Errorf("%w: versioned migrations support postgres only, got %q", ErrUnsupportedDriver, name)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return nil, fmt.Errorf("migrate driver: %w", err)
	}
	src, err := iofs.New(MigrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrate source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("migrate instance: %w", err)
	}
	return &Migrator{m: m}, nil
}

// Up steps<=0 时迁移到最新；已是最新不算错误
func (g *Migrator) Up(steps int) error {
	var err error
	if steps > 0 {
		err = g.m.Steps(steps)
	} else {
		err = g.m.Up()
	}
	return ignoreNoChange(err)
}

// Down steps<=0 时回滚全部
func (g *Migrator) Down(steps int) error {
	var err error
	if steps > 0 {
		err = g.m.Steps(-steps)
	} else {
		err = g.m.Down()
	}
	return ignoreNoChange(err)
}

// Version 尚未迁移时返回 0
func (g *Migrator) Version() (uint, bool, error) {
	v, dirty, err := g.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func (g *Migrator) Force(version int) error { return g.m.Force(version) }

// Close 只关闭 source；数据库连接由调用方持有
func (g *Migrator) Close() error {
	srcErr, _ := g.m.Close()
	return srcErr
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
