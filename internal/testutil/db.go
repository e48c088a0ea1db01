// Package testutil opens throwaway in-memory databases for package tests.
package testutil

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"movie-catalog/internal/domain"
)

// NewDB 每次返回一个全新的内存库；单连接保证整个测试共享同一个 :memory: 实例
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(domain.Models()...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	// 与 postgres 迁移一致：未删除的类型名大小写不敏感唯一
	if err := db.Exec("CREATE UNIQUE INDEX uq_genres_active_name ON genres (LOWER(name)) WHERE deleted_at IS NULL").Error; err != nil {
		t.Fatalf("genre name index: %v", err)
	}
	return db
}
