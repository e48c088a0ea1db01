package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"movie-catalog/internal/domain"
)

// Store 聚合各仓储；Tx 内部拿到的是绑定事务的 Store
type Store struct{ db *gorm.DB }

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) Users() domain.UserRepository           { return NewUserRepo(s.db) }
func (s *Store) Genres() domain.GenreRepository         { return NewGenreRepo(s.db) }
func (s *Store) Contents() domain.ContentRepository     { return NewContentRepo(s.db) }
func (s *Store) Reviews() domain.ReviewRepository       { return NewReviewRepo(s.db) }
func (s *Store) Bookmarks() domain.BookmarkRepository   { return NewBookmarkRepo(s.db) }
func (s *Store) Watches() domain.WatchHistoryRepository { return NewWatchHistoryRepo(s.db) }

func (s *Store) Tx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// IsDupKey 兼容不同驱动的唯一冲突报错
func IsDupKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}

func wrapWrite(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDupKey(err) {
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// likeEscaper 用户输入里的通配符按字面匹配；'!' 在 postgres/mysql/sqlite 里写法一致
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likeWhere 与 likePattern 配套使用
func likeWhere(col string) string {
	return "LOWER(" + col + ") LIKE ? ESCAPE '!'"
}

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}
