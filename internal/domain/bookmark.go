package domain

import (
	"context"
	"time"
)

type Bookmark struct {
	UserID    int64     `gorm:"primaryKey" json:"userId"`
	ContentID int64     `gorm:"primaryKey;index" json:"contentId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Bookmark) TableName() string { return "bookmarks" }

type BookmarkView struct {
	ContentID   int64      `json:"contentId"`
	Title       string     `json:"title"`
	ReleaseDate *time.Time `json:"releaseDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type BookmarkFilter struct {
	UserID   int64
	Keyword  string
	DateFrom *time.Time
	DateTo   *time.Time // exclusive
	Sort     SortSpec
	PageQuery
}

type BookmarkRepository interface {
	Create(ctx context.Context, b *Bookmark) error
	Exists(ctx context.Context, userID, contentID int64) (bool, error)
	Delete(ctx context.Context, userID, contentID int64) (bool, error)
	List(ctx context.Context, f BookmarkFilter) ([]BookmarkView, int64, error)
}
