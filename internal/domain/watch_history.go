package domain

import (
	"context"
	"time"
)

// WatchHistory 观看记录，只追加
type WatchHistory struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64     `gorm:"not null;index" json:"userId"`
	ContentID      int64     `gorm:"not null;index" json:"contentId"`
	WatchedMinutes int       `gorm:"not null;default:0" json:"watchedMinutes"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (WatchHistory) TableName() string { return "watch_histories" }

type WatchHistoryView struct {
	ID             int64     `json:"id"`
	ContentID      int64     `json:"contentId"`
	Title          string    `json:"title"`
	WatchedMinutes int       `json:"watchedMinutes"`
	CreatedAt      time.Time `json:"createdAt"`
}

type WatchHistoryRepository interface {
	Create(ctx context.Context, w *WatchHistory) error
	ListByUser(ctx context.Context, userID int64, q PageQuery) ([]WatchHistoryView, int64, error)
}
