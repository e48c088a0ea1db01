package repo

import (
	"context"

	"gorm.io/gorm"

	"movie-catalog/internal/domain"
)

type WatchHistoryRepo struct{ db *gorm.DB }

func NewWatchHistoryRepo(db *gorm.DB) *WatchHistoryRepo { return &WatchHistoryRepo{db: db} }

func (r *WatchHistoryRepo) Create(ctx context.Context, w *domain.WatchHistory) error {
	return wrapWrite("create watch history", r.db.WithContext(ctx).Create(w).Error)
}

func (r *WatchHistoryRepo) ListByUser(ctx context.Context, userID int64, q domain.PageQuery) ([]domain.WatchHistoryView, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.WatchHistory{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.WatchHistoryView
	err := r.db.WithContext(ctx).Table("watch_histories AS w").
		Select("w.id, w.content_id, c.title, w.watched_minutes, w.created_at").
		Joins("LEFT JOIN contents c ON c.id = w.content_id").
		Where("w.user_id = ?", userID).
		Order("w.created_at DESC").Order("w.id DESC").
		Offset(q.Offset()).Limit(q.Limit()).
		Scan(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
