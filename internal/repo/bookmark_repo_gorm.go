package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"movie-catalog/internal/domain"
)

type BookmarkRepo struct{ db *gorm.DB }

func NewBookmarkRepo(db *gorm.DB) *BookmarkRepo { return &BookmarkRepo{db: db} }

func (r *BookmarkRepo) Create(ctx context.Context, b *domain.Bookmark) error {
	return wrapWrite("create bookmark", r.db.WithContext(ctx).Create(b).Error)
}

func (r *BookmarkRepo) Exists(ctx context.Context, userID, contentID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Bookmark{}).
		Where("user_id = ? AND content_id = ?", userID, contentID).
		Count(&n).Error
	return n > 0, err
}

func (r *BookmarkRepo) Delete(ctx context.Context, userID, contentID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND content_id = ?", userID, contentID).
		Delete(&domain.Bookmark{})
	return res.RowsAffected > 0, res.Error
}

// List 只返回仍在架（未软删除）的内容
func (r *BookmarkRepo) List(ctx context.Context, f domain.BookmarkFilter) ([]domain.BookmarkView, int64, error) {
	scope := func() *gorm.DB {
		tx := r.db.WithContext(ctx).Table("bookmarks AS b").
			Joins("JOIN contents c ON c.id = b.content_id").
			Where("b.user_id = ?", f.UserID).
			Where("c.deleted_at IS NULL")
		if kw := strings.TrimSpace(f.Keyword); kw != "" {
			tx = tx.Where(likeWhere("c.title"), likePattern(kw))
		}
		if f.DateFrom != nil {
			tx = tx.Where("b.created_at >= ?", *f.DateFrom)
		}
		if f.DateTo != nil {
			tx = tx.Where("b.created_at < ?", *f.DateTo)
		}
		return tx
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	sort := f.Sort
	if sort.Column == "" {
		sort = domain.SortSpec{Column: "b.created_at", Desc: true}
	}
	var out []domain.BookmarkView
	err := scope().
		Select("b.content_id, c.title, c.release_date, b.created_at").
		Order(sort.Clause()).Order("b.content_id DESC").
		Offset(f.Offset()).Limit(f.Limit()).
		Scan(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
