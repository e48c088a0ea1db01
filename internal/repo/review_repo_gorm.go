package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"movie-catalog/internal/domain"
)

const reviewViewColumns = "r.id, r.content_id, c.title AS content_title, r.user_id, u.nickname, " +
	"r.rating, r.comment, COALESCE(lc.cnt, 0) AS like_count, r.created_at, r.updated_at"

const likeCountJoin = "LEFT JOIN (SELECT review_id, COUNT(*) AS cnt FROM review_likes GROUP BY review_id) lc ON lc.review_id = r.id"

type ReviewRepo struct{ db *gorm.DB }

func NewReviewRepo(db *gorm.DB) *ReviewRepo { return &ReviewRepo{db: db} }

func (r *ReviewRepo) Create(ctx context.Context, rv *domain.Review) error {
	return wrapWrite("create review", r.db.WithContext(ctx).Create(rv).Error)
}

func (r *ReviewRepo) Save(ctx context.Context, rv *domain.Review) error {
	return wrapWrite("save review", r.db.WithContext(ctx).Save(rv).Error)
}

func (r *ReviewRepo) FindByID(ctx context.Context, id int64) (*domain.Review, error) {
	var rv domain.Review
	err := r.db.WithContext(ctx).First(&rv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *ReviewRepo) Delete(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("review_id = ?", id).Delete(&domain.ReviewLike{}).Error; err != nil {
		return wrapWrite("delete review likes", err)
	}
	return wrapWrite("delete review", db.Where("id = ?", id).Delete(&domain.Review{}).Error)
}

func (r *ReviewRepo) base(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table("reviews AS r").
		Joins("LEFT JOIN users u ON u.id = r.user_id").
		Joins("LEFT JOIN contents c ON c.id = r.content_id")
}

func (r *ReviewRepo) List(ctx context.Context, f domain.ReviewFilter) ([]domain.ReviewView, int64, error) {
	scope := func() *gorm.DB {
		tx := r.base(ctx)
		if f.ContentID > 0 {
			tx = tx.Where("r.content_id = ?", f.ContentID)
		}
		if f.UserID > 0 {
			tx = tx.Where("r.user_id = ?", f.UserID)
		}
		if kw := strings.TrimSpace(f.Keyword); kw != "" {
			tx = tx.Where(likeWhere("r.comment"), likePattern(kw))
		}
		if f.RatingMin > 0 {
			tx = tx.Where("r.rating >= ?", f.RatingMin)
		}
		if f.RatingMax > 0 {
			tx = tx.Where("r.rating <= ?", f.RatingMax)
		}
		if f.DateFrom != nil {
			tx = tx.Where("r.created_at >= ?", *f.DateFrom)
		}
		if f.DateTo != nil {
			tx = tx.Where("r.created_at < ?", *f.DateTo)
		}
		return tx
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	sort := f.Sort
	if sort.Column == "" {
		sort = domain.SortSpec{Column: "r.created_at", Desc: true}
	}
	var out []domain.ReviewView
	err := scope().Select(reviewViewColumns).Joins(likeCountJoin).
		Order(sort.Clause()).Order("r.id DESC").
		Offset(f.Offset()).Limit(f.Limit()).
		Scan(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *ReviewRepo) Popular(ctx context.Context, limit int) ([]domain.ReviewView, error) {
	var out []domain.ReviewView
	err := r.base(ctx).Select(reviewViewColumns).Joins(likeCountJoin).
		Order("COALESCE(lc.cnt, 0) DESC").Order("r.created_at DESC").Order("r.id DESC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ReviewRepo) AddLike(ctx context.Context, l *domain.ReviewLike) error {
	return wrapWrite("like review", r.db.WithContext(ctx).Create(l).Error)
}

func (r *ReviewRepo) RemoveLike(ctx context.Context, userID, reviewID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND review_id = ?", userID, reviewID).
		Delete(&domain.ReviewLike{})
	return res.RowsAffected > 0, res.Error
}

func (r *ReviewRepo) HasLike(ctx context.Context, userID, reviewID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.ReviewLike{}).
		Where("user_id = ? AND review_id = ?", userID, reviewID).
		Count(&n).Error
	return n > 0, err
}

func (r *ReviewRepo) CountLikes(ctx context.Context, reviewID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.ReviewLike{}).
		Where("review_id = ?", reviewID).
		Count(&n).Error
	return n, err
}
