package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"movie-catalog/internal/domain"
)

type ContentRepo struct{ db *gorm.DB }

func NewContentRepo(db *gorm.DB) *ContentRepo { return &ContentRepo{db: db} }

// 关联由 ReplaceGenres 单独维护
func (r *ContentRepo) Create(ctx context.Context, c *domain.Content) error {
	return wrapWrite("create content", r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error)
}

func (r *ContentRepo) Save(ctx context.Context, c *domain.Content) error {
	return wrapWrite("save content", r.db.WithContext(ctx).Omit(clause.Associations).Save(c).Error)
}

func (r *ContentRepo) FindByID(ctx context.Context, id int64) (*domain.Content, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *ContentRepo) FindByExternalID(ctx context.Context, externalID int64) (*domain.Content, error) {
	return r.first(ctx, "external_id = ?", externalID)
}

func (r *ContentRepo) ExistsActive(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Content{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Count(&n).Error
	return n > 0, err
}

// ReplaceGenres 先删后插
func (r *ContentRepo) ReplaceGenres(ctx context.Context, contentID int64, genreIDs []int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("content_id = ?", contentID).Delete(&domain.ContentGenre{}).Error; err != nil {
		return wrapWrite("clear content genres", err)
	}
	if len(genreIDs) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(genreIDs))
	links := make([]domain.ContentGenre, 0, len(genreIDs))
	for _, gid := range genreIDs {
		if _, dup := seen[gid]; dup {
			continue
		}
		seen[gid] = struct{}{}
		links = append(links, domain.ContentGenre{ContentID: contentID, GenreID: gid})
	}
	return wrapWrite("link content genres", db.Create(&links).Error)
}

func (r *ContentRepo) List(ctx context.Context, f domain.ContentFilter) ([]domain.Content, int64, error) {
	scope := func() *gorm.DB {
		tx := r.db.WithContext(ctx).Model(&domain.Content{}).Where("contents.deleted_at IS NULL")
		if q := strings.TrimSpace(f.Query); q != "" {
			tx = tx.Where(likeWhere("contents.title"), likePattern(q))
		}
		if f.GenreID > 0 {
			tx = tx.Where("EXISTS (SELECT 1 FROM content_genres cg WHERE cg.content_id = contents.id AND cg.genre_id = ?)", f.GenreID)
		}
		return tx
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	tx := scope()
	switch f.Sort {
	case domain.ContentSortLatest:
		tx = tx.Order("contents.created_at desc").Order("contents.id desc")
	case domain.ContentSortOldest:
		tx = tx.Order("contents.created_at asc").Order("contents.id asc")
	default:
		tx = tx.Order("contents.id desc")
	}
	var out []domain.Content
	err := tx.Preload("Genres", "genres.deleted_at IS NULL").
		Offset(f.Offset()).Limit(f.Limit()).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *ContentRepo) TopRated(ctx context.Context, limit int) ([]domain.TopRatedContent, error) {
	var out []domain.TopRatedContent
	err := r.db.WithContext(ctx).Table("contents AS c").
		Select("c.id AS content_id, c.title AS title, AVG(r.rating * 1.0) AS avg_rating, COUNT(r.id) AS review_count").
		Joins("JOIN reviews r ON r.content_id = c.id").
		Where("c.deleted_at IS NULL").
		Group("c.id, c.title").
		Order("avg_rating DESC").Order("review_count DESC").Order("c.id ASC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ContentRepo) first(ctx context.Context, query string, args ...any) (*domain.Content, error) {
	var c domain.Content
	err := r.db.WithContext(ctx).
		Preload("Genres", "genres.deleted_at IS NULL").
		Where(query, args...).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
