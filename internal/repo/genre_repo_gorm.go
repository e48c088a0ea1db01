package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"movie-catalog/internal/domain"
)

type GenreRepo struct{ db *gorm.DB }

func NewGenreRepo(db *gorm.DB) *GenreRepo { return &GenreRepo{db: db} }

func (r *GenreRepo) Create(ctx context.Context, g *domain.Genre) error {
	return wrapWrite("create genre", r.db.WithContext(ctx).Create(g).Error)
}

func (r *GenreRepo) Save(ctx context.Context, g *domain.Genre) error {
	return wrapWrite("save genre", r.db.WithContext(ctx).Save(g).Error)
}

func (r *GenreRepo) FindByID(ctx context.Context, id int64) (*domain.Genre, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *GenreRepo) FindByExternalID(ctx context.Context, externalID int64) (*domain.Genre, error) {
	return r.first(ctx, "external_genre_id = ?", externalID)
}

func (r *GenreRepo) FindActiveByName(ctx context.Context, name string, excludeID int64) (*domain.Genre, error) {
	tx := r.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
	if excludeID > 0 {
		tx = tx.Where("id <> ?", excludeID)
	}
	var g domain.Genre
	err := tx.First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GenreRepo) List(ctx context.Context, f domain.GenreFilter) ([]domain.Genre, int64, error) {
	scope := func() *gorm.DB {
		tx := r.db.WithContext(ctx).Model(&domain.Genre{}).Where("deleted_at IS NULL")
		if kw := strings.TrimSpace(f.Keyword); kw != "" {
			tx = tx.Where(likeWhere("name"), likePattern(kw))
		}
		if f.CreatedFrom != nil {
			tx = tx.Where("created_at >= ?", *f.CreatedFrom)
		}
		if f.CreatedTo != nil {
			tx = tx.Where("created_at < ?", *f.CreatedTo)
		}
		return tx
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	sort := f.Sort
	if sort.Column == "" {
		sort = domain.SortSpec{Column: "created_at", Desc: true}
	}
	var out []domain.Genre
	err := scope().Order(sort.Clause()).Order("id desc").
		Offset(f.Offset()).Limit(f.Limit()).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *GenreRepo) SoftDeleteMissing(ctx context.Context, keep []int64, at time.Time) (int64, error) {
	// 空集合直接返回，避免把全部类型删掉
	if len(keep) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&domain.Genre{}).
		Where("deleted_at IS NULL").
		Where("external_genre_id IS NOT NULL").
		Where("external_genre_id NOT IN ?", keep).
		Updates(map[string]any{"deleted_at": at, "updated_at": at})
	return res.RowsAffected, res.Error
}

func (r *GenreRepo) first(ctx context.Context, query string, args ...any) (*domain.Genre, error) {
	var g domain.Genre
	err := r.db.WithContext(ctx).Where(query, args...).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}
