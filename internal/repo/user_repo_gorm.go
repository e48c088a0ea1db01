package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"movie-catalog/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	return wrapWrite("create user", r.db.WithContext(ctx).Create(u).Error)
}

func (r *UserRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "email = ?", strings.TrimSpace(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context, f domain.UserFilter) ([]domain.User, int64, error) {
	scope := func() *gorm.DB {
		tx := r.db.WithContext(ctx).Model(&domain.User{})
		if !f.IncludeDeleted {
			tx = tx.Where("deleted_at IS NULL")
		}
		if q := strings.TrimSpace(f.Query); q != "" {
			tx = tx.Where(likeWhere("email"), likePattern(q))
		}
		return tx
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []domain.User
	err := scope().
		Order("created_at desc").Order("id desc").
		Offset(f.Offset()).Limit(f.Limit()).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepo) Save(ctx context.Context, u *domain.User) error {
	return wrapWrite("save user", r.db.WithContext(ctx).Save(u).Error)
}
