package service

import (
	"context"

	"go.uber.org/zap"

	"movie-catalog/internal/domain"
	"movie-catalog/internal/provider/tmdb"
	"movie-catalog/internal/repo"
	"movie-catalog/pkg/apperr"
	"movie-catalog/pkg/utils"
)

// DefaultGenres TMDB 电影类型表（离线种子）
var DefaultGenres = []tmdb.Genre{
	{ID: 28, Name: "Action"}, {ID: 12, Name: "Adventure"}, {ID: 16, Name: "Animation"},
	{ID: 35, Name: "Comedy"}, {ID: 80, Name: "Crime"}, {ID: 99, Name: "Documentary"},
	{ID: 18, Name: "Drama"}, {ID: 10751, Name: "Family"}, {ID: 14, Name: "Fantasy"},
	{ID: 36, Name: "History"}, {ID: 27, Name: "Horror"}, {ID: 10402, Name: "Music"},
	{ID: 9648, Name: "Mystery"}, {ID: 10749, Name: "Romance"}, {ID: 878, Name: "Science Fiction"},
	{ID: 10770, Name: "TV Movie"}, {ID: 53, Name: "Thriller"}, {ID: 10752, Name: "War"},
	{ID: 37, Name: "Western"},
}

type SeedUser struct {
	Email    string
	Nickname string
	Role     domain.Role
}

var DefaultSeedUsers = []SeedUser{
	{Email: "admin@example.com", Nickname: "admin", Role: domain.RoleAdmin},
	{Email: "user1@example.com", Nickname: "user1", Role: domain.RoleUser},
	{Email: "user2@example.com", Nickname: "user2", Role: domain.RoleUser},
}

type SeedResult struct {
	UsersCreated int
	UsersSkipped int
	Genres       int
}

// Seeder 幂等：已存在的邮箱跳过，类型走 upsert
type Seeder struct {
	store  *repo.Store
	genres *GenreService
	log    *zap.Logger
}

func NewSeeder(store *repo.Store, genres *GenreService, log *zap.Logger) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Seeder{store: store, genres: genres, log: log}
}

func (s *Seeder) Seed(ctx context.Context, users []SeedUser, password string) (SeedResult, error) {
	var res SeedResult
	hash, err := utils.HashPassword(password)
	if err != nil {
		return res, apperr.Internal("hash password", err)
	}
	err = s.store.Tx(ctx, func(tx *repo.Store) error {
		for _, su := range users {
			email := normalizeEmail(su.Email)
			existing, err := tx.Users().FindByEmail(ctx, email)
			if err != nil {
				return dbErr(err)
			}
			if existing != nil {
				res.UsersSkipped++
				continue
			}
			u := &domain.User{
				Email:        email,
				PasswordHash: hash,
				Nickname:     su.Nickname,
				Role:         su.Role,
				Status:       domain.StatusActive,
			}
			if err := tx.Users().Create(ctx, u); err != nil {
				return dbErr(err)
			}
			res.UsersCreated++
		}
		ids, err := s.genres.EnsureGenres(ctx, tx, DefaultGenres)
		if err != nil {
			return err
		}
		res.Genres = len(ids)
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}
	s.log.Info("seed finished",
		zap.Int("users_created", res.UsersCreated),
		zap.Int("users_skipped", res.UsersSkipped),
		zap.Int("genres", res.Genres))
	return res, nil
}

// Promote 运维入口：把已有账号设为管理员
func (s *Seeder) Promote(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.store.Users().FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, dbErr(err)
	}
	if u == nil {
		return nil, apperr.UserNotFound("user not found").WithDetail("email", email)
	}
	u.Role = domain.RoleAdmin
	if err := s.store.Users().Save(ctx, u); err != nil {
		return nil, dbErr(err)
	}
	return u, nil
}
