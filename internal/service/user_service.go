package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"movie-catalog/internal/core/session"
	"movie-catalog/internal/domain"
	"movie-catalog/internal/repo"
	"movie-catalog/pkg/apperr"
	"movie-catalog/pkg/utils"
)

type UserService struct {
	store    *repo.Store
	sessions session.Registry
	log      *zap.Logger
}

func NewUserService(store *repo.Store, sessions session.Registry, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{store: store, sessions: sessions, log: log}
}

// ---------- 本人 ----------

func (s *UserService) Me(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, dbErr(err)
	}
	if u == nil || u.IsDeleted() {
		return nil, apperr.UserNotFound("user not found")
	}
	return u, nil
}

func (s *UserService) UpdateMe(ctx context.Context, userID int64, nickname *string) (*domain.User, error) {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	if nickname != nil {
		n := strings.TrimSpace(*nickname)
		if n == "" {
			return nil, apperr.Validation("invalid input", map[string]string{"nickname": "must not be blank"})
		}
		u.Nickname = truncateRunes(n, maxNicknameLen)
	}
	if err := s.store.Users().Save(ctx, u); err != nil {
		return nil, dbErr(err)
	}
	return u, nil
}

// ChangePassword 成功后吊销刷新令牌，其他设备需重新登录
func (s *UserService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(current, u.PasswordHash) {
		return apperr.BadRequest("current password is incorrect")
	}
	hash, err := utils.HashPassword(next)
	if err != nil {
		return apperr.Internal("hash password", err)
	}
	u.PasswordHash = hash
	if err := s.store.Users().Save(ctx, u); err != nil {
		return dbErr(err)
	}
	s.revoke(ctx, u.ID)
	return nil
}

func (s *UserService) DeleteMe(ctx context.Context, userID int64) error {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	return s.softDelete(ctx, u)
}

// ---------- 管理端 ----------

func (s *UserService) List(ctx context.Context, f domain.UserFilter) (domain.Page[domain.User], error) {
	users, total, err := s.store.Users().List(ctx, f)
	if err != nil {
		return domain.Page[domain.User]{}, dbErr(err)
	}
	return domain.NewPage(users, f.PageQuery, total), nil
}

// Get 管理端可以看到软删除用户
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, dbErr(err)
	}
	if u == nil {
		return nil, apperr.UserNotFound("user not found").WithDetail("userId", id)
	}
	return u, nil
}

func (s *UserService) ChangeRole(ctx context.Context, id int64, role string) (*domain.User, error) {
	r := domain.Role(strings.ToUpper(strings.TrimSpace(role)))
	if !r.Valid() {
		return nil, apperr.BadRequest("role must be one of USER, ADMIN").WithDetail("role", role)
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Role = r
	if err := s.store.Users().Save(ctx, u); err != nil {
		return nil, dbErr(err)
	}
	s.log.Info("user role changed", zap.Int64("user_id", id), zap.String("role", string(r)))
	return u, nil
}

type StatusChange struct {
	User     *domain.User `json:"user"`
	Restored bool         `json:"restored"`
}

// ChangeStatus ACTIVE 会同时清掉 deleted_at（管理员恢复账号）
func (s *UserService) ChangeStatus(ctx context.Context, id int64, status string) (*StatusChange, error) {
	st := domain.UserStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !st.Valid() {
		return nil, apperr.BadRequest("status must be one of ACTIVE, BLOCKED, DELETED").WithDetail("status", status)
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &StatusChange{User: u}
	u.Status = st
	switch st {
	case domain.StatusActive:
		if u.DeletedAt != nil {
			u.DeletedAt = nil
			out.Restored = true
		}
	case domain.StatusDeleted:
		if u.DeletedAt == nil {
			now := nowUTC()
			u.DeletedAt = &now
		}
	}
	if err := s.store.Users().Save(ctx, u); err != nil {
		return nil, dbErr(err)
	}
	if st != domain.StatusActive {
		s.revoke(ctx, u.ID)
	}
	s.log.Info("user status changed",
		zap.Int64("user_id", id), zap.String("status", string(st)), zap.Bool("restored", out.Restored))
	return out, nil
}

func (s *UserService) ForceDelete(ctx context.Context, id int64) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if u.IsDeleted() {
		return apperr.Conflict("user is already deleted").WithDetail("userId", id)
	}
	return s.softDelete(ctx, u)
}

func (s *UserService) softDelete(ctx context.Context, u *domain.User) error {
	now := nowUTC()
	u.DeletedAt = &now
	u.Status = domain.StatusDeleted
	if err := s.store.Users().Save(ctx, u); err != nil {
		return dbErr(err)
	}
	s.revoke(ctx, u.ID)
	s.log.Info("user soft-deleted", zap.Int64("user_id", u.ID))
	return nil
}

func (s *UserService) revoke(ctx context.Context, userID int64) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.Revoke(ctx, userID); err != nil {
		s.log.Warn("session registry revoke failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}
