package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"movie-catalog/internal/core/auth"
	"movie-catalog/internal/core/session"
	"movie-catalog/internal/domain"
	"movie-catalog/internal/provider/identity"
	"movie-catalog/internal/repo"
	"movie-catalog/pkg/apperr"
	"movie-catalog/pkg/utils"
)

const maxNicknameLen = 50

type LoginResult struct {
	auth.TokenPair
	User *domain.User `json:"user"`
}

type SignupInput struct {
	Email    string
	Password string
	Nickname string
}

// AuthService 注册/登录/刷新/登出；sessions 为 nil 时退化为无状态刷新校验
type AuthService struct {
	store     *repo.Store
	jwt       *auth.JWTer
	sessions  session.Registry
	verifiers map[string]identity.Verifier
	log       *zap.Logger
}

func NewAuthService(store *repo.Store, jwt *auth.JWTer, sessions session.Registry, verifiers map[string]identity.Verifier, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	if verifiers == nil {
		verifiers = map[string]identity.Verifier{}
	}
	return &AuthService{store: store, jwt: jwt, sessions: sessions, verifiers: verifiers, log: log}
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	existing, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		return nil, dbErr(err)
	}
	// 软删除账号也占用邮箱，只能由管理员恢复
	if existing != nil {
		return nil, apperr.Duplicate("email is already registered").WithDetail("email", email)
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}
	u := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Nickname:     truncateRunes(strings.TrimSpace(in.Nickname), maxNicknameLen),
		Role:         domain.RoleUser,
		Status:       domain.StatusActive,
	}
	if err := s.store.Users().Create(ctx, u); err != nil {
		return nil, writeErr(err, "email is already registered")
	}
	s.log.Info("user signed up", zap.Int64("user_id", u.ID))
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.store.Users().FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, dbErr(err)
	}
	if u == nil || u.IsDeleted() {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if u.Locked() {
		return nil, apperr.Forbidden("account is " + strings.ToLower(string(u.Status)))
	}
	if !utils.CheckPassword(password, u.PasswordHash) {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	return s.issue(ctx, u)
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.jwt.Parse(refreshToken)
	if errors.Is(err, auth.ErrTokenExpired) {
		return nil, apperr.TokenExpired("refresh token has expired")
	}
	if err != nil || claims.Kind != auth.KindRefresh {
		return nil, apperr.Unauthorized("invalid refresh token")
	}
	uid, err := claims.UserID()
	if err != nil {
		return nil, apperr.Unauthorized("invalid refresh token")
	}
	u, err := s.store.Users().FindByID(ctx, uid)
	if err != nil {
		return nil, dbErr(err)
	}
	if u == nil || u.IsDeleted() {
		return nil, apperr.Unauthorized("invalid refresh token")
	}
	if u.Locked() {
		return nil, apperr.Forbidden("account is " + strings.ToLower(string(u.Status)))
	}
	if s.sessions != nil {
		ok, err := s.sessions.Validate(ctx, uid, refreshToken)
		if err != nil {
			s.log.Error("session registry validate failed", zap.Int64("user_id", uid), zap.Error(err))
			return nil, apperr.Unauthorized("refresh token could not be verified")
		}
		if !ok {
			return nil, apperr.Unauthorized("refresh token has been revoked")
		}
	}
	return s.issue(ctx, u)
}

// Logout 幂等；注册表不可用时只记日志
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	s.revoke(ctx, userID)
	return nil
}

func (s *AuthService) SocialLogin(ctx context.Context, provider, credential string) (*LoginResult, error) {
	v, ok := s.verifiers[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return nil, apperr.BadRequest("unsupported social login provider").WithDetail("provider", provider)
	}
	id, err := v.Verify(ctx, credential)
	if errors.Is(err, identity.ErrInvalidCredential) {
		return nil, apperr.Unauthorized("social credential rejected")
	}
	if err != nil {
		return nil, apperr.Upstream("identity provider request failed", err)
	}

	u, err := s.store.Users().FindByEmail(ctx, id.Email)
	if err != nil {
		return nil, dbErr(err)
	}
	if u == nil {
		u, err = s.provision(ctx, id)
		if err != nil {
			return nil, err
		}
	}
	if u.IsDeleted() {
		return nil, apperr.Unauthorized("account has been deleted")
	}
	if u.Locked() {
		return nil, apperr.Forbidden("account is " + strings.ToLower(string(u.Status)))
	}
	return s.issue(ctx, u)
}

func (s *AuthService) provision(ctx context.Context, id *identity.Identity) (*domain.User, error) {
	nick := strings.TrimSpace(id.Name)
	if nick == "" {
		nick = id.Email
		if at := strings.IndexByte(nick, '@'); at > 0 {
			nick = nick[:at]
		}
	}
	u := &domain.User{
		Email:    id.Email,
		Nickname: truncateRunes(nick, maxNicknameLen),
		Role:     domain.RoleUser,
		Status:   domain.StatusActive,
	}
	err := s.store.Users().Create(ctx, u)
	if errors.Is(err, domain.ErrDuplicate) {
		// 并发兜底：唯一冲突 → 再查一次
		u, err = s.store.Users().FindByEmail(ctx, id.Email)
		if err == nil && u == nil {
			return nil, apperr.Conflict("account is being created concurrently")
		}
	}
	if err != nil {
		return nil, dbErr(err)
	}
	s.log.Info("user provisioned from social login",
		zap.Int64("user_id", u.ID), zap.String("provider", id.Provider))
	return u, nil
}

func (s *AuthService) issue(ctx context.Context, u *domain.User) (*LoginResult, error) {
	pair, err := s.jwt.IssuePair(u.ID)
	if err != nil {
		return nil, apperr.Internal("issue token failed", err)
	}
	if s.sessions != nil {
		if err := s.sessions.Store(ctx, u.ID, pair.RefreshToken, s.jwt.RefreshTTL); err != nil {
			s.log.Warn("session registry store failed", zap.Int64("user_id", u.ID), zap.Error(err))
		}
	}
	return &LoginResult{TokenPair: pair, User: u}, nil
}

func (s *AuthService) revoke(ctx context.Context, userID int64) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.Revoke(ctx, userID); err != nil {
		s.log.Warn("session registry revoke failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}
