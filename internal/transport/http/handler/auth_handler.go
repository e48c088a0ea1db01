package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"movie-catalog/internal/domain"
	"movie-catalog/internal/service"
	"movie-catalog/internal/transport/http/ez"
	mdw "movie-catalog/internal/transport/http/middleware"
)

type AuthHandler struct{ svc *service.AuthService }

func NewAuthHandler(svc *service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

func (h *AuthHandler) Priority() int { return 10 }

func (h *AuthHandler) Mount(r Routes) {
	// --- POST /users/signup ---
	type signupIn struct {
		Email    string `json:"email"    binding:"required,email,max=255"`
		Password string `json:"password" binding:"required,min=8,max=72"`
		Nickname string `json:"nickname" binding:"required,notblank,max=50"`
	}
	ez.RegisterAction(r.Public, ez.Action[signupIn, *domain.User]{
		Method: http.MethodPost,
		Path:   "/users/signup",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *signupIn) (*domain.User, error) {
			return h.svc.Signup(c.Request.Context(), service.SignupInput{
				Email: in.Email, Password: in.Password, Nickname: in.Nickname,
			})
		},
	})

	// --- POST /auth/login ---
	type loginIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	ez.RegisterAction(r.Public, ez.Action[loginIn, *service.LoginResult]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (*service.LoginResult, error) {
			return h.svc.Login(c.Request.Context(), in.Email, in.Password)
		},
	})

	// --- POST /auth/refresh ---
	type refreshIn struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	ez.RegisterAction(r.Public, ez.Action[refreshIn, *service.LoginResult]{
		Method: http.MethodPost,
		Path:   "/auth/refresh",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *refreshIn) (*service.LoginResult, error) {
			return h.svc.Refresh(c.Request.Context(), in.RefreshToken)
		},
	})

	// --- POST /auth/social：provider 的 ID token / access token 换本站令牌 ---
	type socialIn struct {
		Provider string `json:"provider" binding:"required"`
		Token    string `json:"token"    binding:"required"`
	}
	ez.RegisterAction(r.Public, ez.Action[socialIn, *service.LoginResult]{
		Method: http.MethodPost,
		Path:   "/auth/social",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *socialIn) (*service.LoginResult, error) {
			return h.svc.SocialLogin(c.Request.Context(), in.Provider, in.Token)
		},
	})

	// --- POST /auth/logout ---
	ez.RegisterAction(r.User, ez.Action[struct{}, idOut]{
		Method: http.MethodPost,
		Path:   "/auth/logout",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (idOut, error) {
			uid := mdw.UserID(c)
			return idOut{ID: uid}, h.svc.Logout(c.Request.Context(), uid)
		},
	})
}
