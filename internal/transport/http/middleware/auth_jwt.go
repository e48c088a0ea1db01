package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"movie-catalog/internal/core/auth"
	"movie-catalog/internal/domain"
	resp "movie-catalog/internal/transport/http/response"
	"movie-catalog/pkg/apperr"
)

const (
	KeyUserID = "userId"
	KeyRole   = "role"
	KeyUser   = "user"
)

// UserLoader 鉴权时回查用户状态
type UserLoader interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}

// AuthJWT 只接受 access token；用户必须存在、未删除、未封禁
func AuthJWT(j *auth.JWTer, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			resp.Fail(c, apperr.Unauthorized("missing bearer token"))
			return
		}
		claims, err := j.Parse(strings.TrimSpace(strings.TrimPrefix(ah, "Bearer ")))
		if errors.Is(err, auth.ErrTokenExpired) {
			resp.Fail(c, apperr.TokenExpired("access token has expired"))
			return
		}
		if err != nil || claims.Kind != auth.KindAccess {
			resp.Fail(c, apperr.Unauthorized("invalid token"))
			return
		}
		uid, err := claims.UserID()
		if err != nil {
			resp.Fail(c, apperr.Unauthorized("invalid token"))
			return
		}
		u, err := users.FindByID(c.Request.Context(), uid)
		if err != nil {
			_ = c.Error(err)
			resp.Fail(c, apperr.Database(err))
			return
		}
		if u == nil || u.IsDeleted() {
			resp.Fail(c, apperr.Unauthorized("user no longer exists"))
			return
		}
		if u.Locked() {
			resp.Fail(c, apperr.Forbidden("account is "+strings.ToLower(string(u.Status))))
			return
		}
		c.Set(KeyUserID, u.ID)
		c.Set(KeyRole, u.Role)
		c.Set(KeyUser, u)
		c.Next()
	}
}

// RequireRole 必须挂在 AuthJWT 之后
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if HasRole(c, roles...) {
			c.Next()
			return
		}
		resp.Fail(c, apperr.Forbidden("insufficient role"))
	}
}

func HasRole(c *gin.Context, roles ...domain.Role) bool {
	v, ok := c.Get(KeyRole)
	if !ok {
		return false
	}
	role, _ := v.(domain.Role)
	for _, r := range roles {
		if role == r {
			return true
		}
	}
	return false
}

// UserID 未登录时返回 0
func UserID(c *gin.Context) int64 { return c.GetInt64(KeyUserID) }

// CurrentUser AuthJWT 已加载的用户；未登录时为 nil
func CurrentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(KeyUser)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}
