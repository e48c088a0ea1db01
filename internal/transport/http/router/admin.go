package router

import (
	"movie-catalog/internal/core/auth"
	"movie-catalog/internal/domain"
	"movie-catalog/internal/transport/http/ez"
	mdw "movie-catalog/internal/transport/http/middleware"
)

// authGroups 登录分组 + 管理端分组（统一要求 ADMIN 角色）
// 管理端与公共接口共用路径，没有 /admin 前缀
func authGroups(root ez.EZ, jwter *auth.JWTer, users mdw.UserLoader) (user, admin ez.EZ) {
	authn := mdw.AuthJWT(jwter, users)
	user = root.Group("", authn)
	admin = root.Group("", authn, mdw.RequireRole(domain.RoleAdmin))
	return user, admin
}
