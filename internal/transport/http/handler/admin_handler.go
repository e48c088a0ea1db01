package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"movie-catalog/internal/domain"
	"movie-catalog/internal/service"
	"movie-catalog/internal/transport/http/ez"
)

// AdminHandler 管理端用户管理；分组已校验 ADMIN
type AdminHandler struct{ users *service.UserService }

func NewAdminHandler(users *service.UserService) *AdminHandler { return &AdminHandler{users: users} }

func (h *AdminHandler) Priority() int { return 200 }

func (h *AdminHandler) Mount(r Routes) {
	// --- GET /users 用户列表 ---
	type listQ struct {
		Q              string `form:"q"`              // 按 email 模糊搜
		IncludeDeleted bool   `form:"includeDeleted"` // 是否包含软删
		domain.PageQuery
	}
	ez.RegisterAction(r.Admin, ez.Action[listQ, domain.Page[domain.User]]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindQuery,
		Roles:  []domain.Role{domain.RoleAdmin},
		Handler: func(c *gin.Context, in *listQ) (domain.Page[domain.User], error) {
			return h.users.List(c.Request.Context(), domain.UserFilter{
				Query:          in.Q,
				IncludeDeleted: in.IncludeDeleted,
				PageQuery:      in.PageQuery,
			})
		},
	})

	ez.RegisterAction(r.Admin, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/users/:id",
		Binder: ez.BindNone,
		Roles:  []domain.Role{domain.RoleAdmin},
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			id, err := ez.PathID(c, "id")
			if err != nil {
				return nil, err
			}
			return h.users.Get(c.Request.Context(), id)
		},
	})

	type roleIn struct {
		Role string `json:"role" binding:"required,oneof=USER ADMIN"`
	}
	ez.RegisterAction(r.Admin, ez.Action[roleIn, *domain.User]{
		Method: http.MethodPatch,
		Path:   "/users/:id/role",
		Binder: ez.BindJSON,
		Roles:  []domain.Role{domain.RoleAdmin},
		Handler: func(c *gin.Context, in *roleIn) (*domain.User, error) {
			id, err := ez.PathID(c, "id")
			if err != nil {
				return nil, err
			}
			return h.users.ChangeRole(c.Request.Context(), id, in.Role)
		},
	})

	// --- PATCH /users/:id/status  ACTIVE 同时恢复软删 ---
	type statusIn struct {
		Status string `json:"status" binding:"required,oneof=ACTIVE BLOCKED DELETED"`
	}
	ez.RegisterAction(r.Admin, ez.Action[statusIn, *service.StatusChange]{
		Method: http.MethodPatch,
		Path:   "/users/:id/status",
		Binder: ez.BindJSON,
		Roles:  []domain.Role{domain.RoleAdmin},
		Handler: func(c *gin.Context, in *statusIn) (*service.StatusChange, error) {
			id, err := ez.PathID(c, "id")
			if err != nil {
				return nil, err
			}
			return h.users.ChangeStatus(c.Request.Context(), id, in.Status)
		},
	})

	// --- DELETE /users/:id  强制注销（软删） ---
	ez.RegisterAction(r.Admin, ez.Action[struct{}, idOut]{
		Method: http.MethodDelete,
		Path:   "/users/:id",
		Binder: ez.BindNone,
		Roles:  []domain.Role{domain.RoleAdmin},
		Handler: func(c *gin.Context, _ *struct{}) (idOut, error) {
			id, err := ez.PathID(c, "id")
			if err != nil {
				return idOut{}, err
			}
			return idOut{ID: id}, h.users.ForceDelete(c.Request.Context(), id)
		},
	})
}
