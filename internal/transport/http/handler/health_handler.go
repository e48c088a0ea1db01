package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"movie-catalog/internal/service"
	"movie-catalog/internal/transport/http/ez"
)

type HealthHandler struct{ svc *service.HealthService }

func NewHealthHandler(svc *service.HealthService) *HealthHandler { return &HealthHandler{svc: svc} }

func (h *HealthHandler) Priority() int { return 0 }

func (h *HealthHandler) Mount(r Routes) {
	ez.RegisterAction(r.Public, ez.Action[struct{}, *service.HealthStatus]{
		Method: http.MethodGet,
		Path:   "/health",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*service.HealthStatus, error) {
			return h.svc.Check(c.Request.Context())
		},
	})
}
