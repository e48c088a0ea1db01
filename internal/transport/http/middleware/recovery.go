package middleware

import (
	"net/http"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "movie-catalog/internal/transport/http/response"
	"movie-catalog/pkg/apperr"
)

// Recovery panic → 500 信封；堆栈交给 ginzap 打印
func Recovery(l *zap.Logger) gin.HandlerFunc {
	return ginzap.CustomRecoveryWithZap(l, true, func(c *gin.Context, _ any) {
		resp.Fail(c, apperr.New(http.StatusInternalServerError, apperr.CodeInternalServerError, "internal server error"))
	})
}
