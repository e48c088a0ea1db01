package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "movie-catalog/internal/transport/http/response"
	"movie-catalog/pkg/apperr"
)

// MaxBodyBytes 限制请求体大小；超限由绑定层返回 413
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			c.Header("Connection", "close")
			abortTooLarge(c)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

func abortTooLarge(c *gin.Context) {
	resp.Fail(c, apperr.New(http.StatusRequestEntityTooLarge, apperr.CodeBadRequest, "request body too large"))
}
