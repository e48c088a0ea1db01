package response

import (
	"reflect"
	"time"

	"github.com/gin-gonic/gin"

	"movie-catalog/pkg/apperr"
)

// Envelope 统一响应体；成功带 data，失败带 details
type Envelope struct {
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

func newEnvelope(c *gin.Context, status int, code, msg string) Envelope {
	return Envelope{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      c.Request.URL.Path,
		Status:    status,
		Code:      code,
		Message:   messageFor(code, msg),
	}
}

// Success 写成功响应（保证 data 不为 null）
func Success(c *gin.Context, status int, data any) {
	if isNil(data) {
		data = struct{}{}
	}
	env := newEnvelope(c, status, apperr.DefaultCode(status), "")
	env.Data = data
	c.JSON(status, env)
}

// Fail 写错误响应并中断后续 handler
func Fail(c *gin.Context, e *apperr.Error) {
	env := newEnvelope(c, e.Status, e.Code, e.Message)
	if len(e.Details) > 0 {
		env.Details = e.Details
	}
	c.AbortWithStatusJSON(e.Status, env)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Error 简写：只有状态码和提示语
func Error(c *gin.Context, status int, msg string) {
	Fail(c, apperr.New(status, "", msg))
}
