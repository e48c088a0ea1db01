package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// 错误码（与响应信封的 code 字段一一对应）
const (
	CodeSuccess             = "SUCCESS"
	CodeBadRequest          = "BAD_REQUEST"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeInvalidQueryParam   = "INVALID_QUERY_PARAM"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeForbidden           = "FORBIDDEN"
	CodeResourceNotFound    = "RESOURCE_NOT_FOUND"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeDuplicateResource   = "DUPLICATE_RESOURCE"
	CodeStateConflict       = "STATE_CONFLICT"
	CodeUnprocessableEntity = "UNPROCESSABLE_ENTITY"
	CodeTooManyRequests     = "TOO_MANY_REQUESTS"
	CodeInternalServerError = "INTERNAL_SERVER_ERROR"
	CodeDatabaseError       = "DATABASE_ERROR"
	CodeUnknownError        = "UNKNOWN_ERROR"
)

// DefaultCode 返回某个 HTTP 状态的默认错误码
func DefaultCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeResourceNotFound
	case http.StatusConflict:
		return CodeStateConflict
	case http.StatusUnprocessableEntity:
		return CodeUnprocessableEntity
	case http.StatusTooManyRequests:
		return CodeTooManyRequests
	case http.StatusInternalServerError:
		return CodeInternalServerError
	}
	if status >= 200 && status < 300 {
		return CodeSuccess
	}
	return CodeUnknownError
}

// Error is a business error that already knows how it should be rendered.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *Error) WithError(err error) *Error {
	e.Err = err
	return e
}

// New 构造；code 为空时按 status 取默认
func New(status int, code, message string) *Error {
	if code == "" {
		code = DefaultCode(status)
	}
	return &Error{Status: status, Code: code, Message: message}
}

func BadRequest(msg string) *Error {
	return New(http.StatusBadRequest, CodeBadRequest, msg)
}

func InvalidQueryParam(msg string) *Error {
	return New(http.StatusBadRequest, CodeInvalidQueryParam, msg)
}

func Validation(msg string, fields map[string]string) *Error {
	e := New(http.StatusUnprocessableEntity, CodeValidationFailed, msg)
	for k, v := range fields {
		e.WithDetail(k, v)
	}
	return e
}

func Unauthorized(msg string) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, msg)
}

func TokenExpired(msg string) *Error {
	return New(http.StatusUnauthorized, CodeTokenExpired, msg)
}

func Forbidden(msg string) *Error {
	return New(http.StatusForbidden, CodeForbidden, msg)
}

func NotFound(msg string) *Error {
	return New(http.StatusNotFound, CodeResourceNotFound, msg)
}

func UserNotFound(msg string) *Error {
	return New(http.StatusNotFound, CodeUserNotFound, msg)
}

func Duplicate(msg string) *Error {
	return New(http.StatusConflict, CodeDuplicateResource, msg)
}

func Conflict(msg string) *Error {
	return New(http.StatusConflict, CodeStateConflict, msg)
}

func TooManyRequests(msg string) *Error {
	return New(http.StatusTooManyRequests, CodeTooManyRequests, msg)
}

func Internal(msg string, err error) *Error {
	return New(http.StatusInternalServerError, CodeInternalServerError, msg).WithError(err)
}

func Database(err error) *Error {
	return New(http.StatusInternalServerError, CodeDatabaseError, "database error").WithError(err)
}

// Upstream 外部服务（元数据提供方）异常
func Upstream(msg string, err error) *Error {
	return New(http.StatusBadGateway, CodeUnknownError, msg).WithError(err)
}

// As 从错误链中取出 *Error
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
