package ez

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"movie-catalog/internal/domain"
	mdw "movie-catalog/internal/transport/http/middleware"
	resp "movie-catalog/internal/transport/http/response"
	"movie-catalog/pkg/apperr"
)

/* ================== 轻封装 ================== */

type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, log *zap.Logger) EZ {
	setupValidator()
	if log == nil {
		log = zap.NewNop()
	}
	return EZ{g: g, log: log}
}

// Group 子分组，可附带中间件（鉴权/角色）
func (e EZ) Group(path string, mws ...gin.HandlerFunc) EZ {
	return EZ{g: e.g.Group(path, mws...), log: e.log}
}

/* ================== Action（一行注册） ================== */

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON body 绑定，校验失败 422
	BindQuery Binder = "query" // 从 URL ?a=b 绑定，校验失败 400
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string        // "GET" | "POST" | "PUT" | "PATCH" | "DELETE"
	Path    string        // 例："/auth/login"、"/reviews/:id/likes"
	Binder  Binder        // 绑定方式
	Auth    bool          // 是否要求登录（检查 userId）
	Roles   []domain.Role // 限定角色（可选）
	Status  int           // 成功状态码，默认 200
	Handler func(c *gin.Context, in *I) (O, error)
}

// RegisterAction 在当前 EZ 下注册动作接口
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := func(c *gin.Context) {
		// 1) 鉴权/角色
		if a.Auth && mdw.UserID(c) == 0 {
			e.Fail(c, apperr.Unauthorized("authentication required"))
			return
		}
		if len(a.Roles) > 0 && !mdw.HasRole(c, a.Roles...) {
			e.Fail(c, apperr.Forbidden("insufficient role"))
			return
		}

		// 2) 绑定入参
		var in I
		if err := bind(c, a.Binder, &in); err != nil {
			e.Fail(c, err)
			return
		}

		// 3) 执行
		out, err := a.Handler(c, &in)
		if err != nil {
			e.Fail(c, err)
			return
		}
		resp.Success(c, status, out)
	}

	method := strings.ToUpper(a.Method)
	if method == "" {
		method = http.MethodPost
	}
	e.g.Handle(method, a.Path, h)
}

// Fail 统一错误映射；5xx 记日志且不向客户端暴露内部信息
func (e EZ) Fail(c *gin.Context, err error) {
	ae, ok := apperr.As(err)
	if !ok {
		ae = apperr.Internal("internal server error", err)
	}
	if ae.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
		e.log.Error("request failed",
			zap.String("rid", mdw.RequestIDOf(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("code", ae.Code),
			zap.Error(err),
		)
		ae = sanitize(ae)
	}
	resp.Fail(c, ae)
}

func sanitize(ae *apperr.Error) *apperr.Error {
	out := *ae
	out.Err = nil
	switch ae.Code {
	case apperr.CodeInternalServerError:
		out.Message = "internal server error"
	case apperr.CodeDatabaseError:
		out.Message = "database error"
	}
	return &out
}

// PathID 解析正整数路径参数
func PathID(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidQueryParam(name+" must be a positive integer").WithDetail(name, raw)
	}
	return id, nil
}
