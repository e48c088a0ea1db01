package ez

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"movie-catalog/pkg/apperr"
)

var validatorOnce sync.Once

// setupValidator 字段名用 json/form tag，额外注册 notblank
func setupValidator() {
	validatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
		_ = v.RegisterValidation("notblank", validators.NotBlank)
	})
}

func bind(c *gin.Context, b Binder, in any) error {
	switch b {
	case BindJSON:
		if err := c.ShouldBindJSON(in); err != nil {
			return bodyError(err)
		}
	case BindQuery:
		if err := c.ShouldBindQuery(in); err != nil {
			return queryError(err)
		}
		if _, ok := in.(pager); ok {
			return checkPaging(c)
		}
	}
	return nil
}

// pager 嵌入了 domain.PageQuery 的查询参数
type pager interface{ Offset() int }

// checkPaging omitempty 会放过显式的 page=0，这里补上
func checkPaging(c *gin.Context) error {
	for _, k := range []string{"page", "size"} {
		raw, ok := c.GetQuery(k)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(raw); err != nil || n < 1 {
			return apperr.InvalidQueryParam("invalid query parameter").WithDetail(k, "must be greater than or equal to 1")
		}
	}
	return nil
}

func bodyError(err error) error {
	var (
		ve  validator.ValidationErrors
		mbe *http.MaxBytesError
		ute *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &ve):
		return apperr.Validation("invalid input", fieldErrors(ve))
	case errors.As(err, &mbe):
		return apperr.New(http.StatusRequestEntityTooLarge, apperr.CodeBadRequest, "request body too large")
	case errors.As(err, &ute):
		return apperr.BadRequest("malformed JSON body").WithDetail(ute.Field, "must be "+ute.Type.String())
	case errors.Is(err, io.EOF):
		return apperr.BadRequest("request body is required")
	default:
		return apperr.BadRequest("malformed JSON body").WithError(err)
	}
}

func queryError(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		e := apperr.InvalidQueryParam("invalid query parameter")
		for k, v := range fieldErrors(ve) {
			e.WithDetail(k, v)
		}
		return e
	}
	return apperr.InvalidQueryParam("invalid query parameter").WithDetail("error", err.Error())
}

// fieldErrors 汇总全部字段错误，不在第一个失败处停下
func fieldErrors(ve validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required", "notblank":
		return "must not be blank"
	case "email":
		return "must be a well-formed email address"
	case "min", "gte":
		if isString {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "max", "lte":
		if isString {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "datetime":
		return fmt.Sprintf("must match %s", fe.Param())
	}
	return "is invalid"
}
