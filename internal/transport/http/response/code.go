package response

import "movie-catalog/pkg/apperr"

// CodeMsgMap 各错误码的默认提示语
var CodeMsgMap = map[string]string{
	apperr.CodeSuccess:             "OK",
	apperr.CodeBadRequest:          "Bad Request",
	apperr.CodeValidationFailed:    "Validation Failed",
	apperr.CodeInvalidQueryParam:   "Invalid Query Parameter",
	apperr.CodeUnauthorized:        "Unauthorized",
	apperr.CodeTokenExpired:        "Token Expired",
	apperr.CodeForbidden:           "Forbidden",
	apperr.CodeResourceNotFound:    "Not Found",
	apperr.CodeUserNotFound:        "User Not Found",
	apperr.CodeDuplicateResource:   "Duplicate Resource",
	apperr.CodeStateConflict:       "State Conflict",
	apperr.CodeUnprocessableEntity: "Unprocessable Entity",
	apperr.CodeTooManyRequests:     "Too Many Requests",
	apperr.CodeInternalServerError: "Internal Server Error",
	apperr.CodeDatabaseError:       "Database Error",
	apperr.CodeUnknownError:        "Unknown Error",
}

func messageFor(code, custom string) string {
	if custom != "" {
		return custom
	}
	if m, ok := CodeMsgMap[code]; ok {
		return m
	}
	return code
}
