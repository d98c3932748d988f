package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"expense-manager/config"
	"expense-manager/service"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageResponse 分页响应结构
type PageResponse struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	List     interface{} `json:"list"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 带消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Message: message,
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 400 错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized 401 错误响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// Forbidden 403 错误响应
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message)
}

// InternalError 500 错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// NotFound 404 错误响应
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// SafeErrorMessage 生产环境下不向客户端暴露内部错误详情
func SafeErrorMessage(err error, fallback string) string {
	return config.SafeErrorMessage(err, fallback)
}

// RespondError maps a service error kind onto an HTTP status
func RespondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		BadRequest(c, service.Message(err, "invalid request"))
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, service.Message(err, "not found"))
	case errors.Is(err, service.ErrForbidden):
		Forbidden(c, service.Message(err, "forbidden"))
	case errors.Is(err, service.ErrAuth):
		Unauthorized(c, service.Message(err, "authentication failed"))
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		InternalError(c, SafeErrorMessage(err, "internal server error"))
	}
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// parseDate accepts YYYY-MM-DD or RFC 3339 and returns a UTC time
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// parseRange reads optional start_date and end_date query params.
// end_date is inclusive, the returned upper bound is exclusive.
func parseRange(c *gin.Context) (from, to *time.Time, ok bool) {
	if s := c.Query("start_date"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			BadRequest(c, "start_date must be YYYY-MM-DD")
			return nil, nil, false
		}
		from = &t
	}
	if s := c.Query("end_date"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			BadRequest(c, "end_date must be YYYY-MM-DD")
			return nil, nil, false
		}
		t = t.AddDate(0, 0, 1)
		to = &t
	}
	if from != nil && to != nil && !from.Before(*to) {
		BadRequest(c, "start_date must not be after end_date")
		return nil, nil, false
	}
	return from, to, true
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
