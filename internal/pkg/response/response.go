package response

import (
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
)

// Error is the envelope every failed request carries.
type Error struct {
	OK      int    `json:"ok"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Error{OK: 0, Code: status, Message: message})
}

// OK sends a 200 response. Arrays/slices are wrapped in {data: [...]}.
func OK(c *gin.Context, data interface{}) {
	if data != nil {
		v := reflect.ValueOf(data)
		if v.Kind() == reflect.Slice {
			c.JSON(http.StatusOK, gin.H{"data": data})
			return
		}
	}
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends a 400 error response.
func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, message)
}

// Unauthorized sends a 401 error response.
func Unauthorized(c *gin.Context) {
	abort(c, http.StatusUnauthorized, "authentication required")
}

// Forbidden sends a 403 error response.
func Forbidden(c *gin.Context) {
	abort(c, http.StatusForbidden, "forbidden")
}

// NotFound sends a 404 error response.
func NotFound(c *gin.Context) {
	abort(c, http.StatusNotFound, "not found")
}

// NotFoundMsg sends a 404 error with a custom message.
func NotFoundMsg(c *gin.Context, message string) {
	abort(c, http.StatusNotFound, message)
}

func MethodNotAllowed(c *gin.Context) {
	abort(c, http.StatusMethodNotAllowed, "method not allowed")
}

// Conflict sends a 409 error response.
func Conflict(c *gin.Context, message string) {
	abort(c, http.StatusConflict, message)
}

// PayloadTooLarge sends a 413 error response.
func PayloadTooLarge(c *gin.Context, message string) {
	abort(c, http.StatusRequestEntityTooLarge, message)
}

// UnprocessableEntity sends a 422 error response.
func UnprocessableEntity(c *gin.Context, message string) {
	abort(c, http.StatusUnprocessableEntity, message)
}

// TooManyRequests sends a 429 error response.
func TooManyRequests(c *gin.Context) {
	abort(c, http.StatusTooManyRequests, "too many requests, slow down")
}

// InternalError sends a 500 error response.
func InternalError(c *gin.Context, err error) {
	abort(c, http.StatusInternalServerError, err.Error())
}

// BadGateway sends a 502 error response for failed upstream calls.
func BadGateway(c *gin.Context, message string) {
	abort(c, http.StatusBadGateway, message)
}

// ServiceUnavailable sends a 503 error response for unconfigured backends.
func ServiceUnavailable(c *gin.Context, message string) {
	abort(c, http.StatusServiceUnavailable, message)
}
