package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the standard API response envelope
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo carries error details in the response envelope
type ErrorInfo struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// SuccessResponse sends a successful response with data
func SuccessResponse(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Data:    data,
	})
}

// ErrorResponse sends an error response with the given status and message
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Error: &ErrorInfo{
			Message: message,
		},
	})
}

// ErrorResponseWithCode sends an error response carrying a machine-readable
// error code alongside the message.
func ErrorResponseWithCode(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}

// AppErrorResponse sends an error response from an AppError
func AppErrorResponse(c *gin.Context, err *AppError) {
	c.JSON(err.Code, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    err.ErrorCode,
			Message: err.Message,
		},
	})
}

// NoRouteHandler returns a handler for unmatched routes
func NoRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ErrorResponse(c, http.StatusNotFound, "route not found")
	}
}

// NoMethodHandler returns a handler for unsupported methods
func NoMethodHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ErrorResponse(c, http.StatusMethodNotAllowed, "method not allowed")
	}
}
