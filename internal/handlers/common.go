package handlers

import (
	"net/http"
	"strconv"

	"github.com/aptitude-pro/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the error payload for every failed request
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps successful payloads
type SuccessResponse struct {
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
}

// BaseHandler carries the pieces shared by all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs an incoming request with the request-scoped logger
func (h BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Info(msg, args...)
}

// parseIDParam parses a uint path parameter, writing the error response
// itself. A zero return means the response has already been sent.
func (h BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	value := c.Param(param)
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param + " parameter",
			Details: value,
		})
		return 0
	}
	return uint(id)
}

// parsePagination reads page/size query parameters into limit and offset
func (h BaseHandler) parsePagination(c *gin.Context) (limit, offset int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil || size < 1 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}
