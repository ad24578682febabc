package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aptitude-pro/quiz-service/internal/repositories"
	"github.com/aptitude-pro/quiz-service/internal/services"
	"github.com/aptitude-pro/quiz-service/internal/utils"
	"github.com/aptitude-pro/quiz-service/internal/validator"
)

type RosterHandler struct {
	BaseHandler
	rosterService services.RosterService
	validator     *validator.Validator
}

func NewRosterHandler(
	rosterService services.RosterService,
	validator *validator.Validator,
	logger utils.Logger,
) *RosterHandler {
	return &RosterHandler{
		BaseHandler:   NewBaseHandler(logger),
		rosterService: rosterService,
		validator:     validator,
	}
}

// EnrollStudent adds a student to the classroom roster
// @Summary Enroll student
// @Tags roster
// @Accept json
// @Produce json
// @Param enrollment body services.EnrollRequest true "Enrollment data"
// @Success 201 {object} services.RosterMemberResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /roster [post]
func (h *RosterHandler) EnrollStudent(c *gin.Context) {
	h.LogRequest(c, "Enrolling student")

	var req services.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
		return
	}

	adminID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	member, err := h.rosterService.Enroll(c.Request.Context(), &req, adminID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, member)
}

// RemoveStudent removes a student from the roster
// @Summary Remove student
// @Tags roster
// @Param userId path string true "Student user ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /roster/{userId} [delete]
func (h *RosterHandler) RemoveStudent(c *gin.Context) {
	targetID := c.Param("userId")
	if targetID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing userId parameter",
		})
		return
	}

	h.LogRequest(c, "Removing student", "target_user_id", targetID)

	adminID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	if err := h.rosterService.Remove(c.Request.Context(), targetID, adminID.(string)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListRoster lists enrolled students, optionally with progress
// @Summary List roster
// @Tags roster
// @Produce json
// @Param query query string false "Name or email search"
// @Param include_progress query bool false "Attach per-student progress"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} services.RosterResponse
// @Router /roster [get]
func (h *RosterHandler) ListRoster(c *gin.Context) {
	limit, offset := h.parsePagination(c)
	filters := repositories.UserFilters{
		Query:  c.Query("query"),
		Limit:  limit,
		Offset: offset,
	}
	includeProgress, _ := strconv.ParseBool(c.DefaultQuery("include_progress", "false"))

	roster, err := h.rosterService.List(c.Request.Context(), filters, includeProgress)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, roster)
}

// GetRosterStats returns enrollment statistics
// @Summary Roster statistics
// @Tags roster
// @Produce json
// @Success 200 {object} repositories.RosterStats
// @Router /roster/stats [get]
func (h *RosterHandler) GetRosterStats(c *gin.Context) {
	stats, err := h.rosterService.GetStats(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// UpdateRosterConfig changes the enrollment cap
// @Summary Update roster config
// @Tags roster
// @Accept json
// @Produce json
// @Param config body services.RosterConfigRequest true "Config data"
// @Success 200 {object} models.RosterConfig
// @Failure 400 {object} ErrorResponse
// @Router /roster/config [put]
func (h *RosterHandler) UpdateRosterConfig(c *gin.Context) {
	h.LogRequest(c, "Updating roster config")

	var req services.RosterConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
		return
	}

	adminID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	config, err := h.rosterService.UpdateConfig(c.Request.Context(), &req, adminID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, config)
}

func (h *RosterHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":  businessRuleError.Rule,
				"value": businessRuleError.Value,
			},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "User not found",
		})
	case errors.Is(err, services.ErrMemberNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Roster member not found",
		})
	case errors.Is(err, services.ErrAlreadyEnrolled):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Student is already enrolled",
		})
	case errors.Is(err, services.ErrRosterFull):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Classroom roster is full",
		})
	default:
		h.logger.Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
