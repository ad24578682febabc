package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aptitude-pro/quiz-service/internal/services"
	"github.com/aptitude-pro/quiz-service/internal/utils"
	"github.com/aptitude-pro/quiz-service/internal/validator"
)

type ClassroomHandler struct {
	BaseHandler
	classroomService services.ClassroomService
	validator        *validator.Validator
}

func NewClassroomHandler(
	classroomService services.ClassroomService,
	validator *validator.Validator,
	logger utils.Logger,
) *ClassroomHandler {
	return &ClassroomHandler{
		BaseHandler:      NewBaseHandler(logger),
		classroomService: classroomService,
		validator:        validator,
	}
}

// GetClassroom returns the classroom state for the caller's role
// @Summary Get classroom
// @Description Returns the classroom. The meet link library is only included for admins
// @Tags classroom
// @Produce json
// @Success 200 {object} services.ClassroomResponse
// @Router /classroom [get]
func (h *ClassroomHandler) GetClassroom(c *gin.Context) {
	user, err := GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	classroom, err := h.classroomService.Get(c.Request.Context(), user.Role)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, classroom)
}

// UpdateClassroom sets the live meet link and live flag
// @Summary Update classroom
// @Tags classroom
// @Accept json
// @Produce json
// @Param classroom body services.ClassroomUpdateRequest true "Classroom state"
// @Success 200 {object} services.ClassroomResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /classroom [put]
func (h *ClassroomHandler) UpdateClassroom(c *gin.Context) {
	h.LogRequest(c, "Updating classroom")

	var req services.ClassroomUpdateRequest
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

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	classroom, err := h.classroomService.Update(c.Request.Context(), &req, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, classroom)
}

// CreateMeetLink saves a meet link into the library
// @Summary Create meet link
// @Tags classroom
// @Accept json
// @Produce json
// @Param link body services.MeetLinkCreateRequest true "Link data"
// @Success 201 {object} models.MeetLink
// @Failure 400 {object} ErrorResponse
// @Router /classroom/meet-links [post]
func (h *ClassroomHandler) CreateMeetLink(c *gin.Context) {
	h.LogRequest(c, "Creating meet link")

	var req services.MeetLinkCreateRequest
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

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	link, err := h.classroomService.CreateMeetLink(c.Request.Context(), &req, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, link)
}

// UpdateMeetLink edits a library entry
// @Summary Update meet link
// @Tags classroom
// @Accept json
// @Produce json
// @Param id path uint true "Link ID"
// @Param link body services.MeetLinkUpdateRequest true "Fields to update"
// @Success 200 {object} models.MeetLink
// @Failure 404 {object} ErrorResponse
// @Router /classroom/meet-links/{id} [put]
func (h *ClassroomHandler) UpdateMeetLink(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.MeetLinkUpdateRequest
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

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	link, err := h.classroomService.UpdateMeetLink(c.Request.Context(), id, &req, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, link)
}

// DeleteMeetLink removes a library entry
// @Summary Delete meet link
// @Tags classroom
// @Param id path uint true "Link ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /classroom/meet-links/{id} [delete]
func (h *ClassroomHandler) DeleteMeetLink(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	if err := h.classroomService.DeleteMeetLink(c.Request.Context(), id, userID.(string)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListMeetLinks lists the link library
// @Summary List meet links
// @Tags classroom
// @Produce json
// @Param active_only query bool false "Only active links"
// @Success 200 {array} models.MeetLink
// @Router /classroom/meet-links [get]
func (h *ClassroomHandler) ListMeetLinks(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active_only", "false"))

	links, err := h.classroomService.ListMeetLinks(c.Request.Context(), activeOnly)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, links)
}

// ActivateMeetLink makes a library entry the live classroom link
// @Summary Activate meet link
// @Tags classroom
// @Produce json
// @Param id path uint true "Link ID"
// @Success 200 {object} services.ClassroomResponse
// @Failure 404 {object} ErrorResponse
// @Router /classroom/meet-links/{id}/activate [post]
func (h *ClassroomHandler) ActivateMeetLink(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Activating meet link", "link_id", id)

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	classroom, err := h.classroomService.ActivateMeetLink(c.Request.Context(), id, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, classroom)
}

func (h *ClassroomHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
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
	case errors.Is(err, services.ErrMeetLinkNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Meet link not found",
		})
	case errors.Is(err, services.ErrInvalidMeetLink):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Meet link must be a Google Meet URL",
		})
	default:
		h.logger.Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
