package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aptitude-pro/quiz-service/internal/models"
	"github.com/aptitude-pro/quiz-service/internal/repositories"
	"github.com/aptitude-pro/quiz-service/internal/services"
	"github.com/aptitude-pro/quiz-service/internal/storage"
	"github.com/aptitude-pro/quiz-service/internal/utils"
	"github.com/aptitude-pro/quiz-service/internal/validator"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	validator      *validator.Validator
	maxUploadSize  int64
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	validator *validator.Validator,
	logger utils.Logger,
	maxUploadSize int64,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		validator:      validator,
		maxUploadSize:  maxUploadSize,
	}
}

// StartAttempt opens a question for the calling student
// @Summary Start attempt
// @Description Opens a question, starting its timer. Idempotent for repeated calls
// @Tags attempts
// @Accept json
// @Produce json
// @Param attempt body services.StartAttemptRequest true "Start attempt data"
// @Success 201 {object} services.AttemptResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/start [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	h.LogRequest(c, "Starting question attempt")

	var req services.StartAttemptRequest
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

	attempt, err := h.attemptService.Start(c.Request.Context(), &req, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attempt)
}

// SubmitAnswer submits the single answer for a question. Accepts either a
// JSON body or a multipart form carrying a file upload.
// @Summary Submit answer
// @Description Submits the answer for a question. Multipart requests may attach a file
// @Tags attempts
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Param answer body services.SubmitAnswerRequest true "Answer data"
// @Success 201 {object} services.AnswerResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /attempts/submit [post]
func (h *AttemptHandler) SubmitAnswer(c *gin.Context) {
	h.LogRequest(c, "Submitting answer")

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	var req services.SubmitAnswerRequest
	var file *services.SubmittedFile

	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/form-data") {
		questionID, err := strconv.ParseUint(c.PostForm("question_id"), 10, 32)
		if err != nil || questionID == 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid question_id form field",
			})
			return
		}
		req.QuestionID = uint(questionID)

		if option := c.PostForm("selected_option"); option != "" {
			symbol := models.OptionSymbol(option)
			req.SelectedOption = &symbol
		}

		fileHeader, err := c.FormFile("file")
		if err == nil && fileHeader != nil {
			if fileHeader.Size > h.maxUploadSize {
				c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
					Message: "Uploaded file is too large",
				})
				return
			}
			opened, err := fileHeader.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, ErrorResponse{
					Message: "Failed to read uploaded file",
					Details: err.Error(),
				})
				return
			}
			defer opened.Close()

			file = &services.SubmittedFile{
				Name:   fileHeader.Filename,
				Reader: opened,
			}
			req.FileName = &fileHeader.Filename
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid request payload",
				Details: err.Error(),
			})
			return
		}
	}

	if err := h.validator.Validate(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
		return
	}

	answer, err := h.attemptService.Submit(c.Request.Context(), &req, userID.(string), file)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, answer)
}

// GetAttempt returns the caller's attempt on a question
// @Summary Get attempt
// @Tags attempts
// @Produce json
// @Param questionId path uint true "Question ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/questions/{questionId} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	questionID := h.parseIDParam(c, "questionId")
	if questionID == 0 {
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	attempt, err := h.attemptService.GetAttempt(c.Request.Context(), questionID, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// GetAnswer returns the caller's submitted answer on a question
// @Summary Get answer
// @Tags attempts
// @Produce json
// @Param questionId path uint true "Question ID"
// @Success 200 {object} services.AnswerResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/questions/{questionId}/answer [get]
func (h *AttemptHandler) GetAnswer(c *gin.Context) {
	questionID := h.parseIDParam(c, "questionId")
	if questionID == 0 {
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	answer, err := h.attemptService.GetAnswer(c.Request.Context(), questionID, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, answer)
}

// ListAnswers lists submissions for a question. Students only ever see
// their own; admins see everyone's.
// @Summary List answers
// @Tags attempts
// @Produce json
// @Param questionId path uint true "Question ID"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} services.AnswerListResponse
// @Router /attempts/questions/{questionId}/answers [get]
func (h *AttemptHandler) ListAnswers(c *gin.Context) {
	questionID := h.parseIDParam(c, "questionId")
	if questionID == 0 {
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	limit, offset := h.parsePagination(c)
	filters := repositories.AnswerFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.DefaultQuery("sort_by", "submitted_at"),
		SortOrder: c.DefaultQuery("sort_order", "asc"),
	}
	if correct := c.Query("is_correct"); correct != "" {
		if b, err := strconv.ParseBool(correct); err == nil {
			filters.IsCorrect = &b
		}
	}
	if expired := c.Query("is_expired"); expired != "" {
		if b, err := strconv.ParseBool(expired); err == nil {
			filters.IsExpired = &b
		}
	}

	answers, err := h.attemptService.ListAnswers(c.Request.Context(), questionID, filters, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, answers)
}

// GetTimeRemaining reports seconds left on the caller's running attempt
// @Summary Time remaining
// @Description Returns seconds until the deadline, 0 once expired, -1 when unlimited
// @Tags attempts
// @Produce json
// @Param questionId path uint true "Question ID"
// @Success 200 {object} map[string]int64
// @Failure 404 {object} ErrorResponse
// @Router /attempts/questions/{questionId}/time-remaining [get]
func (h *AttemptHandler) GetTimeRemaining(c *gin.Context) {
	questionID := h.parseIDParam(c, "questionId")
	if questionID == 0 {
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	remaining, err := h.attemptService.TimeRemaining(c.Request.Context(), questionID, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"time_remaining": remaining})
}

// GetState reports the caller's lifecycle state on a question
// @Summary Attempt state
// @Tags attempts
// @Produce json
// @Param questionId path uint true "Question ID"
// @Success 200 {object} map[string]string
// @Router /attempts/questions/{questionId}/state [get]
func (h *AttemptHandler) GetState(c *gin.Context) {
	questionID := h.parseIDParam(c, "questionId")
	if questionID == 0 {
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	state, err := h.attemptService.GetState(c.Request.Context(), questionID, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": state})
}

// GetProgress returns the caller's cumulative progress
// @Summary Student progress
// @Tags attempts
// @Produce json
// @Success 200 {object} repositories.StudentProgress
// @Router /attempts/progress [get]
func (h *AttemptHandler) GetProgress(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	progress, err := h.attemptService.GetStudentProgress(c.Request.Context(), userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

func (h *AttemptHandler) handleServiceError(c *gin.Context, err error) {
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
	case errors.Is(err, services.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Question not found",
		})
	case errors.Is(err, services.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Attempt not found",
		})
	case errors.Is(err, services.ErrAnswerNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Answer not found",
		})
	case errors.Is(err, services.ErrAttemptNotStarted):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Question has not been started",
		})
	case errors.Is(err, services.ErrAnswerAlreadySubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Answer already submitted for this question",
		})
	case errors.Is(err, services.ErrFileNotAllowed), errors.Is(err, storage.ErrDisallowedExtension):
		c.JSON(http.StatusUnsupportedMediaType, ErrorResponse{
			Message: "File type is not allowed",
		})
	default:
		h.logger.Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
