package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aptitude-pro/quiz-service/internal/config"
	"github.com/aptitude-pro/quiz-service/internal/models"
	"github.com/aptitude-pro/quiz-service/internal/repositories"
	"github.com/aptitude-pro/quiz-service/internal/services"
	"github.com/aptitude-pro/quiz-service/internal/utils"
	"github.com/aptitude-pro/quiz-service/internal/validator"
)

type HandlerManager struct {
	questionHandler  *QuestionHandler
	attemptHandler   *AttemptHandler
	classroomHandler *ClassroomHandler
	rosterHandler    *RosterHandler
	exportHandler    *ExportHandler
	authMiddleware   *CasdoorAuthMiddleware
	serviceManager   services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
	maxUploadSize int64,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		questionHandler:  NewQuestionHandler(serviceManager.Question(), validator, logger),
		attemptHandler:   NewAttemptHandler(serviceManager.Attempt(), validator, logger, maxUploadSize),
		classroomHandler: NewClassroomHandler(serviceManager.Classroom(), validator, logger),
		rosterHandler:    NewRosterHandler(serviceManager.Roster(), validator, logger),
		exportHandler:    NewExportHandler(serviceManager.Export(), logger),
		authMiddleware:   authMiddleware,
		serviceManager:   serviceManager,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint, no auth
	router.GET("/health", hm.HealthCheck)

	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware()) // Apply authentication to all API routes
	{
		// Question routes
		questions := v1.Group("/questions")
		{
			// Create/modify questions - Admins only
			questions.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.questionHandler.CreateQuestion)
			questions.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.questionHandler.UpdateQuestion)
			questions.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.questionHandler.DeleteQuestion)

			// Admin listing with filters
			questions.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.questionHandler.ListQuestions)
			questions.GET("/:id/stats", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.questionHandler.GetQuestionStats)

			// View questions - All authenticated users, role-filtered fields
			questions.GET("/board", hm.questionHandler.GetBoard)
			questions.GET("/:id", hm.questionHandler.GetQuestion)
		}

		// Attempt routes - students answer through these
		attempts := v1.Group("/attempts")
		{
			attempts.POST("/start", hm.attemptHandler.StartAttempt)
			attempts.POST("/submit", hm.attemptHandler.SubmitAnswer)
			attempts.GET("/progress", hm.attemptHandler.GetProgress)
			attempts.GET("/questions/:questionId", hm.attemptHandler.GetAttempt)
			attempts.GET("/questions/:questionId/answer", hm.attemptHandler.GetAnswer)
			attempts.GET("/questions/:questionId/answers", hm.attemptHandler.ListAnswers)
			attempts.GET("/questions/:questionId/time-remaining", hm.attemptHandler.GetTimeRemaining)
			attempts.GET("/questions/:questionId/state", hm.attemptHandler.GetState)
		}

		// Classroom routes
		classroom := v1.Group("/classroom")
		{
			classroom.GET("", hm.classroomHandler.GetClassroom)
			classroom.PUT("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.classroomHandler.UpdateClassroom)

			// Meet link library - Admins only
			classroom.POST("/meet-links", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.classroomHandler.CreateMeetLink)
			classroom.GET("/meet-links", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.classroomHandler.ListMeetLinks)
			classroom.PUT("/meet-links/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.classroomHandler.UpdateMeetLink)
			classroom.DELETE("/meet-links/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.classroomHandler.DeleteMeetLink)
			classroom.POST("/meet-links/:id/activate", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.classroomHandler.ActivateMeetLink)
		}

		// Roster routes - Admins only
		roster := v1.Group("/roster")
		roster.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			roster.POST("", hm.rosterHandler.EnrollStudent)
			roster.GET("", hm.rosterHandler.ListRoster)
			roster.GET("/stats", hm.rosterHandler.GetRosterStats)
			roster.PUT("/config", hm.rosterHandler.UpdateRosterConfig)
			roster.DELETE("/:userId", hm.rosterHandler.RemoveStudent)
		}

		// Export routes - Admins only
		exports := v1.Group("/exports")
		exports.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			exports.GET("/questions/:id", hm.exportHandler.ExportQuestionAnswers)
			exports.GET("/results", hm.exportHandler.ExportResults)
		}
	}
}

// HealthCheck reports service and dependency health
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "quiz-service",
	})
}
