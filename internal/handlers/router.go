package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/learning-progress-service/internal/repositories"
	"github.com/SAP-F-2025/learning-progress-service/internal/services"
	"github.com/SAP-F-2025/learning-progress-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	courseHandler   *CourseHandler
	quizHandler     *QuizHandler
	progressHandler *ProgressHandler
	repo            repositories.Repository
}

func NewHandlerManager(
	curriculumService services.CurriculumService,
	quizService services.QuizService,
	progressService services.ProgressService,
	importService services.ImportService,
	repo repositories.Repository,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		courseHandler:   NewCourseHandler(curriculumService, importService, logger),
		quizHandler:     NewQuizHandler(quizService, logger),
		progressHandler: NewProgressHandler(progressService, logger),
		repo:            repo,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(IdentityMiddleware())
	{
		// Course routes
		courses := v1.Group("/courses")
		{
			courses.POST("", hm.courseHandler.CreateCourse)
			courses.GET("", hm.courseHandler.ListCourses)
			courses.GET("/:id", hm.courseHandler.GetCourse)
			courses.PUT("/:id", hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", hm.courseHandler.DeleteCourse)

			courses.POST("/:id/modules", hm.courseHandler.AddModule)

			courses.POST("/:id/enroll", hm.progressHandler.Enroll)
			courses.GET("/:id/progress", hm.progressHandler.GetCourseProgress)
		}

		// Module routes
		modules := v1.Group("/modules")
		{
			modules.PUT("/:id/position", hm.courseHandler.MoveModule)
			modules.DELETE("/:id", hm.courseHandler.DeleteModule)
			modules.POST("/:id/lessons", hm.courseHandler.AddLesson)
		}

		// Lesson routes
		lessons := v1.Group("/lessons")
		{
			lessons.PUT("/:id/position", hm.courseHandler.MoveLesson)
			lessons.DELETE("/:id", hm.courseHandler.DeleteLesson)

			lessons.POST("/:id/questions", hm.courseHandler.AddQuestion)
			lessons.POST("/:id/questions/import", hm.courseHandler.ImportQuestions)
			lessons.GET("/:id/results/export", hm.courseHandler.ExportResults)

			lessons.POST("/:id/start", hm.progressHandler.StartLesson)
			lessons.POST("/:id/complete", hm.progressHandler.CompleteLesson)
			lessons.POST("/:id/uncomplete", hm.progressHandler.UncompleteLesson)

			lessons.POST("/:id/submit", hm.quizHandler.SubmitQuiz)
			lessons.GET("/:id/attempts", hm.quizHandler.GetAttemptHistory)
		}

		// Question routes
		questions := v1.Group("/questions")
		{
			questions.PUT("/:id/position", hm.courseHandler.MoveQuestion)
			questions.DELETE("/:id", hm.courseHandler.DeleteQuestion)
			questions.POST("/:id/options", hm.courseHandler.AddOption)
		}

		// Option routes
		options := v1.Group("/options")
		{
			options.PUT("/:id", hm.courseHandler.UpdateOption)
			options.DELETE("/:id", hm.courseHandler.DeleteOption)
		}

		// Attempt routes
		attempts := v1.Group("/attempts")
		{
			attempts.GET("/:id", hm.quizHandler.GetAttempt)
		}

		// Enrollment routes
		enrollments := v1.Group("/enrollments")
		{
			enrollments.PUT("/:id/status", hm.progressHandler.OverrideEnrollmentStatus)
		}
	}
}

// HealthCheck reports liveness plus database reachability
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	if err := hm.repo.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "learning-progress-service",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "learning-progress-service",
	})
}
