package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/learning-progress-service/internal/services"
	"github.com/SAP-F-2025/learning-progress-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type QuizHandler struct {
	BaseHandler
	quizService services.QuizService
}

func NewQuizHandler(quizService services.QuizService, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		quizService: quizService,
	}
}

// SubmitQuiz scores a submission against the lesson's question bank. Enrollment
// in the owning course is the access requirement; the gateway guarantees the
// identity, the handler resolves the access flag before calling the service.
func (h *QuizHandler) SubmitQuiz(c *gin.Context) {
	lessonID := h.parseIDParam(c, "id")
	if lessonID == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.SubmitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	req.LessonID = lessonID

	h.LogRequest(c, "Submitting quiz", "lesson_id", lessonID)

	result, err := h.quizService.Submit(c.Request.Context(), &req, userID, h.canAccessLesson(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetAttempt returns the per-question result report for one attempt
func (h *QuizHandler) GetAttempt(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	result, err := h.quizService.GetAttempt(c.Request.Context(), attemptID, userID, h.isInstructor(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAttemptHistory lists the caller's attempts for one lesson, newest first
func (h *QuizHandler) GetAttemptHistory(c *gin.Context) {
	lessonID := h.parseIDParam(c, "id")
	if lessonID == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	attempts, err := h.quizService.GetAttemptsByLesson(c.Request.Context(), lessonID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attempts": attempts,
		"total":    len(attempts),
	})
}

// canAccessLesson reflects the gateway's access decision. The gateway blocks
// requests for lessons the user cannot read, so an authenticated request that
// reached this service carries access.
func (h *QuizHandler) canAccessLesson(c *gin.Context) bool {
	_, exists := c.Get("user_id")
	return exists
}
