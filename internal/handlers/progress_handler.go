package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/learning-progress-service/internal/models"
	"github.com/SAP-F-2025/learning-progress-service/internal/services"
	"github.com/SAP-F-2025/learning-progress-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type ProgressHandler struct {
	BaseHandler
	progressService services.ProgressService
}

func NewProgressHandler(progressService services.ProgressService, logger utils.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:     NewBaseHandler(logger),
		progressService: progressService,
	}
}

// OverrideStatusRequest carries an administrative enrollment status override.
type OverrideStatusRequest struct {
	Status string `json:"status"`
}

// Enroll enrolls the caller into a course with status Active
func (h *ProgressHandler) Enroll(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Enrolling in course", "course_id", courseID)

	enrollment, err := h.progressService.Enroll(c.Request.Context(), userID, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, enrollment)
}

// StartLesson records that the caller opened a lesson; repeat calls are no-ops
func (h *ProgressHandler) StartLesson(c *gin.Context) {
	lessonID := h.parseIDParam(c, "id")
	if lessonID == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	progress, err := h.progressService.StartLesson(c.Request.Context(), userID, lessonID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// CompleteLesson marks a lesson completed for the caller and may complete the
// enrollment
func (h *ProgressHandler) CompleteLesson(c *gin.Context) {
	lessonID := h.parseIDParam(c, "id")
	if lessonID == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	progress, err := h.progressService.CompleteLesson(c.Request.Context(), userID, lessonID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// UncompleteLesson reverts a completion; a Completed enrollment goes back to
// Active
func (h *ProgressHandler) UncompleteLesson(c *gin.Context) {
	lessonID := h.parseIDParam(c, "id")
	if lessonID == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	progress, err := h.progressService.UncompleteLesson(c.Request.Context(), userID, lessonID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetCourseProgress returns the caller's progress summary for a course
func (h *ProgressHandler) GetCourseProgress(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	progress, err := h.progressService.GetCourseProgress(c.Request.Context(), userID, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// OverrideEnrollmentStatus sets an enrollment status directly (admin only)
func (h *ProgressHandler) OverrideEnrollmentStatus(c *gin.Context) {
	enrollmentID := h.parseIDParam(c, "id")
	if enrollmentID == 0 {
		return
	}
	actorID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req OverrideStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	status, err := models.ParseEnrollmentStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid enrollment status",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Overriding enrollment status", "enrollment_id", enrollmentID, "status", status)

	enrollment, err := h.progressService.OverrideEnrollmentStatus(c.Request.Context(), enrollmentID, status, actorID, h.isAdmin(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}
