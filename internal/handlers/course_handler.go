package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/learning-progress-service/internal/repositories"
	"github.com/SAP-F-2025/learning-progress-service/internal/services"
	"github.com/SAP-F-2025/learning-progress-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type CourseHandler struct {
	BaseHandler
	curriculumService services.CurriculumService
	importService     services.ImportService
}

func NewCourseHandler(
	curriculumService services.CurriculumService,
	importService services.ImportService,
	logger utils.Logger,
) *CourseHandler {
	return &CourseHandler{
		BaseHandler:       NewBaseHandler(logger),
		curriculumService: curriculumService,
		importService:     importService,
	}
}

// MoveRequest repositions one sibling inside its ordered group.
type MoveRequest struct {
	OrderIndex int `json:"order_index"`
}

// ===== COURSES =====

// CreateCourse creates a new course owned by the caller
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	h.LogRequest(c, "Creating course")

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	if !h.isInstructor(c) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Only instructors can create courses",
		})
		return
	}

	var req services.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	course, err := h.curriculumService.CreateCourse(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, course)
}

// GetCourse retrieves a course with its ordered modules and lessons
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	course, err := h.curriculumService.GetCourse(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// ListCourses returns a filtered page of courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 20)

	filters := repositories.CourseFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
	if creatorIDStr := c.Query("creator_id"); creatorIDStr != "" {
		if creatorID := h.parseIntQuery(c, "creator_id", 0); creatorID > 0 {
			id := uint(creatorID)
			filters.CreatedBy = &id
		}
	}
	if publishedStr := c.Query("published"); publishedStr != "" {
		published := publishedStr == "true"
		filters.IsPublished = &published
	}

	courses, total, err := h.curriculumService.ListCourses(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"courses": courses,
		"total":   total,
		"page":    page,
		"size":    size,
	})
}

// UpdateCourse updates course metadata
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	course, err := h.curriculumService.UpdateCourse(c.Request.Context(), id, &req, userID, h.isAdmin(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// DeleteCourse soft-deletes a course
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.curriculumService.DeleteCourse(c.Request.Context(), id, userID, h.isAdmin(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Course deleted"})
}

// ===== MODULES =====

// AddModule appends a module at the end of the course's module order
func (h *CourseHandler) AddModule(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.AddModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	req.CourseID = courseID

	module, err := h.curriculumService.AddModule(c.Request.Context(), &req, userID, h.isAdmin(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, module)
}

// MoveModule repositions a module within its course
func (h *CourseHandler) MoveModule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.curriculumService.MoveModule(c.Request.Context(), id, req.OrderIndex, userID, h.isAdmin(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Module moved"})
}

// DeleteModule removes a module and compacts the remaining order
func (h *CourseHandler) DeleteModule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.curriculumService.DeleteModule(c.Request.Context(), id, userID, h.isAdmin(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Module deleted"})
}

// ===== LESSONS =====

// AddLesson appends a lesson at the end of the module's lesson order
func (h *CourseHandler) AddLesson(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.AddLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	req.ModuleID = moduleID

	lesson, err := h.curriculumService.AddLesson(c.Request.Context(), &req, userID, h.isAdmin(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, lesson)
}

// MoveLesson repositions a lesson within its module
func (h *CourseHandler) MoveLesson(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.curriculumService.MoveLesson(c.Request.Context(), id, req.OrderIndex, userID, h.isAdmin(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Lesson moved"})
}

// DeleteLesson removes a lesson and compacts the remaining order
func (h *CourseHandler) DeleteLesson(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.curriculumService.DeleteLesson(c.Request.Context(), id, userID, h.isAdmin(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Lesson deleted"})
}

// ===== QUESTIONS =====

// AddQuestion appends a question with its options to a quiz lesson
func (h *CourseHandler) AddQuestion(c *gin.Context) {
	lessonID := h.parseIDParam(c, "id")
	if lessonID == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.AddQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	req.LessonID = lessonID

	question, err := h.curriculumService.AddQuestion(c.Request.Context(), &req, userID, h.isAdmin(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// MoveQuestion repositions a question within its lesson
func (h *CourseHandler) MoveQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.curriculumService.MoveQuestion(c.Request.Context(), id, req.OrderIndex, userID, h.isAdmin(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Question moved"})
}

// DeleteQuestion removes a question and compacts the remaining order
func (h *CourseHandler) DeleteQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.curriculumService.DeleteQuestion(c.Request.Context(), id, userID, h.isAdmin(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Question deleted"})
}

// ===== OPTIONS =====

// AddOption adds one answer option to a question
func (h *CourseHandler) AddOption(c *gin.Context) {
	questionID := h.parseIDParam(c, "id")
	if questionID == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.AddOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	req.QuestionID = questionID

	option, err := h.curriculumService.AddOption(c.Request.Context(), &req, userID, h.isAdmin(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, option)
}

// UpdateOption updates an option's text or correctness flag
func (h *CourseHandler) UpdateOption(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.UpdateOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	option, err := h.curriculumService.UpdateOption(c.Request.Context(), id, &req, userID, h.isAdmin(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, option)
}

// DeleteOption removes an option, guarded against unanswerable question states
func (h *CourseHandler) DeleteOption(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.curriculumService.DeleteOption(c.Request.Context(), id, userID, h.isAdmin(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Option deleted"})
}

// ===== IMPORT / EXPORT =====

// ImportQuestions bulk-loads questions into a quiz lesson from an uploaded
// CSV or Excel file
func (h *CourseHandler) ImportQuestions(c *gin.Context) {
	lessonID := h.parseIDParam(c, "id")
	if lessonID == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file upload",
			Details: err.Error(),
		})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to open uploaded file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	result, err := h.importService.ImportQuestionsFromFile(c.Request.Context(), file, fileHeader.Filename, lessonID, userID, h.isAdmin(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportResults downloads the lesson's attempt results as an Excel sheet
func (h *CourseHandler) ExportResults(c *gin.Context) {
	lessonID := h.parseIDParam(c, "id")
	if lessonID == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	data, err := h.importService.ExportLessonResults(c.Request.Context(), lessonID, userID, h.isAdmin(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=lesson_results.xlsx")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
