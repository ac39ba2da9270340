package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/learning-progress-service/internal/cache"
	"github.com/SAP-F-2025/learning-progress-service/internal/events"
	"github.com/SAP-F-2025/learning-progress-service/internal/models"
	"github.com/SAP-F-2025/learning-progress-service/internal/repositories"
	"github.com/SAP-F-2025/learning-progress-service/internal/validator"
	"gorm.io/datatypes"
)

// CurriculumService owns the course structure: courses, their ordered modules
// and lessons, and the question banks of quiz lessons. Every sibling group
// keeps a dense 1..N OrderIndex; reorders and removals go through the order
// planner inside one transaction.
type CurriculumService interface {
	// Courses
	CreateCourse(ctx context.Context, req *CreateCourseRequest, creatorID uint) (*models.Course, error)
	GetCourse(ctx context.Context, courseID uint) (*models.Course, error)
	ListCourses(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error)
	UpdateCourse(ctx context.Context, courseID uint, req *UpdateCourseRequest, actorID uint, isAdmin bool) (*models.Course, error)
	DeleteCourse(ctx context.Context, courseID uint, actorID uint, isAdmin bool) error

	// Modules
	AddModule(ctx context.Context, req *AddModuleRequest, actorID uint, isAdmin bool) (*models.Module, error)
	MoveModule(ctx context.Context, moduleID uint, newIndex int, actorID uint, isAdmin bool) error
	DeleteModule(ctx context.Context, moduleID uint, actorID uint, isAdmin bool) error

	// Lessons
	AddLesson(ctx context.Context, req *AddLessonRequest, actorID uint, isAdmin bool) (*models.Lesson, error)
	MoveLesson(ctx context.Context, lessonID uint, newIndex int, actorID uint, isAdmin bool) error
	DeleteLesson(ctx context.Context, lessonID uint, actorID uint, isAdmin bool) error

	// Questions
	AddQuestion(ctx context.Context, req *AddQuestionRequest, actorID uint, isAdmin bool) (*models.QuizQuestion, error)
	MoveQuestion(ctx context.Context, questionID uint, newIndex int, actorID uint, isAdmin bool) error
	DeleteQuestion(ctx context.Context, questionID uint, actorID uint, isAdmin bool) error

	// Options
	AddOption(ctx context.Context, req *AddOptionRequest, actorID uint, isAdmin bool) (*models.QuizOption, error)
	UpdateOption(ctx context.Context, optionID uint, req *UpdateOptionRequest, actorID uint, isAdmin bool) (*models.QuizOption, error)
	DeleteOption(ctx context.Context, optionID uint, actorID uint, isAdmin bool) error
}

// ===== REQUEST/RESPONSE STRUCTS =====

type CreateCourseRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	IsPublished bool    `json:"is_published"`
}

type UpdateCourseRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	IsPublished *bool   `json:"is_published"`
}

type AddModuleRequest struct {
	CourseID uint    `json:"course_id" validate:"required"`
	Title    string  `json:"title" validate:"required,min=1,max=200"`
	Summary  *string `json:"summary" validate:"omitempty,max=1000"`
}

type AddLessonRequest struct {
	ModuleID uint           `json:"module_id" validate:"required"`
	Title    string         `json:"title" validate:"required,min=1,max=200"`
	Type     string         `json:"type" validate:"omitempty,lesson_type"`
	Content  datatypes.JSON `json:"content"`
}

type OptionInput struct {
	Text      string `json:"text" validate:"required,min=1,max=500"`
	IsCorrect bool   `json:"is_correct"`
}

type AddQuestionRequest struct {
	LessonID uint          `json:"lesson_id" validate:"required"`
	Text     string        `json:"text" validate:"required,min=1,max=2000"`
	Type     string        `json:"type" validate:"required,question_type"`
	Options  []OptionInput `json:"options" validate:"required,min=2,max=10,dive"`
}

type AddOptionRequest struct {
	QuestionID uint   `json:"question_id" validate:"required"`
	Text       string `json:"text" validate:"required,min=1,max=500"`
	IsCorrect  bool   `json:"is_correct"`
}

type UpdateOptionRequest struct {
	Text      *string `json:"text" validate:"omitempty,min=1,max=500"`
	IsCorrect *bool   `json:"is_correct"`
}

type curriculumService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	clock     Clock
	publisher events.EventPublisher
	cache     cache.CacheService
}

func NewCurriculumService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, clock Clock, publisher events.EventPublisher, cacheService cache.CacheService) CurriculumService {
	return &curriculumService{
		repo:      repo,
		logger:    logger,
		validator: v,
		clock:     clock,
		publisher: publisher,
		cache:     cacheService,
	}
}

// ===== COURSES =====

func (s *curriculumService) CreateCourse(ctx context.Context, req *CreateCourseRequest, creatorID uint) (*models.Course, error) {
	s.logger.Info("Creating course", "title", req.Title, "creator_id", creatorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	course := &models.Course{
		Title:       req.Title,
		Description: req.Description,
		IsPublished: req.IsPublished,
		CreatedBy:   creatorID,
	}
	if err := s.repo.Course().Create(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	return course, nil
}

func (s *curriculumService) GetCourse(ctx context.Context, courseID uint) (*models.Course, error) {
	course, err := s.repo.Course().GetByIDWithContent(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	count, err := s.repo.Course().CountLessons(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to count lessons: %w", err)
	}
	course.LessonCount = count

	return course, nil
}

func (s *curriculumService) ListCourses(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	courses, total, err := s.repo.Course().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, total, nil
}

func (s *curriculumService) UpdateCourse(ctx context.Context, courseID uint, req *UpdateCourseRequest, actorID uint, isAdmin bool) (*models.Course, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := s.ensureCourseAccess(ctx, courseID, actorID, isAdmin, "update"); err != nil {
		return nil, err
	}

	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = req.Description
	}
	if req.IsPublished != nil {
		course.IsPublished = *req.IsPublished
	}

	if err := s.repo.Course().Update(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}
	return course, nil
}

func (s *curriculumService) DeleteCourse(ctx context.Context, courseID uint, actorID uint, isAdmin bool) error {
	if err := s.ensureCourseAccess(ctx, courseID, actorID, isAdmin, "delete"); err != nil {
		return err
	}

	if err := s.repo.Course().Delete(ctx, courseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.logger.Info("Course deleted", "course_id", courseID, "actor_id", actorID)
	return nil
}

// ===== MODULES =====

func (s *curriculumService) AddModule(ctx context.Context, req *AddModuleRequest, actorID uint, isAdmin bool) (*models.Module, error) {
	s.logger.Info("Adding module", "course_id", req.CourseID, "title", req.Title)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := s.ensureCourseAccess(ctx, req.CourseID, actorID, isAdmin, "add_module"); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	module := &models.Module{
		CourseID: req.CourseID,
		Title:    req.Title,
		Summary:  req.Summary,
	}

	var reopened []*models.Enrollment
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		siblings, err := txRepo.Module().GetSiblings(ctx, req.CourseID)
		if err != nil {
			return fmt.Errorf("failed to get sibling modules: %w", err)
		}
		module.OrderIndex = NextOrderIndex(moduleGroup(siblings))

		if err := txRepo.Module().Create(ctx, module); err != nil {
			return fmt.Errorf("failed to create module: %w", err)
		}

		reopened, err = reopenCompletedEnrollments(ctx, txRepo, req.CourseID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.contentAdded(ctx, req.CourseID, now, reopened, "module", module.ID)
	return module, nil
}

func (s *curriculumService) MoveModule(ctx context.Context, moduleID uint, newIndex int, actorID uint, isAdmin bool) error {
	return s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		module, err := txRepo.Module().GetByID(ctx, moduleID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrModuleNotFound
			}
			return fmt.Errorf("failed to get module: %w", err)
		}
		if err := s.ensureCourseAccess(ctx, module.CourseID, actorID, isAdmin, "move_module"); err != nil {
			return err
		}

		siblings, err := txRepo.Module().GetSiblings(ctx, module.CourseID)
		if err != nil {
			return fmt.Errorf("failed to get sibling modules: %w", err)
		}

		updates, err := PlanMove(moduleGroup(siblings), moduleID, newIndex)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := txRepo.Module().ApplyOrder(ctx, updates); err != nil {
			return fmt.Errorf("failed to apply module order: %w", err)
		}
		return nil
	})
}

func (s *curriculumService) DeleteModule(ctx context.Context, moduleID uint, actorID uint, isAdmin bool) error {
	return s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		module, err := txRepo.Module().GetByID(ctx, moduleID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrModuleNotFound
			}
			return fmt.Errorf("failed to get module: %w", err)
		}
		if err := s.ensureCourseAccess(ctx, module.CourseID, actorID, isAdmin, "delete_module"); err != nil {
			return err
		}

		siblings, err := txRepo.Module().GetSiblings(ctx, module.CourseID)
		if err != nil {
			return fmt.Errorf("failed to get sibling modules: %w", err)
		}

		updates, err := PlanRemoval(moduleGroup(siblings), moduleID)
		if err != nil {
			return err
		}
		if err := txRepo.Module().Delete(ctx, moduleID); err != nil {
			return fmt.Errorf("failed to delete module: %w", err)
		}
		if err := txRepo.Module().ApplyOrder(ctx, updates); err != nil {
			return fmt.Errorf("failed to compact module order: %w", err)
		}
		return nil
	})
}

// ===== LESSONS =====

func (s *curriculumService) AddLesson(ctx context.Context, req *AddLessonRequest, actorID uint, isAdmin bool) (*models.Lesson, error) {
	s.logger.Info("Adding lesson", "module_id", req.ModuleID, "title", req.Title)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	module, err := s.repo.Module().GetByID(ctx, req.ModuleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	if err := s.ensureCourseAccess(ctx, module.CourseID, actorID, isAdmin, "add_lesson"); err != nil {
		return nil, err
	}

	lessonType := models.LessonContent
	if req.Type != "" {
		lessonType, err = models.ParseLessonType(req.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
	}

	now := s.clock.Now()
	lesson := &models.Lesson{
		ModuleID: req.ModuleID,
		Title:    req.Title,
		Type:     lessonType,
		Content:  req.Content,
	}

	var reopened []*models.Enrollment
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		siblings, err := txRepo.Lesson().GetSiblings(ctx, req.ModuleID)
		if err != nil {
			return fmt.Errorf("failed to get sibling lessons: %w", err)
		}
		lesson.OrderIndex = NextOrderIndex(lessonGroup(siblings))

		if err := txRepo.Lesson().Create(ctx, lesson); err != nil {
			return fmt.Errorf("failed to create lesson: %w", err)
		}

		// The lesson denominator grew, so every 100% completion in the course is
		// stale and its enrollment goes back to Active.
		reopened, err = reopenCompletedEnrollments(ctx, txRepo, module.CourseID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.contentAdded(ctx, module.CourseID, now, reopened, "lesson", lesson.ID)
	return lesson, nil
}

func (s *curriculumService) MoveLesson(ctx context.Context, lessonID uint, newIndex int, actorID uint, isAdmin bool) error {
	return s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		lesson, err := txRepo.Lesson().GetByID(ctx, lessonID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrLessonNotFound
			}
			return fmt.Errorf("failed to get lesson: %w", err)
		}
		courseID, err := txRepo.Lesson().CourseID(ctx, lessonID)
		if err != nil {
			return fmt.Errorf("failed to resolve lesson course: %w", err)
		}
		if err := s.ensureCourseAccess(ctx, courseID, actorID, isAdmin, "move_lesson"); err != nil {
			return err
		}

		siblings, err := txRepo.Lesson().GetSiblings(ctx, lesson.ModuleID)
		if err != nil {
			return fmt.Errorf("failed to get sibling lessons: %w", err)
		}

		updates, err := PlanMove(lessonGroup(siblings), lessonID, newIndex)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := txRepo.Lesson().ApplyOrder(ctx, updates); err != nil {
			return fmt.Errorf("failed to apply lesson order: %w", err)
		}
		return nil
	})
}

func (s *curriculumService) DeleteLesson(ctx context.Context, lessonID uint, actorID uint, isAdmin bool) error {
	return s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		lesson, err := txRepo.Lesson().GetByID(ctx, lessonID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrLessonNotFound
			}
			return fmt.Errorf("failed to get lesson: %w", err)
		}
		courseID, err := txRepo.Lesson().CourseID(ctx, lessonID)
		if err != nil {
			return fmt.Errorf("failed to resolve lesson course: %w", err)
		}
		if err := s.ensureCourseAccess(ctx, courseID, actorID, isAdmin, "delete_lesson"); err != nil {
			return err
		}

		siblings, err := txRepo.Lesson().GetSiblings(ctx, lesson.ModuleID)
		if err != nil {
			return fmt.Errorf("failed to get sibling lessons: %w", err)
		}

		updates, err := PlanRemoval(lessonGroup(siblings), lessonID)
		if err != nil {
			return err
		}
		if err := txRepo.Lesson().Delete(ctx, lessonID); err != nil {
			return fmt.Errorf("failed to delete lesson: %w", err)
		}
		if err := txRepo.Lesson().ApplyOrder(ctx, updates); err != nil {
			return fmt.Errorf("failed to compact lesson order: %w", err)
		}
		return nil
	})
}

// ===== QUESTIONS =====

func (s *curriculumService) AddQuestion(ctx context.Context, req *AddQuestionRequest, actorID uint, isAdmin bool) (*models.QuizQuestion, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	lesson, err := s.repo.Lesson().GetByID(ctx, req.LessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	if lesson.Type != models.LessonQuiz {
		return nil, ErrLessonNotQuiz
	}

	courseID, err := s.repo.Lesson().CourseID(ctx, req.LessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve lesson course: %w", err)
	}
	if err := s.ensureCourseAccess(ctx, courseID, actorID, isAdmin, "add_question"); err != nil {
		return nil, err
	}

	questionType, err := models.ParseQuestionType(req.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	question := &models.QuizQuestion{
		LessonID: req.LessonID,
		Text:     req.Text,
		Type:     questionType,
	}
	for _, input := range req.Options {
		question.Options = append(question.Options, models.QuizOption{
			Text:      input.Text,
			IsCorrect: input.IsCorrect,
		})
	}
	if err := s.validator.Question().ValidateOptionSet(questionType, question.Options); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		siblings, err := txRepo.Question().GetSiblings(ctx, req.LessonID)
		if err != nil {
			return fmt.Errorf("failed to get sibling questions: %w", err)
		}
		question.OrderIndex = NextOrderIndex(questionGroup(siblings))

		if err := txRepo.Question().Create(ctx, question); err != nil {
			return fmt.Errorf("failed to create question: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Question added", "lesson_id", req.LessonID, "question_id", question.ID)
	return question, nil
}

func (s *curriculumService) MoveQuestion(ctx context.Context, questionID uint, newIndex int, actorID uint, isAdmin bool) error {
	return s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		question, err := txRepo.Question().GetByID(ctx, questionID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuestionNotFound
			}
			return fmt.Errorf("failed to get question: %w", err)
		}
		if err := s.ensureQuestionAccess(ctx, txRepo, question.LessonID, actorID, isAdmin, "move_question"); err != nil {
			return err
		}

		siblings, err := txRepo.Question().GetSiblings(ctx, question.LessonID)
		if err != nil {
			return fmt.Errorf("failed to get sibling questions: %w", err)
		}

		updates, err := PlanMove(questionGroup(siblings), questionID, newIndex)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := txRepo.Question().ApplyOrder(ctx, updates); err != nil {
			return fmt.Errorf("failed to apply question order: %w", err)
		}
		return nil
	})
}

func (s *curriculumService) DeleteQuestion(ctx context.Context, questionID uint, actorID uint, isAdmin bool) error {
	return s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		question, err := txRepo.Question().GetByID(ctx, questionID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuestionNotFound
			}
			return fmt.Errorf("failed to get question: %w", err)
		}
		if err := s.ensureQuestionAccess(ctx, txRepo, question.LessonID, actorID, isAdmin, "delete_question"); err != nil {
			return err
		}

		siblings, err := txRepo.Question().GetSiblings(ctx, question.LessonID)
		if err != nil {
			return fmt.Errorf("failed to get sibling questions: %w", err)
		}

		updates, err := PlanRemoval(questionGroup(siblings), questionID)
		if err != nil {
			return err
		}
		if err := txRepo.Question().Delete(ctx, questionID); err != nil {
			return fmt.Errorf("failed to delete question: %w", err)
		}
		if err := txRepo.Question().ApplyOrder(ctx, updates); err != nil {
			return fmt.Errorf("failed to compact question order: %w", err)
		}
		return nil
	})
}

// ===== OPTIONS =====

func (s *curriculumService) AddOption(ctx context.Context, req *AddOptionRequest, actorID uint, isAdmin bool) (*models.QuizOption, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	question, err := s.repo.Question().GetByID(ctx, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if err := s.ensureQuestionAccess(ctx, s.repo, question.LessonID, actorID, isAdmin, "add_option"); err != nil {
		return nil, err
	}

	if req.IsCorrect && question.Type == models.SingleChoice {
		correct, err := s.repo.Question().CountCorrectOptions(ctx, req.QuestionID)
		if err != nil {
			return nil, fmt.Errorf("failed to count correct options: %w", err)
		}
		if correct > 0 {
			return nil, ErrSingleChoiceCorrect
		}
	}

	option := &models.QuizOption{
		QuestionID: req.QuestionID,
		Text:       req.Text,
		IsCorrect:  req.IsCorrect,
	}
	if err := s.repo.Question().CreateOption(ctx, option); err != nil {
		return nil, fmt.Errorf("failed to create option: %w", err)
	}
	return option, nil
}

func (s *curriculumService) UpdateOption(ctx context.Context, optionID uint, req *UpdateOptionRequest, actorID uint, isAdmin bool) (*models.QuizOption, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	option, err := s.repo.Question().GetOption(ctx, optionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrOptionNotFound
		}
		return nil, fmt.Errorf("failed to get option: %w", err)
	}
	question, err := s.repo.Question().GetByID(ctx, option.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if err := s.ensureQuestionAccess(ctx, s.repo, question.LessonID, actorID, isAdmin, "update_option"); err != nil {
		return nil, err
	}

	if req.IsCorrect != nil && *req.IsCorrect != option.IsCorrect {
		correct, err := s.repo.Question().CountCorrectOptions(ctx, option.QuestionID)
		if err != nil {
			return nil, fmt.Errorf("failed to count correct options: %w", err)
		}
		if *req.IsCorrect {
			if question.Type == models.SingleChoice && correct > 0 {
				return nil, ErrSingleChoiceCorrect
			}
		} else if correct <= 1 {
			// Flipping the only correct option off would leave the question
			// unanswerable.
			return nil, ErrOptionLastCorrect
		}
		option.IsCorrect = *req.IsCorrect
	}
	if req.Text != nil {
		option.Text = *req.Text
	}

	if err := s.repo.Question().UpdateOption(ctx, option); err != nil {
		return nil, fmt.Errorf("failed to update option: %w", err)
	}
	return option, nil
}

func (s *curriculumService) DeleteOption(ctx context.Context, optionID uint, actorID uint, isAdmin bool) error {
	option, err := s.repo.Question().GetOption(ctx, optionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrOptionNotFound
		}
		return fmt.Errorf("failed to get option: %w", err)
	}
	question, err := s.repo.Question().GetByID(ctx, option.QuestionID)
	if err != nil {
		return fmt.Errorf("failed to get question: %w", err)
	}
	if err := s.ensureQuestionAccess(ctx, s.repo, question.LessonID, actorID, isAdmin, "delete_option"); err != nil {
		return err
	}

	total, err := s.repo.Question().CountOptions(ctx, option.QuestionID)
	if err != nil {
		return fmt.Errorf("failed to count options: %w", err)
	}
	if total <= 2 {
		return ErrOptionMinimum
	}
	if option.IsCorrect {
		correct, err := s.repo.Question().CountCorrectOptions(ctx, option.QuestionID)
		if err != nil {
			return fmt.Errorf("failed to count correct options: %w", err)
		}
		if correct <= 1 {
			return ErrOptionLastCorrect
		}
	}

	if err := s.repo.Question().DeleteOption(ctx, optionID); err != nil {
		return fmt.Errorf("failed to delete option: %w", err)
	}
	return nil
}

// ===== HELPERS =====

func (s *curriculumService) ensureCourseAccess(ctx context.Context, courseID, actorID uint, isAdmin bool, action string) error {
	if isAdmin {
		return nil
	}
	owner, err := s.repo.Course().IsOwner(ctx, courseID, actorID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to check course ownership: %w", err)
	}
	if !owner {
		return NewPermissionError(actorID, courseID, "course", action, "requires course owner or admin")
	}
	return nil
}

func (s *curriculumService) ensureQuestionAccess(ctx context.Context, repo repositories.Repository, lessonID, actorID uint, isAdmin bool, action string) error {
	courseID, err := repo.Lesson().CourseID(ctx, lessonID)
	if err != nil {
		return fmt.Errorf("failed to resolve lesson course: %w", err)
	}
	return s.ensureCourseAccess(ctx, courseID, actorID, isAdmin, action)
}

// contentAdded handles the fan-out after a structural insert committed: the
// cached progress views of the course are stale and downstream consumers learn
// about the reopened enrollments.
func (s *curriculumService) contentAdded(ctx context.Context, courseID uint, now time.Time, reopened []*models.Enrollment, kind string, id uint) {
	if err := s.cache.DeletePattern(ctx, cache.CoursePattern(courseID)); err != nil {
		s.logger.Warn("Failed to invalidate course progress cache", "course_id", courseID, "error", err)
	}

	s.publishEvent(ctx, events.NewProgressEvent(events.EventCourseContentAdded, now).
		WithCourse(courseID).
		WithPayload("kind", kind).
		WithPayload("id", id))

	for _, enrollment := range reopened {
		s.publishEvent(ctx, events.NewProgressEvent(events.EventEnrollmentReopened, now).
			WithUser(enrollment.UserID).
			WithCourse(courseID).
			WithEnrollment(enrollment.ID).
			WithPayload("reason", "course_content_added"))
	}
	if len(reopened) > 0 {
		s.logger.Info("Reopened completed enrollments", "course_id", courseID, "count", len(reopened))
	}
}

func (s *curriculumService) publishEvent(ctx context.Context, event *events.ProgressEvent) {
	if err := s.publisher.PublishProgressEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish progress event", "event_type", event.Type, "error", err)
	}
}

// Sibling group adapters for the order planner.

func moduleGroup(modules []*models.Module) []OrderedItem {
	group := make([]OrderedItem, len(modules))
	for i, m := range modules {
		group[i] = OrderedItem{ID: m.ID, OrderIndex: m.OrderIndex}
	}
	return group
}

func lessonGroup(lessons []*models.Lesson) []OrderedItem {
	group := make([]OrderedItem, len(lessons))
	for i, l := range lessons {
		group[i] = OrderedItem{ID: l.ID, OrderIndex: l.OrderIndex}
	}
	return group
}

func questionGroup(questions []*models.QuizQuestion) []OrderedItem {
	group := make([]OrderedItem, len(questions))
	for i, q := range questions {
		group[i] = OrderedItem{ID: q.ID, OrderIndex: q.OrderIndex}
	}
	return group
}
