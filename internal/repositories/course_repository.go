package repositories

import (
	"context"

	"github.com/SAP-F-2025/learning-progress-service/internal/models"
)

// CourseRepository covers course-level operations plus the aggregated counts the
// progress logic needs.
type CourseRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uint) (*models.Course, error)
	GetByIDWithContent(ctx context.Context, id uint) (*models.Course, error) // Include modules and lessons, ordered
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error // Soft delete

	// Query operations
	List(ctx context.Context, filters CourseFilters) ([]*models.Course, int64, error)

	// Aggregates
	CountLessons(ctx context.Context, courseID uint) (int, error)

	// Validation helpers
	IsOwner(ctx context.Context, courseID uint, userID uint) (bool, error)
}

// ModuleRepository covers one sibling group level: modules within a course.
type ModuleRepository interface {
	Create(ctx context.Context, module *models.Module) error
	GetByID(ctx context.Context, id uint) (*models.Module, error)
	Update(ctx context.Context, module *models.Module) error
	Delete(ctx context.Context, id uint) error

	// GetSiblings returns all modules of a course ordered by OrderIndex.
	GetSiblings(ctx context.Context, courseID uint) ([]*models.Module, error)

	// ApplyOrder persists a full set of (id, index) assignments.
	ApplyOrder(ctx context.Context, updates []OrderUpdate) error
}

// LessonRepository covers lessons within a module plus course-scoped lookups.
type LessonRepository interface {
	Create(ctx context.Context, lesson *models.Lesson) error
	GetByID(ctx context.Context, id uint) (*models.Lesson, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Lesson, error) // Include questions and options, ordered
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id uint) error

	// GetSiblings returns all lessons of a module ordered by OrderIndex.
	GetSiblings(ctx context.Context, moduleID uint) ([]*models.Lesson, error)

	// GetByCourse returns all lessons across the modules of a course.
	GetByCourse(ctx context.Context, courseID uint) ([]*models.Lesson, error)

	// CourseID resolves the owning course of a lesson.
	CourseID(ctx context.Context, lessonID uint) (uint, error)

	// ApplyOrder persists a full set of (id, index) assignments.
	ApplyOrder(ctx context.Context, updates []OrderUpdate) error
}
