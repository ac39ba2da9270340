package repositories

import (
	"context"

	"github.com/SAP-F-2025/learning-progress-service/internal/models"
)

// ProgressRepository covers per-(user, lesson) progress rows and the
// user/course aggregates derived from them.
type ProgressRepository interface {
	Create(ctx context.Context, progress *models.LessonProgress) error
	CreateBatch(ctx context.Context, progresses []*models.LessonProgress) error
	GetByUserAndLesson(ctx context.Context, userID, lessonID uint) (*models.LessonProgress, error)
	Update(ctx context.Context, progress *models.LessonProgress) error
	DeleteByUserAndCourse(ctx context.Context, userID, courseID uint) error

	// Aggregates
	CountCompletedByUserAndCourse(ctx context.Context, userID, courseID uint) (int, error)
	GetByUserAndCourse(ctx context.Context, userID, courseID uint) ([]*models.LessonProgress, error)
	GetCourseSummary(ctx context.Context, userID, courseID uint) (*CourseProgressSummary, error)
}

// EnrollmentRepository covers the per-(user, course) relationship rows.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, id uint) (*models.Enrollment, error)
	GetByUserAndCourse(ctx context.Context, userID, courseID uint) (*models.Enrollment, error)
	Update(ctx context.Context, enrollment *models.Enrollment) error
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)

	// GetCompletedByCourse returns every enrollment of a course currently in
	// status Completed, for the structural invalidation sweep.
	GetCompletedByCourse(ctx context.Context, courseID uint) ([]*models.Enrollment, error)
}
