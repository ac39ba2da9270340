package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/learning-progress-service/internal/models"
	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	CreatedBy   *uint  `json:"created_by"`
	IsPublished *bool  `json:"is_published"`
	Limit       int    `json:"limit"`
	Offset      int    `json:"offset"`
	SortBy      string `json:"sort_by"`    // "created_at", "title"
	SortOrder   string `json:"sort_order"` // "asc", "desc"
}

type AttemptFilters struct {
	UserID   *uint      `json:"user_id"`
	LessonID *uint      `json:"lesson_id"`
	Passed   *bool      `json:"passed"`
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}

type EnrollmentFilters struct {
	Status   *models.EnrollmentStatus `json:"status"`
	CourseID *uint                    `json:"course_id"`
	UserID   *uint                    `json:"user_id"`
	Limit    int                      `json:"limit"`
	Offset   int                      `json:"offset"`
}

// ===== SHARED HELPER STRUCTS =====

// OrderUpdate is one (id, index) assignment produced by the order planner and
// applied as part of a reorder transaction.
type OrderUpdate struct {
	ID         uint `json:"id"`
	OrderIndex int  `json:"order_index"`
}

// CourseProgressSummary is the read-only aggregate backing the progress view.
type CourseProgressSummary struct {
	TotalLessons     int `json:"total_lessons"`
	CompletedLessons int `json:"completed_lessons"`
}

// ===== AGGREGATE REPOSITORY =====

// Repository aggregates all entity repositories behind one accessor so services
// depend on a single collaborator. WithTransaction runs fn against a Repository
// bound to one database transaction; returning an error rolls back.
type Repository interface {
	Course() CourseRepository
	Module() ModuleRepository
	Lesson() LessonRepository
	Question() QuestionRepository
	Progress() ProgressRepository
	Enrollment() EnrollmentRepository
	Attempt() AttemptRepository
	User() UserRepository

	WithTransaction(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}

// IsNotFoundError reports whether err is the persistence layer's record-missing
// condition.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
