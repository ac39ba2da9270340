package repositories

import (
	"context"

	"github.com/SAP-F-2025/learning-progress-service/internal/models"
)

// AttemptRepository covers recorded quiz submissions and their answer rows.
type AttemptRepository interface {
	// Create persists the attempt together with its answer rows.
	Create(ctx context.Context, attempt *models.QuizAttempt) error

	GetByID(ctx context.Context, id uint) (*models.QuizAttempt, error)
	GetByIDWithAnswers(ctx context.Context, id uint) (*models.QuizAttempt, error)

	List(ctx context.Context, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)
	GetByUserAndLesson(ctx context.Context, userID, lessonID uint) ([]*models.QuizAttempt, error)
}

// UserRepository is the minimal identity lookup the core needs.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
