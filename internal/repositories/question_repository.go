package repositories

import (
	"context"

	"github.com/SAP-F-2025/learning-progress-service/internal/models"
)

// QuestionRepository covers quiz questions within a lesson and their options.
type QuestionRepository interface {
	Create(ctx context.Context, question *models.QuizQuestion) error
	GetByID(ctx context.Context, id uint) (*models.QuizQuestion, error)
	GetByIDWithOptions(ctx context.Context, id uint) (*models.QuizQuestion, error)
	Update(ctx context.Context, question *models.QuizQuestion) error
	Delete(ctx context.Context, id uint) error

	// GetSiblings returns all questions of a lesson ordered by OrderIndex,
	// options included.
	GetSiblings(ctx context.Context, lessonID uint) ([]*models.QuizQuestion, error)

	// ApplyOrder persists a full set of (id, index) assignments.
	ApplyOrder(ctx context.Context, updates []OrderUpdate) error

	// Option operations
	CreateOption(ctx context.Context, option *models.QuizOption) error
	GetOption(ctx context.Context, id uint) (*models.QuizOption, error)
	UpdateOption(ctx context.Context, option *models.QuizOption) error
	DeleteOption(ctx context.Context, id uint) error
	GetOptions(ctx context.Context, questionID uint) ([]*models.QuizOption, error)
	CountOptions(ctx context.Context, questionID uint) (int, error)
	CountCorrectOptions(ctx context.Context, questionID uint) (int, error)
}
