package postgres

import (
	"context"

	"github.com/SAP-F-2025/learning-progress-service/internal/models"
	"github.com/SAP-F-2025/learning-progress-service/internal/repositories"
	"gorm.io/gorm"
)

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

func (q QuestionPostgreSQL) Create(ctx context.Context, question *models.QuizQuestion) error {
	return q.db.WithContext(ctx).Create(question).Error
}

func (q QuestionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.QuizQuestion, error) {
	var question models.QuizQuestion
	if err := q.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q QuestionPostgreSQL) GetByIDWithOptions(ctx context.Context, id uint) (*models.QuizQuestion, error) {
	var question models.QuizQuestion
	if err := q.db.WithContext(ctx).
		Preload("Options").
		First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q QuestionPostgreSQL) Update(ctx context.Context, question *models.QuizQuestion) error {
	return q.db.WithContext(ctx).Save(question).Error
}

func (q QuestionPostgreSQL) Delete(ctx context.Context, id uint) error {
	return q.db.WithContext(ctx).Delete(&models.QuizQuestion{}, id).Error
}

func (q QuestionPostgreSQL) GetSiblings(ctx context.Context, lessonID uint) ([]*models.QuizQuestion, error) {
	var questions []*models.QuizQuestion
	err := q.db.WithContext(ctx).
		Preload("Options").
		Where("lesson_id = ?", lessonID).
		Order("order_index ASC").
		Find(&questions).Error
	return questions, err
}

func (q QuestionPostgreSQL) ApplyOrder(ctx context.Context, updates []repositories.OrderUpdate) error {
	return applyOrder(ctx, q.db, &models.QuizQuestion{}, updates)
}

// ===== OPTIONS =====

func (q QuestionPostgreSQL) CreateOption(ctx context.Context, option *models.QuizOption) error {
	return q.db.WithContext(ctx).Create(option).Error
}

func (q QuestionPostgreSQL) GetOption(ctx context.Context, id uint) (*models.QuizOption, error) {
	var option models.QuizOption
	if err := q.db.WithContext(ctx).First(&option, id).Error; err != nil {
		return nil, err
	}
	return &option, nil
}

func (q QuestionPostgreSQL) UpdateOption(ctx context.Context, option *models.QuizOption) error {
	return q.db.WithContext(ctx).Save(option).Error
}

func (q QuestionPostgreSQL) DeleteOption(ctx context.Context, id uint) error {
	return q.db.WithContext(ctx).Delete(&models.QuizOption{}, id).Error
}

func (q QuestionPostgreSQL) GetOptions(ctx context.Context, questionID uint) ([]*models.QuizOption, error) {
	var options []*models.QuizOption
	err := q.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("id ASC").
		Find(&options).Error
	return options, err
}

func (q QuestionPostgreSQL) CountOptions(ctx context.Context, questionID uint) (int, error) {
	var count int64
	err := q.db.WithContext(ctx).
		Model(&models.QuizOption{}).
		Where("question_id = ?", questionID).
		Count(&count).Error
	return int(count), err
}

func (q QuestionPostgreSQL) CountCorrectOptions(ctx context.Context, questionID uint) (int, error) {
	var count int64
	err := q.db.WithContext(ctx).
		Model(&models.QuizOption{}).
		Where("question_id = ? AND is_correct = ?", questionID, true).
		Count(&count).Error
	return int(count), err
}
