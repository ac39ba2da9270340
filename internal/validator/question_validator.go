package validator

import (
	"fmt"

	"github.com/SAP-F-2025/learning-progress-service/internal/models"
)

const (
	minOptionsPerQuestion = 2
	maxOptionsPerQuestion = 10
)

// QuestionValidator handles question-specific validation
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion validates a complete question with its option set
func (v *QuestionValidator) ValidateQuestion(question *models.QuizQuestion) error {
	if question.Text == "" {
		return fmt.Errorf("question text is required")
	}

	if _, err := models.ParseQuestionType(string(question.Type)); err != nil {
		return err
	}

	return v.ValidateOptionSet(question.Type, question.Options)
}

// ValidateOptionSet enforces the structural rules an answerable question must
// satisfy: enough options, every option labeled, and a correct set that fits
// the question type.
func (v *QuestionValidator) ValidateOptionSet(questionType models.QuestionType, options []models.QuizOption) error {
	if len(options) < minOptionsPerQuestion {
		return fmt.Errorf("must have at least %d options", minOptionsPerQuestion)
	}

	if len(options) > maxOptionsPerQuestion {
		return fmt.Errorf("cannot have more than %d options", maxOptionsPerQuestion)
	}

	correctCount := 0
	for i, option := range options {
		if option.Text == "" {
			return fmt.Errorf("option %d text cannot be empty", i+1)
		}
		if option.IsCorrect {
			correctCount++
		}
	}

	if correctCount == 0 {
		return fmt.Errorf("must have at least 1 correct option")
	}

	if questionType == models.SingleChoice && correctCount > 1 {
		return fmt.Errorf("single choice question must have exactly 1 correct option, found %d", correctCount)
	}

	return nil
}

// ValidateBatch validates multiple questions
func (v *QuestionValidator) ValidateBatch(questions []*models.QuizQuestion) error {
	if len(questions) == 0 {
		return fmt.Errorf("question batch cannot be empty")
	}

	for i, question := range questions {
		if err := v.ValidateQuestion(question); err != nil {
			return fmt.Errorf("validation failed for question %d: %w", i+1, err)
		}
	}

	return nil
}
