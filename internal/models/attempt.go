package models

import (
	"time"
)

// QuizAttempt is one scored submission against a quiz lesson. Answers holds one
// row per selected option; a question left unanswered contributes a single row
// with a nil SelectedOptionID so the question is still marked as seen.
type QuizAttempt struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	UserID         uint      `json:"user_id" gorm:"not null;index"`
	LessonID       uint      `json:"lesson_id" gorm:"not null;index"`
	Score          int       `json:"score" gorm:"not null"`
	TotalQuestions int       `json:"total_questions" gorm:"not null"`
	Passed         bool      `json:"passed" gorm:"not null;default:false;index"`
	StartedAt      time.Time `json:"started_at"`
	SubmittedAt    time.Time `json:"submitted_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User    User         `json:"-" gorm:"foreignKey:UserID"`
	Lesson  Lesson       `json:"-" gorm:"foreignKey:LessonID"`
	Answers []QuizAnswer `json:"answers" gorm:"foreignKey:AttemptID"`
}

type QuizAnswer struct {
	ID               uint  `json:"id" gorm:"primaryKey"`
	AttemptID        uint  `json:"attempt_id" gorm:"not null;index"`
	QuestionID       uint  `json:"question_id" gorm:"not null;index"`
	SelectedOptionID *uint `json:"selected_option_id"`
	IsCorrect        bool  `json:"is_correct" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Attempt        QuizAttempt  `json:"-" gorm:"foreignKey:AttemptID"`
	Question       QuizQuestion `json:"-" gorm:"foreignKey:QuestionID"`
	SelectedOption *QuizOption  `json:"-" gorm:"foreignKey:SelectedOptionID"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (QuizAnswer) TableName() string {
	return "quiz_answers"
}

// Percentage returns the attempt score as a fraction of the question count, in
// the range [0, 1]. Zero-question attempts score 0.
func (a *QuizAttempt) Percentage() float64 {
	if a.TotalQuestions == 0 {
		return 0
	}
	return float64(a.Score) / float64(a.TotalQuestions)
}
