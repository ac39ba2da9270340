package models

import (
	"fmt"
	"time"
)

type QuestionType string

const (
	SingleChoice   QuestionType = "SingleChoice"
	MultipleChoice QuestionType = "MultipleChoice"
)

// ParseQuestionType rejects unknown question type strings.
func ParseQuestionType(raw string) (QuestionType, error) {
	switch QuestionType(raw) {
	case SingleChoice, MultipleChoice:
		return QuestionType(raw), nil
	default:
		return "", fmt.Errorf("invalid question type %q", raw)
	}
}

// QuizQuestion belongs to a quiz lesson. OrderIndex is dense 1..N among the
// questions of one lesson.
type QuizQuestion struct {
	ID         uint         `json:"id" gorm:"primaryKey"`
	LessonID   uint         `json:"lesson_id" gorm:"not null;index"`
	Text       string       `json:"text" gorm:"not null;type:text" validate:"required,min=1,max=2000"`
	Type       QuestionType `json:"type" gorm:"not null" validate:"required,question_type"`
	OrderIndex int          `json:"order_index" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Lesson  Lesson       `json:"-" gorm:"foreignKey:LessonID"`
	Options []QuizOption `json:"options" gorm:"foreignKey:QuestionID"`
}

type QuizOption struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	Text       string `json:"text" gorm:"not null;size:500" validate:"required,min=1,max=500"`
	IsCorrect  bool   `json:"is_correct" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Question QuizQuestion `json:"-" gorm:"foreignKey:QuestionID"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

func (QuizOption) TableName() string {
	return "quiz_options"
}

// CorrectOptionIDs returns the ids of the options flagged correct.
func (q *QuizQuestion) CorrectOptionIDs() []uint {
	var ids []uint
	for _, opt := range q.Options {
		if opt.IsCorrect {
			ids = append(ids, opt.ID)
		}
	}
	return ids
}
