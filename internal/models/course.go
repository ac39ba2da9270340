package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LessonType string

const (
	LessonContent LessonType = "Content"
	LessonQuiz    LessonType = "Quiz"
)

// ParseLessonType rejects unknown lesson type strings.
func ParseLessonType(raw string) (LessonType, error) {
	switch LessonType(raw) {
	case LessonContent, LessonQuiz:
		return LessonType(raw), nil
	default:
		return "", fmt.Errorf("invalid lesson type %q", raw)
	}
}

type Course struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`
	IsPublished bool    `json:"is_published" gorm:"default:false;index"`

	// Metadata
	CreatedBy uint           `json:"created_by" gorm:"not null;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Modules     []Module     `json:"modules" gorm:"foreignKey:CourseID"`
	Enrollments []Enrollment `json:"-" gorm:"foreignKey:CourseID"`
	Creator     User         `json:"creator" gorm:"foreignKey:CreatedBy"`

	// Computed fields (not stored)
	LessonCount int `json:"lesson_count" gorm:"-"`
}

// Module is an ordered section of a course. OrderIndex is dense 1..N among the
// modules of one course.
type Module struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	CourseID   uint    `json:"course_id" gorm:"not null;index"`
	Title      string  `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Summary    *string `json:"summary" gorm:"type:text" validate:"omitempty,max=1000"`
	OrderIndex int     `json:"order_index" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Course  Course   `json:"-" gorm:"foreignKey:CourseID"`
	Lessons []Lesson `json:"lessons" gorm:"foreignKey:ModuleID"`
}

// Lesson is an ordered unit within a module. OrderIndex is dense 1..N among the
// lessons of one module.
type Lesson struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	ModuleID   uint           `json:"module_id" gorm:"not null;index"`
	Title      string         `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Type       LessonType     `json:"type" gorm:"not null;default:Content" validate:"omitempty,lesson_type"`
	Content    datatypes.JSON `json:"content" gorm:"type:jsonb"`
	OrderIndex int            `json:"order_index" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Module    Module         `json:"-" gorm:"foreignKey:ModuleID"`
	Questions []QuizQuestion `json:"questions,omitempty" gorm:"foreignKey:LessonID"`
}

func (Course) TableName() string {
	return "courses"
}

func (Module) TableName() string {
	return "modules"
}

func (Lesson) TableName() string {
	return "lessons"
}
