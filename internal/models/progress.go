package models

import (
	"fmt"
	"time"
)

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "Active"
	EnrollmentCompleted EnrollmentStatus = "Completed"
	EnrollmentDropped   EnrollmentStatus = "Dropped"
)

// ParseEnrollmentStatus rejects unknown status strings.
func ParseEnrollmentStatus(raw string) (EnrollmentStatus, error) {
	switch EnrollmentStatus(raw) {
	case EnrollmentActive, EnrollmentCompleted, EnrollmentDropped:
		return EnrollmentStatus(raw), nil
	default:
		return "", fmt.Errorf("invalid enrollment status %q", raw)
	}
}

// LessonProgress is the per-(user, lesson) start/completion record. At most one
// row exists per pair; IsCompleted is true exactly when CompletedAt is set.
type LessonProgress struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_user_lesson"`
	LessonID    uint       `json:"lesson_id" gorm:"not null;uniqueIndex:idx_user_lesson"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	IsCompleted bool       `json:"is_completed" gorm:"not null;default:false;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User   User   `json:"-" gorm:"foreignKey:UserID"`
	Lesson Lesson `json:"-" gorm:"foreignKey:LessonID"`
}

// Enrollment is the per-(user, course) relationship carrying the derived
// completion status. CompletionDate is set exactly when Status is Completed.
type Enrollment struct {
	ID             uint             `json:"id" gorm:"primaryKey"`
	UserID         uint             `json:"user_id" gorm:"not null;uniqueIndex:idx_user_course"`
	CourseID       uint             `json:"course_id" gorm:"not null;uniqueIndex:idx_user_course"`
	Status         EnrollmentStatus `json:"status" gorm:"not null;default:Active;index" validate:"omitempty,enrollment_status"`
	EnrolledAt     time.Time        `json:"enrolled_at"`
	CompletionDate *time.Time       `json:"completion_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User   User   `json:"-" gorm:"foreignKey:UserID"`
	Course Course `json:"-" gorm:"foreignKey:CourseID"`
}

func (LessonProgress) TableName() string {
	return "lesson_progresses"
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// MarkCompleted flips the record to completed at the given time, keeping the
// IsCompleted/CompletedAt pairing consistent. StartedAt is backfilled if unset.
func (p *LessonProgress) MarkCompleted(at time.Time) {
	if p.StartedAt == nil {
		started := at
		p.StartedAt = &started
	}
	completed := at
	p.CompletedAt = &completed
	p.IsCompleted = true
}

// MarkUncompleted clears the completion state, keeping the pairing consistent.
func (p *LessonProgress) MarkUncompleted() {
	p.CompletedAt = nil
	p.IsCompleted = false
}

// MarkStatus transitions the enrollment, keeping the Status/CompletionDate
// pairing consistent.
func (e *Enrollment) MarkStatus(status EnrollmentStatus, at time.Time) {
	e.Status = status
	if status == EnrollmentCompleted {
		completed := at
		e.CompletionDate = &completed
	} else {
		e.CompletionDate = nil
	}
}
