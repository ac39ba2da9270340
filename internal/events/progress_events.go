package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of progress event being published.
type EventType string

const (
	EventLessonCompleted     EventType = "lesson.completed"
	EventEnrollmentCompleted EventType = "enrollment.completed"
	EventEnrollmentReopened  EventType = "enrollment.reopened"
	EventCourseContentAdded  EventType = "course.content_added"
	EventQuizAttemptRecorded EventType = "quiz.attempt_recorded"
)

// ProgressEvent is the envelope published to downstream consumers whenever a
// learner's progress state or a course's structure changes. Delivery to
// learners (mail, push, websockets) is not this service's concern; the event
// stream is the integration point.
type ProgressEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`

	UserID       uint `json:"user_id,omitempty"`
	CourseID     uint `json:"course_id,omitempty"`
	LessonID     uint `json:"lesson_id,omitempty"`
	EnrollmentID uint `json:"enrollment_id,omitempty"`

	Payload map[string]interface{} `json:"payload,omitempty"`
}

const (
	eventSource  = "learning-progress-service"
	eventVersion = "1.0"
)

// NewProgressEvent builds an event envelope with a fresh id and the given
// occurrence time.
func NewProgressEvent(eventType EventType, at time.Time) *ProgressEvent {
	return &ProgressEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: at,
		Payload:   make(map[string]interface{}),
	}
}

func (e *ProgressEvent) WithUser(userID uint) *ProgressEvent {
	e.UserID = userID
	return e
}

func (e *ProgressEvent) WithCourse(courseID uint) *ProgressEvent {
	e.CourseID = courseID
	return e
}

func (e *ProgressEvent) WithLesson(lessonID uint) *ProgressEvent {
	e.LessonID = lessonID
	return e
}

func (e *ProgressEvent) WithEnrollment(enrollmentID uint) *ProgressEvent {
	e.EnrollmentID = enrollmentID
	return e
}

func (e *ProgressEvent) WithPayload(key string, value interface{}) *ProgressEvent {
	e.Payload[key] = value
	return e
}
