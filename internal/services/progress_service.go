package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/SAP-F-2025/learning-progress-service/internal/cache"
	"github.com/SAP-F-2025/learning-progress-service/internal/events"
	"github.com/SAP-F-2025/learning-progress-service/internal/models"
	"github.com/SAP-F-2025/learning-progress-service/internal/repositories"
)

// ProgressService owns per-user lesson completion records and drives the
// enrollment completion state machine, including the stale-completion
// invalidation triggered by curriculum edits.
type ProgressService interface {
	Enroll(ctx context.Context, userID, courseID uint) (*models.Enrollment, error)

	StartLesson(ctx context.Context, userID, lessonID uint) (*models.LessonProgress, error)
	CompleteLesson(ctx context.Context, userID, lessonID uint) (*models.LessonProgress, error)
	UncompleteLesson(ctx context.Context, userID, lessonID uint) (*models.LessonProgress, error)

	GetCourseProgress(ctx context.Context, userID, courseID uint) (*CourseProgressResponse, error)

	// OverrideEnrollmentStatus sets the status directly, bypassing lesson-driven
	// logic. The isAdmin decision is supplied by the caller's access control.
	OverrideEnrollmentStatus(ctx context.Context, enrollmentID uint, status models.EnrollmentStatus, actorID uint, isAdmin bool) (*models.Enrollment, error)

	// ReopenCompletedEnrollments forces every Completed enrollment of the course
	// back to Active. Runs whenever course content grows.
	ReopenCompletedEnrollments(ctx context.Context, courseID uint) (int, error)
}

// CourseProgressResponse is the read-only progress aggregate for one user and
// course.
type CourseProgressResponse struct {
	CourseID         uint                    `json:"course_id"`
	UserID           uint                    `json:"user_id"`
	TotalLessons     int                     `json:"total_lessons"`
	CompletedLessons int                     `json:"completed_lessons"`
	Percentage       float64                 `json:"percentage"`
	Status           models.EnrollmentStatus `json:"status,omitempty"`
}

const progressCacheTTL = 5 * time.Minute

type progressService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	clock     Clock
	publisher events.EventPublisher
	cache     cache.CacheService
}

func NewProgressService(repo repositories.Repository, logger *slog.Logger, clock Clock, publisher events.EventPublisher, cacheService cache.CacheService) ProgressService {
	return &progressService{
		repo:      repo,
		logger:    logger,
		clock:     clock,
		publisher: publisher,
		cache:     cacheService,
	}
}

// ===== ENROLLMENT =====

func (s *progressService) Enroll(ctx context.Context, userID, courseID uint) (*models.Enrollment, error) {
	s.logger.Info("Enrolling user", "user_id", userID, "course_id", courseID)

	if _, err := s.repo.Course().GetByID(ctx, courseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if _, err := s.repo.Enrollment().GetByUserAndCourse(ctx, userID, courseID); err == nil {
		return nil, ErrAlreadyEnrolled
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing enrollment: %w", err)
	}

	enrollment := &models.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		Status:     models.EnrollmentActive,
		EnrolledAt: s.clock.Now(),
	}
	if err := s.repo.Enrollment().Create(ctx, enrollment); err != nil {
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	// A progress view cached before enrolling carries no status; drop it so the
	// next read reflects the new enrollment.
	s.invalidateProgress(ctx, userID, courseID)

	return enrollment, nil
}

// ===== LESSON PROGRESS =====

// StartLesson is idempotent: an existing record is returned untouched so a
// second start never overwrites the original StartedAt or a completion.
func (s *progressService) StartLesson(ctx context.Context, userID, lessonID uint) (*models.LessonProgress, error) {
	if _, err := s.repo.Lesson().CourseID(ctx, lessonID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to resolve lesson: %w", err)
	}

	existing, err := s.repo.Progress().GetByUserAndLesson(ctx, userID, lessonID)
	if err == nil {
		return existing, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get lesson progress: %w", err)
	}

	started := s.clock.Now()
	progress := &models.LessonProgress{
		UserID:      userID,
		LessonID:    lessonID,
		StartedAt:   &started,
		IsCompleted: false,
	}
	if err := s.repo.Progress().Create(ctx, progress); err != nil {
		return nil, fmt.Errorf("failed to create lesson progress: %w", err)
	}

	s.logger.Info("Lesson started", "user_id", userID, "lesson_id", lessonID)
	return progress, nil
}

func (s *progressService) CompleteLesson(ctx context.Context, userID, lessonID uint) (*models.LessonProgress, error) {
	s.logger.Info("Completing lesson", "user_id", userID, "lesson_id", lessonID)

	now := s.clock.Now()
	var progress *models.LessonProgress
	var completedEnrollment *models.Enrollment
	var courseID uint

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		var err error
		progress, completedEnrollment, courseID, err = applyLessonCompletion(ctx, txRepo, userID, lessonID, now, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidateProgress(ctx, userID, courseID)
	s.publishLessonCompleted(ctx, userID, lessonID, courseID, completedEnrollment)

	return progress, nil
}

func (s *progressService) UncompleteLesson(ctx context.Context, userID, lessonID uint) (*models.LessonProgress, error) {
	s.logger.Info("Uncompleting lesson", "user_id", userID, "lesson_id", lessonID)

	now := s.clock.Now()
	var progress *models.LessonProgress
	var reopened *models.Enrollment
	var courseID uint

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		var err error
		courseID, err = txRepo.Lesson().CourseID(ctx, lessonID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrLessonNotFound
			}
			return fmt.Errorf("failed to resolve lesson: %w", err)
		}

		progress, err = txRepo.Progress().GetByUserAndLesson(ctx, userID, lessonID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrProgressNotCompleted
			}
			return fmt.Errorf("failed to get lesson progress: %w", err)
		}
		if !progress.IsCompleted {
			return ErrProgressNotCompleted
		}

		progress.MarkUncompleted()
		if err := txRepo.Progress().Update(ctx, progress); err != nil {
			return fmt.Errorf("failed to update lesson progress: %w", err)
		}

		// A single uncompleted lesson is enough to reopen the enrollment; no
		// recount of the remaining lessons happens here.
		enrollment, err := txRepo.Enrollment().GetByUserAndCourse(ctx, userID, courseID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil
			}
			return fmt.Errorf("failed to get enrollment: %w", err)
		}
		if enrollment.Status == models.EnrollmentCompleted {
			enrollment.MarkStatus(models.EnrollmentActive, now)
			if err := txRepo.Enrollment().Update(ctx, enrollment); err != nil {
				return fmt.Errorf("failed to reopen enrollment: %w", err)
			}
			reopened = enrollment
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateProgress(ctx, userID, courseID)
	if reopened != nil {
		s.publish(ctx, events.NewProgressEvent(events.EventEnrollmentReopened, now).
			WithUser(userID).
			WithCourse(courseID).
			WithEnrollment(reopened.ID).
			WithPayload("reason", "lesson_uncompleted"))
	}

	return progress, nil
}

// ===== PROGRESS VIEW =====

func (s *progressService) GetCourseProgress(ctx context.Context, userID, courseID uint) (*CourseProgressResponse, error) {
	cacheKey := cache.ProgressKey(userID, courseID)
	var cached CourseProgressResponse
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	if _, err := s.repo.Course().GetByID(ctx, courseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	summary, err := s.repo.Progress().GetCourseSummary(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress summary: %w", err)
	}

	response := &CourseProgressResponse{
		CourseID:         courseID,
		UserID:           userID,
		TotalLessons:     summary.TotalLessons,
		CompletedLessons: summary.CompletedLessons,
		Percentage:       progressPercentage(summary.CompletedLessons, summary.TotalLessons),
	}

	enrollment, err := s.repo.Enrollment().GetByUserAndCourse(ctx, userID, courseID)
	if err == nil {
		response.Status = enrollment.Status
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	if err := s.cache.Set(ctx, cacheKey, response, progressCacheTTL); err != nil {
		s.logger.Warn("Failed to cache course progress", "key", cacheKey, "error", err)
	}

	return response, nil
}

// progressPercentage rounds completed/total to one decimal place, as a value in
// [0, 100]. A course with no lessons reports 0.
func progressPercentage(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*1000) / 10
}

// ===== ADMINISTRATIVE OVERRIDE =====

func (s *progressService) OverrideEnrollmentStatus(ctx context.Context, enrollmentID uint, status models.EnrollmentStatus, actorID uint, isAdmin bool) (*models.Enrollment, error) {
	s.logger.Info("Overriding enrollment status",
		"enrollment_id", enrollmentID,
		"status", status,
		"actor_id", actorID)

	if !isAdmin {
		return nil, NewPermissionError(actorID, enrollmentID, "enrollment", "override_status", "administrative override requires admin role")
	}

	now := s.clock.Now()
	var enrollment *models.Enrollment
	var wasCompleted bool

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		var err error
		enrollment, err = txRepo.Enrollment().GetByID(ctx, enrollmentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrEnrollmentNotFound
			}
			return fmt.Errorf("failed to get enrollment: %w", err)
		}
		wasCompleted = enrollment.Status == models.EnrollmentCompleted

		if status == models.EnrollmentCompleted {
			if err := forwardFillProgress(ctx, txRepo, enrollment.UserID, enrollment.CourseID, now); err != nil {
				return err
			}
		}

		// Non-Completed overrides only clear the completion date; individual
		// lesson progress rows are left as they are.
		enrollment.MarkStatus(status, now)
		if err := txRepo.Enrollment().Update(ctx, enrollment); err != nil {
			return fmt.Errorf("failed to update enrollment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateProgress(ctx, enrollment.UserID, enrollment.CourseID)
	switch {
	case status == models.EnrollmentCompleted:
		s.publish(ctx, events.NewProgressEvent(events.EventEnrollmentCompleted, now).
			WithUser(enrollment.UserID).
			WithCourse(enrollment.CourseID).
			WithEnrollment(enrollment.ID).
			WithPayload("override_by", actorID))
	case wasCompleted:
		s.publish(ctx, events.NewProgressEvent(events.EventEnrollmentReopened, now).
			WithUser(enrollment.UserID).
			WithCourse(enrollment.CourseID).
			WithEnrollment(enrollment.ID).
			WithPayload("override_by", actorID))
	}

	return enrollment, nil
}

// forwardFillProgress synthesizes a completed progress row for every lesson in
// the course the user does not have one for, and completes the rows that exist.
func forwardFillProgress(ctx context.Context, repo repositories.Repository, userID, courseID uint, now time.Time) error {
	lessons, err := repo.Lesson().GetByCourse(ctx, courseID)
	if err != nil {
		return fmt.Errorf("failed to get course lessons: %w", err)
	}

	existing, err := repo.Progress().GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return fmt.Errorf("failed to get existing progress: %w", err)
	}
	byLesson := make(map[uint]*models.LessonProgress, len(existing))
	for _, p := range existing {
		byLesson[p.LessonID] = p
	}

	var missing []*models.LessonProgress
	for _, lesson := range lessons {
		if progress, ok := byLesson[lesson.ID]; ok {
			if !progress.IsCompleted {
				progress.MarkCompleted(now)
				if err := repo.Progress().Update(ctx, progress); err != nil {
					return fmt.Errorf("failed to complete progress for lesson %d: %w", lesson.ID, err)
				}
			}
			continue
		}
		fresh := &models.LessonProgress{UserID: userID, LessonID: lesson.ID}
		fresh.MarkCompleted(now)
		missing = append(missing, fresh)
	}

	if err := repo.Progress().CreateBatch(ctx, missing); err != nil {
		return fmt.Errorf("failed to create forward-filled progress: %w", err)
	}
	return nil
}

// ===== STRUCTURAL INVALIDATION =====

func (s *progressService) ReopenCompletedEnrollments(ctx context.Context, courseID uint) (int, error) {
	now := s.clock.Now()
	var reopened []*models.Enrollment

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		var err error
		reopened, err = reopenCompletedEnrollments(ctx, txRepo, courseID, now)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.finishReopen(ctx, courseID, now, reopened)
	return len(reopened), nil
}

// reopenCompletedEnrollments is the transaction-scoped sweep shared with the
// curriculum service: every Completed enrollment of the course goes back to
// Active because the lesson denominator grew and the 100% figure is stale. The
// sweep is deliberately course-wide, not narrowed per user.
func reopenCompletedEnrollments(ctx context.Context, repo repositories.Repository, courseID uint, now time.Time) ([]*models.Enrollment, error) {
	completed, err := repo.Enrollment().GetCompletedByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed enrollments: %w", err)
	}

	for _, enrollment := range completed {
		enrollment.MarkStatus(models.EnrollmentActive, now)
		if err := repo.Enrollment().Update(ctx, enrollment); err != nil {
			return nil, fmt.Errorf("failed to reopen enrollment %d: %w", enrollment.ID, err)
		}
	}
	return completed, nil
}

// finishReopen handles the cache and event fan-out after a reopen sweep has
// committed.
func (s *progressService) finishReopen(ctx context.Context, courseID uint, now time.Time, reopened []*models.Enrollment) {
	if err := s.cache.DeletePattern(ctx, cache.CoursePattern(courseID)); err != nil {
		s.logger.Warn("Failed to invalidate course progress cache", "course_id", courseID, "error", err)
	}
	for _, enrollment := range reopened {
		s.publish(ctx, events.NewProgressEvent(events.EventEnrollmentReopened, now).
			WithUser(enrollment.UserID).
			WithCourse(courseID).
			WithEnrollment(enrollment.ID).
			WithPayload("reason", "course_content_added"))
	}
	if len(reopened) > 0 {
		s.logger.Info("Reopened completed enrollments", "course_id", courseID, "count", len(reopened))
	}
}

// ===== SHARED COMPLETION LOGIC =====

// applyLessonCompletion upserts the completed progress record and, when the
// user's completed count reaches the course total, transitions the enrollment
// to Completed. Used inside a transaction by both the direct completion path
// and the quiz pass path (which back-dates startedIfNew).
func applyLessonCompletion(ctx context.Context, repo repositories.Repository, userID, lessonID uint, startedIfNew, completedAt time.Time) (*models.LessonProgress, *models.Enrollment, uint, error) {
	courseID, err := repo.Lesson().CourseID(ctx, lessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, 0, ErrLessonNotFound
		}
		return nil, nil, 0, fmt.Errorf("failed to resolve lesson: %w", err)
	}

	progress, err := repo.Progress().GetByUserAndLesson(ctx, userID, lessonID)
	switch {
	case err == nil:
		if !progress.IsCompleted {
			progress.MarkCompleted(completedAt)
			if err := repo.Progress().Update(ctx, progress); err != nil {
				return nil, nil, 0, fmt.Errorf("failed to update lesson progress: %w", err)
			}
		}
	case repositories.IsNotFoundError(err):
		progress = &models.LessonProgress{
			UserID:    userID,
			LessonID:  lessonID,
			StartedAt: &startedIfNew,
		}
		progress.MarkCompleted(completedAt)
		if err := repo.Progress().Create(ctx, progress); err != nil {
			return nil, nil, 0, fmt.Errorf("failed to create lesson progress: %w", err)
		}
	default:
		return nil, nil, 0, fmt.Errorf("failed to get lesson progress: %w", err)
	}

	total, err := repo.Course().CountLessons(ctx, courseID)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to count course lessons: %w", err)
	}
	completed, err := repo.Progress().CountCompletedByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}

	if total == 0 || completed < total {
		return progress, nil, courseID, nil
	}

	enrollment, err := repo.Enrollment().GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return progress, nil, courseID, nil
		}
		return nil, nil, 0, fmt.Errorf("failed to get enrollment: %w", err)
	}
	if enrollment.Status == models.EnrollmentCompleted {
		return progress, nil, courseID, nil
	}

	enrollment.MarkStatus(models.EnrollmentCompleted, completedAt)
	if err := repo.Enrollment().Update(ctx, enrollment); err != nil {
		return nil, nil, 0, fmt.Errorf("failed to complete enrollment: %w", err)
	}

	return progress, enrollment, courseID, nil
}

// ===== HELPERS =====

func (s *progressService) invalidateProgress(ctx context.Context, userID, courseID uint) {
	if err := s.cache.Delete(ctx, cache.ProgressKey(userID, courseID)); err != nil {
		s.logger.Warn("Failed to invalidate progress cache", "user_id", userID, "course_id", courseID, "error", err)
	}
}

func (s *progressService) publishLessonCompleted(ctx context.Context, userID, lessonID, courseID uint, completedEnrollment *models.Enrollment) {
	now := s.clock.Now()
	s.publish(ctx, events.NewProgressEvent(events.EventLessonCompleted, now).
		WithUser(userID).
		WithCourse(courseID).
		WithLesson(lessonID))

	if completedEnrollment != nil {
		s.publish(ctx, events.NewProgressEvent(events.EventEnrollmentCompleted, now).
			WithUser(userID).
			WithCourse(courseID).
			WithEnrollment(completedEnrollment.ID))
	}
}

func (s *progressService) publish(ctx context.Context, event *events.ProgressEvent) {
	if err := s.publisher.PublishProgressEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish progress event", "event_type", event.Type, "error", err)
	}
}
