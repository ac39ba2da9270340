package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/learning-progress-service/internal/cache"
	"github.com/SAP-F-2025/learning-progress-service/internal/events"
	"github.com/SAP-F-2025/learning-progress-service/internal/models"
	"github.com/SAP-F-2025/learning-progress-service/internal/repositories"
	"github.com/SAP-F-2025/learning-progress-service/internal/validator"
)

// QuizService evaluates submitted answer sets against a quiz lesson's question
// bank, records the attempt, and completes the lesson on a pass.
type QuizService interface {
	// Submit scores the submission. canAccess is the externally supplied access
	// decision for the lesson; the service does not compute authorization.
	Submit(ctx context.Context, req *SubmitQuizRequest, userID uint, canAccess bool) (*QuizResultResponse, error)

	GetAttempt(ctx context.Context, attemptID uint, userID uint, isInstructor bool) (*QuizResultResponse, error)
	GetAttemptsByLesson(ctx context.Context, lessonID uint, userID uint) ([]*models.QuizAttempt, error)
}

// SubmitQuizRequest maps each answered question to the set of selected option
// ids. Questions absent from the map count as unanswered.
type SubmitQuizRequest struct {
	LessonID uint            `json:"lesson_id" validate:"required"`
	Answers  map[uint][]uint `json:"answers"`
}

type QuestionResult struct {
	QuestionID        uint                `json:"question_id"`
	Text              string              `json:"text"`
	Type              models.QuestionType `json:"type"`
	Correct           bool                `json:"correct"`
	SelectedOptionIDs []uint              `json:"selected_option_ids"`
	CorrectOptionIDs  []uint              `json:"correct_option_ids"`
}

type QuizResultResponse struct {
	AttemptID       uint             `json:"attempt_id"`
	LessonID        uint             `json:"lesson_id"`
	Score           int              `json:"score"`
	TotalQuestions  int              `json:"total_questions"`
	Passed          bool             `json:"passed"`
	Percentage      float64          `json:"percentage"`
	SubmittedAt     time.Time        `json:"submitted_at"`
	LessonCompleted bool             `json:"lesson_completed"`
	Questions       []QuestionResult `json:"questions"`
}

const (
	// passThreshold is compared against the raw score fraction, not a rounded
	// percentage.
	passThreshold = 0.70

	// attemptBackdate approximates the attempt start time; the design tracks no
	// true elapsed time.
	attemptBackdate = 5 * time.Minute
)

type quizService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	clock     Clock
	publisher events.EventPublisher
	cache     cache.CacheService
}

func NewQuizService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, clock Clock, publisher events.EventPublisher, cacheService cache.CacheService) QuizService {
	return &quizService{
		repo:      repo,
		logger:    logger,
		validator: v,
		clock:     clock,
		publisher: publisher,
		cache:     cacheService,
	}
}

func (s *quizService) Submit(ctx context.Context, req *SubmitQuizRequest, userID uint, canAccess bool) (*QuizResultResponse, error) {
	s.logger.Info("Scoring quiz submission",
		"lesson_id", req.LessonID,
		"user_id", userID,
		"answered_questions", len(req.Answers))

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if !canAccess {
		return nil, NewPermissionError(userID, req.LessonID, "lesson", "submit_quiz", "no read access to lesson")
	}

	lesson, err := s.repo.Lesson().GetByIDWithQuestions(ctx, req.LessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	if lesson.Type != models.LessonQuiz {
		return nil, ErrLessonNotQuiz
	}
	if err := validateAnswerOptions(lesson, req.Answers); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	startedAt := now.Add(-attemptBackdate)

	attempt, results := scoreSubmission(lesson, req.Answers, userID, startedAt, now)

	var completedEnrollment *models.Enrollment
	var courseID uint
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Attempt().Create(ctx, attempt); err != nil {
			return fmt.Errorf("failed to record attempt: %w", err)
		}
		if !attempt.Passed {
			// A failed attempt never touches progress; an earlier completion
			// stays in place.
			return nil
		}
		var err error
		_, completedEnrollment, courseID, err = applyLessonCompletion(ctx, txRepo, userID, req.LessonID, startedAt, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewProgressEvent(events.EventQuizAttemptRecorded, now).
		WithUser(userID).
		WithLesson(req.LessonID).
		WithPayload("score", attempt.Score).
		WithPayload("total_questions", attempt.TotalQuestions).
		WithPayload("passed", attempt.Passed))

	if attempt.Passed {
		if err := s.cache.Delete(ctx, cache.ProgressKey(userID, courseID)); err != nil {
			s.logger.Warn("Failed to invalidate progress cache", "user_id", userID, "course_id", courseID, "error", err)
		}
		s.publish(ctx, events.NewProgressEvent(events.EventLessonCompleted, now).
			WithUser(userID).
			WithCourse(courseID).
			WithLesson(req.LessonID))
		if completedEnrollment != nil {
			s.publish(ctx, events.NewProgressEvent(events.EventEnrollmentCompleted, now).
				WithUser(userID).
				WithCourse(courseID).
				WithEnrollment(completedEnrollment.ID))
		}
	}

	s.logger.Info("Quiz submission scored",
		"attempt_id", attempt.ID,
		"lesson_id", req.LessonID,
		"user_id", userID,
		"score", attempt.Score,
		"total", attempt.TotalQuestions,
		"passed", attempt.Passed)

	return &QuizResultResponse{
		AttemptID:       attempt.ID,
		LessonID:        req.LessonID,
		Score:           attempt.Score,
		TotalQuestions:  attempt.TotalQuestions,
		Passed:          attempt.Passed,
		Percentage:      progressPercentage(attempt.Score, attempt.TotalQuestions),
		SubmittedAt:     attempt.SubmittedAt,
		LessonCompleted: attempt.Passed,
		Questions:       results,
	}, nil
}

func (s *quizService) GetAttempt(ctx context.Context, attemptID uint, userID uint, isInstructor bool) (*QuizResultResponse, error) {
	attempt, err := s.repo.Attempt().GetByIDWithAnswers(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	if attempt.UserID != userID && !isInstructor {
		return nil, NewPermissionError(userID, attemptID, "attempt", "read", "not owner and not an instructor")
	}

	lesson, err := s.repo.Lesson().GetByIDWithQuestions(ctx, attempt.LessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	return &QuizResultResponse{
		AttemptID:      attempt.ID,
		LessonID:       attempt.LessonID,
		Score:          attempt.Score,
		TotalQuestions: attempt.TotalQuestions,
		Passed:         attempt.Passed,
		Percentage:     progressPercentage(attempt.Score, attempt.TotalQuestions),
		SubmittedAt:    attempt.SubmittedAt,
		Questions:      buildQuestionResults(lesson.Questions, attempt.Answers),
	}, nil
}

func (s *quizService) GetAttemptsByLesson(ctx context.Context, lessonID uint, userID uint) ([]*models.QuizAttempt, error) {
	attempts, err := s.repo.Attempt().GetByUserAndLesson(ctx, userID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, nil
}

// ===== SCORING =====

// validateAnswerOptions rejects a submission that references option ids outside
// the question they answer, including real ids belonging to another question.
// Without this check a bogus id would only fail at the answer-row insert.
func validateAnswerOptions(lesson *models.Lesson, answers map[uint][]uint) error {
	optionsByQuestion := make(map[uint]map[uint]struct{}, len(lesson.Questions))
	for i := range lesson.Questions {
		question := &lesson.Questions[i]
		ids := make(map[uint]struct{}, len(question.Options))
		for _, option := range question.Options {
			ids[option.ID] = struct{}{}
		}
		optionsByQuestion[question.ID] = ids
	}

	for questionID, selected := range answers {
		ids, ok := optionsByQuestion[questionID]
		if !ok {
			return fmt.Errorf("%w: question %d is not part of the quiz", ErrBadRequest, questionID)
		}
		for _, optionID := range selected {
			if _, ok := ids[optionID]; !ok {
				return fmt.Errorf("%w: option %d, question %d", ErrOptionWrongQuestion, optionID, questionID)
			}
		}
	}
	return nil
}

// scoreSubmission evaluates every question of the lesson against the selected
// option sets and assembles the attempt record. One answer row is produced per
// selected option; an unanswered question yields a single row with a nil
// option reference so the question is still marked as seen.
func scoreSubmission(lesson *models.Lesson, answers map[uint][]uint, userID uint, startedAt, submittedAt time.Time) (*models.QuizAttempt, []QuestionResult) {
	attempt := &models.QuizAttempt{
		UserID:         userID,
		LessonID:       lesson.ID,
		TotalQuestions: len(lesson.Questions),
		StartedAt:      startedAt,
		SubmittedAt:    submittedAt,
	}

	results := make([]QuestionResult, 0, len(lesson.Questions))
	for i := range lesson.Questions {
		question := &lesson.Questions[i]
		selected := answers[question.ID]
		correct := evaluateQuestion(question, selected)
		if correct {
			attempt.Score++
		}

		if len(selected) == 0 {
			attempt.Answers = append(attempt.Answers, models.QuizAnswer{
				QuestionID:       question.ID,
				SelectedOptionID: nil,
				IsCorrect:        false,
			})
		} else {
			for _, optionID := range selected {
				id := optionID
				attempt.Answers = append(attempt.Answers, models.QuizAnswer{
					QuestionID:       question.ID,
					SelectedOptionID: &id,
					IsCorrect:        correct,
				})
			}
		}

		results = append(results, QuestionResult{
			QuestionID:        question.ID,
			Text:              question.Text,
			Type:              question.Type,
			Correct:           correct,
			SelectedOptionIDs: selected,
			CorrectOptionIDs:  question.CorrectOptionIDs(),
		})
	}

	attempt.Passed = attempt.TotalQuestions > 0 &&
		float64(attempt.Score)/float64(attempt.TotalQuestions) >= passThreshold

	return attempt, results
}

// evaluateQuestion applies the per-type correctness rule. There is no partial
// credit in either mode.
func evaluateQuestion(question *models.QuizQuestion, selected []uint) bool {
	switch question.Type {
	case models.SingleChoice:
		// Exactly one option selected and it is the correct one. Selecting the
		// correct option plus anything else is incorrect.
		if len(selected) != 1 {
			return false
		}
		for _, option := range question.Options {
			if option.ID == selected[0] {
				return option.IsCorrect
			}
		}
		return false
	case models.MultipleChoice:
		// The selected set must equal the correct set exactly; supersets and
		// subsets both fail.
		return equalIDSets(selected, question.CorrectOptionIDs())
	default:
		return false
	}
}

func equalIDSets(a, b []uint) bool {
	if len(b) == 0 {
		return false
	}
	set := make(map[uint]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	if len(set) != len(b) {
		return false
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

// buildQuestionResults reassembles the per-question report from the stored
// per-option answer rows.
func buildQuestionResults(questions []models.QuizQuestion, answers []models.QuizAnswer) []QuestionResult {
	selectedByQuestion := make(map[uint][]uint)
	correctByQuestion := make(map[uint]bool)
	for _, answer := range answers {
		if answer.SelectedOptionID != nil {
			selectedByQuestion[answer.QuestionID] = append(selectedByQuestion[answer.QuestionID], *answer.SelectedOptionID)
		}
		if answer.IsCorrect {
			correctByQuestion[answer.QuestionID] = true
		}
	}

	results := make([]QuestionResult, 0, len(questions))
	for i := range questions {
		question := &questions[i]
		results = append(results, QuestionResult{
			QuestionID:        question.ID,
			Text:              question.Text,
			Type:              question.Type,
			Correct:           correctByQuestion[question.ID],
			SelectedOptionIDs: selectedByQuestion[question.ID],
			CorrectOptionIDs:  question.CorrectOptionIDs(),
		})
	}
	return results
}

func (s *quizService) publish(ctx context.Context, event *events.ProgressEvent) {
	if err := s.publisher.PublishProgressEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish progress event", "event_type", event.Type, "error", err)
	}
}
