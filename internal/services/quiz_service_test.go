package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/SAP-F-2025/learning-progress-service/internal/cache"
	"github.com/SAP-F-2025/learning-progress-service/internal/events"
	"github.com/SAP-F-2025/learning-progress-service/internal/models"
	"github.com/SAP-F-2025/learning-progress-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testInstant = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newQuizServiceForTest(repo *MockRepository) (QuizService, *events.MockEventPublisher) {
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewQuizService(repo, testLogger(), validator.New(), FixedClock{Instant: testInstant}, publisher, cache.NewNoopCache())
	return svc, publisher
}

// singleChoiceQuestion builds a question whose first option is correct.
func singleChoiceQuestion(id uint, optionIDs ...uint) models.QuizQuestion {
	q := models.QuizQuestion{ID: id, Text: "pick one", Type: models.SingleChoice}
	for i, optID := range optionIDs {
		q.Options = append(q.Options, models.QuizOption{ID: optID, QuestionID: id, IsCorrect: i == 0})
	}
	return q
}

func multipleChoiceQuestion(id uint, correct []uint, incorrect []uint) models.QuizQuestion {
	q := models.QuizQuestion{ID: id, Text: "pick all that apply", Type: models.MultipleChoice}
	for _, optID := range correct {
		q.Options = append(q.Options, models.QuizOption{ID: optID, QuestionID: id, IsCorrect: true})
	}
	for _, optID := range incorrect {
		q.Options = append(q.Options, models.QuizOption{ID: optID, QuestionID: id, IsCorrect: false})
	}
	return q
}

func quizLesson(id uint, questions ...models.QuizQuestion) *models.Lesson {
	return &models.Lesson{
		ID:        id,
		ModuleID:  1,
		Title:     "Checkpoint quiz",
		Type:      models.LessonQuiz,
		Questions: questions,
	}
}

func TestEvaluateQuestion(t *testing.T) {
	single := singleChoiceQuestion(1, 10, 11, 12)
	multi := multipleChoiceQuestion(2, []uint{20, 21}, []uint{22})

	tests := []struct {
		name     string
		question *models.QuizQuestion
		selected []uint
		expected bool
	}{
		{"single choice correct option", &single, []uint{10}, true},
		{"single choice wrong option", &single, []uint{11}, false},
		{"single choice multiple selections fail even with correct one", &single, []uint{10, 11}, false},
		{"single choice unanswered", &single, nil, false},
		{"single choice unknown option id", &single, []uint{99}, false},
		{"multiple choice exact set", &multi, []uint{21, 20}, true},
		{"multiple choice superset fails", &multi, []uint{20, 21, 22}, false},
		{"multiple choice subset fails", &multi, []uint{20}, false},
		{"multiple choice unanswered", &multi, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, evaluateQuestion(tt.question, tt.selected))
		})
	}

	t.Run("multiple choice with no correct options never passes", func(t *testing.T) {
		broken := multipleChoiceQuestion(3, nil, []uint{30, 31})
		assert.False(t, evaluateQuestion(&broken, nil))
		assert.False(t, evaluateQuestion(&broken, []uint{30}))
	})
}

func TestScoreSubmission(t *testing.T) {
	startedAt := testInstant.Add(-attemptBackdate)

	t.Run("two of three is below the pass threshold", func(t *testing.T) {
		lesson := quizLesson(5,
			singleChoiceQuestion(1, 10, 11),
			singleChoiceQuestion(2, 20, 21),
			singleChoiceQuestion(3, 30, 31),
		)
		answers := map[uint][]uint{1: {10}, 2: {20}, 3: {31}}

		attempt, results := scoreSubmission(lesson, answers, 7, startedAt, testInstant)

		assert.Equal(t, 2, attempt.Score)
		assert.Equal(t, 3, attempt.TotalQuestions)
		assert.False(t, attempt.Passed)
		assert.Len(t, results, 3)
	})

	t.Run("seven of ten passes exactly at the threshold", func(t *testing.T) {
		questions := make([]models.QuizQuestion, 0, 10)
		answers := make(map[uint][]uint, 10)
		for i := uint(1); i <= 10; i++ {
			correctID := i * 10
			questions = append(questions, singleChoiceQuestion(i, correctID, correctID+1))
			if i <= 7 {
				answers[i] = []uint{correctID}
			} else {
				answers[i] = []uint{correctID + 1}
			}
		}
		lesson := quizLesson(5, questions...)

		attempt, _ := scoreSubmission(lesson, answers, 7, startedAt, testInstant)

		assert.Equal(t, 7, attempt.Score)
		assert.True(t, attempt.Passed)
	})

	t.Run("quiz with no questions is never passed", func(t *testing.T) {
		attempt, results := scoreSubmission(quizLesson(5), nil, 7, startedAt, testInstant)

		assert.Equal(t, 0, attempt.TotalQuestions)
		assert.False(t, attempt.Passed)
		assert.Empty(t, results)
	})

	t.Run("unanswered question yields one row with no option", func(t *testing.T) {
		lesson := quizLesson(5, singleChoiceQuestion(1, 10, 11))

		attempt, results := scoreSubmission(lesson, nil, 7, startedAt, testInstant)

		require.Len(t, attempt.Answers, 1)
		assert.Equal(t, uint(1), attempt.Answers[0].QuestionID)
		assert.Nil(t, attempt.Answers[0].SelectedOptionID)
		assert.False(t, attempt.Answers[0].IsCorrect)
		assert.False(t, results[0].Correct)
	})

	t.Run("each selected option becomes one answer row", func(t *testing.T) {
		lesson := quizLesson(5, multipleChoiceQuestion(1, []uint{10, 11}, []uint{12}))
		answers := map[uint][]uint{1: {10, 11}}

		attempt, _ := scoreSubmission(lesson, answers, 7, startedAt, testInstant)

		require.Len(t, attempt.Answers, 2)
		for _, answer := range attempt.Answers {
			require.NotNil(t, answer.SelectedOptionID)
			assert.True(t, answer.IsCorrect)
		}
		assert.Equal(t, startedAt, attempt.StartedAt)
		assert.Equal(t, testInstant, attempt.SubmittedAt)
	})
}

func TestQuizService_Submit(t *testing.T) {
	ctx := context.Background()
	userID := uint(7)

	t.Run("passing submission completes the lesson and the enrollment", func(t *testing.T) {
		repo := NewMockRepository()
		svc, publisher := newQuizServiceForTest(repo)

		lesson := quizLesson(5, singleChoiceQuestion(1, 10, 11))
		enrollment := &models.Enrollment{ID: 3, UserID: userID, CourseID: 2, Status: models.EnrollmentActive}

		repo.lessonRepo.On("GetByIDWithQuestions", ctx, uint(5)).Return(lesson, nil)
		repo.attemptRepo.On("Create", ctx, mock.MatchedBy(func(a *models.QuizAttempt) bool {
			return a.Passed && a.Score == 1 && a.TotalQuestions == 1
		})).Return(nil)
		repo.lessonRepo.On("CourseID", ctx, uint(5)).Return(uint(2), nil)
		repo.progressRepo.On("GetByUserAndLesson", ctx, userID, uint(5)).Return(nil, gorm.ErrRecordNotFound)
		repo.progressRepo.On("Create", ctx, mock.MatchedBy(func(p *models.LessonProgress) bool {
			return p.IsCompleted && p.StartedAt != nil && p.StartedAt.Equal(testInstant.Add(-attemptBackdate))
		})).Return(nil)
		repo.courseRepo.On("CountLessons", ctx, uint(2)).Return(1, nil)
		repo.progressRepo.On("CountCompletedByUserAndCourse", ctx, userID, uint(2)).Return(1, nil)
		repo.enrollmentRepo.On("GetByUserAndCourse", ctx, userID, uint(2)).Return(enrollment, nil)
		repo.enrollmentRepo.On("Update", ctx, mock.MatchedBy(func(e *models.Enrollment) bool {
			return e.Status == models.EnrollmentCompleted && e.CompletionDate != nil
		})).Return(nil)

		result, err := svc.Submit(ctx, &SubmitQuizRequest{LessonID: 5, Answers: map[uint][]uint{1: {10}}}, userID, true)

		require.NoError(t, err)
		assert.True(t, result.Passed)
		assert.True(t, result.LessonCompleted)
		assert.Equal(t, 100.0, result.Percentage)

		published := publisher.GetPublishedEvents()
		require.Len(t, published, 3)
		assert.Equal(t, events.EventQuizAttemptRecorded, published[0].Type)
		assert.Equal(t, events.EventLessonCompleted, published[1].Type)
		assert.Equal(t, events.EventEnrollmentCompleted, published[2].Type)
		repo.AssertExpectations(t)
	})

	t.Run("failing submission records the attempt without touching progress", func(t *testing.T) {
		repo := NewMockRepository()
		svc, publisher := newQuizServiceForTest(repo)

		lesson := quizLesson(5,
			singleChoiceQuestion(1, 10, 11),
			singleChoiceQuestion(2, 20, 21),
			singleChoiceQuestion(3, 30, 31),
		)

		repo.lessonRepo.On("GetByIDWithQuestions", ctx, uint(5)).Return(lesson, nil)
		repo.attemptRepo.On("Create", ctx, mock.MatchedBy(func(a *models.QuizAttempt) bool {
			return !a.Passed && a.Score == 2
		})).Return(nil)

		result, err := svc.Submit(ctx, &SubmitQuizRequest{
			LessonID: 5,
			Answers:  map[uint][]uint{1: {10}, 2: {20}, 3: {31}},
		}, userID, true)

		require.NoError(t, err)
		assert.False(t, result.Passed)
		assert.False(t, result.LessonCompleted)
		assert.Equal(t, 66.7, result.Percentage)

		published := publisher.GetPublishedEvents()
		require.Len(t, published, 1)
		assert.Equal(t, events.EventQuizAttemptRecorded, published[0].Type)
		repo.AssertExpectations(t)
	})

	t.Run("content lesson is rejected", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newQuizServiceForTest(repo)

		repo.lessonRepo.On("GetByIDWithQuestions", ctx, uint(5)).Return(&models.Lesson{ID: 5, Type: models.LessonContent}, nil)

		result, err := svc.Submit(ctx, &SubmitQuizRequest{LessonID: 5}, userID, true)

		assert.ErrorIs(t, err, ErrLessonNotQuiz)
		assert.Nil(t, result)
	})

	t.Run("missing lesson is reported as not found", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newQuizServiceForTest(repo)

		repo.lessonRepo.On("GetByIDWithQuestions", ctx, uint(5)).Return(nil, gorm.ErrRecordNotFound)

		result, err := svc.Submit(ctx, &SubmitQuizRequest{LessonID: 5}, userID, true)

		assert.ErrorIs(t, err, ErrLessonNotFound)
		assert.Nil(t, result)
	})

	t.Run("option id outside the question is rejected before persistence", func(t *testing.T) {
		repo := NewMockRepository()
		svc, publisher := newQuizServiceForTest(repo)

		lesson := quizLesson(5, singleChoiceQuestion(1, 10, 11))
		repo.lessonRepo.On("GetByIDWithQuestions", ctx, uint(5)).Return(lesson, nil)

		result, err := svc.Submit(ctx, &SubmitQuizRequest{LessonID: 5, Answers: map[uint][]uint{1: {999}}}, userID, true)

		assert.ErrorIs(t, err, ErrOptionWrongQuestion)
		assert.Nil(t, result)
		assert.Empty(t, publisher.GetPublishedEvents())
		repo.AssertExpectations(t)
	})

	t.Run("real option id of another question is rejected", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newQuizServiceForTest(repo)

		lesson := quizLesson(5,
			singleChoiceQuestion(1, 10, 11),
			singleChoiceQuestion(2, 20, 21),
		)
		repo.lessonRepo.On("GetByIDWithQuestions", ctx, uint(5)).Return(lesson, nil)

		result, err := svc.Submit(ctx, &SubmitQuizRequest{LessonID: 5, Answers: map[uint][]uint{1: {20}}}, userID, true)

		assert.ErrorIs(t, err, ErrOptionWrongQuestion)
		assert.Nil(t, result)
	})

	t.Run("answer keyed by an unknown question is rejected", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newQuizServiceForTest(repo)

		lesson := quizLesson(5, singleChoiceQuestion(1, 10, 11))
		repo.lessonRepo.On("GetByIDWithQuestions", ctx, uint(5)).Return(lesson, nil)

		result, err := svc.Submit(ctx, &SubmitQuizRequest{LessonID: 5, Answers: map[uint][]uint{42: {10}}}, userID, true)

		assert.ErrorIs(t, err, ErrBadRequest)
		assert.Nil(t, result)
	})

	t.Run("submission without access is denied before any lookup", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newQuizServiceForTest(repo)

		result, err := svc.Submit(ctx, &SubmitQuizRequest{LessonID: 5}, userID, false)

		var pe *PermissionError
		assert.ErrorAs(t, err, &pe)
		assert.Nil(t, result)
		repo.AssertExpectations(t)
	})
}

func TestQuizService_GetAttempt(t *testing.T) {
	ctx := context.Background()

	attempt := &models.QuizAttempt{
		ID:             9,
		UserID:         7,
		LessonID:       5,
		Score:          1,
		TotalQuestions: 1,
		Passed:         true,
		SubmittedAt:    testInstant,
	}

	t.Run("owner reads own attempt", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newQuizServiceForTest(repo)

		selected := uint(10)
		owned := *attempt
		owned.Answers = []models.QuizAnswer{{QuestionID: 1, SelectedOptionID: &selected, IsCorrect: true}}
		repo.attemptRepo.On("GetByIDWithAnswers", ctx, uint(9)).Return(&owned, nil)
		repo.lessonRepo.On("GetByIDWithQuestions", ctx, uint(5)).Return(quizLesson(5, singleChoiceQuestion(1, 10, 11)), nil)

		result, err := svc.GetAttempt(ctx, 9, 7, false)

		require.NoError(t, err)
		assert.Equal(t, uint(9), result.AttemptID)
		require.Len(t, result.Questions, 1)
		assert.True(t, result.Questions[0].Correct)
		assert.Equal(t, []uint{10}, result.Questions[0].SelectedOptionIDs)
	})

	t.Run("instructor reads another user's attempt", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newQuizServiceForTest(repo)

		repo.attemptRepo.On("GetByIDWithAnswers", ctx, uint(9)).Return(attempt, nil)
		repo.lessonRepo.On("GetByIDWithQuestions", ctx, uint(5)).Return(quizLesson(5, singleChoiceQuestion(1, 10, 11)), nil)

		result, err := svc.GetAttempt(ctx, 9, 99, true)

		require.NoError(t, err)
		assert.Equal(t, uint(9), result.AttemptID)
	})

	t.Run("other students are denied", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newQuizServiceForTest(repo)

		repo.attemptRepo.On("GetByIDWithAnswers", ctx, uint(9)).Return(attempt, nil)

		result, err := svc.GetAttempt(ctx, 9, 99, false)

		var pe *PermissionError
		assert.ErrorAs(t, err, &pe)
		assert.Nil(t, result)
	})
}
