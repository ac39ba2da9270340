package services

import (
	"context"
	"testing"
	"time"

	"github.com/SAP-F-2025/learning-progress-service/internal/cache"
	"github.com/SAP-F-2025/learning-progress-service/internal/events"
	"github.com/SAP-F-2025/learning-progress-service/internal/models"
	"github.com/SAP-F-2025/learning-progress-service/internal/repositories"
	"github.com/SAP-F-2025/learning-progress-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCurriculumServiceForTest(repo *MockRepository) (CurriculumService, *events.MockEventPublisher) {
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewCurriculumService(repo, testLogger(), validator.New(), FixedClock{Instant: testInstant}, publisher, cache.NewNoopCache())
	return svc, publisher
}

func TestCurriculumService_AddLesson(t *testing.T) {
	ctx := context.Background()
	actorID := uint(42)

	t.Run("appends after the last sibling and reopens completed enrollments", func(t *testing.T) {
		repo := NewMockRepository()
		svc, publisher := newCurriculumServiceForTest(repo)

		completedAt := testInstant.Add(-24 * time.Hour)
		siblings := []*models.Lesson{
			{ID: 1, ModuleID: 4, OrderIndex: 1},
			{ID: 2, ModuleID: 4, OrderIndex: 2},
		}
		completedEnrollments := []*models.Enrollment{
			{ID: 9, UserID: 7, CourseID: 2, Status: models.EnrollmentCompleted, CompletionDate: &completedAt},
		}

		repo.moduleRepo.On("GetByID", ctx, uint(4)).Return(&models.Module{ID: 4, CourseID: 2}, nil)
		repo.courseRepo.On("IsOwner", ctx, uint(2), actorID).Return(true, nil)
		repo.lessonRepo.On("GetSiblings", ctx, uint(4)).Return(siblings, nil)
		repo.lessonRepo.On("Create", ctx, mock.MatchedBy(func(l *models.Lesson) bool {
			return l.ModuleID == 4 && l.OrderIndex == 3 && l.Type == models.LessonContent
		})).Return(nil)
		repo.enrollmentRepo.On("GetCompletedByCourse", ctx, uint(2)).Return(completedEnrollments, nil)
		repo.enrollmentRepo.On("Update", ctx, mock.MatchedBy(func(e *models.Enrollment) bool {
			return e.Status == models.EnrollmentActive && e.CompletionDate == nil
		})).Return(nil)

		lesson, err := svc.AddLesson(ctx, &AddLessonRequest{ModuleID: 4, Title: "New chapter"}, actorID, false)

		require.NoError(t, err)
		assert.Equal(t, 3, lesson.OrderIndex)

		published := publisher.GetPublishedEvents()
		require.Len(t, published, 2)
		assert.Equal(t, events.EventCourseContentAdded, published[0].Type)
		assert.Equal(t, events.EventEnrollmentReopened, published[1].Type)
		repo.AssertExpectations(t)
	})

	t.Run("quiz lesson type is honored", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newCurriculumServiceForTest(repo)

		repo.moduleRepo.On("GetByID", ctx, uint(4)).Return(&models.Module{ID: 4, CourseID: 2}, nil)
		repo.courseRepo.On("IsOwner", ctx, uint(2), actorID).Return(true, nil)
		repo.lessonRepo.On("GetSiblings", ctx, uint(4)).Return([]*models.Lesson{}, nil)
		repo.lessonRepo.On("Create", ctx, mock.MatchedBy(func(l *models.Lesson) bool {
			return l.Type == models.LessonQuiz && l.OrderIndex == 1
		})).Return(nil)
		repo.enrollmentRepo.On("GetCompletedByCourse", ctx, uint(2)).Return([]*models.Enrollment{}, nil)

		lesson, err := svc.AddLesson(ctx, &AddLessonRequest{ModuleID: 4, Title: "Checkpoint", Type: "Quiz"}, actorID, false)

		require.NoError(t, err)
		assert.Equal(t, models.LessonQuiz, lesson.Type)
	})

	t.Run("non-owner without admin is denied", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newCurriculumServiceForTest(repo)

		repo.moduleRepo.On("GetByID", ctx, uint(4)).Return(&models.Module{ID: 4, CourseID: 2}, nil)
		repo.courseRepo.On("IsOwner", ctx, uint(2), actorID).Return(false, nil)

		lesson, err := svc.AddLesson(ctx, &AddLessonRequest{ModuleID: 4, Title: "New chapter"}, actorID, false)

		var pe *PermissionError
		assert.ErrorAs(t, err, &pe)
		assert.Nil(t, lesson)
	})
}

func TestCurriculumService_AddModule(t *testing.T) {
	ctx := context.Background()

	t.Run("module insert also reopens completed enrollments", func(t *testing.T) {
		repo := NewMockRepository()
		svc, publisher := newCurriculumServiceForTest(repo)

		repo.moduleRepo.On("GetSiblings", ctx, uint(2)).Return([]*models.Module{{ID: 1, OrderIndex: 1}}, nil)
		repo.moduleRepo.On("Create", ctx, mock.MatchedBy(func(m *models.Module) bool {
			return m.CourseID == 2 && m.OrderIndex == 2
		})).Return(nil)
		repo.enrollmentRepo.On("GetCompletedByCourse", ctx, uint(2)).Return([]*models.Enrollment{
			{ID: 9, UserID: 7, CourseID: 2, Status: models.EnrollmentCompleted},
		}, nil)
		repo.enrollmentRepo.On("Update", ctx, mock.AnythingOfType("*models.Enrollment")).Return(nil)

		module, err := svc.AddModule(ctx, &AddModuleRequest{CourseID: 2, Title: "Part two"}, 42, true)

		require.NoError(t, err)
		assert.Equal(t, 2, module.OrderIndex)

		published := publisher.GetPublishedEvents()
		require.Len(t, published, 2)
		assert.Equal(t, events.EventCourseContentAdded, published[0].Type)
		assert.Equal(t, events.EventEnrollmentReopened, published[1].Type)
		repo.AssertExpectations(t)
	})
}

func TestCurriculumService_MoveLesson(t *testing.T) {
	ctx := context.Background()

	t.Run("applies the dense reorder plan", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newCurriculumServiceForTest(repo)

		siblings := []*models.Lesson{
			{ID: 1, ModuleID: 4, OrderIndex: 1},
			{ID: 2, ModuleID: 4, OrderIndex: 2},
			{ID: 3, ModuleID: 4, OrderIndex: 3},
		}

		repo.lessonRepo.On("GetByID", ctx, uint(1)).Return(siblings[0], nil)
		repo.lessonRepo.On("CourseID", ctx, uint(1)).Return(uint(2), nil)
		repo.lessonRepo.On("GetSiblings", ctx, uint(4)).Return(siblings, nil)
		repo.lessonRepo.On("ApplyOrder", ctx, mock.MatchedBy(func(updates []repositories.OrderUpdate) bool {
			return assertDensePlan(updates) && indexByID(updates)[1] == 3
		})).Return(nil)

		err := svc.MoveLesson(ctx, 1, 3, 42, true)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("moving onto the current index writes nothing", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newCurriculumServiceForTest(repo)

		lesson := &models.Lesson{ID: 1, ModuleID: 4, OrderIndex: 1}
		repo.lessonRepo.On("GetByID", ctx, uint(1)).Return(lesson, nil)
		repo.lessonRepo.On("CourseID", ctx, uint(1)).Return(uint(2), nil)
		repo.lessonRepo.On("GetSiblings", ctx, uint(4)).Return([]*models.Lesson{lesson}, nil)

		err := svc.MoveLesson(ctx, 1, 1, 42, true)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("out-of-range target is rejected", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newCurriculumServiceForTest(repo)

		lesson := &models.Lesson{ID: 1, ModuleID: 4, OrderIndex: 1}
		repo.lessonRepo.On("GetByID", ctx, uint(1)).Return(lesson, nil)
		repo.lessonRepo.On("CourseID", ctx, uint(1)).Return(uint(2), nil)
		repo.lessonRepo.On("GetSiblings", ctx, uint(4)).Return([]*models.Lesson{lesson}, nil)

		err := svc.MoveLesson(ctx, 1, 5, 42, true)

		assert.ErrorIs(t, err, ErrInvalidOrderTarget)
	})
}

func TestCurriculumService_DeleteModule(t *testing.T) {
	ctx := context.Background()

	t.Run("deleting the second of four compacts the remaining indices", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newCurriculumServiceForTest(repo)

		siblings := []*models.Module{
			{ID: 1, CourseID: 2, OrderIndex: 1},
			{ID: 2, CourseID: 2, OrderIndex: 2},
			{ID: 3, CourseID: 2, OrderIndex: 3},
			{ID: 4, CourseID: 2, OrderIndex: 4},
		}

		repo.moduleRepo.On("GetByID", ctx, uint(2)).Return(siblings[1], nil)
		repo.moduleRepo.On("GetSiblings", ctx, uint(2)).Return(siblings, nil)
		repo.moduleRepo.On("Delete", ctx, uint(2)).Return(nil)
		repo.moduleRepo.On("ApplyOrder", ctx, mock.MatchedBy(func(updates []repositories.OrderUpdate) bool {
			byID := indexByID(updates)
			return len(updates) == 3 && byID[1] == 1 && byID[3] == 2 && byID[4] == 3
		})).Return(nil)

		err := svc.DeleteModule(ctx, 2, 42, true)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("unknown module is reported as not found", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newCurriculumServiceForTest(repo)

		repo.moduleRepo.On("GetByID", ctx, uint(2)).Return(nil, gorm.ErrRecordNotFound)

		err := svc.DeleteModule(ctx, 2, 42, true)

		assert.ErrorIs(t, err, ErrModuleNotFound)
	})
}

func TestCurriculumService_AddQuestion(t *testing.T) {
	ctx := context.Background()

	validOptions := []OptionInput{
		{Text: "Right", IsCorrect: true},
		{Text: "Wrong", IsCorrect: false},
	}

	t.Run("appends the question with its option set", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newCurriculumServiceForTest(repo)

		repo.lessonRepo.On("GetByID", ctx, uint(5)).Return(&models.Lesson{ID: 5, Type: models.LessonQuiz}, nil)
		repo.lessonRepo.On("CourseID", ctx, uint(5)).Return(uint(2), nil)
		repo.questionRepo.On("GetSiblings", ctx, uint(5)).Return([]*models.QuizQuestion{{ID: 1, OrderIndex: 1}}, nil)
		repo.questionRepo.On("Create", ctx, mock.MatchedBy(func(q *models.QuizQuestion) bool {
			return q.OrderIndex == 2 && len(q.Options) == 2
		})).Return(nil)

		question, err := svc.AddQuestion(ctx, &AddQuestionRequest{
			LessonID: 5,
			Text:     "Which one?",
			Type:     "SingleChoice",
			Options:  validOptions,
		}, 42, true)

		require.NoError(t, err)
		assert.Equal(t, 2, question.OrderIndex)
		repo.AssertExpectations(t)
	})

	t.Run("single choice with two correct options is rejected", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newCurriculumServiceForTest(repo)

		repo.lessonRepo.On("GetByID", ctx, uint(5)).Return(&models.Lesson{ID: 5, Type: models.LessonQuiz}, nil)
		repo.lessonRepo.On("CourseID", ctx, uint(5)).Return(uint(2), nil)

		question, err := svc.AddQuestion(ctx, &AddQuestionRequest{
			LessonID: 5,
			Text:     "Which one?",
			Type:     "SingleChoice",
			Options: []OptionInput{
				{Text: "A", IsCorrect: true},
				{Text: "B", IsCorrect: true},
			},
		}, 42, true)

		assert.ErrorIs(t, err, ErrBadRequest)
		assert.Nil(t, question)
	})

	t.Run("content lesson cannot take questions", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newCurriculumServiceForTest(repo)

		repo.lessonRepo.On("GetByID", ctx, uint(5)).Return(&models.Lesson{ID: 5, Type: models.LessonContent}, nil)

		question, err := svc.AddQuestion(ctx, &AddQuestionRequest{
			LessonID: 5,
			Text:     "Which one?",
			Type:     "SingleChoice",
			Options:  validOptions,
		}, 42, true)

		assert.ErrorIs(t, err, ErrLessonNotQuiz)
		assert.Nil(t, question)
	})
}

func TestCurriculumService_OptionGuards(t *testing.T) {
	ctx := context.Background()

	question := &models.QuizQuestion{ID: 1, LessonID: 5, Type: models.SingleChoice}

	t.Run("adding a second correct option to single choice is rejected", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newCurriculumServiceForTest(repo)

		repo.questionRepo.On("GetByID", ctx, uint(1)).Return(question, nil)
		repo.lessonRepo.On("CourseID", ctx, uint(5)).Return(uint(2), nil)
		repo.questionRepo.On("CountCorrectOptions", ctx, uint(1)).Return(1, nil)

		option, err := svc.AddOption(ctx, &AddOptionRequest{QuestionID: 1, Text: "Also right", IsCorrect: true}, 42, true)

		assert.ErrorIs(t, err, ErrSingleChoiceCorrect)
		assert.Nil(t, option)
	})

	t.Run("unmarking the only correct option is rejected", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newCurriculumServiceForTest(repo)

		incorrect := false
		repo.questionRepo.On("GetOption", ctx, uint(10)).Return(&models.QuizOption{ID: 10, QuestionID: 1, IsCorrect: true}, nil)
		repo.questionRepo.On("GetByID", ctx, uint(1)).Return(question, nil)
		repo.lessonRepo.On("CourseID", ctx, uint(5)).Return(uint(2), nil)
		repo.questionRepo.On("CountCorrectOptions", ctx, uint(1)).Return(1, nil)

		option, err := svc.UpdateOption(ctx, 10, &UpdateOptionRequest{IsCorrect: &incorrect}, 42, true)

		assert.ErrorIs(t, err, ErrOptionLastCorrect)
		assert.Nil(t, option)
	})

	t.Run("deleting below two options is rejected", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newCurriculumServiceForTest(repo)

		repo.questionRepo.On("GetOption", ctx, uint(10)).Return(&models.QuizOption{ID: 10, QuestionID: 1}, nil)
		repo.questionRepo.On("GetByID", ctx, uint(1)).Return(question, nil)
		repo.lessonRepo.On("CourseID", ctx, uint(5)).Return(uint(2), nil)
		repo.questionRepo.On("CountOptions", ctx, uint(1)).Return(2, nil)

		err := svc.DeleteOption(ctx, 10, 42, true)

		assert.ErrorIs(t, err, ErrOptionMinimum)
	})

	t.Run("deleting the last correct option is rejected", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newCurriculumServiceForTest(repo)

		repo.questionRepo.On("GetOption", ctx, uint(10)).Return(&models.QuizOption{ID: 10, QuestionID: 1, IsCorrect: true}, nil)
		repo.questionRepo.On("GetByID", ctx, uint(1)).Return(question, nil)
		repo.lessonRepo.On("CourseID", ctx, uint(5)).Return(uint(2), nil)
		repo.questionRepo.On("CountOptions", ctx, uint(1)).Return(3, nil)
		repo.questionRepo.On("CountCorrectOptions", ctx, uint(1)).Return(1, nil)

		err := svc.DeleteOption(ctx, 10, 42, true)

		assert.ErrorIs(t, err, ErrOptionLastCorrect)
	})

	t.Run("deleting a redundant incorrect option succeeds", func(t *testing.T) {
		repo := NewMockRepository()
		svc, _ := newCurriculumServiceForTest(repo)

		repo.questionRepo.On("GetOption", ctx, uint(10)).Return(&models.QuizOption{ID: 10, QuestionID: 1, IsCorrect: false}, nil)
		repo.questionRepo.On("GetByID", ctx, uint(1)).Return(question, nil)
		repo.lessonRepo.On("CourseID", ctx, uint(5)).Return(uint(2), nil)
		repo.questionRepo.On("CountOptions", ctx, uint(1)).Return(3, nil)
		repo.questionRepo.On("DeleteOption", ctx, uint(10)).Return(nil)

		err := svc.DeleteOption(ctx, 10, 42, true)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

// assertDensePlan reports whether the plan assigns exactly the indices 1..N.
func assertDensePlan(updates []repositories.OrderUpdate) bool {
	seen := make(map[int]bool, len(updates))
	for _, u := range updates {
		if u.OrderIndex < 1 || u.OrderIndex > len(updates) || seen[u.OrderIndex] {
			return false
		}
		seen[u.OrderIndex] = true
	}
	return true
}
