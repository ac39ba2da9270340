package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/learning-progress-service/internal/cache"
	"github.com/SAP-F-2025/learning-progress-service/internal/models"
	"github.com/SAP-F-2025/learning-progress-service/internal/repositories"
	"github.com/stretchr/testify/mock"
)

// Mock implementations of the repository interfaces. WithTransaction runs the
// closure against the same mock so transactional paths are exercised directly.

// ===== COURSE =====

type MockCourseRepository struct {
	mock.Mock
}

func (m *MockCourseRepository) Create(ctx context.Context, course *models.Course) error {
	args := m.Called(ctx, course)
	return args.Error(0)
}

func (m *MockCourseRepository) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}

func (m *MockCourseRepository) GetByIDWithContent(ctx context.Context, id uint) (*models.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}

func (m *MockCourseRepository) Update(ctx context.Context, course *models.Course) error {
	args := m.Called(ctx, course)
	return args.Error(0)
}

func (m *MockCourseRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCourseRepository) List(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Course), args.Get(1).(int64), args.Error(2)
}

func (m *MockCourseRepository) CountLessons(ctx context.Context, courseID uint) (int, error) {
	args := m.Called(ctx, courseID)
	return args.Int(0), args.Error(1)
}

func (m *MockCourseRepository) IsOwner(ctx context.Context, courseID uint, userID uint) (bool, error) {
	args := m.Called(ctx, courseID, userID)
	return args.Bool(0), args.Error(1)
}

// ===== MODULE =====

type MockModuleRepository struct {
	mock.Mock
}

func (m *MockModuleRepository) Create(ctx context.Context, module *models.Module) error {
	args := m.Called(ctx, module)
	return args.Error(0)
}

func (m *MockModuleRepository) GetByID(ctx context.Context, id uint) (*models.Module, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Module), args.Error(1)
}

func (m *MockModuleRepository) Update(ctx context.Context, module *models.Module) error {
	args := m.Called(ctx, module)
	return args.Error(0)
}

func (m *MockModuleRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockModuleRepository) GetSiblings(ctx context.Context, courseID uint) ([]*models.Module, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Module), args.Error(1)
}

func (m *MockModuleRepository) ApplyOrder(ctx context.Context, updates []repositories.OrderUpdate) error {
	args := m.Called(ctx, updates)
	return args.Error(0)
}

// ===== LESSON =====

type MockLessonRepository struct {
	mock.Mock
}

func (m *MockLessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	args := m.Called(ctx, lesson)
	return args.Error(0)
}

func (m *MockLessonRepository) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lesson), args.Error(1)
}

func (m *MockLessonRepository) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Lesson, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lesson), args.Error(1)
}

func (m *MockLessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	args := m.Called(ctx, lesson)
	return args.Error(0)
}

func (m *MockLessonRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLessonRepository) GetSiblings(ctx context.Context, moduleID uint) ([]*models.Lesson, error) {
	args := m.Called(ctx, moduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Lesson), args.Error(1)
}

func (m *MockLessonRepository) GetByCourse(ctx context.Context, courseID uint) ([]*models.Lesson, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Lesson), args.Error(1)
}

func (m *MockLessonRepository) CourseID(ctx context.Context, lessonID uint) (uint, error) {
	args := m.Called(ctx, lessonID)
	return args.Get(0).(uint), args.Error(1)
}

func (m *MockLessonRepository) ApplyOrder(ctx context.Context, updates []repositories.OrderUpdate) error {
	args := m.Called(ctx, updates)
	return args.Error(0)
}

// ===== QUESTION =====

type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) Create(ctx context.Context, question *models.QuizQuestion) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetByID(ctx context.Context, id uint) (*models.QuizQuestion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizQuestion), args.Error(1)
}

func (m *MockQuestionRepository) GetByIDWithOptions(ctx context.Context, id uint) (*models.QuizQuestion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizQuestion), args.Error(1)
}

func (m *MockQuestionRepository) Update(ctx context.Context, question *models.QuizQuestion) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockQuestionRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetSiblings(ctx context.Context, lessonID uint) ([]*models.QuizQuestion, error) {
	args := m.Called(ctx, lessonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.QuizQuestion), args.Error(1)
}

func (m *MockQuestionRepository) ApplyOrder(ctx context.Context, updates []repositories.OrderUpdate) error {
	args := m.Called(ctx, updates)
	return args.Error(0)
}

func (m *MockQuestionRepository) CreateOption(ctx context.Context, option *models.QuizOption) error {
	args := m.Called(ctx, option)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetOption(ctx context.Context, id uint) (*models.QuizOption, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizOption), args.Error(1)
}

func (m *MockQuestionRepository) UpdateOption(ctx context.Context, option *models.QuizOption) error {
	args := m.Called(ctx, option)
	return args.Error(0)
}

func (m *MockQuestionRepository) DeleteOption(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetOptions(ctx context.Context, questionID uint) ([]*models.QuizOption, error) {
	args := m.Called(ctx, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.QuizOption), args.Error(1)
}

func (m *MockQuestionRepository) CountOptions(ctx context.Context, questionID uint) (int, error) {
	args := m.Called(ctx, questionID)
	return args.Int(0), args.Error(1)
}

func (m *MockQuestionRepository) CountCorrectOptions(ctx context.Context, questionID uint) (int, error) {
	args := m.Called(ctx, questionID)
	return args.Int(0), args.Error(1)
}

// ===== PROGRESS =====

type MockProgressRepository struct {
	mock.Mock
}

func (m *MockProgressRepository) Create(ctx context.Context, progress *models.LessonProgress) error {
	args := m.Called(ctx, progress)
	return args.Error(0)
}

func (m *MockProgressRepository) CreateBatch(ctx context.Context, progresses []*models.LessonProgress) error {
	args := m.Called(ctx, progresses)
	return args.Error(0)
}

func (m *MockProgressRepository) GetByUserAndLesson(ctx context.Context, userID, lessonID uint) (*models.LessonProgress, error) {
	args := m.Called(ctx, userID, lessonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LessonProgress), args.Error(1)
}

func (m *MockProgressRepository) Update(ctx context.Context, progress *models.LessonProgress) error {
	args := m.Called(ctx, progress)
	return args.Error(0)
}

func (m *MockProgressRepository) DeleteByUserAndCourse(ctx context.Context, userID, courseID uint) error {
	args := m.Called(ctx, userID, courseID)
	return args.Error(0)
}

func (m *MockProgressRepository) CountCompletedByUserAndCourse(ctx context.Context, userID, courseID uint) (int, error) {
	args := m.Called(ctx, userID, courseID)
	return args.Int(0), args.Error(1)
}

func (m *MockProgressRepository) GetByUserAndCourse(ctx context.Context, userID, courseID uint) ([]*models.LessonProgress, error) {
	args := m.Called(ctx, userID, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LessonProgress), args.Error(1)
}

func (m *MockProgressRepository) GetCourseSummary(ctx context.Context, userID, courseID uint) (*repositories.CourseProgressSummary, error) {
	args := m.Called(ctx, userID, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.CourseProgressSummary), args.Error(1)
}

// ===== ENROLLMENT =====

type MockEnrollmentRepository struct {
	mock.Mock
}

func (m *MockEnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	args := m.Called(ctx, enrollment)
	return args.Error(0)
}

func (m *MockEnrollmentRepository) GetByID(ctx context.Context, id uint) (*models.Enrollment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Enrollment), args.Error(1)
}

func (m *MockEnrollmentRepository) GetByUserAndCourse(ctx context.Context, userID, courseID uint) (*models.Enrollment, error) {
	args := m.Called(ctx, userID, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Enrollment), args.Error(1)
}

func (m *MockEnrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) error {
	args := m.Called(ctx, enrollment)
	return args.Error(0)
}

func (m *MockEnrollmentRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEnrollmentRepository) List(ctx context.Context, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Enrollment), args.Get(1).(int64), args.Error(2)
}

func (m *MockEnrollmentRepository) GetCompletedByCourse(ctx context.Context, courseID uint) ([]*models.Enrollment, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Enrollment), args.Error(1)
}

// ===== ATTEMPT =====

type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetByID(ctx context.Context, id uint) (*models.QuizAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizAttempt), args.Error(1)
}

func (m *MockAttemptRepository) GetByIDWithAnswers(ctx context.Context, id uint) (*models.QuizAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizAttempt), args.Error(1)
}

func (m *MockAttemptRepository) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.QuizAttempt), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttemptRepository) GetByUserAndLesson(ctx context.Context, userID, lessonID uint) ([]*models.QuizAttempt, error) {
	args := m.Called(ctx, userID, lessonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.QuizAttempt), args.Error(1)
}

// ===== USER =====

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// ===== AGGREGATE =====

type MockRepository struct {
	courseRepo     *MockCourseRepository
	moduleRepo     *MockModuleRepository
	lessonRepo     *MockLessonRepository
	questionRepo   *MockQuestionRepository
	progressRepo   *MockProgressRepository
	enrollmentRepo *MockEnrollmentRepository
	attemptRepo    *MockAttemptRepository
	userRepo       *MockUserRepository
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		courseRepo:     &MockCourseRepository{},
		moduleRepo:     &MockModuleRepository{},
		lessonRepo:     &MockLessonRepository{},
		questionRepo:   &MockQuestionRepository{},
		progressRepo:   &MockProgressRepository{},
		enrollmentRepo: &MockEnrollmentRepository{},
		attemptRepo:    &MockAttemptRepository{},
		userRepo:       &MockUserRepository{},
	}
}

func (m *MockRepository) Course() repositories.CourseRepository         { return m.courseRepo }
func (m *MockRepository) Module() repositories.ModuleRepository         { return m.moduleRepo }
func (m *MockRepository) Lesson() repositories.LessonRepository         { return m.lessonRepo }
func (m *MockRepository) Question() repositories.QuestionRepository     { return m.questionRepo }
func (m *MockRepository) Progress() repositories.ProgressRepository     { return m.progressRepo }
func (m *MockRepository) Enrollment() repositories.EnrollmentRepository { return m.enrollmentRepo }
func (m *MockRepository) Attempt() repositories.AttemptRepository       { return m.attemptRepo }
func (m *MockRepository) User() repositories.UserRepository             { return m.userRepo }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *MockRepository) Ping(ctx context.Context) error { return nil }
func (m *MockRepository) Close() error                   { return nil }

// RecordingCache satisfies cache.CacheService and tracks the keys touched, for
// asserting invalidation behavior.
type RecordingCache struct {
	DeletedKeys     []string
	DeletedPatterns []string
}

func NewRecordingCache() *RecordingCache {
	return &RecordingCache{}
}

func (r *RecordingCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (r *RecordingCache) Get(ctx context.Context, key string, dest interface{}) error {
	return cache.ErrCacheMiss
}

func (r *RecordingCache) Delete(ctx context.Context, key string) error {
	r.DeletedKeys = append(r.DeletedKeys, key)
	return nil
}

func (r *RecordingCache) DeletePattern(ctx context.Context, pattern string) error {
	r.DeletedPatterns = append(r.DeletedPatterns, pattern)
	return nil
}

// AssertExpectations verifies every sub-repository in one call.
func (m *MockRepository) AssertExpectations(t mock.TestingT) {
	m.courseRepo.AssertExpectations(t)
	m.moduleRepo.AssertExpectations(t)
	m.lessonRepo.AssertExpectations(t)
	m.questionRepo.AssertExpectations(t)
	m.progressRepo.AssertExpectations(t)
	m.enrollmentRepo.AssertExpectations(t)
	m.attemptRepo.AssertExpectations(t)
	m.userRepo.AssertExpectations(t)
}
