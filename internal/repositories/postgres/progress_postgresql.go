package postgres

import (
	"context"

	"github.com/SAP-F-2025/learning-progress-service/internal/models"
	"github.com/SAP-F-2025/learning-progress-service/internal/repositories"
	"gorm.io/gorm"
)

type ProgressPostgreSQL struct {
	db *gorm.DB
}

func NewProgressPostgreSQL(db *gorm.DB) repositories.ProgressRepository {
	return &ProgressPostgreSQL{db: db}
}

func (p ProgressPostgreSQL) Create(ctx context.Context, progress *models.LessonProgress) error {
	return p.db.WithContext(ctx).Create(progress).Error
}

func (p ProgressPostgreSQL) CreateBatch(ctx context.Context, progresses []*models.LessonProgress) error {
	if len(progresses) == 0 {
		return nil
	}
	return p.db.WithContext(ctx).Create(progresses).Error
}

func (p ProgressPostgreSQL) GetByUserAndLesson(ctx context.Context, userID, lessonID uint) (*models.LessonProgress, error) {
	var progress models.LessonProgress
	if err := p.db.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

func (p ProgressPostgreSQL) Update(ctx context.Context, progress *models.LessonProgress) error {
	return p.db.WithContext(ctx).Save(progress).Error
}

func (p ProgressPostgreSQL) DeleteByUserAndCourse(ctx context.Context, userID, courseID uint) error {
	return p.db.WithContext(ctx).
		Where("user_id = ? AND lesson_id IN (?)", userID, p.courseLessonIDs(courseID)).
		Delete(&models.LessonProgress{}).Error
}

func (p ProgressPostgreSQL) CountCompletedByUserAndCourse(ctx context.Context, userID, courseID uint) (int, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Model(&models.LessonProgress{}).
		Where("user_id = ? AND is_completed = ? AND lesson_id IN (?)", userID, true, p.courseLessonIDs(courseID)).
		Count(&count).Error
	return int(count), err
}

func (p ProgressPostgreSQL) GetByUserAndCourse(ctx context.Context, userID, courseID uint) ([]*models.LessonProgress, error) {
	var progresses []*models.LessonProgress
	err := p.db.WithContext(ctx).
		Where("user_id = ? AND lesson_id IN (?)", userID, p.courseLessonIDs(courseID)).
		Find(&progresses).Error
	return progresses, err
}

func (p ProgressPostgreSQL) GetCourseSummary(ctx context.Context, userID, courseID uint) (*repositories.CourseProgressSummary, error) {
	var total int64
	if err := p.db.WithContext(ctx).
		Model(&models.Lesson{}).
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("modules.course_id = ?", courseID).
		Count(&total).Error; err != nil {
		return nil, err
	}

	completed, err := p.CountCompletedByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	return &repositories.CourseProgressSummary{
		TotalLessons:     int(total),
		CompletedLessons: completed,
	}, nil
}

// courseLessonIDs builds the lesson-id subquery for one course.
func (p ProgressPostgreSQL) courseLessonIDs(courseID uint) *gorm.DB {
	return p.db.
		Model(&models.Lesson{}).
		Select("lessons.id").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("modules.course_id = ?", courseID)
}

// ===== ENROLLMENTS =====

type EnrollmentPostgreSQL struct {
	db *gorm.DB
}

func NewEnrollmentPostgreSQL(db *gorm.DB) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{db: db}
}

func (e EnrollmentPostgreSQL) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return e.db.WithContext(ctx).Create(enrollment).Error
}

func (e EnrollmentPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := e.db.WithContext(ctx).First(&enrollment, id).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (e EnrollmentPostgreSQL) GetByUserAndCourse(ctx context.Context, userID, courseID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := e.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (e EnrollmentPostgreSQL) Update(ctx context.Context, enrollment *models.Enrollment) error {
	return e.db.WithContext(ctx).Save(enrollment).Error
}

func (e EnrollmentPostgreSQL) Delete(ctx context.Context, id uint) error {
	return e.db.WithContext(ctx).Delete(&models.Enrollment{}, id).Error
}

func (e EnrollmentPostgreSQL) List(ctx context.Context, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	var enrollments []*models.Enrollment
	var total int64

	query := e.db.WithContext(ctx).Model(&models.Enrollment{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Order("enrolled_at DESC").Find(&enrollments).Error; err != nil {
		return nil, 0, err
	}

	return enrollments, total, nil
}

func (e EnrollmentPostgreSQL) GetCompletedByCourse(ctx context.Context, courseID uint) ([]*models.Enrollment, error) {
	var enrollments []*models.Enrollment
	err := e.db.WithContext(ctx).
		Where("course_id = ? AND status = ?", courseID, models.EnrollmentCompleted).
		Find(&enrollments).Error
	return enrollments, err
}
