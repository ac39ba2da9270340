package postgres

import (
	"context"

	"github.com/SAP-F-2025/learning-progress-service/internal/models"
	"github.com/SAP-F-2025/learning-progress-service/internal/repositories"
	"gorm.io/gorm"
)

// ===== MODULES =====

type ModulePostgreSQL struct {
	db *gorm.DB
}

func NewModulePostgreSQL(db *gorm.DB) repositories.ModuleRepository {
	return &ModulePostgreSQL{db: db}
}

func (m ModulePostgreSQL) Create(ctx context.Context, module *models.Module) error {
	return m.db.WithContext(ctx).Create(module).Error
}

func (m ModulePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Module, error) {
	var module models.Module
	if err := m.db.WithContext(ctx).First(&module, id).Error; err != nil {
		return nil, err
	}
	return &module, nil
}

func (m ModulePostgreSQL) Update(ctx context.Context, module *models.Module) error {
	return m.db.WithContext(ctx).Save(module).Error
}

func (m ModulePostgreSQL) Delete(ctx context.Context, id uint) error {
	return m.db.WithContext(ctx).Delete(&models.Module{}, id).Error
}

func (m ModulePostgreSQL) GetSiblings(ctx context.Context, courseID uint) ([]*models.Module, error) {
	var modules []*models.Module
	err := m.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("order_index ASC").
		Find(&modules).Error
	return modules, err
}

func (m ModulePostgreSQL) ApplyOrder(ctx context.Context, updates []repositories.OrderUpdate) error {
	return applyOrder(ctx, m.db, &models.Module{}, updates)
}

// ===== LESSONS =====

type LessonPostgreSQL struct {
	db *gorm.DB
}

func NewLessonPostgreSQL(db *gorm.DB) repositories.LessonRepository {
	return &LessonPostgreSQL{db: db}
}

func (l LessonPostgreSQL) Create(ctx context.Context, lesson *models.Lesson) error {
	return l.db.WithContext(ctx).Create(lesson).Error
}

func (l LessonPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := l.db.WithContext(ctx).First(&lesson, id).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (l LessonPostgreSQL) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := l.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_questions.order_index ASC")
		}).
		Preload("Questions.Options").
		First(&lesson, id).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (l LessonPostgreSQL) Update(ctx context.Context, lesson *models.Lesson) error {
	return l.db.WithContext(ctx).Save(lesson).Error
}

func (l LessonPostgreSQL) Delete(ctx context.Context, id uint) error {
	return l.db.WithContext(ctx).Delete(&models.Lesson{}, id).Error
}

func (l LessonPostgreSQL) GetSiblings(ctx context.Context, moduleID uint) ([]*models.Lesson, error) {
	var lessons []*models.Lesson
	err := l.db.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("order_index ASC").
		Find(&lessons).Error
	return lessons, err
}

func (l LessonPostgreSQL) GetByCourse(ctx context.Context, courseID uint) ([]*models.Lesson, error) {
	var lessons []*models.Lesson
	err := l.db.WithContext(ctx).
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("modules.course_id = ?", courseID).
		Order("modules.order_index ASC, lessons.order_index ASC").
		Find(&lessons).Error
	return lessons, err
}

func (l LessonPostgreSQL) CourseID(ctx context.Context, lessonID uint) (uint, error) {
	var courseID uint
	err := l.db.WithContext(ctx).
		Model(&models.Lesson{}).
		Select("modules.course_id").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("lessons.id = ?", lessonID).
		Take(&courseID).Error
	return courseID, err
}

func (l LessonPostgreSQL) ApplyOrder(ctx context.Context, updates []repositories.OrderUpdate) error {
	return applyOrder(ctx, l.db, &models.Lesson{}, updates)
}

// applyOrder writes a full set of (id, index) assignments for one sibling group.
// Callers run it inside WithTransaction so a partial write cannot leave gaps.
func applyOrder(ctx context.Context, db *gorm.DB, model interface{}, updates []repositories.OrderUpdate) error {
	for _, update := range updates {
		if err := db.WithContext(ctx).
			Model(model).
			Where("id = ?", update.ID).
			Update("order_index", update.OrderIndex).Error; err != nil {
			return err
		}
	}
	return nil
}
