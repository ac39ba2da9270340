package postgres

import (
	"context"

	"github.com/SAP-F-2025/learning-progress-service/internal/repositories"
	"gorm.io/gorm"
)

// RepositoryPostgreSQL is the gorm-backed aggregate repository. A transactional
// copy is produced by WithTransaction so every entity repository in the closure
// shares one transaction.
type RepositoryPostgreSQL struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &RepositoryPostgreSQL{db: db}
}

func (r *RepositoryPostgreSQL) Course() repositories.CourseRepository {
	return NewCoursePostgreSQL(r.db)
}

func (r *RepositoryPostgreSQL) Module() repositories.ModuleRepository {
	return NewModulePostgreSQL(r.db)
}

func (r *RepositoryPostgreSQL) Lesson() repositories.LessonRepository {
	return NewLessonPostgreSQL(r.db)
}

func (r *RepositoryPostgreSQL) Question() repositories.QuestionRepository {
	return NewQuestionPostgreSQL(r.db)
}

func (r *RepositoryPostgreSQL) Progress() repositories.ProgressRepository {
	return NewProgressPostgreSQL(r.db)
}

func (r *RepositoryPostgreSQL) Enrollment() repositories.EnrollmentRepository {
	return NewEnrollmentPostgreSQL(r.db)
}

func (r *RepositoryPostgreSQL) Attempt() repositories.AttemptRepository {
	return NewAttemptPostgreSQL(r.db)
}

func (r *RepositoryPostgreSQL) User() repositories.UserRepository {
	return NewUserPostgreSQL(r.db)
}

func (r *RepositoryPostgreSQL) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&RepositoryPostgreSQL{db: tx})
	})
}

func (r *RepositoryPostgreSQL) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *RepositoryPostgreSQL) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
