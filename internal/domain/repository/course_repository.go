package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"normal_oj/internal/common"
	"normal_oj/internal/domain/model"
)

type CourseRepository interface {
	Create(ctx context.Context, tx *sql.Tx, course *model.Course) error
	FindByName(ctx context.Context, name string) (*model.Course, error)
	FindByID(ctx context.Context, id int64) (*model.Course, error)
	List(ctx context.Context) ([]model.Course, error)
}

type pgCourseRepository struct {
	db *sql.DB
}

func NewPgCourseRepository(db *sql.DB) CourseRepository {
	return &pgCourseRepository{db: db}
}

func (r *pgCourseRepository) Create(ctx context.Context, tx *sql.Tx, course *model.Course) error {
	query := `INSERT INTO courses (name, teacher_id) VALUES ($1, $2)
	          RETURNING id, created_at, updated_at`
	err := pick(r.db, tx).QueryRowContext(ctx, query, course.Name, course.TeacherID).
		Scan(&course.ID, &course.CreatedAt, &course.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("course with this name already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgCourseRepository.Create: %w", err)
	}
	return nil
}

func (r *pgCourseRepository) FindByName(ctx context.Context, name string) (*model.Course, error) {
	return r.findBy(ctx, "name = $1", name)
}

func (r *pgCourseRepository) FindByID(ctx context.Context, id int64) (*model.Course, error) {
	return r.findBy(ctx, "id = $1", id)
}

func (r *pgCourseRepository) findBy(ctx context.Context, cond string, arg any) (*model.Course, error) {
	query := `SELECT id, name, teacher_id, created_at, updated_at FROM courses WHERE ` + cond
	course := &model.Course{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&course.ID, &course.Name, &course.TeacherID, &course.CreatedAt, &course.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCourseRepository.findBy %s: %w", cond, err)
	}
	return course, nil
}

func (r *pgCourseRepository) List(ctx context.Context) ([]model.Course, error) {
	query := `SELECT id, name, teacher_id, created_at, updated_at FROM courses ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgCourseRepository.List: %w", err)
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.TeacherID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgCourseRepository.List scan: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgCourseRepository.List rows: %w", err)
	}
	return courses, nil
}
