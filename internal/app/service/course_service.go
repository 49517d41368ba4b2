package service

import (
	"context"

	"normal_oj/internal/domain/model"
	"normal_oj/internal/domain/repository"
)

// CourseService is a thin lookup over the course roster.
type CourseService struct {
	courseRepo repository.CourseRepository
}

func NewCourseService(courseRepo repository.CourseRepository) *CourseService {
	return &CourseService{courseRepo: courseRepo}
}

func (s *CourseService) List(ctx context.Context) ([]model.Course, error) {
	return s.courseRepo.List(ctx)
}

func (s *CourseService) FindByName(ctx context.Context, name string) (*model.Course, error) {
	return s.courseRepo.FindByName(ctx, name)
}

func (s *CourseService) FindByID(ctx context.Context, id int64) (*model.Course, error) {
	return s.courseRepo.FindByID(ctx, id)
}
