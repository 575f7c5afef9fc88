package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/klokku/notebook/pkg/user"
)

var ErrInvalidProject = errors.New("invalid project")

type Service interface {
	List(ctx context.Context) ([]Project, error)
	Create(ctx context.Context, name string) (Project, error)
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) List(ctx context.Context) ([]Project, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.List(ctx, userId)
}

func (s *ServiceImpl) Create(ctx context.Context, name string) (Project, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Project{}, fmt.Errorf("failed to get current user: %w", err)
	}
	slug := Slugify(name)
	if slug == "" {
		return Project{}, fmt.Errorf("%w: name %q has no letters or digits", ErrInvalidProject, name)
	}
	return s.repo.Create(ctx, userId, Project{Slug: slug, Name: name})
}
