package project

import (
	"context"
	"sort"
	"sync"
)

type RepositoryStub struct {
	mu       sync.RWMutex
	nextId   int
	projects map[int][]Project // userId -> projects
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{projects: make(map[int][]Project)}
}

func (s *RepositoryStub) List(ctx context.Context, userId int) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	projects := append([]Project{}, s.projects[userId]...)
	sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })
	return projects, nil
}

func (s *RepositoryStub) Create(ctx context.Context, userId int, project Project) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects[userId] {
		if p.Slug == project.Slug {
			return Project{}, ErrProjectExists
		}
	}
	s.nextId++
	project.Id = s.nextId
	s.projects[userId] = append(s.projects[userId], project)
	return project, nil
}
