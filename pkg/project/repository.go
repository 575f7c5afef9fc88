package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrProjectExists = errors.New("project already exists")

type Repository interface {
	List(ctx context.Context, userId int) ([]Project, error)
	Create(ctx context.Context, userId int, project Project) (Project, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) List(ctx context.Context, userId int) ([]Project, error) {
	rows, err := r.db.Query(ctx, `SELECT id, slug, name FROM project WHERE user_id = $1 ORDER BY name`, userId)
	if err != nil {
		log.Errorf("failed to list projects: %v", err)
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	projects, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Project, error) {
		var p Project
		err := row.Scan(&p.Id, &p.Slug, &p.Name)
		return p, err
	})
	if err != nil {
		log.Errorf("failed to scan projects: %v", err)
		return nil, err
	}
	return projects, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, userId int, project Project) (Project, error) {
	query := `INSERT INTO project (user_id, slug, name) VALUES ($1, $2, $3) RETURNING id`
	err := r.db.QueryRow(ctx, query, userId, project.Slug, project.Name).Scan(&project.Id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Project{}, ErrProjectExists
		}
		log.Errorf("failed to create project: %v", err)
		return Project{}, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}
