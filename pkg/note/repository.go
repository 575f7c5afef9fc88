package note

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	// List returns every page of the user ordered by creation time.
	List(ctx context.Context, userId int) ([]NotePage, error)
	Get(ctx context.Context, userId int, id string) (NotePage, error)
	// Store inserts the page or replaces it, tags included.
	Store(ctx context.Context, userId int, page NotePage) error
	Delete(ctx context.Context, userId int, id string) (bool, error)
}

type repositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) getQueryer() interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	if err := fn(&repositoryImpl{db: r.db, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const selectPages = `SELECT
				page.id,
				page.width,
				page.height,
				page.size,
				page.content_type,
				page.url,
				page.thumbnail_url,
				page.transcription,
				page.created_at,
				tag.name,
				tag.tag_date
			  FROM note_page page
			  LEFT JOIN note_page_project tag ON tag.note_page_id = page.id`

func (r *repositoryImpl) List(ctx context.Context, userId int) ([]NotePage, error) {
	query := selectPages + ` WHERE page.user_id = $1 ORDER BY page.created_at, page.id, tag.position`
	rows, err := r.getQueryer().Query(ctx, query, userId)
	if err != nil {
		log.Errorf("failed to list note pages: %v", err)
		return nil, fmt.Errorf("failed to list note pages: %w", err)
	}
	return collectPages(rows)
}

func (r *repositoryImpl) Get(ctx context.Context, userId int, id string) (NotePage, error) {
	query := selectPages + ` WHERE page.user_id = $1 AND page.id = $2 ORDER BY tag.position`
	rows, err := r.getQueryer().Query(ctx, query, userId, id)
	if err != nil {
		log.Errorf("failed to get note page %s: %v", id, err)
		return NotePage{}, fmt.Errorf("failed to get note page: %w", err)
	}
	pages, err := collectPages(rows)
	if err != nil {
		return NotePage{}, err
	}
	if len(pages) == 0 {
		return NotePage{}, ErrNotePageNotFound
	}
	return pages[0], nil
}

// collectPages folds the page/tag join back into pages, keeping row order.
func collectPages(rows pgx.Rows) ([]NotePage, error) {
	defer rows.Close()

	pages := make([]NotePage, 0)
	index := make(map[string]int)
	for rows.Next() {
		var (
			page          NotePage
			transcription []byte
			tagName       *string
			tagDate       *time.Time
		)
		err := rows.Scan(
			&page.Id,
			&page.Width,
			&page.Height,
			&page.Size,
			&page.Type,
			&page.Url,
			&page.ThumbnailUrl,
			&transcription,
			&page.CreatedAt,
			&tagName,
			&tagDate,
		)
		if err != nil {
			log.Errorf("error scanning note page row: %v", err)
			return nil, fmt.Errorf("error scanning note page row: %w", err)
		}

		i, seen := index[page.Id]
		if !seen {
			if len(transcription) > 0 {
				page.Transcription = &Transcription{}
				if err := json.Unmarshal(transcription, page.Transcription); err != nil {
					return nil, fmt.Errorf("invalid transcription of note page %s: %w", page.Id, err)
				}
			}
			page.CreatedAt = page.CreatedAt.UTC()
			page.Projects = []ProjectTag{}
			pages = append(pages, page)
			i = len(pages) - 1
			index[page.Id] = i
		}
		if tagName != nil && tagDate != nil {
			pages[i].Projects = append(pages[i].Projects, ProjectTag{Name: *tagName, Date: CivilDate(*tagDate)})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating note pages: %w", err)
	}
	return pages, nil
}

func (r *repositoryImpl) Store(ctx context.Context, userId int, page NotePage) error {
	var transcription any
	if page.Transcription != nil {
		encoded, err := json.Marshal(page.Transcription)
		if err != nil {
			return fmt.Errorf("failed to encode transcription: %w", err)
		}
		transcription = string(encoded)
	}
	createdAt := page.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return r.WithTransaction(ctx, func(repo Repository) error {
		q := repo.(*repositoryImpl).getQueryer()
		result, err := q.Exec(ctx, `INSERT INTO note_page
					(id, user_id, width, height, size, content_type, url, thumbnail_url, transcription, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10)
				ON CONFLICT (id) DO UPDATE SET
					width = EXCLUDED.width,
					height = EXCLUDED.height,
					size = EXCLUDED.size,
					content_type = EXCLUDED.content_type,
					url = EXCLUDED.url,
					thumbnail_url = EXCLUDED.thumbnail_url,
					transcription = EXCLUDED.transcription
				WHERE note_page.user_id = EXCLUDED.user_id`,
			page.Id, userId, page.Width, page.Height, page.Size, page.Type, page.Url, page.ThumbnailUrl,
			transcription, createdAt,
		)
		if err != nil {
			log.Errorf("failed to store note page %s: %v", page.Id, err)
			return fmt.Errorf("failed to store note page: %w", err)
		}
		if result.RowsAffected() == 0 {
			// the id belongs to another user
			return ErrNotePageNotFound
		}

		if _, err := q.Exec(ctx, `DELETE FROM note_page_project WHERE note_page_id = $1`, page.Id); err != nil {
			return fmt.Errorf("failed to clear project tags: %w", err)
		}
		for position, tag := range page.Projects {
			_, err := q.Exec(ctx,
				`INSERT INTO note_page_project (note_page_id, position, name, tag_date) VALUES ($1, $2, $3, $4)`,
				page.Id, position, tag.Name, CivilDate(tag.Date),
			)
			if err != nil {
				log.Errorf("failed to store project tag of %s: %v", page.Id, err)
				return fmt.Errorf("failed to store project tag: %w", err)
			}
		}
		return nil
	})
}

func (r *repositoryImpl) Delete(ctx context.Context, userId int, id string) (bool, error) {
	result, err := r.getQueryer().Exec(ctx, `DELETE FROM note_page WHERE user_id = $1 AND id = $2`, userId, id)
	if err != nil {
		log.Errorf("failed to delete note page %s: %v", id, err)
		return false, fmt.Errorf("failed to delete note page: %w", err)
	}
	return result.RowsAffected() > 0, nil
}
