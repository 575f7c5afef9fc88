package google

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrStateNotFound = errors.New("oauth state not found")

// StateRepository keeps the nonce of a sign-in in progress together with the url the user
// returns to afterwards.
type StateRepository interface {
	Store(ctx context.Context, nonce string, finalUrl string, createdAt time.Time) error
	// Take removes the state and returns its final url and creation time.
	Take(ctx context.Context, nonce string) (string, time.Time, error)
}

type StateRepositoryImpl struct {
	db *pgxpool.Pool
}

func NewStateRepository(db *pgxpool.Pool) *StateRepositoryImpl {
	return &StateRepositoryImpl{db: db}
}

func (r *StateRepositoryImpl) Store(ctx context.Context, nonce string, finalUrl string, createdAt time.Time) error {
	_, err := r.db.Exec(ctx, `INSERT INTO oauth_state (nonce, final_url, created_at) VALUES ($1, $2, $3)`,
		nonce, finalUrl, createdAt)
	if err != nil {
		log.Errorf("failed to store oauth state: %v", err)
		return fmt.Errorf("failed to store oauth state: %w", err)
	}
	return nil
}

func (r *StateRepositoryImpl) Take(ctx context.Context, nonce string) (string, time.Time, error) {
	var finalUrl string
	var createdAt time.Time
	err := r.db.QueryRow(ctx, `DELETE FROM oauth_state WHERE nonce = $1 RETURNING final_url, created_at`, nonce).
		Scan(&finalUrl, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", time.Time{}, ErrStateNotFound
	}
	if err != nil {
		log.Errorf("failed to read oauth state: %v", err)
		return "", time.Time{}, fmt.Errorf("failed to read oauth state: %w", err)
	}
	return finalUrl, createdAt, nil
}

type storedState struct {
	finalUrl  string
	createdAt time.Time
}

type StateRepositoryStub struct {
	mu     sync.Mutex
	states map[string]storedState
}

func NewStateRepositoryStub() *StateRepositoryStub {
	return &StateRepositoryStub{states: make(map[string]storedState)}
}

func (s *StateRepositoryStub) Store(ctx context.Context, nonce string, finalUrl string, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[nonce] = storedState{finalUrl: finalUrl, createdAt: createdAt}
	return nil
}

func (s *StateRepositoryStub) Take(ctx context.Context, nonce string) (string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[nonce]
	if !ok {
		return "", time.Time{}, ErrStateNotFound
	}
	delete(s.states, nonce)
	return state.finalUrl, state.createdAt, nil
}
