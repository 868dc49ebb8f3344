// Package repositories persists game sessions.
//
// Callers never mutate a stored session in place. They read an owned copy with Get or submit a Mutator to Update,
// which receives the current state and returns the next one.
package repositories

import (
	"context"
	"log/slog"
	"sync"

	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/game"
	"github.com/myrjola/whodunit/internal/models"
)

var ErrDuplicateSession = errors.NewSentinel("game session already exists")

// Mutator computes the next state of a session. Returning an error aborts the update without writing.
type Mutator func(session models.GameSession) (models.GameSession, error)

type SessionRepository interface {
	Get(ctx context.Context, id string) (models.GameSession, error)
	Create(ctx context.Context, session models.GameSession) error
	Update(ctx context.Context, id string, mutate Mutator) (models.GameSession, error)
}

func sessionNotFound(id string) error {
	return errors.Wrap(game.ErrNotFound, "game session not found", slog.String("game_id", id))
}

// InMemorySessionRepository keeps sessions in process memory. Sessions are lost on restart.
type InMemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]models.GameSession
}

func NewInMemorySessionRepository() *InMemorySessionRepository {
	return &InMemorySessionRepository{
		mu:       sync.Mutex{},
		sessions: map[string]models.GameSession{},
	}
}

func (r *InMemorySessionRepository) Get(_ context.Context, id string) (models.GameSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return models.GameSession{}, sessionNotFound(id)
	}
	return session.Clone(), nil
}

func (r *InMemorySessionRepository) Create(_ context.Context, session models.GameSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID]; ok {
		return errors.Wrap(ErrDuplicateSession, "create game session", slog.String("game_id", session.ID))
	}
	r.sessions[session.ID] = session.Clone()
	return nil
}

// Update runs mutate under the repository lock so concurrent updates of one game are serialized.
func (r *InMemorySessionRepository) Update(_ context.Context, id string, mutate Mutator) (models.GameSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.sessions[id]
	if !ok {
		return models.GameSession{}, sessionNotFound(id)
	}
	next, err := mutate(current.Clone())
	if err != nil {
		return models.GameSession{}, err
	}
	next.ID = id
	r.sessions[id] = next.Clone()
	return next, nil
}
