package repositories_test

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/game"
	"github.com/myrjola/whodunit/internal/models"
	"github.com/myrjola/whodunit/internal/repositories"
	"github.com/myrjola/whodunit/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repositoryImplementations() []struct {
	name string
	new  func(t *testing.T) repositories.SessionRepository
} {
	return []struct {
		name string
		new  func(t *testing.T) repositories.SessionRepository
	}{
		{
			name: "in-memory",
			new: func(*testing.T) repositories.SessionRepository {
				return repositories.NewInMemorySessionRepository()
			},
		},
		{
			name: "sqlite",
			new: func(t *testing.T) repositories.SessionRepository {
				return repositories.NewSQLiteSessionRepository(newTestDB(t), testhelpers.NewLogger(io.Discard))
			},
		},
	}
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()

	for _, impl := range repositoryImplementations() {
		t.Run(impl.name, func(t *testing.T) {
			t.Run("create and get", func(t *testing.T) {
				repo := impl.new(t)
				session := game.NewSession(testScenario())
				require.NoError(t, repo.Create(ctx, session))

				got, err := repo.Get(ctx, session.ID)
				require.NoError(t, err)
				assert.Equal(t, session, got)

				err = repo.Create(ctx, session)
				require.ErrorIs(t, err, repositories.ErrDuplicateSession)
			})

			t.Run("unknown game", func(t *testing.T) {
				repo := impl.new(t)
				_, err := repo.Get(ctx, "missing")
				require.ErrorIs(t, err, game.ErrNotFound)
				_, err = repo.Update(ctx, "missing", func(s models.GameSession) (models.GameSession, error) {
					return s, nil
				})
				require.ErrorIs(t, err, game.ErrNotFound)
			})

			t.Run("update applies mutator", func(t *testing.T) {
				repo := impl.new(t)
				session := game.NewSession(testScenario())
				require.NoError(t, repo.Create(ctx, session))

				updated, err := repo.Update(ctx, session.ID, func(s models.GameSession) (models.GameSession, error) {
					next, _, advanceErr := game.Advance(s)
					return next, advanceErr
				})
				require.NoError(t, err)
				assert.Equal(t, models.PhaseIntro, updated.CurrentPhase)

				got, err := repo.Get(ctx, session.ID)
				require.NoError(t, err)
				assert.Equal(t, updated, got)
			})

			t.Run("failing mutator writes nothing", func(t *testing.T) {
				repo := impl.new(t)
				session := game.NewSession(testScenario())
				require.NoError(t, repo.Create(ctx, session))
				boom := errors.NewSentinel("boom")

				_, err := repo.Update(ctx, session.ID, func(s models.GameSession) (models.GameSession, error) {
					s.CurrentPhase = models.PhaseReveal
					return s, boom
				})
				require.ErrorIs(t, err, boom)

				got, err := repo.Get(ctx, session.ID)
				require.NoError(t, err)
				assert.Equal(t, models.PhaseReading, got.CurrentPhase)
			})

			t.Run("returned sessions are copies", func(t *testing.T) {
				repo := impl.new(t)
				session := game.NewSession(testScenario())
				require.NoError(t, repo.Create(ctx, session))

				got, err := repo.Get(ctx, session.ID)
				require.NoError(t, err)
				got.Votes[models.PlayerVoterID] = "maid"
				got.GroupChatHistory = append(got.GroupChatHistory, game.NewMessage(models.ChatRolePlayer, "", "hi"))

				again, err := repo.Get(ctx, session.ID)
				require.NoError(t, err)
				assert.Empty(t, again.Votes)
				assert.Empty(t, again.GroupChatHistory)
			})

			t.Run("concurrent updates are serialized", func(t *testing.T) {
				repo := impl.new(t)
				session := game.NewSession(testScenario())
				require.NoError(t, repo.Create(ctx, session))

				const writers = 10
				var wg sync.WaitGroup
				for range writers {
					wg.Add(1)
					go func() {
						defer wg.Done()
						_, err := repo.Update(ctx, session.ID, func(s models.GameSession) (models.GameSession, error) {
							return game.RecordPlayerGroupMessage(s, "who did it?"), nil
						})
						assert.NoError(t, err)
					}()
				}
				wg.Wait()

				got, err := repo.Get(ctx, session.ID)
				require.NoError(t, err)
				assert.Len(t, got.GroupChatHistory, writers)
			})
		})
	}
}

func TestSQLiteSessionRepository_Count(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewSQLiteSessionRepository(newTestDB(t), testhelpers.NewLogger(io.Discard))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	for range 3 {
		require.NoError(t, repo.Create(ctx, game.NewSession(testScenario())))
	}
	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
