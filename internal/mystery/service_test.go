package mystery_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/myrjola/whodunit/internal/agents"
	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/ai/aitest"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/game"
	"github.com/myrjola/whodunit/internal/memory"
	"github.com/myrjola/whodunit/internal/models"
	"github.com/myrjola/whodunit/internal/mystery"
	"github.com/myrjola/whodunit/internal/repositories"
	"github.com/myrjola/whodunit/internal/scenarios"
	"github.com/myrjola/whodunit/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, client ai.Client) *mystery.Service {
	t.Helper()
	logger := testhelpers.NewLogger(io.Discard)
	provider, err := scenarios.NewProvider("", logger)
	require.NoError(t, err)
	return mystery.NewService(provider, repositories.NewInMemorySessionRepository(), client, logger)
}

// advanceTo advances the game until it reaches phase.
func advanceTo(t *testing.T, svc *mystery.Service, id string, phase models.Phase) models.GameSession {
	t.Helper()
	ctx := context.Background()
	state, err := svc.State(ctx, id)
	require.NoError(t, err)
	session := state.Session
	for session.CurrentPhase != phase {
		var g mystery.Game
		g, _, err = svc.Advance(ctx, id)
		require.NoError(t, err, "advance from %s", session.CurrentPhase)
		session = g.Session
	}
	return session
}

func clueIDs(clues []models.Clue) []string {
	ids := make([]string, 0, len(clues))
	for _, c := range clues {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestService_EndToEnd(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, aitest.NewFake())

	g, err := svc.CreateGame(ctx, "storm-mansion")
	require.NoError(t, err)
	id := g.Session.ID
	assert.Equal(t, models.PhaseReading, g.Session.CurrentPhase)
	assert.Equal(t, 1, g.Session.Round)

	_, _, err = svc.Investigate(ctx, id, "library")
	require.ErrorIs(t, err, game.ErrCapabilityDisabled)

	session := advanceTo(t, svc, id, models.PhaseInvestigation1)
	assert.Equal(t, 1, session.Round)

	g, result, err := svc.Investigate(ctx, id, "library")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"brandy-glass", "locked-door", "clara-handkerchief"}, clueIDs(result.NewlyFound))
	assert.ElementsMatch(t, clueIDs(result.NewlyFound), clueIDs(g.Session.DiscoveredClues))

	g, transition, err := svc.Advance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseInvestigation1, transition.From)
	assert.Equal(t, models.PhaseDiscussion2, transition.To)
	assert.NotEmpty(t, transition.Narration)
	assert.Equal(t, 2, g.Session.Round)
}

func TestService_CreateGame(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, aitest.NewFake())

	g, err := svc.CreateGame(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, scenarios.DefaultID, g.Scenario.ID)
	assert.Len(t, g.Session.CharacterMemories, len(g.Scenario.Characters))

	_, err = svc.CreateGame(ctx, "no-such-mystery")
	require.ErrorIs(t, err, game.ErrNotFound)

	_, err = svc.State(ctx, "no-such-game")
	require.ErrorIs(t, err, game.ErrNotFound)
}

func TestService_State(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, aitest.NewFake())
	g, err := svc.CreateGame(ctx, "")
	require.NoError(t, err)

	state, err := svc.State(ctx, g.Session.ID)
	require.NoError(t, err)
	assert.True(t, state.CanAdvance)
	assert.False(t, state.SuggestAdvance)
	assert.Equal(t, game.Capabilities(models.PhaseReading), state.Phase)

	advanceTo(t, svc, g.Session.ID, models.PhaseDiscussion1)
	for range 5 {
		_, err = svc.GroupChat(ctx, g.Session.ID, "Who poured the brandy?")
		require.NoError(t, err)
	}
	state, err = svc.State(ctx, g.Session.ID)
	require.NoError(t, err)
	assert.True(t, state.SuggestAdvance, "%d messages", len(state.Session.GroupChatHistory))
	assert.Equal(t, game.Narrate(state.Session, game.NarrationDiscussionStall), state.Narration)
}

func TestService_Investigate(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, aitest.NewFake())
	g, err := svc.CreateGame(ctx, "")
	require.NoError(t, err)
	id := g.Session.ID
	advanceTo(t, svc, id, models.PhaseInvestigation1)

	_, _, err = svc.Investigate(ctx, id, "attic")
	require.ErrorIs(t, err, game.ErrNotFound)

	_, first, err := svc.Investigate(ctx, id, "greenhouse")
	require.NoError(t, err)
	require.NotEmpty(t, first.NewlyFound)

	g, second, err := svc.Investigate(ctx, id, "greenhouse")
	require.NoError(t, err)
	assert.Empty(t, second.NewlyFound)
	assert.Len(t, g.Session.DiscoveredClues, len(first.NewlyFound))

	for _, c := range first.PublicClues {
		for id, m := range g.Session.CharacterMemories {
			n := 0
			for _, fact := range m.KnownFacts {
				if fact == game.PublicClueFact(c) {
					n++
				}
			}
			assert.Equal(t, 1, n, "%s knows %s", id, c.ID)
		}
	}
}

func TestService_Vote(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, aitest.NewFake())
	g, err := svc.CreateGame(ctx, "")
	require.NoError(t, err)
	id := g.Session.ID

	_, _, err = svc.Vote(ctx, id, "victor-hale")
	require.ErrorIs(t, err, game.ErrCapabilityDisabled)

	advanceTo(t, svc, id, models.PhaseVoting)
	_, _, err = svc.Advance(ctx, id)
	require.ErrorIs(t, err, game.ErrTransitionRejected)

	_, _, err = svc.Vote(ctx, id, "nobody")
	require.ErrorIs(t, err, game.ErrNotFound)

	_, _, err = svc.Vote(ctx, id, " ")
	require.ErrorIs(t, err, game.ErrInvalidInput)

	g, result, err := svc.Vote(ctx, id, "victor-hale")
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)
	assert.Equal(t, "victor-hale", g.Session.Votes[models.PlayerVoterID])

	_, _, err = svc.Vote(ctx, id, "lily-chen")
	require.ErrorIs(t, err, game.ErrDuplicateVote)

	g, _, err = svc.Advance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseReveal, g.Session.CurrentPhase)

	_, _, err = svc.Advance(ctx, id)
	require.ErrorIs(t, err, game.ErrTerminalPhase)
}

func TestService_VoteIncorrect(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, aitest.NewFake())
	g, err := svc.CreateGame(ctx, "")
	require.NoError(t, err)
	advanceTo(t, svc, g.Session.ID, models.PhaseVoting)

	_, result, err := svc.Vote(ctx, g.Session.ID, "clara-whitmore")
	require.NoError(t, err)
	assert.False(t, result.IsCorrect)
}

func TestService_Chat(t *testing.T) {
	ctx := context.Background()
	fake := aitest.NewFake("I was in the pantry all evening.")
	svc := newService(t, fake)
	g, err := svc.CreateGame(ctx, "")
	require.NoError(t, err)
	id := g.Session.ID

	_, err = svc.Chat(ctx, id, "lily-chen", "Where were you?")
	require.ErrorIs(t, err, game.ErrCapabilityDisabled)

	advanceTo(t, svc, id, models.PhaseIntro)

	_, err = svc.Chat(ctx, id, "lily-chen", "   ")
	require.ErrorIs(t, err, game.ErrInvalidInput)
	_, err = svc.Chat(ctx, id, "the-gardener", "Hello?")
	require.ErrorIs(t, err, game.ErrNotFound)

	result, err := svc.Chat(ctx, id, "lily-chen", "Where were you?")
	require.NoError(t, err)
	assert.Equal(t, "I was in the pantry all evening.", result.Reply)
	history := result.Session.ChatHistories["lily-chen"]
	require.Len(t, history, 2)
	assert.Equal(t, models.ChatRolePlayer, history[0].Role)
	assert.Equal(t, "Where were you?", history[0].Content)
	assert.Equal(t, models.ChatRoleNPC, history[1].Role)
	assert.Len(t, result.Session.CharacterMemories["lily-chen"].Conversations, 2)
	assert.Contains(t, fake.Requests()[0].System, "Lily Chen")
}

func TestService_ChatCompactsMemory(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, aitest.NewFake())
	g, err := svc.CreateGame(ctx, "")
	require.NoError(t, err)
	id := g.Session.ID
	advanceTo(t, svc, id, models.PhaseIntro)

	var result mystery.ChatResult
	for range 6 {
		result, err = svc.Chat(ctx, id, "arthur-graves", "Tell me about the brandy.")
		require.NoError(t, err)
	}

	m := result.Session.CharacterMemories["arthur-graves"]
	assert.Len(t, m.Conversations, memory.RetainedConversations)
	require.NotEmpty(t, m.KnownFacts)
	last := m.KnownFacts[len(m.KnownFacts)-1]
	assert.True(t, strings.HasPrefix(last, "Recent conversation summary: fake reply"), last)

	state, err := svc.State(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, m, state.Session.CharacterMemories["arthur-graves"])
}

func TestService_ChatStream(t *testing.T) {
	ctx := context.Background()

	t.Run("fragments are emitted before the exchange is saved", func(t *testing.T) {
		svc := newService(t, aitest.NewFake("Ask the butler."))
		g, err := svc.CreateGame(ctx, "")
		require.NoError(t, err)
		advanceTo(t, svc, g.Session.ID, models.PhaseIntro)

		turn, err := svc.StartChat(ctx, g.Session.ID, "clara-whitmore", "Who found him?")
		require.NoError(t, err)
		assert.Equal(t, "clara-whitmore", turn.CharacterID())
		var fragments []string
		result, err := turn.Stream(ctx, func(text string) error {
			fragments = append(fragments, text)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Ask ", "the ", "butler."}, fragments)
		assert.Equal(t, "Ask the butler.", result.Reply)
	})

	t.Run("failed delivery saves nothing", func(t *testing.T) {
		svc := newService(t, aitest.NewFake("Ask the butler."))
		g, err := svc.CreateGame(ctx, "")
		require.NoError(t, err)
		advanceTo(t, svc, g.Session.ID, models.PhaseIntro)

		turn, err := svc.StartChat(ctx, g.Session.ID, "clara-whitmore", "Who found him?")
		require.NoError(t, err)
		disconnected := errors.NewSentinel("client went away")
		_, err = turn.Stream(ctx, func(string) error { return disconnected })
		require.ErrorIs(t, err, disconnected)

		state, err := svc.State(ctx, g.Session.ID)
		require.NoError(t, err)
		assert.Empty(t, state.Session.ChatHistories["clara-whitmore"])
		assert.Empty(t, state.Session.CharacterMemories["clara-whitmore"].Conversations)
	})

	t.Run("cancelled context saves nothing", func(t *testing.T) {
		svc := newService(t, aitest.NewFake("Ask the butler."))
		g, err := svc.CreateGame(ctx, "")
		require.NoError(t, err)
		advanceTo(t, svc, g.Session.ID, models.PhaseIntro)

		turn, err := svc.StartChat(ctx, g.Session.ID, "clara-whitmore", "Who found him?")
		require.NoError(t, err)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err = turn.Stream(cancelled, nil)
		require.ErrorIs(t, err, context.Canceled)

		state, err := svc.State(ctx, g.Session.ID)
		require.NoError(t, err)
		assert.Empty(t, state.Session.ChatHistories["clara-whitmore"])
	})
}

func TestService_Unconfigured(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, ai.Unconfigured{})
	g, err := svc.CreateGame(ctx, "")
	require.NoError(t, err)
	advanceTo(t, svc, g.Session.ID, models.PhaseDiscussion1)

	result, err := svc.Chat(ctx, g.Session.ID, "victor-hale", "Did you do it?")
	require.NoError(t, err)
	assert.Equal(t, agents.UnconfiguredLine, result.Reply)

	group, err := svc.GroupChat(ctx, g.Session.ID, "Anyone?")
	require.NoError(t, err)
	require.Len(t, group.Replies, 3)
	for _, r := range group.Replies {
		assert.Equal(t, agents.UnconfiguredLine, r.Text)
	}
}

func TestService_GroupChat(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled outside discussions", func(t *testing.T) {
		svc := newService(t, aitest.NewFake())
		g, err := svc.CreateGame(ctx, "")
		require.NoError(t, err)
		advanceTo(t, svc, g.Session.ID, models.PhaseIntro)

		_, err = svc.GroupChat(ctx, g.Session.ID, "Hello everyone")
		require.ErrorIs(t, err, game.ErrCapabilityDisabled)
		assert.Contains(t, err.Error(), "group chat is disabled during phase INTRO")
	})

	t.Run("responders answer in order", func(t *testing.T) {
		svc := newService(t, aitest.NewFake("I was in the study.", "He is lying.", "I saw nothing."))
		g, err := svc.CreateGame(ctx, "")
		require.NoError(t, err)
		advanceTo(t, svc, g.Session.ID, models.PhaseDiscussion1)

		result, err := svc.GroupChat(ctx, g.Session.ID, "Where was everyone at eleven?")
		require.NoError(t, err)
		require.Len(t, result.Replies, 3)
		assert.Equal(t, "I was in the study.", result.Replies[0].Text)
		assert.Equal(t, "He is lying.", result.Replies[1].Text)
		assert.Equal(t, "I saw nothing.", result.Replies[2].Text)

		history := result.Session.GroupChatHistory
		require.Len(t, history, 4)
		assert.Equal(t, models.ChatRolePlayer, history[0].Role)
		for i, r := range result.Replies {
			assert.Equal(t, r.CharacterID, history[i+1].CharacterID)
			assert.Equal(t, r.Text, history[i+1].Content)
			m := result.Session.CharacterMemories[r.CharacterID]
			assert.Len(t, m.Conversations, 2, r.CharacterID)
		}
	})

	t.Run("continuations stop after two character messages", func(t *testing.T) {
		svc := newService(t, aitest.NewFake())
		g, err := svc.CreateGame(ctx, "")
		require.NoError(t, err)
		advanceTo(t, svc, g.Session.ID, models.PhaseDiscussion1)

		_, err = svc.GroupChat(ctx, g.Session.ID, "Speak up.")
		require.NoError(t, err)
		result, err := svc.GroupChat(ctx, g.Session.ID, "")
		require.NoError(t, err)
		assert.Empty(t, result.Replies)
		assert.Len(t, result.Session.GroupChatHistory, 4)
	})

	t.Run("starting a turn saves nothing", func(t *testing.T) {
		svc := newService(t, aitest.NewFake())
		g, err := svc.CreateGame(ctx, "")
		require.NoError(t, err)
		advanceTo(t, svc, g.Session.ID, models.PhaseDiscussion1)

		_, err = svc.StartGroupChat(ctx, g.Session.ID, "Who had the key?")
		require.NoError(t, err)

		state, err := svc.State(ctx, g.Session.ID)
		require.NoError(t, err)
		assert.Empty(t, state.Session.GroupChatHistory)
	})

	t.Run("interrupted stream keeps only the player message", func(t *testing.T) {
		svc := newService(t, aitest.NewFake())
		g, err := svc.CreateGame(ctx, "")
		require.NoError(t, err)
		advanceTo(t, svc, g.Session.ID, models.PhaseDiscussion1)

		turn, err := svc.StartGroupChat(ctx, g.Session.ID, "Who had the key?")
		require.NoError(t, err)
		stop := errors.NewSentinel("stop")
		emitted := 0
		_, err = turn.Stream(ctx, func(agents.Fragment) error {
			emitted++
			return stop
		})
		require.ErrorIs(t, err, stop)
		assert.Equal(t, 1, emitted)

		state, err := svc.State(ctx, g.Session.ID)
		require.NoError(t, err)
		require.Len(t, state.Session.GroupChatHistory, 1)
		assert.Equal(t, "Who had the key?", state.Session.GroupChatHistory[0].Content)
	})
}
