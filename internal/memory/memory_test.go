package memory_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/memory"
	"github.com/myrjola/whodunit/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSummarizer struct {
	summary string
	err     error
	calls   int
}

func (s *stubSummarizer) Summarize(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.summary, s.err
}

func testCharacter() models.Character {
	return models.Character{
		ID:            "arthur-graves",
		Name:          "Arthur Graves",
		PublicInfo:    "The butler.",
		PrivateScript: "He saw everything.",
		Objectives: []models.Objective{
			{Description: "Protect the family name", Type: models.ObjectiveTypePrimary},
			{Description: "Keep your debts hidden", Type: models.ObjectiveTypeSecondary, IsSecret: true},
		},
		Relationships: []models.Relationship{
			{CharacterID: "clara-whitmore"},
			{CharacterID: "victor-hale"},
		},
	}
}

func withNotes(n int) models.CharacterMemory {
	m := memory.Initialize(testCharacter())
	for i := range n {
		m = memory.AppendConversation(m, memory.Entry{Role: models.ChatRolePlayer, Content: fmt.Sprintf("line %d", i)})
	}
	return m
}

func TestInitialize(t *testing.T) {
	m := memory.Initialize(testCharacter())

	assert.Equal(t, "arthur-graves", m.CharacterID)
	assert.Equal(t, "The butler.", m.PublicProfile)
	assert.Equal(t, "He saw everything.", m.PrivateScript)
	assert.Equal(t, []string{"Protect the family name", "Keep your debts hidden"}, m.Objectives)
	assert.Empty(t, m.Conversations)
	assert.Empty(t, m.DiscoveredClues)
	assert.Empty(t, m.KnownFacts)
	assert.Equal(t, "alert", m.EmotionalState)
	require.Len(t, m.Suspicions, 2)
	for _, s := range m.Suspicions {
		assert.Equal(t, memory.InitialSuspicion, s.Level)
		assert.Empty(t, s.Reasons)
	}
}

func TestAppendConversation(t *testing.T) {
	original := memory.Initialize(testCharacter())

	tests := []struct {
		role models.ChatRole
		want string
	}{
		{role: models.ChatRolePlayer, want: "player: hello"},
		{role: models.ChatRoleNPC, want: "self: hello"},
		{role: models.ChatRoleGM, want: "gm: hello"},
		{role: models.ChatRoleSystem, want: "system: hello"},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			m := memory.AppendConversation(original, memory.Entry{Role: tt.role, Content: "hello", Round: 2})
			require.Len(t, m.Conversations, 1)
			assert.Equal(t, tt.want, m.Conversations[0].Summary)
			assert.Equal(t, 2, m.Conversations[0].Round)
			assert.Equal(t, models.PlayerVoterID, m.Conversations[0].WithCharacterID)
			assert.Empty(t, original.Conversations, "argument must not change")
		})
	}

	t.Run("does not deduplicate", func(t *testing.T) {
		entry := memory.Entry{Role: models.ChatRolePlayer, Content: "again"}
		m := memory.AppendConversation(memory.AppendConversation(original, entry), entry)
		assert.Len(t, m.Conversations, 2)
	})
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()

	t.Run("short memory returns the transcript in order", func(t *testing.T) {
		m := withNotes(memory.CompactionThreshold)
		summarizer := &stubSummarizer{summary: "unused"}
		got := memory.Summarize(ctx, m, summarizer)

		lines := strings.Split(got, "\n")
		require.Len(t, lines, memory.CompactionThreshold)
		for i, line := range lines {
			assert.Equal(t, fmt.Sprintf("%d. player: line %d", i+1, i), line)
		}
		assert.Zero(t, summarizer.calls)
	})

	t.Run("long memory uses the summarizer", func(t *testing.T) {
		summarizer := &stubSummarizer{summary: "  Arthur lied about the key.  "}
		got := memory.Summarize(ctx, withNotes(11), summarizer)
		assert.Equal(t, "Arthur lied about the key.", got)
		assert.Equal(t, 1, summarizer.calls)
	})

	fallback := "player: line 5; player: line 6; player: line 7; player: line 8; player: line 9; player: line 10"
	tests := []struct {
		name       string
		summarizer memory.Summarizer
	}{
		{name: "no summarizer", summarizer: nil},
		{name: "summarizer fails", summarizer: &stubSummarizer{err: errors.New("boom")}},
		{name: "empty summary", summarizer: &stubSummarizer{summary: " "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, fallback, memory.Summarize(ctx, withNotes(11), tt.summarizer))
		})
	}
}

func TestCompact(t *testing.T) {
	ctx := context.Background()

	t.Run("below threshold", func(t *testing.T) {
		m := withNotes(memory.CompactionThreshold)
		got := memory.Compact(ctx, m, &stubSummarizer{summary: "x"})
		assert.Len(t, got.Conversations, memory.CompactionThreshold)
		assert.Empty(t, got.KnownFacts)
	})

	t.Run("above threshold", func(t *testing.T) {
		m := withNotes(12)
		got := memory.Compact(ctx, m, &stubSummarizer{summary: "A short summary."})
		require.LessOrEqual(t, len(got.Conversations), memory.RetainedConversations)
		assert.Equal(t, "player: line 6", got.Conversations[0].Summary)
		assert.Equal(t, "player: line 11", got.Conversations[len(got.Conversations)-1].Summary)
		assert.Equal(t, []string{"Recent conversation summary: A short summary."}, got.KnownFacts)
		assert.Len(t, m.Conversations, 12, "argument must not change")
	})
}

func TestUpdateSuspicion(t *testing.T) {
	base := memory.Initialize(testCharacter())

	tests := []struct {
		name        string
		target      string
		delta       int
		reason      string
		wantLevel   int
		wantReasons []string
	}{
		{name: "raises existing", target: "victor-hale", delta: 4, reason: "muddy boots", wantLevel: 7,
			wantReasons: []string{"muddy boots"}},
		{name: "clamps high", target: "victor-hale", delta: 20, reason: "", wantLevel: 10, wantReasons: []string{}},
		{name: "clamps low", target: "clara-whitmore", delta: -5, reason: "calm", wantLevel: 0,
			wantReasons: []string{"calm"}},
		{name: "creates record", target: "lily-chen", delta: 4, reason: "", wantLevel: 4, wantReasons: []string{}},
		{name: "creates clamped record", target: "lily-chen", delta: 15, reason: "seen", wantLevel: 10,
			wantReasons: []string{"seen"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := memory.UpdateSuspicion(base, tt.target, tt.delta, tt.reason)
			var found bool
			for _, s := range got.Suspicions {
				if s.CharacterID == tt.target {
					found = true
					assert.Equal(t, tt.wantLevel, s.Level)
					assert.Equal(t, tt.wantReasons, s.Reasons)
				}
			}
			require.True(t, found)
			assert.Len(t, base.Suspicions, 2, "argument must not change")
			assert.Equal(t, memory.InitialSuspicion, base.Suspicions[1].Level, "argument must not change")
		})
	}
}

func TestAddDiscoveredClue(t *testing.T) {
	clue := models.Clue{ID: "torn-letter", Content: "A torn letter."}
	m := memory.AddDiscoveredClue(memory.Initialize(testCharacter()), clue)
	m = memory.AddDiscoveredClue(m, models.Clue{ID: "torn-letter", Content: "Different content, same id."})
	require.Len(t, m.DiscoveredClues, 1)
	assert.Equal(t, "A torn letter.", m.DiscoveredClues[0].Content)
}

func TestAddKnownFact(t *testing.T) {
	m := memory.Initialize(testCharacter())
	m = memory.AddKnownFact(m, "Public clue: the window was open.")
	m = memory.AddKnownFact(m, "Public clue: the window was open.")
	m = memory.AddKnownFact(m, "Public clue: the clock stopped.")
	assert.Equal(t, []string{"Public clue: the window was open.", "Public clue: the clock stopped."}, m.KnownFacts)
	assert.Equal(t, m.KnownFacts, memory.KnownClues(m))
}
