// Package memory keeps the per-character knowledge of a game: conversation notes, clues, facts and suspicions.
//
// Every operation is pure. It returns a new memory and never modifies its argument.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/myrjola/whodunit/internal/models"
)

const (
	// CompactionThreshold is the number of conversation notes a memory may hold before it is compacted.
	CompactionThreshold = 10
	// RetainedConversations is the number of most recent notes kept by compaction.
	RetainedConversations = 6
	// InitialSuspicion is the suspicion level towards every related character at the start of a game.
	InitialSuspicion = 3
	// MaxSuspicion is the upper bound of the suspicion scale that starts from zero.
	MaxSuspicion = 10

	defaultEmotionalState = "alert"
	summaryFactPrefix     = "Recent conversation summary: "
	fallbackSeparator     = "; "
)

// Entry is one utterance to be remembered.
type Entry struct {
	Role        models.ChatRole
	Content     string
	CharacterID string
	Round       int
}

// Summarizer compresses a conversation transcript into a short note.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Initialize creates the memory of character at the start of a game.
func Initialize(character models.Character) models.CharacterMemory {
	objectives := make([]string, 0, len(character.Objectives))
	for _, o := range character.Objectives {
		objectives = append(objectives, o.Description)
	}
	suspicions := make([]models.SuspicionRecord, 0, len(character.Relationships))
	for _, r := range character.Relationships {
		suspicions = append(suspicions, models.SuspicionRecord{
			CharacterID: r.CharacterID,
			Level:       InitialSuspicion,
			Reasons:     []string{},
		})
	}
	return models.CharacterMemory{
		CharacterID:     character.ID,
		PrivateScript:   character.PrivateScript,
		PublicProfile:   character.PublicInfo,
		Objectives:      objectives,
		Conversations:   []models.ConversationSummary{},
		DiscoveredClues: []models.Clue{},
		KnownFacts:      []string{},
		Suspicions:      suspicions,
		EmotionalState:  defaultEmotionalState,
	}
}

func roleLabel(role models.ChatRole) string {
	switch role {
	case models.ChatRolePlayer:
		return "player"
	case models.ChatRoleNPC:
		return "self"
	default:
		return string(role)
	}
}

// AppendConversation records entry as a role-tagged note. Notes are not deduplicated.
func AppendConversation(m models.CharacterMemory, entry Entry) models.CharacterMemory {
	m = m.Clone()
	withID := entry.CharacterID
	if withID == "" {
		withID = models.PlayerVoterID
	}
	m.Conversations = append(m.Conversations, models.ConversationSummary{
		WithCharacterID: withID,
		Round:           entry.Round,
		Summary:         fmt.Sprintf("%s: %s", roleLabel(entry.Role), entry.Content),
		Timestamp:       time.Now().UnixMilli(),
	})
	return m
}

// Transcript numbers the conversation notes of m, one per line.
func Transcript(m models.CharacterMemory) string {
	var b strings.Builder
	for i, c := range m.Conversations {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, c.Summary)
	}
	return b.String()
}

func recentNotes(m models.CharacterMemory) string {
	start := max(0, len(m.Conversations)-RetainedConversations)
	notes := make([]string, 0, RetainedConversations)
	for _, c := range m.Conversations[start:] {
		notes = append(notes, c.Summary)
	}
	return strings.Join(notes, fallbackSeparator)
}

// Summarize returns the full transcript while m holds at most CompactionThreshold notes. Beyond that it asks
// summarizer for a short summary and falls back to the most recent notes when summarizer is nil, fails or returns
// nothing.
func Summarize(ctx context.Context, m models.CharacterMemory, summarizer Summarizer) string {
	transcript := Transcript(m)
	if len(m.Conversations) <= CompactionThreshold {
		return transcript
	}
	if summarizer == nil {
		return recentNotes(m)
	}
	summary, err := summarizer.Summarize(ctx, transcript)
	if err != nil {
		return recentNotes(m)
	}
	if summary = strings.TrimSpace(summary); summary == "" {
		return recentNotes(m)
	}
	return summary
}

// Compact folds the notes of m into a known fact and keeps only the most recent ones once m holds more than
// CompactionThreshold notes. Smaller memories are returned as is.
func Compact(ctx context.Context, m models.CharacterMemory, summarizer Summarizer) models.CharacterMemory {
	if len(m.Conversations) <= CompactionThreshold {
		return m
	}
	return ApplySummary(m, Summarize(ctx, m, summarizer))
}

// ApplySummary is the pure part of [Compact]: it records summary as a known fact and keeps only the most recent
// notes. Memories at or below CompactionThreshold are returned as is.
func ApplySummary(m models.CharacterMemory, summary string) models.CharacterMemory {
	if len(m.Conversations) <= CompactionThreshold {
		return m
	}
	m = m.Clone()
	m.KnownFacts = append(m.KnownFacts, summaryFactPrefix+summary)
	m.Conversations = slices.Clone(m.Conversations[len(m.Conversations)-RetainedConversations:])
	return m
}

func clamp(level int) int {
	return min(MaxSuspicion, max(0, level))
}

// UpdateSuspicion shifts the suspicion towards targetID by delta within [0, MaxSuspicion]. An unknown target starts
// from zero. Empty reasons are not recorded.
func UpdateSuspicion(m models.CharacterMemory, targetID string, delta int, reason string) models.CharacterMemory {
	m = m.Clone()
	i := slices.IndexFunc(m.Suspicions, func(s models.SuspicionRecord) bool { return s.CharacterID == targetID })
	if i == -1 {
		record := models.SuspicionRecord{CharacterID: targetID, Level: clamp(delta), Reasons: []string{}}
		if reason != "" {
			record.Reasons = append(record.Reasons, reason)
		}
		m.Suspicions = append(m.Suspicions, record)
		return m
	}
	m.Suspicions[i].Level = clamp(m.Suspicions[i].Level + delta)
	if reason != "" {
		m.Suspicions[i].Reasons = append(m.Suspicions[i].Reasons, reason)
	}
	return m
}

// AddDiscoveredClue adds clue unless a clue with the same id is already known.
func AddDiscoveredClue(m models.CharacterMemory, clue models.Clue) models.CharacterMemory {
	if slices.ContainsFunc(m.DiscoveredClues, func(c models.Clue) bool { return c.ID == clue.ID }) {
		return m
	}
	m = m.Clone()
	m.DiscoveredClues = append(m.DiscoveredClues, clue)
	return m
}

// AddKnownFact adds fact unless the exact same fact is already known.
func AddKnownFact(m models.CharacterMemory, fact string) models.CharacterMemory {
	if slices.Contains(m.KnownFacts, fact) {
		return m
	}
	m = m.Clone()
	m.KnownFacts = append(m.KnownFacts, fact)
	return m
}

// KnownClues lists the clue contents and facts the character can talk about.
func KnownClues(m models.CharacterMemory) []string {
	known := make([]string, 0, len(m.DiscoveredClues)+len(m.KnownFacts))
	for _, c := range m.DiscoveredClues {
		known = append(known, c.Content)
	}
	return append(known, m.KnownFacts...)
}
