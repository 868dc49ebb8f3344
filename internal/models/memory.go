package models

import "slices"

// CharacterMemory is what one non-player character knows in one game, on top of its static script.
type CharacterMemory struct {
	CharacterID   string   `json:"characterId"`
	PrivateScript string   `json:"privateScript"`
	PublicProfile string   `json:"publicProfile"`
	Objectives    []string `json:"objectives"`

	Conversations   []ConversationSummary `json:"conversations"`
	DiscoveredClues []Clue                `json:"discoveredClues"`
	KnownFacts      []string              `json:"knownFacts"`
	Suspicions      []SuspicionRecord     `json:"suspicions"`
	EmotionalState  string                `json:"emotionalState"`
}

// ConversationSummary is a one-line, role-tagged record of something said to or by the character.
type ConversationSummary struct {
	WithCharacterID string `json:"withCharacterId"`
	Round           int    `json:"round"`
	Summary         string `json:"summary"`
	Timestamp       int64  `json:"timestamp"`
}

// SuspicionRecord is how much the character suspects another one, on a scale from 0 to 10.
type SuspicionRecord struct {
	CharacterID string   `json:"characterId"`
	Level       int      `json:"level"`
	Reasons     []string `json:"reasons"`
}

// Clone returns a copy of m that shares no slices with m.
func (m CharacterMemory) Clone() CharacterMemory {
	m.Objectives = slices.Clone(m.Objectives)
	m.Conversations = slices.Clone(m.Conversations)
	m.DiscoveredClues = slices.Clone(m.DiscoveredClues)
	m.KnownFacts = slices.Clone(m.KnownFacts)
	suspicions := make([]SuspicionRecord, len(m.Suspicions))
	for i, s := range m.Suspicions {
		s.Reasons = slices.Clone(s.Reasons)
		suspicions[i] = s
	}
	m.Suspicions = suspicions
	return m
}
