package models

import (
	"maps"
	"slices"
)

// Phase is one stage of the fixed game sequence.
type Phase string

const (
	PhaseLobby           Phase = "LOBBY"
	PhaseReading         Phase = "READING"
	PhaseIntro           Phase = "INTRO"
	PhaseDiscussion1     Phase = "DISCUSSION_1"
	PhaseInvestigation1  Phase = "INVESTIGATION_1"
	PhaseDiscussion2     Phase = "DISCUSSION_2"
	PhaseInvestigation2  Phase = "INVESTIGATION_2"
	PhaseFinalDiscussion Phase = "FINAL_DISCUSSION"
	PhaseVoting          Phase = "VOTING"
	PhaseReveal          Phase = "REVEAL"
)

// PlayerVoterID is the only voter of a game. The player plays against the non-player characters.
const PlayerVoterID = "player"

type ChatRole string

const (
	ChatRolePlayer ChatRole = "player"
	ChatRoleNPC    ChatRole = "npc"
	ChatRoleGM     ChatRole = "gm"
	ChatRoleSystem ChatRole = "system"
)

// ChatMessage is one line of a private or group chat. CharacterID is required for the npc role.
type ChatMessage struct {
	ID          string   `json:"id"`
	Role        ChatRole `json:"role"`
	CharacterID string   `json:"characterId,omitempty"`
	Content     string   `json:"content"`
	Timestamp   int64    `json:"timestamp"`
}

// GameSession is the mutable state of one game. It is replaced as a whole on every action.
type GameSession struct {
	ID                string                     `json:"id"`
	ScenarioID        string                     `json:"scenarioId"`
	CurrentPhase      Phase                      `json:"currentPhase"`
	Round             int                        `json:"round"`
	StartedAt         int64                      `json:"startedAt"`
	PlayerCharacterID string                     `json:"playerCharacterId,omitempty"`
	CharacterMemories map[string]CharacterMemory `json:"characterMemories"`
	DiscoveredClues   []Clue                     `json:"discoveredClues"`
	Votes             map[string]string          `json:"votes"`
	ChatHistories     map[string][]ChatMessage   `json:"chatHistories"`
	GroupChatHistory  []ChatMessage              `json:"groupChatHistory"`
}

// cloneOrEmpty copies s and turns nil into an empty slice so that it serializes as [].
func cloneOrEmpty[S ~[]E, E any](s S) S {
	if s == nil {
		return S{}
	}
	return slices.Clone(s)
}

// Clone returns a deep copy of s. Mutating the copy never affects s. Nil collections become empty ones.
func (s GameSession) Clone() GameSession {
	memories := make(map[string]CharacterMemory, len(s.CharacterMemories))
	for id, m := range s.CharacterMemories {
		memories[id] = m.Clone()
	}
	s.CharacterMemories = memories

	histories := make(map[string][]ChatMessage, len(s.ChatHistories))
	for id, h := range s.ChatHistories {
		histories[id] = cloneOrEmpty(h)
	}
	s.ChatHistories = histories

	s.Votes = maps.Clone(s.Votes)
	if s.Votes == nil {
		s.Votes = map[string]string{}
	}
	s.DiscoveredClues = cloneOrEmpty(s.DiscoveredClues)
	s.GroupChatHistory = cloneOrEmpty(s.GroupChatHistory)
	return s
}

// HasDiscovered reports whether a clue with clueID has been found in this game.
func (s GameSession) HasDiscovered(clueID string) bool {
	return slices.ContainsFunc(s.DiscoveredClues, func(c Clue) bool { return c.ID == clueID })
}
