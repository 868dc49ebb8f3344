package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/whodunit/internal/memory"
	"github.com/myrjola/whodunit/internal/models"
)

// NewSession starts a game of scenario. The lobby is skipped and play starts from READING in round 1.
func NewSession(scenario *models.Scenario) models.GameSession {
	memories := make(map[string]models.CharacterMemory, len(scenario.Characters))
	histories := make(map[string][]models.ChatMessage, len(scenario.Characters))
	for _, c := range scenario.Characters {
		memories[c.ID] = memory.Initialize(c)
		histories[c.ID] = []models.ChatMessage{}
	}
	return models.GameSession{
		ID:                uuid.NewString(),
		ScenarioID:        scenario.ID,
		CurrentPhase:      models.PhaseReading,
		Round:             1,
		StartedAt:         time.Now().UnixMilli(),
		CharacterMemories: memories,
		DiscoveredClues:   []models.Clue{},
		Votes:             map[string]string{},
		ChatHistories:     histories,
		GroupChatHistory:  []models.ChatMessage{},
	}
}

// NewMessage creates a chat message stamped with a fresh id and the current time.
func NewMessage(role models.ChatRole, characterID, content string) models.ChatMessage {
	return models.ChatMessage{
		ID:          uuid.NewString(),
		Role:        role,
		CharacterID: characterID,
		Content:     content,
		Timestamp:   time.Now().UnixMilli(),
	}
}
