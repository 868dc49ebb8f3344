package agents

import (
	"context"

	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/models"
)

const (
	npcTemperature = 0.8
	npcMaxTokens   = 500
)

// PrivateChat answers the player in a one-on-one conversation with a character.
type PrivateChat struct {
	streamer *Streamer
}

func NewPrivateChat(streamer *Streamer) *PrivateChat {
	return &PrivateChat{streamer: streamer}
}

// Respond streams the reply of character to message. history is the private chat so far.
func (p *PrivateChat) Respond(
	ctx context.Context,
	character *models.Character,
	m models.CharacterMemory,
	history []models.ChatMessage,
	phase models.Phase,
	message string,
) <-chan string {
	return p.streamer.Stream(ctx, StreamRequest{
		System:      SystemPrompt(character, m, phase),
		History:     historyMessages(history),
		Prompt:      message,
		Temperature: npcTemperature,
		MaxTokens:   npcMaxTokens,
	})
}

// historyMessages maps the player and character lines of a private chat to model turns.
func historyMessages(history []models.ChatMessage) []ai.Message {
	messages := make([]ai.Message, 0, len(history))
	for _, m := range history {
		switch m.Role { //nolint:exhaustive // the game master and system lines are not part of the dialogue
		case models.ChatRolePlayer:
			messages = append(messages, ai.Message{Role: ai.RoleUser, Content: m.Content})
		case models.ChatRoleNPC:
			messages = append(messages, ai.Message{Role: ai.RoleAssistant, Content: m.Content})
		}
	}
	return messages
}
