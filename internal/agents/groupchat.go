package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/myrjola/whodunit/internal/game"
	"github.com/myrjola/whodunit/internal/models"
)

// contextWindow is how many group chat lines a responder sees.
const contextWindow = 24

// Fragment is a piece of the reply of one character in the group chat.
type Fragment struct {
	CharacterID string `json:"characterId"`
	Text        string `json:"text"`
}

// GroupChat runs the group discussion turns of the characters.
type GroupChat struct {
	streamer *Streamer
	logger   *slog.Logger
}

func NewGroupChat(streamer *Streamer, logger *slog.Logger) *GroupChat {
	return &GroupChat{streamer: streamer, logger: logger}
}

// Respond streams the replies of the characters chosen to answer message. An empty message asks the characters to
// carry the discussion on by themselves.
//
// The responders speak one after another and each one hears what the previous ones said. The channel is closed
// after the last responder or when ctx is done. Nothing is emitted outside the discussion phases, or when the
// characters have already spoken enough times in a row without the player.
func (g *GroupChat) Respond(
	ctx context.Context,
	session models.GameSession,
	scenario *models.Scenario,
	message string,
) <-chan Fragment {
	out := make(chan Fragment, streamBufferSize)
	message = strings.TrimSpace(message)
	responders := g.responders(session, scenario, message)
	g.logger.LogAttrs(ctx, slog.LevelDebug, "group turn", slog.Any("responders", responders))

	go func() {
		defer close(out)
		if len(responders) == 0 {
			return
		}

		names := scenario.CharacterNames()
		lines := make([]string, 0, len(session.GroupChatHistory)+len(responders))
		for _, m := range session.GroupChatHistory {
			lines = append(lines, fmt.Sprintf("%s: %s", speaker(m, names), m.Content))
		}

		for _, id := range responders {
			character, ok := scenario.Character(id)
			if !ok {
				continue
			}
			m, ok := session.CharacterMemories[id]
			if !ok {
				continue
			}

			fragments := g.streamer.Stream(ctx, StreamRequest{
				System:      SystemPrompt(character, m, session.CurrentPhase),
				Prompt:      groupPrompt(lines, message),
				Temperature: npcTemperature,
				MaxTokens:   npcMaxTokens,
			})
			var reply strings.Builder
			for text := range fragments {
				reply.WriteString(text)
				select {
				case out <- Fragment{CharacterID: id, Text: text}:
				case <-ctx.Done():
					return
				}
			}
			if ctx.Err() != nil {
				return
			}
			if text := strings.TrimSpace(reply.String()); text != "" {
				lines = append(lines, fmt.Sprintf("%s: %s", character.Name, text))
			}
		}
	}()
	return out
}

func (g *GroupChat) responders(session models.GameSession, scenario *models.Scenario, message string) []string {
	if !game.IsDiscussion(session.CurrentPhase) {
		return nil
	}
	budget := ResponderBudget(message, TrailingNPCCount(session.GroupChatHistory))
	if budget == 0 {
		return nil
	}
	responders := DecideResponders(scenario.Characters, session.GroupChatHistory, message)
	return responders[:min(budget, len(responders))]
}

// groupPrompt puts the recent discussion inline in the user turn.
func groupPrompt(lines []string, message string) string {
	recent := lines[max(0, len(lines)-contextWindow):]
	instruction := continuePrompt
	if message != "" {
		instruction = "The player asks: " + message
	}
	if len(recent) == 0 {
		return instruction
	}
	return fmt.Sprintf("Recent discussion:\n%s\n\n%s", strings.Join(recent, "\n"), instruction)
}
