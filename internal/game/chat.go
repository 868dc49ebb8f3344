package game

import (
	"strings"

	"github.com/myrjola/whodunit/internal/memory"
	"github.com/myrjola/whodunit/internal/models"
)

// Reply is the complete utterance of one character.
type Reply struct {
	CharacterID string `json:"characterId"`
	Text        string `json:"text"`
}

// RecordPrivateChat appends a one-on-one exchange to the private history and the memory of characterID. A blank
// reply is dropped and only the player message is recorded.
func RecordPrivateChat(session models.GameSession, characterID, message, reply string) models.GameSession {
	reply = strings.TrimSpace(reply)
	next := session.Clone()
	next.ChatHistories[characterID] = append(next.ChatHistories[characterID],
		NewMessage(models.ChatRolePlayer, characterID, message))
	if reply != "" {
		next.ChatHistories[characterID] = append(next.ChatHistories[characterID],
			NewMessage(models.ChatRoleNPC, characterID, reply))
	}
	if m, ok := next.CharacterMemories[characterID]; ok {
		m = memory.AppendConversation(m, memory.Entry{
			Role: models.ChatRolePlayer, Content: message, CharacterID: characterID, Round: next.Round,
		})
		if reply != "" {
			m = memory.AppendConversation(m, memory.Entry{
				Role: models.ChatRoleNPC, Content: reply, CharacterID: characterID, Round: next.Round,
			})
		}
		next.CharacterMemories[characterID] = m
	}
	return next
}

// RecordPlayerGroupMessage appends a player line to the group chat. Blank messages are ignored.
func RecordPlayerGroupMessage(session models.GameSession, message string) models.GameSession {
	message = strings.TrimSpace(message)
	if message == "" {
		return session
	}
	next := session.Clone()
	next.GroupChatHistory = append(next.GroupChatHistory, NewMessage(models.ChatRolePlayer, "", message))
	return next
}

// RecordGroupReplies appends the replies to the group chat in order and lets every responder remember the player
// message that triggered it and its own reply. Blank replies are dropped.
func RecordGroupReplies(session models.GameSession, message string, replies []Reply) models.GameSession {
	message = strings.TrimSpace(message)
	next := session.Clone()
	for _, r := range replies {
		text := strings.TrimSpace(r.Text)
		if text == "" {
			continue
		}
		next.GroupChatHistory = append(next.GroupChatHistory, NewMessage(models.ChatRoleNPC, r.CharacterID, text))
		m, ok := next.CharacterMemories[r.CharacterID]
		if !ok {
			continue
		}
		if message != "" {
			m = memory.AppendConversation(m, memory.Entry{
				Role: models.ChatRolePlayer, Content: message, CharacterID: r.CharacterID, Round: next.Round,
			})
		}
		m = memory.AppendConversation(m, memory.Entry{
			Role: models.ChatRoleNPC, Content: text, CharacterID: r.CharacterID, Round: next.Round,
		})
		next.CharacterMemories[r.CharacterID] = m
	}
	return next
}

// OverfullMemories lists the characters whose memories need compaction.
func OverfullMemories(session models.GameSession, characterIDs []string) []string {
	var ids []string
	for _, id := range characterIDs {
		if m, ok := session.CharacterMemories[id]; ok && len(m.Conversations) > memory.CompactionThreshold {
			ids = append(ids, id)
		}
	}
	return ids
}
