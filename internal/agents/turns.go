package agents

import (
	"slices"
	"strings"

	"github.com/myrjola/whodunit/internal/models"
	"golang.org/x/text/cases"
)

const (
	// quietWindow is how many recent character messages count towards who has spoken a lot.
	quietWindow = 12
	// maxResponders bounds the replies to a player message.
	maxResponders = 3
	// maxContinuations bounds the consecutive character messages without player input.
	maxContinuations = 2
)

// QuietRanking orders the roster by how often each character spoke among the last quietWindow character messages
// of history, least first. Ties keep roster order.
func QuietRanking(roster []models.Character, history []models.ChatMessage) []string {
	var npcMessages []models.ChatMessage
	for _, m := range history {
		if m.Role == models.ChatRoleNPC && m.CharacterID != "" {
			npcMessages = append(npcMessages, m)
		}
	}
	npcMessages = npcMessages[max(0, len(npcMessages)-quietWindow):]

	spoken := make(map[string]int, len(roster))
	for _, m := range npcMessages {
		spoken[m.CharacterID]++
	}

	ids := make([]string, 0, len(roster))
	for _, c := range roster {
		ids = append(ids, c.ID)
	}
	slices.SortStableFunc(ids, func(a, b string) int {
		return spoken[a] - spoken[b]
	})
	return ids
}

// Mentioned lists, in roster order, the characters whose name or id appears in message. Names match regardless of
// case.
func Mentioned(roster []models.Character, message string) []string {
	caser := cases.Fold()
	normalized := caser.String(strings.TrimSpace(message))
	if normalized == "" {
		return nil
	}
	var ids []string
	for _, c := range roster {
		if strings.Contains(normalized, caser.String(c.Name)) || strings.Contains(normalized, c.ID) {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// DecideResponders picks who answers message in the group chat and in which order. Mentioned characters go first,
// then the quietest ones. A blank message, which asks the characters to carry on by themselves, gets at most
// maxContinuations responders and any other message gets up to maxResponders.
func DecideResponders(roster []models.Character, history []models.ChatMessage, message string) []string {
	ordered := make([]string, 0, len(roster))
	for _, id := range slices.Concat(Mentioned(roster, message), QuietRanking(roster, history)) {
		if !slices.Contains(ordered, id) {
			ordered = append(ordered, id)
		}
	}
	if len(ordered) == 0 {
		return nil
	}
	if strings.TrimSpace(message) == "" {
		return ordered[:min(maxContinuations, len(ordered))]
	}
	return ordered[:min(maxResponders, len(ordered))]
}

// TrailingNPCCount counts the character messages at the end of history since the last message of anyone else.
func TrailingNPCCount(history []models.ChatMessage) int {
	count := 0
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != models.ChatRoleNPC {
			break
		}
		count++
	}
	return count
}

// ResponderBudget is how many characters may reply now. Without player input the characters may only add up to
// maxContinuations messages in a row.
func ResponderBudget(message string, trailingNPCCount int) int {
	if strings.TrimSpace(message) != "" {
		return maxResponders
	}
	return max(0, maxContinuations-trailingNPCCount)
}
