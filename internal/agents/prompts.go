package agents

import (
	"fmt"
	"strings"

	"github.com/myrjola/whodunit/internal/memory"
	"github.com/myrjola/whodunit/internal/models"
)

const (
	continuePrompt = "Continue the discussion: add one new point or challenge, and do not repeat what was already said."
	summaryPrompt  = "You organise the memory of a murder mystery character. Compress the conversation into a summary " +
		"of at most 120 characters that keeps the key people, clues and contradictions."
)

func numbered(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	lines := make([]string, 0, len(items))
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, item))
	}
	return strings.Join(lines, "\n")
}

func personalNotes(m models.CharacterMemory) string {
	recent := m.Conversations[max(0, len(m.Conversations)-memory.RetainedConversations):]
	if len(recent) == 0 {
		return "No new conversation notes."
	}
	lines := make([]string, 0, len(recent))
	for _, c := range recent {
		lines = append(lines, "- "+c.Summary)
	}
	return strings.Join(lines, "\n")
}

// SystemPrompt tells the model who character is and what it knows right now.
func SystemPrompt(character *models.Character, m models.CharacterMemory, phase models.Phase) string {
	objectives := make([]string, 0, len(character.Objectives))
	for _, o := range character.Objectives {
		objectives = append(objectives, o.Description)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, %d years old, %s.\n\n", character.Name, character.Age, character.Occupation)
	fmt.Fprintf(&b, "## Your personality\n%s\n\n", character.Personality)
	fmt.Fprintf(&b, "## How you speak\n%s\n\n", character.SpeakingStyle)
	fmt.Fprintf(&b, "## Public information (everyone knows this)\n%s\n\n", character.PublicInfo)
	fmt.Fprintf(&b, "## Your secret (only you know this, never reveal it verbatim)\n%s\n\n", character.PrivateScript)
	fmt.Fprintf(&b, "## Your objectives\n%s\n\n", numbered(objectives, "No explicit objectives."))
	b.WriteString("## Rules\n" +
		"- You only know the information above and what you learn during the game.\n" +
		"- Stay in character at all times.\n" +
		"- You may lie, conceal or hint, as long as it fits your personality.\n" +
		"- Answer briefly and naturally in one to three sentences.\n" +
		"- If asked about something you do not know, say so or change the subject.\n\n")
	fmt.Fprintf(&b, "## Current game state\nPhase: %s\nClues you know:\n%s\nYour mood: %s\n\n",
		phase, numbered(memory.KnownClues(m), "None."), m.EmotionalState)
	fmt.Fprintf(&b, "## Your personal memory (only you can see this)\n%s", personalNotes(m))
	return b.String()
}

// speaker names the author of a group chat line.
func speaker(m models.ChatMessage, names map[string]string) string {
	switch m.Role {
	case models.ChatRolePlayer:
		return "Player"
	case models.ChatRoleNPC:
		if name, ok := names[m.CharacterID]; ok {
			return name
		}
		return m.CharacterID
	default:
		return "GM"
	}
}
