// Package sse writes and reads the server-sent events of the streamed chat replies.
package sse

// SSE event type constants
const (
	EventNPCStart = "npc_start"
	EventNPCChunk = "npc_chunk"
	EventNPCDone  = "npc_done"
	EventDone     = "done"
	EventError    = "error"
)

// Event is one server-sent event. Data is encoded as JSON.
type Event struct {
	Name string
	Data any
}

// NPCPayload is the data of the npc_start, npc_chunk and npc_done events. Type repeats the event name for clients
// reading the data lines only.
type NPCPayload struct {
	Type        string `json:"type"`
	CharacterID string `json:"characterId"`
	Text        string `json:"text"`
}

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NPCStart(characterID string) Event {
	return Event{Name: EventNPCStart, Data: NPCPayload{Type: EventNPCStart, CharacterID: characterID, Text: ""}}
}

func NPCChunk(characterID, text string) Event {
	return Event{Name: EventNPCChunk, Data: NPCPayload{Type: EventNPCChunk, CharacterID: characterID, Text: text}}
}

// NPCDone carries the complete reply of the character.
func NPCDone(characterID, text string) Event {
	return Event{Name: EventNPCDone, Data: NPCPayload{Type: EventNPCDone, CharacterID: characterID, Text: text}}
}

// Done ends a successful stream. v is usually the updated game state.
func Done(v any) Event {
	return Event{Name: EventDone, Data: v}
}

func Error(message string) Event {
	return Event{Name: EventError, Data: errorPayload{Type: EventError, Message: message}}
}
