package game

import (
	"fmt"

	"github.com/myrjola/whodunit/internal/models"
)

const (
	discussionAdvanceThreshold      = 10
	finalDiscussionAdvanceThreshold = 14
)

// SuggestAdvance reports whether the group discussion has gone on long enough for the game master to move on.
func SuggestAdvance(session models.GameSession) bool {
	switch session.CurrentPhase { //nolint:exhaustive // only discussions are paced
	case models.PhaseDiscussion1, models.PhaseDiscussion2:
		return len(session.GroupChatHistory) >= discussionAdvanceThreshold
	case models.PhaseFinalDiscussion:
		return len(session.GroupChatHistory) >= finalDiscussionAdvanceThreshold
	default:
		return false
	}
}

type NarrationEvent string

const (
	NarrationPhaseEnter         NarrationEvent = "phase_enter"
	NarrationDiscussionStall    NarrationEvent = "discussion_stall"
	NarrationInvestigationStart NarrationEvent = "investigation_start"
)

// Narrate returns the game master line for event in the current phase of session.
func Narrate(session models.GameSession, event NarrationEvent) string {
	switch event {
	case NarrationPhaseEnter:
		return fmt.Sprintf("We are now in the %s phase. Keep the conversation on its goal.",
			Capabilities(session.CurrentPhase).Label)
	case NarrationDiscussionStall:
		return "The discussion is stalling. Press on the timeline conflicts and on where the poison came from."
	case NarrationInvestigationStart:
		return "The search begins. Choose a location and look for evidence that can be verified."
	default:
		return "The game master is watching and will move things along when needed."
	}
}
