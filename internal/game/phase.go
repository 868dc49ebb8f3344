package game

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/models"
)

// Sequence is the fixed order of the game phases. REVEAL is terminal.
var Sequence = []models.Phase{ //nolint:gochecknoglobals // static table
	models.PhaseLobby,
	models.PhaseReading,
	models.PhaseIntro,
	models.PhaseDiscussion1,
	models.PhaseInvestigation1,
	models.PhaseDiscussion2,
	models.PhaseInvestigation2,
	models.PhaseFinalDiscussion,
	models.PhaseVoting,
	models.PhaseReveal,
}

// PhaseConfig describes what the player may do in a phase.
type PhaseConfig struct {
	Label               string `json:"label"`
	Description         string `json:"description"`
	Narration           string `json:"narration"`
	AllowsChat          bool   `json:"allowsChat"`
	AllowsInvestigation bool   `json:"allowsInvestigation"`
	AllowsVoting        bool   `json:"allowsVoting"`
}

var phaseConfigs = map[models.Phase]PhaseConfig{ //nolint:gochecknoglobals // static table
	models.PhaseLobby: {
		Label:       "Lobby",
		Description: "Waiting for everyone to enter the game.",
		Narration:   "The characters have arrived. Confirm you are ready to read your script.",
	},
	models.PhaseReading: {
		Label:       "Reading",
		Description: "Read your character script and the public background.",
		Narration:   "The storm has sealed the roads. Read the background and learn the limits of what you know.",
	},
	models.PhaseIntro: {
		Label:       "Introductions",
		Description: "The characters introduce themselves and sketch the first timeline.",
		Narration:   "Everyone, introduce yourselves briefly and say where you were last night.",
		AllowsChat:  true,
	},
	models.PhaseDiscussion1: {
		Label:       "First discussion",
		Description: "Question motives and alibis.",
		Narration:   "The first discussion begins. Start with motives and alibis, and cross-examine each other.",
		AllowsChat:  true,
	},
	models.PhaseInvestigation1: {
		Label:               "First investigation",
		Description:         "Search the locations for the first set of clues.",
		Narration:           "The first investigation begins. Pick a location and look for the first clues.",
		AllowsInvestigation: true,
	},
	models.PhaseDiscussion2: {
		Label:       "Second discussion",
		Description: "Use the clues to test the statements.",
		Narration:   "The second discussion begins. Compare the new clues with what everyone has claimed.",
		AllowsChat:  true,
	},
	models.PhaseInvestigation2: {
		Label:               "Second investigation",
		Description:         "Unlock the key evidence.",
		Narration:           "The second investigation begins. The key evidence is now within reach.",
		AllowsInvestigation: true,
	},
	models.PhaseFinalDiscussion: {
		Label:       "Final discussion",
		Description: "Settle on a single suspect.",
		Narration:   "The final discussion begins. Assemble the full timeline and agree on one suspect.",
		AllowsChat:  true,
	},
	models.PhaseVoting: {
		Label:        "Voting",
		Description:  "Accuse the killer and present the evidence.",
		Narration:    "Make your final accusation and lay out the chain of evidence.",
		AllowsVoting: true,
	},
	models.PhaseReveal: {
		Label:       "Reveal",
		Description: "The truth and every hidden secret are revealed.",
		Narration:   "The truth is revealed. The game master walks through the crime and every misdirection.",
	},
}

// Capabilities returns the static descriptor of phase p. Unknown phases allow nothing.
func Capabilities(p models.Phase) PhaseConfig {
	return phaseConfigs[p]
}

// NextPhase returns the phase after current. The second return value is false at REVEAL and for unknown phases.
func NextPhase(current models.Phase) (models.Phase, bool) {
	i := slices.Index(Sequence, current)
	if i == -1 || i >= len(Sequence)-1 {
		return "", false
	}
	return Sequence[i+1], true
}

// expectedRound returns the round a phase must be played in, or 0 if the phase has no requirement.
func expectedRound(p models.Phase) int {
	switch p { //nolint:exhaustive // other phases have no round requirement
	case models.PhaseDiscussion1, models.PhaseInvestigation1:
		return 1
	case models.PhaseDiscussion2, models.PhaseInvestigation2:
		return 2
	case models.PhaseFinalDiscussion:
		return 3 //nolint:mnd // third round
	default:
		return 0
	}
}

// CanAdvance reports whether session may leave its current phase.
func CanAdvance(session models.GameSession) bool {
	if _, ok := NextPhase(session.CurrentPhase); !ok {
		return false
	}
	if want := expectedRound(session.CurrentPhase); want != 0 && session.Round != want {
		return false
	}
	if session.CurrentPhase == models.PhaseVoting && len(session.Votes) == 0 {
		return false
	}
	return true
}

// RoundForPhase returns the round after entering next. Phases without a round requirement keep current.
func RoundForPhase(next models.Phase, current int) int {
	if want := expectedRound(next); want != 0 {
		return want
	}
	return current
}

// Transition describes one phase change.
type Transition struct {
	From      models.Phase `json:"from"`
	To        models.Phase `json:"to"`
	Narration string       `json:"narration"`
	Config    PhaseConfig  `json:"phaseConfig"`
}

// Advance moves session to the next phase. It is the only operation that changes the current phase and it leaves
// clues, memories and chats untouched.
func Advance(session models.GameSession) (models.GameSession, Transition, error) {
	next, ok := NextPhase(session.CurrentPhase)
	if !ok {
		return session, Transition{}, errors.Wrap(ErrTerminalPhase, "advance",
			slog.String("phase", string(session.CurrentPhase)))
	}
	if !CanAdvance(session) {
		return session, Transition{}, errors.Wrap(ErrTransitionRejected,
			fmt.Sprintf("cannot advance from phase %s", session.CurrentPhase),
			slog.String("phase", string(session.CurrentPhase)),
			slog.Int("round", session.Round))
	}

	from := session.CurrentPhase
	session.CurrentPhase = next
	session.Round = RoundForPhase(next, session.Round)
	config := Capabilities(next)
	return session, Transition{
		From:      from,
		To:        next,
		Narration: config.Narration,
		Config:    config,
	}, nil
}

// Capability is an action gated by the current phase.
type Capability string

const (
	CapabilityChat          Capability = "chat"
	CapabilityInvestigation Capability = "investigation"
	CapabilityVoting        Capability = "voting"
)

// RequireCapability returns ErrCapabilityDisabled unless the current phase of session allows c.
func RequireCapability(session models.GameSession, c Capability) error {
	config := Capabilities(session.CurrentPhase)
	var allowed bool
	switch c {
	case CapabilityChat:
		allowed = config.AllowsChat
	case CapabilityInvestigation:
		allowed = config.AllowsInvestigation
	case CapabilityVoting:
		allowed = config.AllowsVoting
	}
	if allowed {
		return nil
	}
	return errors.Wrap(ErrCapabilityDisabled,
		fmt.Sprintf("%s is disabled during phase %s", c, session.CurrentPhase),
		slog.String("capability", string(c)),
		slog.String("phase", string(session.CurrentPhase)))
}

// IsDiscussion reports whether p is one of the group discussion phases.
func IsDiscussion(p models.Phase) bool {
	return p == models.PhaseDiscussion1 || p == models.PhaseDiscussion2 || p == models.PhaseFinalDiscussion
}
