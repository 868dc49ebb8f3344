package game

import (
	"fmt"
	"log/slog"

	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/memory"
	"github.com/myrjola/whodunit/internal/models"
)

// InvestigationResult is what searching a location turned up.
type InvestigationResult struct {
	LocationID   string        `json:"locationId"`
	LocationName string        `json:"locationName"`
	Round        int           `json:"round"`
	NewlyFound   []models.Clue `json:"newlyFound"`
	AlreadyFound []models.Clue `json:"alreadyFound"`
	PublicClues  []models.Clue `json:"publicClues"`
	PrivateClues []models.Clue `json:"privateClues"`
}

func investigationRound(p models.Phase) int {
	switch p { //nolint:exhaustive // only investigation phases have a round
	case models.PhaseInvestigation1:
		return 1
	case models.PhaseInvestigation2:
		return 2
	default:
		return 0
	}
}

// PublicClueMessage is the group chat announcement of a public clue found at location.
func PublicClueMessage(locationName string, clue models.Clue) string {
	return fmt.Sprintf("【public clue】%s: %s", locationName, clue.Content)
}

// PublicClueFact is how a public clue is remembered by every character.
func PublicClueFact(clue models.Clue) string {
	return "Public clue: " + clue.Content
}

// Investigate searches locationID for clues available in the current investigation round.
//
// Newly found public clues are announced in the group chat and become known facts of every character. Private clues
// are only returned. Investigating the same location again in the same round finds nothing new and changes nothing.
func Investigate(
	session models.GameSession,
	scenario *models.Scenario,
	locationID string,
) (models.GameSession, InvestigationResult, error) {
	location, ok := scenario.Location(locationID)
	if !ok {
		return session, InvestigationResult{}, errors.Wrap(ErrNotFound, "location not found",
			slog.String("location_id", locationID))
	}
	round := investigationRound(session.CurrentPhase)
	if round == 0 {
		return session, InvestigationResult{}, errors.Wrap(ErrCapabilityDisabled,
			fmt.Sprintf("investigation is not allowed in phase %s", session.CurrentPhase),
			slog.String("phase", string(session.CurrentPhase)))
	}

	result := InvestigationResult{
		LocationID:   location.ID,
		LocationName: location.Name,
		Round:        round,
		NewlyFound:   []models.Clue{},
		AlreadyFound: []models.Clue{},
		PublicClues:  []models.Clue{},
		PrivateClues: []models.Clue{},
	}
	for _, clue := range location.Clues {
		if clue.AvailableInRound > round {
			continue
		}
		if session.HasDiscovered(clue.ID) {
			result.AlreadyFound = append(result.AlreadyFound, clue)
			continue
		}
		clue.FoundBy = models.PlayerVoterID
		clue.FoundAt = location.ID
		result.NewlyFound = append(result.NewlyFound, clue)
		if clue.Type == models.ClueTypePublic {
			result.PublicClues = append(result.PublicClues, clue)
		} else {
			result.PrivateClues = append(result.PrivateClues, clue)
		}
	}
	if len(result.NewlyFound) == 0 {
		return session, result, nil
	}

	next := session.Clone()
	next.DiscoveredClues = append(next.DiscoveredClues, result.NewlyFound...)
	for _, clue := range result.PublicClues {
		next.GroupChatHistory = append(next.GroupChatHistory,
			NewMessage(models.ChatRoleSystem, "", PublicClueMessage(location.Name, clue)))
		for id, m := range next.CharacterMemories {
			next.CharacterMemories[id] = memory.AddKnownFact(m, PublicClueFact(clue))
		}
	}
	return next, result, nil
}
