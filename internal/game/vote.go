package game

import (
	"log/slog"
	"strings"

	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/models"
)

type VoteResult struct {
	AccusedID string `json:"accusedId"`
	IsCorrect bool   `json:"isCorrect"`
}

// Vote records the accusation of voterID. Each voter votes once.
func Vote(
	session models.GameSession,
	scenario *models.Scenario,
	voterID string,
	accusedID string,
) (models.GameSession, VoteResult, error) {
	accusedID = strings.TrimSpace(accusedID)
	if accusedID == "" {
		return session, VoteResult{}, errors.Wrap(ErrInvalidInput, "accused character id is required")
	}
	if err := RequireCapability(session, CapabilityVoting); err != nil {
		return session, VoteResult{}, err
	}
	if _, voted := session.Votes[voterID]; voted {
		return session, VoteResult{}, errors.Wrap(ErrDuplicateVote, "vote", slog.String("voter_id", voterID))
	}
	if _, ok := scenario.Character(accusedID); !ok {
		return session, VoteResult{}, errors.Wrap(ErrNotFound, "character not found",
			slog.String("character_id", accusedID))
	}

	killer, _ := scenario.Killer()
	next := session.Clone()
	next.Votes[voterID] = accusedID
	return next, VoteResult{
		AccusedID: accusedID,
		IsCorrect: killer != nil && killer.ID == accusedID,
	}, nil
}
