// Package mystery runs games on behalf of the request handlers.
//
// Every operation loads the game, applies a reducer from the game package through the session repository and
// returns the updated game together with the payload of the operation.
package mystery

import (
	"context"
	"log/slog"

	"github.com/myrjola/whodunit/internal/agents"
	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/game"
	"github.com/myrjola/whodunit/internal/memory"
	"github.com/myrjola/whodunit/internal/models"
	"github.com/myrjola/whodunit/internal/repositories"
	"github.com/myrjola/whodunit/internal/scenarios"
)

// ScenarioSource looks up validated scenarios by id.
type ScenarioSource interface {
	Get(id string) (*models.Scenario, error)
}

type Service struct {
	scenarios   ScenarioSource
	sessions    repositories.SessionRepository
	privateChat *agents.PrivateChat
	groupChat   *agents.GroupChat
	summarizer  memory.Summarizer
	logger      *slog.Logger
}

func NewService(
	scenarioSource ScenarioSource,
	sessions repositories.SessionRepository,
	client ai.Client,
	logger *slog.Logger,
) *Service {
	logger = logger.With("source", "mystery")
	streamer := agents.NewStreamer(client, logger)
	return &Service{
		scenarios:   scenarioSource,
		sessions:    sessions,
		privateChat: agents.NewPrivateChat(streamer),
		groupChat:   agents.NewGroupChat(streamer, logger),
		summarizer:  agents.NewLLMSummarizer(client),
		logger:      logger,
	}
}

// Game is a session together with the scenario it is played on.
type Game struct {
	Session  models.GameSession `json:"session"`
	Scenario *models.Scenario   `json:"scenario"`
}

// State is the view of a game between actions.
type State struct {
	Game
	Phase          game.PhaseConfig `json:"phaseConfig"`
	CanAdvance     bool             `json:"canAdvance"`
	SuggestAdvance bool             `json:"suggestAdvance"`
	Narration      string           `json:"narration"`
}

func (s *Service) load(ctx context.Context, id string) (Game, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return Game{}, errors.Wrap(err, "get game session")
	}
	scenario, err := s.scenarios.Get(session.ScenarioID)
	if err != nil {
		return Game{}, errors.Wrap(err, "get scenario", slog.String("scenario_id", session.ScenarioID))
	}
	return Game{Session: session, Scenario: scenario}, nil
}

// update applies reduce to the stored session of g.
func (s *Service) update(
	ctx context.Context,
	g Game,
	reduce func(models.GameSession) (models.GameSession, error),
) (Game, error) {
	session, err := s.sessions.Update(ctx, g.Session.ID, reduce)
	if err != nil {
		return Game{}, err
	}
	return Game{Session: session, Scenario: g.Scenario}, nil
}

// CreateGame starts a game of scenarioID. An empty id selects the default scenario.
func (s *Service) CreateGame(ctx context.Context, scenarioID string) (Game, error) {
	if scenarioID == "" {
		scenarioID = scenarios.DefaultID
	}
	scenario, err := s.scenarios.Get(scenarioID)
	if err != nil {
		return Game{}, errors.Wrap(err, "get scenario")
	}
	session := game.NewSession(scenario)
	if err = s.sessions.Create(ctx, session); err != nil {
		return Game{}, errors.Wrap(err, "create game session")
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "game created",
		slog.String("game_id", session.ID), slog.String("scenario_id", scenario.ID))
	return Game{Session: session, Scenario: scenario}, nil
}

// State returns the game with its phase capabilities and the game master's pacing hint.
func (s *Service) State(ctx context.Context, id string) (State, error) {
	g, err := s.load(ctx, id)
	if err != nil {
		return State{}, err
	}
	return NewState(g), nil
}

// NewState describes g between actions.
func NewState(g Game) State {
	session := g.Session
	suggest := game.SuggestAdvance(session)
	event := game.NarrationPhaseEnter
	switch {
	case suggest:
		event = game.NarrationDiscussionStall
	case game.Capabilities(session.CurrentPhase).AllowsInvestigation:
		event = game.NarrationInvestigationStart
	}
	return State{
		Game:           g,
		Phase:          game.Capabilities(session.CurrentPhase),
		CanAdvance:     game.CanAdvance(session),
		SuggestAdvance: suggest,
		Narration:      game.Narrate(session, event),
	}
}

// Advance moves the game to its next phase.
func (s *Service) Advance(ctx context.Context, id string) (Game, game.Transition, error) {
	g, err := s.load(ctx, id)
	if err != nil {
		return Game{}, game.Transition{}, err
	}
	var transition game.Transition
	g, err = s.update(ctx, g, func(session models.GameSession) (models.GameSession, error) {
		next, t, advanceErr := game.Advance(session)
		transition = t
		return next, advanceErr
	})
	if err != nil {
		return Game{}, game.Transition{}, errors.Wrap(err, "advance phase")
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "phase advanced",
		slog.String("from", string(transition.From)), slog.String("to", string(transition.To)),
		slog.Int("round", g.Session.Round))
	return g, transition, nil
}

// Investigate searches a location of the game.
func (s *Service) Investigate(ctx context.Context, id string, locationID string) (Game, game.InvestigationResult, error) {
	g, err := s.load(ctx, id)
	if err != nil {
		return Game{}, game.InvestigationResult{}, err
	}
	var result game.InvestigationResult
	g, err = s.update(ctx, g, func(session models.GameSession) (models.GameSession, error) {
		next, r, investigateErr := game.Investigate(session, g.Scenario, locationID)
		result = r
		return next, investigateErr
	})
	if err != nil {
		return Game{}, game.InvestigationResult{}, errors.Wrap(err, "investigate")
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "location investigated",
		slog.String("location_id", locationID), slog.Int("newly_found", len(result.NewlyFound)))
	return g, result, nil
}

// Vote records the player's accusation.
func (s *Service) Vote(ctx context.Context, id string, accusedID string) (Game, game.VoteResult, error) {
	g, err := s.load(ctx, id)
	if err != nil {
		return Game{}, game.VoteResult{}, err
	}
	var result game.VoteResult
	g, err = s.update(ctx, g, func(session models.GameSession) (models.GameSession, error) {
		next, r, voteErr := game.Vote(session, g.Scenario, models.PlayerVoterID, accusedID)
		result = r
		return next, voteErr
	})
	if err != nil {
		return Game{}, game.VoteResult{}, errors.Wrap(err, "vote")
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "vote submitted",
		slog.String("accused_id", result.AccusedID), slog.Bool("correct", result.IsCorrect))
	return g, result, nil
}
