package main

import (
	"log/slog"
	"net/http"

	"github.com/myrjola/whodunit/internal/contexthelpers"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/game"
	"github.com/myrjola/whodunit/internal/mystery"
	"github.com/myrjola/whodunit/internal/scenarios"
)

type scenarioSummary struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	Difficulty        string `json:"difficulty"`
	EstimatedDuration int    `json:"estimatedDuration"`
	Characters        int    `json:"characters"`
	Summary           string `json:"summary"`
}

func (app *application) listScenarios(w http.ResponseWriter, r *http.Request) {
	all, err := app.scenarios.All()
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "list scenarios"))
		return
	}
	summaries := make([]scenarioSummary, 0, len(all))
	for _, s := range all {
		summaries = append(summaries, scenarioSummary{
			ID:                s.ID,
			Title:             s.Title,
			Description:       s.Description,
			Difficulty:        s.Difficulty,
			EstimatedDuration: s.EstimatedDuration,
			Characters:        len(s.Characters),
			Summary:           scenarios.Summary(s),
		})
	}
	app.writeJSON(w, r, http.StatusOK, summaries)
}

type createGameRequest struct {
	ScenarioID string `json:"scenarioId"`
}

// createGame starts a game and remembers it as the current game of the browser.
func (app *application) createGame(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createGameRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.handleError(w, r, err)
		return
	}
	g, err := app.games.CreateGame(ctx, req.ScenarioID)
	if err != nil {
		app.handleError(w, r, errors.Wrap(err, "create game", slog.String("scenario_id", req.ScenarioID)))
		return
	}
	if err = app.sessionManager.RenewToken(ctx); err != nil {
		app.serverError(w, r, errors.Wrap(err, "renew session token"))
		return
	}
	app.sessionManager.Put(ctx, currentGameSessionKey, g.Session.ID)
	app.writeJSON(w, r, http.StatusCreated, mystery.NewState(g))
}

func (app *application) currentGame(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := app.sessionManager.GetString(ctx, currentGameSessionKey)
	if id == "" {
		app.clientError(w, r, http.StatusNotFound, errors.Wrap(game.ErrNotFound, "no current game"))
		return
	}
	r = contexthelpers.SetGameID(r, id)
	state, err := app.games.State(r.Context(), id)
	if err != nil {
		app.handleError(w, r, errors.Wrap(err, "current game state"))
		return
	}
	app.writeJSON(w, r, http.StatusOK, state)
}

func (app *application) gameState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state, err := app.games.State(ctx, contexthelpers.GameID(ctx))
	if err != nil {
		app.handleError(w, r, errors.Wrap(err, "game state"))
		return
	}
	app.writeJSON(w, r, http.StatusOK, state)
}

type advanceResponse struct {
	State      mystery.State   `json:"state"`
	Transition game.Transition `json:"transition"`
}

func (app *application) advance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	g, transition, err := app.games.Advance(ctx, contexthelpers.GameID(ctx))
	if err != nil {
		app.handleError(w, r, errors.Wrap(err, "advance"))
		return
	}
	app.writeJSON(w, r, http.StatusOK, advanceResponse{State: mystery.NewState(g), Transition: transition})
}

type investigateRequest struct {
	LocationID string `json:"locationId"`
}

type investigateResponse struct {
	State  mystery.State            `json:"state"`
	Result game.InvestigationResult `json:"result"`
}

func (app *application) investigate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req investigateRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.handleError(w, r, err)
		return
	}
	if req.LocationID == "" {
		app.clientError(w, r, http.StatusBadRequest, errors.Wrap(game.ErrInvalidInput, "locationId is required"))
		return
	}
	g, result, err := app.games.Investigate(ctx, contexthelpers.GameID(ctx), req.LocationID)
	if err != nil {
		app.handleError(w, r, errors.Wrap(err, "investigate", slog.String("location_id", req.LocationID)))
		return
	}
	app.writeJSON(w, r, http.StatusOK, investigateResponse{State: mystery.NewState(g), Result: result})
}

type voteRequest struct {
	AccusedCharacterID string `json:"accusedCharacterId"`
}

type voteResponse struct {
	State  mystery.State   `json:"state"`
	Result game.VoteResult `json:"result"`
}

func (app *application) vote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req voteRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.handleError(w, r, err)
		return
	}
	g, result, err := app.games.Vote(ctx, contexthelpers.GameID(ctx), req.AccusedCharacterID)
	if err != nil {
		app.handleError(w, r, errors.Wrap(err, "vote", slog.String("accused_id", req.AccusedCharacterID)))
		return
	}
	app.writeJSON(w, r, http.StatusOK, voteResponse{State: mystery.NewState(g), Result: result})
}
