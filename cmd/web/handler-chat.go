package main

import (
	"log/slog"
	"net/http"

	"github.com/myrjola/whodunit/internal/contexthelpers"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/game"
	"github.com/myrjola/whodunit/internal/mystery"
)

type chatRequest struct {
	CharacterID string `json:"characterId"`
	Message     string `json:"message"`
}

type chatResponse struct {
	State       mystery.State `json:"state"`
	CharacterID string        `json:"characterId"`
	Reply       string        `json:"reply"`
}

type groupChatRequest struct {
	Message string `json:"message"`
}

type groupChatResponse struct {
	State   mystery.State `json:"state"`
	Replies []game.Reply  `json:"replies"`
}

// chat answers a private message once the whole reply has been generated.
func (app *application) chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req chatRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.handleError(w, r, err)
		return
	}
	result, err := app.games.Chat(ctx, contexthelpers.GameID(ctx), req.CharacterID, req.Message)
	if err != nil {
		app.handleError(w, r, errors.Wrap(err, "chat", slog.String("character_id", req.CharacterID)))
		return
	}
	app.writeJSON(w, r, http.StatusOK, chatResponse{
		State:       mystery.NewState(result.Game),
		CharacterID: result.CharacterID,
		Reply:       result.Reply,
	})
}

// groupChat answers a group chat message once every responder has finished.
func (app *application) groupChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req groupChatRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.handleError(w, r, err)
		return
	}
	result, err := app.games.GroupChat(ctx, contexthelpers.GameID(ctx), req.Message)
	if err != nil {
		app.handleError(w, r, errors.Wrap(err, "group chat"))
		return
	}
	app.writeJSON(w, r, http.StatusOK, groupChatResponse{State: mystery.NewState(result.Game), Replies: result.Replies})
}
