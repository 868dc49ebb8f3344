package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	session := alice.New(app.timeout, app.sessionManager.LoadAndSave)
	game := session.Append(gameContext)
	// Event streams neither buffer nor touch the cookie session.
	stream := alice.New(gameContext)

	mux.HandleFunc("GET /api/healthy", app.healthy)
	mux.Handle("GET /api/csrf-token", session.ThenFunc(app.csrfToken))
	mux.Handle("GET /api/scenarios", session.ThenFunc(app.listScenarios))

	mux.Handle("POST /api/games", session.ThenFunc(app.createGame))
	mux.Handle("GET /api/games/current", session.ThenFunc(app.currentGame))
	mux.Handle("GET /api/games/{id}", game.ThenFunc(app.gameState))
	mux.Handle("POST /api/games/{id}/advance", game.ThenFunc(app.advance))
	mux.Handle("POST /api/games/{id}/investigate", game.ThenFunc(app.investigate))
	mux.Handle("POST /api/games/{id}/vote", game.ThenFunc(app.vote))

	mux.Handle("POST /api/games/{id}/chat", game.ThenFunc(app.chat))
	mux.Handle("POST /api/games/{id}/chat/stream", game.ThenFunc(app.startChatStream))
	mux.Handle("GET /api/games/{id}/chat/{characterID}/stream", stream.ThenFunc(app.chatStream))
	mux.Handle("POST /api/games/{id}/group-chat", game.ThenFunc(app.groupChat))
	mux.Handle("POST /api/games/{id}/group-chat/stream", game.ThenFunc(app.startGroupChatStream))
	mux.Handle("GET /api/games/{id}/group-chat/stream", stream.ThenFunc(app.groupChatStream))

	mux.HandleFunc("/", app.notFound)

	common := alice.New(app.recoverPanic, app.logRequest, secureHeaders, noCacheHeaders, app.noSurf, commonContext)
	return common.Then(mux)
}
