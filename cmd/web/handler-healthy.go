package main

import (
	"net/http"

	"github.com/myrjola/whodunit/internal/contexthelpers"
)

// healthy responds with a JSON object indicating that the server is healthy.
func (app *application) healthy(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (app *application) csrfToken(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, r, http.StatusOK, struct {
		Token string `json:"token"`
	}{Token: contexthelpers.CSRFToken(r.Context())})
}
