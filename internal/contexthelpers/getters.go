package contexthelpers

import (
	"context"
)

// GameID returns the id of the game named by the request path or the empty string.
func GameID(ctx context.Context) string {
	gameID, ok := ctx.Value(gameIDContextKey).(string)
	if !ok {
		return ""
	}

	return gameID
}

func CSRFToken(ctx context.Context) string {
	csrfToken, ok := ctx.Value(csrfTokenContextKey).(string)
	if !ok {
		return ""
	}

	return csrfToken
}
