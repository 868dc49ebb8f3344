package contexthelpers

import (
	"context"
	"net/http"

	"github.com/myrjola/whodunit/internal/logging"
)

// SetGameID stores gameID in the request context and adds it to the log messages of the request.
func SetGameID(r *http.Request, gameID string) *http.Request {
	ctx := r.Context()
	ctx = context.WithValue(ctx, gameIDContextKey, gameID)
	ctx = logging.WithGameID(ctx, gameID)
	return r.WithContext(ctx)
}

func SetCSRFToken(r *http.Request, csrfToken string) *http.Request {
	ctx := r.Context()
	ctx = context.WithValue(ctx, csrfTokenContextKey, csrfToken)
	return r.WithContext(ctx)
}
