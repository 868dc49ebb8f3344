package main

import (
	"net/http"
	"time"
)

const timeoutBody = `{"error":"Service Unavailable"}`

// timeout responds with a 503 Service Unavailable error when the handler does not meet the deadline. Event streams
// must not use it because the timeout handler buffers the response.
func (app *application) timeout(next http.Handler) http.Handler {
	// We want the timeout to be a little shorter than the server's write timeout so that the
	// timeout handler has a chance to respond before the server closes the connection.
	httpHandlerTimeout := app.requestTimeout - 500*time.Millisecond //nolint:mnd // 500ms
	return http.TimeoutHandler(next, httpHandlerTimeout, timeoutBody)
}
