package contexthelpers

type contextKey string

const gameIDContextKey = contextKey("gameID")
const csrfTokenContextKey = contextKey("csrfToken")
