package contexthelpers_test

import (
	"net/http/httptest"
	"testing"

	"github.com/myrjola/whodunit/internal/contexthelpers"
	"github.com/stretchr/testify/assert"
)

func TestGameID(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/games/abc", nil)
	assert.Empty(t, contexthelpers.GameID(r.Context()))

	r = contexthelpers.SetGameID(r, "abc")
	assert.Equal(t, "abc", contexthelpers.GameID(r.Context()))
}

func TestCSRFToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/csrf-token", nil)
	assert.Empty(t, contexthelpers.CSRFToken(r.Context()))

	r = contexthelpers.SetCSRFToken(r, "token")
	assert.Equal(t, "token", contexthelpers.CSRFToken(r.Context()))
}
