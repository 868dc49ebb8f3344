package main

import (
	"net/http"
	"testing"

	"github.com/myrjola/whodunit/internal/broker"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/game"
	"github.com/stretchr/testify/assert"
)

func Test_statusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: errors.Wrap(game.ErrNotFound, "get game session"), want: http.StatusNotFound},
		{name: "invalid input", err: errors.Wrap(game.ErrInvalidInput, "message is required"), want: http.StatusBadRequest},
		{name: "capability", err: errors.Wrap(game.ErrCapabilityDisabled, "chat"), want: http.StatusForbidden},
		{name: "transition", err: errors.Wrap(game.ErrTransitionRejected, "advance"), want: http.StatusConflict},
		{name: "terminal", err: game.ErrTerminalPhase, want: http.StatusConflict},
		{name: "duplicate vote", err: game.ErrDuplicateVote, want: http.StatusConflict},
		{name: "stream running", err: broker.ErrAlreadyPublished, want: http.StatusConflict},
		{name: "unknown", err: errors.New("disk full"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
