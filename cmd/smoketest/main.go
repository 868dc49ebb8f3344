package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/myrjola/whodunit/internal/e2etest"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/logging"
	"github.com/myrjola/whodunit/internal/models"
	"github.com/myrjola/whodunit/internal/sse"
)

type state struct {
	Session models.GameSession `json:"session"`
}

type streamResponse struct {
	StreamURL string `json:"streamUrl"`
}

// expectStatus checks the status returned by a JSON request of the client.
func expectStatus(want int) func(int, error) error {
	return func(got int, err error) error {
		if err != nil {
			return err
		}
		if got != want {
			return errors.Wrap(e2etest.ErrUnexpectedStatus, "request",
				slog.Int("want", want), slog.Int("got", got))
		}
		return nil
	}
}

func advanceTo(ctx context.Context, client *e2etest.Client, id string, phase models.Phase) error {
	for {
		var s state
		if err := expectStatus(http.StatusOK)(client.GetJSON(ctx, "/api/games/"+id, &s)); err != nil {
			return errors.Wrap(err, "get game")
		}
		if s.Session.CurrentPhase == phase {
			return nil
		}
		if err := expectStatus(http.StatusOK)(
			client.PostJSON(ctx, fmt.Sprintf("/api/games/%s/advance", id), nil, nil)); err != nil {
			return errors.Wrap(err, "advance", slog.String("phase", string(s.Session.CurrentPhase)))
		}
	}
}

// PlayGame walks a game from the reading phase to the vote.
func PlayGame(client *e2etest.Client) error {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute) //nolint:mnd // the NPCs need time to answer
	defer cancel()

	var s state
	if err := expectStatus(http.StatusCreated)(client.PostJSON(ctx, "/api/games", struct{}{}, &s)); err != nil {
		return errors.Wrap(err, "create game")
	}
	id := s.Session.ID
	if err := advanceTo(ctx, client, id, models.PhaseIntro); err != nil {
		return err
	}

	var started streamResponse
	if err := expectStatus(http.StatusAccepted)(client.PostJSON(ctx, fmt.Sprintf("/api/games/%s/chat/stream", id),
		map[string]string{"characterId": "arthur-graves", "message": "Where were you at eleven?"},
		&started)); err != nil {
		return errors.Wrap(err, "start chat stream")
	}
	messages, err := client.Stream(ctx, started.StreamURL)
	if err != nil {
		return errors.Wrap(err, "consume chat stream")
	}
	if len(messages) == 0 || messages[len(messages)-1].Name != sse.EventDone {
		return errors.New("chat stream did not finish", slog.Int("events", len(messages)))
	}

	if err = advanceTo(ctx, client, id, models.PhaseInvestigation1); err != nil {
		return err
	}
	if err = expectStatus(http.StatusOK)(client.PostJSON(ctx, fmt.Sprintf("/api/games/%s/investigate", id),
		map[string]string{"locationId": "library"}, nil)); err != nil {
		return errors.Wrap(err, "investigate")
	}

	if err = advanceTo(ctx, client, id, models.PhaseVoting); err != nil {
		return err
	}
	if err = expectStatus(http.StatusOK)(client.PostJSON(ctx, fmt.Sprintf("/api/games/%s/vote", id),
		map[string]string{"accusedCharacterId": "victor-hale"}, nil)); err != nil {
		return errors.Wrap(err, "vote")
	}
	return advanceTo(ctx, client, id, models.PhaseReveal)
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		url      = "https://" + hostname
		client   *e2etest.Client
		err      error
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", url))

	if client, err = e2etest.NewClient(url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = PlayGame(client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error playing game", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌")
	os.Exit(0)
}
