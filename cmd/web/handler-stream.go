package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/myrjola/whodunit/internal/agents"
	"github.com/myrjola/whodunit/internal/contexthelpers"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/game"
	"github.com/myrjola/whodunit/internal/logging"
	"github.com/myrjola/whodunit/internal/mystery"
	"github.com/myrjola/whodunit/internal/sse"
)

// streamFailedMessage is sent to the client instead of the error details.
const streamFailedMessage = "NPC stream failed"

type streamResponse struct {
	StreamURL string `json:"streamUrl"`
}

// streamDone is the data of the done event.
type streamDone struct {
	State   mystery.State `json:"state"`
	Replies []game.Reply  `json:"replies,omitempty"`
}

// streamCancels lets the consumer of a stream stop its producer when the client goes away.
type streamCancels struct {
	mu    sync.Mutex
	funcs map[string]context.CancelFunc
}

func newStreamCancels() *streamCancels {
	return &streamCancels{funcs: map[string]context.CancelFunc{}}
}

func (c *streamCancels) add(key string, cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.funcs[key] = cancel
}

func (c *streamCancels) remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.funcs, key)
}

func (c *streamCancels) cancel(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cancel, ok := c.funcs[key]; ok {
		cancel()
	}
}

func chatStreamKey(gameID, characterID string) string {
	return fmt.Sprintf("chat/%s/%s", gameID, characterID)
}

func groupChatStreamKey(gameID string) string {
	return fmt.Sprintf("group-chat/%s", gameID)
}

// produceFunc generates the events of a stream. send fails when the stream is abandoned.
type produceFunc func(ctx context.Context, send func(sse.Event) error) error

// startStream publishes a stream under key and produces its events in the background. The events are delivered
// through an unbuffered channel so that the producer waits for its consumer, at most for the stream timeout.
func (app *application) startStream(w http.ResponseWriter, r *http.Request, key string, streamURL string,
	produce produceFunc,
) {
	events := make(chan sse.Event)
	if err := app.streams.Publish(key, events); err != nil {
		app.handleError(w, r, errors.Wrap(err, "publish stream", slog.String("stream", key)))
		return
	}

	ctx, cancel := context.WithTimeout(app.baseCtx, app.streamTimeout)
	ctx = logging.WithAttrs(ctx, slog.String("game_id", contexthelpers.GameID(r.Context())),
		slog.String("stream", key))
	app.cancels.add(key, cancel)

	go func() {
		defer func() {
			close(events)
			app.cancels.remove(key)
			app.streams.Unpublish(key)
			cancel()
		}()
		send := func(e sse.Event) error {
			select {
			case events <- e:
				return nil
			case <-ctx.Done():
				return errors.Wrap(context.Cause(ctx), "send event", slog.String("event", e.Name))
			}
		}
		start := time.Now()
		if err := produce(ctx, send); err != nil {
			if ctx.Err() != nil {
				app.logger.LogAttrs(ctx, slog.LevelDebug, "stream abandoned", errors.SlogError(err))
				return
			}
			app.logger.LogAttrs(ctx, slog.LevelError, "stream failed", errors.SlogError(err))
			_ = send(sse.Error(streamFailedMessage))
			return
		}
		app.logger.LogAttrs(ctx, slog.LevelDebug, "stream finished", slog.Duration("duration", time.Since(start)))
	}()

	app.writeJSON(w, r, http.StatusAccepted, streamResponse{StreamURL: streamURL})
}

// consumeStream writes the events of the stream published under key to the client. When there is no running
// stream, it was finished already or is being consumed elsewhere, the client gets the stored game state instead.
func (app *application) consumeStream(w http.ResponseWriter, r *http.Request, key string) {
	ctx := r.Context()
	sw, err := sse.NewWriter(w)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	// The stream may last longer than the write timeout of the server.
	if err = http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		app.logger.LogAttrs(ctx, slog.LevelDebug, "lift write deadline", errors.SlogError(err))
	}

	var (
		events chan sse.Event
		ok     bool
	)
	select {
	case events, ok = <-app.streams.Subscribe(key):
	case <-ctx.Done():
		return
	}
	if !ok {
		var state mystery.State
		if state, err = app.games.State(ctx, contexthelpers.GameID(ctx)); err != nil {
			app.handleError(w, r, errors.Wrap(err, "stream state"))
			return
		}
		if err = sw.Write(sse.Done(streamDone{State: state})); err != nil {
			app.logger.LogAttrs(ctx, slog.LevelDebug, "write event", errors.SlogError(err))
		}
		return
	}

	for {
		select {
		case <-ctx.Done():
			app.cancels.cancel(key)
			return
		case e, open := <-events:
			if !open {
				return
			}
			if err = sw.Write(e); err != nil {
				app.logger.LogAttrs(ctx, slog.LevelDebug, "client left stream", errors.SlogError(err))
				app.cancels.cancel(key)
				return
			}
		}
	}
}

// startChatStream validates a private message and streams the reply of the character.
func (app *application) startChatStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gameID := contexthelpers.GameID(ctx)
	var req chatRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.handleError(w, r, err)
		return
	}
	turn, err := app.games.StartChat(ctx, gameID, req.CharacterID, req.Message)
	if err != nil {
		app.handleError(w, r, errors.Wrap(err, "start chat", slog.String("character_id", req.CharacterID)))
		return
	}
	characterID := turn.CharacterID()
	streamURL := fmt.Sprintf("/api/games/%s/chat/%s/stream", gameID, characterID)
	app.startStream(w, r, chatStreamKey(gameID, characterID), streamURL,
		func(ctx context.Context, send func(sse.Event) error) error {
			if sendErr := send(sse.NPCStart(characterID)); sendErr != nil {
				return sendErr
			}
			result, streamErr := turn.Stream(ctx, func(text string) error {
				return send(sse.NPCChunk(characterID, text))
			})
			if streamErr != nil {
				return errors.Wrap(streamErr, "stream chat")
			}
			if sendErr := send(sse.NPCDone(characterID, result.Reply)); sendErr != nil {
				return sendErr
			}
			return send(sse.Done(streamDone{State: mystery.NewState(result.Game)}))
		})
}

func (app *application) chatStream(w http.ResponseWriter, r *http.Request) {
	gameID := contexthelpers.GameID(r.Context())
	app.consumeStream(w, r, chatStreamKey(gameID, r.PathValue("characterID")))
}

// startGroupChatStream validates a group chat message and streams the replies of the responding characters. The
// message is saved by the producer once the stream has been published.
func (app *application) startGroupChatStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gameID := contexthelpers.GameID(ctx)
	var req groupChatRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.handleError(w, r, err)
		return
	}
	turn, err := app.games.StartGroupChat(ctx, gameID, req.Message)
	if err != nil {
		app.handleError(w, r, errors.Wrap(err, "start group chat"))
		return
	}
	streamURL := fmt.Sprintf("/api/games/%s/group-chat/stream", gameID)
	app.startStream(w, r, groupChatStreamKey(gameID), streamURL,
		func(ctx context.Context, send func(sse.Event) error) error {
			var (
				active string
				text   strings.Builder
			)
			result, streamErr := turn.Stream(ctx, func(f agents.Fragment) error {
				if f.CharacterID != active {
					if active != "" {
						if sendErr := send(sse.NPCDone(active, strings.TrimSpace(text.String()))); sendErr != nil {
							return sendErr
						}
					}
					active = f.CharacterID
					text.Reset()
					if sendErr := send(sse.NPCStart(active)); sendErr != nil {
						return sendErr
					}
				}
				text.WriteString(f.Text)
				return send(sse.NPCChunk(f.CharacterID, f.Text))
			})
			if streamErr != nil {
				return errors.Wrap(streamErr, "stream group chat")
			}
			if active != "" {
				if sendErr := send(sse.NPCDone(active, strings.TrimSpace(text.String()))); sendErr != nil {
					return sendErr
				}
			}
			return send(sse.Done(streamDone{State: mystery.NewState(result.Game), Replies: result.Replies}))
		})
}

func (app *application) groupChatStream(w http.ResponseWriter, r *http.Request) {
	app.consumeStream(w, r, groupChatStreamKey(contexthelpers.GameID(r.Context())))
}
