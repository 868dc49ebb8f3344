package agents

import (
	"context"
	"io"
	"log/slog"

	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/errors"
)

const (
	// UnconfiguredLine is said by every character when no language model is configured.
	UnconfiguredLine = "My thoughts are all over the place right now. Let us talk again a little later."
	// FailureLine is said by a character when its language model call fails.
	FailureLine = "Give me a moment to collect myself. I will answer that shortly."

	streamBufferSize = 16
)

type StreamRequest struct {
	System  string
	History []ai.Message
	Prompt  string
	// Fallback replaces the default filler lines when set.
	Fallback    string
	Temperature float32
	MaxTokens   int
}

// Streamer turns one text-generation call into a channel of fragments.
type Streamer struct {
	client ai.Client
	logger *slog.Logger
}

func NewStreamer(client ai.Client, logger *slog.Logger) *Streamer {
	return &Streamer{client: client, logger: logger}
}

// Stream emits the fragments of the reply to req in order and closes the channel when the reply is complete or ctx
// is done. Failures never surface: an unconfigured client or a failing call emits a single in-character filler line
// instead, after whatever fragments were already emitted.
func (s *Streamer) Stream(ctx context.Context, req StreamRequest) <-chan string {
	out := make(chan string, streamBufferSize)
	go func() {
		defer close(out)
		send := func(fragment string) bool {
			select {
			case out <- fragment:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !s.client.Configured() {
			send(fallback(req, UnconfiguredLine))
			return
		}

		messages := make([]ai.Message, 0, len(req.History)+1)
		messages = append(messages, req.History...)
		messages = append(messages, ai.Message{Role: ai.RoleUser, Content: req.Prompt})
		stream, err := s.client.StreamText(ctx, ai.Request{
			System:      req.System,
			Messages:    messages,
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		})
		if err != nil {
			s.logger.LogAttrs(ctx, slog.LevelError, "text generation failed", errors.SlogError(err))
			send(fallback(req, FailureLine))
			return
		}
		defer func() {
			if closeErr := stream.Close(); closeErr != nil {
				s.logger.LogAttrs(ctx, slog.LevelWarn, "close text stream", errors.SlogError(closeErr))
			}
		}()

		for {
			var fragment string
			fragment, err = stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.LogAttrs(ctx, slog.LevelError, "text stream failed", errors.SlogError(err))
				send(fallback(req, FailureLine))
				return
			}
			if fragment == "" {
				continue
			}
			if !send(fragment) {
				return
			}
		}
	}()
	return out
}

func fallback(req StreamRequest, line string) string {
	if req.Fallback != "" {
		return req.Fallback
	}
	return line
}
