// Package ai is the text-generation capability used by the non-player characters.
//
// A [Client] streams text fragments from a language model. A client without credentials is [Unconfigured], which is
// a valid state: callers fall back to canned lines instead of failing.
package ai

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/myrjola/whodunit/internal/errors"
)

var ErrUnconfigured = errors.NewSentinel("text generation is not configured")

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Request is one text-generation call. The last message is the prompt to answer.
type Request struct {
	System      string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// TextStream yields text fragments in emission order. Recv returns io.EOF after the last fragment.
type TextStream interface {
	Recv() (string, error)
	Close() error
}

type Client interface {
	// Configured reports whether the client has credentials.
	Configured() bool
	StreamText(ctx context.Context, req Request) (TextStream, error)
	Close() error
}

const (
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"
)

type Config struct {
	Provider     string `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY" envDefault:""`
	OpenAIModel  string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	GoogleAPIKey string `env:"GOOGLE_GENERATIVE_AI_API_KEY" envDefault:""`
	GoogleModel  string `env:"GOOGLE_MODEL" envDefault:"gemini-2.0-flash"`
}

// NewClient selects the provider named by cfg. A missing credential yields an [Unconfigured] client.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderGoogle:
		if cfg.GoogleAPIKey == "" {
			logger.LogAttrs(ctx, slog.LevelWarn, "text generation unconfigured", slog.String("provider", ProviderGoogle))
			return Unconfigured{}, nil
		}
		client, err := NewGoogleClient(ctx, cfg.GoogleAPIKey, cfg.GoogleModel)
		if err != nil {
			return nil, errors.Wrap(err, "new google client")
		}
		return client, nil
	case ProviderOpenAI, "":
		if cfg.OpenAIAPIKey == "" {
			logger.LogAttrs(ctx, slog.LevelWarn, "text generation unconfigured", slog.String("provider", ProviderOpenAI))
			return Unconfigured{}, nil
		}
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	default:
		return nil, errors.New("unknown text generation provider", slog.String("provider", cfg.Provider))
	}
}

// Complete drains a stream for req into a single string.
func Complete(ctx context.Context, client Client, req Request) (string, error) {
	stream, err := client.StreamText(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "stream text")
	}
	defer func() {
		_ = stream.Close()
	}()
	var b strings.Builder
	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			return "", errors.Wrap(err, "receive fragment")
		}
		b.WriteString(fragment)
	}
}

// Unconfigured is the client without credentials. Every call fails with ErrUnconfigured.
type Unconfigured struct{}

func (Unconfigured) Configured() bool {
	return false
}

func (Unconfigured) StreamText(context.Context, Request) (TextStream, error) {
	return nil, ErrUnconfigured
}

func (Unconfigured) Close() error {
	return nil
}
