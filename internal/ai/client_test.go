package ai_test

import (
	"context"
	"io"
	"testing"

	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/ai/aitest"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	ctx := context.Background()
	logger := testhelpers.NewLogger(io.Discard)

	tests := []struct {
		name           string
		cfg            ai.Config
		wantConfigured bool
		wantErr        bool
	}{
		{name: "openai without key", cfg: ai.Config{Provider: "openai"}, wantConfigured: false},
		{name: "google without key", cfg: ai.Config{Provider: "Google"}, wantConfigured: false},
		{name: "default provider without key", cfg: ai.Config{}, wantConfigured: false},
		{name: "openai with key", cfg: ai.Config{Provider: "openai", OpenAIAPIKey: "sk-test", OpenAIModel: "gpt-4o-mini"},
			wantConfigured: true},
		{name: "unknown provider", cfg: ai.Config{Provider: "carrier-pigeon"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := ai.NewClient(ctx, tt.cfg, logger)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantConfigured, client.Configured())
			require.NoError(t, client.Close())
		})
	}
}

func TestUnconfigured(t *testing.T) {
	_, err := ai.Unconfigured{}.StreamText(context.Background(), ai.Request{})
	require.ErrorIs(t, err, ai.ErrUnconfigured)
}

func TestComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("joins fragments", func(t *testing.T) {
		fake := aitest.NewFake("The butler did not do it.")
		got, err := ai.Complete(ctx, fake, ai.Request{Messages: []ai.Message{{Role: ai.RoleUser, Content: "Who?"}}})
		require.NoError(t, err)
		assert.Equal(t, "The butler did not do it.", got)
		require.Len(t, fake.Requests(), 1)
	})

	t.Run("fails to start", func(t *testing.T) {
		fake := aitest.NewFake()
		fake.Err = errors.New("offline")
		_, err := ai.Complete(ctx, fake, ai.Request{})
		require.Error(t, err)
	})

	t.Run("fails mid-stream", func(t *testing.T) {
		fake := aitest.NewFake("one two three")
		fake.Err = errors.New("connection reset")
		fake.FailAfter = 1
		_, err := ai.Complete(ctx, fake, ai.Request{})
		require.Error(t, err)
	})

	t.Run("unconfigured", func(t *testing.T) {
		_, err := ai.Complete(ctx, ai.Unconfigured{}, ai.Request{})
		require.ErrorIs(t, err, ai.ErrUnconfigured)
	})
}
