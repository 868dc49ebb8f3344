package agents

import (
	"context"
	"strings"

	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/errors"
)

const (
	maxSummaryRunes        = 120
	summaryTemperature     = 0.2
	summaryMaxOutputTokens = 300
)

// LLMSummarizer compresses character memories with the language model.
type LLMSummarizer struct {
	client ai.Client
}

func NewLLMSummarizer(client ai.Client) *LLMSummarizer {
	return &LLMSummarizer{client: client}
}

// Summarize returns a summary of transcript of at most maxSummaryRunes characters.
func (s *LLMSummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	if !s.client.Configured() {
		return "", ai.ErrUnconfigured
	}
	summary, err := ai.Complete(ctx, s.client, ai.Request{
		System:      summaryPrompt,
		Messages:    []ai.Message{{Role: ai.RoleUser, Content: transcript}},
		Temperature: summaryTemperature,
		MaxTokens:   summaryMaxOutputTokens,
	})
	if err != nil {
		return "", errors.Wrap(err, "summarize conversation")
	}
	summary = strings.TrimSpace(summary)
	if runes := []rune(summary); len(runes) > maxSummaryRunes {
		summary = string(runes[:maxSummaryRunes])
	}
	return summary, nil
}
