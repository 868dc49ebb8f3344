package ai

import (
	"context"
	"io"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/myrjola/whodunit/internal/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GoogleClient struct {
	client *genai.Client
	model  string
}

func NewGoogleClient(ctx context.Context, apiKey string, model string) (*GoogleClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrap(err, "new generative client")
	}
	return &GoogleClient{client: client, model: model}, nil
}

func (c *GoogleClient) Configured() bool {
	return true
}

func (c *GoogleClient) StreamText(ctx context.Context, req Request) (TextStream, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("request has no prompt")
	}
	model := c.client.GenerativeModel(c.model)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if req.Temperature > 0 {
		model.SetTemperature(req.Temperature)
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens)) //nolint:gosec // token limits are small
	}

	chat := model.StartChat()
	history := req.Messages[:len(req.Messages)-1]
	for _, m := range history {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		chat.History = append(chat.History, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	prompt := req.Messages[len(req.Messages)-1].Content
	return &googleStream{iter: chat.SendMessageStream(ctx, genai.Text(prompt))}, nil
}

func (c *GoogleClient) Close() error {
	if err := c.client.Close(); err != nil {
		return errors.Wrap(err, "close generative client")
	}
	return nil
}

type googleStream struct {
	iter *genai.GenerateContentResponseIterator
}

func (s *googleStream) Recv() (string, error) {
	for {
		resp, err := s.iter.Next()
		if errors.Is(err, iterator.Done) {
			return "", io.EOF
		}
		if err != nil {
			return "", errors.Wrap(err, "receive content")
		}
		if text := responseText(resp); text != "" {
			return text, nil
		}
	}
}

func (s *googleStream) Close() error {
	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				b.WriteString(string(txt))
			}
		}
	}
	return b.String()
}
