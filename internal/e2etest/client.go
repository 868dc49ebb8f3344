package e2etest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/justinas/nosurf"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/sse"
)

var ErrUnexpectedStatus = errors.NewSentinel("unexpected status code")

// Client is a cookie-aware HTTP client for the JSON API. It fetches the CSRF token on the first unsafe request.
type Client struct {
	client    *http.Client
	url       string
	csrfToken string
}

// NewClient creates a client for the server at url.
func NewClient(url string) (*Client, error) {
	jar, err := newUnsafeCookieJar()
	if err != nil {
		return nil, errors.Wrap(err, "create unsafe cookie jar")
	}
	return &Client{
		client: &http.Client{Jar: jar},
		url:    url,
	}, nil
}

// WaitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func (c *Client) WaitForReady(ctx context.Context, urlPath string) error {
	timeout := 1 * time.Second
	startTime := time.Now()
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	for {
		if req, err = http.NewRequestWithContext(
			ctx,
			http.MethodGet,
			c.url+urlPath,
			nil,
		); err != nil {
			return errors.Wrap(err, "create request")
		}

		if resp, err = c.client.Do(req); err == nil {
			if resp.StatusCode == http.StatusOK {
				if err = resp.Body.Close(); err != nil {
					return errors.Wrap(err, "close response body")
				}
				return nil
			}
			if err = resp.Body.Close(); err != nil {
				return errors.Wrap(err, "close response body")
			}
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "context cancelled")
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // 100ms
		}
	}
}

// Get fetches a URL and returns the response.
func (c *Client) Get(ctx context.Context, urlPath string) (*http.Response, error) {
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	if req, err = c.newRequestWithContext(ctx, http.MethodGet, urlPath, nil); err != nil {
		return nil, errors.Wrap(err, "create request with context")
	}
	if resp, err = c.client.Do(req); err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	return resp, nil
}

// GetJSON fetches urlPath and decodes the body into out unless out is nil. It returns the status code.
func (c *Client) GetJSON(ctx context.Context, urlPath string, out any) (int, error) {
	resp, err := c.Get(ctx, urlPath)
	if err != nil {
		return 0, errors.Wrap(err, "client get")
	}
	return decodeResponse(resp, out)
}

// PostJSON posts body encoded as JSON to urlPath with the CSRF token and decodes the response into out unless out
// is nil. It returns the status code.
func (c *Client) PostJSON(ctx context.Context, urlPath string, body any, out any) (int, error) {
	token, err := c.CSRFToken(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "csrf token")
	}
	var payload []byte
	if payload, err = json.Marshal(body); err != nil {
		return 0, errors.Wrap(err, "marshal request body")
	}
	var req *http.Request
	if req, err = c.newRequestWithContext(ctx, http.MethodPost, urlPath, bytes.NewReader(payload)); err != nil {
		return 0, errors.Wrap(err, "new request with context")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(nosurf.HeaderName, token)
	var resp *http.Response
	if resp, err = c.client.Do(req); err != nil {
		return 0, errors.Wrap(err, "do request")
	}
	return decodeResponse(resp, out)
}

// CSRFToken returns the token sent with unsafe requests. The token is tied to the cookie jar of the client.
func (c *Client) CSRFToken(ctx context.Context) (string, error) {
	if c.csrfToken != "" {
		return c.csrfToken, nil
	}
	var body struct {
		Token string `json:"token"`
	}
	status, err := c.GetJSON(ctx, "/api/csrf-token", &body)
	if err != nil {
		return "", errors.Wrap(err, "get csrf token")
	}
	if status != http.StatusOK || body.Token == "" {
		return "", errors.Wrap(ErrUnexpectedStatus, "get csrf token", slog.Int("status", status))
	}
	c.csrfToken = body.Token
	return c.csrfToken, nil
}

// Stream reads the server-sent events of urlPath until the server closes the stream.
func (c *Client) Stream(ctx context.Context, urlPath string) ([]sse.Message, error) {
	resp, err := c.Get(ctx, urlPath)
	if err != nil {
		return nil, errors.Wrap(err, "client get")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrap(ErrUnexpectedStatus, "open stream", slog.Int("status", resp.StatusCode))
	}
	var (
		messages []sse.Message
		reader   = sse.NewReader(resp.Body)
	)
	for {
		var msg sse.Message
		msg, err = reader.Next()
		if errors.Is(err, io.EOF) {
			return messages, nil
		}
		if err != nil {
			return messages, errors.Wrap(err, "read event")
		}
		messages = append(messages, msg)
	}
}

func decodeResponse(resp *http.Response, out any) (int, error) {
	defer func() {
		_ = resp.Body.Close()
	}()
	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, errors.Wrap(err, "decode response body", slog.Int("status", resp.StatusCode))
	}
	return resp.StatusCode, nil
}

// newRequestWithContext creates a new HTTP request to the server that respects the given context.
func (c *Client) newRequestWithContext(
	ctx context.Context,
	method, urlPath string,
	body io.Reader,
) (*http.Request, error) {
	var (
		req *http.Request
		err error
	)
	if req, err = http.NewRequest(method, c.url+urlPath, body); err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	return req.WithContext(ctx), nil
}
