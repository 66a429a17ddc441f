package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyReply is returned when the model produced no content.
var ErrEmptyReply = errors.New("model returned no content")

// Client calls a chat completions endpoint.
type Client struct {
	model string
	t     transport
}

// NewClient creates a chat client for model at baseURL.
func NewClient(baseURL, apiKey, model string, opts ...Option) *Client {
	return &Client{model: model, t: newTransport(baseURL, apiKey, opts)}
}

// Model returns the default model name.
func (c *Client) Model() string {
	return c.model
}

// ChatWithMessages sends messages and returns the first choice's content.
func (c *Client) ChatWithMessages(ctx context.Context, messages []Message, params ChatParams) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages")
	}

	req := chatRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: params.MaxTokens,
	}
	if params.Model != "" {
		req.Model = params.Model
	}
	if params.Temperature != 0 {
		temperature := params.Temperature
		req.Temperature = &temperature
	}
	if params.JSONMode {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	var resp chatResponse
	if err := c.t.post(ctx, "/v1/chat/completions", req, &resp); err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyReply
	}
	return resp.Choices[0].Message.Content, nil
}
