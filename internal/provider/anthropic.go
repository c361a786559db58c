package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

const anthropicVersion = "2023-06-01"

// anthropicClient speaks the Anthropic Messages API: the system prompt is a
// top-level field rather than a message, and streaming uses typed events
// instead of bare deltas.
type anthropicClient struct {
	http *http.Client
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Stream      bool               `json:"stream,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicStreamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *anthropicClient) newRequest(ctx context.Context, req Request, p Profile, stream bool) (*http.Request, error) {
	// The model name goes on the wire unmodified: claude identifiers carry
	// no routing prefix.
	body, err := json.Marshal(anthropicRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		System:      req.SystemPrompt,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
		Stream:      stream,
	})
	if err != nil {
		return nil, &TransportError{Family: p.Family, Message: "failed to encode request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Family: p.Family, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("x-api-key", p.Credential)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("content-type", "application/json")
	return httpReq, nil
}

func (c *anthropicClient) invoke(ctx context.Context, req Request, p Profile) (string, Usage, error) {
	httpReq, err := c.newRequest(ctx, req, p, false)
	if err != nil {
		return "", Usage{}, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", Usage{}, &TransportError{Family: p.Family, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", Usage{}, transportErrorFromResponse(resp, p.Family)
	}

	var envelope anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", Usage{}, &TransportError{Family: p.Family, Message: "malformed response envelope", Cause: err}
	}

	if len(envelope.Content) == 0 {
		return "", Usage{}, ErrEmptyResponse
	}
	block := envelope.Content[0]
	if block.Type != "text" {
		return "", Usage{}, ErrNonTextResponse
	}
	if block.Text == "" {
		return "", Usage{}, ErrEmptyResponse
	}

	usage := Usage{
		InputTokens:  envelope.Usage.InputTokens,
		OutputTokens: envelope.Usage.OutputTokens,
	}
	return block.Text, usage, nil
}

func (c *anthropicClient) invokeStream(ctx context.Context, req Request, p Profile) (<-chan Chunk, error) {
	httpReq, err := c.newRequest(ctx, req, p, true)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Family: p.Family, Message: "request failed", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, transportErrorFromResponse(resp, p.Family)
	}

	ch := make(chan Chunk, 1)
	go c.readStream(ctx, resp.Body, p.Family, ch)
	return ch, nil
}

// readStream yields only text deltas; every other event type (message_start,
// content_block_stop, ping, ...) is consumed and discarded.
func (c *anthropicClient) readStream(ctx context.Context, body io.ReadCloser, family string, ch chan<- Chunk) {
	defer close(ch)
	defer body.Close()

	reader := newSSEReader(body)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			c.send(ctx, ch, Chunk{Err: &TransportError{Family: family, Message: "stream read error", Cause: err}})
			return
		}

		var payload anthropicStreamEvent
		if err := json.Unmarshal([]byte(event.Data), &payload); err != nil {
			continue
		}

		switch payload.Type {
		case "content_block_delta":
			if payload.Delta.Type != "text_delta" || payload.Delta.Text == "" {
				continue
			}
			if !c.send(ctx, ch, Chunk{Text: payload.Delta.Text}) {
				return
			}
		case "message_stop":
			return
		case "error":
			msg := payload.Error.Message
			if msg == "" {
				msg = "stream error"
			}
			c.send(ctx, ch, Chunk{Err: &TransportError{Family: family, Message: msg}})
			return
		}
	}
}

func (c *anthropicClient) send(ctx context.Context, ch chan<- Chunk, chunk Chunk) bool {
	select {
	case ch <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
