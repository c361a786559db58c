package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// openAIClient speaks the OpenAI-compatible chat-completions protocol. It
// serves every family except Anthropic; the profile carries the differences
// (endpoint, credential, extra headers).
type openAIClient struct {
	http *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (c *openAIClient) newRequest(ctx context.Context, req Request, p Profile, stream bool) (*http.Request, error) {
	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatCompletionRequest{
		Model:       WireModelName(req.Model),
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
	})
	if err != nil {
		return nil, &TransportError{Family: p.Family, Message: "failed to encode request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Family: p.Family, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.Credential)
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range p.ExtraHeaders {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

func (c *openAIClient) invoke(ctx context.Context, req Request, p Profile) (string, Usage, error) {
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

	var envelope chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", Usage{}, &TransportError{Family: p.Family, Message: "malformed response envelope", Cause: err}
	}

	if len(envelope.Choices) == 0 || envelope.Choices[0].Message.Content == "" {
		return "", Usage{}, ErrEmptyResponse
	}

	usage := Usage{
		InputTokens:  envelope.Usage.PromptTokens,
		OutputTokens: envelope.Usage.CompletionTokens,
	}
	return envelope.Choices[0].Message.Content, usage, nil
}

func (c *openAIClient) invokeStream(ctx context.Context, req Request, p Profile) (<-chan Chunk, error) {
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

// readStream pumps delta fragments until the [DONE] terminator. Closing the
// response body on return is what releases the connection when the consumer
// cancels mid-stream.
func (c *openAIClient) readStream(ctx context.Context, body io.ReadCloser, family string, ch chan<- Chunk) {
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
		if event.Event == sseDone {
			return
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(event.Data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		if !c.send(ctx, ch, Chunk{Text: chunk.Choices[0].Delta.Content}) {
			return
		}
	}
}

// send delivers a chunk unless the consumer has gone away.
func (c *openAIClient) send(ctx context.Context, ch chan<- Chunk, chunk Chunk) bool {
	select {
	case ch <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
