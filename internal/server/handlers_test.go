package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ideaforge/ideaforge-go/internal/config"
	"github.com/ideaforge/ideaforge-go/internal/metrics"
	"github.com/ideaforge/ideaforge-go/internal/provider"
)

// stubGenerator returns scripted text without touching any backend.
type stubGenerator struct {
	text      string
	err       error
	fragments []string
	lastReq   provider.Request
}

func (s *stubGenerator) GenerateWithRetry(ctx context.Context, req provider.Request, maxAttempts int) (string, error) {
	s.lastReq = req
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func (s *stubGenerator) GenerateStream(ctx context.Context, req provider.Request) (<-chan provider.Chunk, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	ch := make(chan provider.Chunk, len(s.fragments))
	for _, f := range s.fragments {
		ch <- provider.Chunk{Text: f}
	}
	close(ch)
	return ch, nil
}

func newTestServer(t *testing.T, stub *stubGenerator) *Server {
	t.Helper()
	cfg := &config.Config{Address: ":0", DefaultModel: "deepseek-chat"}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	catalog, err := provider.LoadCatalog("")
	require.NoError(t, err)
	registry := provider.NewRegistryFromEnv(func(key string) string {
		if key == "DEEPSEEK_API_KEY" {
			return "k"
		}
		return ""
	})
	return New(cfg, logger, stub, registry, catalog, metrics.NewTracker())
}

func doJSON(t *testing.T, srv *Server, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)
	return w
}

const ideasJSON = `{"ideas":[{"title":"T","targetMarket":"M","revenueModel":"R","keyFeatures":["f"],"description":"D"}]}`

func TestGenerateIdeas(t *testing.T) {
	stub := &stubGenerator{text: ideasJSON}
	srv := newTestServer(t, stub)

	w := doJSON(t, srv, http.MethodPost, "/api/generate",
		`{"interests":"AI tools","generationType":"trending"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var resp struct {
		Ideas       []map[string]interface{} `json:"ideas"`
		Model       string                   `json:"model"`
		GeneratedAt string                   `json:"generatedAt"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Ideas, 1)
	assert.Equal(t, "T", resp.Ideas[0]["title"])
	assert.Equal(t, "deepseek-chat", resp.Model)
	assert.NotEmpty(t, resp.GeneratedAt)

	// The prompt carries the interests and the idea system prompt framing.
	assert.Contains(t, stub.lastReq.Prompt, "AI tools")
	assert.NotEmpty(t, stub.lastReq.SystemPrompt)
	assert.InDelta(t, 0.8, stub.lastReq.Temperature, 1e-9)
	assert.Equal(t, 3000, stub.lastReq.MaxTokens)
}

func TestGenerateIdeasModelOverride(t *testing.T) {
	stub := &stubGenerator{text: ideasJSON}
	srv := newTestServer(t, stub)

	w := doJSON(t, srv, http.MethodPost, "/api/generate",
		`{"interests":"x","generationType":"niche","model":"qwen-plus"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "qwen-plus", stub.lastReq.Model)
}

func TestGenerateIdeasRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{text: ideasJSON})

	cases := map[string]string{
		"missing interests":      `{"generationType":"trending"}`,
		"unknown generationType": `{"interests":"x","generationType":"wildcard"}`,
		"blank interests":        `{"interests":"   ","generationType":"trending"}`,
		"oversized interests":    `{"interests":"` + strings.Repeat("x", 501) + `","generationType":"trending"}`,
		"not json":               `trending ideas please`,
	}
	for name, body := range cases {
		w := doJSON(t, srv, http.MethodPost, "/api/generate", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
}

func TestGenerateIdeasParseFailure(t *testing.T) {
	stub := &stubGenerator{text: "I cannot answer in JSON, sorry."}
	srv := newTestServer(t, stub)

	w := doJSON(t, srv, http.MethodPost, "/api/generate",
		`{"interests":"x","generationType":"random"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "failed to parse model response")
	// The raw model output stays in the logs, not the response body.
	assert.NotContains(t, w.Body.String(), "I cannot answer")
}

func TestGenerateIdeasUnsupportedModel(t *testing.T) {
	stub := &stubGenerator{err: &provider.UnsupportedModelError{Model: "mistral-large"}}
	srv := newTestServer(t, stub)

	w := doJSON(t, srv, http.MethodPost, "/api/generate",
		`{"interests":"x","generationType":"random","model":"mistral-large"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "mistral-large")
}

func TestGenerateIdeasConfigurationError(t *testing.T) {
	stub := &stubGenerator{err: &provider.ConfigurationError{Model: "gpt-4-turbo", CredentialName: "OPENAI_API_KEY"}}
	srv := newTestServer(t, stub)

	w := doJSON(t, srv, http.MethodPost, "/api/generate",
		`{"interests":"x","generationType":"random","model":"gpt-4-turbo"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "OPENAI_API_KEY")
}

func TestGenerateIdeasTransportErrorIsGeneric(t *testing.T) {
	stub := &stubGenerator{err: &provider.TransportError{Family: "deepseek", Status: 503, Message: "overloaded"}}
	srv := newTestServer(t, stub)

	w := doJSON(t, srv, http.MethodPost, "/api/generate",
		`{"interests":"x","generationType":"random"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "please retry")
	assert.NotContains(t, w.Body.String(), "overloaded")
}

func TestGenerateIdeasStream(t *testing.T) {
	fragments := []string{"{\"ideas\":[{\"title\":\"T\",", "\"targetMarket\":\"M\",\"revenueModel\":\"R\"}]}"}
	stub := &stubGenerator{fragments: fragments}
	srv := newTestServer(t, stub)

	w := doJSON(t, srv, http.MethodPost, "/api/generate",
		`{"interests":"x","generationType":"trending","stream":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	for _, f := range fragments {
		encoded, _ := json.Marshal(f)
		assert.Contains(t, body, string(encoded))
	}
	assert.Contains(t, body, `"done":true`)
	assert.True(t, strings.HasSuffix(body, "data: [DONE]\n\n"))
}

func TestGenerateIdeasStreamParseFailure(t *testing.T) {
	stub := &stubGenerator{fragments: []string{"not ", "json"}}
	srv := newTestServer(t, stub)

	w := doJSON(t, srv, http.MethodPost, "/api/generate",
		`{"interests":"x","generationType":"trending","stream":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `"rawResponse":"not json"`)
	assert.True(t, strings.HasSuffix(body, "data: [DONE]\n\n"))
}

func TestSocraticQuestion(t *testing.T) {
	stub := &stubGenerator{text: `{"question":"What problem does it solve?","suggestions":["s"],"insights":"i"}`}
	srv := newTestServer(t, stub)

	w := doJSON(t, srv, http.MethodPost, "/api/socratic-question",
		`{"mode":"brainstorm","topic":"pricing","history":[{"role":"user","content":"hi","timestamp":1}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Question  string `json:"question"`
		Model     string `json:"model"`
		Timestamp int64  `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "What problem does it solve?", resp.Question)
	assert.Equal(t, "deepseek-chat", resp.Model)
	assert.NotZero(t, resp.Timestamp)

	assert.Contains(t, stub.lastReq.Prompt, "pricing")
	assert.Contains(t, stub.lastReq.Prompt, "User: hi")
	assert.InDelta(t, 0.7, stub.lastReq.Temperature, 1e-9)
	assert.Equal(t, 800, stub.lastReq.MaxTokens)
}

func TestSocraticQuestionRejectsUnknownMode(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{})
	w := doJSON(t, srv, http.MethodPost, "/api/socratic-question",
		`{"mode":"interrogate","topic":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateDemand(t *testing.T) {
	stub := &stubGenerator{text: "```json\n" + `{"isRealDemand":true,"score":150,"frequency":"high","painPoint":"strong","paymentWillingness":"high","reasoning":"r","actionPlan":["a","b"]}` + "\n```"}
	srv := newTestServer(t, stub)

	w := doJSON(t, srv, http.MethodPost, "/api/validate-demand",
		`{"demand":"people want faster horses"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var verdict struct {
		IsRealDemand bool `json:"isRealDemand"`
		Score        int  `json:"score"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verdict))
	assert.True(t, verdict.IsRealDemand)
	// Out-of-range scores are clamped, fence and all handled upstream.
	assert.Equal(t, 100, verdict.Score)

	assert.Contains(t, stub.lastReq.Prompt, "faster horses")
	assert.InDelta(t, 0.3, stub.lastReq.Temperature, 1e-9)
	assert.Equal(t, 2000, stub.lastReq.MaxTokens)
}

func TestValidateDemandRejectsEmptyBody(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{})
	w := doJSON(t, srv, http.MethodPost, "/api/validate-demand", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListModels(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{})
	w := doJSON(t, srv, http.MethodGet, "/api/models", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Models []struct {
			Value     string `json:"value"`
			Available bool   `json:"available"`
		} `json:"models"`
		Grouped      map[string][]json.RawMessage `json:"grouped"`
		DefaultModel string                       `json:"defaultModel"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "deepseek-chat", resp.DefaultModel)
	assert.NotEmpty(t, resp.Grouped["recommended"])

	availability := make(map[string]bool)
	for _, m := range resp.Models {
		availability[m.Value] = m.Available
	}
	// Only DEEPSEEK_API_KEY is set in the test registry.
	assert.True(t, availability["deepseek-chat"])
	assert.False(t, availability["gpt-4-turbo"])
	assert.False(t, availability["ollama/llama3"])
}

func TestUsageReport(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{})
	srv.tracker.Record("deepseek-chat", 1000, 500, metrics.Pricing{Input: 1, Output: 2})

	w := doJSON(t, srv, http.MethodGet, "/api/usage", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Usage map[string]struct {
			Requests int `json:"requests"`
		} `json:"usage"`
		TotalCost float64 `json:"totalCost"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Usage["deepseek-chat"].Requests)
	assert.InDelta(t, 0.002, resp.TotalCost, 1e-9)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{})
	for _, path := range []string{"/api/generate", "/api/socratic-question", "/api/validate-demand"} {
		w := doJSON(t, srv, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), `"status":"ok"`, path)
		assert.Contains(t, w.Body.String(), apiVersion, path)
	}
}
