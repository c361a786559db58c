package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ideaforge/ideaforge-go/internal/idea"
	"github.com/ideaforge/ideaforge-go/internal/provider"
)

const apiVersion = "1.0.0"

type generateRequest struct {
	Interests      string `json:"interests" binding:"required"`
	GenerationType string `json:"generationType" binding:"required,oneof=trending random niche innovation scalability"`
	Model          string `json:"model"`
	Stream         bool   `json:"stream"`
}

type socraticRequest struct {
	Mode    string             `json:"mode" binding:"required,oneof=brainstorm refine"`
	Topic   string             `json:"topic" binding:"required"`
	History []idea.ChatMessage `json:"history"`
	Model   string             `json:"model"`
}

type validateRequest struct {
	Demand string `json:"demand" binding:"required"`
}

// POST /api/generate
func (s *Server) generateIdeas(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request parameters"})
		return
	}
	if err := s.guards.CheckInterests(req.Interests); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	model := req.Model
	if model == "" {
		model = s.cfg.DefaultModel
	}
	genReq := provider.Request{
		Prompt:       idea.BuildIdeaPrompt(req.Interests, idea.GenerationType(req.GenerationType)),
		Model:        model,
		SystemPrompt: idea.IdeaSystemPrompt,
		Temperature:  0.8,
		MaxTokens:    3000,
	}

	if req.Stream {
		s.streamIdeas(c, genReq)
		return
	}

	text, err := s.llm.GenerateWithRetry(c.Request.Context(), genReq, provider.DefaultMaxAttempts)
	if err != nil {
		s.writeGenerationError(c, err)
		return
	}

	ideas, err := idea.ParseIdeas(text)
	if err != nil {
		s.logParseFailure(c, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to parse model response"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ideas":       ideas,
		"model":       model,
		"generatedAt": time.Now().UTC().Format(time.RFC3339),
	})
}

// streamIdeas relays fragments as SSE data events, then a final event with
// the parsed idea list (or a parse error carrying the raw response), then
// the [DONE] terminator.
func (s *Server) streamIdeas(c *gin.Context, genReq provider.Request) {
	ch, err := s.llm.GenerateStream(c.Request.Context(), genReq)
	if err != nil {
		s.writeGenerationError(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Flush()

	var full strings.Builder
	for chunk := range ch {
		if chunk.Err != nil {
			s.writeSSE(c, gin.H{"error": "generation failed"})
			s.logger.ErrorContext(c.Request.Context(), "stream failed", "error", chunk.Err)
			return
		}
		full.WriteString(chunk.Text)
		s.writeSSE(c, gin.H{"content": chunk.Text})
	}

	ideas, err := idea.ParseIdeas(full.String())
	if err != nil {
		s.logParseFailure(c, err)
		s.writeSSE(c, gin.H{"error": "failed to parse model response", "rawResponse": full.String()})
	} else {
		s.writeSSE(c, gin.H{"ideas": ideas, "done": true})
	}
	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	c.Writer.Flush()
}

func (s *Server) writeSSE(c *gin.Context, payload gin.H) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Writer, "data: %s\n\n", data)
	c.Writer.Flush()
}

// POST /api/socratic-question
func (s *Server) socraticQuestion(c *gin.Context) {
	var req socraticRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request parameters"})
		return
	}
	if err := s.guards.CheckTopic(req.Topic); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	model := req.Model
	if model == "" {
		model = s.cfg.DefaultModel
	}
	mode := idea.SocraticMode(req.Mode)
	genReq := provider.Request{
		Prompt:       idea.BuildSocraticPrompt(mode, req.Topic, idea.FormatHistory(req.History)),
		Model:        model,
		SystemPrompt: idea.SocraticSystemPrompts[mode],
		Temperature:  0.7,
		MaxTokens:    800,
	}

	text, err := s.llm.GenerateWithRetry(c.Request.Context(), genReq, provider.DefaultMaxAttempts)
	if err != nil {
		s.writeGenerationError(c, err)
		return
	}

	reply, err := idea.ParseSocratic(text)
	if err != nil {
		s.logParseFailure(c, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to parse model response"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"question":    reply.Question,
		"suggestions": reply.Suggestions,
		"insights":    reply.Insights,
		"model":       model,
		"timestamp":   time.Now().UnixMilli(),
	})
}

// POST /api/validate-demand
func (s *Server) validateDemand(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request parameters"})
		return
	}
	if err := s.guards.CheckDemand(req.Demand); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	genReq := provider.Request{
		Prompt:       idea.BuildValidationPrompt(req.Demand),
		Model:        s.cfg.DefaultModel,
		SystemPrompt: idea.ValidationSystemPrompt,
		Temperature:  0.3,
		MaxTokens:    2000,
	}

	text, err := s.llm.GenerateWithRetry(c.Request.Context(), genReq, provider.DefaultMaxAttempts)
	if err != nil {
		s.writeGenerationError(c, err)
		return
	}

	verdict, err := idea.ParseValidation(text)
	if err != nil {
		s.logParseFailure(c, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to parse model response"})
		return
	}

	c.JSON(http.StatusOK, verdict)
}

// availableModel is a catalog entry annotated with credential availability.
type availableModel struct {
	provider.ModelInfo
	Available bool `json:"available"`
}

// GET /api/models
func (s *Server) listModels(c *gin.Context) {
	annotate := func(models []provider.ModelInfo) []availableModel {
		out := make([]availableModel, 0, len(models))
		for _, m := range models {
			out = append(out, availableModel{ModelInfo: m, Available: s.registry.Available(m.Value)})
		}
		return out
	}

	grouped := make(map[string][]availableModel)
	for group, models := range s.catalog.Grouped() {
		grouped[group] = annotate(models)
	}

	c.JSON(http.StatusOK, gin.H{
		"models":       annotate(s.catalog.Models),
		"grouped":      grouped,
		"defaultModel": s.cfg.DefaultModel,
	})
}

// GET /api/usage
func (s *Server) usageReport(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"usage":     s.tracker.Snapshot(),
		"totalCost": s.tracker.TotalCost(),
	})
}

// writeGenerationError maps core errors onto HTTP responses: unsupported
// models and missing credentials get actionable messages, everything else a
// generic retry hint.
func (s *Server) writeGenerationError(c *gin.Context, err error) {
	var unsupported *provider.UnsupportedModelError
	if errors.As(err, &unsupported) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var misconfigured *provider.ConfigurationError
	if errors.As(err, &misconfigured) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.logger.ErrorContext(c.Request.Context(), "generation failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "generation failed, please retry"})
}

func (s *Server) logParseFailure(c *gin.Context, err error) {
	var parseErr *idea.ParseError
	if errors.As(err, &parseErr) {
		s.logger.ErrorContext(c.Request.Context(), "parse failed",
			"reason", parseErr.Reason,
			"raw_response", parseErr.Raw)
		return
	}
	s.logger.ErrorContext(c.Request.Context(), "parse failed", "error", err)
}

func (s *Server) generateHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Business Idea Generator API",
		"version": apiVersion,
	})
}

func (s *Server) socraticHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Socratic Questioning API",
		"version": apiVersion,
		"modes":   []string{string(idea.ModeBrainstorm), string(idea.ModeRefine)},
	})
}

func (s *Server) validateHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Demand Validation API",
		"version": apiVersion,
	})
}
