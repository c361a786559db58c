package idea

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ParseError reports model output that did not match the expected schema.
// Raw carries the full original text for diagnostics; it is never part of
// the message.
type ParseError struct {
	Reason string
	Raw    string
	Cause  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse model response: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// stripCodeFence removes an optional markdown code fence (with or without a
// language tag) wrapping the text.
func stripCodeFence(s string) string {
	cleaned := strings.TrimSpace(s)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	cleaned = strings.TrimPrefix(cleaned, "```")
	// Drop the language tag, if any, up to the end of the first line.
	if i := strings.IndexByte(cleaned, '\n'); i >= 0 {
		cleaned = cleaned[i+1:]
	} else {
		cleaned = strings.TrimSpace(cleaned)
	}
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

// ParseIdeas validates raw model output against the idea-list schema: an
// object with an "ideas" array whose entries carry title, targetMarket, and
// revenueModel at minimum.
func ParseIdeas(raw string) ([]BusinessIdea, error) {
	cleaned := stripCodeFence(raw)

	var envelope struct {
		Ideas []BusinessIdea `json:"ideas"`
	}
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return nil, &ParseError{Reason: "invalid JSON", Raw: raw, Cause: err}
	}
	if envelope.Ideas == nil {
		return nil, &ParseError{Reason: "missing ideas array", Raw: raw}
	}

	ideas := make([]BusinessIdea, 0, len(envelope.Ideas))
	for i, it := range envelope.Ideas {
		if it.Title == "" || it.TargetMarket == "" || it.RevenueModel == "" {
			return nil, &ParseError{
				Reason: fmt.Sprintf("idea %d is missing required fields", i+1),
				Raw:    raw,
			}
		}
		if it.KeyFeatures == nil {
			it.KeyFeatures = []string{}
		}
		ideas = append(ideas, it)
	}
	return ideas, nil
}

// ParseSocratic validates raw model output against the follow-up question
// schema. Only the question itself is required.
func ParseSocratic(raw string) (SocraticReply, error) {
	cleaned := stripCodeFence(raw)

	var reply SocraticReply
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil {
		return SocraticReply{}, &ParseError{Reason: "invalid JSON", Raw: raw, Cause: err}
	}
	if reply.Question == "" {
		return SocraticReply{}, &ParseError{Reason: "missing question field", Raw: raw}
	}
	return reply, nil
}

// ParseValidation validates raw model output against the demand-validation
// schema. An out-of-range score is clamped into [0, 100] rather than
// rejected; everything else is strict.
func ParseValidation(raw string) (DemandValidation, error) {
	cleaned := stripCodeFence(raw)

	var payload struct {
		IsRealDemand       *bool    `json:"isRealDemand"`
		Score              *float64 `json:"score"`
		Frequency          string   `json:"frequency"`
		PainPoint          string   `json:"painPoint"`
		PaymentWillingness string   `json:"paymentWillingness"`
		Reasoning          string   `json:"reasoning"`
		ActionPlan         []string `json:"actionPlan"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return DemandValidation{}, &ParseError{Reason: "invalid JSON", Raw: raw, Cause: err}
	}

	switch {
	case payload.IsRealDemand == nil:
		return DemandValidation{}, &ParseError{Reason: "missing isRealDemand field", Raw: raw}
	case payload.Score == nil:
		return DemandValidation{}, &ParseError{Reason: "missing score field", Raw: raw}
	case payload.Reasoning == "":
		return DemandValidation{}, &ParseError{Reason: "missing reasoning field", Raw: raw}
	case payload.ActionPlan == nil:
		return DemandValidation{}, &ParseError{Reason: "missing actionPlan array", Raw: raw}
	}

	if !contains(validFrequency, payload.Frequency) {
		return DemandValidation{}, &ParseError{Reason: "invalid frequency value", Raw: raw}
	}
	if !contains(validPainPoint, payload.PainPoint) {
		return DemandValidation{}, &ParseError{Reason: "invalid painPoint value", Raw: raw}
	}
	if !contains(validPayment, payload.PaymentWillingness) {
		return DemandValidation{}, &ParseError{Reason: "invalid paymentWillingness value", Raw: raw}
	}

	score := int(math.Round(*payload.Score))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return DemandValidation{
		IsRealDemand:       *payload.IsRealDemand,
		Score:              score,
		Frequency:          payload.Frequency,
		PainPoint:          payload.PainPoint,
		PaymentWillingness: payload.PaymentWillingness,
		Reasoning:          payload.Reasoning,
		ActionPlan:         payload.ActionPlan,
	}, nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
