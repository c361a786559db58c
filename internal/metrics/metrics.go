// Package metrics tracks token consumption and cost per model.
package metrics

import "sync"

// Pricing is the per-million-token price used for cost accounting.
type Pricing struct {
	Input  float64
	Output float64
}

// ModelUsage accumulates consumption for one model.
type ModelUsage struct {
	Requests     int     `json:"requests"`
	InputTokens  int     `json:"inputTokens"`
	OutputTokens int     `json:"outputTokens"`
	Cost         float64 `json:"cost"`
}

// Tracker is a process-wide usage accumulator, safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	perModel map[string]*ModelUsage
}

func NewTracker() *Tracker {
	return &Tracker{perModel: make(map[string]*ModelUsage)}
}

// Record adds one completed generation's token counts.
func (t *Tracker) Record(model string, inputTokens, outputTokens int, price Pricing) {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.perModel[model]
	if !ok {
		u = &ModelUsage{}
		t.perModel[model] = u
	}
	u.Requests++
	u.InputTokens += inputTokens
	u.OutputTokens += outputTokens
	u.Cost += float64(inputTokens)*price.Input/1e6 + float64(outputTokens)*price.Output/1e6
}

// Snapshot returns a copy of the per-model usage.
func (t *Tracker) Snapshot() map[string]ModelUsage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]ModelUsage, len(t.perModel))
	for model, u := range t.perModel {
		out[model] = *u
	}
	return out
}

// TotalCost returns the accumulated cost across all models.
func (t *Tracker) TotalCost() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0.0
	for _, u := range t.perModel {
		total += u.Cost
	}
	return total
}
