package provider

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pricing is the per-million-token price of a model, in CNY.
type Pricing struct {
	Input  float64 `yaml:"input" json:"input"`
	Output float64 `yaml:"output" json:"output"`
}

// ModelInfo describes one selectable model for the catalog endpoint.
type ModelInfo struct {
	Value       string   `yaml:"value" json:"value"`
	Label       string   `yaml:"label" json:"label"`
	Provider    string   `yaml:"provider" json:"provider"`
	Badge       string   `yaml:"badge,omitempty" json:"badge,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Pricing     *Pricing `yaml:"pricing,omitempty" json:"pricing,omitempty"`
	Group       string   `yaml:"group" json:"-"`
}

// Catalog is the ordered list of models offered to clients.
type Catalog struct {
	Models []ModelInfo `yaml:"models"`
}

// LoadCatalog reads a model catalog from a YAML file. An empty path returns
// the built-in catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return defaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model catalog %s: %w", path, err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse model catalog %s: %w", path, err)
	}
	if len(c.Models) == 0 {
		return nil, fmt.Errorf("model catalog %s lists no models", path)
	}
	return &c, nil
}

// PriceFor returns the pricing for a model, or zero when unknown.
func (c *Catalog) PriceFor(model string) Pricing {
	for _, m := range c.Models {
		if m.Value == model && m.Pricing != nil {
			return *m.Pricing
		}
	}
	return Pricing{}
}

// Grouped returns the catalog entries keyed by display group.
func (c *Catalog) Grouped() map[string][]ModelInfo {
	groups := make(map[string][]ModelInfo)
	for _, m := range c.Models {
		group := m.Group
		if group == "" {
			group = "other"
		}
		groups[group] = append(groups[group], m)
	}
	return groups
}

func defaultCatalog() *Catalog {
	return &Catalog{Models: []ModelInfo{
		{Value: "deepseek-chat", Label: "DeepSeek Chat", Provider: "DeepSeek", Badge: "recommended",
			Description: "Fast and cost-effective", Pricing: &Pricing{Input: 1, Output: 2}, Group: "recommended"},
		{Value: "qwen-plus", Label: "Qwen Plus", Provider: "Qwen", Badge: "recommended",
			Description: "Balanced performance and cost", Pricing: &Pricing{Input: 4, Output: 12}, Group: "recommended"},
		{Value: "qwen-max", Label: "Qwen Max", Provider: "Qwen", Badge: "flagship",
			Description: "Strongest Qwen model", Pricing: &Pricing{Input: 40, Output: 120}, Group: "recommended"},
		{Value: "gpt-4-turbo", Label: "GPT-4 Turbo", Provider: "OpenAI",
			Description: "Most capable OpenAI model", Pricing: &Pricing{Input: 70, Output: 210}, Group: "international"},
		{Value: "gpt-3.5-turbo", Label: "GPT-3.5 Turbo", Provider: "OpenAI",
			Description: "Fast and economical", Pricing: &Pricing{Input: 3.5, Output: 7}, Group: "international"},
		{Value: "claude-3-opus-20240229", Label: "Claude 3 Opus", Provider: "Anthropic",
			Description: "Excellent creative output", Pricing: &Pricing{Input: 105, Output: 315}, Group: "international"},
		{Value: "claude-3-sonnet-20240229", Label: "Claude 3 Sonnet", Provider: "Anthropic",
			Description: "Balanced performance", Pricing: &Pricing{Input: 21, Output: 70}, Group: "international"},
		{Value: "deepseek-coder", Label: "DeepSeek Coder", Provider: "DeepSeek",
			Description: "Code generation specialist", Pricing: &Pricing{Input: 1, Output: 2}, Group: "other"},
		{Value: "qwen-turbo", Label: "Qwen Turbo", Provider: "Qwen",
			Description: "Lowest latency", Pricing: &Pricing{Input: 2, Output: 6}, Group: "other"},
		{Value: "gemini-1.5-pro", Label: "Gemini 1.5 Pro", Provider: "Google",
			Description: "Long context window", Group: "other"},
		{Value: "groq/llama3-70b-8192", Label: "Llama 3 70B (Groq)", Provider: "Groq",
			Description: "Very fast inference", Group: "other"},
		{Value: "ollama/llama3", Label: "Llama 3 (local)", Provider: "Ollama",
			Description: "Runs locally, no key required", Group: "other"},
	}}
}
