// Package provider routes generation requests to heterogeneous LLM backends
// and normalizes their responses into a single text-or-fragment contract.
package provider

// Dialect identifies the wire protocol a backend speaks. It is resolved once
// by the Registry and carried on the Profile so downstream layers dispatch on
// the tag instead of re-testing model name prefixes.
type Dialect int

const (
	// DialectOpenAI covers every backend exposing an OpenAI-compatible
	// chat-completions endpoint (DeepSeek, Qwen, OpenAI, Gemini, Groq, Ollama).
	DialectOpenAI Dialect = iota
	// DialectAnthropic covers the Anthropic Messages API.
	DialectAnthropic
)

func (d Dialect) String() string {
	switch d {
	case DialectOpenAI:
		return "openai-compatible"
	case DialectAnthropic:
		return "anthropic"
	}
	return "unknown"
}

// Request is a provider-agnostic generation request. A zero Temperature is
// treated as unset and replaced with the default; the same goes for MaxTokens.
type Request struct {
	Prompt       string
	Model        string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

const (
	defaultTemperature = 0.8
	defaultMaxTokens   = 3000
)

func (r Request) withDefaults() Request {
	if r.Temperature == 0 {
		r.Temperature = defaultTemperature
	}
	if r.MaxTokens <= 0 {
		r.MaxTokens = defaultMaxTokens
	}
	return r
}

// Profile is the resolved connection bundle for a model identifier. Profiles
// are built once from the environment and never mutated afterwards.
type Profile struct {
	// Family is the provider family name ("deepseek", "anthropic", ...).
	Family string
	// BaseURL is the endpoint root, without a trailing slash.
	BaseURL string
	// Credential is the API key for the backend. Empty when Unauthenticated.
	Credential string
	// CredentialName names the environment variable the credential comes
	// from, so configuration errors can point at it without leaking it.
	CredentialName string
	// Dialect selects the request/response translation.
	Dialect Dialect
	// ExtraHeaders are sent verbatim on every request to this backend.
	ExtraHeaders map[string]string
	// Unauthenticated is set when the credential slot resolved empty. The
	// profile is structurally valid but must not be used for network I/O.
	Unauthenticated bool
}

// Chunk is one element of a streaming sequence. Exactly one of Text or Err is
// meaningful; a Chunk with Err set is always the last one delivered before
// the channel closes.
type Chunk struct {
	Text string
	Err  error
}

// Usage reports token consumption for a single completed generation.
type Usage struct {
	InputTokens  int
	OutputTokens int
}
