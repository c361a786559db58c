package provider

import (
	"os"
	"strings"
)

// routingPrefixes exist only for local provider selection and are stripped
// from the model name before it goes on the wire.
var routingPrefixes = []string{"groq/", "ollama/"}

// WireModelName returns the model identifier as the remote API expects it.
func WireModelName(model string) string {
	for _, p := range routingPrefixes {
		if strings.HasPrefix(model, p) {
			return strings.TrimPrefix(model, p)
		}
	}
	return model
}

// rule is one entry of the ordered resolution table. First match wins.
type rule struct {
	prefix   string
	family   string
	baseURL  string
	baseEnv  string
	credEnvs []string
	dialect  Dialect
	headers  map[string]string
	// keyless backends carry a placeholder credential; availability is then
	// keyed on the base URL being configured instead.
	keyless bool
}

var resolutionTable = []rule{
	{
		prefix:   "deepseek",
		family:   "deepseek",
		baseURL:  "https://api.deepseek.com",
		baseEnv:  "DEEPSEEK_BASE_URL",
		credEnvs: []string{"DEEPSEEK_API_KEY"},
		dialect:  DialectOpenAI,
	},
	{
		prefix:   "qwen",
		family:   "qwen",
		baseURL:  "https://dashscope.aliyuncs.com/compatible-mode/v1",
		baseEnv:  "QWEN_BASE_URL",
		credEnvs: []string{"DASHSCOPE_API_KEY", "QWEN_API_KEY"},
		dialect:  DialectOpenAI,
		headers:  map[string]string{"X-DashScope-SSE": "enable"},
	},
	{
		prefix:   "gpt",
		family:   "openai",
		baseURL:  "https://api.openai.com/v1",
		baseEnv:  "OPENAI_BASE_URL",
		credEnvs: []string{"OPENAI_API_KEY"},
		dialect:  DialectOpenAI,
	},
	{
		prefix:   "claude",
		family:   "anthropic",
		baseURL:  "https://api.anthropic.com",
		credEnvs: []string{"ANTHROPIC_API_KEY"},
		dialect:  DialectAnthropic,
	},
	{
		prefix:   "gemini",
		family:   "gemini",
		baseURL:  "https://generativelanguage.googleapis.com/v1beta",
		credEnvs: []string{"GOOGLE_API_KEY"},
		dialect:  DialectOpenAI,
	},
	{
		prefix:   "groq/",
		family:   "groq",
		baseURL:  "https://api.groq.com/openai/v1",
		credEnvs: []string{"GROQ_API_KEY"},
		dialect:  DialectOpenAI,
	},
	{
		prefix:  "ollama/",
		family:  "ollama",
		baseURL: "http://localhost:11434/v1",
		baseEnv: "OLLAMA_BASE_URL",
		dialect: DialectOpenAI,
		keyless: true,
	},
}

// resolved is a rule with its environment lookups already applied.
type resolved struct {
	rule      rule
	profile   Profile
	available bool
}

// Registry resolves model identifiers to connection profiles. The environment
// is read exactly once, at construction; resolution afterwards is a pure
// lookup and safe for concurrent use.
type Registry struct {
	entries []resolved
}

// NewRegistry builds a Registry from the process environment.
func NewRegistry() *Registry {
	return NewRegistryFromEnv(os.Getenv)
}

// NewRegistryFromEnv builds a Registry using getenv for every environment
// lookup. Tests inject their own lookup to keep resolution deterministic.
func NewRegistryFromEnv(getenv func(string) string) *Registry {
	entries := make([]resolved, 0, len(resolutionTable))
	for _, r := range resolutionTable {
		baseURL := r.baseURL
		if r.baseEnv != "" {
			if v := getenv(r.baseEnv); v != "" {
				baseURL = v
			}
		}

		var credential, credName string
		if len(r.credEnvs) > 0 {
			credName = r.credEnvs[0]
			for _, env := range r.credEnvs {
				if v := getenv(env); v != "" {
					credential = v
					credName = env
					break
				}
			}
		}

		p := Profile{
			Family:          r.family,
			BaseURL:         strings.TrimRight(baseURL, "/"),
			Credential:      credential,
			CredentialName:  credName,
			Dialect:         r.dialect,
			ExtraHeaders:    r.headers,
			Unauthenticated: credential == "" && !r.keyless,
		}
		available := credential != ""
		if r.keyless {
			p.Credential = "ollama"
			p.CredentialName = r.baseEnv
			available = getenv(r.baseEnv) != ""
		}
		entries = append(entries, resolved{rule: r, profile: p, available: available})
	}
	return &Registry{entries: entries}
}

// Resolve maps a model identifier to its Profile. Exactly one profile
// resolves for any supported identifier; anything else fails explicitly.
func (r *Registry) Resolve(model string) (Profile, error) {
	for _, e := range r.entries {
		if strings.HasPrefix(model, e.rule.prefix) {
			return e.profile, nil
		}
	}
	return Profile{}, &UnsupportedModelError{Model: model}
}

// Available reports whether the model can actually be called: a rule matches
// and its credential slot (or local endpoint, for keyless backends) is set.
func (r *Registry) Available(model string) bool {
	for _, e := range r.entries {
		if strings.HasPrefix(model, e.rule.prefix) {
			return e.available
		}
	}
	return false
}
