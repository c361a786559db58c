// Package idea holds the business-idea domain payloads, the prompt builders
// that request them, and the parsers that validate raw model output against
// each payload schema.
package idea

// GenerationType selects the brainstorming angle for idea generation.
type GenerationType string

const (
	GenerationTrending    GenerationType = "trending"
	GenerationRandom      GenerationType = "random"
	GenerationNiche       GenerationType = "niche"
	GenerationInnovation  GenerationType = "innovation"
	GenerationScalability GenerationType = "scalability"
)

// generationAngles maps each generation type to the angle description woven
// into the prompt.
var generationAngles = map[GenerationType]string{
	GenerationTrending:    "opportunities riding current market trends",
	GenerationRandom:      "unexpected, unconventional startup concepts",
	GenerationNiche:       "underserved niche market segments",
	GenerationInnovation:  "disruptive innovations that break existing business models",
	GenerationScalability: "businesses with strong potential for rapid growth",
}

// BusinessIdea is one generated idea. Title, TargetMarket, and RevenueModel
// are required; the rest default to empty when the model omits them.
type BusinessIdea struct {
	Title        string   `json:"title"`
	TargetMarket string   `json:"targetMarket"`
	RevenueModel string   `json:"revenueModel"`
	KeyFeatures  []string `json:"keyFeatures"`
	Description  string   `json:"description"`
	MarketSize   string   `json:"marketSize,omitempty"`
	Competition  string   `json:"competition,omitempty"`
}

// SocraticMode selects the questioning style.
type SocraticMode string

const (
	ModeBrainstorm SocraticMode = "brainstorm"
	ModeRefine     SocraticMode = "refine"
)

// ChatMessage is one turn of the refinement conversation.
type ChatMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// SocraticReply is the model's follow-up question with optional extras.
type SocraticReply struct {
	Question    string   `json:"question"`
	Suggestions []string `json:"suggestions,omitempty"`
	Insights    string   `json:"insights,omitempty"`
}

// Three-value scales used by the demand validation verdict.
var (
	validFrequency = []string{"high", "medium", "low"}
	validPainPoint = []string{"strong", "medium", "weak"}
	validPayment   = []string{"high", "medium", "low"}
)

// DemandValidation is the verdict on whether a described demand is real.
// Score is clamped into [0, 100] rather than rejected when out of range.
type DemandValidation struct {
	IsRealDemand       bool     `json:"isRealDemand"`
	Score              int      `json:"score"`
	Frequency          string   `json:"frequency"`
	PainPoint          string   `json:"painPoint"`
	PaymentWillingness string   `json:"paymentWillingness"`
	Reasoning          string   `json:"reasoning"`
	ActionPlan         []string `json:"actionPlan"`
}
