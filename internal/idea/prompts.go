package idea

import (
	"fmt"
	"strings"
)

// IdeaSystemPrompt frames the model as a startup advisor returning strict
// JSON for the idea-generation use case.
const IdeaSystemPrompt = `You are an experienced startup advisor and business strategist.
You generate concrete, actionable business ideas tailored to the user's interests and skills.
Always respond with JSON only, no commentary and no markdown outside the JSON.`

// SocraticSystemPrompts frame the model for each questioning mode.
var SocraticSystemPrompts = map[SocraticMode]string{
	ModeBrainstorm: `You are a Socratic facilitator helping a founder explore a topic.
Ask one probing, open-ended question at a time that widens their thinking.
Always respond with JSON only.`,
	ModeRefine: `You are a Socratic facilitator helping a founder sharpen an existing idea.
Ask one pointed question at a time that exposes hidden assumptions or gaps.
Always respond with JSON only.`,
}

// ValidationSystemPrompt frames the model as a product analyst scoring demand
// on frequency, pain intensity, and willingness to pay.
const ValidationSystemPrompt = `You are a seasoned product manager and business analyst skilled at telling real demand from imagined demand.

Evaluate the given demand on three dimensions:
1. Frequency: how often users hit the problem (high / medium / low)
2. Pain point intensity: how badly it hurts (strong / medium / weak)
3. Payment willingness: what users would pay to solve it (high / medium / low)

A real demand scores high on at least two dimensions; a false demand scores low on at least two.
Analyze objectively and give an overall score from 0 to 100 with detailed reasoning.`

// BuildIdeaPrompt assembles the idea-generation prompt for the given
// interests and angle.
func BuildIdeaPrompt(interests string, generationType GenerationType) string {
	angle := generationAngles[generationType]
	return fmt.Sprintf(`Generate 3 to 5 business ideas focused on %s, grounded in the user's interests and skills.

User interests and skills:
%s

Return the result in exactly this JSON shape:

{
  "ideas": [
    {
      "title": "...",
      "targetMarket": "...",
      "revenueModel": "...",
      "keyFeatures": ["...", "..."],
      "description": "...",
      "marketSize": "...",
      "competition": "..."
    }
  ]
}

title, targetMarket, and revenueModel are required for every idea.
Return JSON only, with no explanation around it.`, angle, interests)
}

// BuildSocraticPrompt assembles the follow-up-question prompt from the topic
// and the conversation so far.
func BuildSocraticPrompt(mode SocraticMode, topic, history string) string {
	intent := "explore the topic from new directions"
	if mode == ModeRefine {
		intent = "stress-test and refine the idea"
	}
	return fmt.Sprintf(`Topic under discussion:
%s

Conversation so far:
%s

Ask the single most useful next question to %s.

Return the result in exactly this JSON shape:

{
  "question": "...",
  "suggestions": ["...", "..."],
  "insights": "..."
}

question is required; suggestions and insights are optional.
Return JSON only, with no explanation around it.`, topic, history, intent)
}

// BuildValidationPrompt assembles the demand-validation prompt.
func BuildValidationPrompt(demand string) string {
	return fmt.Sprintf(`Analyze whether the following demand is real and commercially viable:

Demand description:
%s

Return the analysis in exactly this JSON shape:

{
  "isRealDemand": true,
  "score": 75,
  "frequency": "high",
  "painPoint": "strong",
  "paymentWillingness": "high",
  "reasoning": "...",
  "actionPlan": ["step 1 ...", "step 2 ...", "step 3 ...", "step 4 ...", "step 5 ..."]
}

frequency is one of high/medium/low, painPoint one of strong/medium/weak,
paymentWillingness one of high/medium/low. actionPlan lists 5 to 8 concrete,
executable steps: market research, MVP, and user testing for a real demand;
re-evaluation and finding the real pain point for a false one.
Return JSON only, with no explanation around it.`, demand)
}

// FormatHistory renders the conversation history for prompt embedding.
func FormatHistory(history []ChatMessage) string {
	if len(history) == 0 {
		return "(this is the start of the conversation)"
	}
	parts := make([]string, 0, len(history))
	for _, msg := range history {
		label := "User"
		if msg.Role == "assistant" {
			label = "AI"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", label, msg.Content))
	}
	return strings.Join(parts, "\n\n")
}
