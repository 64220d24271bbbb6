package server

import (
	"fmt"

	"google.golang.org/genai"
)

const dossierThinkingBudget = 1024

const briefSystemInstruction = `# ROLE: Judgment Demonstration System (v1)
# GOAL: Deliver disciplined judgment under uncertainty for operator-level executives.

HARD RULES:
1. Never output feature checklists or generic SWOTs.
2. ALWAYS take a stance: define the most_likely path, the second_most_dangerous path, and a recommended_move.
3. ALWAYS include a flip_condition: one observable event that would change the recommendation.
4. If clarity is impossible, state "UNCLEAR" and list resolving_signals. Do not fake certainty.
5. Separate domains (Narrative vs Product vs Capital). Prevent category errors.

# CALIBRATION (STRATEGIC CONVICTION):
- HIGH: strong, corroborating search results (numbers or quotes) support a definitive thesis.
- MEDIUM: data exists but signals conflict or the financial picture has gaps.
- LOW: search returned generic marketing or no hard data.
HIGH means certainty of evidence, not certainty of the future.

# INTELLIGENCE BUCKETS:
1. INCENTIVES_POWER (investor pressure, survival, politics)
2. STRUCTURAL_FRAGILITY (unit economics, dependencies, chokepoints)
3. NARRATIVE_TRAJECTORY (language shifts, framing, trust)
4. TEMPORAL_DYNAMICS (windows, lag, adoption curves)
5. CROSS_DOMAIN_PATTERNS (historical structures, analogies)
`

// BriefPrompt is the user prompt for the fast brief.
func BriefPrompt(name, url string) string {
	if url == "" {
		url = "Search for it"
	}
	return fmt.Sprintf(`Analyze the following target for an EXECUTIVE BRIEF.
Target Name: %s
Target URL: %s

If the URL is missing, infer the most likely major company with this name.
USE GOOGLE SEARCH to find the latest pricing, recent news, and strategic shifts.

CRITICAL INSTRUCTIONS:
1. Apply the Judgment Demonstration System v1 rules. Be ruthless.
2. RETURN VALID JSON WITH ALL FIELDS FILLED, including frame.what_changed.
3. The recommended move MUST be a strategic, 15-20 word executive counter-measure.
   Do not give investment advice. Banned words: Accumulate, Short, Long, Hedge, Puts, Calls, Stock.
4. Do not return placeholders like "Analyzing..." or "Data acquisition...".
5. Keep the frame sentence to one or two sentences.

Include specific signals in the dossier bucket based on the search results.`, name, url)
}

// DossierPrompt is the user prompt for the deep dossier.
func DossierPrompt(name string) string {
	return fmt.Sprintf(`GENERATE A DEEP-DIVE STRATEGIC AUDIT FOR: %s

ROLE: Senior Private Equity Analyst (Red Team).
GOAL: Find the existential threat or the hidden edge.

RESEARCH RULES:
1. USE GOOGLE SEARCH. Do not hallucinate.
2. FIND HARD DATA: revenue, burn rate, churn, lawsuits, executive departures.
3. NO GENERIC FLUFF. Quantify every claim.
4. CITATIONS ARE MANDATORY.

Structure the report into these exact sections:
1. EXECUTIVE SUMMARY: the bottom line judgment.
2. MARKET FRICTION: the structural headwinds on growth.
3. COMPETITIVE LETHALITY: who is actually beating them and how.
4. OPERATIONAL REALITY: financial health, leadership turmoil, product velocity.
5. THE "ALPHA": one insight the market is missing.`, name)
}

func str() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }

func strList() *genai.Schema { return &genai.Schema{Type: genai.TypeArray, Items: str()} }

func object(props map[string]*genai.Schema, required ...string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

func briefSchema() *genai.Schema {
	return object(map[string]*genai.Schema{
		"intent": object(map[string]*genai.Schema{
			"type":          str(),
			"context_label": str(),
		}, "type", "context_label"),
		// frame is left without required fields so a partial frame still survives.
		"frame": object(map[string]*genai.Schema{
			"sentence":       str(),
			"what_changed":   str(),
			"why_it_matters": str(),
		}),
		"scenarios": object(map[string]*genai.Schema{
			"most_likely":           str(),
			"second_most_dangerous": str(),
		}, "most_likely", "second_most_dangerous"),
		"strategy": object(map[string]*genai.Schema{
			"recommended_move": str(),
			"alternative_move": str(),
			"flip_condition":   str(),
			"watchlist":        strList(),
		}, "recommended_move", "alternative_move", "flip_condition", "watchlist"),
		"dossier": object(map[string]*genai.Schema{
			"key_signals": {
				Type: genai.TypeArray,
				Items: object(map[string]*genai.Schema{
					"bucket":  str(),
					"content": str(),
				}, "bucket", "content"),
			},
		}, "key_signals"),
		"confidence": object(map[string]*genai.Schema{
			"band":              {Type: genai.TypeString, Enum: []string{"LOW", "MEDIUM", "HIGH"}},
			"resolving_signals": strList(),
		}, "band", "resolving_signals"),
	})
}

func dossierSchema() *genai.Schema {
	return object(map[string]*genai.Schema{
		"sections": {
			Type: genai.TypeArray,
			Items: object(map[string]*genai.Schema{
				"title": str(),
				"content": {
					Type:        genai.TypeArray,
					Items:       str(),
					Description: "3-4 detailed paragraphs per section.",
				},
				"metrics": {
					Type: genai.TypeArray,
					Items: object(map[string]*genai.Schema{
						"label": str(),
						"value": str(),
					}),
				},
			}, "title", "content", "metrics"),
		},
		"sources": strList(),
	})
}
