package intel

import (
	"fmt"
	"strings"
)

// NoDossier is returned by Consult before any target has been scanned.
const NoDossier = "No active dossier. Please scan a target first."

// FormatScript renders a brief as the text the voice agent reads aloud.
func FormatScript(b Brief) string {
	watch := b.Strategy.Watchlist
	if len(watch) > 2 {
		watch = watch[:2]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "FRAME: %s\n\n", b.Frame.Sentence)
	fmt.Fprintf(&sb, "SITUATION: %s %s\n\n", b.Frame.WhatChanged, b.Frame.WhyItMatters)
	sb.WriteString("SCENARIOS:\n")
	fmt.Fprintf(&sb, "Base Case: %s\n", b.Scenarios.MostLikely)
	fmt.Fprintf(&sb, "Risk Case: %s\n\n", b.Scenarios.SecondMostDangerous)
	sb.WriteString("DIRECTIVE:\n")
	fmt.Fprintf(&sb, "Recommended Move: %s\n", b.Strategy.RecommendedMove)
	fmt.Fprintf(&sb, "Backup Move: %s\n\n", b.Strategy.AlternativeMove)
	fmt.Fprintf(&sb, "WATCHLIST: %s.\n", strings.Join(watch, ", "))
	fmt.Fprintf(&sb, "FLIP CONDITION: I will pivot if %s.\n\n", b.Strategy.FlipCondition)
	fmt.Fprintf(&sb, "CONFIDENCE: %s.", b.Confidence.Band)
	if b.Confidence.Band != BandHigh {
		fmt.Fprintf(&sb, "\nResolving signals needed: %s", strings.Join(b.Confidence.ResolvingSignals, ", "))
	}
	return sb.String()
}

// AlertScript is spoken when a scan fails, so the agent reports the failure
// instead of inventing an answer.
func AlertScript(err error) string {
	msg := "Unknown Server Error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return fmt.Sprintf("SYSTEM ALERT: Intelligence acquisition failed. Error: %s. Check API Keys.", msg)
}

// Consult answers a follow-up question from the active brief using keyword
// matching on topic. A nil brief yields NoDossier.
func Consult(b *Brief, topic string) string {
	if b == nil {
		return NoDossier
	}
	q := strings.ToLower(topic)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(q, w) {
				return true
			}
		}
		return false
	}

	switch {
	case has("evidence", "proof", "signal"):
		lines := make([]string, len(b.Dossier.KeySignals))
		for i, s := range b.Dossier.KeySignals {
			lines[i] = s.Bucket + ": " + s.Content
		}
		return "EVIDENCE RETRIEVED:\n" + strings.Join(lines, "\n")
	case has("risk", "fail", "bad"):
		return fmt.Sprintf("RISK DETAIL: %s. WATCHLIST: %s",
			b.Scenarios.SecondMostDangerous, strings.Join(b.Strategy.Watchlist, ", "))
	case has("move", "strategy", "recommend"):
		return fmt.Sprintf("STRATEGY DETAIL: Recommended: %s. Alternative: %s. Condition: %s",
			b.Strategy.RecommendedMove, b.Strategy.AlternativeMove, b.Strategy.FlipCondition)
	default:
		return fmt.Sprintf("DOSSIER SUMMARY: Frame: %s. Evidence count: %d. Request specific evidence or risks.",
			b.Frame.Sentence, len(b.Dossier.KeySignals))
	}
}
