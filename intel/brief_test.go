package intel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBrief() Brief {
	return Brief{
		TargetName: "ACME",
		Intent:     Intent{Type: "COMPETITIVE", ContextLabel: "SAAS"},
		Frame: Frame{
			Sentence:     "Acme is pivoting to usage pricing.",
			WhatChanged:  "Seat pricing was dropped.",
			WhyItMatters: "Margins compress near term.",
		},
		Scenarios: Scenarios{MostLikely: "Slow churn", SecondMostDangerous: "Price war"},
		Strategy: Strategy{
			RecommendedMove: "Bundle analytics",
			AlternativeMove: "Lock annual contracts",
			FlipCondition:   "Acme raises a new round",
			Watchlist:       []string{"pricing page", "hiring", "churn"},
		},
		Dossier: Evidence{KeySignals: []Signal{
			{Bucket: "STRUCTURAL_FRAGILITY", Content: "Burn up 40%"},
			{Bucket: "NARRATIVE_TRAJECTORY", Content: "AI-first messaging"},
		}},
		Confidence: Confidence{Band: BandMedium, ResolvingSignals: []string{"Q3 revenue", "CFO exit"}},
	}
}

func TestSanitizeFillsPlaceholders(t *testing.T) {
	b := Sanitize(Brief{}, "acme corp")

	assert.Equal(t, "ACME CORP", b.TargetName)
	assert.Equal(t, "SITUATIONAL", b.Intent.Type)
	assert.Equal(t, "RISK", b.Intent.ContextLabel)
	assert.Equal(t, "Analyzing strategic context...", b.Frame.Sentence)
	assert.Equal(t, "Data acquisition in progress.", b.Frame.WhatChanged)
	assert.Equal(t, "Stand by for recommendation.", b.Strategy.RecommendedMove)
	assert.Equal(t, BandMedium, b.Confidence.Band)
	assert.NotNil(t, b.Strategy.Watchlist)
	assert.NotNil(t, b.Dossier.KeySignals)
	assert.NotNil(t, b.Confidence.ResolvingSignals)
}

func TestSanitizeKeepsProvidedFields(t *testing.T) {
	in := sampleBrief()
	in.TargetName = "ignored"
	b := Sanitize(in, "Acme")

	assert.Equal(t, "ACME", b.TargetName, "target name always comes from the request")
	assert.Equal(t, in.Frame, b.Frame)
	assert.Equal(t, in.Strategy, b.Strategy)
	assert.Len(t, b.Dossier.KeySignals, 2)
}

func TestSanitizeBand(t *testing.T) {
	for in, want := range map[string]string{
		"high":    BandHigh,
		" LOW ":   BandLow,
		"MEDIUM":  BandMedium,
		"UNCLEAR": BandMedium,
		"":        BandMedium,
	} {
		b := Sanitize(Brief{Confidence: Confidence{Band: in}}, "x")
		assert.Equal(t, want, b.Confidence.Band, "band %q", in)
	}
}

func TestDecodeBrief(t *testing.T) {
	b, err := DecodeBrief([]byte(`{"frame":{"sentence":"S"},"confidence":{"band":"HIGH","resolving_signals":[]}}`), "acme")
	require.NoError(t, err)
	assert.Equal(t, "S", b.Frame.Sentence)
	assert.Equal(t, BandHigh, b.Confidence.Band)
	assert.Equal(t, "Impact assessment pending.", b.Frame.WhyItMatters)
}

func TestDecodeBriefMalformed(t *testing.T) {
	b, err := DecodeBrief([]byte(`{not json`), "acme")
	require.Error(t, err)
	assert.Equal(t, "ACME", b.TargetName)
	assert.Equal(t, "SITUATIONAL", b.Intent.Type)
}

func TestMergeSources(t *testing.T) {
	web := []string{"https://a.example", "vertex://internal", "https://b.example", "https://a.example"}
	listed := []string{"https://b.example", "https://c.example", "report.pdf"}

	got := MergeSources(web, listed, MaxSources)
	assert.Equal(t, []string{"https://a.example", "https://b.example", "https://c.example", "report.pdf"}, got)
}

func TestMergeSourcesCap(t *testing.T) {
	var web []string
	for _, c := range "abcdefghij" {
		web = append(web, "https://"+string(c)+".example")
	}
	got := MergeSources(web, []string{"https://z.example"}, MaxSources)
	assert.Len(t, got, MaxSources)
	assert.Equal(t, "https://a.example", got[0])
	assert.NotContains(t, got, "https://z.example")
}
