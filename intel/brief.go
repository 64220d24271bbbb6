// Package intel holds the competitive-intelligence layer that drives the
// visual: brief and dossier data, the scripts read back to the voice agent,
// and the Session that turns agent events into visual states.
package intel

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBriefFailed   = errors.New("intel: brief request failed")
	ErrDossierFailed = errors.New("intel: dossier request failed")
)

// Confidence bands.
const (
	BandLow    = "LOW"
	BandMedium = "MEDIUM"
	BandHigh   = "HIGH"
)

type Signal struct {
	Bucket  string `json:"bucket"`
	Content string `json:"content"`
}

type Intent struct {
	Type         string `json:"type"`
	ContextLabel string `json:"context_label"`
}

type Frame struct {
	Sentence     string `json:"sentence"`
	WhatChanged  string `json:"what_changed"`
	WhyItMatters string `json:"why_it_matters"`
}

type Scenarios struct {
	MostLikely          string `json:"most_likely"`
	SecondMostDangerous string `json:"second_most_dangerous"`
}

type Strategy struct {
	RecommendedMove string   `json:"recommended_move"`
	AlternativeMove string   `json:"alternative_move"`
	FlipCondition   string   `json:"flip_condition"`
	Watchlist       []string `json:"watchlist"`
}

type Evidence struct {
	KeySignals []Signal `json:"key_signals"`
}

type Confidence struct {
	Band             string   `json:"band"`
	ResolvingSignals []string `json:"resolving_signals"`
}

// Brief is the fast executive read on one target.
type Brief struct {
	TargetName string     `json:"target_name"`
	Intent     Intent     `json:"intent"`
	Frame      Frame      `json:"frame"`
	Scenarios  Scenarios  `json:"scenarios"`
	Strategy   Strategy   `json:"strategy"`
	Dossier    Evidence   `json:"dossier"`
	Confidence Confidence `json:"confidence"`
}

type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Section struct {
	Title   string   `json:"title"`
	Content []string `json:"content"`
	Metrics []Metric `json:"metrics"`
}

// Dossier is the slow deep-dive report. Ready is false when the fetch
// failed; the sections are empty in that case.
type Dossier struct {
	Ready    bool      `json:"is_ready"`
	Sections []Section `json:"sections"`
	Sources  []string  `json:"sources"`
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Sanitize fills every missing field of b with its placeholder so callers
// can render a brief without nil checks. The target name is upper-cased.
func Sanitize(b Brief, target string) Brief {
	out := Brief{
		TargetName: strings.ToUpper(target),
		Intent: Intent{
			Type:         orDefault(b.Intent.Type, "SITUATIONAL"),
			ContextLabel: orDefault(b.Intent.ContextLabel, "RISK"),
		},
		Frame: Frame{
			Sentence:     orDefault(b.Frame.Sentence, "Analyzing strategic context..."),
			WhatChanged:  orDefault(b.Frame.WhatChanged, "Data acquisition in progress."),
			WhyItMatters: orDefault(b.Frame.WhyItMatters, "Impact assessment pending."),
		},
		Scenarios: Scenarios{
			MostLikely:          orDefault(b.Scenarios.MostLikely, "Calculating baseline trajectory..."),
			SecondMostDangerous: orDefault(b.Scenarios.SecondMostDangerous, "Scanning for tail risks..."),
		},
		Strategy: Strategy{
			RecommendedMove: orDefault(b.Strategy.RecommendedMove, "Stand by for recommendation."),
			AlternativeMove: orDefault(b.Strategy.AlternativeMove, "Formulating backup..."),
			FlipCondition:   orDefault(b.Strategy.FlipCondition, "Defining pivot points..."),
			Watchlist:       orEmpty(b.Strategy.Watchlist),
		},
		Dossier: Evidence{
			KeySignals: orEmpty(b.Dossier.KeySignals),
		},
		Confidence: Confidence{
			Band:             normalizeBand(b.Confidence.Band),
			ResolvingSignals: orEmpty(b.Confidence.ResolvingSignals),
		},
	}
	return out
}

func normalizeBand(band string) string {
	switch b := strings.ToUpper(strings.TrimSpace(band)); b {
	case BandLow, BandMedium, BandHigh:
		return b
	default:
		return BandMedium
	}
}

// DecodeBrief parses model output into a sanitized brief. Malformed input
// still yields a placeholder brief alongside the error.
func DecodeBrief(data []byte, target string) (Brief, error) {
	var raw Brief
	if err := json.Unmarshal(data, &raw); err != nil {
		return Sanitize(Brief{}, target), fmt.Errorf("intel: decode brief: %w", err)
	}
	return Sanitize(raw, target), nil
}

// MaxSources caps the merged dossier source list.
const MaxSources = 8

// MergeSources puts grounding URIs first, then the model's own list, with
// duplicates and non-http entries dropped, capped at limit.
func MergeSources(web, listed []string, limit int) []string {
	seen := make(map[string]struct{}, len(web)+len(listed))
	out := make([]string, 0, limit)
	add := func(src string, requireHTTP bool) {
		if len(out) >= limit || src == "" {
			return
		}
		if requireHTTP && !strings.HasPrefix(src, "http") {
			return
		}
		if _, dup := seen[src]; dup {
			return
		}
		seen[src] = struct{}{}
		out = append(out, src)
	}
	for _, s := range web {
		add(s, true)
	}
	for _, s := range listed {
		add(s, false)
	}
	return out
}
