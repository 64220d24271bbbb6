package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gekko3d/horizon/intel"
	"github.com/gekko3d/horizon/internal/config"
	"google.golang.org/genai"
)

var ErrMissingAPIKey = errors.New("server: missing API key")

// Generator produces raw brief JSON and merged dossiers. Gemini is the
// production implementation; tests substitute fakes.
type Generator interface {
	GenerateBrief(ctx context.Context, name, url string) ([]byte, error)
	GenerateDossier(ctx context.Context, name string) (intel.Dossier, error)
}

// Gemini generates through the Gemini API with search grounding and JSON
// response schemas.
type Gemini struct {
	client       *genai.Client
	briefModel   string
	dossierModel string
}

func NewGemini(ctx context.Context, cfg config.ServerConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("server: gemini client: %w", err)
	}
	return &Gemini{
		client:       client,
		briefModel:   cfg.BriefModel,
		dossierModel: cfg.DossierModel,
	}, nil
}

func searchTools() []*genai.Tool {
	return []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
}

func (g *Gemini) GenerateBrief(ctx context.Context, name, url string) ([]byte, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.briefModel, genai.Text(BriefPrompt(name, url)), &genai.GenerateContentConfig{
		Tools:             searchTools(),
		SystemInstruction: genai.NewContentFromText(briefSystemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    briefSchema(),
	})
	if err != nil {
		return nil, err
	}
	return []byte(resp.Text()), nil
}

func (g *Gemini) GenerateDossier(ctx context.Context, name string) (intel.Dossier, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.dossierModel, genai.Text(DossierPrompt(name)), &genai.GenerateContentConfig{
		Tools:            searchTools(),
		ThinkingConfig:   &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](dossierThinkingBudget)},
		ResponseMIMEType: "application/json",
		ResponseSchema:   dossierSchema(),
	})
	if err != nil {
		return intel.Dossier{}, err
	}
	return decodeDossier(resp.Text(), groundingURIs(resp))
}

// decodeDossier parses the model's dossier and merges grounding URIs ahead
// of the sources the model listed itself.
func decodeDossier(text string, web []string) (intel.Dossier, error) {
	if text == "" {
		text = "{}"
	}
	var d intel.Dossier
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return intel.Dossier{}, fmt.Errorf("server: decode dossier: %w", err)
	}
	if d.Sections == nil {
		d.Sections = []intel.Section{}
	}
	d.Sources = intel.MergeSources(web, d.Sources, intel.MaxSources)
	d.Ready = true
	return d, nil
}

func groundingURIs(resp *genai.GenerateContentResponse) []string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var uris []string
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk != nil && chunk.Web != nil {
			uris = append(uris, chunk.Web.URI)
		}
	}
	return uris
}

var _ Generator = (*Gemini)(nil)
