package intel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Source produces briefs and dossiers for a named target.
type Source interface {
	Brief(ctx context.Context, name, url string) (Brief, error)
	Dossier(ctx context.Context, name string) (Dossier, error)
}

// Client talks to the brief and dossier endpoints of a horizon server.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type BriefRequest struct {
	CompanyName string `json:"companyName"`
	CompanyURL  string `json:"companyUrl,omitempty"`
}

type DossierRequest struct {
	CompanyName string `json:"companyName"`
}

func (c *Client) post(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("server error: %s", resp.Status)
	}
	return data, nil
}

// Brief fetches and sanitizes a brief. On failure the returned brief is the
// placeholder and the error wraps ErrBriefFailed.
func (c *Client) Brief(ctx context.Context, name, url string) (Brief, error) {
	data, err := c.post(ctx, "/api/brief", BriefRequest{CompanyName: name, CompanyURL: url})
	if err != nil {
		return Sanitize(Brief{}, name), fmt.Errorf("%w: %v", ErrBriefFailed, err)
	}
	b, err := DecodeBrief(data, name)
	if err != nil {
		return b, fmt.Errorf("%w: %v", ErrBriefFailed, err)
	}
	return b, nil
}

// Dossier fetches the deep report. Failures return a not-ready dossier.
func (c *Client) Dossier(ctx context.Context, name string) (Dossier, error) {
	empty := Dossier{Sections: []Section{}, Sources: []string{}}
	data, err := c.post(ctx, "/api/dossier", DossierRequest{CompanyName: name})
	if err != nil {
		return empty, fmt.Errorf("%w: %v", ErrDossierFailed, err)
	}
	var d Dossier
	if err := json.Unmarshal(data, &d); err != nil {
		return empty, fmt.Errorf("%w: %v", ErrDossierFailed, err)
	}
	d.Ready = true
	d.Sections = orEmpty(d.Sections)
	d.Sources = orEmpty(d.Sources)
	return d, nil
}

var _ Source = (*Client)(nil)
