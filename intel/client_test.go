package intel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientBrief(t *testing.T) {
	var got BriefRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/brief", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"frame":{"sentence":"Frame"},"confidence":{"band":"LOW"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	b, err := c.Brief(context.Background(), "acme", "https://acme.example")
	require.NoError(t, err)

	assert.Equal(t, BriefRequest{CompanyName: "acme", CompanyURL: "https://acme.example"}, got)
	assert.Equal(t, "ACME", b.TargetName)
	assert.Equal(t, "Frame", b.Frame.Sentence)
	assert.Equal(t, BandLow, b.Confidence.Band)
}

func TestClientBriefServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Server Configuration Error: Missing API Key"}`))
	}))
	defer srv.Close()

	b, err := NewClient(srv.URL, time.Second).Brief(context.Background(), "acme", "")
	require.ErrorIs(t, err, ErrBriefFailed)
	assert.Contains(t, err.Error(), "Missing API Key")
	assert.Equal(t, "SITUATIONAL", b.Intent.Type, "failure still yields a placeholder brief")
}

func TestClientDossier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/dossier", r.URL.Path)
		_, _ = w.Write([]byte(`{"sections":[{"title":"EXECUTIVE SUMMARY","content":["x"],"metrics":[]}],"sources":["https://a.example"]}`))
	}))
	defer srv.Close()

	d, err := NewClient(srv.URL, time.Second).Dossier(context.Background(), "acme")
	require.NoError(t, err)
	assert.True(t, d.Ready)
	require.Len(t, d.Sections, 1)
	assert.Equal(t, []string{"https://a.example"}, d.Sources)
}

func TestClientDossierFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	d, err := NewClient(srv.URL, time.Second).Dossier(context.Background(), "acme")
	require.ErrorIs(t, err, ErrDossierFailed)
	assert.False(t, d.Ready)
	assert.Empty(t, d.Sections)
	assert.NotNil(t, d.Sources)
}
