package intel

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gekko3d/horizon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPoster struct {
	mu     sync.Mutex
	states []horizon.VisualState
	online []bool
}

func (p *recordingPoster) Post(s horizon.VisualState) {
	p.mu.Lock()
	p.states = append(p.states, s)
	p.mu.Unlock()
}

func (p *recordingPoster) PostOnline(online bool) {
	p.mu.Lock()
	p.online = append(p.online, online)
	p.mu.Unlock()
}

func (p *recordingPoster) posted() []horizon.VisualState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]horizon.VisualState(nil), p.states...)
}

type fakeSource struct {
	brief      Brief
	briefErr   error
	dossier    Dossier
	dossierErr error

	// release, when set, holds the dossier fetch until closed. gate does the
	// same for the brief.
	release chan struct{}
	gate    chan struct{}
	calls   []string
	mu      sync.Mutex
}

func (f *fakeSource) Brief(ctx context.Context, name, url string) (Brief, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "brief:"+name)
	f.mu.Unlock()
	if f.gate != nil {
		<-f.gate
	}
	if f.briefErr != nil {
		return Sanitize(Brief{}, name), f.briefErr
	}
	return Sanitize(f.brief, name), nil
}

func (f *fakeSource) Dossier(ctx context.Context, name string) (Dossier, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return Dossier{}, ctx.Err()
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, "dossier:"+name)
	f.mu.Unlock()
	return f.dossier, f.dossierErr
}

func newTestSession(src Source) (*Session, *recordingPoster) {
	p := &recordingPoster{}
	return NewSession(src, p, nil), p
}

func (f *fakeSource) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestSessionLifecycle(t *testing.T) {
	s, p := newTestSession(&fakeSource{})

	s.Start()
	s.OnConnect()
	s.OnModeChange("listening")
	s.OnModeChange("speaking")
	s.OnModeChange("thinking-out-loud")
	s.OnDisconnect()

	assert.Equal(t, []horizon.VisualState{
		horizon.StateComputing,
		horizon.StateIdle,
		horizon.StateListening,
		horizon.StateSpeaking,
		horizon.StateIdle,
	}, p.posted())
	assert.Equal(t, []bool{true, false}, p.online)
	assert.False(t, s.Snapshot().Online)
}

func TestSessionScanSuccess(t *testing.T) {
	src := &fakeSource{
		brief:   sampleBrief(),
		dossier: Dossier{Ready: true, Sections: []Section{{Title: "EXECUTIVE SUMMARY"}}},
	}
	s, p := newTestSession(src)
	s.OnConnect()

	script := s.ScanCompetitor(context.Background(), "acme", "")
	s.Wait()

	assert.True(t, strings.HasPrefix(script, "FRAME: "))
	assert.Equal(t, []horizon.VisualState{
		horizon.StateIdle,
		horizon.StateComputing,
		horizon.StateSpeaking,
	}, p.posted())

	snap := s.Snapshot()
	assert.Equal(t, "SPEAKING", snap.State)
	assert.Equal(t, "ACME", snap.Target)
	assert.True(t, snap.HasBrief)
	assert.True(t, snap.DossierReady)
	assert.Empty(t, snap.Scanning)

	assert.True(t, strings.HasPrefix(s.ConsultDossier("evidence"), "EVIDENCE RETRIEVED"))
}

func TestSessionScanFailure(t *testing.T) {
	src := &fakeSource{briefErr: errors.New("upstream 500")}
	s, p := newTestSession(src)

	script := s.ScanCompetitor(context.Background(), "acme", "")
	s.Wait()

	assert.Equal(t, AlertScript(src.briefErr), script)
	assert.Equal(t, []horizon.VisualState{horizon.StateComputing, horizon.StateIdle}, p.posted())
	assert.False(t, s.Snapshot().HasBrief)
	assert.Equal(t, NoDossier, s.ConsultDossier("risk"))
	assert.NotContains(t, src.calls, "dossier:acme", "no dossier fetch after a failed brief")
}

func TestSessionWithoutSource(t *testing.T) {
	s, _ := newTestSession(nil)
	assert.True(t, strings.HasPrefix(s.ScanCompetitor(context.Background(), "acme", ""), "SYSTEM ALERT"))
	assert.Equal(t, horizon.StateIdle, s.State())
}

func TestSessionDisconnectDropsLateDossier(t *testing.T) {
	src := &fakeSource{
		brief:   sampleBrief(),
		dossier: Dossier{Ready: true},
		release: make(chan struct{}),
	}
	s, _ := newTestSession(src)
	s.OnConnect()
	s.ScanCompetitor(context.Background(), "acme", "")

	s.OnDisconnect()
	close(src.release)
	s.Wait()

	_, ok := s.Dossier()
	assert.False(t, ok, "dossier from the previous conversation must be discarded")
	_, ok = s.Brief()
	assert.False(t, ok)
}

func TestSessionErrorClears(t *testing.T) {
	s, _ := newTestSession(&fakeSource{brief: sampleBrief(), dossier: Dossier{Ready: true}})
	s.ScanCompetitor(context.Background(), "acme", "")
	s.Wait()

	s.OnError(errors.New("socket closed"))

	snap := s.Snapshot()
	assert.Equal(t, "IDLE", snap.State)
	assert.False(t, snap.HasBrief)
	assert.Equal(t, "Connection Error: socket closed", snap.LastError)
}

func TestSessionReport(t *testing.T) {
	s, _ := newTestSession(&fakeSource{brief: sampleBrief(), dossier: Dossier{Ready: true}})

	_, err := s.Report(fixedNow)
	require.ErrorIs(t, err, ErrNoBrief)

	s.ScanCompetitor(context.Background(), "acme", "")
	s.Wait()
	html, err := s.Report(fixedNow)
	require.NoError(t, err)
	assert.Contains(t, html, "ACME")
}

func TestSessionCloseCancelsFetch(t *testing.T) {
	src := &fakeSource{brief: sampleBrief(), release: make(chan struct{})}
	s, _ := newTestSession(src)
	s.ScanCompetitor(context.Background(), "acme", "")

	s.Close()

	d, ok := s.Dossier()
	require.True(t, ok)
	assert.False(t, d.Ready)
}

func TestSessionStaleScanFailureKeepsResetState(t *testing.T) {
	src := &fakeSource{briefErr: errors.New("upstream 502"), gate: make(chan struct{})}
	s, p := newTestSession(src)

	done := make(chan string, 1)
	go func() { done <- s.ScanCompetitor(context.Background(), "Acme", "") }()
	require.Eventually(t, func() bool { return s.Snapshot().Scanning != "" }, time.Second, time.Millisecond)

	s.OnDisconnect()
	posted := len(p.posted())
	close(src.gate)

	script := <-done
	assert.Contains(t, script, "SYSTEM ALERT")
	assert.Len(t, p.posted(), posted, "a failure from before the reset must not post")
	assert.Equal(t, horizon.StateIdle, s.State())
}

func TestSessionScanAfterCloseStartsNoFetch(t *testing.T) {
	src := &fakeSource{brief: sampleBrief(), dossier: Dossier{Ready: true}}
	s, _ := newTestSession(src)
	s.Close()

	script := s.ScanCompetitor(context.Background(), "Acme", "")
	assert.NotEmpty(t, script)
	s.Wait()

	for _, c := range src.called() {
		assert.False(t, strings.HasPrefix(c, "dossier:"), "no dossier fetch after close, got %v", src.called())
	}
	_, ok := s.Dossier()
	assert.False(t, ok)
}
