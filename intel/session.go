package intel

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gekko3d/horizon"
	"github.com/google/uuid"
)

var ErrNoBrief = errors.New("intel: no active brief")

// Agent modes reported by the voice layer.
const (
	ModeSpeaking  = "speaking"
	ModeListening = "listening"
)

// Poster receives visual updates. *horizon.Controller satisfies it.
type Poster interface {
	Post(s horizon.VisualState)
	PostOnline(online bool)
}

type nopPoster struct{}

func (nopPoster) Post(horizon.VisualState) {}
func (nopPoster) PostOnline(bool)          {}

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	ID           string `json:"session_id"`
	State        string `json:"state"`
	Online       bool   `json:"online"`
	Scanning     string `json:"scanning,omitempty"`
	Target       string `json:"target,omitempty"`
	HasBrief     bool   `json:"has_brief"`
	DossierReady bool   `json:"dossier_ready"`
	LastError    string `json:"last_error,omitempty"`
}

// Session bridges one voice-agent conversation to the visual. Agent
// lifecycle events and tool calls come in, state transitions go out through
// the Poster. All methods are safe for concurrent use.
type Session struct {
	id     uuid.UUID
	source Source
	poster Poster
	logger horizon.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	state    horizon.VisualState
	online   bool
	brief    *Brief
	dossier  *Dossier
	scanning string
	lastErr  string

	// epoch changes whenever the session is reset, so a dossier fetched for
	// an earlier conversation is dropped.
	epoch uint64

	// closed stops new background fetches once Close has begun waiting.
	closed bool
}

func NewSession(source Source, poster Poster, logger horizon.Logger) *Session {
	if poster == nil {
		poster = nopPoster{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:     uuid.New(),
		source: source,
		poster: poster,
		logger: horizon.OrNop(logger),
		ctx:    ctx,
		cancel: cancel,
		state:  horizon.StateIdle,
	}
}

func (s *Session) ID() uuid.UUID { return s.id }

// setState must be called with mu held.
func (s *Session) setState(st horizon.VisualState) {
	s.state = st
	s.poster.Post(st)
}

// clear must be called with mu held.
func (s *Session) clear() {
	s.brief = nil
	s.dossier = nil
	s.scanning = ""
	s.epoch++
}

// Start begins a new conversation: prior results are cleared and the visual
// shows the thinking state until the agent connects.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	s.lastErr = ""
	s.setState(horizon.ParseVisualState("THINKING"))
	s.logger.Infof("session %s: starting", s.id)
}

func (s *Session) OnConnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = true
	s.poster.PostOnline(true)
	s.setState(horizon.StateIdle)
	s.logger.Infof("session %s: agent connected", s.id)
}

func (s *Session) OnDisconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = false
	s.poster.PostOnline(false)
	s.setState(horizon.StateIdle)
	s.clear()
	s.logger.Infof("session %s: agent disconnected", s.id)
}

func (s *Session) OnError(err error) {
	msg := "Unknown"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = "Connection Error: " + msg
	s.setState(horizon.StateIdle)
	s.clear()
	s.logger.Warnf("session %s: agent error: %s", s.id, msg)
}

// OnModeChange follows the agent's turn taking. Unknown modes are ignored.
func (s *Session) OnModeChange(mode string) {
	var st horizon.VisualState
	switch strings.ToLower(mode) {
	case ModeSpeaking:
		st = horizon.StateSpeaking
	case ModeListening:
		st = horizon.StateListening
	default:
		s.logger.Debugf("session %s: ignoring mode %q", s.id, mode)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setState(st)
}

// ScanCompetitor is the scan tool. It shows the analyzing state while the
// brief is produced, switches to speaking with the script on success, and
// starts the dossier in the background. A failed brief returns the alert
// script and drops back to idle.
func (s *Session) ScanCompetitor(ctx context.Context, name, url string) string {
	call := uuid.New()
	s.mu.Lock()
	s.scanning = strings.ToUpper(name)
	s.dossier = nil
	s.setState(horizon.ParseVisualState("ANALYZING"))
	epoch := s.epoch
	s.mu.Unlock()
	s.logger.Infof("session %s: tool scan_competitor %s target=%q", s.id, call, name)

	if s.source == nil {
		return s.scanFailed(call, epoch, errors.New("no intelligence source configured"))
	}
	b, err := s.source.Brief(ctx, name, url)
	if err != nil {
		return s.scanFailed(call, epoch, err)
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		s.logger.Debugf("session %s: discarding brief %s from a reset session", s.id, call)
		return FormatScript(b)
	}
	s.brief = &b
	s.scanning = ""
	s.setState(horizon.StateSpeaking)
	s.fetchDossier(name, epoch)
	s.mu.Unlock()
	return FormatScript(b)
}

// scanFailed leaves the visual alone when the session was reset during the
// scan, since the reset already chose the state.
func (s *Session) scanFailed(call uuid.UUID, epoch uint64, err error) string {
	s.mu.Lock()
	if s.epoch == epoch {
		s.scanning = ""
		s.setState(horizon.StateIdle)
	}
	s.mu.Unlock()
	s.logger.Warnf("session %s: scan %s failed: %v", s.id, call, err)
	return AlertScript(err)
}

// fetchDossier must be called with mu held. It does nothing after Close.
func (s *Session) fetchDossier(name string, epoch uint64) {
	if s.closed {
		s.logger.Debugf("session %s: closed, skipping dossier for %q", s.id, name)
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		d, err := s.source.Dossier(s.ctx, name)
		if err != nil {
			s.logger.Warnf("session %s: dossier for %q: %v", s.id, name, err)
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.epoch != epoch {
			return
		}
		s.dossier = &d
		if d.Ready {
			s.logger.Infof("session %s: dossier ready for %q (%d sections)", s.id, name, len(d.Sections))
		}
	}()
}

// ConsultDossier is the follow-up tool answering from the active brief.
func (s *Session) ConsultDossier(topic string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Debugf("session %s: tool consult_dossier topic=%q", s.id, topic)
	return Consult(s.brief, topic)
}

func (s *Session) State() horizon.VisualState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Brief() (Brief, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.brief == nil {
		return Brief{}, false
	}
	return *s.brief, true
}

func (s *Session) Dossier() (Dossier, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dossier == nil {
		return Dossier{}, false
	}
	return *s.dossier, true
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:        s.id.String(),
		State:     s.state.String(),
		Online:    s.online,
		Scanning:  s.scanning,
		HasBrief:  s.brief != nil,
		LastError: s.lastErr,
	}
	if s.brief != nil {
		snap.Target = s.brief.TargetName
	}
	if s.dossier != nil {
		snap.DossierReady = s.dossier.Ready
	}
	return snap
}

// Report renders the HTML report for the active brief and whatever dossier
// has arrived so far.
func (s *Session) Report(now time.Time) (string, error) {
	b, ok := s.Brief()
	if !ok {
		return "", ErrNoBrief
	}
	d, _ := s.Dossier()
	return RenderReport(b, d, now)
}

// Wait blocks until background dossier fetches finish.
func (s *Session) Wait() { s.wg.Wait() }

// Close cancels background fetches and waits for them. Later scans still
// answer but start no fetch.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}
