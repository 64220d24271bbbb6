// Package server exposes the intelligence endpoints and the voice-event
// websocket that drives a Session.
package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gekko3d/horizon"
	"github.com/gekko3d/horizon/intel"
	"github.com/gekko3d/horizon/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Sink receives voice-agent events. *intel.Session satisfies it.
type Sink interface {
	Start()
	OnConnect()
	OnDisconnect()
	OnError(err error)
	OnModeChange(mode string)
	ScanCompetitor(ctx context.Context, name, url string) string
	ConsultDossier(topic string) string
	Snapshot() intel.Snapshot
	Report(now time.Time) (string, error)
}

type Server struct {
	app    *fiber.App
	cfg    config.ServerConfig
	gen    Generator
	sink   Sink
	logger horizon.Logger

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]*sync.Mutex
}

// New builds the fiber app. gen may be nil, in which case the generation
// endpoints answer 500 as when no API key is configured. sink may be nil
// for a server without a voice bridge.
func New(cfg *config.Config, gen Generator, sink Sink, logger horizon.Logger) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Server{
		cfg:     cfg.Server,
		gen:     gen,
		sink:    sink,
		logger:  horizon.OrNop(logger),
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Horizon",
		DisableStartupMessage: true,
		ReadTimeout:           cfg.Server.Timeout,
		WriteTimeout:          cfg.Server.Timeout,
	})

	api := app.Group("/api")
	api.Post("/brief", s.handleBrief)
	api.Post("/dossier", s.handleDossier)
	api.Get("/state", s.handleState)
	api.Get("/report", s.handleReport)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen() error {
	s.logger.Infof("server listening on %s", s.cfg.Listen)
	return s.app.Listen(s.cfg.Listen)
}

// Serve runs on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Infof("server listening on %s", ln.Addr())
	return s.app.Listener(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	ctx := c.UserContext()
	if s.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, s.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// Direct adapts a Generator to intel.Source so an in-process session can
// skip the HTTP round trip.
func Direct(gen Generator) intel.Source { return directSource{gen: gen} }

type directSource struct{ gen Generator }

func (d directSource) Brief(ctx context.Context, name, url string) (intel.Brief, error) {
	if d.gen == nil {
		return intel.Sanitize(intel.Brief{}, name), errors.Join(intel.ErrBriefFailed, ErrMissingAPIKey)
	}
	raw, err := d.gen.GenerateBrief(ctx, name, url)
	if err != nil {
		return intel.Sanitize(intel.Brief{}, name), errors.Join(intel.ErrBriefFailed, err)
	}
	return intel.DecodeBrief(raw, name)
}

func (d directSource) Dossier(ctx context.Context, name string) (intel.Dossier, error) {
	empty := intel.Dossier{Sections: []intel.Section{}, Sources: []string{}}
	if d.gen == nil {
		return empty, errors.Join(intel.ErrDossierFailed, ErrMissingAPIKey)
	}
	dossier, err := d.gen.GenerateDossier(ctx, name)
	if err != nil {
		return empty, errors.Join(intel.ErrDossierFailed, err)
	}
	return dossier, nil
}

func contextWithTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(context.Background(), d)
	}
	return context.WithCancel(context.Background())
}
