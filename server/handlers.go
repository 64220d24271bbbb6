package server

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gekko3d/horizon/intel"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func (s *Server) handleBrief(c *fiber.Ctx) error {
	var req intel.BriefRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.CompanyName) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "companyName is required")
	}
	if s.gen == nil {
		s.logger.Errorf("brief: missing API key")
		return errorJSON(c, fiber.StatusInternalServerError, "Server Configuration Error: Missing API Key")
	}

	s.logger.Infof("[Brief] Analyzing: %s", req.CompanyName)
	ctx, cancel := s.requestContext(c)
	defer cancel()
	raw, err := s.gen.GenerateBrief(ctx, req.CompanyName, req.CompanyURL)
	if err != nil {
		s.logger.Errorf("brief %q: %v", req.CompanyName, err)
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	s.logger.Infof("[Brief] Response generated for %s", req.CompanyName)
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(raw)
}

func (s *Server) handleDossier(c *fiber.Ctx) error {
	var req intel.DossierRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.CompanyName) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "companyName is required")
	}
	if s.gen == nil {
		s.logger.Errorf("dossier: missing API key")
		return errorJSON(c, fiber.StatusInternalServerError, "Configuration Error")
	}

	s.logger.Infof("[Dossier] Analyzing: %s", req.CompanyName)
	ctx, cancel := s.requestContext(c)
	defer cancel()
	d, err := s.gen.GenerateDossier(ctx, req.CompanyName)
	if err != nil {
		s.logger.Errorf("dossier %q: %v", req.CompanyName, err)
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	s.logger.Infof("[Dossier] Response generated for %s", req.CompanyName)
	return c.JSON(fiber.Map{
		"sections": d.Sections,
		"sources":  d.Sources,
	})
}

func (s *Server) handleState(c *fiber.Ctx) error {
	if s.sink == nil {
		return c.JSON(intel.Snapshot{State: "IDLE"})
	}
	return c.JSON(s.sink.Snapshot())
}

func (s *Server) handleReport(c *fiber.Ctx) error {
	if s.sink == nil {
		return errorJSON(c, fiber.StatusNotFound, intel.NoDossier)
	}
	html, err := s.sink.Report(time.Now())
	if errors.Is(err, intel.ErrNoBrief) {
		return errorJSON(c, fiber.StatusNotFound, intel.NoDossier)
	}
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(html)
}

// Event types carried on /ws/events.
const (
	EventStart      = "start"
	EventConnect    = "connect"
	EventDisconnect = "disconnect"
	EventError      = "error"
	EventMode       = "mode"
	EventTool       = "tool"

	ToolScanCompetitor = "scan_competitor"
	ToolConsultDossier = "consult_dossier"
)

// Event is one message from the voice layer.
type Event struct {
	Type    string `json:"type"`
	Mode    string `json:"mode,omitempty"`
	Message string `json:"message,omitempty"`

	// Tool calls.
	ID    string `json:"id,omitempty"`
	Tool  string `json:"tool,omitempty"`
	Name  string `json:"name,omitempty"`
	URL   string `json:"url,omitempty"`
	Topic string `json:"topic,omitempty"`
}

// Reply answers every event: tool calls get their result, everything else
// the session snapshot after the event was applied.
type Reply struct {
	Type   string          `json:"type"`
	ID     string          `json:"id,omitempty"`
	Result string          `json:"result,omitempty"`
	State  *intel.Snapshot `json:"state,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// dispatch applies ev to the sink and builds the reply.
func (s *Server) dispatch(ev Event) Reply {
	if s.sink == nil {
		return Reply{Type: "error", ID: ev.ID, Error: "no session attached"}
	}
	switch ev.Type {
	case EventStart:
		s.sink.Start()
	case EventConnect:
		s.sink.OnConnect()
	case EventDisconnect:
		s.sink.OnDisconnect()
	case EventError:
		s.sink.OnError(errors.New(ev.Message))
	case EventMode:
		s.sink.OnModeChange(ev.Mode)
	case EventTool:
		return s.dispatchTool(ev)
	default:
		return Reply{Type: "error", ID: ev.ID, Error: "unknown event type " + ev.Type}
	}
	snap := s.sink.Snapshot()
	return Reply{Type: "state", State: &snap}
}

func (s *Server) dispatchTool(ev Event) Reply {
	var result string
	switch ev.Tool {
	case ToolScanCompetitor:
		if strings.TrimSpace(ev.Name) == "" {
			return Reply{Type: "error", ID: ev.ID, Error: "scan_competitor needs a name"}
		}
		ctx, cancel := contextWithTimeout(s.cfg.Timeout)
		defer cancel()
		result = s.sink.ScanCompetitor(ctx, ev.Name, ev.URL)
	case ToolConsultDossier:
		result = s.sink.ConsultDossier(ev.Topic)
	default:
		return Reply{Type: "error", ID: ev.ID, Error: "unknown tool " + ev.Tool}
	}
	return Reply{Type: "tool_result", ID: ev.ID, Result: result}
}

func (s *Server) handleEventsWS(c *websocket.Conn) {
	writeMu := &sync.Mutex{}
	s.clientsMu.Lock()
	s.clients[c] = writeMu
	s.clientsMu.Unlock()
	s.logger.Debugf("events socket connected: %s", c.RemoteAddr())

	var inflight sync.WaitGroup
	defer func() {
		inflight.Wait()
		s.clientsMu.Lock()
		delete(s.clients, c)
		s.clientsMu.Unlock()
		s.logger.Debugf("events socket closed: %s", c.RemoteAddr())
	}()

	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			s.reply(c, writeMu, Reply{Type: "error", Error: "malformed event"})
			continue
		}
		if ev.Type != EventTool {
			reply := s.dispatch(ev)
			if reply.Type == "error" {
				s.reply(c, writeMu, reply)
			} else {
				s.broadcast(reply)
			}
			continue
		}
		// Tool calls can take as long as the model does; keep reading
		// other events meanwhile.
		inflight.Add(1)
		go func(ev Event) {
			defer inflight.Done()
			s.reply(c, writeMu, s.dispatch(ev))
			if s.sink != nil {
				snap := s.sink.Snapshot()
				s.broadcast(Reply{Type: "state", State: &snap})
			}
		}(ev)
	}
}

func (s *Server) reply(c *websocket.Conn, mu *sync.Mutex, r Reply) {
	mu.Lock()
	defer mu.Unlock()
	if err := c.WriteJSON(r); err != nil {
		s.logger.Warnf("events socket write: %v", err)
	}
}

type eventClient struct {
	conn *websocket.Conn
	mu   *sync.Mutex
}

// broadcast sends r to every connected events socket. Writes happen outside
// clientsMu so a slow socket only delays its own delivery.
func (s *Server) broadcast(r Reply) {
	s.clientsMu.Lock()
	targets := make([]eventClient, 0, len(s.clients))
	for c, mu := range s.clients {
		targets = append(targets, eventClient{conn: c, mu: mu})
	}
	s.clientsMu.Unlock()

	for _, t := range targets {
		s.reply(t.conn, t.mu, r)
	}
}
