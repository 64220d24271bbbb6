package horizon

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gekko3d/horizon/internal/config"
	"github.com/google/uuid"
)

var ErrDisposed = errors.New("horizon: controller disposed")

// renderFailureLogEvery thins out repeated render failure warnings.
const renderFailureLogEvery = 120

// Renderer draws frames. Implementations own all GPU resources.
type Renderer interface {
	Render(f Frame) error
	Resize(width, height int)
	Release()
}

type Option func(*Controller)

func WithRenderer(r Renderer) Option { return func(c *Controller) { c.renderer = r } }
func WithHost(h Host) Option         { return func(c *Controller) { c.host = h } }
func WithLogger(l Logger) Option     { return func(c *Controller) { c.logger = OrNop(l) } }

// WithTimeSource replaces the wall clock, for tests and replays.
func WithTimeSource(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller owns one mounted visual: the engine, the clock, the renderer
// and the host window. Everything except Post, PostOnline and Stop must be
// called from the loop goroutine.
type Controller struct {
	id       uuid.UUID
	cfg      *config.Config
	engine   *Engine
	clock    *Clock
	renderer Renderer
	host     Host
	logger   Logger
	now      func() time.Time

	inbox   inbox
	stopped atomic.Bool

	// mu serializes a frame against disposal.
	mu       sync.Mutex
	disposed bool

	frames         uint64
	skipped        uint64
	renderFailures Throttle
	lastResize     [2]int
}

// inbox coalesces updates posted from other goroutines. Only the latest
// state matters since targets are replaced whole.
type inbox struct {
	mu        sync.Mutex
	state     VisualState
	hasState  bool
	online    bool
	hasOnline bool
}

func New(cfg *config.Config, opts ...Option) (*Controller, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg = cfg.Normalized()
	c := &Controller{
		id:     uuid.New(),
		cfg:    cfg,
		logger: NewNopLogger(),
		now:    time.Now,

		renderFailures: Throttle{Every: renderFailureLogEvery},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.engine = NewEngine(cfg)
	maxDelta := time.Duration(float64(cfg.Animation.MaxFrameDelta) * float64(time.Second))
	c.clock = newClockWithSource(maxDelta, c.now)

	if c.host != nil {
		c.engine.SetPixelRatio(c.host.PixelRatio(), cfg.Window.MaxPixelRatio)
		c.Resize(c.host.FramebufferSize())
		c.host.SetResizeHandler(c.Resize)
	}

	c.logger.Infof("controller %s mounted (%dx%d, %d stars)", c.id, c.engine.width, c.engine.height, cfg.Scene.StarCount)
	return c, nil
}

func (c *Controller) ID() uuid.UUID   { return c.id }
func (c *Controller) Engine() *Engine { return c.engine }

// SetState changes the visual target. Loop goroutine only; use Post from
// elsewhere.
func (c *Controller) SetState(s VisualState) {
	if c.engine.SetState(s) {
		c.logger.Infof("state -> %s", s)
	}
}

// Post queues a state change from any goroutine. It is applied at the start
// of the next frame.
func (c *Controller) Post(s VisualState) {
	c.inbox.mu.Lock()
	c.inbox.state, c.inbox.hasState = s, true
	c.inbox.mu.Unlock()
}

// PostOnline queues the connection status shown in the HUD.
func (c *Controller) PostOnline(online bool) {
	c.inbox.mu.Lock()
	c.inbox.online, c.inbox.hasOnline = online, true
	c.inbox.mu.Unlock()
}

func (c *Controller) drain() {
	c.inbox.mu.Lock()
	state, hasState := c.inbox.state, c.inbox.hasState
	online, hasOnline := c.inbox.online, c.inbox.hasOnline
	c.inbox.hasState, c.inbox.hasOnline = false, false
	c.inbox.mu.Unlock()

	if hasOnline {
		c.engine.SetOnline(online)
	}
	if hasState {
		c.SetState(state)
	}
}

// Resize updates the viewport. Zero sizes are tolerated: frames are skipped
// until a valid size arrives.
func (c *Controller) Resize(width, height int) {
	if c.lastResize == [2]int{width, height} {
		return
	}
	c.lastResize = [2]int{width, height}

	c.engine.Resize(width, height)
	if c.engine.minimized {
		c.logger.Debugf("viewport %dx%d, skipping frames", width, height)
		return
	}
	if c.renderer != nil {
		c.renderer.Resize(width, height)
	}
}

// Frame advances one step and renders it. It returns false once the
// controller has been disposed.
func (c *Controller) Frame() (Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return Frame{}, false
	}

	c.drain()
	delta, elapsed := c.clock.Tick()
	f := c.engine.Step(delta, elapsed)
	c.frames++

	if f.Minimized || c.renderer == nil {
		c.skipped++
		return f, true
	}
	if err := c.renderer.Render(f); err != nil {
		c.skipped++
		if c.renderFailures.Allow(c.logger.DebugEnabled()) {
			c.logger.Warnf("frame %d skipped (%d render failures): %v", c.frames, c.renderFailures.Count(), err)
		}
	}
	return f, true
}

// Run drives frames until ctx is done, Stop is called, or the host asks to
// close. Presentation paces the loop when a renderer is attached.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	disposed := c.disposed
	c.mu.Unlock()
	if disposed {
		return ErrDisposed
	}

	for !c.stopped.Load() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.host != nil {
			if c.host.ShouldClose() {
				break
			}
			c.host.PollEvents()
			c.handleInput(c.host.Input())
		}
		if _, ok := c.Frame(); !ok {
			return ErrDisposed
		}
	}
	c.logger.Infof("controller %s stopped after %d frames (%d skipped)", c.id, c.frames, c.skipped)
	return nil
}

func (c *Controller) handleInput(in *Input) {
	if in == nil {
		return
	}
	if in.JustPressed[KeyEscape] {
		c.Stop()
		return
	}
	for key, s := range stateKeys {
		if in.JustPressed[key] {
			c.SetState(s)
		}
	}
	if in.Pressed[MouseButtonLeft] && !in.JustPressed[MouseButtonLeft] {
		ratio := c.engine.pixelRatio
		c.engine.Drag(float32(in.MouseDeltaX)*ratio, float32(in.MouseDeltaY)*ratio)
	}
}

// Stop asks Run to return after the current frame. Safe from any goroutine.
func (c *Controller) Stop() {
	c.stopped.Store(true)
}

// Dispose detaches the resize handler and releases the renderer and the
// host. Later calls are no-ops and later frames are refused.
func (c *Controller) Dispose() {
	c.stopped.Store(true)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.disposed = true

	if c.host != nil {
		c.host.SetResizeHandler(nil)
	}
	if c.renderer != nil {
		c.renderer.Release()
		c.renderer = nil
	}
	if c.host != nil {
		c.host.Destroy()
		c.host = nil
	}
	c.logger.Infof("controller %s disposed", c.id)
}
