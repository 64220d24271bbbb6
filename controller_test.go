package horizon

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gekko3d/horizon/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRenderer struct {
	frames   []Frame
	resizes  [][2]int
	released int
	fail     error
}

func (r *recordingRenderer) Render(f Frame) error {
	if r.fail != nil {
		return r.fail
	}
	r.frames = append(r.frames, f)
	return nil
}

func (r *recordingRenderer) Resize(w, h int) { r.resizes = append(r.resizes, [2]int{w, h}) }
func (r *recordingRenderer) Release()        { r.released++ }

type fakeHost struct {
	width, height int
	ratio         float32
	closeAfter    int
	polls         int
	input         Input
	onPoll        func(n int, in *Input)
	resize        func(w, h int)
	handlerSets   int
	destroyed     int
}

func (h *fakeHost) ShouldClose() bool {
	return h.closeAfter > 0 && h.polls >= h.closeAfter
}

func (h *fakeHost) PollEvents() {
	h.polls++
	if h.onPoll != nil {
		h.onPoll(h.polls, &h.input)
	}
}

func (h *fakeHost) Input() *Input               { return &h.input }
func (h *fakeHost) FramebufferSize() (int, int) { return h.width, h.height }
func (h *fakeHost) PixelRatio() float32         { return h.ratio }
func (h *fakeHost) Destroy()                    { h.destroyed++ }
func (h *fakeHost) SetResizeHandler(fn func(w, h int)) {
	h.resize = fn
	h.handlerSets++
}

func newTestController(t *testing.T, host *fakeHost, r *recordingRenderer) *Controller {
	t.Helper()
	ft := newFakeTime(16 * time.Millisecond)
	opts := []Option{WithTimeSource(ft.Now)}
	if host != nil {
		opts = append(opts, WithHost(host))
	}
	if r != nil {
		opts = append(opts, WithRenderer(r))
	}
	c, err := New(config.DefaultConfig(), opts...)
	require.NoError(t, err)
	return c
}

func TestController_MountAttachesHost(t *testing.T) {
	host := &fakeHost{width: 800, height: 400, ratio: 2}
	r := &recordingRenderer{}
	c := newTestController(t, host, r)

	assert.NotNil(t, host.resize, "resize handler installed on mount")
	assert.Equal(t, [][2]int{{800, 400}}, r.resizes)

	f, ok := c.Frame()
	require.True(t, ok)
	assert.Equal(t, float32(2), f.Aspect)
	assert.Equal(t, float32(config.DefaultMaxPixelRatio), f.PixelRatio, "pixel ratio is capped")
	assert.NotEqual(t, c.ID().String(), "")
}

func TestController_RunUntilHostCloses(t *testing.T) {
	host := &fakeHost{width: 640, height: 480, ratio: 1, closeAfter: 10}
	r := &recordingRenderer{}
	c := newTestController(t, host, r)

	require.NoError(t, c.Run(context.Background()))
	assert.Len(t, r.frames, 10)

	for i := 1; i < len(r.frames); i++ {
		assert.Greater(t, r.frames[i].Elapsed, r.frames[i-1].Elapsed)
	}
}

func TestController_RunHonoursContext(t *testing.T) {
	c := newTestController(t, nil, &recordingRenderer{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, c.Run(ctx), context.Canceled)
}

func TestController_PostFromGoroutines(t *testing.T) {
	r := &recordingRenderer{}
	c := newTestController(t, nil, r)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Post(StateSpeaking)
			c.PostOnline(true)
		}()
	}
	wg.Wait()

	assert.Equal(t, StateIdle, c.Engine().State(), "posted states wait for the next frame")

	f, ok := c.Frame()
	require.True(t, ok)
	assert.Equal(t, StateSpeaking, f.State)
	assert.True(t, f.Online)
	assert.Equal(t, TargetFor(StateSpeaking), c.Engine().Target())
}

func TestController_PostCoalescesToLatest(t *testing.T) {
	c := newTestController(t, nil, nil)
	c.Post(StateListening)
	c.Post(StateComputing)
	c.Post(StateDormant)

	f, _ := c.Frame()
	assert.Equal(t, StateDormant, f.State)
}

func TestController_ZeroResizeSkipsFrames(t *testing.T) {
	host := &fakeHost{width: 640, height: 480, ratio: 1}
	r := &recordingRenderer{}
	c := newTestController(t, host, r)

	c.Frame()
	require.Len(t, r.frames, 1)

	host.resize(0, 0)
	f, ok := c.Frame()
	assert.True(t, ok)
	assert.True(t, f.Minimized)
	assert.Len(t, r.frames, 1, "minimized frames are not rendered")
	assert.Equal(t, [][2]int{{640, 480}}, r.resizes, "renderer never sees a zero size")

	host.resize(1024, 512)
	f, _ = c.Frame()
	assert.False(t, f.Minimized)
	assert.Len(t, r.frames, 2)
	assert.Equal(t, [2]int{1024, 512}, r.resizes[len(r.resizes)-1])
	assert.Equal(t, float32(2), r.frames[1].Aspect)
}

func TestController_RestoreAtSameSizeReachesRenderer(t *testing.T) {
	host := &fakeHost{width: 640, height: 480, ratio: 1}
	r := &recordingRenderer{}
	c := newTestController(t, host, r)

	host.resize(0, 0)
	host.resize(640, 480)
	f, ok := c.Frame()
	require.True(t, ok)
	assert.False(t, f.Minimized)
	assert.Equal(t, [][2]int{{640, 480}, {640, 480}}, r.resizes, "restore must reach the renderer so it can reconfigure")
}

func TestController_RenderErrorDoesNotStopLoop(t *testing.T) {
	host := &fakeHost{width: 64, height: 64, ratio: 1, closeAfter: 5}
	r := &recordingRenderer{fail: errors.New("render: surface lost")}
	c := newTestController(t, host, r)

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, 5, host.polls)
	assert.Equal(t, uint64(5), c.skipped)
}

func TestController_RenderFailuresAreThrottled(t *testing.T) {
	var logs bytes.Buffer
	r := &recordingRenderer{fail: errors.New("render: surface lost")}
	c, err := New(config.DefaultConfig(),
		WithRenderer(r),
		WithTimeSource(newFakeTime(16*time.Millisecond).Now),
		WithLogger(NewLogger("horizon", false, &logs, &logs)),
	)
	require.NoError(t, err)
	c.Resize(64, 64)

	for i := 0; i < renderFailureLogEvery+1; i++ {
		_, ok := c.Frame()
		require.True(t, ok)
	}
	assert.Equal(t, 2, strings.Count(logs.String(), "WARN: frame"))
	assert.Equal(t, uint64(renderFailureLogEvery+1), c.renderFailures.Count())
}

func TestController_KeyboardDrivesState(t *testing.T) {
	host := &fakeHost{width: 64, height: 64, ratio: 1}
	host.onPoll = func(n int, in *Input) {
		switch n {
		case 2:
			in.Set(Key4, true)
		case 3:
			in.Set(Key4, false)
		case 5:
			in.Set(KeyEscape, true)
		}
	}
	c := newTestController(t, host, &recordingRenderer{})

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, StateComputing, c.Engine().State())
	assert.Equal(t, 5, host.polls, "escape stops the loop")
}

func TestController_MouseDragOrbits(t *testing.T) {
	host := &fakeHost{width: 600, height: 600, ratio: 1}
	host.onPoll = func(n int, in *Input) {
		in.Set(MouseButtonLeft, n <= 3)
		in.MoveMouse(float64(n*30), 0)
	}
	c := newTestController(t, host, nil)
	c.Engine().Camera().AutoRotate = false
	theta := c.Engine().Camera().Theta

	for i := 0; i < 3; i++ {
		host.PollEvents()
		c.handleInput(host.Input())
		c.Frame()
	}
	assert.Less(t, c.Engine().Camera().Theta, theta, "dragging right orbits the camera")
}

func TestController_DisposeIsIdempotent(t *testing.T) {
	host := &fakeHost{width: 64, height: 64, ratio: 1}
	r := &recordingRenderer{}
	c := newTestController(t, host, r)

	c.Dispose()
	c.Dispose()

	assert.Equal(t, 1, r.released)
	assert.Equal(t, 1, host.destroyed)
	assert.Nil(t, host.resize, "resize handler detached")

	_, ok := c.Frame()
	assert.False(t, ok, "no frame runs against disposed resources")
	assert.ErrorIs(t, c.Run(context.Background()), ErrDisposed)
	assert.Len(t, r.frames, 0)
}

func TestController_DisposeRacesFrame(t *testing.T) {
	c := newTestController(t, nil, &recordingRenderer{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, ok := c.Frame(); !ok {
				return
			}
		}
	}()
	time.Sleep(5 * time.Millisecond)
	c.Dispose()
	<-done
}
