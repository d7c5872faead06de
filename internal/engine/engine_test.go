package engine_test

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/glowsync/internal/colorspace"
	"github.com/coreman2200/glowsync/internal/engine"
)

// fakeSource serves a fixed frame; fail makes every capture error out.
type fakeSource struct {
	frame *image.RGBA
	fail  bool

	mu       sync.Mutex
	captures int
}

func (f *fakeSource) Capture() (*image.RGBA, error) {
	f.mu.Lock()
	f.captures++
	f.mu.Unlock()
	if f.fail {
		return nil, errors.New("capture backend unavailable")
	}
	return f.frame, nil
}

func (f *fakeSource) Dimensions() (int, int) {
	b := f.frame.Bounds()
	return b.Dx(), b.Dy()
}

func (f *fakeSource) captureCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.captures
}

// fakeSink records frames under a lock; the engine may push from its own
// goroutine while the test inspects.
type fakeSink struct {
	mu     sync.Mutex
	frames [][]colorspace.Color
}

func (d *fakeSink) Update(colors []colorspace.Color) error {
	frame := make([]colorspace.Color, len(colors))
	copy(frame, colors)
	d.mu.Lock()
	d.frames = append(d.frames, frame)
	d.mu.Unlock()
	return nil
}

func (d *fakeSink) last() ([]colorspace.Color, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.frames) == 0 {
		return nil, 0
	}
	return d.frames[len(d.frames)-1], len(d.frames)
}

func solidFrame(w, h int, r, g, b uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
		img.Pix[i+3] = 255
	}
	return img
}

func testConfig() engine.Config {
	return engine.Config{
		NumLEDs:              2,
		SampleStep:           1,
		ColorChangeThreshold: 0.05,
		BrightnessFactor:     1.0,
		SaturationFactor:     1.0,
		Debounce:             0,
		FrameDelay:           time.Millisecond,
		TransitionSteps:      2,
		TransitionDelay:      0,
	}
}

func TestNewSessionRejectsInvalidConfig(t *testing.T) {
	cases := []engine.Config{
		{NumLEDs: 0},
		{NumLEDs: 4, ColorChangeThreshold: 1.5},
		{NumLEDs: 4, TransitionSteps: -1},
	}
	for _, cfg := range cases {
		_, err := engine.NewSession(cfg, &fakeSource{frame: solidFrame(2, 2, 0, 0, 0)}, &fakeSink{}, zerolog.Nop())
		assert.Error(t, err, "%+v", cfg)
	}
}

func TestSessionConvergesToScreenColor(t *testing.T) {
	src := &fakeSource{frame: solidFrame(8, 4, 200, 40, 0)}
	sink := &fakeSink{}

	sess, err := engine.NewSession(testConfig(), src, sink, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sess.Run(ctx) }()

	require.Eventually(t, func() bool {
		last, n := sink.last()
		return n > 0 && last[0] == (colorspace.Color{R: 200, G: 40}) && last[1] == last[0]
	}, 2*time.Second, 5*time.Millisecond, "device should settle on the screen color")

	cancel()
	require.NoError(t, <-done)
}

func TestSessionStableColorTriggersOnce(t *testing.T) {
	src := &fakeSource{frame: solidFrame(4, 4, 0, 180, 90)}
	sink := &fakeSink{}

	cfg := testConfig()
	sess, err := engine.NewSession(cfg, src, sink, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sess.Run(ctx) }()

	require.Eventually(t, func() bool {
		return src.captureCount() >= 20
	}, 2*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	// Exactly one transition's worth of device pushes: once converged, a
	// stable screen is never a significant change again.
	_, n := sink.last()
	assert.Equal(t, cfg.TransitionSteps, n)
}

func TestSessionSkipsTickOnCaptureFailure(t *testing.T) {
	src := &fakeSource{frame: solidFrame(4, 4, 255, 0, 0), fail: true}
	sink := &fakeSink{}

	sess, err := engine.NewSession(testConfig(), src, sink, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sess.Run(ctx) }()

	require.Eventually(t, func() bool {
		return src.captureCount() >= 3
	}, 2*time.Second, time.Millisecond, "loop keeps ticking through capture failures")
	cancel()
	require.NoError(t, <-done)

	_, n := sink.last()
	assert.Zero(t, n, "no device updates without a frame")
}

func TestSessionStatusSnapshots(t *testing.T) {
	src := &fakeSource{frame: solidFrame(4, 4, 10, 20, 30)}
	sink := &fakeSink{}

	sess, err := engine.NewSession(testConfig(), src, sink, zerolog.Nop())
	require.NoError(t, err)

	before := sess.Status()
	assert.Zero(t, before.FrameCount)
	assert.Empty(t, before.Colors)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sess.Run(ctx) }()

	require.Eventually(t, func() bool {
		s := sess.Status()
		return s.FrameCount >= 4 && len(s.Colors) == 2 && !s.LastUpdate.IsZero()
	}, 2*time.Second, time.Millisecond)

	// Snapshots are copies: mutating one must not affect the cell.
	snap := sess.Status()
	if len(snap.Colors) > 0 {
		snap.Colors[0] = colorspace.Color{R: 1, G: 2, B: 3}
		again := sess.Status()
		assert.NotEqual(t, colorspace.Color{R: 1, G: 2, B: 3}, again.Colors[0])
	}

	cancel()
	require.NoError(t, <-done)
}

func TestSessionStopsPromptly(t *testing.T) {
	cfg := testConfig()
	cfg.FrameDelay = time.Hour // stop must not wait out the tick sleep
	src := &fakeSource{frame: solidFrame(4, 4, 5, 5, 5)}

	sess, err := engine.NewSession(cfg, src, &fakeSink{}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sess.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("session did not stop after cancellation")
	}
}
