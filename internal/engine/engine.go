// Package engine owns the capture-aggregate-decide-transition pipeline: it
// samples frames at a fixed cadence, reduces them to per-zone colors, and
// drives the device sink through smooth, debounced transitions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/glowsync/internal/colorspace"
	"github.com/coreman2200/glowsync/internal/zones"
)

// FrameSource captures the pixel content of a display. Capture failures are
// transient: the scheduler skips the tick and tries again.
type FrameSource interface {
	Capture() (*image.RGBA, error)
	Dimensions() (width, height int)
}

// DeviceSink applies a full color vector to the output hardware. The slice
// length always equals the configured zone count.
type DeviceSink interface {
	Update(colors []colorspace.Color) error
}

// Config is the per-session tuning consumed by value at session start.
type Config struct {
	NumLEDs              int
	SampleStep           int
	ColorChangeThreshold float64
	BrightnessFactor     float64
	SaturationFactor     float64
	Debounce             time.Duration
	FrameDelay           time.Duration
	TransitionSteps      int
	TransitionDelay      time.Duration
}

func (c Config) validate() error {
	if c.NumLEDs <= 0 {
		return errors.New("engine: num_leds must be positive")
	}
	if c.ColorChangeThreshold < 0 || c.ColorChangeThreshold > 1 {
		return errors.New("engine: color_change_threshold must be in [0,1]")
	}
	if c.TransitionSteps < 0 {
		return errors.New("engine: transition_steps must not be negative")
	}
	return nil
}

// Session is one sync run: a single control loop from a frame source to a
// device sink. Sessions are not restartable; build a new one per run.
type Session struct {
	cfg  Config
	src  FrameSource
	sink DeviceSink
	agg  *zones.Aggregator
	log  zerolog.Logger

	status statusCell

	// current mirrors what the device is showing; shared between the
	// detector and the transition engine, only touched by the loop.
	current        []colorspace.Color
	lastTransition time.Time
}

// NewSession validates the config and wires the pipeline.
func NewSession(cfg Config, src FrameSource, sink DeviceSink, log zerolog.Logger) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	agg, err := zones.NewAggregator(cfg.NumLEDs, cfg.SampleStep, cfg.BrightnessFactor, cfg.SaturationFactor)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return &Session{
		cfg:     cfg,
		src:     src,
		sink:    sink,
		agg:     agg,
		log:     log,
		current: make([]colorspace.Color, cfg.NumLEDs),
	}, nil
}

// Status returns a copy of the latest published snapshot. Safe to call from
// any goroutine at any time; never blocks behind the loop's sleeps or I/O.
func (s *Session) Status() Status {
	return s.status.snapshot()
}

// Run drives ticks until ctx is cancelled. Cancellation is cooperative:
// checked at the top of each tick and between transition steps, so stopping
// can take up to one step's worth of latency.
func (s *Session) Run(ctx context.Context) error {
	w, h := s.src.Dimensions()
	s.log.Info().
		Int("zones", s.cfg.NumLEDs).
		Int("width", w).
		Int("height", h).
		Dur("frame_delay", s.cfg.FrameDelay).
		Msg("sync loop started")

	s.lastTransition = time.Now()

	for {
		if ctx.Err() != nil {
			s.log.Info().Msg("sync loop stopping")
			return nil
		}
		tickStart := time.Now()

		frame, err := s.src.Capture()
		if err != nil {
			s.log.Warn().Err(err).Msg("capture failed; skipping tick")
			if !s.sleepRemainder(ctx, tickStart) {
				s.log.Info().Msg("sync loop stopping")
				return nil
			}
			continue
		}

		target := s.agg.Aggregate(frame)
		s.status.publish(s.current)

		if s.shouldTransition(target, time.Now()) {
			if err := runTransition(ctx, s.current, target, s.cfg.TransitionSteps, s.cfg.TransitionDelay, s.sink); err != nil {
				s.log.Warn().Err(err).Msg("transition aborted")
			}
			s.lastTransition = time.Now()
		}
		s.status.publish(s.current)

		if !s.sleepRemainder(ctx, tickStart) {
			s.log.Info().Msg("sync loop stopping")
			return nil
		}
	}
}

// sleepRemainder sleeps whatever is left of the tick's frame budget, or not
// at all if the tick overran. Returns false once ctx is cancelled.
func (s *Session) sleepRemainder(ctx context.Context, tickStart time.Time) bool {
	remaining := s.cfg.FrameDelay - time.Since(tickStart)
	if remaining <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
