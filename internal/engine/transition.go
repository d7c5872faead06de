package engine

import (
	"context"
	"fmt"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/coreman2200/glowsync/internal/colorspace"
)

// runTransition morphs current into target over steps evenly spaced HSV
// interpolation steps, pushing each intermediate vector to the sink and
// mirroring successful pushes back into current in place.
//
// A sink failure aborts the remaining steps; current keeps the last colors
// the device actually accepted. Cancellation between steps aborts quietly.
// After a full run current equals target exactly, by assignment rather than
// interpolation, so float drift never accumulates across transitions.
func runTransition(ctx context.Context, current []colorspace.Color, target []colorspace.Color, steps int, stepDelay time.Duration, sink DeviceSink) error {
	if len(current) != len(target) || len(current) == 0 || steps <= 0 {
		return nil
	}

	from := make([]colorful.Color, len(current))
	to := make([]colorful.Color, len(target))
	for i := range current {
		from[i] = current[i].Normalized()
		to[i] = target[i].Normalized()
	}

	buf := make([]colorspace.Color, len(current))
	for step := 1; step <= steps; step++ {
		if ctx.Err() != nil {
			return nil
		}
		t := float64(step) / float64(steps)
		for i := range buf {
			buf[i] = colorspace.FromNormalized(colorspace.Interpolate(from[i], to[i], t))
		}
		if err := sink.Update(buf); err != nil {
			return fmt.Errorf("device update at step %d/%d: %w", step, steps, err)
		}
		copy(current, buf)

		if !sleepStep(ctx, stepDelay) {
			return nil
		}
	}

	copy(current, target)
	return nil
}

func sleepStep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
