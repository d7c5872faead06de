package engine

import (
	"time"

	"github.com/coreman2200/glowsync/internal/colorspace"
)

// significantChange reports whether any zone pair moved further apart than
// the threshold, measured as squared Euclidean distance in 0-255 RGB space.
// The comparison is strict: a distance exactly at threshold does not count.
func significantChange(current, candidate []colorspace.Color, threshold float64) bool {
	limit := threshold * 255.0
	limitSq := limit * limit
	for i := range current {
		dr := float64(candidate[i].R) - float64(current[i].R)
		dg := float64(candidate[i].G) - float64(current[i].G)
		db := float64(candidate[i].B) - float64(current[i].B)
		if dr*dr+dg*dg+db*db > limitSq {
			return true
		}
	}
	return false
}

// shouldTransition couples the magnitude gate with the debounce gate: small
// noisy changes never trigger, and legitimate changes trigger at most once
// per debounce interval.
func (s *Session) shouldTransition(candidate []colorspace.Color, now time.Time) bool {
	return significantChange(s.current, candidate, s.cfg.ColorChangeThreshold) &&
		now.Sub(s.lastTransition) >= s.cfg.Debounce
}
