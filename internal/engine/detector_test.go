package engine

import (
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/coreman2200/glowsync/internal/colorspace"
)

var TestSignificantChangeCases = []struct {
	Name      string
	Current   []colorspace.Color
	Candidate []colorspace.Color
	Threshold float64
	Expect    bool
}{
	{
		Name:      "identical colors never trigger",
		Current:   []colorspace.Color{{R: 10, G: 20, B: 30}},
		Candidate: []colorspace.Color{{R: 10, G: 20, B: 30}},
		Threshold: 0.0,
		Expect:    false,
	},
	{
		Name:      "any single zone can trigger",
		Current:   []colorspace.Color{{R: 0, G: 0, B: 0}, {R: 0, G: 0, B: 0}},
		Candidate: []colorspace.Color{{R: 0, G: 0, B: 0}, {R: 255, G: 255, B: 255}},
		Threshold: 0.5,
		Expect:    true,
	},
	{
		Name:      "small move under threshold",
		Current:   []colorspace.Color{{R: 100, G: 100, B: 100}},
		Candidate: []colorspace.Color{{R: 101, G: 100, B: 100}},
		Threshold: 0.05,
		Expect:    false,
	},
}

func TestSignificantChange(t *testing.T) {
	for k, v := range TestSignificantChangeCases {
		t.Run("Case"+strconv.Itoa(k), func(t *testing.T) {
			assert.Equal(t, v.Expect, significantChange(v.Current, v.Candidate, v.Threshold), v.Name)
		})
	}
}

func TestSignificantChangeStrictInequality(t *testing.T) {
	// threshold 0.2 of full scale: limit distance is 51, squared 2601.
	// A move of exactly 51 on one channel sits exactly at the limit.
	threshold := 0.2
	current := []colorspace.Color{{R: 0, G: 0, B: 0}}
	atLimit := []colorspace.Color{{R: 51, G: 0, B: 0}}
	beyond := []colorspace.Color{{R: 52, G: 0, B: 0}}

	assert.False(t, significantChange(current, atLimit, threshold), "distance exactly at threshold must not count")
	assert.True(t, significantChange(current, beyond, threshold))

	// Same law on the diagonal: limit*limit vs the squared sum.
	limit := threshold * 255.0
	diag := uint8(math.Floor(limit / math.Sqrt(3)))
	assert.False(t, significantChange(current, []colorspace.Color{{R: diag, G: diag, B: diag}}, threshold))
}

func TestShouldTransitionDebounce(t *testing.T) {
	s := &Session{
		cfg: Config{
			NumLEDs:              1,
			ColorChangeThreshold: 0.05,
			Debounce:             500 * time.Millisecond,
		},
		current: []colorspace.Color{{R: 0, G: 0, B: 0}},
	}
	candidate := []colorspace.Color{{R: 255, G: 255, B: 255}}

	s.lastTransition = time.Now()
	assert.False(t, s.shouldTransition(candidate, s.lastTransition.Add(100*time.Millisecond)),
		"change within debounce window must not trigger")
	assert.True(t, s.shouldTransition(candidate, s.lastTransition.Add(500*time.Millisecond)),
		"debounce interval fully elapsed")

	// Magnitude gate still applies after the debounce window.
	assert.False(t, s.shouldTransition([]colorspace.Color{{R: 1, G: 0, B: 0}}, s.lastTransition.Add(time.Hour)))
}
