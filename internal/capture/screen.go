// Package capture provides frame sources for the sync engine.
package capture

import (
	"errors"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// Screen captures one monitor's content. The bounds are fixed at
// construction; monitors changing resolution mid-session is not handled.
type Screen struct {
	index  int
	bounds image.Rectangle
}

// NewScreen selects the monitor at index. An out-of-range index falls back
// to the primary display rather than failing.
func NewScreen(index int) (*Screen, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, errors.New("capture: no active displays")
	}
	if index < 0 || index >= n {
		index = 0
	}
	return &Screen{
		index:  index,
		bounds: screenshot.GetDisplayBounds(index),
	}, nil
}

// Capture grabs the current monitor content. Failures are transient; the
// scheduler skips the tick and retries.
func (s *Screen) Capture() (*image.RGBA, error) {
	img, err := screenshot.CaptureRect(s.bounds)
	if err != nil {
		return nil, fmt.Errorf("capture display %d: %w", s.index, err)
	}
	return img, nil
}

// Dimensions returns the captured monitor's size in pixels.
func (s *Screen) Dimensions() (int, int) {
	return s.bounds.Dx(), s.bounds.Dy()
}

// Index returns the effective display index after fallback.
func (s *Screen) Index() int {
	return s.index
}
