// Package zones reduces a captured frame to one representative color per
// output zone. A zone is a contiguous vertical slice of the frame mapped
// one-to-one to an addressable LED.
package zones

import (
	"errors"
	"image"
	"runtime"
	"sync"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/coreman2200/glowsync/internal/colorspace"
)

// Pixels with normalized alpha below this do not contribute to a zone;
// near-transparent regions are compositing artifacts, not screen content.
const minAlpha = 0.1

// accum holds per-zone running channel sums. uint64 cannot overflow even
// when every pixel of a full-resolution frame lands in one zone.
type accum struct {
	r, g, b, count uint64
}

// Aggregator averages sampled frame pixels into per-zone colors and applies
// the configured brightness and saturation adjustment to the result.
type Aggregator struct {
	NumZones   int
	SampleStep int
	Brightness float64
	Saturation float64

	// Workers caps the row fan-out; <= 0 means runtime.NumCPU().
	Workers int
}

// NewAggregator validates the zone geometry. A non-positive zone count is a
// programming error at the call site, not a runtime condition.
func NewAggregator(numZones, sampleStep int, brightness, saturation float64) (*Aggregator, error) {
	if numZones <= 0 {
		return nil, errors.New("zones: zone count must be positive")
	}
	if sampleStep < 1 {
		sampleStep = 1
	}
	return &Aggregator{
		NumZones:   numZones,
		SampleStep: sampleStep,
		Brightness: brightness,
		Saturation: saturation,
	}, nil
}

// Aggregate reduces the frame into NumZones colors. Sampled rows are
// processed by a pool of workers, each owning its own partial accumulator
// slice; partials are merged by elementwise sum, so the result is identical
// for any worker count.
func (a *Aggregator) Aggregate(frame *image.RGBA) []colorspace.Color {
	bounds := frame.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	step := a.SampleStep
	if step < 1 {
		step = 1
	}

	workers := a.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	sampledRows := (height + step - 1) / step
	if workers > sampledRows {
		workers = sampledRows
	}
	if workers < 1 {
		workers = 1
	}

	partials := make([][]accum, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		partials[w] = make([]accum, a.NumZones)
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			sums := partials[w]
			// Worker w owns every workers-th sampled row.
			for y := w * step; y < height; y += workers * step {
				row := frame.Pix[frame.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
				for x := 0; x < width; x += step {
					idx := x * 4
					alpha := float64(row[idx+3]) / 255.0
					if alpha < minAlpha {
						continue
					}
					zone := x * a.NumZones / width
					sums[zone].r += uint64(row[idx])
					sums[zone].g += uint64(row[idx+1])
					sums[zone].b += uint64(row[idx+2])
					sums[zone].count++
				}
			}
		}(w)
	}
	wg.Wait()

	merged := partials[0]
	for w := 1; w < workers; w++ {
		for i := range merged {
			merged[i].r += partials[w][i].r
			merged[i].g += partials[w][i].g
			merged[i].b += partials[w][i].b
			merged[i].count += partials[w][i].count
		}
	}

	out := make([]colorspace.Color, a.NumZones)
	for i, s := range merged {
		if s.count == 0 {
			// Empty zone stays black.
			continue
		}
		n := float64(s.count)
		avg := colorful.Color{
			R: float64(s.r) / n / 255.0,
			G: float64(s.g) / n / 255.0,
			B: float64(s.b) / n / 255.0,
		}
		avg = colorspace.AdjustBrightness(avg, a.Brightness)
		avg = colorspace.AdjustSaturation(avg, a.Saturation)
		out[i] = colorspace.FromNormalized(avg)
	}
	return out
}
