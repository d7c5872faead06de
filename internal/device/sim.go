// Package device provides local device sinks: a headless simulator and a
// direct SPI strip driver. The OpenRGB network sink lives in its own
// package.
package device

import (
	"github.com/rs/zerolog"

	"github.com/coreman2200/glowsync/internal/colorspace"
)

// Sim is a sink for development without hardware: it logs a compact frame
// summary (average and first zone) instead of driving LEDs.
type Sim struct {
	log    zerolog.Logger
	frames uint64
}

func NewSim(log zerolog.Logger) *Sim {
	return &Sim{log: log}
}

func (d *Sim) Update(colors []colorspace.Color) error {
	d.frames++
	if len(colors) == 0 {
		return nil
	}
	var r, g, b uint64
	for _, c := range colors {
		r += uint64(c.R)
		g += uint64(c.G)
		b += uint64(c.B)
	}
	n := uint64(len(colors))
	d.log.Debug().
		Uint64("frame", d.frames).
		Int("zones", len(colors)).
		Uints8("avg", []uint8{uint8(r / n), uint8(g / n), uint8(b / n)}).
		Uints8("first", []uint8{colors[0].R, colors[0].G, colors[0].B}).
		Msg("sim update")
	return nil
}

func (d *Sim) Close() error { return nil }
