package device

import (
	"fmt"
	"image"
	"image/color"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"github.com/coreman2200/glowsync/internal/colorspace"
)

// SPI drives a WS2812-style strip directly over an SPI port, one pixel per
// zone. Useful when the lit hardware is a strip behind the monitor rather
// than an OpenRGB-managed device.
type SPI struct {
	port spi.PortCloser
	dev  *nrzled.Dev
	img  *image.NRGBA
}

// NewSPI opens the named SPI port (e.g. "/dev/spidev0.0" or "SPI0.0") and
// prepares a strip of numLEDs pixels.
func NewSPI(portName string, numLEDs int) (*SPI, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("spi: host init: %w", err)
	}
	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("spi: open %q: %w", portName, err)
	}
	return newSPI(port, numLEDs)
}

func newSPI(port spi.PortCloser, numLEDs int) (*SPI, error) {
	opts := nrzled.Opts{
		NumPixels: numLEDs,
		Channels:  3,
		Freq:      2500 * physic.KiloHertz,
	}
	dev, err := nrzled.NewSPI(port, &opts)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("spi: nrzled: %w", err)
	}
	return &SPI{
		port: port,
		dev:  dev,
		img:  image.NewNRGBA(image.Rect(0, 0, numLEDs, 1)),
	}, nil
}

func (d *SPI) Update(colors []colorspace.Color) error {
	for i, c := range colors {
		if i >= d.img.Rect.Max.X {
			break
		}
		d.img.SetNRGBA(i, 0, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255})
	}
	return d.dev.Draw(d.dev.Bounds(), d.img, image.Point{})
}

func (d *SPI) Close() error {
	_ = d.dev.Halt()
	return d.port.Close()
}
