// Package colorspace converts between the 8-bit RGB colors sent to the
// device and the normalized representations used for math, and provides
// HSV-based adjustment and interpolation on top of go-colorful.
package colorspace

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is the on-the-wire device color, one byte per channel.
type Color struct {
	R, G, B uint8
}

// Normalized returns the color with each channel divided by 255.
func (c Color) Normalized() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// FromNormalized converts a normalized color back to 8-bit channels,
// clamping to [0,255] and rounding half away from zero.
func FromNormalized(n colorful.Color) Color {
	return Color{
		R: channelByte(n.R),
		G: channelByte(n.G),
		B: channelByte(n.B),
	}
}

func channelByte(v float64) uint8 {
	s := v * 255.0
	if s < 0 {
		s = 0
	} else if s > 255 {
		s = 255
	}
	return uint8(math.Round(s))
}

// AdjustSaturation multiplies the HSV saturation by factor, clamped to [0,1].
func AdjustSaturation(n colorful.Color, factor float64) colorful.Color {
	h, s, v := n.Hsv()
	return colorful.Hsv(h, clamp01(s*factor), v)
}

// AdjustBrightness multiplies the HSV value by factor, clamped to [0,1].
func AdjustBrightness(n colorful.Color, factor float64) colorful.Color {
	h, s, v := n.Hsv()
	return colorful.Hsv(h, s, clamp01(v*factor))
}

// Interpolate returns the color at fraction t between start and end in HSV
// space. Hue travels the shorter way around the circle, so a fade from 350
// degrees to 10 degrees crosses 0 rather than sweeping through 180.
func Interpolate(start, end colorful.Color, t float64) colorful.Color {
	sh, ss, sv := start.Hsv()
	eh, es, ev := end.Hsv()

	dh := eh - sh
	if dh > 180 {
		dh -= 360
	} else if dh < -180 {
		dh += 360
	}

	h := math.Mod(sh+dh*t, 360)
	if h < 0 {
		h += 360
	}
	s := clamp01(ss + (es-ss)*t)
	v := clamp01(sv + (ev-sv)*t)

	return colorful.Hsv(h, s, v)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
