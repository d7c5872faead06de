package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/coreman2200/glowsync/internal/config"
)

// Field is one editable config entry: a name, a help line, and typed
// get/set accessors. The menu dispatches on list index, so the editor needs
// no reflection over the config struct.
type Field struct {
	Name string
	Desc string
	Get  func(*config.Config) string
	Set  func(*config.Config, string) error
}

func intField(name, desc string, p func(*config.Config) *int) Field {
	return Field{
		Name: name,
		Desc: desc,
		Get:  func(c *config.Config) string { return strconv.Itoa(*p(c)) },
		Set: func(c *config.Config, s string) error {
			v, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return fmt.Errorf("%s: %q is not a whole number (keeping old value)", name, s)
			}
			*p(c) = v
			return nil
		},
	}
}

func floatField(name, desc string, p func(*config.Config) *float64) Field {
	return Field{
		Name: name,
		Desc: desc,
		Get:  func(c *config.Config) string { return strconv.FormatFloat(*p(c), 'g', -1, 64) },
		Set: func(c *config.Config, s string) error {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return fmt.Errorf("%s: %q is not a number (keeping old value)", name, s)
			}
			*p(c) = v
			return nil
		},
	}
}

func stringField(name, desc string, p func(*config.Config) *string) Field {
	return Field{
		Name: name,
		Desc: desc,
		Get:  func(c *config.Config) string { return *p(c) },
		Set: func(c *config.Config, s string) error {
			*p(c) = strings.TrimSpace(s)
			return nil
		},
	}
}

// Fields enumerates the editable configuration in menu order.
func Fields() []Field {
	return []Field{
		intField("Number of LEDs", "How many zones/LEDs the device exposes.",
			func(c *config.Config) *int { return &c.NumLEDs }),
		intField("Transition Steps", "Steps per color transition; more is smoother.",
			func(c *config.Config) *int { return &c.TransitionSteps }),
		intField("Transition Delay (ms)", "Pause between transition steps.",
			func(c *config.Config) *int { return &c.TransitionDelayMs }),
		intField("Frame Delay (ms)", "Nominal time between screen captures.",
			func(c *config.Config) *int { return &c.FrameDelayMs }),
		floatField("Color Change Threshold", "Fraction of full-scale distance that counts as a change (0.0-1.0).",
			func(c *config.Config) *float64 { return &c.ColorChangeThreshold }),
		floatField("Brightness Factor", "HSV value multiplier applied after aggregation.",
			func(c *config.Config) *float64 { return &c.BrightnessFactor }),
		floatField("Saturation Factor", "HSV saturation multiplier applied after aggregation.",
			func(c *config.Config) *float64 { return &c.SaturationFactor }),
		intField("Debounce Duration (ms)", "Minimum time between two transitions.",
			func(c *config.Config) *int { return &c.DebounceDurationMs }),
		intField("Sample Step", "Visit every Nth pixel row/column; larger is faster.",
			func(c *config.Config) *int { return &c.SampleStep }),
		stringField("OpenRGB Host", "Hostname or IP of the OpenRGB SDK server.",
			func(c *config.Config) *string { return &c.OpenRGBHost }),
		intField("OpenRGB Port", "Port of the OpenRGB SDK server.",
			func(c *config.Config) *int { return &c.OpenRGBPort }),
		stringField("Device Name", "Substring of the controller name to drive.",
			func(c *config.Config) *string { return &c.DeviceName }),
		intField("Monitor Index", "Which display to capture (0-based).",
			func(c *config.Config) *int { return &c.MonitorIndex }),
	}
}
