package model

// This module defines the pixel color representation shared by the frame
// store, the effects and the transports

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is a single pixel color, one byte per channel
type RGB struct {
	R, G, B uint8
}

var (
	Black = RGB{0x00, 0x00, 0x00}
	White = RGB{0xFF, 0xFF, 0xFF}
)

// Clamp converts channel values of any range into an RGB, pinning each one
// into [0,255]
func Clamp(r, g, b int) RGB {
	return RGB{clampChannel(r), clampChannel(g), clampChannel(b)}
}

func clampChannel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Lerp interpolates linearly between two colors, with frac in [0,1].
// Each channel is truncated toward zero.
func Lerp(from, to RGB, frac float64) RGB {
	mix := func(a, b uint8) int {
		return int(float64(a) + (float64(b)-float64(a))*frac)
	}
	return Clamp(mix(from.R, to.R), mix(from.G, to.G), mix(from.B, to.B))
}

// Scale multiplies every channel by factor, truncating and clamping
func (c RGB) Scale(factor float64) RGB {
	return Clamp(int(float64(c.R)*factor), int(float64(c.G)*factor), int(float64(c.B)*factor))
}

func (c RGB) String() string {
	return fmt.Sprintf("[%d,%d,%d]", c.R, c.G, c.B)
}

// HSV converts a hue in degrees and saturation, value in [0,1] into an RGB
// using the usual six sector conversion. Channels are truncated, not rounded.
func HSV(h, s, v float64) RGB {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	c := colorful.Hsv(h, s, v)
	return Clamp(int(c.R*255), int(c.G*255), int(c.B*255))
}

// ParseColor accepts either a hex triplet, "#ff9329" or "ff9329", or a
// decimal triplet, "255,147,41"
func ParseColor(text string) (c RGB, err errors.Error) {
	text = strings.TrimSpace(text)
	if len(text) == 6 && !strings.Contains(text, ",") {
		text = "#" + text
	}
	if strings.HasPrefix(text, "#") {
		hex, errGo := colorful.Hex(text)
		if errGo != nil {
			return c, errors.Wrap(ErrBadParam).With("color", text).With("cause", errGo.Error()).With("stack", stack.Trace().TrimRuntime())
		}
		r, g, b := hex.RGB255()
		return RGB{r, g, b}, nil
	}

	parts := strings.Split(strings.Trim(text, "[]"), ",")
	if len(parts) != 3 {
		return c, errors.Wrap(ErrBadParam).With("color", text).With("stack", stack.Trace().TrimRuntime())
	}
	vals := [3]int{}
	for i, part := range parts {
		v, errGo := strconv.Atoi(strings.TrimSpace(part))
		if errGo != nil {
			return c, errors.Wrap(ErrBadParam).With("color", text).With("cause", errGo.Error()).With("stack", stack.Trace().TrimRuntime())
		}
		vals[i] = v
	}
	return Clamp(vals[0], vals[1], vals[2]), nil
}

// MarshalYAML stores a color as a three element list, the same shape the
// favorites have always been kept in
func (c RGB) MarshalYAML() (interface{}, error) {
	return []int{int(c.R), int(c.G), int(c.B)}, nil
}

// UnmarshalYAML accepts a three element list or a color string
func (c *RGB) UnmarshalYAML(unmarshal func(interface{}) error) error {
	vals := []int{}
	if errGo := unmarshal(&vals); errGo == nil {
		if len(vals) != 3 {
			return fmt.Errorf("color needs three channels, got %d", len(vals))
		}
		*c = Clamp(vals[0], vals[1], vals[2])
		return nil
	}

	text := ""
	if errGo := unmarshal(&text); errGo != nil {
		return errGo
	}
	parsed, err := ParseColor(text)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
