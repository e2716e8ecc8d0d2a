package model

// This module defines the closed set of effects that can run on a group along
// with the parameters each one accepts

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"
)

// Kind identifies an effect
type Kind int

const (
	None Kind = iota
	Fade
	ColorCycle
	Pulsate
	StarryNight
	Candle
	CandleGradient
	Strobe
	GradientWave
	Snake
	FavoriteCycle
	FavoriteJump
)

var kindNames = map[Kind]string{
	None:           "none",
	Fade:           "fade",
	ColorCycle:     "color_cycle",
	Pulsate:        "pulsate",
	StarryNight:    "starry_night",
	Candle:         "candle",
	CandleGradient: "candle_gradient",
	Strobe:         "strobe",
	GradientWave:   "gradient_wave",
	Snake:          "snake",
	FavoriteCycle:  "favorite_cycle",
	FavoriteJump:   "favorite_jump",
}

func (k Kind) String() string {
	if name, isPresent := kindNames[k]; isPresent {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// KindFromName maps the external effect name onto a Kind, returning false for
// names that are not known
func KindFromName(name string) (Kind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "candle_v2" {
		return Candle, true
	}
	for k, n := range kindNames {
		if k != None && n == name {
			return k, true
		}
	}
	return None, false
}

const (
	DefaultSpeed        = 200 * time.Millisecond
	DefaultFadeDuration = 2 * time.Second

	// MaxSeconds bounds any duration given to an effect
	MaxSeconds = 24 * 60 * 60
	// MaxNumber bounds the magnitude of other numeric settings
	MaxNumber = 1e6
)

// DefaultCandleColor is a warm yellow/orange
var DefaultCandleColor = RGB{255, 147, 41}

// Params is implemented by the parameter record of every effect
type Params interface {
	Kind() Kind
}

type FadeParams struct {
	Color    RGB
	Duration time.Duration
}

type ColorCycleParams struct {
	Speed    time.Duration // time spent fading to each palette entry
	Vibrancy int           // 0-255, 255 keeps the palette fully saturated
}

type PulsateParams struct {
	Speed    time.Duration
	Min, Max int // brightness bounds, 0-255
}

type StarryNightParams struct {
	Speed time.Duration
}

type CandleParams struct {
	Speed     time.Duration
	Intensity float64
	Base      RGB
}

type CandleGradientParams struct {
	Speed             time.Duration
	Intensity         float64
	GradientAmplitude float64
	GradientSpeed     float64
	Base              RGB
}

type StrobeParams struct {
	Speed time.Duration
}

type GradientWaveParams struct {
	Speed time.Duration
}

type SnakeParams struct {
	Speed time.Duration
}

type FavoriteCycleParams struct {
	Speed time.Duration
}

type FavoriteJumpParams struct {
	Speed time.Duration
}

func (FadeParams) Kind() Kind           { return Fade }
func (ColorCycleParams) Kind() Kind     { return ColorCycle }
func (PulsateParams) Kind() Kind        { return Pulsate }
func (StarryNightParams) Kind() Kind    { return StarryNight }
func (CandleParams) Kind() Kind         { return Candle }
func (CandleGradientParams) Kind() Kind { return CandleGradient }
func (StrobeParams) Kind() Kind         { return Strobe }
func (GradientWaveParams) Kind() Kind   { return GradientWave }
func (SnakeParams) Kind() Kind          { return Snake }
func (FavoriteCycleParams) Kind() Kind  { return FavoriteCycle }
func (FavoriteJumpParams) Kind() Kind   { return FavoriteJump }

// Args are the loosely typed key/value settings supplied by a caller for an
// effect, speed is expressed in seconds
type Args map[string]string

func (args Args) seconds(key string, def time.Duration) (time.Duration, errors.Error) {
	text, isPresent := args[key]
	if !isPresent {
		return def, nil
	}
	v, errGo := strconv.ParseFloat(text, 64)
	if errGo != nil || math.IsNaN(v) || v < 0 || v > MaxSeconds {
		return def, errors.Wrap(ErrBadParam).With(key, text).With("stack", stack.Trace().TrimRuntime())
	}
	return time.Duration(v * float64(time.Second)), nil
}

func (args Args) number(key string, def float64) (float64, errors.Error) {
	text, isPresent := args[key]
	if !isPresent {
		return def, nil
	}
	v, errGo := strconv.ParseFloat(text, 64)
	if errGo != nil || math.IsNaN(v) || math.Abs(v) > MaxNumber {
		return def, errors.Wrap(ErrBadParam).With(key, text).With("stack", stack.Trace().TrimRuntime())
	}
	return v, nil
}

func (args Args) integer(key string, def int) (int, errors.Error) {
	v, err := args.number(key, float64(def))
	return int(v), err
}

func (args Args) color(key string, def RGB) (RGB, errors.Error) {
	text, isPresent := args[key]
	if !isPresent {
		return def, nil
	}
	return ParseColor(text)
}

// ParseParams builds the typed parameter record for the named effect.
// An unknown effect name is reported through ErrUnknownEffect so that callers
// can choose to ignore it.
func ParseParams(name string, args Args) (params Params, err errors.Error) {
	kind, isPresent := KindFromName(name)
	if !isPresent {
		return nil, errors.Wrap(ErrUnknownEffect).With("effect", name).With("stack", stack.Trace().TrimRuntime())
	}

	speed, err := args.seconds("speed", DefaultSpeed)
	if err != nil {
		return nil, err
	}

	switch kind {
	case Fade:
		p := FadeParams{}
		if p.Color, err = args.color("color", White); err != nil {
			return nil, err
		}
		if p.Duration, err = args.seconds("duration", DefaultFadeDuration); err != nil {
			return nil, err
		}
		return p, nil
	case ColorCycle:
		p := ColorCycleParams{Speed: speed}
		if p.Vibrancy, err = args.integer("vibrancy", 255); err != nil {
			return nil, err
		}
		return p, nil
	case Pulsate:
		p := PulsateParams{Speed: speed}
		if p.Min, err = args.integer("pulsate_min", 0); err != nil {
			return nil, err
		}
		if p.Max, err = args.integer("pulsate_max", 255); err != nil {
			return nil, err
		}
		return p, nil
	case StarryNight:
		return StarryNightParams{Speed: speed}, nil
	case Candle:
		p := CandleParams{Speed: speed}
		if p.Intensity, err = args.number("intensity", 1.0); err != nil {
			return nil, err
		}
		if p.Base, err = args.color("candle_base_color", DefaultCandleColor); err != nil {
			return nil, err
		}
		return p, nil
	case CandleGradient:
		p := CandleGradientParams{Speed: speed}
		if p.Intensity, err = args.number("intensity", 1.0); err != nil {
			return nil, err
		}
		if p.GradientAmplitude, err = args.number("gradient_amplitude", 0.5); err != nil {
			return nil, err
		}
		if p.GradientSpeed, err = args.number("gradient_speed", 0.5); err != nil {
			return nil, err
		}
		if p.Base, err = args.color("candle_base_color", DefaultCandleColor); err != nil {
			return nil, err
		}
		return p, nil
	case Strobe:
		return StrobeParams{Speed: speed}, nil
	case GradientWave:
		return GradientWaveParams{Speed: speed}, nil
	case Snake:
		return SnakeParams{Speed: speed}, nil
	case FavoriteCycle:
		return FavoriteCycleParams{Speed: speed}, nil
	case FavoriteJump:
		return FavoriteJumpParams{Speed: speed}, nil
	}
	return nil, errors.Wrap(ErrUnknownEffect).With("effect", name).With("stack", stack.Trace().TrimRuntime())
}
