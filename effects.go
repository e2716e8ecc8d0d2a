package ledfx

// Implementations of the effects that can run on a group.  Each one loops
// until its task is superseded, sleeping between ticks and writing frames
// only through the task handle

import (
	"math"
	"math/rand"
	"time"

	"github.com/TeamNorCal/ledfx/model"
)

const (
	frameDelay = time.Second / FrameRate

	candleFade        = 100 * time.Millisecond
	gradientTick      = 50 * time.Millisecond
	gradientFlipEvery = 5 * time.Second
	snakeLength       = 10
)

var (
	cyclePalette = []model.RGB{
		{255, 0, 0},
		{0, 255, 0},
		{0, 0, 255},
		{255, 255, 0},
		{0, 255, 255},
		{255, 0, 255},
	}

	starryDim = model.RGB{10, 10, 30}
)

// task binds typed parameters to the body of the matching effect
func (eng *Engine) task(params model.Params) TaskFunc {
	switch p := params.(type) {
	case model.FadeParams:
		return func(task *Task) { eng.fade(task, p.Color, p.Duration) }
	case model.ColorCycleParams:
		return func(task *Task) { eng.colorCycle(task, p) }
	case model.PulsateParams:
		return func(task *Task) { eng.pulsate(task, p) }
	case model.StarryNightParams:
		return func(task *Task) { eng.starryNight(task, p) }
	case model.CandleParams:
		return func(task *Task) { eng.candle(task, p) }
	case model.CandleGradientParams:
		return func(task *Task) { eng.candleGradient(task, p) }
	case model.StrobeParams:
		return func(task *Task) { eng.strobe(task, p) }
	case model.GradientWaveParams:
		return func(task *Task) { eng.gradientWave(task, p) }
	case model.SnakeParams:
		return func(task *Task) { eng.snake(task, p) }
	case model.FavoriteCycleParams:
		return func(task *Task) { eng.favoriteCycle(task, p) }
	case model.FavoriteJumpParams:
		return func(task *Task) { eng.favoriteJump(task, p) }
	}
	return nil
}

// fadeStep is the base color at step i of a fade lasting steps frames
func fadeStep(from, to model.RGB, i int, steps int) model.RGB {
	return model.Lerp(from, to, float64(i)/float64(steps))
}

// fade moves the base color from its current value to target at FrameRate,
// landing exactly on target.  Returns false if the task was superseded.
func (eng *Engine) fade(task *Task, target model.RGB, duration time.Duration) bool {
	from := model.Black
	if !task.Read(func(f Frame) { from = f.Base() }) {
		return false
	}

	steps := int(duration.Seconds() * FrameRate)
	if steps <= 0 {
		// Instant change, still yield one frame so that looping callers
		// cannot spin
		return task.Apply(func(f Frame) { f.SetBase(target) }) && task.Sleep(frameDelay)
	}
	for i := 0; i < steps; i++ {
		c := fadeStep(from, target, i, steps)
		if !task.Apply(func(f Frame) { f.SetBase(c) }) {
			eng.logger.Debug("fade interrupted", "group", task.Group())
			return false
		}
		if !task.Sleep(frameDelay) {
			return false
		}
	}
	return task.Apply(func(f Frame) { f.SetBase(target) })
}

// vibrant pulls a color toward its own luma and darkens it, by vibrancy/255
func vibrant(c model.RGB, vibrancy int) model.RGB {
	factor := float64(vibrancy) / 255.0
	luma := float64(int(0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)))
	ch := func(v uint8) int {
		return int((luma + (float64(v)-luma)*factor) * factor)
	}
	return model.Clamp(ch(c.R), ch(c.G), ch(c.B))
}

func (eng *Engine) colorCycle(task *Task, p model.ColorCycleParams) {
	for idx := 0; ; idx = (idx + 1) % len(cyclePalette) {
		if !eng.fade(task, vibrant(cyclePalette[idx], p.Vibrancy), p.Speed) {
			return
		}
	}
}

func (eng *Engine) pulsate(task *Task, p model.PulsateParams) {
	lo, hi := clampInt(p.Min, 0, 255), clampInt(p.Max, 0, 255)
	if lo > hi {
		lo, hi = hi, lo
	}

	base := model.Black
	if !task.Read(func(f Frame) { base = f.Base() }) {
		return
	}

	step := func(brightness int) bool {
		c := base.Scale(float64(brightness) / 255.0)
		if !task.Apply(func(f Frame) { f.SetBase(c) }) {
			return false
		}
		return task.Sleep(p.Speed / 100)
	}

	for {
		for b := lo; b <= hi; b += 5 {
			if !step(b) {
				return
			}
		}
		for b := hi; b >= lo; b -= 5 {
			if !step(b) {
				return
			}
		}
	}
}

func (eng *Engine) starryNight(task *Task, p model.StarryNightParams) {
	if !task.Apply(func(f Frame) { f.SetBase(starryDim) }) {
		return
	}

	for {
		twinkle := []int{}
		lit := task.Apply(func(f Frame) {
			pixels := f.Pixels()
			count := len(pixels) / 10
			if count < 1 {
				count = 1
			}
			for _, idx := range rand.Perm(len(pixels))[:count] {
				twinkle = append(twinkle, pixels[idx])
				f.SetOverride(pixels[idx], model.White)
			}
		})
		if !lit || !task.Sleep(p.Speed/2) {
			return
		}

		if !task.Apply(func(f Frame) {
			for _, pixel := range twinkle {
				f.ClearOverride(pixel)
			}
		}) {
			return
		}
		if !task.Sleep(p.Speed) {
			return
		}
	}
}

// wallSeconds is used as the time base of the slow waves so that groups
// running the same effect stay in phase
func wallSeconds() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// wave is a sine of the given period evaluated at t, flat when the period
// is not positive
func wave(t float64, period time.Duration) float64 {
	if period <= 0 {
		return 0
	}
	return math.Sin(2 * math.Pi * t / period.Seconds())
}

func uniform(lo, hi float64) float64 {
	return lo + rand.Float64()*(hi-lo)
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// candleColor is the flickered color for a base and flicker factor, green
// is held nearly steady to keep the flame warm
func candleColor(base model.RGB, factor float64) model.RGB {
	return model.Clamp(
		int(float64(base.R)*factor),
		int(float64(base.G)*(0.95+0.05*factor)),
		int(float64(base.B)*factor),
	)
}

func (eng *Engine) candle(task *Task, p model.CandleParams) {
	for {
		factor := p.Intensity * (1.0 + 0.2*wave(wallSeconds(), p.Speed)) * uniform(0.95, 1.05)
		factor = clampFloat(factor, 0.7, 1.5)

		if !eng.fade(task, candleColor(p.Base, factor), candleFade) {
			return
		}
		if !task.Sleep(p.Speed) {
			return
		}
	}
}

func (eng *Engine) candleGradient(task *Task, p model.CandleGradientParams) {
	direction := 1.0
	lastFlip := time.Now()

	for {
		if time.Since(lastFlip) > gradientFlipEvery {
			if rand.Float64() < 0.5 {
				direction = -direction
			}
			lastFlip = time.Now()
		}

		now := wallSeconds()
		global := p.Intensity * (1.0 + 0.2*wave(now, p.Speed) + uniform(-0.15, 0.15))
		phase := now * p.GradientSpeed * direction

		if !task.Apply(func(f Frame) {
			pixels := f.Pixels()
			for idx, pixel := range pixels {
				local := 1.0 + p.GradientAmplitude*math.Sin(2*math.Pi*(position(idx, len(pixels))+phase)) + uniform(-0.1, 0.1)
				f.SetOverride(pixel, p.Base.Scale(clampFloat(global*local, 0.7, 1.8)))
			}
		}) {
			return
		}
		if !task.Sleep(gradientTick) {
			return
		}
	}
}

// position maps a pixel index onto [0,1] along the group
func position(idx int, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(idx) / float64(n-1)
}

func (eng *Engine) strobe(task *Task, p model.StrobeParams) {
	for {
		for _, c := range []model.RGB{model.White, model.Black} {
			if !task.Apply(func(f Frame) { f.SetBase(c) }) {
				return
			}
			if !task.Sleep(p.Speed / 2) {
				return
			}
		}
	}
}

// waveBrightness is the brightness of a pixel at pos along the group, the
// ramp runs one way during the low half of the wave and the other way after
func waveBrightness(pos float64, phase float64) float64 {
	const low, high = 0.2, 1.0
	if phase < 0.5 {
		return high - (high-low)*pos
	}
	return low + (high-low)*pos
}

func (eng *Engine) gradientWave(task *Task, p model.GradientWaveParams) {
	base := model.Black
	if !task.Read(func(f Frame) { base = f.Base() }) {
		return
	}

	for {
		phase := 0.5 * (1 + wave(wallSeconds(), p.Speed))
		if !task.Apply(func(f Frame) {
			pixels := f.Pixels()
			for idx, pixel := range pixels {
				f.SetOverride(pixel, base.Scale(waveBrightness(position(idx, len(pixels)), phase)))
			}
		}) {
			return
		}
		if !task.Sleep(gradientTick) {
			return
		}
	}
}

// snakeFrame lays the snake with its head at pos over pixels
func snakeFrame(f Frame, pixels []int, pos int) {
	for idx, pixel := range pixels {
		dist := pos - idx
		if dist < 0 || dist >= snakeLength {
			f.ClearOverride(pixel)
			continue
		}
		factor := 1 - float64(dist)/snakeLength
		hue := float64((pos * 10) % 360)
		f.SetOverride(pixel, model.HSV(hue, 1.0, factor))
	}
}

func (eng *Engine) snake(task *Task, p model.SnakeParams) {
	for {
		n := 0
		if !task.Read(func(f Frame) { n = len(f.Pixels()) }) {
			return
		}
		for pos := 0; pos < n+snakeLength; pos++ {
			if !task.Apply(func(f Frame) { snakeFrame(f, f.Pixels(), pos) }) {
				return
			}
			if !task.Sleep(p.Speed / 20) {
				return
			}
		}
		if !task.Apply(func(f Frame) { f.ClearOverrides() }) {
			return
		}
	}
}

func (eng *Engine) favoriteCycle(task *Task, p model.FavoriteCycleParams) {
	if len(eng.Favorites()) == 0 {
		eng.logger.Debug("no favorites, nothing to cycle", "group", task.Group())
		return
	}

	for idx := 0; ; idx++ {
		favs := eng.Favorites()
		if len(favs) == 0 {
			// The list was emptied while running, hold the current color
			if !task.Sleep(p.Speed) {
				return
			}
			continue
		}
		if !eng.fade(task, favs[idx%len(favs)], p.Speed) {
			return
		}
	}
}

func (eng *Engine) favoriteJump(task *Task, p model.FavoriteJumpParams) {
	if len(eng.Favorites()) == 0 {
		eng.logger.Debug("no favorites, nothing to jump between", "group", task.Group())
		return
	}

	// Groups are phase shifted by their position so neighbours differ
	idx, err := eng.reg.Position(task.Group())
	if err != nil {
		idx = 0
	}

	for ; ; idx++ {
		if favs := eng.Favorites(); len(favs) != 0 {
			c := favs[idx%len(favs)]
			if !task.Apply(func(f Frame) { f.SetBase(c) }) {
				return
			}
		}
		if !task.Sleep(p.Speed) {
			return
		}
	}
}
