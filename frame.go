package ledfx

// This module contains the frame store, a base color per group plus a sparse
// set of per pixel overrides, and the compositor that flattens them into the
// ordered buffer handed to a transport

import (
	"github.com/TeamNorCal/ledfx/model"
)

// Frame is the mutable view of one group's frame state.  A Frame is only
// valid inside the callback it was handed to, while the group lock is held.
type Frame struct {
	z *zone
}

// Base returns the color used for pixels without an override
func (f Frame) Base() model.RGB {
	return f.z.base
}

func (f Frame) SetBase(c model.RGB) {
	f.z.base = c
}

// Pixels returns the pixel indices currently owned by the group, in order
func (f Frame) Pixels() (pixels []int) {
	pixels = make([]int, 0, f.z.end-f.z.start+1)
	for pixel := f.z.start; pixel <= f.z.end; pixel++ {
		pixels = append(pixels, pixel)
	}
	return pixels
}

// Owns is true when the pixel is within the group's active range
func (f Frame) Owns(pixel int) bool {
	return pixel >= f.z.start && pixel <= f.z.end
}

// SetOverride pins a pixel to a color.  Pixels not owned by the group are
// ignored, a range change may have happened since the caller read Pixels.
func (f Frame) SetOverride(pixel int, c model.RGB) {
	if !f.Owns(pixel) {
		return
	}
	f.z.overrides[pixel] = c
}

func (f Frame) ClearOverride(pixel int) {
	delete(f.z.overrides, pixel)
}

func (f Frame) ClearOverrides() {
	for pixel := range f.z.overrides {
		delete(f.z.overrides, pixel)
	}
}

// Overrides returns a copy of the current override map
func (f Frame) Overrides() (overrides map[int]model.RGB) {
	overrides = make(map[int]model.RGB, len(f.z.overrides))
	for pixel, c := range f.z.overrides {
		overrides[pixel] = c
	}
	return overrides
}

// composite must be called with the zone locked
func (z *zone) composite() (colors []model.RGB) {
	colors = make([]model.RGB, 0, z.end-z.start+1)
	for pixel := z.start; pixel <= z.end; pixel++ {
		if c, isPresent := z.overrides[pixel]; isPresent {
			colors = append(colors, c)
			continue
		}
		colors = append(colors, z.base)
	}
	return colors
}

// FrameStore gives locked access to the frame state of registered groups.
// Referencing a group that is not registered is a programming error and
// panics.
type FrameStore struct {
	reg *Registry
}

func NewFrameStore(reg *Registry) (store *FrameStore) {
	return &FrameStore{reg: reg}
}

// Update runs fn against the group's frame while holding the group lock
func (store *FrameStore) Update(group string, fn func(f Frame)) {
	z := store.reg.mustLookup(group)
	z.Lock()
	defer z.Unlock()
	fn(Frame{z: z})
}

func (store *FrameStore) SetBase(group string, c model.RGB) {
	store.Update(group, func(f Frame) { f.SetBase(c) })
}

func (store *FrameStore) SetOverride(group string, pixel int, c model.RGB) {
	store.Update(group, func(f Frame) { f.SetOverride(pixel, c) })
}

func (store *FrameStore) ClearOverride(group string, pixel int) {
	store.Update(group, func(f Frame) { f.ClearOverride(pixel) })
}

func (store *FrameStore) ClearOverrides(group string) {
	store.Update(group, func(f Frame) { f.ClearOverrides() })
}

// Composite returns a consistent snapshot of the group's pixels in index
// order, each one being its override if present or the base color otherwise
func (store *FrameStore) Composite(group string) (colors []model.RGB) {
	z := store.reg.mustLookup(group)
	z.Lock()
	defer z.Unlock()
	return z.composite()
}
