package ledfx

// This module contains the registry of addressable zones (groups).  The set of
// groups is fixed when the registry is built, only the pixel range of a group
// can be changed afterwards

import (
	"fmt"
	"sync"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/ledfx/model"
)

// zone holds everything known about one group.  All fields below the name
// are guarded by the embedded mutex, which is also the lock the scheduler
// uses to install a new generation, so frame mutation, compositing and
// emission for a tick can never interleave with a start or stop
type zone struct {
	name     string
	position int // index of the group in configuration order
	capacity int // pixels physically present on the device

	start, end int // active pixel range, inclusive

	base      model.RGB
	overrides map[int]model.RGB

	active     model.Kind
	generation uint64
	superseded chan struct{} // closed when generation moves on

	sync.Mutex
}

// Registry is the ordered set of groups known to the engine
type Registry struct {
	zones  []*zone
	byName map[string]*zone
}

// NewRegistry creates a registry from device descriptions, the order of the
// devices becomes the order of the groups
func NewRegistry(devices []model.Device) (reg *Registry, err errors.Error) {
	reg = &Registry{
		zones:  make([]*zone, 0, len(devices)),
		byName: make(map[string]*zone, len(devices)),
	}
	for i, dev := range devices {
		if len(dev.Name) == 0 {
			return nil, errors.New("group has no name").With("position", i).With("stack", stack.Trace().TrimRuntime())
		}
		if _, isPresent := reg.byName[dev.Name]; isPresent {
			return nil, errors.New("duplicate group").With("group", dev.Name).With("stack", stack.Trace().TrimRuntime())
		}
		if dev.NumPixels <= 0 {
			return nil, errors.Wrap(model.ErrInvalidRange).With("group", dev.Name).With("num_pixels", dev.NumPixels).With("stack", stack.Trace().TrimRuntime())
		}
		z := &zone{
			name:       dev.Name,
			position:   i,
			capacity:   dev.NumPixels,
			start:      0,
			end:        dev.NumPixels - 1,
			overrides:  map[int]model.RGB{},
			superseded: make(chan struct{}),
		}
		reg.zones = append(reg.zones, z)
		reg.byName[z.name] = z
	}
	return reg, nil
}

func (reg *Registry) lookup(group string) (z *zone, err errors.Error) {
	z, isPresent := reg.byName[group]
	if !isPresent {
		return nil, errors.Wrap(model.ErrUnknownGroup).With("group", group).With("stack", stack.Trace().TrimRuntime())
	}
	return z, nil
}

// mustLookup is used where an unknown group can only be a programming error
func (reg *Registry) mustLookup(group string) (z *zone) {
	z, isPresent := reg.byName[group]
	if !isPresent {
		panic(fmt.Sprintf("group %q is not registered", group))
	}
	return z
}

// Names returns the group names in configuration order
func (reg *Registry) Names() (names []string) {
	names = make([]string, 0, len(reg.zones))
	for _, z := range reg.zones {
		names = append(names, z.name)
	}
	return names
}

// Position is the index of the group in configuration order
func (reg *Registry) Position(group string) (pos int, err errors.Error) {
	z, err := reg.lookup(group)
	if err != nil {
		return -1, err
	}
	return z.position, nil
}

// Reconfigure replaces the active pixel range of a group.  Overrides on
// pixels that fall outside the new range are dropped.
func (reg *Registry) Reconfigure(group string, start int, end int) (err errors.Error) {
	return reg.reconfigure(group, start, end, nil)
}

// reconfigure runs placed, when given, inside the same critical section as
// the range change so that no frame is emitted with the new range at the old
// hardware offset
func (reg *Registry) reconfigure(group string, start int, end int, placed func()) (err errors.Error) {
	z, err := reg.lookup(group)
	if err != nil {
		return err
	}
	if start < 0 || end >= z.capacity || start > end {
		return errors.Wrap(model.ErrInvalidRange).With("group", group).With("start", start).With("end", end).
			With("num_pixels", z.capacity).With("stack", stack.Trace().TrimRuntime())
	}

	z.Lock()
	defer z.Unlock()

	z.start, z.end = start, end
	for pixel := range z.overrides {
		if pixel < start || pixel > end {
			delete(z.overrides, pixel)
		}
	}
	if placed != nil {
		placed()
	}
	return nil
}

// Groups returns a snapshot of every group, in configuration order
func (reg *Registry) Groups() (infos []model.GroupInfo) {
	infos = make([]model.GroupInfo, 0, len(reg.zones))
	for _, z := range reg.zones {
		z.Lock()
		infos = append(infos, model.GroupInfo{
			Name:   z.name,
			Start:  z.start,
			End:    z.end,
			Active: z.active,
		})
		z.Unlock()
	}
	return infos
}
