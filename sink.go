package ledfx

// This file contains the boundary between the effect engine and the output
// hardware.  Sinks are called while a group lock is held so they must not
// block for long, delivery is best effort

import (
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/ledfx/model"
)

// Sink accepts a composited buffer for a group and puts it on the wire
type Sink interface {
	Emit(group string, colors []model.RGB) (err errors.Error)
}

// Placement is implemented by sinks that address pixels absolutely on the
// hardware and so need to follow changes to a group's active range
type Placement interface {
	Place(group string, start int)
}

// FrameMsg is a copy of an emitted buffer
type FrameMsg struct {
	Group  string
	Colors []model.RGB
	At     time.Time
}

// Fanout broadcasts every frame to all of its sinks.  A failing sink does
// not prevent delivery to the others.
type Fanout []Sink

func (fan Fanout) Emit(group string, colors []model.RGB) (err errors.Error) {
	failed := 0
	for _, sink := range fan {
		if errSink := sink.Emit(group, colors); errSink != nil {
			if err == nil {
				err = errSink
			}
			failed++
		}
	}
	if err != nil && failed > 1 {
		err = err.With("failed_sinks", failed)
	}
	return err
}

func (fan Fanout) Place(group string, start int) {
	for _, sink := range fan {
		if placer, isOK := sink.(Placement); isOK {
			placer.Place(group, start)
		}
	}
}

// Tap relays copies of emitted frames to a channel for monitoring.  Frames
// are dropped when the receiver is not keeping up.
type Tap struct {
	C chan *FrameMsg
}

func NewTap(depth int) (tap *Tap) {
	return &Tap{
		C: make(chan *FrameMsg, depth),
	}
}

func (tap *Tap) Emit(group string, colors []model.RGB) (err errors.Error) {
	msg := &FrameMsg{
		Group:  group,
		Colors: append([]model.RGB(nil), colors...),
		At:     time.Now(),
	}
	select {
	case tap.C <- msg:
	default:
	}
	return nil
}

func transportError(errGo error, group string) (err errors.Error) {
	return errors.Wrap(model.ErrTransport).With("group", group).With("cause", errGo.Error()).With("stack", stack.Trace().TrimRuntime())
}
