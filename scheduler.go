package ledfx

// This module implements the effect scheduler.  Each group has a generation
// counter, starting or stopping an effect advances it under the group lock
// and every frame written by an effect task is checked against the
// generation the task was started with, under that same lock.  A task that
// has been superseded can therefore never write another frame.

import (
	"fmt"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"
	logxi "github.com/mgutz/logxi/v1"

	"github.com/TeamNorCal/ledfx/model"
)

// minTick is the shortest suspension between two ticks of a task
const minTick = time.Millisecond

// Token identifies one generation of effect on one group
type Token struct {
	Group      string
	Generation uint64
	Kind       model.Kind

	z          *zone
	superseded <-chan struct{}
}

// TaskFunc is the body of an effect, it returns when the task is superseded
// or when the effect has nothing more to do
type TaskFunc func(task *Task)

// Scheduler starts and cancels effect tasks, at most one task per group is
// current at any time
type Scheduler struct {
	reg    *Registry
	sink   Sink
	logger logxi.Logger
	errorC chan<- errors.Error
	quitC  <-chan struct{}
}

// NewScheduler creates a scheduler emitting into sink.  errorC is optional,
// when nil failures are only logged.  Closing quitC ends all tasks.
func NewScheduler(reg *Registry, sink Sink, logger logxi.Logger, errorC chan<- errors.Error, quitC <-chan struct{}) (sched *Scheduler) {
	return &Scheduler{
		reg:    reg,
		sink:   sink,
		logger: logger,
		errorC: errorC,
		quitC:  quitC,
	}
}

// advance must be called with the zone locked, it invalidates the running
// task if any and returns the token for the new generation
func (z *zone) advance(kind model.Kind) (tok Token) {
	z.generation++
	z.active = kind
	close(z.superseded)
	z.superseded = make(chan struct{})

	return Token{
		Group:      z.name,
		Generation: z.generation,
		Kind:       kind,
		z:          z,
		superseded: z.superseded,
	}
}

// Start installs a new generation for the group and launches fn bound to it.
// The previous task, if any, is not waited for.  Overrides left behind by the
// previous task are dropped in the same critical section, since that task
// can no longer clean up after itself.
func (sched *Scheduler) Start(group string, kind model.Kind, fn TaskFunc) (tok Token, err errors.Error) {
	z, err := sched.reg.lookup(group)
	if err != nil {
		return tok, err
	}

	z.Lock()
	tok = z.advance(kind)
	Frame{z: z}.ClearOverrides()
	z.Unlock()

	sched.logger.Info("effect started", "group", group, "effect", kind.String(), "generation", tok.Generation)

	go sched.run(&Task{sched: sched, tok: tok}, fn)

	return tok, nil
}

// Stop invalidates the running task without starting another.  The frame is
// left untouched.
func (sched *Scheduler) Stop(group string) (err errors.Error) {
	z, err := sched.reg.lookup(group)
	if err != nil {
		return err
	}

	z.Lock()
	tok := z.advance(model.None)
	z.Unlock()

	sched.logger.Info("effect stopped", "group", group, "generation", tok.Generation)
	return nil
}

// Blackout stops the group, drops all overrides, sets the base color to
// black and emits the result as a single step
func (sched *Scheduler) Blackout(group string) (err errors.Error) {
	z, err := sched.reg.lookup(group)
	if err != nil {
		return err
	}

	z.Lock()
	defer z.Unlock()

	z.advance(model.None)
	f := Frame{z: z}
	f.ClearOverrides()
	f.SetBase(model.Black)
	sched.emit(z)
	return nil
}

// Refresh emits the current composite of the group without changing it
func (sched *Scheduler) Refresh(group string) (err errors.Error) {
	z, err := sched.reg.lookup(group)
	if err != nil {
		return err
	}

	z.Lock()
	defer z.Unlock()

	sched.emit(z)
	return nil
}

// Valid is true while tok is the current generation of its group
func (sched *Scheduler) Valid(tok Token) bool {
	if tok.z == nil {
		return false
	}
	tok.z.Lock()
	defer tok.z.Unlock()
	return tok.z.generation == tok.Generation
}

// emit must be called with the zone locked
func (sched *Scheduler) emit(z *zone) {
	if sched.sink == nil {
		return
	}
	if err := sched.sink.Emit(z.name, z.composite()); err != nil {
		sched.report(err)
	}
}

func (sched *Scheduler) report(err errors.Error) {
	if sched.errorC == nil {
		sched.logger.Warn(err.Error())
		return
	}
	select {
	case sched.errorC <- err:
	case <-time.After(20 * time.Millisecond):
		sched.logger.Warn(err.Error())
	}
}

func (sched *Scheduler) run(task *Task, fn TaskFunc) {
	defer func() {
		if r := recover(); r != nil {
			sched.report(errors.New(fmt.Sprint("effect task failed: ", r)).With("group", task.tok.Group).
				With("effect", task.tok.Kind.String()).With("stack", stack.Trace().TrimRuntime()))
		}

		// An effect that finished by itself leaves the group idle but still
		// showing its last frame
		z := task.tok.z
		z.Lock()
		if z.generation == task.tok.Generation {
			z.active = model.None
		}
		z.Unlock()
	}()

	fn(task)
}

// Task is the handle an effect uses to reach its group's frame.  Every access
// is checked against the task's generation.
type Task struct {
	sched *Scheduler
	tok   Token
	next  time.Time
}

func (task *Task) Group() string {
	return task.tok.Group
}

// Valid is true while the task has not been superseded
func (task *Task) Valid() bool {
	return task.sched.Valid(task.tok)
}

// Read gives fn access to the frame without emitting anything.  Returns false,
// without calling fn, once the task has been superseded.
func (task *Task) Read(fn func(f Frame)) bool {
	z := task.tok.z
	z.Lock()
	defer z.Unlock()

	if z.generation != task.tok.Generation {
		return false
	}
	fn(Frame{z: z})
	return true
}

// Apply mutates the frame, composites and emits it as one critical section.
// A panic inside fn is logged and the tick skipped.  Returns false once the
// task has been superseded.
func (task *Task) Apply(fn func(f Frame)) bool {
	z := task.tok.z
	z.Lock()
	defer z.Unlock()

	if z.generation != task.tok.Generation {
		return false
	}

	if !task.tick(fn, Frame{z: z}) {
		return true
	}
	task.sched.emit(z)
	return true
}

func (task *Task) tick(fn func(f Frame), f Frame) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			task.sched.report(errors.New(fmt.Sprint("effect tick failed: ", r)).With("group", task.tok.Group).
				With("effect", task.tok.Kind.String()).With("stack", stack.Trace().TrimRuntime()))
			ok = false
		}
	}()
	fn(f)
	return true
}

// Sleep suspends the task until d after its previous deadline, so that
// repeated sleeps do not accumulate drift.  It wakes early and returns false
// when the task is superseded or the engine is shutting down.
func (task *Task) Sleep(d time.Duration) bool {
	if d < minTick {
		d = minTick
	}
	now := time.Now()
	if task.next.IsZero() || now.Sub(task.next) > d {
		// First sleep, or too far behind to catch up
		task.next = now
	}
	task.next = task.next.Add(d)

	timer := time.NewTimer(time.Until(task.next))
	defer timer.Stop()

	select {
	case <-timer.C:
		return task.Valid()
	case <-task.tok.superseded:
		return false
	case <-task.sched.quitC:
		return false
	}
}
