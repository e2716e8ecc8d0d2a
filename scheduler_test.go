package ledfx

import (
	"testing"
	"time"

	"github.com/TeamNorCal/ledfx/model"
)

func TestSupersededTaskStopsWriting(t *testing.T) {
	eng, rec := testEngine(t, nil)

	if err := eng.StartEffect([]string{"shelf"}, model.StrobeParams{Speed: 2 * time.Millisecond}); err != nil {
		t.Fatal(err.Error())
	}
	waitFor(t, "strobe frames", func() bool { return rec.count("shelf") > 5 })

	marker := model.RGB{1, 2, 3}
	tok, err := eng.Scheduler().Start("shelf", model.Fade, func(task *Task) {
		task.Apply(func(f Frame) { f.SetBase(marker) })
	})
	if err != nil {
		t.Fatal(err.Error())
	}
	if tok.Generation < 2 {
		t.Fatalf("generation did not advance, %d", tok.Generation)
	}
	waitFor(t, "second task to finish", func() bool { return active(eng, "shelf") == model.None })

	count := rec.count("shelf")
	time.Sleep(40 * time.Millisecond)
	if got := rec.count("shelf"); got != count {
		t.Fatalf("superseded strobe kept writing, %d frames became %d", count, got)
	}
	if got := eng.Store().Composite("shelf")[0]; got != marker {
		t.Fatalf("frame was overwritten after supersession, got %s", got)
	}
}

func TestStopInvalidatesWithoutClearing(t *testing.T) {
	eng, rec := testEngine(t, nil)

	if err := eng.StartEffect([]string{"ring"}, model.SnakeParams{Speed: 20 * time.Millisecond}); err != nil {
		t.Fatal(err.Error())
	}
	waitFor(t, "snake frames", func() bool { return rec.count("ring") > 3 })

	if err := eng.Scheduler().Stop("ring"); err != nil {
		t.Fatal(err.Error())
	}
	if active(eng, "ring") != model.None {
		t.Fatal("group still reports an active effect after stop")
	}

	count := rec.count("ring")
	before := eng.Store().Composite("ring")
	time.Sleep(30 * time.Millisecond)
	if got := rec.count("ring"); got != count {
		t.Fatalf("stopped task kept writing, %d frames became %d", count, got)
	}
	after := eng.Store().Composite("ring")
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("frame changed at pixel %d after stop", i)
		}
	}
}

func TestStartClearsOverridesOfPreviousTask(t *testing.T) {
	eng, rec := testEngine(t, nil)

	eng.Store().SetOverride("shelf", 3, model.White)
	if _, err := eng.Scheduler().Start("shelf", model.Strobe, func(task *Task) {}); err != nil {
		t.Fatal(err.Error())
	}
	if len(overrides(eng, "shelf")) != 0 {
		t.Fatal("overrides survived the start of a new generation")
	}
	if rec.count("shelf") != 0 {
		t.Fatal("start alone should not emit")
	}
}

func TestPanickingTickIsContained(t *testing.T) {
	eng, _ := testEngine(t, nil)

	marker := model.RGB{9, 8, 7}
	_, err := eng.Scheduler().Start("shelf", model.Fade, func(task *Task) {
		if !task.Apply(func(f Frame) { panic("boom") }) {
			return
		}
		task.Apply(func(f Frame) { f.SetBase(marker) })
	})
	if err != nil {
		t.Fatal(err.Error())
	}
	waitFor(t, "task to finish", func() bool { return active(eng, "shelf") == model.None })

	if got := eng.Store().Composite("shelf")[0]; got != marker {
		t.Fatalf("task did not continue past the failed tick, got %s", got)
	}
}

func TestSleepWakesOnSupersession(t *testing.T) {
	eng, _ := testEngine(t, nil)

	woke := make(chan bool, 1)
	if _, err := eng.Scheduler().Start("ring", model.Strobe, func(task *Task) {
		woke <- task.Sleep(time.Hour)
	}); err != nil {
		t.Fatal(err.Error())
	}
	if err := eng.Scheduler().Stop("ring"); err != nil {
		t.Fatal(err.Error())
	}

	select {
	case ok := <-woke:
		if ok {
			t.Fatal("sleep reported the task as still current")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sleep did not wake on supersession")
	}
}

func TestStartUnknownGroup(t *testing.T) {
	eng, _ := testEngine(t, nil)

	if _, err := eng.Scheduler().Start("attic", model.Strobe, func(task *Task) {}); err == nil {
		t.Fatal("unknown group accepted")
	}
	if err := eng.Scheduler().Stop("attic"); err == nil {
		t.Fatal("unknown group accepted by stop")
	}
}
