package ledfx

import (
	"sync"
	"testing"
	"time"

	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/ledfx/model"
)

// recorder is a sink keeping every frame it is given
type recorder struct {
	frames map[string][][]model.RGB
	placed map[string]int
	sync.Mutex
}

func newRecorder() *recorder {
	return &recorder{
		frames: map[string][][]model.RGB{},
		placed: map[string]int{},
	}
}

func (rec *recorder) Emit(group string, colors []model.RGB) errors.Error {
	rec.Lock()
	defer rec.Unlock()
	rec.frames[group] = append(rec.frames[group], append([]model.RGB(nil), colors...))
	return nil
}

func (rec *recorder) Place(group string, start int) {
	rec.Lock()
	defer rec.Unlock()
	rec.placed[group] = start
}

func (rec *recorder) count(group string) int {
	rec.Lock()
	defer rec.Unlock()
	return len(rec.frames[group])
}

func (rec *recorder) all(group string) [][]model.RGB {
	rec.Lock()
	defer rec.Unlock()
	return append([][]model.RGB(nil), rec.frames[group]...)
}

// memFavorites keeps favorites in memory
type memFavorites struct {
	favs  []model.RGB
	saves int
	sync.Mutex
}

func (mem *memFavorites) Load() ([]model.RGB, errors.Error) {
	mem.Lock()
	defer mem.Unlock()
	return append([]model.RGB{}, mem.favs...), nil
}

func (mem *memFavorites) Save(favs []model.RGB) errors.Error {
	mem.Lock()
	defer mem.Unlock()
	mem.favs = append([]model.RGB{}, favs...)
	mem.saves++
	return nil
}

var testDevices = []model.Device{
	{Name: "shelf", NumPixels: 20},
	{Name: "ring", NumPixels: 12},
}

func testEngine(t *testing.T, favs []model.RGB) (*Engine, *recorder) {
	t.Helper()

	reg, err := NewRegistry(testDevices)
	if err != nil {
		t.Fatal(err.Error())
	}
	rec := newRecorder()
	quitC := make(chan struct{})
	eng, err := NewEngine(reg, rec, &memFavorites{favs: favs}, nil, nil, quitC)
	if err != nil {
		t.Fatal(err.Error())
	}
	t.Cleanup(func() { close(quitC) })
	return eng, rec
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func active(eng *Engine, group string) model.Kind {
	for _, info := range eng.Groups() {
		if info.Name == group {
			return info.Active
		}
	}
	return model.None
}

func overrides(eng *Engine, group string) (result map[int]model.RGB) {
	eng.Store().Update(group, func(f Frame) { result = f.Overrides() })
	return result
}
