package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/ledfx"
	"github.com/TeamNorCal/ledfx/model"
)

type discard struct{}

func (discard) Emit(group string, colors []model.RGB) errors.Error { return nil }

func consoleEngine(t *testing.T) *ledfx.Engine {
	reg, err := ledfx.NewRegistry([]model.Device{
		{Name: "shelf", NumPixels: 20},
		{Name: "ring", NumPixels: 12},
	})
	if err != nil {
		t.Fatal(err.Error())
	}
	quitC := make(chan struct{})
	t.Cleanup(func() { close(quitC) })

	eng, err := ledfx.NewEngine(reg, discard{}, nil, nil, nil, quitC)
	if err != nil {
		t.Fatal(err.Error())
	}
	return eng
}

func groupInfo(eng *ledfx.Engine, name string) (info model.GroupInfo) {
	for _, info = range eng.Groups() {
		if info.Name == name {
			return info
		}
	}
	return model.GroupInfo{}
}

func TestConsoleEffect(t *testing.T) {
	eng := consoleEngine(t)

	if _, _, err := execute(eng, "effect all strobe speed=0.05"); err != nil {
		t.Fatal(err.Error())
	}
	for _, name := range []string{"shelf", "ring"} {
		if info := groupInfo(eng, name); info.Active != model.Strobe {
			t.Errorf("%s is running %s", name, info.Active)
		}
	}

	if _, _, err := execute(eng, "effect ring candle speed"); err == nil {
		t.Fatal("parameter without a value accepted")
	}

	reply, _, err := execute(eng, "alloff")
	if err != nil {
		t.Fatal(err.Error())
	}
	if len(reply) == 0 || groupInfo(eng, "shelf").Active != model.None {
		t.Fatal("alloff did not stop the groups")
	}
}

func TestConsoleColor(t *testing.T) {
	eng := consoleEngine(t)

	if _, _, err := execute(eng, "color shelf 00ff00 0"); err != nil {
		t.Fatal(err.Error())
	}
	deadline := time.Now().Add(5 * time.Second)
	for eng.Store().Composite("shelf")[0] != (model.RGB{0, 255, 0}) {
		if time.Now().After(deadline) {
			t.Fatal("color was not applied")
		}
		time.Sleep(2 * time.Millisecond)
	}

	if _, _, err := execute(eng, "color shelf puce"); err == nil {
		t.Fatal("bad color accepted")
	}
	if _, _, err := execute(eng, "color attic 1,2,3"); err == nil {
		t.Fatal("unknown group accepted")
	}
}

func TestConsoleRangeAndGroups(t *testing.T) {
	eng := consoleEngine(t)

	if _, _, err := execute(eng, "range ring 2 5"); err != nil {
		t.Fatal(err.Error())
	}
	if info := groupInfo(eng, "ring"); info.Start != 2 || info.End != 5 {
		t.Fatalf("ring is %d-%d", info.Start, info.End)
	}
	if _, _, err := execute(eng, "range ring 5 2"); err == nil {
		t.Fatal("inverted range accepted")
	}
	if _, _, err := execute(eng, "range ring two 5"); err == nil {
		t.Fatal("non numeric range accepted")
	}

	reply, _, err := execute(eng, "groups")
	if err != nil {
		t.Fatal(err.Error())
	}
	if !strings.Contains(reply, "shelf") || !strings.Contains(reply, "ring") {
		t.Fatalf("groups listed as %q", reply)
	}
}

func TestConsoleFavorites(t *testing.T) {
	eng := consoleEngine(t)

	reply, _, err := execute(eng, "favorites '#ff0000' '0, 0, 255'")
	if err != nil {
		t.Fatal(err.Error())
	}
	if reply != "[255,0,0] [0,0,255]" {
		t.Fatalf("favorites listed as %q", reply)
	}
	if favs := eng.Favorites(); len(favs) != 2 {
		t.Fatalf("%d favorites", len(favs))
	}
}

func TestConsoleSession(t *testing.T) {
	eng := consoleEngine(t)

	in := strings.NewReader("help\nbogus\n\nquit\ngroups\n")
	out := &bytes.Buffer{}
	runConsole(eng, in, out)

	text := out.String()
	if !strings.Contains(text, "commands:") {
		t.Fatal("help was not printed")
	}
	if !strings.Contains(text, "unknown command bogus") {
		t.Fatal("unknown command was not reported")
	}
	if strings.Contains(text, "shelf") {
		t.Fatal("commands after quit were run")
	}
}
