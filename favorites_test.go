package ledfx

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/TeamNorCal/ledfx/model"
)

func TestFavoritesFileSeedsDefaults(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "favorites.yaml")
	store := NewFavoritesFile(fn)

	favs, err := store.Load()
	if err != nil {
		t.Fatal(err.Error())
	}
	if len(favs) != len(DefaultFavorites) {
		t.Fatalf("%d favorites seeded", len(favs))
	}
	if _, errGo := ioutil.ReadFile(fn); errGo != nil {
		t.Fatalf("defaults were not written, %v", errGo)
	}
}

func TestFavoritesFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "favorites.yaml")
	store := NewFavoritesFile(fn)

	saved := []model.RGB{{1, 2, 3}, {255, 147, 41}}
	if err := store.Save(saved); err != nil {
		t.Fatal(err.Error())
	}
	loaded, err := NewFavoritesFile(fn).Load()
	if err != nil {
		t.Fatal(err.Error())
	}
	if len(loaded) != 2 || loaded[0] != saved[0] || loaded[1] != saved[1] {
		t.Fatalf("loaded %v", loaded)
	}

	// Nothing is left behind from the atomic replace
	entries, errGo := ioutil.ReadDir(dir)
	if errGo != nil {
		t.Fatal(errGo)
	}
	if len(entries) != 1 {
		t.Fatalf("%d files in the favorites directory", len(entries))
	}
}

func TestFavoritesFileHexColors(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "favorites.yaml")
	if errGo := ioutil.WriteFile(fn, []byte("- '#ff0000'\n- [0, 0, 255]\n"), 0600); errGo != nil {
		t.Fatal(errGo)
	}
	favs, err := NewFavoritesFile(fn).Load()
	if err != nil {
		t.Fatal(err.Error())
	}
	if len(favs) != 2 || favs[0] != (model.RGB{255, 0, 0}) || favs[1] != (model.RGB{0, 0, 255}) {
		t.Fatalf("loaded %v", favs)
	}
}
