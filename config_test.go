package ledfx

import (
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/TeamNorCal/ledfx/model"
)

const testConfig = `
transport: artnet, dotstar
refresh: 500ms
groups:
  - name: shelf
    num_pixels: 20
    ip: 10.0.0.5
    universe: 2
  - name: ring
    num_pixels: 12
    offset: 20
    channel: 1
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(testConfig))
	if err != nil {
		t.Fatal(err.Error())
	}

	if names := cfg.Transports(); len(names) != 2 || names[0] != "artnet" || names[1] != "dotstar" {
		t.Fatalf("unexpected transports %v", names)
	}
	if cfg.Refresh != 500*time.Millisecond {
		t.Fatalf("refresh is %v", cfg.Refresh)
	}
	if cfg.ArtNetPort != DefaultArtNetPort || cfg.SPISpeedHz != DefaultSPISpeedHz || cfg.Favorites != "favorites.yaml" {
		t.Fatal("defaults were not applied")
	}
	if cfg.StripLength != 32 {
		t.Fatalf("strip length should cover every group, got %d", cfg.StripLength)
	}

	expected := []model.Device{
		{Name: "shelf", NumPixels: 20, IP: "10.0.0.5", Universe: 2},
		{Name: "ring", NumPixels: 12, Offset: 20, Channel: 1},
	}
	if len(cfg.Groups) != len(expected) {
		t.Fatalf("%d groups", len(cfg.Groups))
	}
	for i := range expected {
		if cfg.Groups[i] != expected[i] {
			t.Errorf("group %d is %+v", i, cfg.Groups[i])
		}
	}
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("groups: []\n"))
	if err != nil {
		t.Fatal(err.Error())
	}
	if cfg.Transport != "artnet" || cfg.Refresh != DefaultRefresh {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestParseConfigRejectsTransport(t *testing.T) {
	if _, err := ParseConfig([]byte("transport: carrier_pigeon\n")); err == nil {
		t.Fatal("unknown transport accepted")
	}
	if _, err := ParseConfig([]byte("groups: {")); err == nil {
		t.Fatal("malformed yaml accepted")
	}
}

func TestLoadConfig(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "ledfx.yaml")
	if errGo := ioutil.WriteFile(fn, []byte(testConfig), 0600); errGo != nil {
		t.Fatal(errGo)
	}
	if _, err := LoadConfig(fn); err != nil {
		t.Fatal(err.Error())
	}
	if _, err := LoadConfig(fn + ".missing"); err == nil {
		t.Fatal("missing file accepted")
	}
}
