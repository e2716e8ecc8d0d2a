package ledfx

// Loading of the daemon configuration, groups, transports and timing

import (
	"io/ioutil"
	"strings"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"gopkg.in/yaml.v2"

	"github.com/TeamNorCal/ledfx/model"
)

const (
	DefaultArtNetPort = 6454
	DefaultRefresh    = time.Second
	DefaultSPISpeedHz = 8000000
)

// Config is the on disk configuration
type Config struct {
	// Comma separated list of artnet, opc and dotstar
	Transport string `yaml:"transport"`

	ArtNetPort int    `yaml:"artnet_port"`
	OPCServer  string `yaml:"opc_server"`

	SPIPort     string `yaml:"spi_port"`
	SPISpeedHz  int64  `yaml:"spi_speed_hz"`
	StripLength int    `yaml:"strip_length"`

	// Interval at which unchanged frames are sent again
	Refresh time.Duration `yaml:"refresh"`

	Favorites string `yaml:"favorites"`

	Groups []model.Device `yaml:"groups"`
}

// Transports returns the selected transports, lower cased
func (cfg *Config) Transports() (names []string) {
	for _, name := range strings.Split(cfg.Transport, ",") {
		if name = strings.ToLower(strings.TrimSpace(name)); len(name) != 0 {
			names = append(names, name)
		}
	}
	return names
}

// ParseConfig decodes a configuration and fills in defaults
func ParseConfig(body []byte) (cfg *Config, err errors.Error) {
	cfg = &Config{}
	if errGo := yaml.Unmarshal(body, cfg); errGo != nil {
		return nil, errors.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
	}

	if len(cfg.Transport) == 0 {
		cfg.Transport = "artnet"
	}
	if cfg.ArtNetPort == 0 {
		cfg.ArtNetPort = DefaultArtNetPort
	}
	if cfg.SPISpeedHz == 0 {
		cfg.SPISpeedHz = DefaultSPISpeedHz
	}
	if cfg.Refresh <= 0 {
		cfg.Refresh = DefaultRefresh
	}
	if len(cfg.Favorites) == 0 {
		cfg.Favorites = "favorites.yaml"
	}

	stripLength := 0
	for _, dev := range cfg.Groups {
		if end := dev.Offset + dev.NumPixels; end > stripLength {
			stripLength = end
		}
	}
	if cfg.StripLength < stripLength {
		cfg.StripLength = stripLength
	}

	for _, name := range cfg.Transports() {
		switch name {
		case "artnet", "opc", "dotstar":
		default:
			return nil, errors.New("unknown transport").With("transport", name).With("stack", stack.Trace().TrimRuntime())
		}
	}
	return cfg, nil
}

// LoadConfig reads and parses a configuration file
func LoadConfig(fn string) (cfg *Config, err errors.Error) {
	body, errGo := ioutil.ReadFile(fn)
	if errGo != nil {
		return nil, errors.Wrap(errGo).With("file", fn).With("stack", stack.Trace().TrimRuntime())
	}
	if cfg, err = ParseConfig(body); err != nil {
		return nil, err.With("file", fn)
	}
	return cfg, nil
}
