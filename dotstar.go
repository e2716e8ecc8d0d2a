package ledfx

// This file contains a transport for a single APA102 (DotStar) strip on an
// SPI bus.  Several groups share the strip, each placed at its own offset,
// and every frame rewrites the whole strip

import (
	"sync"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/TeamNorCal/ledfx/model"
)

// spiTx is the part of an SPI connection the strip needs
type spiTx interface {
	Tx(w, r []byte) error
}

type stripGroup struct {
	dev   model.Device
	start int
}

// DotStarSink drives an APA102 strip
type DotStarSink struct {
	conn   spiTx
	port   spi.PortCloser
	strip  []model.RGB
	groups map[string]*stripGroup
	sync.Mutex
}

// OpenDotStar initializes the host drivers and opens the named SPI port, an
// empty name selects the first port available
func OpenDotStar(port string, speedHz int64, length int, devices []model.Device) (sink *DotStarSink, err errors.Error) {
	if _, errGo := host.Init(); errGo != nil {
		return nil, errors.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
	}
	p, errGo := spireg.Open(port)
	if errGo != nil {
		return nil, errors.Wrap(errGo).With("port", port).With("stack", stack.Trace().TrimRuntime())
	}
	conn, errGo := p.Connect(physic.Frequency(speedHz)*physic.Hertz, spi.Mode0, 8)
	if errGo != nil {
		p.Close()
		return nil, errors.Wrap(errGo).With("port", port).With("stack", stack.Trace().TrimRuntime())
	}
	sink = NewDotStarSink(conn, length, devices)
	sink.port = p
	return sink, nil
}

// NewDotStarSink wraps an already open connection
func NewDotStarSink(conn spiTx, length int, devices []model.Device) (sink *DotStarSink) {
	sink = &DotStarSink{
		conn:   conn,
		strip:  make([]model.RGB, length),
		groups: make(map[string]*stripGroup, len(devices)),
	}
	for _, dev := range devices {
		sink.groups[dev.Name] = &stripGroup{dev: dev}
	}
	return sink
}

// dotStarFrame encodes the strip: a zero start frame, a full brightness
// header and BGR per pixel, then enough end bits to clock the data through
func dotStarFrame(strip []model.RGB) (buf []byte) {
	buf = make([]byte, 0, 4+len(strip)*4+(len(strip)+15)/16)
	buf = append(buf, 0x00, 0x00, 0x00, 0x00)
	for _, c := range strip {
		buf = append(buf, 0xFF, c.B, c.G, c.R)
	}
	for i := 0; i < (len(strip)+15)/16; i++ {
		buf = append(buf, 0xFF)
	}
	return buf
}

func (sink *DotStarSink) Emit(group string, colors []model.RGB) (err errors.Error) {
	sink.Lock()
	defer sink.Unlock()

	g, isPresent := sink.groups[group]
	if !isPresent {
		return nil
	}

	// Clear the whole of the group's span first, the active range may have
	// shrunk since the last frame
	for i := 0; i < g.dev.NumPixels; i++ {
		if pixel := g.dev.Offset + i; pixel < len(sink.strip) {
			sink.strip[pixel] = model.Black
		}
	}
	for i, c := range colors {
		if g.start+i >= g.dev.NumPixels {
			break
		}
		if pixel := g.dev.Offset + g.start + i; pixel < len(sink.strip) {
			sink.strip[pixel] = c
		}
	}

	if errGo := sink.conn.Tx(dotStarFrame(sink.strip), nil); errGo != nil {
		return transportError(errGo, group)
	}
	return nil
}

func (sink *DotStarSink) Place(group string, start int) {
	sink.Lock()
	defer sink.Unlock()

	if g, isPresent := sink.groups[group]; isPresent {
		g.start = start
	}
}

func (sink *DotStarSink) Close() {
	sink.Lock()
	defer sink.Unlock()

	if sink.port != nil {
		sink.port.Close()
	}
}
