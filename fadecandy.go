package ledfx

// This file contains a transport that delivers group frames to one or more
// fadecandy devices through an Open Pixel Control server.  Each group is
// bound to an OPC channel, which fcserver maps onto strands.
//
// Emit only encodes the frame into the group's pending slot, the network is
// handled by a sender goroutine so that a slow or missing server never holds
// up a group lock

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/kellydunn/go-opc"

	"github.com/TeamNorCal/ledfx/model"
)

const (
	opcDialTimeout  = 2 * time.Second
	opcWriteTimeout = 500 * time.Millisecond
	opcRetryEvery   = 5 * time.Second
)

type opcDialer func(network string, address string, timeout time.Duration) (net.Conn, error)

type opcChannel struct {
	dev   model.Device
	start int
}

// OPCSink sends group frames to an OPC server such as fcserver
type OPCSink struct {
	server   string
	channels map[string]*opcChannel

	// latest unsent frame per group, the sender only ever sends the newest
	pending map[string]*opc.Message
	kickC   chan struct{}

	// owned by the sender goroutine
	dial      opcDialer
	conn      net.Conn
	nextRetry time.Time

	errorC chan<- errors.Error

	sync.Mutex
}

// NewOPCSink starts a sender for the OPC server, it runs until quitC is
// closed.  Connection failures are reported on errorC and retried while
// frames keep arriving.
func NewOPCSink(server string, devices []model.Device, errorC chan<- errors.Error, quitC <-chan struct{}) (sink *OPCSink) {
	return newOPCSink(server, devices, net.DialTimeout, errorC, quitC)
}

func newOPCSink(server string, devices []model.Device, dial opcDialer, errorC chan<- errors.Error, quitC <-chan struct{}) (sink *OPCSink) {
	sink = &OPCSink{
		server:   server,
		channels: make(map[string]*opcChannel, len(devices)),
		pending:  map[string]*opc.Message{},
		kickC:    make(chan struct{}, 1),
		dial:     dial,
		errorC:   errorC,
	}
	for _, dev := range devices {
		sink.channels[dev.Name] = &opcChannel{dev: dev}
	}

	go sink.run(quitC)
	return sink
}

func (sink *OPCSink) Emit(group string, colors []model.RGB) (err errors.Error) {
	sink.Lock()
	defer sink.Unlock()

	ch, isPresent := sink.channels[group]
	if !isPresent {
		return nil
	}

	m := opc.NewMessage(ch.dev.Channel)
	m.SetLength(uint16(ch.dev.NumPixels * 3))
	for i, c := range colors {
		pixel := ch.start + i
		if pixel >= ch.dev.NumPixels {
			break
		}
		m.SetPixelColor(pixel, c.R, c.G, c.B)
	}
	sink.pending[group] = m

	select {
	case sink.kickC <- struct{}{}:
	default:
	}
	return nil
}

func (sink *OPCSink) Place(group string, start int) {
	sink.Lock()
	defer sink.Unlock()

	if ch, isPresent := sink.channels[group]; isPresent {
		ch.start = start
	}
}

func (sink *OPCSink) run(quitC <-chan struct{}) {
	defer func() {
		if sink.conn != nil {
			sink.conn.Close()
		}
	}()

	for {
		select {
		case <-sink.kickC:
		case <-quitC:
			return
		}

		sink.Lock()
		frames := sink.pending
		sink.pending = map[string]*opc.Message{}
		sink.Unlock()

		for group, m := range frames {
			if err := sink.send(m); err != nil {
				sink.report(err.With("group", group))
			}
		}
	}
}

// send writes one message, connecting first if needed.  While the server is
// unreachable frames are dropped until the retry interval has passed.
func (sink *OPCSink) send(m *opc.Message) (err errors.Error) {
	if sink.conn == nil {
		if time.Now().Before(sink.nextRetry) {
			return nil
		}
		conn, errGo := sink.dial("tcp", sink.server, opcDialTimeout)
		if errGo != nil {
			sink.nextRetry = time.Now().Add(opcRetryEvery)
			return errors.Wrap(model.ErrTransport).With("url", sink.server).With("cause", errGo.Error()).With("stack", stack.Trace().TrimRuntime())
		}
		sink.conn = conn
	}

	sink.conn.SetWriteDeadline(time.Now().Add(opcWriteTimeout))
	if _, errGo := sink.conn.Write(m.ByteArray()); errGo != nil {
		sink.conn.Close()
		sink.conn = nil
		return errors.Wrap(model.ErrTransport).With("url", sink.server).With("cause", errGo.Error()).With("stack", stack.Trace().TrimRuntime())
	}
	return nil
}

func (sink *OPCSink) report(err errors.Error) {
	select {
	case sink.errorC <- err:
	case <-time.After(100 * time.Millisecond):
		fmt.Fprintln(os.Stderr, err.Error())
	}
}
