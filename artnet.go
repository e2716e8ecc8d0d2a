package ledfx

// This file contains an Art-Net transport.  Each group is sent to its own
// node as ArtDmx packets, groups longer than a single universe spill over
// into the universes that follow

import (
	"encoding/binary"
	"net"
	"strconv"
	"sync"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/ledfx/model"
)

const (
	artNetOpDmx   = 0x5000
	artNetVersion = 14

	// 512 DMX slots hold 170 whole RGB pixels
	pixelsPerUniverse = 170
)

type artNetNode struct {
	dev   model.Device
	conn  *net.UDPConn
	start int
	seq   uint8
}

// ArtNetSink sends groups to Art-Net nodes over UDP
type ArtNetSink struct {
	nodes map[string]*artNetNode
	sync.Mutex
}

// NewArtNetSink opens a connectionless socket per group
func NewArtNetSink(devices []model.Device, port int) (sink *ArtNetSink, err errors.Error) {
	sink = &ArtNetSink{
		nodes: make(map[string]*artNetNode, len(devices)),
	}
	for _, dev := range devices {
		addr, errGo := net.ResolveUDPAddr("udp", net.JoinHostPort(dev.IP, strconv.Itoa(port)))
		if errGo != nil {
			sink.Close()
			return nil, errors.Wrap(errGo).With("group", dev.Name).With("ip", dev.IP).With("stack", stack.Trace().TrimRuntime())
		}
		conn, errGo := net.DialUDP("udp", nil, addr)
		if errGo != nil {
			sink.Close()
			return nil, errors.Wrap(errGo).With("group", dev.Name).With("ip", dev.IP).With("stack", stack.Trace().TrimRuntime())
		}
		sink.nodes[dev.Name] = &artNetNode{dev: dev, conn: conn}
	}
	return sink, nil
}

// artDmx frames DMX data for a universe
func artDmx(universe int, sequence uint8, data []byte) (packet []byte) {
	packet = make([]byte, 18, 18+len(data))
	copy(packet[0:8], "Art-Net\x00")
	binary.LittleEndian.PutUint16(packet[8:10], artNetOpDmx)
	binary.BigEndian.PutUint16(packet[10:12], artNetVersion)
	packet[12] = sequence
	packet[13] = 0 // physical port
	binary.LittleEndian.PutUint16(packet[14:16], uint16(universe))
	binary.BigEndian.PutUint16(packet[16:18], uint16(len(data)))
	return append(packet, data...)
}

// ParseArtDmx extracts the universe, sequence and DMX data from an ArtDmx
// packet
func ParseArtDmx(packet []byte) (universe int, sequence uint8, data []byte, err errors.Error) {
	if len(packet) < 18 || string(packet[0:8]) != "Art-Net\x00" {
		return 0, 0, nil, errors.New("not an Art-Net packet").With("length", len(packet)).With("stack", stack.Trace().TrimRuntime())
	}
	if op := binary.LittleEndian.Uint16(packet[8:10]); op != artNetOpDmx {
		return 0, 0, nil, errors.New("not an ArtDmx packet").With("opcode", op).With("stack", stack.Trace().TrimRuntime())
	}
	length := int(binary.BigEndian.Uint16(packet[16:18]))
	if length > len(packet)-18 {
		return 0, 0, nil, errors.New("truncated ArtDmx packet").With("length", length).With("stack", stack.Trace().TrimRuntime())
	}
	return int(binary.LittleEndian.Uint16(packet[14:16])), packet[12], packet[18 : 18+length], nil
}

func (sink *ArtNetSink) Emit(group string, colors []model.RGB) (err errors.Error) {
	sink.Lock()
	defer sink.Unlock()

	node, isPresent := sink.nodes[group]
	if !isPresent {
		return nil
	}

	// Pixels outside the active range stay dark
	data := make([]byte, node.dev.NumPixels*3)
	for i, c := range colors {
		pos := (node.start + i) * 3
		if pos+3 > len(data) {
			break
		}
		data[pos], data[pos+1], data[pos+2] = c.R, c.G, c.B
	}

	// Sequence 0 disables reordering on the receiver, so skip it
	node.seq++
	if node.seq == 0 {
		node.seq = 1
	}

	for offset, universe := 0, node.dev.Universe; offset < len(data); offset, universe = offset+pixelsPerUniverse*3, universe+1 {
		end := offset + pixelsPerUniverse*3
		if end > len(data) {
			end = len(data)
		}
		chunk := data[offset:end]
		// DMX payloads must have an even length
		if len(chunk)%2 != 0 {
			chunk = append(append([]byte{}, chunk...), 0)
		}
		if _, errGo := node.conn.Write(artDmx(universe, node.seq, chunk)); errGo != nil {
			return transportError(errGo, group).With("universe", universe)
		}
	}
	return nil
}

func (sink *ArtNetSink) Place(group string, start int) {
	sink.Lock()
	defer sink.Unlock()

	if node, isPresent := sink.nodes[group]; isPresent {
		node.start = start
	}
}

func (sink *ArtNetSink) Close() {
	sink.Lock()
	defer sink.Unlock()

	for _, node := range sink.nodes {
		if node.conn != nil {
			node.conn.Close()
		}
	}
}
