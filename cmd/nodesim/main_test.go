package main

import (
	"encoding/binary"
	"testing"

	"github.com/TeamNorCal/ledfx/model"
)

func dmx(universe int, seq uint8, data []byte) []byte {
	packet := make([]byte, 18)
	copy(packet, "Art-Net\x00")
	binary.LittleEndian.PutUint16(packet[8:10], 0x5000)
	binary.BigEndian.PutUint16(packet[10:12], 14)
	packet[12] = seq
	binary.LittleEndian.PutUint16(packet[14:16], uint16(universe))
	binary.BigEndian.PutUint16(packet[16:18], uint16(len(data)))
	return append(packet, data...)
}

func TestRecord(t *testing.T) {
	record(dmx(4, 1, []byte{1, 2, 3, 4, 5, 6}))
	record(dmx(4, 3, []byte{7, 8, 9, 0}))
	record([]byte("garbage"))

	state.Lock()
	defer state.Unlock()

	u, isPresent := state.seen[4]
	if !isPresent {
		t.Fatal("universe was not recorded")
	}
	if u.packets != 2 || u.dropped != 1 {
		t.Fatalf("%d packets %d dropped", u.packets, u.dropped)
	}
	if len(u.colors) != 1 || u.colors[0] != (model.RGB{7, 8, 9}) {
		t.Fatalf("universe shows %v", u.colors)
	}
}
