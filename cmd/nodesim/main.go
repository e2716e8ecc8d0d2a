package main

// nodesim stands in for one or more Art-Net nodes.  It listens for ArtDmx
// packets and reports what each universe is showing, which is handy when
// bringing up a configuration without the hardware on the bench.

import (
	"flag"
	"fmt"
	"net"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	logxi "github.com/mgutz/logxi/v1"

	"github.com/TeamNorCal/ledfx"
	"github.com/TeamNorCal/ledfx/model"
)

var (
	listen = flag.String("listen", fmt.Sprintf(":%d", ledfx.DefaultArtNetPort), "Address to bind to")
	audit  = flag.Duration("audit", 2*time.Second, "Interval at which the state of every universe is reported")
	pixels = flag.Int("pixels", 8, "Number of leading pixels of each universe shown in reports")
)

type universeState struct {
	packets  int
	dropped  int
	lastSeq  uint8
	lastSeen time.Time
	colors   []model.RGB
}

type universes struct {
	seen map[int]*universeState
	sync.Mutex
}

var (
	logW = logxi.NewLogger(logxi.NewConcurrentWriter(os.Stdout), "ledfx-nodesim")

	state = universes{
		seen: map[int]*universeState{},
	}
)

func main() {

	flag.Parse()

	addr, err := net.ResolveUDPAddr("udp", *listen)
	if err != nil {
		logW.Fatal(err.Error())
		os.Exit(-1)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		logW.Fatal(err.Error())
		os.Exit(-1)
	}
	defer conn.Close()

	go auditUniverses()

	buf := make([]byte, 1024)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			logW.Warn(err.Error())
			continue
		}
		record(buf[:n])
	}
}

// record decodes a packet into the state of its universe, out of order
// sequence numbers are counted as drops
func record(packet []byte) {
	universe, seq, data, err := ledfx.ParseArtDmx(packet)
	if err != nil {
		logW.Debug(err.Error())
		return
	}

	state.Lock()
	defer state.Unlock()

	u, isPresent := state.seen[universe]
	if !isPresent {
		u = &universeState{}
		state.seen[universe] = u
		logW.Info(fmt.Sprintf("universe %d is live", universe))
	}

	if seq != 0 && u.packets != 0 && seq != u.lastSeq+1 && !(u.lastSeq == 255 && seq == 1) {
		u.dropped++
	}
	u.packets++
	u.lastSeq = seq
	u.lastSeen = time.Now()

	u.colors = u.colors[:0]
	for i := 0; i+2 < len(data); i += 3 {
		u.colors = append(u.colors, model.RGB{data[i], data[i+1], data[i+2]})
	}
}

func auditUniverses() {
	tick := time.NewTicker(*audit)
	defer tick.Stop()

	for range tick.C {
		state.Lock()
		ids := make([]int, 0, len(state.seen))
		for id := range state.seen {
			ids = append(ids, id)
		}
		sort.Ints(ids)

		for _, id := range ids {
			u := state.seen[id]
			shown := u.colors
			if len(shown) > *pixels {
				shown = shown[:*pixels]
			}
			texts := make([]string, 0, len(shown))
			for _, c := range shown {
				texts = append(texts, c.String())
			}
			logW.Info(fmt.Sprintf("universe %d %s", id, strings.Join(texts, " ")),
				"packets", u.packets, "dropped", u.dropped, "idle", time.Since(u.lastSeen).Round(time.Millisecond).String())
		}
		state.Unlock()
	}
}
