package ledfx

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/ledfx/model"
)

func TestOPCSinkMessage(t *testing.T) {
	listener, errGo := net.Listen("tcp", "127.0.0.1:0")
	if errGo != nil {
		t.Fatal(errGo)
	}
	defer listener.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, errGo := listener.Accept()
		if errGo != nil {
			return
		}
		defer conn.Close()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		buf := make([]byte, 4+3*3)
		if _, errGo := io.ReadFull(conn, buf); errGo != nil {
			return
		}
		received <- buf
	}()

	quitC := make(chan struct{})
	defer close(quitC)

	devices := []model.Device{{Name: "ring", NumPixels: 3, Channel: 2}}
	sink := NewOPCSink(listener.Addr().String(), devices, nil, quitC)

	sink.Place("ring", 1)
	if err := sink.Emit("ring", []model.RGB{{9, 8, 7}}); err != nil {
		t.Fatal(err.Error())
	}

	select {
	case msg := <-received:
		if msg[0] != 2 || msg[1] != 0 {
			t.Fatalf("bad channel or command %v", msg[:2])
		}
		if msg[2] != 0 || msg[3] != 9 {
			t.Fatalf("bad length %v", msg[2:4])
		}
		expected := []byte{0, 0, 0, 9, 8, 7, 0, 0, 0}
		for i, b := range expected {
			if msg[4+i] != b {
				t.Fatalf("pixel data %v", msg[4:])
			}
		}
	case <-time.After(3 * time.Second):
		t.Fatal("nothing reached the OPC server")
	}
}

// An OPC server that never answers must not hold up the groups it serves
func TestOPCSinkStalledServer(t *testing.T) {
	dialing := make(chan struct{}, 1)
	releaseC := make(chan struct{})
	defer close(releaseC)

	stalled := func(network string, address string, timeout time.Duration) (net.Conn, error) {
		select {
		case dialing <- struct{}{}:
		default:
		}
		<-releaseC
		return nil, io.ErrClosedPipe
	}

	quitC := make(chan struct{})
	defer close(quitC)

	errorC := make(chan errors.Error, 16)
	opcSink := newOPCSink("10.255.255.1:7890", testDevices, stalled, errorC, quitC)
	rec := newRecorder()

	reg, err := NewRegistry(testDevices)
	if err != nil {
		t.Fatal(err.Error())
	}
	eng, err := NewEngine(reg, Fanout{opcSink, rec}, nil, nil, errorC, quitC)
	if err != nil {
		t.Fatal(err.Error())
	}

	if err = eng.StartEffect([]string{"shelf"}, model.StrobeParams{Speed: 2 * time.Millisecond}); err != nil {
		t.Fatal(err.Error())
	}
	select {
	case <-dialing:
	case <-time.After(3 * time.Second):
		t.Fatal("sender never tried to connect")
	}

	started := time.Now()
	if _, err = eng.Scheduler().Start("shelf", model.Strobe, func(task *Task) {
		task.Apply(func(f Frame) { f.SetBase(model.White) })
	}); err != nil {
		t.Fatal(err.Error())
	}
	if err = eng.SetColor([]string{"ring"}, model.White, 0); err != nil {
		t.Fatal(err.Error())
	}
	if err = eng.Scheduler().Refresh("ring"); err != nil {
		t.Fatal(err.Error())
	}
	eng.StopAll()
	if elapsed := time.Since(started); elapsed > 250*time.Millisecond {
		t.Fatalf("control operations took %v behind a stalled server", elapsed)
	}

	if rec.count("ring") == 0 {
		t.Fatal("other sinks were starved while the OPC server stalled")
	}
}

func TestOPCSinkUnreachableServer(t *testing.T) {
	quitC := make(chan struct{})
	defer close(quitC)

	sink := NewOPCSink("10.255.255.1:7890", testDevices, make(chan errors.Error, 16), quitC)

	started := time.Now()
	for i := 0; i != 50; i++ {
		if err := sink.Emit("shelf", []model.RGB{model.White}); err != nil {
			t.Fatal(err.Error())
		}
	}
	if elapsed := time.Since(started); elapsed > 100*time.Millisecond {
		t.Fatalf("emitting to an unreachable server took %v", elapsed)
	}
}
