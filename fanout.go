package ledfx

import (
	"sync"
	"time"

	logxi "github.com/mgutz/logxi/v1"
)

type subs struct {
	subs []chan *FrameMsg
	sync.Mutex
}

// startFanOut implements a broadcast mechanism for emitted frames, relaying
// them to subscribers.  The function returns a single channel to which frames
// get sent and a channel that can be used to add listeners.  A subscriber
// that cannot accept a frame within the timeout is dropped.
func startFanOut(logger logxi.Logger, quitC <-chan struct{}) (inC chan *FrameMsg, subC chan chan *FrameMsg) {

	inC = make(chan *FrameMsg, 16)
	subC = make(chan chan *FrameMsg, 1)

	listeners := &subs{
		subs: []chan *FrameMsg{},
	}

	go func() {
		defer logger.Debug("frame fanout stopped")
		for {
			select {
			case <-quitC:
				return
			case sub := <-subC:
				if nil != sub {
					listeners.Lock()
					listeners.subs = append(listeners.subs, sub)
					listeners.Unlock()
					logger.Debug("frame subscription added")
				}
			case msg := <-inC:
				// Subscribers are groomed out on failure, filtering without
				// allocating
				listeners.Lock()
				kept := listeners.subs[:0]
				for _, ch := range listeners.subs {
					select {
					case ch <- msg:
						kept = append(kept, ch)
					case <-time.After(250 * time.Millisecond):
						logger.Warn("frame subscription dropped, failed to send")
					}
				}
				listeners.subs = kept
				listeners.Unlock()
			}
		}
	}()

	return inC, subC
}
