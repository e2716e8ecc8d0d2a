package ledfx

// Suppression of repeated identical frames, receivers are still refreshed
// on a regular basis in case they dropped a packet or were restarted

import (
	"bytes"
	"sync"
	"time"

	"github.com/cnf/structhash"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/ledfx/model"
)

type frameDigest struct {
	Group  string
	Colors []model.RGB
}

type lastSent struct {
	hash []byte
	at   time.Time
}

// Dedupe forwards a frame only if it differs from the last one sent for the
// same group or if the last send is older than the refresh interval
type Dedupe struct {
	sink    Sink
	refresh time.Duration
	last    map[string]lastSent
	sync.Mutex
}

func NewDedupe(sink Sink, refresh time.Duration) (dedupe *Dedupe) {
	return &Dedupe{
		sink:    sink,
		refresh: refresh,
		last:    map[string]lastSent{},
	}
}

func (dedupe *Dedupe) Emit(group string, colors []model.RGB) (err errors.Error) {
	hash := structhash.Md5(frameDigest{Group: group, Colors: colors}, 1)
	now := time.Now()

	dedupe.Lock()
	prev, isPresent := dedupe.last[group]
	if isPresent && bytes.Equal(prev.hash, hash) && now.Sub(prev.at) < dedupe.refresh {
		dedupe.Unlock()
		return nil
	}
	dedupe.last[group] = lastSent{hash: hash, at: now}
	dedupe.Unlock()

	if err = dedupe.sink.Emit(group, colors); err != nil {
		// Make sure the next frame is attempted rather than suppressed
		dedupe.Lock()
		delete(dedupe.last, group)
		dedupe.Unlock()
	}
	return err
}

func (dedupe *Dedupe) Place(group string, start int) {
	dedupe.Lock()
	delete(dedupe.last, group)
	dedupe.Unlock()

	if placer, isOK := dedupe.sink.(Placement); isOK {
		placer.Place(group, start)
	}
}
