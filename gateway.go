package ledfx

// This module assembles a running engine from a configuration: the group
// registry, the selected transports behind duplicate suppression, a frame
// monitor and the refresh loop

import (
	"github.com/karlmutch/errors"
	logxi "github.com/mgutz/logxi/v1"
)

type Gateway struct {
	Engine *Engine

	// Send a channel here to receive copies of emitted frames
	SubscribeC chan chan *FrameMsg

	closers []func()
}

// StartGateway builds and starts the engine described by cfg.  It returns
// once every component is running, they all stop when quitC is closed.
func StartGateway(cfg *Config, logger logxi.Logger, errorC chan<- errors.Error, quitC <-chan struct{}) (gw *Gateway, err errors.Error) {

	gw = &Gateway{}

	reg, err := NewRegistry(cfg.Groups)
	if err != nil {
		return nil, err
	}

	sinks := Fanout{}
	for _, name := range cfg.Transports() {
		switch name {
		case "artnet":
			artnet, err := NewArtNetSink(cfg.Groups, cfg.ArtNetPort)
			if err != nil {
				gw.Close()
				return nil, err
			}
			gw.closers = append(gw.closers, artnet.Close)
			sinks = append(sinks, artnet)
		case "opc":
			sinks = append(sinks, NewOPCSink(cfg.OPCServer, cfg.Groups, errorC, quitC))
		case "dotstar":
			strip, err := OpenDotStar(cfg.SPIPort, cfg.SPISpeedHz, cfg.StripLength, cfg.Groups)
			if err != nil {
				gw.Close()
				return nil, err
			}
			gw.closers = append(gw.closers, strip.Close)
			sinks = append(sinks, strip)
		}
	}

	// After the hardware comes a tap feeding the broadcast of frames so that
	// monitors can be attached
	tap := NewTap(16)
	sinks = append(sinks, tap)

	frameC, subscribeC := startFanOut(logger, quitC)
	gw.SubscribeC = subscribeC
	go func() {
		for {
			select {
			case msg := <-tap.C:
				select {
				case frameC <- msg:
				case <-quitC:
					return
				}
			case <-quitC:
				return
			}
		}
	}()

	eng, err := NewEngine(reg, NewDedupe(sinks, cfg.Refresh/2), NewFavoritesFile(cfg.Favorites), logger, errorC, quitC)
	if err != nil {
		gw.Close()
		return nil, err
	}
	gw.Engine = eng

	go eng.Run(cfg.Refresh, quitC)

	return gw, nil
}

// Close releases the hardware held by the transports
func (gw *Gateway) Close() {
	for _, closer := range gw.closers {
		closer()
	}
	gw.closers = nil
}
