package main

import (
	"fmt"

	"github.com/TeamNorCal/ledfx"
)

// This file implements a monitor that subscribes to and displays the emitted
// frames using the frame subscription

func runMonitoring(subscribeC chan chan *ledfx.FrameMsg, quitC <-chan struct{}) {

	frameC := make(chan *ledfx.FrameMsg, 4)
	subscribeC <- frameC

	for {
		select {
		case msg := <-frameC:
			if len(msg.Colors) == 0 {
				continue
			}
			logger.Debug(fmt.Sprintf("%s %d pixels, first %s", msg.Group, len(msg.Colors), msg.Colors[0]))
		case <-quitC:
			return
		}
	}
}
