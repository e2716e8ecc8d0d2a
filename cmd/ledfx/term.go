package main

import (
	"github.com/karlmutch/errors"
)

// watchErrors drains failures reported by the engine and its transports
func watchErrors(errorC <-chan errors.Error, quitC <-chan struct{}) {
	for {
		select {
		case err := <-errorC:
			if err != nil {
				logger.Warn(err.Error())
			}
		case <-quitC:
			return
		}
	}
}
