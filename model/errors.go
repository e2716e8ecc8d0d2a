package model

import (
	"errors"
)

// Sentinel failures, wrapped with context at the point they are raised
var (
	ErrUnknownGroup  = errors.New("unknown group")
	ErrInvalidRange  = errors.New("invalid range")
	ErrTransport     = errors.New("transport failure")
	ErrUnknownEffect = errors.New("unknown effect")
	ErrBadParam      = errors.New("bad effect parameter")
)
