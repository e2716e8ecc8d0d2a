package model

// This module defines implementation neutral descriptions of the addressable
// zones and the hardware that carries them

// Device describes one group as it is laid out on the output hardware.
// Not every transport uses every field.
type Device struct {
	Name      string `yaml:"name"`
	NumPixels int    `yaml:"num_pixels"`

	// Offset of the group's first pixel on a strip shared with other groups
	Offset int `yaml:"offset"`

	// Art-Net node address and first universe
	IP       string `yaml:"ip"`
	Universe int    `yaml:"universe"`

	// Open Pixel Control channel, 1 based, 0 broadcasts
	Channel uint8 `yaml:"channel"`
}

// GroupInfo is a point in time view of a group for listing purposes
type GroupInfo struct {
	Name   string
	Start  int
	End    int
	Active Kind
}
