package openrgb

import "github.com/coreman2200/glowsync/internal/colorspace"

// Sink binds a client and a controller ID into the engine's DeviceSink.
type Sink struct {
	client *Client
	idx    uint32
}

func NewSink(client *Client, idx uint32) *Sink {
	return &Sink{client: client, idx: idx}
}

func (s *Sink) Update(colors []colorspace.Color) error {
	return s.client.UpdateLEDs(s.idx, colors)
}
