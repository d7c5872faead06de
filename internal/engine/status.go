package engine

import (
	"sync"
	"time"

	"github.com/coreman2200/glowsync/internal/colorspace"
)

// Status is a point-in-time view of the loop for external observers.
type Status struct {
	Colors     []colorspace.Color
	FrameCount uint64
	LastUpdate time.Time
}

// statusCell is the only state shared with code outside the loop. The lock
// guards nothing but the copy itself and is never held across a sleep or an
// I/O call, so readers can poll at any rate without stalling the engine.
type statusCell struct {
	mu sync.Mutex
	s  Status
}

func (c *statusCell) publish(colors []colorspace.Color) {
	snapshot := make([]colorspace.Color, len(colors))
	copy(snapshot, colors)

	c.mu.Lock()
	c.s.Colors = snapshot
	c.s.FrameCount++
	c.s.LastUpdate = time.Now()
	c.mu.Unlock()
}

func (c *statusCell) snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.s
	out.Colors = make([]colorspace.Color, len(c.s.Colors))
	copy(out.Colors, c.s.Colors)
	return out
}
