package aggregator

import (
	"sync"
	"time"
)

// Clock yields the flood-window number the current moment belongs to.
type Clock interface {
	CurrentBlock() uint64
}

// WallClock buckets wall-clock time into windows of Window length.
type WallClock struct {
	Window time.Duration
	Now    func() time.Time
}

// NewWallClock returns a WallClock with the given window, 3s when zero.
func NewWallClock(window time.Duration) WallClock {
	if window <= 0 {
		window = 3 * time.Second
	}
	return WallClock{Window: window, Now: time.Now}
}

func (c WallClock) CurrentBlock() uint64 {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	window := c.Window
	if window <= 0 {
		window = 3 * time.Second
	}
	return uint64(now().UnixNano() / int64(window))
}

// ManualClock is advanced explicitly, for tests and replays.
type ManualClock struct {
	mu    sync.Mutex
	block uint64
}

func NewManualClock(block uint64) *ManualClock {
	return &ManualClock{block: block}
}

func (c *ManualClock) CurrentBlock() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.block
}

func (c *ManualClock) Set(block uint64) {
	c.mu.Lock()
	c.block = block
	c.mu.Unlock()
}

func (c *ManualClock) Advance() {
	c.mu.Lock()
	c.block++
	c.mu.Unlock()
}
