// Package media provides a clock-driven stand-in for a playing media
// element. Position advances with wall time while playing.
package media

import (
	"errors"
	"sync"
	"time"
)

var ErrPlayBlocked = errors.New("media: play blocked")

type Clock struct {
	mu       sync.Mutex
	now      func() time.Time
	pos      float64
	duration float64
	playing  bool
	since    time.Time
	blocked  bool
}

func NewClock(duration float64) *Clock {
	return &Clock{now: time.Now, duration: duration}
}

// WithNow swaps the time source, used by tests.
func (c *Clock) WithNow(now func() time.Time) *Clock {
	c.now = now
	return c
}

// Block makes subsequent Play calls fail, emulating a rejected autoplay.
func (c *Clock) Block(b bool) {
	c.mu.Lock()
	c.blocked = b
	c.mu.Unlock()
}

func (c *Clock) SetDuration(sec float64) {
	c.mu.Lock()
	c.duration = sec
	c.mu.Unlock()
}

func (c *Clock) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.blocked {
		return ErrPlayBlocked
	}
	if !c.playing {
		c.playing = true
		c.since = c.now()
	}
	return nil
}

func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pos = c.positionLocked()
	c.playing = false
}

func (c *Clock) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

func (c *Clock) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked()
}

func (c *Clock) SetCurrentTime(sec float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sec < 0 {
		sec = 0
	}
	if c.duration > 0 && sec > c.duration {
		sec = c.duration
	}
	c.pos = sec
	c.since = c.now()
}

func (c *Clock) positionLocked() float64 {
	if !c.playing {
		return c.pos
	}
	p := c.pos + c.now().Sub(c.since).Seconds()
	if c.duration > 0 && p >= c.duration {
		return c.duration
	}
	return p
}
