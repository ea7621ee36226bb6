// Package playback keeps the session cursor, the selected clip and the
// media element in step. Media callbacks arrive as Events; the transition
// table in Dispatch is authoritative.
package playback

import (
	"errors"
	"log/slog"
	"math"

	"github.com/forPelevin/hlsync/internal/logging"
	"github.com/forPelevin/hlsync/internal/ports"
	"github.com/forPelevin/hlsync/internal/types"
)

// DefaultTolerance is how far the media position may drift from the cursor
// before it is forced back.
const DefaultTolerance = 0.5

var ErrUnknownClip = errors.New("clip not found")

type State int

const (
	Stopped State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "stopped"
}

type Event interface{ event() }

type (
	Play       struct{}
	Pause      struct{}
	Select     struct{ ClipID string }
	Deselect   struct{}
	Seek       struct{ Time float64 }
	TimeUpdate struct{ Time float64 }
)

func (Play) event()       {}
func (Pause) event()      {}
func (Select) event()     {}
func (Deselect) event()   {}
func (Seek) event()       {}
func (TimeUpdate) event() {}

// ClipLookup resolves a selected id against the current clip collection.
type ClipLookup func(id string) (types.Clip, bool)

// Controller is not safe for concurrent use; the owning session serializes
// events.
type Controller struct {
	media     ports.MediaElement
	lookup    ClipLookup
	logger    *slog.Logger
	tolerance float64

	state    State
	cursor   float64
	duration float64
	selected string
}

func New(media ports.MediaElement, lookup ClipLookup, logger *slog.Logger) *Controller {
	logger = logging.OrDiscard(logger)
	if lookup == nil {
		lookup = func(string) (types.Clip, bool) { return types.Clip{}, false }
	}
	return &Controller{media: media, lookup: lookup, logger: logger, tolerance: DefaultTolerance}
}

// SetTolerance replaces the drift tolerance; non-positive values are ignored.
func (c *Controller) SetTolerance(sec float64) {
	if sec > 0 {
		c.tolerance = sec
	}
}

// SetDuration bounds external seeks. Zero means unknown.
func (c *Controller) SetDuration(sec float64) { c.duration = math.Max(0, sec) }

func (c *Controller) State() State    { return c.state }
func (c *Controller) Cursor() float64 { return c.cursor }

// Selected resolves the weak selection; a vanished clip reads as none.
func (c *Controller) Selected() (types.Clip, bool) {
	if c.selected == "" {
		return types.Clip{}, false
	}
	clip, ok := c.lookup(c.selected)
	if !ok {
		c.selected = ""
	}
	return clip, ok
}

func (c *Controller) SelectedID() string {
	if _, ok := c.Selected(); !ok {
		return ""
	}
	return c.selected
}

func (c *Controller) Dispatch(ev Event) error {
	switch e := ev.(type) {
	case Play:
		c.play()
	case Pause:
		c.state = Stopped
		c.media.Pause()
	case Select:
		clip, ok := c.lookup(e.ClipID)
		if !ok {
			return ErrUnknownClip
		}
		c.selected = clip.ID
		c.cursor = clip.Start
		c.reconcile()
		c.play()
	case Deselect:
		c.selected = ""
	case Seek:
		c.cursor = c.clampTime(e.Time)
		c.reconcile()
	case TimeUpdate:
		c.onTimeUpdate(e.Time)
	default:
		c.logger.Debug("ignoring unknown playback event")
	}
	return nil
}

// Cue selects id and parks the cursor at its start, stopped.
func (c *Controller) Cue(id string) error {
	clip, ok := c.lookup(id)
	if !ok {
		return ErrUnknownClip
	}
	if c.state == Playing {
		c.state = Stopped
		c.media.Pause()
	}
	c.selected = clip.ID
	c.cursor = clip.Start
	c.reconcile()
	return nil
}

// Reset returns to the initial state for a new video.
func (c *Controller) Reset() {
	if c.state == Playing {
		c.media.Pause()
	}
	c.state = Stopped
	c.selected = ""
	c.cursor = 0
	c.duration = 0
	c.media.SetCurrentTime(0)
}

func (c *Controller) play() {
	c.state = Playing
	if err := c.media.Play(); err != nil {
		// The requested state is kept; the media may catch up on the next user gesture.
		c.logger.Warn("media play rejected", "error", err)
	}
}

func (c *Controller) onTimeUpdate(t float64) {
	c.cursor = t
	if c.state != Playing {
		return
	}
	clip, ok := c.Selected()
	if !ok || t < clip.End {
		return
	}
	c.state = Stopped
	c.media.Pause()
	c.cursor = clip.Start
	c.media.SetCurrentTime(clip.Start)
	c.logger.Debug("clip end reached, rewound", "clip_id", clip.ID, "start", clip.Start)
}

func (c *Controller) reconcile() {
	if math.Abs(c.media.CurrentTime()-c.cursor) > c.tolerance {
		c.media.SetCurrentTime(c.cursor)
	}
}

func (c *Controller) clampTime(t float64) float64 {
	if t < 0 {
		return 0
	}
	if c.duration > 0 && t > c.duration {
		return c.duration
	}
	return t
}
