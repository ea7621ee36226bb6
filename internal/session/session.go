// Package session owns the editor state for one loaded video: metadata,
// generated clips and captions, the sampled frame cache, settings and the
// playback controller. All methods are safe for concurrent use.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/forPelevin/hlsync/internal/domain/playback"
	"github.com/forPelevin/hlsync/internal/domain/timeline"
	"github.com/forPelevin/hlsync/internal/logging"
	"github.com/forPelevin/hlsync/internal/ports"
	"github.com/forPelevin/hlsync/internal/types"
	"github.com/forPelevin/hlsync/internal/usecase"
)

var (
	ErrNoVideo         = errors.New("no video loaded")
	ErrNoDuration      = errors.New("video duration unknown")
	ErrUnknownClip     = playback.ErrUnknownClip
	ErrStaleEpoch      = errors.New("video changed while generating")
	ErrInvalidSettings = errors.New("invalid settings")
)

// Generator produces clips and captions. *usecase.Usecase satisfies it.
type Generator interface {
	GenerateClips(ctx context.Context, in usecase.ClipsInput) usecase.ClipsResult
	GenerateCaptions(ctx context.Context, in usecase.CaptionsInput) usecase.CaptionsResult
}

// ProbeFunc reports a source's duration when the caller does not know it.
type ProbeFunc func(ctx context.Context, src string) (time.Duration, error)

type Options struct {
	Window   types.DurationWindow
	Settings types.Settings
	Probe    ProbeFunc
	Logger   *slog.Logger

	// SyncTolerance overrides the allowed media drift in seconds when > 0.
	SyncTolerance float64
}

type Session struct {
	mu     sync.Mutex
	gen    Generator
	media  ports.MediaElement
	ctrl   *playback.Controller
	probe  ProbeFunc
	logger *slog.Logger

	video    types.VideoMetadata
	loaded   bool
	epoch    uint64
	window   types.DurationWindow
	context  string
	settings types.Settings

	clips          []types.Clip
	captions       []types.CaptionSegment
	frames         []types.AnalyzedFrame
	syntheticClips bool
	syntheticCaps  bool
}

func New(gen Generator, media ports.MediaElement, opts Options) *Session {
	s := &Session{
		gen:      gen,
		media:    media,
		probe:    opts.Probe,
		logger:   logging.WithComponent(logging.OrDiscard(opts.Logger), "session"),
		window:   opts.Window,
		settings: opts.Settings,
	}
	if !s.window.Valid() {
		s.window = types.DefaultWindow()
	}
	if !s.settings.Valid() {
		s.settings = types.DefaultSettings()
	}
	s.ctrl = playback.New(media, s.lookupLocked, s.logger)
	s.ctrl.SetTolerance(opts.SyncTolerance)
	return s
}

// lookupLocked is only called from the controller while s.mu is held.
func (s *Session) lookupLocked(id string) (types.Clip, bool) {
	return timeline.FindClip(s.clips, id)
}

// LoadVideo replaces the current video. Everything derived from the old one
// is dropped and results of generations still in flight are discarded. A
// non-positive duration is probed when a probe is configured.
func (s *Session) LoadVideo(ctx context.Context, name, url string, duration float64) uint64 {
	if duration <= 0 && s.probe != nil {
		d, err := s.probe(ctx, url)
		if err != nil {
			s.logger.Warn("probe duration failed", "video", name, "error", err)
		} else {
			duration = d.Seconds()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.video = types.VideoMetadata{Name: name, URL: url, Duration: max(0, duration)}
	s.loaded = true
	s.context = ""
	s.clips = nil
	s.captions = nil
	s.frames = nil
	s.syntheticClips = false
	s.syntheticCaps = false
	s.ctrl.Reset()
	s.applyDurationLocked()
	logging.WithVideo(s.logger, name, s.epoch).Info("video loaded", "duration", s.video.Duration)
	return s.epoch
}

// SetDuration records the duration reported by the media source.
func (s *Session) SetDuration(sec float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNoVideo
	}
	s.video.Duration = max(0, sec)
	s.applyDurationLocked()
	return nil
}

func (s *Session) applyDurationLocked() {
	s.ctrl.SetDuration(s.video.Duration)
	if d, ok := s.media.(interface{ SetDuration(float64) }); ok {
		d.SetDuration(s.video.Duration)
	}
}

// SetWindow applies the slider bounds and returns the normalized window.
func (s *Session) SetWindow(minSec, maxSec float64) types.DurationWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window = types.NormalizeWindow(minSec, maxSec)
	return s.window
}

// SetContext sets the description sent with the next clip generation.
// Loading a video clears it.
func (s *Session) SetContext(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.context = text
}

type ClipsRequest struct {
	Context *string
	Min     *float64
	Max     *float64
}

// GenerateClips replaces the clip collection and cues the first clip. The
// session lock is not held while the generator runs.
func (s *Session) GenerateClips(ctx context.Context, req ClipsRequest) (Snapshot, error) {
	s.mu.Lock()
	if req.Context != nil {
		s.context = *req.Context
	}
	if req.Min != nil || req.Max != nil {
		lo, hi := s.window.Min, s.window.Max
		if req.Min != nil {
			lo = *req.Min
		}
		if req.Max != nil {
			hi = *req.Max
		}
		s.window = types.NormalizeWindow(lo, hi)
	}
	epoch, in, err := s.clipsInputLocked()
	s.mu.Unlock()
	if err != nil {
		return Snapshot{}, err
	}

	res := s.gen.GenerateClips(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		s.logger.Info("discarding clips for replaced video", "epoch", epoch, "current", s.epoch)
		return Snapshot{}, ErrStaleEpoch
	}
	s.clips = res.Clips
	s.syntheticClips = res.Synthetic
	if len(res.Frames) > 0 {
		s.frames = res.Frames
	}
	if len(s.clips) > 0 {
		if err := s.ctrl.Cue(s.clips[0].ID); err != nil {
			s.logger.Warn("cue first clip", "error", err)
		}
	} else {
		_ = s.ctrl.Dispatch(playback.Deselect{})
	}
	return s.snapshotLocked(), nil
}

func (s *Session) clipsInputLocked() (uint64, usecase.ClipsInput, error) {
	if !s.loaded {
		return 0, usecase.ClipsInput{}, ErrNoVideo
	}
	if s.video.Duration <= 0 {
		return 0, usecase.ClipsInput{}, ErrNoDuration
	}
	return s.epoch, usecase.ClipsInput{
		Video:   s.video,
		Context: s.context,
		Window:  s.window,
	}, nil
}

// GenerateCaptions replaces the caption collection, reusing cached frames.
func (s *Session) GenerateCaptions(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return Snapshot{}, ErrNoVideo
	}
	if s.video.Duration <= 0 {
		s.mu.Unlock()
		return Snapshot{}, ErrNoDuration
	}
	epoch := s.epoch
	in := usecase.CaptionsInput{Video: s.video, Frames: s.frames}
	s.mu.Unlock()

	res := s.gen.GenerateCaptions(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		s.logger.Info("discarding captions for replaced video", "epoch", epoch, "current", s.epoch)
		return Snapshot{}, ErrStaleEpoch
	}
	s.captions = res.Captions
	s.syntheticCaps = res.Synthetic
	if len(res.Frames) > 0 {
		s.frames = res.Frames
	}
	return s.snapshotLocked(), nil
}

func (s *Session) Select(id string) error {
	return s.dispatch(playback.Select{ClipID: id})
}

func (s *Session) Deselect() error { return s.dispatch(playback.Deselect{}) }
func (s *Session) Play() error     { return s.dispatch(playback.Play{}) }
func (s *Session) Pause() error    { return s.dispatch(playback.Pause{}) }

func (s *Session) Seek(sec float64) error {
	return s.dispatch(playback.Seek{Time: sec})
}

// TimeUpdate feeds a position reported by the media element.
func (s *Session) TimeUpdate(sec float64) error {
	return s.dispatch(playback.TimeUpdate{Time: sec})
}

// Tick samples the media element and feeds its position back as a time
// update.
func (s *Session) Tick() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNoVideo
	}
	return s.ctrl.Dispatch(playback.TimeUpdate{Time: s.media.CurrentTime()})
}

func (s *Session) dispatch(ev playback.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNoVideo
	}
	return s.ctrl.Dispatch(ev)
}

func (s *Session) Settings() types.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *Session) UpdateSettings(st types.Settings) error {
	if !st.Valid() {
		return ErrInvalidSettings
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = st
	return nil
}
