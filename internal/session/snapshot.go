package session

import (
	"slices"

	"github.com/forPelevin/hlsync/internal/domain/timeline"
	"github.com/forPelevin/hlsync/internal/types"
)

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	Video    types.VideoMetadata    `json:"video"`
	Loaded   bool                   `json:"loaded"`
	Epoch    uint64                 `json:"epoch"`
	Window   types.DurationWindow   `json:"window"`
	Context  string                 `json:"context"`
	Settings types.Settings         `json:"settings"`
	Clips    []types.Clip           `json:"clips"`
	Captions []types.CaptionSegment `json:"captions"`
	Frames   int                    `json:"frames"`

	State    string  `json:"state"`
	Cursor   float64 `json:"cursor"`
	Selected string  `json:"selected,omitempty"`

	ActiveClip    *types.Clip           `json:"activeClip,omitempty"`
	ActiveCaption *types.CaptionSegment `json:"activeCaption,omitempty"`

	SyntheticClips    bool `json:"syntheticClips"`
	SyntheticCaptions bool `json:"syntheticCaptions"`
}

// SelectedClip resolves Selected against Clips.
func (sn Snapshot) SelectedClip() (types.Clip, bool) {
	if sn.Selected == "" {
		return types.Clip{}, false
	}
	return timeline.FindClip(sn.Clips, sn.Selected)
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	sn := Snapshot{
		Video:             s.video,
		Loaded:            s.loaded,
		Epoch:             s.epoch,
		Window:            s.window,
		Context:           s.context,
		Settings:          s.settings,
		Clips:             slices.Clone(s.clips),
		Captions:          slices.Clone(s.captions),
		Frames:            len(s.frames),
		State:             s.ctrl.State().String(),
		Cursor:            s.ctrl.Cursor(),
		Selected:          s.ctrl.SelectedID(),
		SyntheticClips:    s.syntheticClips,
		SyntheticCaptions: s.syntheticCaps,
	}
	if sn.Clips == nil {
		sn.Clips = []types.Clip{}
	}
	if sn.Captions == nil {
		sn.Captions = []types.CaptionSegment{}
	}
	if c, ok := timeline.ActiveClip(s.clips, sn.Cursor); ok {
		sn.ActiveClip = &c
	}
	if c, ok := timeline.ActiveCaption(s.captions, sn.Cursor); ok {
		sn.ActiveCaption = &c
	}
	return sn
}
