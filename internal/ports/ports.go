package ports

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/forPelevin/hlsync/internal/types"
)

// ErrNoCollaborator marks a collaborator that has no credential or endpoint.
var ErrNoCollaborator = errors.New("generative collaborator not configured")

// FrameSource opens detached decoding contexts; the user-visible player is
// never touched.
type FrameSource interface {
	Open(ctx context.Context, src string) (DecodeSession, error)
	ProbeDuration(ctx context.Context, src string) (time.Duration, error)
}

// DecodeSession is a single decoding context reused across seeks.
type DecodeSession interface {
	// Seek positions the session at sec. When it fails or is cut short the
	// previously decoded frame stays current.
	Seek(ctx context.Context, sec float64) error
	// Current returns the currently decoded raster, nil if none yet.
	Current() image.Image
	Close() error
}

// Collaborator is the external generative model. Responses are returned as
// loosely typed JSON values; callers must validate them.
type Collaborator interface {
	GenerateClips(ctx context.Context, req types.HighlightRequest) ([]any, error)
	GenerateCaptions(ctx context.Context, req types.CaptionRequest) ([]any, error)
}

// MediaElement is the playing media: seekable, playable, reporting time.
type MediaElement interface {
	Play() error
	Pause()
	CurrentTime() float64
	SetCurrentTime(sec float64)
}
