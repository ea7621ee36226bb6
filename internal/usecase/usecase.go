// Package usecase runs one clip or caption generation: sample frames, ask
// the collaborator, repair the answer, fall back when anything goes wrong.
package usecase

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/forPelevin/hlsync/internal/domain/frames"
	"github.com/forPelevin/hlsync/internal/domain/highlights"
	"github.com/forPelevin/hlsync/internal/logging"
	"github.com/forPelevin/hlsync/internal/ports"
	"github.com/forPelevin/hlsync/internal/types"
)

type Deps struct {
	Frames ports.FrameSource
	// Model may be nil; every generation then uses the fallback.
	Model  ports.Collaborator
	IDs    *highlights.IDGen
	Rand   *rand.Rand
	Logger *slog.Logger
}

type Usecase struct {
	d       Deps
	sampler *frames.Sampler
	logger  *slog.Logger

	// rand.Rand is not safe for concurrent use.
	randMu sync.Mutex
}

func New(d Deps, opts frames.Options) *Usecase {
	logger := logging.WithComponent(logging.OrDiscard(d.Logger), "usecase")
	if d.IDs == nil {
		d.IDs = highlights.NewIDGen()
	}
	if d.Rand == nil {
		d.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Usecase{
		d:       d,
		sampler: frames.New(d.Frames, opts, logger),
		logger:  logger,
	}
}

type ClipsInput struct {
	Video   types.VideoMetadata
	Context string
	Window  types.DurationWindow
}

type ClipsResult struct {
	Clips     []types.Clip
	Frames    []types.AnalyzedFrame
	Synthetic bool
}

// GenerateClips never fails: collaborator errors, unusable answers and a
// missing collaborator all produce synthetic clips.
func (u *Usecase) GenerateClips(ctx context.Context, in ClipsInput) ClipsResult {
	w := in.Window
	if !w.Valid() {
		w = types.DefaultWindow()
	}
	// Every clip generation samples its own frames.
	fr := u.sampler.Sample(ctx, in.Video.URL, in.Video.Duration)
	res := ClipsResult{Frames: fr}

	clips, err := u.askClips(ctx, in.Video, in.Context, fr, w)
	if err != nil || len(clips) == 0 {
		u.logger.Warn("using synthetic clips", "video", in.Video.Name, "error", errText(err))
		res.Clips = u.fallbackClips(in.Video.Duration, w)
		res.Synthetic = true
		return res
	}
	u.logger.Info("clips generated", "video", in.Video.Name, "clips", len(clips), "frames", len(fr))
	res.Clips = clips
	return res
}

func (u *Usecase) askClips(
	ctx context.Context,
	video types.VideoMetadata,
	userContext string,
	fr []types.AnalyzedFrame,
	w types.DurationWindow,
) ([]types.Clip, error) {
	if u.d.Model == nil {
		return nil, ports.ErrNoCollaborator
	}
	req, err := highlights.BuildRequest(video.Duration, userContext, video.Name, fr, w)
	if err != nil {
		return nil, err
	}
	raw, err := u.d.Model.GenerateClips(ctx, req)
	if err != nil {
		return nil, err
	}
	clips := highlights.RepairClips(raw, w, u.d.IDs)
	if dropped := len(raw) - len(clips); dropped > 0 {
		u.logger.Debug("dropped unusable clip candidates", "dropped", dropped)
	}
	return clips, nil
}

type CaptionsInput struct {
	Video  types.VideoMetadata
	Frames []types.AnalyzedFrame
}

type CaptionsResult struct {
	Captions  []types.CaptionSegment
	Frames    []types.AnalyzedFrame
	Synthetic bool
}

// GenerateCaptions never fails; see GenerateClips.
func (u *Usecase) GenerateCaptions(ctx context.Context, in CaptionsInput) CaptionsResult {
	fr := in.Frames
	if len(fr) == 0 {
		fr = u.sampler.Sample(ctx, in.Video.URL, in.Video.Duration)
	}
	res := CaptionsResult{Frames: fr}

	caps, err := u.askCaptions(ctx, in.Video, fr)
	if err != nil || len(caps) == 0 {
		u.logger.Warn("using synthetic captions", "video", in.Video.Name, "error", errText(err))
		u.randMu.Lock()
		res.Captions = highlights.FallbackCaptions(u.d.Rand, in.Video.Duration, u.d.IDs)
		u.randMu.Unlock()
		res.Synthetic = true
		return res
	}
	u.logger.Info("captions generated", "video", in.Video.Name, "captions", len(caps))
	res.Captions = caps
	return res
}

func (u *Usecase) askCaptions(ctx context.Context, video types.VideoMetadata, fr []types.AnalyzedFrame) ([]types.CaptionSegment, error) {
	if u.d.Model == nil {
		return nil, ports.ErrNoCollaborator
	}
	req, err := highlights.BuildCaptionRequest(video.Duration, fr)
	if err != nil {
		return nil, err
	}
	raw, err := u.d.Model.GenerateCaptions(ctx, req)
	if err != nil {
		return nil, err
	}
	return highlights.RepairCaptions(raw, u.d.IDs), nil
}

func (u *Usecase) fallbackClips(duration float64, w types.DurationWindow) []types.Clip {
	u.randMu.Lock()
	defer u.randMu.Unlock()
	return highlights.FallbackClips(u.d.Rand, duration, w, u.d.IDs)
}

func errText(err error) string {
	if err == nil {
		return "no usable candidates"
	}
	return err.Error()
}
