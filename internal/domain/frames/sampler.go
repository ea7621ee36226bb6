// Package frames samples evenly spaced stills from a video for model context.
package frames

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"time"

	"golang.org/x/image/draw"

	"github.com/forPelevin/hlsync/internal/logging"
	"github.com/forPelevin/hlsync/internal/ports"
	"github.com/forPelevin/hlsync/internal/types"
)

const (
	DefaultCount       = 9
	DefaultScale       = 0.25
	DefaultQuality     = 0.6
	DefaultSeekTimeout = 500 * time.Millisecond
)

type Options struct {
	Count       int
	Scale       float64
	Quality     float64
	SeekTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		Count:       DefaultCount,
		Scale:       DefaultScale,
		Quality:     DefaultQuality,
		SeekTimeout: DefaultSeekTimeout,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Count <= 0 {
		o.Count = d.Count
	}
	if o.Scale <= 0 || o.Scale > 1 {
		o.Scale = d.Scale
	}
	if o.Quality <= 0 || o.Quality > 1 {
		o.Quality = d.Quality
	}
	if o.SeekTimeout <= 0 {
		o.SeekTimeout = d.SeekTimeout
	}
	return o
}

type Sampler struct {
	src    ports.FrameSource
	opts   Options
	logger *slog.Logger
}

func New(src ports.FrameSource, opts Options, logger *slog.Logger) *Sampler {
	logger = logging.OrDiscard(logger)
	return &Sampler{src: src, opts: opts.withDefaults(), logger: logger}
}

// SampleTimes returns duration/(n+1)*i for i=1..n. The first and last
// instants are skipped to avoid leader and black frames.
func SampleTimes(duration float64, n int) []float64 {
	if duration <= 0 || n <= 0 {
		return nil
	}
	interval := duration / float64(n+1)
	out := make([]float64, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, interval*float64(i))
	}
	return out
}

// Sample never fails: a source that cannot be opened yields no frames, and a
// frame that cannot be captured is skipped. Sampling is serial over one
// decode session.
func (s *Sampler) Sample(ctx context.Context, src string, duration float64) []types.AnalyzedFrame {
	times := SampleTimes(duration, s.opts.Count)
	if len(times) == 0 || s.src == nil {
		return nil
	}

	sess, err := s.src.Open(ctx, src)
	if err != nil {
		s.logger.Warn("frame source not ready, continuing without frames", "error", err)
		return nil
	}
	defer func() {
		if err := sess.Close(); err != nil {
			s.logger.Debug("close decode session", "error", err)
		}
	}()

	out := make([]types.AnalyzedFrame, 0, len(times))
	for _, t := range times {
		if ctx.Err() != nil {
			s.logger.Warn("frame sampling interrupted", "captured", len(out), "error", ctx.Err())
			break
		}

		seekCtx, cancel := context.WithTimeout(ctx, s.opts.SeekTimeout)
		err := sess.Seek(seekCtx, t)
		cancel()
		if err != nil {
			// A missed seek must not stall the pipeline; the current frame is used.
			s.logger.Debug("seek not confirmed, capturing current frame", "time", t, "error", err)
		}

		img := sess.Current()
		if img == nil {
			s.logger.Debug("no decoded frame", "time", t)
			continue
		}
		data, err := EncodeFrame(img, s.opts.Scale, s.opts.Quality)
		if err != nil {
			s.logger.Warn("encode frame", "time", t, "error", err)
			continue
		}
		out = append(out, types.AnalyzedFrame{Time: t, Image: data})
	}
	s.logger.Info("frames sampled", "requested", len(times), "captured", len(out))
	return out
}

// EncodeFrame downscales img by scale on both axes and returns it as
// base64 JPEG at the given quality (0..1].
func EncodeFrame(img image.Image, scale, quality float64) (string, error) {
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*scale))
	h := max(1, int(float64(b.Dy())*scale))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)

	var buf bytes.Buffer
	q := min(100, max(1, int(quality*100+0.5)))
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: q}); err != nil {
		return "", fmt.Errorf("jpeg encode: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
