package frames

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"testing"
	"time"

	"github.com/forPelevin/hlsync/internal/ports"
)

func TestSampleTimes_NinetySecondsNineFrames(t *testing.T) {
	got := SampleTimes(90, 9)
	want := []float64{9, 18, 27, 36, 45, 54, 63, 72, 81}
	if len(got) != len(want) {
		t.Fatalf("expected %d times, got %d", len(want), len(got))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("time %d: expected %v, got %v", i, want[i], got[i])
		}
		if got[i] < 0 || got[i] > 90 {
			t.Fatalf("time %v outside [0,90]", got[i])
		}
	}
}

func TestSampleTimes_Degenerate(t *testing.T) {
	if got := SampleTimes(0, 9); got != nil {
		t.Fatalf("expected nil for zero duration, got %v", got)
	}
	if got := SampleTimes(10, 0); got != nil {
		t.Fatalf("expected nil for zero count, got %v", got)
	}
}

func TestSample_CapturesEveryTime(t *testing.T) {
	src := &fakeSource{sess: &fakeSession{}}
	s := New(src, Options{Count: 9, SeekTimeout: 50 * time.Millisecond}, nil)

	got := s.Sample(context.Background(), "in.mp4", 90)
	if len(got) != 9 {
		t.Fatalf("expected 9 frames, got %d", len(got))
	}
	for i, f := range got {
		want := 9 * float64(i+1)
		if math.Abs(f.Time-want) > 1e-9 {
			t.Fatalf("frame %d: expected time %v, got %v", i, want, f.Time)
		}
		if f.Image == "" {
			t.Fatalf("frame %d has empty payload", i)
		}
	}
	if !src.sess.closed {
		t.Fatalf("expected decode session to be closed")
	}
}

func TestSample_SeekTimeoutDoesNotStall(t *testing.T) {
	sess := &fakeSession{blockSeek: true}
	s := New(&fakeSource{sess: sess}, Options{Count: 3, SeekTimeout: 10 * time.Millisecond}, nil)

	start := time.Now()
	got := s.Sample(context.Background(), "in.mp4", 40)
	if time.Since(start) > 2*time.Second {
		t.Fatalf("sampling stalled on blocked seeks")
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 frames from the current raster, got %d", len(got))
	}
}

func TestSample_SourceNeverReady(t *testing.T) {
	s := New(&fakeSource{openErr: errors.New("no decoder")}, DefaultOptions(), nil)
	if got := s.Sample(context.Background(), "in.mp4", 90); len(got) != 0 {
		t.Fatalf("expected no frames, got %d", len(got))
	}
}

func TestSample_PartialWhenNoRaster(t *testing.T) {
	sess := &fakeSession{emptyUntil: 2}
	s := New(&fakeSource{sess: sess}, Options{Count: 4}, nil)
	got := s.Sample(context.Background(), "in.mp4", 50)
	if len(got) != 2 {
		t.Fatalf("expected 2 frames once raster appears, got %d", len(got))
	}
}

func TestEncodeFrame_Downscales(t *testing.T) {
	img := solid(640, 360)
	data, err := EncodeFrame(img, 0.25, 0.6)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		t.Fatalf("base64: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode jpeg: %v", err)
	}
	if cfg.Width != 160 || cfg.Height != 90 {
		t.Fatalf("expected 160x90, got %dx%d", cfg.Width, cfg.Height)
	}
}

type fakeSource struct {
	sess    *fakeSession
	openErr error
}

func (f *fakeSource) Open(_ context.Context, _ string) (ports.DecodeSession, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.sess, nil
}

func (f *fakeSource) ProbeDuration(_ context.Context, _ string) (time.Duration, error) {
	return 0, nil
}

type fakeSession struct {
	blockSeek  bool
	emptyUntil int
	seeks      int
	closed     bool
}

func (f *fakeSession) Seek(ctx context.Context, _ float64) error {
	f.seeks++
	if f.blockSeek {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (f *fakeSession) Current() image.Image {
	if f.seeks <= f.emptyUntil {
		return nil
	}
	return solid(64, 36)
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	return img
}
