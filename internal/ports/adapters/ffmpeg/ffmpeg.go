package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	ffmpeggo "github.com/u2takey/ffmpeg-go"

	"github.com/forPelevin/hlsync/internal/ports"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// Open returns a detached decode session over src. Nothing is decoded until
// the first Seek.
func (a *Adapter) Open(_ context.Context, src string) (ports.DecodeSession, error) {
	st, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("open source: %s is a directory", src)
	}
	return &session{bin: a.ffmpeg, src: src}, nil
}

func (a *Adapter) ProbeDuration(ctx context.Context, inMP4 string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		inMP4,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

type session struct {
	bin string
	src string

	mu  sync.Mutex
	cur image.Image
}

// Seek decodes the frame at sec. On failure the previous frame is kept.
func (s *session) Seek(ctx context.Context, sec float64) error {
	args := SeekArgs(s.src, sec)
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg seek %s: %w", fmtSeconds(sec), ctx.Err())
		}
		return fmt.Errorf("ffmpeg seek %s: %w\n%s", fmtSeconds(sec), err, stderr.String())
	}
	img, err := png.Decode(&stdout)
	if err != nil {
		return fmt.Errorf("decode frame at %s: %w", fmtSeconds(sec), err)
	}
	s.mu.Lock()
	s.cur = img
	s.mu.Unlock()
	return nil
}

func (s *session) Current() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

func (s *session) Close() error {
	s.mu.Lock()
	s.cur = nil
	s.mu.Unlock()
	return nil
}

// SeekArgs builds the ffmpeg arguments that write the single frame at sec
// as PNG to stdout.
func SeekArgs(src string, sec float64) []string {
	return ffmpeggo.Input(src, ffmpeggo.KwArgs{"ss": fmtSeconds(sec)}).
		Output("pipe:", ffmpeggo.KwArgs{
			"format":  "image2",
			"vcodec":  "png",
			"vframes": 1,
		}).
		GetArgs()
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
