package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/hlsync/internal/ports/adapters/media"
	"github.com/forPelevin/hlsync/internal/session"
	"github.com/forPelevin/hlsync/internal/types"
	"github.com/forPelevin/hlsync/internal/usecase"
)

type fakeGen struct {
	clips []types.Clip
}

func (f fakeGen) GenerateClips(context.Context, usecase.ClipsInput) usecase.ClipsResult {
	return usecase.ClipsResult{Clips: f.clips}
}

func (fakeGen) GenerateCaptions(context.Context, usecase.CaptionsInput) usecase.CaptionsResult {
	return usecase.CaptionsResult{Captions: []types.CaptionSegment{
		{ID: "c1", StartTime: 11, EndTime: 13, Text: "first line"},
		{ID: "c2", StartTime: 14, EndTime: 16, Text: "second line"},
		{ID: "c3", StartTime: 40, EndTime: 42, Text: "outside"},
	}}
}

func newPreviewSession(t *testing.T, duration float64, clips []types.Clip) (*session.Session, *virtualTime) {
	t.Helper()
	vt := &virtualTime{now: time.Unix(0, 0)}
	s := session.New(fakeGen{clips: clips}, media.NewClock(0).WithNow(vt.Now), session.Options{})
	s.LoadVideo(context.Background(), "v.mp4", "v.mp4", duration)
	if _, err := s.GenerateClips(context.Background(), session.ClipsRequest{}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GenerateCaptions(context.Background()); err != nil {
		t.Fatal(err)
	}
	return s, vt
}

func TestPreview_PrintsCaptionsAndStops(t *testing.T) {
	s, vt := newPreviewSession(t, 120, []types.Clip{{ID: "a", Start: 10, End: 25, Title: "Hook"}})

	var out bytes.Buffer
	if err := preview(s, vt, 1, &out); err != nil {
		t.Fatalf("preview: %v", err)
	}
	got := out.String()
	for _, want := range []string{"▶ Hook", "first line", "second line", "■ stopped, rewound to 10.0s"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in output:\n%s", want, got)
		}
	}
	if strings.Contains(got, "outside") {
		t.Fatalf("caption outside the clip printed:\n%s", got)
	}
	if strings.Count(got, "first line") != 1 {
		t.Fatalf("caption printed more than once:\n%s", got)
	}
}

func TestPreview_ClipPastVideoEnd(t *testing.T) {
	s, vt := newPreviewSession(t, 20, []types.Clip{{ID: "a", Start: 5, End: 30}})

	var out bytes.Buffer
	if err := preview(s, vt, 1, &out); err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !strings.Contains(out.String(), "end of video at 20.0s") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestPreview_IndexOutOfRange(t *testing.T) {
	s, vt := newPreviewSession(t, 120, []types.Clip{{ID: "a", Start: 10, End: 25}})
	if err := preview(s, vt, 2, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error")
	}
}
