package highlights

import (
	"math/rand"
	"testing"

	"github.com/forPelevin/hlsync/internal/types"
)

func TestFallbackClips_ShortVideo(t *testing.T) {
	w := types.DurationWindow{Min: 15, Max: 59}
	for seed := int64(0); seed < 50; seed++ {
		clips := FallbackClips(rand.New(rand.NewSource(seed)), 30, w, NewIDGen())
		if len(clips) != 3 {
			t.Fatalf("seed %d: expected 3 clips, got %d", seed, len(clips))
		}
		for _, c := range clips {
			if d := c.End - c.Start; d < 15 || d > 59 {
				t.Fatalf("seed %d: duration %v outside window", seed, d)
			}
			if c.Start < 0 {
				t.Fatalf("seed %d: negative start %v", seed, c.Start)
			}
			if c.ViralityScore < 85 || c.ViralityScore > 94 {
				t.Fatalf("seed %d: score %d outside 85-94", seed, c.ViralityScore)
			}
		}
	}
}

func TestFallbackClips_LongVideoSpreadsSections(t *testing.T) {
	w := types.DurationWindow{Min: 15, Max: 59}
	clips := FallbackClips(rand.New(rand.NewSource(7)), 600, w, NewIDGen())
	wantStarts := []float64{10, 210, 410}
	for i, c := range clips {
		if c.Start != wantStarts[i] {
			t.Fatalf("clip %d: expected start %v, got %v", i, wantStarts[i], c.Start)
		}
	}
}

func TestFallbackClips_DeterministicForSeed(t *testing.T) {
	w := types.DurationWindow{Min: 20, Max: 40}
	a := FallbackClips(rand.New(rand.NewSource(3)), 200, w, NewIDGen())
	b := FallbackClips(rand.New(rand.NewSource(3)), 200, w, NewIDGen())
	for i := range a {
		if a[i].Start != b[i].Start || a[i].End != b[i].End {
			t.Fatalf("clip %d differs for same seed", i)
		}
	}
}

func TestFallbackCaptions(t *testing.T) {
	caps := FallbackCaptions(rand.New(rand.NewSource(1)), 60, NewIDGen())
	if len(caps) == 0 || len(caps) > 12 {
		t.Fatalf("expected 1..12 captions, got %d", len(caps))
	}
	for i, c := range caps {
		if l := c.EndTime - c.StartTime; l < 2 || l >= 5 {
			t.Fatalf("caption %d length %v outside [2,5)", i, l)
		}
		if c.EndTime > 60 {
			t.Fatalf("caption %d ends past duration: %v", i, c.EndTime)
		}
		if i > 0 {
			gap := c.StartTime - caps[i-1].EndTime
			if gap < 0.5-1e-9 || gap > 0.5+1e-9 {
				t.Fatalf("caption %d gap %v, want 0.5", i, gap)
			}
		}
		if c.Text == "" {
			t.Fatalf("caption %d has empty text", i)
		}
	}
}

func TestFallbackCaptions_MinimumCountAndEarlyStop(t *testing.T) {
	if got := FallbackCaptions(rand.New(rand.NewSource(1)), 1, NewIDGen()); len(got) != 0 {
		t.Fatalf("expected no captions for 1s video, got %d", len(got))
	}
	got := FallbackCaptions(rand.New(rand.NewSource(1)), 1000, NewIDGen())
	if len(got) != 200 {
		t.Fatalf("expected floor(1000/5) captions, got %d", len(got))
	}
}
