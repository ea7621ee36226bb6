package highlights

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/forPelevin/hlsync/internal/types"
)

var fallbackKeywords = []string{"viral", "shorts", "fyp", "trending"}

var fallbackPhrases = []string{
	"Wait for it...",
	"This changes everything",
	"You won't believe this",
	"Here's the secret",
	"Watch till the end",
}

// FallbackClips lays out ClipsPerRequest synthetic clips over
// max(duration, 3*w.Max) split into equal sections. Timing is random, the
// structure is fixed.
func FallbackClips(rnd *rand.Rand, duration float64, w types.DurationWindow, ids *IDGen) []types.Clip {
	safe := math.Max(duration, w.Max*ClipsPerRequest)
	section := safe / ClipsPerRequest

	out := make([]types.Clip, 0, ClipsPerRequest)
	for i := 0; i < ClipsPerRequest; i++ {
		clipLen := w.Min + math.Floor(rnd.Float64()*(math.Floor(w.Max-w.Min)+1))
		start := math.Min(float64(i)*section+10, duration-clipLen-5)
		start = math.Max(0, start)

		out = append(out, types.Clip{
			ID:            ids.Next("clip"),
			Start:         start,
			End:           start + clipLen,
			Title:         fmt.Sprintf("Viral Moment %d 🔥", i+1),
			ViralityScore: 85 + rnd.Intn(10),
			Summary:       "High energy segment with strong visual hook and action.",
			Keywords:      append([]string(nil), fallbackKeywords...),
		})
	}
	return out
}

// FallbackCaptions emits max(3, floor(duration/5)) captions of random length
// in [2,5) separated by 0.5s, stopping before the video end.
func FallbackCaptions(rnd *rand.Rand, duration float64, ids *IDGen) []types.CaptionSegment {
	const gap = 0.5
	count := max(3, int(math.Floor(duration/5)))

	out := make([]types.CaptionSegment, 0, count)
	t := 0.0
	for i := 0; i < count; i++ {
		length := 2 + rnd.Float64()*3
		if t+length > duration {
			break
		}
		out = append(out, types.CaptionSegment{
			ID:        ids.Next("cap"),
			StartTime: t,
			EndTime:   t + length,
			Text:      fallbackPhrases[i%len(fallbackPhrases)],
		})
		t += length + gap
	}
	return out
}
