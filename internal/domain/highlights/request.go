package highlights

import (
	"errors"
	"fmt"
	"strings"

	"github.com/forPelevin/hlsync/internal/types"
)

// ClipsPerRequest is how many segments the collaborator is asked for.
const ClipsPerRequest = 3

const systemInstruction = "You are a professional video editor for a top social media agency. " +
	"You specialize in identifying viral hooks in long-form content."

func DefaultContext(videoName string) string {
	return fmt.Sprintf("A video named %s. Identify the most engaging parts.", videoName)
}

// BuildRequest composes the highlight request. An empty context is replaced
// by DefaultContext(videoName).
func BuildRequest(
	duration float64,
	context string,
	videoName string,
	frames []types.AnalyzedFrame,
	w types.DurationWindow,
) (types.HighlightRequest, error) {
	if duration <= 0 {
		return types.HighlightRequest{}, errors.New("duration must be > 0")
	}
	if !w.Valid() {
		return types.HighlightRequest{}, fmt.Errorf("invalid duration window [%v, %v]", w.Min, w.Max)
	}
	context = strings.TrimSpace(context)
	if context == "" {
		context = DefaultContext(videoName)
	}

	return types.HighlightRequest{
		Duration:     duration,
		Context:      context,
		Frames:       frames,
		Window:       w,
		ClipsN:       ClipsPerRequest,
		System:       systemInstruction,
		Instructions: buildInstructions(duration, context, len(frames), w),
		Schema:       ClipSchema(),
	}, nil
}

func buildInstructions(duration float64, context string, frameCount int, w types.DurationWindow) string {
	return fmt.Sprintf(
		"Analyze the %d provided frames from a %s-second video.\n"+
			"Context: %q.\n\n"+
			"Task: Identify %d distinct, viral-worthy segments suitable for Shorts/TikTok.\n\n"+
			"Constraints:\n"+
			"1. Each clip MUST have a duration between %s seconds and %s seconds.\n"+
			"2. Select the most engaging, high-energy, or funny moments.\n"+
			"3. Ensure clips do not overlap significantly.\n\n"+
			"Output Requirements (JSON, no markdown, no code fences):\n"+
			"- start/end: Exact timestamps in seconds.\n"+
			"- title: Clickbait-style, short, punchy (max 5 words).\n"+
			"- viralityScore: 80-100 based on visual interest.\n"+
			"- summary: Why this part will go viral.\n"+
			"- keywords: 3-5 trending tags.",
		frameCount, fmtSec(duration), context, ClipsPerRequest, fmtSec(w.Min), fmtSec(w.Max),
	)
}

// ClipSchema is the strict output contract for clip candidates.
func ClipSchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"start":         map[string]any{"type": "number"},
				"end":           map[string]any{"type": "number"},
				"title":         map[string]any{"type": "string"},
				"viralityScore": map[string]any{"type": "number"},
				"summary":       map[string]any{"type": "string"},
				"keywords": map[string]any{
					"type":     "array",
					"items":    map[string]any{"type": "string"},
					"minItems": 3,
					"maxItems": 5,
				},
			},
			"required": []string{"start", "end", "title", "viralityScore", "summary"},
		},
	}
}

// BuildCaptionRequest asks for short, non-overlapping caption lines.
func BuildCaptionRequest(duration float64, frames []types.AnalyzedFrame) (types.CaptionRequest, error) {
	if duration <= 0 {
		return types.CaptionRequest{}, errors.New("duration must be > 0")
	}
	return types.CaptionRequest{
		Duration: duration,
		Frames:   frames,
		Instructions: fmt.Sprintf(
			"Using the %d provided frames from a %s-second video, write short on-screen captions.\n"+
				"Each caption lasts 2-5 seconds, captions never overlap, and all fall within [0, %s].\n"+
				"Return JSON (no markdown) listing {startTime, endTime, text} ordered by startTime.",
			len(frames), fmtSec(duration), fmtSec(duration),
		),
		Schema: CaptionSchema(),
	}, nil
}

func CaptionSchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"startTime": map[string]any{"type": "number"},
				"endTime":   map[string]any{"type": "number"},
				"text":      map[string]any{"type": "string"},
			},
			"required": []string{"startTime", "endTime", "text"},
		},
	}
}

func fmtSec(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
}
