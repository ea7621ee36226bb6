package highlights

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/forPelevin/hlsync/internal/types"
)

// ClampEnd is the single safety net for collaborator timing:
// end' = min(start+max, max(end, start+min)).
// The result may exceed the video duration when start is near the end.
func ClampEnd(start, end float64, w types.DurationWindow) float64 {
	return math.Min(start+w.Max, math.Max(end, start+w.Min))
}

// RepairClips converts raw collaborator candidates into Clips. Candidates
// that are not objects or carry no numeric start are dropped.
func RepairClips(raw []any, w types.DurationWindow, ids *IDGen) []types.Clip {
	out := make([]types.Clip, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		start, ok := number(m["start"])
		if !ok {
			continue
		}
		if start < 0 {
			start = 0
		}
		end, ok := number(m["end"])
		if !ok {
			end = start
		}

		title := strings.TrimSpace(str(m["title"]))
		if title == "" {
			title = "Highlight"
		}
		summary := strings.TrimSpace(str(m["summary"]))
		keywords := strList(m["keywords"])
		score := EstimateVirality(title, summary, keywords)
		if v, ok := number(m["viralityScore"]); ok {
			score = int(math.Round(v))
		}

		out = append(out, types.Clip{
			ID:            ids.Next("clip"),
			Start:         start,
			End:           ClampEnd(start, end, w),
			Title:         title,
			ViralityScore: score,
			Summary:       summary,
			Keywords:      keywords,
		})
	}
	return out
}

// RepairCaptions keeps input order. Inverted ranges are swapped, empty or
// zero-length captions dropped.
func RepairCaptions(raw []any, ids *IDGen) []types.CaptionSegment {
	out := make([]types.CaptionSegment, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		st, ok1 := number(m["startTime"])
		en, ok2 := number(m["endTime"])
		text := strings.TrimSpace(str(m["text"]))
		if !ok1 || !ok2 || text == "" {
			continue
		}
		if en < st {
			st, en = en, st
		}
		if st < 0 {
			st = 0
		}
		if en <= st {
			continue
		}
		out = append(out, types.CaptionSegment{
			ID:        ids.Next("cap"),
			StartTime: st,
			EndTime:   en,
			Text:      text,
		})
	}
	return out
}

func number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func strList(v any) []string {
	out := []string{}
	switch x := v.(type) {
	case []any:
		for _, it := range x {
			if s := strings.TrimSpace(str(it)); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, s := range x {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
