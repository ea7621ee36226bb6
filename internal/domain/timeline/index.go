// Package timeline resolves which entities cover a playback instant.
// Lookups are linear scans over small collections.
package timeline

import "github.com/forPelevin/hlsync/internal/types"

// ActiveClip returns the first clip whose [Start, End) contains t.
func ActiveClip(clips []types.Clip, t float64) (types.Clip, bool) {
	for _, c := range clips {
		if t >= c.Start && t < c.End {
			return c, true
		}
	}
	return types.Clip{}, false
}

// ActiveCaption returns the first segment by input order with
// StartTime <= t < EndTime. Overlap is not assumed away: first match wins.
func ActiveCaption(caps []types.CaptionSegment, t float64) (types.CaptionSegment, bool) {
	for _, c := range caps {
		if t >= c.StartTime && t < c.EndTime {
			return c, true
		}
	}
	return types.CaptionSegment{}, false
}

func FindClip(clips []types.Clip, id string) (types.Clip, bool) {
	if id == "" {
		return types.Clip{}, false
	}
	for _, c := range clips {
		if c.ID == id {
			return c, true
		}
	}
	return types.Clip{}, false
}

// CaptionsWithin returns captions intersecting [start, end), in input order.
func CaptionsWithin(caps []types.CaptionSegment, start, end float64) []types.CaptionSegment {
	var out []types.CaptionSegment
	for _, c := range caps {
		if c.EndTime <= start || c.StartTime >= end {
			continue
		}
		out = append(out, c)
	}
	return out
}
