package timeline

import (
	"testing"

	"github.com/forPelevin/hlsync/internal/types"
)

func TestActiveCaption(t *testing.T) {
	caps := []types.CaptionSegment{
		{ID: "a", StartTime: 0, EndTime: 2},
		{ID: "b", StartTime: 2.5, EndTime: 5},
		{ID: "c", StartTime: 8, EndTime: 10},
	}
	tests := []struct {
		name   string
		t      float64
		wantID string
	}{
		{"start inclusive", 0, "a"},
		{"end exclusive", 2, ""},
		{"gap", 2.2, ""},
		{"second", 4.99, "b"},
		{"large gap", 6, ""},
		{"last", 9, "c"},
		{"after all", 10, ""},
		{"negative", -1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ActiveCaption(caps, tt.t)
			if tt.wantID == "" {
				if ok {
					t.Fatalf("expected none at %v, got %q", tt.t, got.ID)
				}
				return
			}
			if !ok || got.ID != tt.wantID {
				t.Fatalf("expected %q at %v, got %q (ok=%v)", tt.wantID, tt.t, got.ID, ok)
			}
		})
	}
}

func TestActiveCaption_OverlapFirstByOrder(t *testing.T) {
	caps := []types.CaptionSegment{
		{ID: "late", StartTime: 3, EndTime: 9},
		{ID: "early", StartTime: 1, EndTime: 6},
	}
	for i := 0; i < 10; i++ {
		got, ok := ActiveCaption(caps, 4)
		if !ok || got.ID != "late" {
			t.Fatalf("iteration %d: expected first-by-order %q, got %q", i, "late", got.ID)
		}
	}
	got, _ := ActiveCaption(caps, 2)
	if got.ID != "early" {
		t.Fatalf("expected %q at 2s, got %q", "early", got.ID)
	}
}

func TestActiveClipAndFind(t *testing.T) {
	clips := []types.Clip{{ID: "x", Start: 10, End: 25}, {ID: "y", Start: 40, End: 60}}
	if c, ok := ActiveClip(clips, 25); ok {
		t.Fatalf("end must be exclusive, got %q", c.ID)
	}
	if c, ok := ActiveClip(clips, 40); !ok || c.ID != "y" {
		t.Fatalf("expected y at 40, got %q", c.ID)
	}
	if _, ok := FindClip(clips, "gone"); ok {
		t.Fatalf("expected missing id to resolve to none")
	}
	if _, ok := FindClip(clips, ""); ok {
		t.Fatalf("expected empty id to resolve to none")
	}
}

func TestCaptionsWithin(t *testing.T) {
	caps := []types.CaptionSegment{
		{ID: "a", StartTime: 0, EndTime: 5},
		{ID: "b", StartTime: 9, EndTime: 12},
		{ID: "c", StartTime: 20, EndTime: 22},
	}
	got := CaptionsWithin(caps, 5, 20)
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("expected only b, got %+v", got)
	}
}
