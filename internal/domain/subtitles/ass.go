// Package subtitles renders caption segments as per-clip ASS sidecars.
package subtitles

import (
	"fmt"
	"strings"
	"time"

	"github.com/forPelevin/hlsync/internal/types"
)

const (
	charBudget = 42
	wordBudget = 9
)

// Style controls the rendered script.
type Style struct {
	Quality   types.ExportQuality
	Watermark string
}

type word struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

type line struct {
	Start time.Duration
	End   time.Duration
	Words []word
}

// RenderClipASS renders the captions overlapping clip with clip-local times.
// Caption words share their segment's interval evenly and are packed into
// karaoke lines.
func RenderClipASS(caps []types.CaptionSegment, clip types.Clip, st Style) string {
	start, end := types.Dur(clip.Start), types.Dur(clip.End)
	var lines []line
	for _, c := range caps {
		words := spreadWords(c, start, end)
		if len(words) == 0 {
			continue
		}
		lines = append(lines, packWords(words)...)
	}

	var b strings.Builder
	b.WriteString(assHeader(st.Quality))
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	if wm := sanitizeASS(st.Watermark); wm != "" {
		fmt.Fprintf(&b, "Dialogue: 1,%s,%s,Watermark,,0,0,0,,%s\n", assTime(0), assTime(end-start), wm)
	}
	for _, ln := range lines {
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(ln.Start))
		b.WriteString(",")
		b.WriteString(assTime(ln.End))
		b.WriteString(",Caption,,0,0,0,,")
		for _, w := range ln.Words {
			durCS := int((w.End - w.Start) / (10 * time.Millisecond))
			if durCS < 1 {
				durCS = 1
			}
			fmt.Fprintf(&b, "{\\k%d}%s ", durCS, w.Text)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func spreadWords(c types.CaptionSegment, start, end time.Duration) []word {
	cs, ce := types.Dur(c.StartTime), types.Dur(c.EndTime)
	if ce <= start || cs >= end {
		return nil
	}
	fields := strings.Fields(sanitizeASS(c.Text))
	if len(fields) == 0 {
		return nil
	}
	step := (ce - cs) / time.Duration(len(fields))
	var out []word
	for i, f := range fields {
		ws := cs + time.Duration(i)*step
		we := ws + step
		if we <= start || ws >= end {
			continue
		}
		ws = max(ws, start)
		we = min(we, end)
		out = append(out, word{Start: ws - start, End: we - start, Text: f})
	}
	return out
}

func packWords(words []word) []line {
	var out []line
	cur := line{Start: words[0].Start}
	curLen := 0
	for i, w := range words {
		wl := len([]rune(w.Text))
		nextLen := curLen
		if curLen > 0 {
			nextLen++
		}
		nextLen += wl
		if len(cur.Words) > 0 && (len(cur.Words) >= wordBudget || nextLen > charBudget) {
			cur.End = cur.Words[len(cur.Words)-1].End
			out = append(out, cur)
			cur = line{Start: w.Start}
			curLen = 0
		}
		cur.Words = append(cur.Words, w)
		if curLen > 0 {
			curLen++
		}
		curLen += wl
		if i == len(words)-1 {
			cur.End = w.End
			out = append(out, cur)
		}
	}
	return out
}

func playRes(q types.ExportQuality) (int, int) {
	if q == types.Quality4K {
		return 3840, 2160
	}
	return 1920, 1080
}

func assHeader(q types.ExportQuality) string {
	x, y := playRes(q)
	scale := y / 1080
	return strings.TrimSpace(fmt.Sprintf(`
[Script Info]
ScriptType: v4.00+
PlayResX: %d
PlayResY: %d
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Caption, Inter, %d, &H00FFFFFF, &H00FFD200, &H00000000, &H64000000, 1,0,0,0,100,100,0,0,1,6,2,2, 80,80,85,1
Style: Watermark, Inter, %d, &H80FFFFFF, &H80FFFFFF, &H00000000, &H00000000, 0,0,0,0,100,100,0,0,1,1,0,9, 40,40,40,1
`, x, y, 78*scale, 32*scale))
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
