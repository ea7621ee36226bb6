// Package export acknowledges an export request: it writes the manifest and
// the caption sidecar of the selected clip to a fresh run directory. No media
// is encoded.
package export

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/forPelevin/hlsync/internal/domain/subtitles"
	"github.com/forPelevin/hlsync/internal/domain/timeline"
	"github.com/forPelevin/hlsync/internal/session"
	"github.com/forPelevin/hlsync/internal/types"
)

// Watermark is the text burned into sidecars when the watermark is enabled.
const Watermark = "hlsync"

var ErrNothingSelected = errors.New("no clip selected")

type Result struct {
	Dir       string         `json:"dir"`
	Manifest  string         `json:"manifest"`
	Subtitles string         `json:"subtitles,omitempty"`
	Data      types.Manifest `json:"data"`
}

// Write exports sn into a new directory under outRoot.
func Write(sn session.Snapshot, outRoot string, now time.Time) (Result, error) {
	if !sn.Loaded {
		return Result{}, session.ErrNoVideo
	}
	selected, ok := sn.SelectedClip()
	if !ok {
		return Result{}, ErrNothingSelected
	}
	if outRoot == "" {
		outRoot = "out"
	}

	runDir := buildRunOutDir(outRoot, sn.Video.Name, now)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return Result{}, err
	}
	res := Result{Dir: runDir}

	m := types.Manifest{
		Input:      sn.Video.Name,
		Duration:   sn.Video.Duration,
		Window:     sn.Window,
		Settings:   sn.Settings,
		Selected:   selected.ID,
		Captions:   len(sn.Captions),
		Synthetic:  sn.SyntheticClips,
		ExportedAt: now.UTC(),
	}
	for _, c := range sn.Clips {
		mc := types.ManifestClip{
			ID:            c.ID,
			StartSec:      c.Start,
			EndSec:        c.End,
			Title:         c.Title,
			ViralityScore: c.ViralityScore,
			Summary:       c.Summary,
			Tags:          c.Keywords,
		}
		if c.ID == selected.ID && sn.Settings.AutoSubtitle {
			rel := filepath.ToSlash(filepath.Join("subtitles", normalizePathSegment(c.ID)+".ass"))
			if err := writeSidecar(filepath.Join(runDir, filepath.FromSlash(rel)), sn, c); err != nil {
				return Result{}, err
			}
			mc.Subtitles = rel
			res.Subtitles = filepath.Join(runDir, filepath.FromSlash(rel))
		}
		m.Clips = append(m.Clips, mc)
	}

	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("marshal manifest: %w", err)
	}
	res.Manifest = filepath.Join(runDir, "manifest.json")
	if err := os.WriteFile(res.Manifest, b, 0o644); err != nil {
		return Result{}, err
	}
	res.Data = m
	return res, nil
}

func writeSidecar(path string, sn session.Snapshot, c types.Clip) error {
	st := subtitles.Style{Quality: sn.Settings.ExportQuality}
	if sn.Settings.ShowWatermark {
		st.Watermark = Watermark
	}
	caps := timeline.CaptionsWithin(sn.Captions, c.Start, c.End)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(subtitles.RenderClipASS(caps, c, st)), 0o644)
}

func buildRunOutDir(outRoot, input string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", input, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}
