//go:build integration

package itest

import (
	"fmt"

	"github.com/tidwall/gjson"
	ffmpeggo "github.com/u2takey/ffmpeg-go"
)

// probeDurationSeconds reads format.duration independently of the adapter
// under test.
func probeDurationSeconds(mp4Path string) (float64, error) {
	out, err := ffmpeggo.Probe(mp4Path)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	d := gjson.Get(out, "format.duration")
	if !d.Exists() {
		return 0, fmt.Errorf("ffprobe: no format.duration in %q", out)
	}
	return d.Float(), nil
}
