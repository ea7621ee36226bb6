//go:build integration

package itest

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// makeFixture renders a short silent test-pattern mp4.
func makeFixture(t *testing.T, seconds string) string {
	t.Helper()
	tmp := t.TempDir()
	in := filepath.Join(tmp, "fixture clip.mp4")
	ff := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", "testsrc=size=640x360:rate=25:duration="+seconds,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		in,
	)
	if b, err := ff.CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}
	return in
}

func writeTextFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return p
}
