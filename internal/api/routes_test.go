package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/forPelevin/hlsync/internal/logging"
	"github.com/forPelevin/hlsync/internal/ports/adapters/media"
	"github.com/forPelevin/hlsync/internal/session"
	"github.com/forPelevin/hlsync/internal/types"
	"github.com/forPelevin/hlsync/internal/usecase"
)

type fakeGen struct{}

func (fakeGen) GenerateClips(_ context.Context, in usecase.ClipsInput) usecase.ClipsResult {
	return usecase.ClipsResult{Clips: []types.Clip{
		{ID: "clip-1", Start: 10, End: 10 + in.Window.Min, Title: "Hook"},
		{ID: "clip-2", Start: 70, End: 90, Title: "Twist"},
	}}
}

func (fakeGen) GenerateCaptions(context.Context, usecase.CaptionsInput) usecase.CaptionsResult {
	return usecase.CaptionsResult{Captions: []types.CaptionSegment{
		{ID: "cap-1", StartTime: 11, EndTime: 13, Text: "hello"},
	}}
}

func newTestRouter(t *testing.T) (http.Handler, *session.Session) {
	t.Helper()
	s := session.New(fakeGen{}, media.NewClock(0), session.Options{})
	router := NewRouter(ServerConfig{
		Session:   s,
		OutDir:    t.TempDir(),
		StartTime: time.Now(),
		Now:       func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	return router, s
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return body
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t)
	rr := do(t, h, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}
	if body := decodeJSONBody(t, rr); body["status"] != "ok" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestGenerateBeforeVideo(t *testing.T) {
	h, _ := newTestRouter(t)
	rr := do(t, h, http.MethodPost, "/session/clips/generate", nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusConflict)
	}
	if body := decodeJSONBody(t, rr); body["code"] != "NO_VIDEO" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestSessionFlow(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := do(t, h, http.MethodPost, "/session/video", LoadVideoRequest{Name: "talk.mp4", Path: "/videos/talk.mp4"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("load video = %d: %s", rr.Code, rr.Body.String())
	}
	rr = do(t, h, http.MethodPost, "/session/clips/generate", nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected conflict without duration, got %d", rr.Code)
	}

	rr = do(t, h, http.MethodPatch, "/session/video/duration", map[string]any{"duration": 120})
	if rr.Code != http.StatusOK {
		t.Fatalf("duration = %d: %s", rr.Code, rr.Body.String())
	}

	ctxText := "cooking"
	minD, maxD := 20.0, 40.0
	rr = do(t, h, http.MethodPost, "/session/clips/generate", GenerateClipsRequest{Context: &ctxText, MinDuration: &minD, MaxDuration: &maxD})
	if rr.Code != http.StatusOK {
		t.Fatalf("generate = %d: %s", rr.Code, rr.Body.String())
	}
	var sn session.Snapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &sn); err != nil {
		t.Fatal(err)
	}
	if len(sn.Clips) != 2 || sn.Selected != "clip-1" || sn.Clips[0].End != 30 {
		t.Fatalf("unexpected snapshot: %+v", sn)
	}

	rr = do(t, h, http.MethodPost, "/session/captions/generate", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("captions = %d", rr.Code)
	}

	rr = do(t, h, http.MethodPost, "/session/seek", map[string]any{"time": 12})
	if body := decodeJSONBody(t, rr); body["activeCaption"] == nil {
		t.Fatalf("expected active caption at 12: %v", body)
	}

	rr = do(t, h, http.MethodPost, "/session/select", SelectRequest{ClipID: "clip-2"})
	if body := decodeJSONBody(t, rr); body["selected"] != "clip-2" || body["state"] != "playing" {
		t.Fatalf("unexpected select response: %v", body)
	}
	rr = do(t, h, http.MethodPost, "/session/time", map[string]any{"time": 90})
	if body := decodeJSONBody(t, rr); body["state"] != "stopped" || body["cursor"] != float64(70) {
		t.Fatalf("expected rewind to clip start: %v", body)
	}

	rr = do(t, h, http.MethodPost, "/session/select", SelectRequest{ClipID: "missing"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("select missing = %d", rr.Code)
	}

	rr = do(t, h, http.MethodPut, "/session/settings", map[string]any{"export_quality": "4k", "show_watermark": true})
	if rr.Code != http.StatusOK {
		t.Fatalf("settings = %d", rr.Code)
	}
	rr = do(t, h, http.MethodPut, "/session/settings", map[string]any{"export_quality": "720p"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad settings = %d", rr.Code)
	}

	rr = do(t, h, http.MethodPost, "/session/export", nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("export = %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeJSONBody(t, rr)
	manifest, _ := body["manifest"].(string)
	if _, err := os.Stat(manifest); err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
}

func TestSnapshotReadOnly_TickAdvancesPlayback(t *testing.T) {
	now := time.Unix(0, 0)
	clock := media.NewClock(0).WithNow(func() time.Time { return now })
	s := session.New(fakeGen{}, clock, session.Options{})
	h := NewRouter(ServerConfig{Session: s, OutDir: t.TempDir(), StartTime: time.Now()})

	rr := do(t, h, http.MethodPost, "/session/tick", nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("tick without video = %d", rr.Code)
	}

	s.LoadVideo(context.Background(), "talk.mp4", "/videos/talk.mp4", 120)
	if _, err := s.GenerateClips(context.Background(), session.ClipsRequest{}); err != nil {
		t.Fatal(err)
	}
	if err := s.Select("clip-2"); err != nil {
		t.Fatal(err)
	}
	now = now.Add(25 * time.Second)

	for i := 0; i < 2; i++ {
		body := decodeJSONBody(t, do(t, h, http.MethodGet, "/session", nil))
		if body["state"] != "playing" {
			t.Fatalf("GET /session changed playback: %v", body)
		}
	}

	body := decodeJSONBody(t, do(t, h, http.MethodPost, "/session/tick", nil))
	if body["state"] != "stopped" || body["cursor"] != float64(70) {
		t.Fatalf("expected tick to stop and rewind to 70: %v", body)
	}
	if clock.Playing() {
		t.Fatal("expected media paused")
	}
}

func TestTimeRequiresValue(t *testing.T) {
	h, _ := newTestRouter(t)
	rr := do(t, h, http.MethodPost, "/session/seek", map[string]any{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d", rr.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status code = %d", rr.Code)
	}
}

func discardLogger() *slog.Logger { return logging.Discard() }
