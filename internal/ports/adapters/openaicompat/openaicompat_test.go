package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"

	"github.com/forPelevin/hlsync/internal/ports"
	"github.com/forPelevin/hlsync/internal/types"
)

func TestGenerateClips(t *testing.T) {
	var gotPath string
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   "m",
			"choices": []any{map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": `{"clips":[{"start":1,"end":20,"title":"x"}]}`,
				},
			}},
		})
	}))
	defer srv.Close()

	a := New("k", "m", srv.URL+"/v1", option.WithMaxRetries(0))
	raw, err := a.GenerateClips(context.Background(), types.HighlightRequest{
		System:       "sys",
		Instructions: "do it",
		Frames:       []types.AnalyzedFrame{{Time: 9, Image: "AAA"}},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(raw) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(raw))
	}
	if gotPath != "/v1/chat/completions" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(msgs))
	}
	parts, _ := msgs[1].(map[string]any)["content"].([]any)
	if len(parts) != 3 {
		t.Fatalf("expected label, image and instructions, got %d parts", len(parts))
	}
}

func TestGenerate_ServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
	}))
	defer srv.Close()

	a := New("k", "m", srv.URL+"/v1", option.WithMaxRetries(0))
	if _, err := a.GenerateCaptions(context.Background(), types.CaptionRequest{Instructions: "x"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestGenerate_NoKey(t *testing.T) {
	a := New("", "", "")
	if _, err := a.GenerateClips(context.Background(), types.HighlightRequest{}); !errors.Is(err, ports.ErrNoCollaborator) {
		t.Fatalf("expected ErrNoCollaborator, got %v", err)
	}
}

func TestValidateBaseURL(t *testing.T) {
	if err := ValidateBaseURL("", nil); err != nil {
		t.Fatalf("default base URL rejected: %v", err)
	}
	if err := ValidateBaseURL("https://evil.example/v1", nil); err == nil {
		t.Fatalf("expected unknown host to be rejected")
	}
	if err := ValidateBaseURL("https://llm.internal/v1", []string{"llm.internal"}); err != nil {
		t.Fatalf("allow-listed host rejected: %v", err)
	}
}
