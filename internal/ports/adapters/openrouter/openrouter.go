package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/forPelevin/hlsync/internal/ports"
	"github.com/forPelevin/hlsync/internal/ports/adapters/endpoint"
	"github.com/forPelevin/hlsync/internal/ports/adapters/llmjson"
	"github.com/forPelevin/hlsync/internal/types"
)

type Adapter struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
}

const (
	requestTimeout = 90 * time.Second
	defaultModel   = "google/gemini-2.5-flash"
	DefaultBaseURL = "https://openrouter.ai"
)

// DefaultHosts are accepted when OPENROUTER_ALLOWED_HOSTS is unset.
var DefaultHosts = []string{"openrouter.ai", "api.openrouter.ai"}

func ValidateBaseURL(baseURL string, allowedHosts []string) error {
	return endpoint.Validate("OPENROUTER_BASE_URL", endpoint.Normalize(baseURL, DefaultBaseURL), DefaultHosts, allowedHosts)
}

func New(apiKey, model, baseURL string) *Adapter {
	if model == "" {
		model = defaultModel
	}
	baseURL = endpoint.Normalize(baseURL, DefaultBaseURL)
	return &Adapter{key: apiKey, model: model, baseURL: baseURL, client: &http.Client{Timeout: 5 * time.Minute}}
}

func (a *Adapter) GenerateClips(ctx context.Context, req types.HighlightRequest) ([]any, error) {
	if strings.TrimSpace(a.key) == "" {
		return nil, ports.ErrNoCollaborator
	}
	messages := []map[string]any{
		{"role": "system", "content": req.System},
		{"role": "user", "content": contentParts(req.Frames, req.Instructions)},
	}
	content, err := a.complete(ctx, messages, "hlsync_clips", wrapSchema("clips", req.Schema))
	if err != nil {
		return nil, err
	}
	return llmjson.Candidates(content, "clips")
}

func (a *Adapter) GenerateCaptions(ctx context.Context, req types.CaptionRequest) ([]any, error) {
	if strings.TrimSpace(a.key) == "" {
		return nil, ports.ErrNoCollaborator
	}
	messages := []map[string]any{
		{"role": "user", "content": contentParts(req.Frames, req.Instructions)},
	}
	content, err := a.complete(ctx, messages, "hlsync_captions", wrapSchema("captions", req.Schema))
	if err != nil {
		return nil, err
	}
	return llmjson.Candidates(content, "captions")
}

// contentParts interleaves a timestamp label with each frame and ends with
// the instruction text.
func contentParts(frames []types.AnalyzedFrame, instructions string) []map[string]any {
	parts := make([]map[string]any, 0, 2*len(frames)+1)
	for i, f := range frames {
		parts = append(parts,
			map[string]any{"type": "text", "text": fmt.Sprintf("Frame %d at timestamp %.1fs:", i+1, f.Time)},
			map[string]any{"type": "image_url", "image_url": map[string]any{"url": "data:image/jpeg;base64," + f.Image}},
		)
	}
	parts = append(parts, map[string]any{"type": "text", "text": instructions})
	return parts
}

// wrapSchema nests an array schema under key; structured output requires an
// object at the top level.
func wrapSchema(key string, schema map[string]any) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{key: schema},
		"required":   []string{key},
	}
}

func (a *Adapter) complete(ctx context.Context, messages []map[string]any, name string, schema map[string]any) (string, error) {
	payload := map[string]any{
		"model":    a.model,
		"stream":   false,
		"messages": messages,
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   name,
				"schema": schema,
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	url := a.baseURL + "/api/v1/chat/completions"

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("openrouter timeout after %s (model=%s)", requestTimeout, a.model)
		}
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return "", fmt.Errorf("openrouter status %d and read body failed: %v", resp.StatusCode, readErr)
		}
		return "", fmt.Errorf("openrouter status %d: %s", resp.StatusCode, truncate(redactSecrets(string(rb), a.key), 400))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content any `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("decode openrouter response: %w", err)
	}
	if len(raw.Choices) == 0 {
		return "", errors.New("openrouter: no choices")
	}
	return messageContentToString(raw.Choices[0].Message.Content)
}

func messageContentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []any:
		// Some providers return an array of {type,text} parts.
		var b strings.Builder
		for _, it := range x {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if t, ok := m["text"].(string); ok {
				b.WriteString(t)
			}
		}
		s := b.String()
		if strings.TrimSpace(s) == "" {
			return "", errors.New("openrouter: empty content")
		}
		return s, nil
	default:
		return "", fmt.Errorf("openrouter: unexpected content type %T", v)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}
