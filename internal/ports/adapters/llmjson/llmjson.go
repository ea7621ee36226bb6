// Package llmjson pulls JSON payloads out of free-form model output.
package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Candidates accepts a bare JSON array or an object holding the array
// under key. When key is missing, an object with exactly one array field is
// accepted; several candidate arrays are ambiguous and rejected.
func Candidates(content, key string) ([]any, error) {
	clean, err := Extract(content)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal([]byte(clean), &v); err != nil {
		return nil, fmt.Errorf("model output: malformed JSON: %w", err)
	}
	switch x := v.(type) {
	case []any:
		return x, nil
	case map[string]any:
		if arr, ok := x[key].([]any); ok {
			return arr, nil
		}
		var found []any
		n := 0
		for _, val := range x {
			if arr, ok := val.([]any); ok {
				found = arr
				n++
			}
		}
		if n == 1 {
			return found, nil
		}
		if n > 1 {
			return nil, fmt.Errorf("model output: no %s array and %d other arrays in response", key, n)
		}
	}
	return nil, fmt.Errorf("model output: no %s array in response", key)
}

// Extract strips code fences and chatter around the first JSON array or
// object in s.
func Extract(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("model output: empty content")
	}

	// Strip markdown code fences.
	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	// Take the outermost array or object, whichever opens first.
	start := strings.IndexAny(t, "[{")
	if start < 0 {
		return "", fmt.Errorf("model output: could not locate JSON in: %q", truncate(t, 200))
	}
	closer := "}"
	if t[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(t, closer)
	if end <= start {
		return "", fmt.Errorf("model output: could not locate JSON in: %q", truncate(t, 200))
	}
	return t[start : end+1], nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
