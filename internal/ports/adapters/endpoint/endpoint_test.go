package endpoint

import (
	"strings"
	"testing"
)

var openrouterHosts = []string{"openrouter.ai", "api.openrouter.ai"}

func TestValidate(t *testing.T) {
	tests := []struct {
		name         string
		baseURL      string
		allowedHosts []string
		wantErr      string
	}{
		{name: "default host with https", baseURL: "https://openrouter.ai"},
		{name: "default api host with https", baseURL: "https://api.openrouter.ai"},
		{name: "reject non-absolute URL", baseURL: "openrouter.ai", wantErr: "absolute URL"},
		{name: "reject http", baseURL: "http://openrouter.ai", wantErr: "https is required"},
		{name: "reject unknown host", baseURL: "https://evil.example", wantErr: "is not allowed"},
		{name: "allow configured host", baseURL: "https://proxy.internal", allowedHosts: []string{" https://proxy.internal:8443/ "}},
		{name: "configured list replaces defaults", baseURL: "https://openrouter.ai", allowedHosts: []string{"proxy.internal"}, wantErr: "is not allowed"},
		{name: "reject query", baseURL: "https://openrouter.ai?x=1", wantErr: "query and fragment"},
		{name: "reject userinfo", baseURL: "https://u:p@openrouter.ai", wantErr: "userinfo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate("OPENROUTER_BASE_URL", tt.baseURL, openrouterHosts, tt.allowedHosts)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
			if !strings.Contains(err.Error(), "OPENROUTER_BASE_URL") {
				t.Fatalf("expected env name in error, got %v", err)
			}
		})
	}
}

func TestValidate_BlankAllowListFallsBackToDefaults(t *testing.T) {
	if err := Validate("X", "https://openrouter.ai", openrouterHosts, []string{" ", "https://"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNormalizeAndSplit(t *testing.T) {
	if got := Normalize("  https://openrouter.ai/// ", ""); got != "https://openrouter.ai" {
		t.Fatalf("normalize = %q", got)
	}
	if got := Normalize("", "https://default"); got != "https://default" {
		t.Fatalf("normalize default = %q", got)
	}
	if got := SplitHosts(" a.example, ,b.example "); len(got) != 2 || got[1] != "b.example" {
		t.Fatalf("split = %v", got)
	}
}
