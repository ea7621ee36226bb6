// Package config loads hlsync settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/hlsync/internal/domain/frames"
	"github.com/forPelevin/hlsync/internal/domain/playback"
	"github.com/forPelevin/hlsync/internal/ports/adapters/endpoint"
	"github.com/forPelevin/hlsync/internal/types"
)

const (
	DefaultPort     = 8790
	DefaultLogLevel = "info"
	DefaultOutDir   = "out"

	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"

	EnvLogLevel     = "HLSYNC_LOG_LEVEL"
	EnvPort         = "HLSYNC_PORT"
	EnvOutDir       = "HLSYNC_OUT_DIR"
	EnvMinClip      = "HLSYNC_MIN_CLIP"
	EnvMaxClip      = "HLSYNC_MAX_CLIP"
	EnvFrameCount   = "HLSYNC_FRAME_COUNT"
	EnvFrameScale   = "HLSYNC_FRAME_SCALE"
	EnvFrameQuality = "HLSYNC_FRAME_QUALITY"
	EnvSeekTimeout  = "HLSYNC_SEEK_TIMEOUT"
	EnvSyncTol      = "HLSYNC_SYNC_TOLERANCE"
	EnvProvider     = "HLSYNC_PROVIDER"
	EnvExportQual   = "HLSYNC_EXPORT_QUALITY"
	EnvWatermark    = "HLSYNC_WATERMARK"
	EnvAutoSubtitle = "HLSYNC_AUTO_SUBTITLE"

	EnvOpenRouterKey   = "OPENROUTER_API_KEY"
	EnvOpenRouterModel = "OPENROUTER_MODEL"
	EnvOpenRouterURL   = "OPENROUTER_BASE_URL"
	EnvOpenRouterHosts = "OPENROUTER_ALLOWED_HOSTS"
	EnvOpenAIKey       = "OPENAI_API_KEY"
	EnvOpenAIModel     = "OPENAI_MODEL"
	EnvOpenAIURL       = "OPENAI_BASE_URL"
	EnvOpenAIHosts     = "OPENAI_ALLOWED_HOSTS"

	EnvFFmpegPath  = "FFMPEG_PATH"
	EnvFFprobePath = "FFPROBE_PATH"
)

// EnvConfig reads configuration from environment variables.
type EnvConfig struct {
	port     int
	logLevel string
	outDir   string
	window   types.DurationWindow
	frames   frames.Options
	syncTol  float64
	provider string
	settings types.Settings

	openRouterKey   string
	openRouterModel string
	openRouterURL   string
	openRouterHosts []string
	openAIKey       string
	openAIModel     string
	openAIURL       string
	openAIHosts     []string

	ffmpegPath  string
	ffprobePath string
}

// New creates an EnvConfig with defaults and environment overrides.
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:        DefaultPort,
		logLevel:    DefaultLogLevel,
		outDir:      DefaultOutDir,
		window:      types.DefaultWindow(),
		frames:      frames.DefaultOptions(),
		syncTol:     playback.DefaultTolerance,
		provider:    ProviderOpenRouter,
		settings:    types.DefaultSettings(),
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.logLevel = v
	}
	if v := os.Getenv(EnvOutDir); v != "" {
		cfg.outDir = v
	}

	var err error
	if cfg.window.Min, err = floatEnv(EnvMinClip, cfg.window.Min); err != nil {
		return nil, err
	}
	if cfg.window.Max, err = floatEnv(EnvMaxClip, cfg.window.Max); err != nil {
		return nil, err
	}
	if !cfg.window.Valid() {
		return nil, fmt.Errorf("invalid clip window: need 0 < %s < %s, got %g and %g",
			EnvMinClip, EnvMaxClip, cfg.window.Min, cfg.window.Max)
	}

	if v := os.Getenv(EnvFrameCount); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid %s: must be a positive integer", EnvFrameCount)
		}
		cfg.frames.Count = n
	}
	if cfg.frames.Scale, err = unitEnv(EnvFrameScale, cfg.frames.Scale); err != nil {
		return nil, err
	}
	if cfg.frames.Quality, err = unitEnv(EnvFrameQuality, cfg.frames.Quality); err != nil {
		return nil, err
	}
	if v := os.Getenv(EnvSeekTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid %s: must be a positive duration", EnvSeekTimeout)
		}
		cfg.frames.SeekTimeout = d
	}

	if cfg.syncTol, err = floatEnv(EnvSyncTol, cfg.syncTol); err != nil {
		return nil, err
	}
	if cfg.syncTol <= 0 {
		return nil, fmt.Errorf("invalid %s: must be > 0", EnvSyncTol)
	}

	if v := strings.ToLower(strings.TrimSpace(os.Getenv(EnvProvider))); v != "" {
		if v != ProviderOpenRouter && v != ProviderOpenAI {
			return nil, fmt.Errorf("invalid %s: %q (want %s or %s)", EnvProvider, v, ProviderOpenRouter, ProviderOpenAI)
		}
		cfg.provider = v
	}

	if v := os.Getenv(EnvExportQual); v != "" {
		cfg.settings.ExportQuality = types.ExportQuality(strings.ToLower(v))
		if !cfg.settings.Valid() {
			return nil, fmt.Errorf("invalid %s: %q", EnvExportQual, v)
		}
	}
	if cfg.settings.ShowWatermark, err = boolEnv(EnvWatermark, cfg.settings.ShowWatermark); err != nil {
		return nil, err
	}
	if cfg.settings.AutoSubtitle, err = boolEnv(EnvAutoSubtitle, cfg.settings.AutoSubtitle); err != nil {
		return nil, err
	}

	cfg.openRouterKey = os.Getenv(EnvOpenRouterKey)
	cfg.openRouterModel = os.Getenv(EnvOpenRouterModel)
	cfg.openRouterURL = os.Getenv(EnvOpenRouterURL)
	cfg.openRouterHosts = endpoint.SplitHosts(os.Getenv(EnvOpenRouterHosts))
	cfg.openAIKey = os.Getenv(EnvOpenAIKey)
	cfg.openAIModel = os.Getenv(EnvOpenAIModel)
	cfg.openAIURL = os.Getenv(EnvOpenAIURL)
	cfg.openAIHosts = endpoint.SplitHosts(os.Getenv(EnvOpenAIHosts))

	if v := os.Getenv(EnvFFmpegPath); v != "" {
		cfg.ffmpegPath = v
	}
	if v := os.Getenv(EnvFFprobePath); v != "" {
		cfg.ffprobePath = v
	}
	return cfg, nil
}

func (c *EnvConfig) Port() int                    { return c.port }
func (c *EnvConfig) LogLevel() string             { return c.logLevel }
func (c *EnvConfig) OutDir() string               { return c.outDir }
func (c *EnvConfig) Window() types.DurationWindow { return c.window }
func (c *EnvConfig) Frames() frames.Options       { return c.frames }
func (c *EnvConfig) SyncTolerance() float64       { return c.syncTol }
func (c *EnvConfig) Provider() string             { return c.provider }
func (c *EnvConfig) Settings() types.Settings     { return c.settings }
func (c *EnvConfig) FFmpegPath() string           { return c.ffmpegPath }
func (c *EnvConfig) FFprobePath() string          { return c.ffprobePath }

func (c *EnvConfig) OpenRouterAPIKey() string         { return c.openRouterKey }
func (c *EnvConfig) OpenRouterModel() string          { return c.openRouterModel }
func (c *EnvConfig) OpenRouterBaseURL() string        { return c.openRouterURL }
func (c *EnvConfig) OpenRouterAllowedHosts() []string { return c.openRouterHosts }
func (c *EnvConfig) OpenAIAPIKey() string             { return c.openAIKey }
func (c *EnvConfig) OpenAIModel() string              { return c.openAIModel }
func (c *EnvConfig) OpenAIBaseURL() string            { return c.openAIURL }
func (c *EnvConfig) OpenAIAllowedHosts() []string     { return c.openAIHosts }

// APIKey returns the credential of the selected provider.
func (c *EnvConfig) APIKey() string {
	if c.provider == ProviderOpenAI {
		return c.openAIKey
	}
	return c.openRouterKey
}

func floatEnv(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func unitEnv(key string, def float64) (float64, error) {
	f, err := floatEnv(key, def)
	if err != nil {
		return 0, err
	}
	if f <= 0 || f > 1 {
		return 0, fmt.Errorf("invalid %s: must be in (0, 1]", key)
	}
	return f, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
