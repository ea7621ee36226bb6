// Package pipeline validates run configuration and wires the adapters into a
// session for the CLI and the HTTP server.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/forPelevin/hlsync/internal/config"
	"github.com/forPelevin/hlsync/internal/domain/frames"
	"github.com/forPelevin/hlsync/internal/export"
	"github.com/forPelevin/hlsync/internal/logging"
	"github.com/forPelevin/hlsync/internal/ports"
	"github.com/forPelevin/hlsync/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/hlsync/internal/ports/adapters/media"
	"github.com/forPelevin/hlsync/internal/ports/adapters/openaicompat"
	"github.com/forPelevin/hlsync/internal/ports/adapters/openrouter"
	"github.com/forPelevin/hlsync/internal/session"
	"github.com/forPelevin/hlsync/internal/types"
	"github.com/forPelevin/hlsync/internal/usecase"
)

type Config struct {
	Input    string
	OutDir   string
	Context  string
	Window   types.DurationWindow
	Frames   frames.Options
	Settings types.Settings
	Logger   *slog.Logger

	// SyncTolerance is the allowed media drift in seconds; zero keeps the
	// controller default.
	SyncTolerance float64

	FFmpegPath  string
	FFprobePath string

	Provider     string
	APIKey       string
	Model        string
	BaseURL      string
	AllowedHosts []string
}

// FromEnv maps environment configuration onto a run configuration for the
// selected provider.
func FromEnv(env *config.EnvConfig) Config {
	cfg := Config{
		OutDir:      env.OutDir(),
		Window:      env.Window(),
		Frames:      env.Frames(),
		Settings:    env.Settings(),
		FFmpegPath:  env.FFmpegPath(),
		FFprobePath: env.FFprobePath(),
		Provider:    env.Provider(),
		APIKey:      env.APIKey(),

		SyncTolerance: env.SyncTolerance(),
	}
	if cfg.Provider == config.ProviderOpenAI {
		cfg.Model = env.OpenAIModel()
		cfg.BaseURL = env.OpenAIBaseURL()
		cfg.AllowedHosts = env.OpenAIAllowedHosts()
	} else {
		cfg.Model = env.OpenRouterModel()
		cfg.BaseURL = env.OpenRouterBaseURL()
		cfg.AllowedHosts = env.OpenRouterAllowedHosts()
	}
	return cfg
}

// Validate checks everything but the input, which only one-shot runs need.
func (c Config) Validate() error {
	if !c.Window.Valid() {
		return fmt.Errorf("clip window must satisfy 0 < min < max, got [%v, %v]", c.Window.Min, c.Window.Max)
	}
	if !c.Settings.Valid() {
		return fmt.Errorf("unsupported export quality %q", c.Settings.ExportQuality)
	}
	switch c.Provider {
	case "", config.ProviderOpenRouter:
		return openrouter.ValidateBaseURL(c.BaseURL, c.AllowedHosts)
	case config.ProviderOpenAI:
		return openaicompat.ValidateBaseURL(c.BaseURL, c.AllowedHosts)
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
}

// ValidateInput additionally requires a readable input file.
func (c Config) ValidateInput() error {
	if c.Input == "" {
		return errors.New("input is empty")
	}
	if _, err := os.Stat(c.Input); err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	return c.Validate()
}

// Collaborator returns nil when no credential is configured.
func (c Config) Collaborator() ports.Collaborator {
	if c.APIKey == "" {
		return nil
	}
	if c.Provider == config.ProviderOpenAI {
		return openaicompat.New(c.APIKey, c.Model, c.BaseURL)
	}
	return openrouter.New(c.APIKey, c.Model, c.BaseURL)
}

// Deps lets tests replace the external adapters.
type Deps struct {
	Frames ports.FrameSource
	Model  ports.Collaborator
	Media  ports.MediaElement
}

// NewSession builds an empty session over the configured adapters.
func NewSession(cfg Config, d Deps) *session.Session {
	logger := logging.OrDiscard(cfg.Logger)
	if d.Frames == nil {
		d.Frames = ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath)
	}
	if d.Model == nil {
		d.Model = cfg.Collaborator()
		if d.Model == nil {
			logger.Warn("no collaborator credentials, generation uses synthetic output",
				"provider", cfg.Provider)
		} else {
			logger.Info("collaborator configured", "provider", cfg.Provider,
				"key", logging.SanitizeToken(cfg.APIKey))
		}
	}
	if d.Media == nil {
		d.Media = media.NewClock(0)
	}
	uc := usecase.New(usecase.Deps{
		Frames: d.Frames,
		Model:  d.Model,
		Logger: logger,
	}, cfg.Frames)
	return session.New(uc, d.Media, session.Options{
		Window:   cfg.Window,
		Settings: cfg.Settings,
		Probe:    d.Frames.ProbeDuration,
		Logger:   logger,

		SyncTolerance: cfg.SyncTolerance,
	})
}

type Steps struct {
	Captions bool
	Export   bool
}

type Result struct {
	Session  session.Snapshot `json:"session"`
	Export   *export.Result   `json:"export,omitempty"`
	Duration time.Duration    `json:"-"`
}

// Run loads cfg.Input, generates clips and optionally captions, then
// optionally exports the first clip.
func Run(ctx context.Context, cfg Config, steps Steps, d Deps) (Result, *session.Session, error) {
	started := time.Now()
	logger := logging.OrDiscard(cfg.Logger)
	s := NewSession(cfg, d)

	s.LoadVideo(ctx, filepath.Base(cfg.Input), cfg.Input, 0)
	s.SetContext(cfg.Context)
	snap, err := s.GenerateClips(ctx, session.ClipsRequest{})
	if err != nil {
		return Result{}, nil, err
	}
	logger.Info("clips ready", "clips", len(snap.Clips), "synthetic", snap.SyntheticClips)

	if steps.Captions {
		if snap, err = s.GenerateCaptions(ctx); err != nil {
			return Result{}, nil, err
		}
		logger.Info("captions ready", "captions", len(snap.Captions), "synthetic", snap.SyntheticCaptions)
	}

	res := Result{Session: snap}
	if steps.Export {
		out, err := export.Write(snap, cfg.OutDir, time.Now())
		if err != nil {
			return Result{}, nil, err
		}
		logger.Info("export written", "dir", logging.SanitizePath(out.Dir), "manifest", out.Manifest)
		res.Export = &out
	}
	res.Duration = time.Since(started)
	return res, s, nil
}
