package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/hlsync/internal/config"
	"github.com/forPelevin/hlsync/internal/logging"
	"github.com/forPelevin/hlsync/internal/pipeline"
)

const runTimeout = 30 * time.Minute

// loadConfig merges env configuration with command-line overrides.
func loadConfig(cmd *cobra.Command) (pipeline.Config, *config.EnvConfig, error) {
	env, err := config.New()
	if err != nil {
		return pipeline.Config{}, nil, fmt.Errorf("config: %w", err)
	}
	cfg := pipeline.FromEnv(env)
	cfg.Logger = logging.NewLogger(cmd.ErrOrStderr(), env.LogLevel())

	flags := cmd.Flags()
	if flags.Changed("min") {
		cfg.Window.Min, _ = flags.GetFloat64("min")
	}
	if flags.Changed("max") {
		cfg.Window.Max, _ = flags.GetFloat64("max")
	}
	if flags.Changed("frames") {
		n, _ := flags.GetInt("frames")
		if n <= 0 {
			return pipeline.Config{}, nil, fmt.Errorf("config: frames must be > 0")
		}
		cfg.Frames.Count = n
	}
	if flags.Changed("out") {
		cfg.OutDir, _ = flags.GetString("out")
	}
	if f := flags.Lookup("context"); f != nil {
		cfg.Context = f.Value.String()
	}
	return cfg, env, nil
}

func runOnce(cmd *cobra.Command, input string, steps pipeline.Steps) (pipeline.Result, error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return pipeline.Result{}, err
	}
	absIn, err := filepath.Abs(input)
	if err != nil {
		return pipeline.Result{}, err
	}
	cfg.Input = absIn
	if err := cfg.ValidateInput(); err != nil {
		return pipeline.Result{}, fmt.Errorf("config: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	res, _, err := pipeline.Run(ctx, cfg, steps, pipeline.Deps{})
	if err != nil {
		return pipeline.Result{}, err
	}
	cfg.Logger.Debug("run finished", slog.Duration("took", res.Duration))
	return res, nil
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <input>",
		Short: "Suggest viral clips for a local video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			withCaptions, _ := cmd.Flags().GetBool("captions")
			res, err := runOnce(cmd, args[0], pipeline.Steps{Captions: withCaptions})
			if err != nil {
				return err
			}
			out := map[string]any{
				"video":     res.Session.Video,
				"window":    res.Session.Window,
				"clips":     res.Session.Clips,
				"synthetic": res.Session.SyntheticClips,
			}
			if withCaptions {
				out["captions"] = res.Session.Captions
			}
			return printJSON(cmd, out)
		},
	}
	addContextFlag(cmd)
	cmd.Flags().Bool("captions", false, "Also generate captions")
	return cmd
}

func captionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "captions <input>",
		Short: "Generate time-aligned captions for a local video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runOnce(cmd, args[0], pipeline.Steps{Captions: true})
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"video":     res.Session.Video,
				"captions":  res.Session.Captions,
				"synthetic": res.Session.SyntheticCaptions,
			})
		},
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <input>",
		Short: "Generate clips and captions, then write the manifest and subtitle sidecar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runOnce(cmd, args[0], pipeline.Steps{Captions: true, Export: true})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Export.Manifest)
			return nil
		},
	}
	addContextFlag(cmd)
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
