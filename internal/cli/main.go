package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:           "hlsync",
		Short:         "Find viral clips in a video and keep captions in sync with playback",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	pf := root.PersistentFlags()
	pf.Float64("min", 0, "Min clip duration seconds (default from HLSYNC_MIN_CLIP)")
	pf.Float64("max", 0, "Max clip duration seconds (default from HLSYNC_MAX_CLIP)")
	pf.Int("frames", 0, "Frames sampled for the model (default from HLSYNC_FRAME_COUNT)")
	pf.String("out", "", "Output directory (default from HLSYNC_OUT_DIR)")

	root.AddCommand(
		generateCmd(),
		captionsCmd(),
		exportCmd(),
		previewCmd(),
		serveCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addContextFlag(cmd *cobra.Command) {
	cmd.Flags().String("context", "", "What the video is about; a default is derived from the file name")
}
