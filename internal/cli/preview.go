package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/hlsync/internal/pipeline"
	"github.com/forPelevin/hlsync/internal/ports/adapters/media"
	"github.com/forPelevin/hlsync/internal/session"
	"github.com/forPelevin/hlsync/internal/types"
)

const previewStep = 250 * time.Millisecond

func previewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <input>",
		Short: "Play a generated clip on a virtual clock and print captions as they change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Input, err = filepath.Abs(args[0]); err != nil {
				return err
			}
			if err := cfg.ValidateInput(); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			index, _ := cmd.Flags().GetInt("clip")

			vt := &virtualTime{now: time.Unix(0, 0)}
			clock := media.NewClock(0).WithNow(vt.Now)

			ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
			defer cancel()
			_, s, err := pipeline.Run(ctx, cfg, pipeline.Steps{Captions: true}, pipeline.Deps{Media: clock})
			if err != nil {
				return err
			}
			return preview(s, vt, index, cmd.OutOrStdout())
		},
	}
	addContextFlag(cmd)
	cmd.Flags().Int("clip", 1, "1-based index of the clip to play")
	return cmd
}

type virtualTime struct{ now time.Time }

func (v *virtualTime) Now() time.Time { return v.now }

// preview plays the index-th clip until the controller stops it at the clip
// end, printing every caption change.
func preview(s *session.Session, vt *virtualTime, index int, w io.Writer) error {
	sn := s.Snapshot()
	if index < 1 || index > len(sn.Clips) {
		return fmt.Errorf("clip %d out of range (have %d)", index, len(sn.Clips))
	}
	clip := sn.Clips[index-1]
	if err := s.Select(clip.ID); err != nil {
		return err
	}
	fmt.Fprintf(w, "▶ %s [%.1fs - %.1fs] score=%d\n", clip.Title, clip.Start, clip.End, clip.ViralityScore)

	lastCaption := ""
	maxSteps := int(types.Dur(clip.Duration())/previewStep) + 8
	for i := 0; i < maxSteps; i++ {
		vt.now = vt.now.Add(previewStep)
		if err := s.Tick(); err != nil {
			return err
		}
		sn = s.Snapshot()
		id := ""
		if sn.ActiveCaption != nil {
			id = sn.ActiveCaption.ID
			if id != lastCaption {
				fmt.Fprintf(w, "  %6.2fs  %s\n", sn.Cursor, sn.ActiveCaption.Text)
			}
		}
		lastCaption = id
		if sn.State == "stopped" {
			fmt.Fprintf(w, "■ stopped, rewound to %.1fs\n", sn.Cursor)
			return nil
		}
		if sn.Video.Duration > 0 && sn.Cursor >= sn.Video.Duration {
			// clip end lies past the media end
			_ = s.Pause()
			fmt.Fprintf(w, "■ end of video at %.1fs\n", sn.Cursor)
			return nil
		}
	}
	return fmt.Errorf("clip %s did not stop by its end", clip.ID)
}
