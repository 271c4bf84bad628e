package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strollcast/strollcast/internal/notes"
)

func newTranscriptCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "transcript <episode-id>",
		Short: "Show an episode's transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newCatalog()
			if err != nil {
				return err
			}
			episode, err := ctx.lookupEpisode(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			service, err := ctx.newTranscripts()
			if err != nil {
				return err
			}

			cues := service.Load(cmd.Context(), episode)
			if len(cues) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No transcript for %s.\n", episode.ID)
				return nil
			}
			for _, cue := range cues {
				if cue.Speaker != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s\n",
						notes.FormatTimestamp(cue.Start), cue.Speaker, cue.Text)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n",
						notes.FormatTimestamp(cue.Start), cue.Text)
				}
			}
			return nil
		},
	}
}
