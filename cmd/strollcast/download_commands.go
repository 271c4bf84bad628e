package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/strollcast/strollcast/internal/download"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "download <episode-id>",
		Aliases: []string{"retry"},
		Short:   "Download an episode's audio for offline playback",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newCatalog()
			if err != nil {
				return err
			}
			episode, err := ctx.lookupEpisode(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			tracker, err := ctx.newTracker()
			if err != nil {
				return err
			}

			if local, ok := tracker.LocalPath(episode.ID); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Already downloaded: %s\n", local)
				return nil
			}

			// Ctrl-C cancels the in-flight transfer and resets its record.
			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(interrupt)
			go func() {
				<-interrupt
				tracker.Cancel(episode.ID)
			}()

			tracker.Start(episode, episode.AudioURL(client.BaseURL()))

			for ev := range tracker.Events() {
				if ev.EpisodeID != episode.ID {
					continue
				}
				switch ev.State.Kind {
				case download.InProgress:
					fmt.Fprintf(cmd.OutOrStdout(), "\r%3.0f%%", ev.State.Fraction*100)
				case download.Complete:
					fmt.Fprintf(cmd.OutOrStdout(), "\rDownloaded %s\n", ev.State.LocalPath)
					return nil
				case download.NotStarted:
					fmt.Fprintln(cmd.OutOrStdout(), "\rDownload cancelled.")
					return nil
				case download.Failed:
					return fmt.Errorf("download failed: %s", ev.State.Message)
				}
			}
			return nil
		},
	}
}

func newDownloadsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "downloads",
		Short: "Show download states and disk usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker, err := ctx.newTracker()
			if err != nil {
				return err
			}

			states := tracker.All()
			if len(states) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No downloads.")
				return nil
			}

			rows := make([][]string, 0, len(states))
			for id, st := range states {
				detail := ""
				switch st.Kind {
				case download.InProgress:
					detail = fmt.Sprintf("%3.0f%%", st.Fraction*100)
				case download.Complete:
					detail = st.LocalPath
				case download.Failed:
					detail = st.Message
				}
				rows = append(rows, []string{id, st.Kind.String(), detail})
			}

			out := renderTable(
				[]string{"Episode", "State", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			fmt.Fprintf(cmd.OutOrStdout(), "%d complete, %s on disk\n",
				tracker.Count(), formatBytes(tracker.TotalSize()))
			return nil
		},
	}
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	var allFlag bool

	cmd := &cobra.Command{
		Use:   "delete [episode-id]",
		Short: "Delete downloaded audio",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker, err := ctx.newTracker()
			if err != nil {
				return err
			}

			if allFlag {
				if err := tracker.DeleteAll(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All downloads deleted.")
				return nil
			}
			if len(args) != 1 {
				return fmt.Errorf("specify an episode id or --all")
			}
			if err := tracker.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted download for %s.\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&allFlag, "all", false, "Delete every downloaded episode")
	return cmd
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
