package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strollcast/strollcast/internal/notes"
)

func newNotesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes <episode-id>",
		Short: "Show the annotation document for an episode",
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
			store, err := ctx.newNotesStore()
			if err != nil {
				return err
			}

			doc := store.Read(episode)
			if doc == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "No notes for %s yet.\n", episode.ID)
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), doc)
			return nil
		},
	}

	cmd.AddCommand(newNotesAddCommand(ctx))
	return cmd
}

func newNotesAddCommand(ctx *commandContext) *cobra.Command {
	var atFlag float64

	cmd := &cobra.Command{
		Use:   "add <episode-id> <text>...",
		Short: "Add a timestamped comment to an episode's notes",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newCatalog()
			if err != nil {
				return err
			}
			episode, err := ctx.lookupEpisode(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			store, err := ctx.newNotesStore()
			if err != nil {
				return err
			}

			text := strings.Join(args[1:], " ")
			if err := store.AddTimestampedComment(episode, atFlag, text); err != nil {
				return fmt.Errorf("add comment: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added comment at %s.\n", notes.FormatTimestamp(atFlag))
			return nil
		},
	}

	cmd.Flags().Float64Var(&atFlag, "at", 0, "Timestamp for the comment, in seconds")
	return cmd
}
