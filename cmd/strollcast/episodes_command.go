package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/strollcast/strollcast/internal/models"
	"github.com/strollcast/strollcast/internal/search"
)

func newEpisodesCommand(ctx *commandContext) *cobra.Command {
	var searchFlag string

	cmd := &cobra.Command{
		Use:   "episodes",
		Short: "List episodes from the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newCatalog()
			if err != nil {
				return err
			}
			episodes, err := client.Episodes(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch catalog: %w", err)
			}

			if searchFlag != "" {
				matches := search.Rank(searchFlag, episodes)
				episodes = make([]models.Episode, 0, len(matches))
				for _, m := range matches {
					episodes = append(episodes, m.Episode)
				}
			}

			if len(episodes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No episodes found.")
				return nil
			}

			tracker, err := ctx.newTracker()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(episodes))
			for _, ep := range episodes {
				downloaded := ""
				if _, ok := tracker.LocalPath(ep.ID); ok {
					downloaded = "yes"
				}
				rows = append(rows, []string{
					ep.ID,
					ep.Title,
					ep.Authors,
					strconv.Itoa(ep.Year),
					ep.Duration,
					downloaded,
				})
			}

			out := renderTable(
				[]string{"ID", "Title", "Authors", "Year", "Duration", "Downloaded"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&searchFlag, "search", "s", "", "Fuzzy-filter episodes by title or authors")
	return cmd
}
