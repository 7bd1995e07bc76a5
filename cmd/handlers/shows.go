package handlers

import (
	"fmt"

	"noctua/internal/config"
	"noctua/internal/digest"

	"github.com/spf13/cobra"
)

func newShowsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shows",
		Short: "List the show formats in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := config.LoadShows(a.cfg.Shows.File)
			if err != nil {
				return err
			}

			for _, show := range catalog.Shows {
				marker := " "
				if show.ID == a.cfg.Shows.Default {
					marker = "*"
				}
				fmt.Printf("\n%s %s (%s), ~%d minutes\n", marker, show.Name, show.ID, show.TotalMinutes())
				if show.Description != "" {
					fmt.Printf("  %s\n", show.Description)
				}
				for i, seg := range show.Segments {
					fmt.Printf("  %2d. %-24s %2d min  ~%4d words  up to %d articles\n",
						i+1, seg.Topic, seg.Minutes, digest.WordBudget(seg.Minutes), digest.ArticleCap(seg.Minutes))
				}
			}
			fmt.Printf("\n* default show\n")
			return nil
		},
	}
}
