package handlers

import (
	"noctua/internal/tui"

	"github.com/spf13/cobra"
)

func newBrowseCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse stored digests in a terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			return tui.StartTUI(cmd.Context(), s, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 60, "Number of recent digests to load")

	return cmd
}
