package handlers

import (
	"fmt"
	"time"

	"noctua/internal/core"

	"github.com/spf13/cobra"
)

func newRunsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the pipeline run log",
	}

	cmd.AddCommand(newRunsListCmd(a))
	cmd.AddCommand(newRunsShowCmd(a))

	return cmd
}

func newRunsListCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.ListRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}
			if len(runs) == 0 {
				fmt.Println("No pipeline runs recorded")
				return nil
			}

			fmt.Printf("\n🧾 Pipeline Runs\n")
			fmt.Println("═══════════════════════════════════════════════════════════════════")
			fmt.Printf("%-12s  %-16s  %-8s  %-9s  %s\n", "Run", "Started", "Status", "Took", "Step")
			fmt.Println("───────────────────────────────────────────────────────────────────")
			for _, r := range runs {
				took := "-"
				if r.Finished() {
					took = r.Duration().Round(time.Millisecond).String()
				}
				fmt.Printf("%-12s  %-16s  %s %-6s  %-9s  %s\n",
					r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"), statusIcon(r.Status), r.Status, took, r.CurrentStep)
			}
			fmt.Printf("\n💡 Use 'noctua runs show <id>' to see every step\n")
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Maximum number of runs to list")

	return cmd
}

func newRunsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show every step of a pipeline run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			run, err := s.GetRun(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load run: %w", err)
			}
			if run == nil {
				return fmt.Errorf("no run with id %s", args[0])
			}

			fmt.Printf("%s Run %s: %s\n", statusIcon(run.Status), run.ID, run.Status)
			fmt.Printf("Started:  %s\n", run.StartedAt.Local().Format(time.RFC1123))
			if run.Finished() {
				fmt.Printf("Finished: %s (%s)\n", run.FinishedAt.Local().Format(time.RFC1123), run.Duration().Round(time.Millisecond))
			}
			if run.Error != "" {
				fmt.Printf("Error:    %s\n", run.Error)
			}
			fmt.Println("───────────────────────────────────────────────────────────────────")
			for _, st := range run.Steps {
				line := fmt.Sprintf("%s  %-18s  %s", st.Timestamp.Local().Format("15:04:05"), st.Step, st.Status)
				if st.Message != "" {
					line += "  " + st.Message
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}

func statusIcon(status string) string {
	switch status {
	case core.RunSuccess:
		return "✅"
	case core.RunFailed:
		return "❌"
	default:
		return "⏳"
	}
}
