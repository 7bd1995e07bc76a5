package handlers

import (
	"fmt"
	"sort"

	"noctua/internal/render"

	"github.com/spf13/cobra"
)

func newDigestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Inspect and manage stored digests",
	}

	cmd.AddCommand(newDigestListCmd(a))
	cmd.AddCommand(newDigestShowCmd(a))
	cmd.AddCommand(newDigestDeleteCmd(a))
	cmd.AddCommand(newDigestExportCmd(a))

	return cmd
}

func newDigestListCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent digests",
		Long: `List stored digests, newest first.

Examples:
  # Last 10 digests
  noctua digest list

  # Last 30 digests
  noctua digest list --limit 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			listings, err := s.ListDigests(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list digests: %w", err)
			}
			if len(listings) == 0 {
				fmt.Println("No digests stored yet")
				fmt.Println("💡 Run 'noctua run' to compile one")
				return nil
			}

			fmt.Printf("\n📄 Recent Digests\n")
			fmt.Println("═══════════════════════════════════════════════════════════════════")
			fmt.Printf("%-12s  %-8s  %-6s  %s\n", "Date", "Articles", "Words", "Topics")
			fmt.Println("───────────────────────────────────────────────────────────────────")
			for _, l := range listings {
				topics := l.TopicsSummary
				if len(topics) > 60 {
					topics = topics[:57] + "..."
				}
				fmt.Printf("%-12s  %-8d  %-6d  %s\n", l.Date, l.ArticleCount, l.TotalWords, topics)
			}
			fmt.Println("═══════════════════════════════════════════════════════════════════")
			fmt.Printf("\n💡 Use 'noctua digest show <date>' to read a digest\n")
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Maximum number of digests to list")

	return cmd
}

func newDigestShowCmd(a *app) *cobra.Command {
	var metaOnly bool

	cmd := &cobra.Command{
		Use:   "show <date>",
		Short: "Print a stored digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			rec, err := s.GetDigest(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load digest: %w", err)
			}
			if rec == nil {
				return fmt.Errorf("no digest stored for %s", args[0])
			}

			fmt.Printf("📅 %s  (show %s, created %s)\n", rec.Date, rec.ShowID, rec.CreatedAt.Local().Format("Jan 02 15:04"))
			fmt.Printf("📊 %d articles, %d words, synthesized: %t\n", rec.ArticleCount, rec.TotalWords, rec.Synthesized)
			if rec.Summary != "" {
				fmt.Printf("📝 %s\n", rec.Summary)
			}

			segments := make([]string, 0, len(rec.SegmentSources))
			for name := range rec.SegmentSources {
				segments = append(segments, name)
			}
			sort.Strings(segments)
			for _, name := range segments {
				fmt.Printf("   • %s (%d): %v\n", name, rec.SegmentCounts[name], rec.SegmentSources[name])
			}

			if !metaOnly {
				fmt.Println("───────────────────────────────────────────────────────────────────")
				fmt.Print(rec.Text)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&metaOnly, "meta", false, "Print only the metadata")

	return cmd
}

func newDigestDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <date>",
		Short: "Delete a stored digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			existed, err := s.DeleteDigest(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to delete digest: %w", err)
			}
			if !existed {
				fmt.Printf("No digest stored for %s\n", args[0])
				return nil
			}
			fmt.Printf("🗑️  Deleted digest %s\n", args[0])
			return nil
		},
	}
}

func newDigestExportCmd(a *app) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "export <date>",
		Short: "Export a digest as markdown with front matter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			rec, err := s.GetDigest(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load digest: %w", err)
			}
			if rec == nil {
				return fmt.Errorf("no digest stored for %s", args[0])
			}

			if outputDir == "" {
				outputDir = a.cfg.Output.Directory
			}
			path, err := render.ExportDigest(rec, outputDir)
			if err != nil {
				return err
			}
			fmt.Printf("✅ Exported %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default from config)")

	return cmd
}
