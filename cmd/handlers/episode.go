package handlers

import (
	"fmt"
	"os"
	"time"

	"noctua/internal/core"

	"github.com/spf13/cobra"
)

func newEpisodeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "episode",
		Short: "Record and manage published episodes",
		Long: `A published episode locks the digest for its date so later runs do
not replace a script that has already been narrated.`,
	}

	cmd.AddCommand(newEpisodePublishCmd(a))
	cmd.AddCommand(newEpisodeListCmd(a))
	cmd.AddCommand(newEpisodeDeleteCmd(a))

	return cmd
}

func newEpisodePublishCmd(a *app) *cobra.Command {
	var audioPath string
	var duration time.Duration
	var force bool

	cmd := &cobra.Command{
		Use:   "publish <date>",
		Short: "Record the published episode for a digest",
		Long: `Record that the digest for a date has been narrated and published.

Examples:
  noctua episode publish 2026-02-16 --audio out/2026-02-16.mp3 --duration 27m30s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := args[0]
			if _, err := time.Parse(core.DateLayout, date); err != nil {
				return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			ctx := cmd.Context()

			rec, err := s.GetDigest(ctx, date)
			if err != nil {
				return fmt.Errorf("failed to load digest: %w", err)
			}
			if rec == nil && !force {
				return fmt.Errorf("no digest stored for %s (use --force to record the episode anyway)", date)
			}

			ep := core.Episode{
				Date:            date,
				AudioPath:       audioPath,
				DurationSeconds: int(duration.Round(time.Second).Seconds()),
			}
			if audioPath != "" {
				info, err := os.Stat(audioPath)
				if err != nil {
					return fmt.Errorf("failed to stat audio file: %w", err)
				}
				ep.SizeBytes = info.Size()
			}
			if rec != nil {
				ep.TopicsSummary = rec.TopicsSummary
				ep.Summary = rec.Summary
			}

			if err := s.SaveEpisode(ctx, ep); err != nil {
				return err
			}
			fmt.Printf("🔒 Episode recorded, digest %s is now locked\n", date)
			return nil
		},
	}

	cmd.Flags().StringVarP(&audioPath, "audio", "a", "", "Path to the published audio file")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Episode length, e.g. 27m30s")
	cmd.Flags().BoolVar(&force, "force", false, "Record the episode even without a stored digest")

	return cmd
}

func newEpisodeListCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List published episodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			episodes, err := s.ListEpisodes(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list episodes: %w", err)
			}
			if len(episodes) == 0 {
				fmt.Println("No episodes published yet")
				return nil
			}

			fmt.Printf("\n🎙️  Published Episodes\n")
			fmt.Println("═══════════════════════════════════════════════════════════════════")
			fmt.Printf("%-12s  %-9s  %-10s  %s\n", "Date", "Length", "Size", "Topics")
			fmt.Println("───────────────────────────────────────────────────────────────────")
			for _, ep := range episodes {
				length := (time.Duration(ep.DurationSeconds) * time.Second).String()
				fmt.Printf("%-12s  %-9s  %-10s  %s\n", ep.Date, length, formatBytes(ep.SizeBytes), ep.TopicsSummary)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Maximum number of episodes to list")

	return cmd
}

func newEpisodeDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <date>",
		Short: "Delete an episode record, unlocking its digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			existed, err := s.DeleteEpisode(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to delete episode: %w", err)
			}
			if !existed {
				fmt.Printf("No episode recorded for %s\n", args[0])
				return nil
			}
			fmt.Printf("🔓 Deleted episode %s, its digest can be recompiled\n", args[0])
			return nil
		},
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
