package handlers

import (
	"context"
	"fmt"
	"time"

	"noctua/internal/config"
	"noctua/internal/core"
	"noctua/internal/llm"
	"noctua/internal/logger"
	"noctua/internal/mailbox"
	"noctua/internal/narrative"
	"noctua/internal/pipeline"
	"noctua/internal/weather"

	"github.com/spf13/cobra"
)

type runOptions struct {
	date   string
	show   string
	input  string
	dryRun bool
	force  bool
}

func newRunCmd(a *app) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, compile and save a day's digest",
		Long: `Run the daily pipeline: fetch newsletter emails, parse them into
classified articles, compile the podcast script and save it.

A date that already has a published episode is locked and is not
overwritten unless --force is given.

Examples:
  # Today's digest from the configured mailbox
  noctua run

  # Rebuild a past date from an inbox dump
  noctua run --date 2026-02-16 --input inbox.json --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPipeline(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.date, "date", "d", "", "Digest date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&opts.show, "show", "s", "", "Show id from the catalog (default from config)")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Read messages from a JSON inbox file instead of the configured mailbox")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Compile and print the digest without saving it")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Overwrite a digest even when its episode is published")

	return cmd
}

func (a *app) runPipeline(ctx context.Context, opts runOptions) error {
	var date time.Time
	if opts.date != "" {
		parsed, err := time.ParseInLocation(core.DateLayout, opts.date, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", opts.date)
		}
		date = parsed
	}

	show, err := a.show(opts.show)
	if err != nil {
		return err
	}

	source, err := a.messageSource(ctx, opts.input)
	if err != nil {
		return err
	}

	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	p := a.cfg.Pipeline
	builder := pipeline.NewBuilder().
		WithConfig(pipeline.Config{
			MinContentChars:     p.MinContentChars,
			SimilarityThreshold: p.SimilarityThreshold,
			MinKeywordMatches:   p.MinKeywordMatches,
			ClassifyScanChars:   p.ClassifyScanChars,
		}).
		WithSource(source).
		WithStore(s)

	if a.cfg.HasGemini() {
		gemini := a.cfg.AI.Gemini
		client, err := llm.NewClient(ctx, llm.Options{
			APIKey:       gemini.APIKey,
			Model:        gemini.Model,
			Timeout:      config.Duration(gemini.Timeout, llm.DefaultTimeout),
			MaxRetries:   gemini.MaxRetries,
			RetryBackoff: config.Duration(gemini.RetryBackoff, 2*time.Second),
		})
		if err != nil {
			return err
		}
		builder.WithSynthesizer(narrative.NewGenerator(client, gemini.Temperature, gemini.MaxTokens))
		logger.Info("Narrative synthesis enabled", "model", client.GetModelName())
	} else {
		fmt.Println("⚠️  No Gemini API key configured, segments will use the raw article renderer")
	}

	// Leave the provider unset when disabled so the compiler sees a nil interface.
	if w := a.cfg.Weather; w.Enabled {
		builder.WithWeather(weather.NewClient(w.BaseURL, w.Latitude, w.Longitude, w.Location,
			config.Duration(w.Timeout, weather.DefaultTimeout)))
	}

	pl, err := builder.Build()
	if err != nil {
		return err
	}

	result, err := pl.Run(ctx, pipeline.RunOptions{
		Date:   date,
		Show:   show,
		DryRun: opts.dryRun,
		Force:  opts.force,
	})
	if err != nil {
		if result != nil {
			fmt.Printf("❌ Run %s failed. Inspect it with 'noctua runs show %s'\n", result.RunID, result.RunID)
		}
		return err
	}

	printRunResult(result, opts.dryRun)
	return nil
}

func (a *app) messageSource(ctx context.Context, input string) (pipeline.MessageSource, error) {
	if input != "" {
		return mailbox.NewFileSource(input), nil
	}

	switch a.cfg.Mailbox.Provider {
	case "gmail":
		g := a.cfg.Mailbox.Gmail
		src, err := mailbox.NewGmailSource(ctx, mailbox.GmailOptions{
			CredentialsFile: g.CredentialsFile,
			TokenFile:       g.TokenFile,
			Label:           g.Label,
			Window:          config.Duration(g.Window, 24*time.Hour),
			MaxMessages:     g.MaxMessages,
		})
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return mailbox.NewFileSource(a.cfg.Mailbox.File), nil
	}
}

func printRunResult(result *pipeline.RunResult, dryRun bool) {
	fmt.Printf("\n🦉 Run %s\n", result.RunID)
	fmt.Println("═══════════════════════════════════════════════════════════════════")
	fmt.Printf("Messages fetched:  %d\n", result.Messages)
	fmt.Printf("Articles kept:     %d\n", result.Articles)

	if result.Digest == nil {
		fmt.Println("\n📭 Nothing to compile for this date")
		return
	}

	d := result.Digest
	fmt.Printf("Digest date:       %s\n", d.Date)
	fmt.Printf("Topics:            %s\n", d.TopicsSummary)
	fmt.Printf("Words:             %d\n", d.TotalWords)
	if !d.Synthesized {
		fmt.Println("Prose:             raw article fallback")
	}

	switch {
	case dryRun:
		fmt.Println("\n🧪 Dry run, digest not saved")
		fmt.Println("───────────────────────────────────────────────────────────────────")
		fmt.Print(d.Text)
	case result.Locked:
		fmt.Println("\n🔒 Episode already published for this date, digest kept as is")
		fmt.Println("💡 Use --force to overwrite it")
	case result.Saved:
		fmt.Println("\n✅ Digest saved")
	}
	logger.Debug("Run finished", "run_id", result.RunID, "saved", result.Saved)
}
