package handlers

import (
	"fmt"
	"os"

	"noctua/internal/config"
	"noctua/internal/core"
	"noctua/internal/logger"
	"noctua/internal/store"

	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once the root command has loaded
// the configuration.
type app struct {
	configFile string
	cfg        *config.Config
}

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "noctua",
		Short: "Noctua turns a day of newsletters into a podcast script.",
		Long: `Noctua fetches the day's newsletter emails, cleans and classifies the
articles, removes duplicates and compiles a segmented podcast script that is
stored for the narration service.

Examples:
  # Compile and save today's digest
  noctua run

  # Compile from a local inbox dump without saving
  noctua run --input inbox.json --dry-run

  # Browse stored digests
  noctua browse`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			a.cfg = cfg

			level := cfg.Logging.Level
			if cfg.App.Debug {
				level = "debug"
			}
			logger.Configure(level, cfg.Logging.Format)
			if cfg.ConfigFile != "" {
				logger.Debug("Using config file", "path", cfg.ConfigFile)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default is ./.noctua.yaml or $HOME/.noctua.yaml)")

	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newDigestCmd(a))
	rootCmd.AddCommand(newEpisodeCmd(a))
	rootCmd.AddCommand(newRunsCmd(a))
	rootCmd.AddCommand(newShowsCmd(a))
	rootCmd.AddCommand(newBrowseCmd(a))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

// openStore opens the digest store named by the configuration.
func (a *app) openStore() (*store.Store, error) {
	s, err := store.NewStore(a.cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", a.cfg.Store.Path, err)
	}
	return s, nil
}

// show resolves a show id against the configured catalog, falling back to
// the configured default when id is empty.
func (a *app) show(id string) (core.Show, error) {
	catalog, err := config.LoadShows(a.cfg.Shows.File)
	if err != nil {
		return core.Show{}, err
	}
	if id == "" {
		id = a.cfg.Shows.Default
	}
	return catalog.Get(id)
}
