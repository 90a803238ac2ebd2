// Package commands implements the InsightGen CLI commands.
package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sumitkamra20/insightgen/internal/config"
	"github.com/sumitkamra20/insightgen/internal/generator"
	"github.com/sumitkamra20/insightgen/internal/observability"
)

var (
	cfgFile string
	noColor bool
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "insightgen",
	Short: "Slide deck analysis pipeline",
	Long:  "InsightGen analyzes slide decks with vision models, generating per-slide observations and a coherent sequence of headlines.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		color.NoColor = noColor
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads configuration honoring the global --config flag.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a console logger for CLI runs. Without --verbose only
// warnings and errors reach the terminal.
func newLogger(cfg *config.Config) *observability.Logger {
	level := "warn"
	if verbose {
		level = cfg.Observability.LogLevel
		if level == "" || level == "info" {
			level = "debug"
		}
	}

	return observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      "console",
		ServiceName: "insightgen",
	})
}

// openSource builds the configured generator source; the close function is a
// no-op for directory sources.
func openSource(cfg *config.Config) (generator.Source, func(), error) {
	if cfg.Generators.Source == "sqlite" {
		store, err := generator.OpenSQLiteStore(cfg.Generators.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}

	return generator.NewDirSource(cfg.Generators.Dir), func() {}, nil
}

func defaultsFrom(cfg *config.Config) generator.Defaults {
	return generator.Defaults{
		Model:       cfg.Completion.DefaultModel,
		Temperature: 0.5,
		MaxTokens:   1000,
	}
}
