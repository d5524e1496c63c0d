// Package cli implements the docqa command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"docqa/internal/config"
	"docqa/internal/logger"
)

var (
	cfgPath     string
	profileName string
	verbose     bool

	cfg     *config.AppConfig
	profile config.ProfileConfig
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about your documents",
	Long: `docqa answers questions from a local document index.
Documents are chunked, embedded and stored once with "docqa ingest";
"docqa ask" opens the question window and "docqa query" answers one question.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a YAML or TOML config file (default ./config.yaml, then ~/.config/docqa/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "question window profile (novel, pdf)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	var err error
	if cfgPath == "" {
		var path string
		cfg, path, err = config.LoadDefault()
		if err == nil {
			logger.Debug("config: %s", path)
		}
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.SetVerbose(verbose || cfg.Log.Verbose)

	profile, err = cfg.ActiveProfile(profileName)
	if err != nil {
		return err
	}
	return nil
}
