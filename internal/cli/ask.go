package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"docqa/internal/logger"
	"docqa/internal/tui"
)

var askCmd = &cobra.Command{
	Use:   "ask [files...]",
	Short: "Open the question window",
	Long: `Opens the interactive question window over the persisted index.
When files are given they are ingested into an in-memory index first and the
persisted index is left untouched.`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logger.SetOutput(f)
		defer logger.SetOutput(os.Stderr)
	}

	a, err := openAskApp(cmd, args)
	if err != nil {
		return err
	}
	defer a.Close()

	m := tui.New(cmd.Context(), a.service, tui.Options{
		Title:        profile.Title,
		Footer:       profile.Footer,
		Summary:      a.summary,
		Layout:       profile.Layout,
		ErrorDisplay: profile.ErrorDisplay,
	})
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run(); err != nil {
		return err
	}
	return nil
}

func openAskApp(cmd *cobra.Command, files []string) (*app, error) {
	if len(files) == 0 {
		return openIndex(cfg, profile)
	}
	a, err := newApp(cfg, profile, true, true)
	if err != nil {
		return nil, err
	}
	summary, err := a.service.IngestDocuments(cmd.Context(), files)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("ingest failed: %w", err)
	}
	a.summary = summary
	return a, nil
}
