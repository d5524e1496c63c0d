package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [paths...]",
	Short: "Build the document index",
	Long: `Loads .txt, .md and .pdf files (directories and glob patterns accepted),
splits them into chunks, embeds every chunk and replaces the contents of the
configured vector store. A manifest with a corpus summary is written to the
index directory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, profile, false, false)
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.service.IngestDocuments(cmd.Context(), args)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	cmd.Printf("Indexed into %s\n", cfg.VectorStore.Path)
	if summary != "" {
		cmd.Println()
		cmd.Println(summary)
	}
	return nil
}
