package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"docqa/internal/extraction"
)

var extractAlso []string

var extractCmd = &cobra.Command{
	Use:   "extract [invoice.pdf]",
	Short: "Extract invoice fields and mark them on the PDF",
	Long: `Uploads an invoice PDF to a multimodal model, prints the recipient and total
with their bounding boxes as JSON and writes <name>_annotated.pdf with a red
box around every field that was found. Additional PDFs given with --also are
annotated with the same boxes.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringSliceVar(&extractAlso, "also", nil, "additional PDFs to annotate with the extracted boxes")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ex, err := newExtractor(cfg)
	if err != nil {
		return err
	}
	inv, err := ex.Extract(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal invoice: %w", err)
	}
	cmd.Println(string(data))

	marks := extraction.Marks(inv)
	for _, path := range append([]string{args[0]}, extractAlso...) {
		out, drawn, err := extraction.Annotate(path, marks)
		if err != nil {
			return fmt.Errorf("annotating %s: %w", path, err)
		}
		cmd.Printf("Annotated %d field(s): %s\n", drawn, out)
	}
	return nil
}
