package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docqa/internal/format"
)

var queryJSON bool

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Answer one question from the index",
	Long: `Retrieves the chunks most similar to the question, asks the chat model
to answer from them and prints the response in the layout of the active profile.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the answer and retrieved chunks as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := openIndex(cfg, profile)
	if err != nil {
		return err
	}
	defer a.Close()

	answer, err := a.service.Ask(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	if queryJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	cmd.Println(format.Response(answer, profile.Layout))
	return nil
}
