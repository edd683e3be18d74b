package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"kbrag/internal/domain"
)

var (
	searchText string
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Show the chunks retrieved for a question",
	Long: `Embed a question and print the nearest chunks of the knowledge base,
best first, without calling the completion model.

Examples:
  kbrag search -q "office hours"
  kbrag search -q "claim deadline" -k 2 --json`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchText, "query", "q", "", "question to search for (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of chunks (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp(GetConfig(), GetRootDir(), false)
	if err != nil {
		return err
	}

	hits, err := a.chat.Search(cmd.Context(), searchText, searchTopK)
	if errors.Is(err, domain.ErrNotIngested) {
		fmt.Println(domain.NotIngestedNotice)
		return nil
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		output, _ := json.MarshalIndent(hits, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d chunks for: %s\n\n", len(hits), searchText)
	for i, h := range hits {
		fmt.Printf("--- [%d] chunk %d (score: %.4f) ---\n", i+1, h.Position, h.Score)
		text := []rune(h.Text)
		if len(text) > 500 {
			text = append(text[:500], []rune("...")...)
		}
		fmt.Println(string(text))
		fmt.Println()
	}
	return nil
}
