package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"kbrag/internal/usecase"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted knowledge base",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	status, err := loadStatus(cfg, GetRootDir())
	if err != nil {
		return err
	}

	if statusJSON {
		output, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	switch status.State {
	case usecase.StateAbsent:
		fmt.Println("Knowledge base not ingested yet. Run 'kbrag ingest' first.")
	case usecase.StateCorrupt:
		fmt.Printf("Knowledge base cannot be loaded: %s\n", status.Detail)
		fmt.Println("Run 'kbrag ingest' to rebuild it.")
	default:
		info := status.Info
		fmt.Printf("Knowledge base:\n")
		fmt.Printf("  Source:     %s\n", info.Source)
		fmt.Printf("  Build:      %s\n", info.ID)
		fmt.Printf("  Created:    %s\n", info.CreatedAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Printf("  Chunks:     %d (size %d, overlap %d)\n", status.Chunks, info.ChunkSize, info.ChunkOverlap)
		fmt.Printf("  Embeddings: %s, dimension %d\n", info.Model, info.Dimension)
		fmt.Printf("  Backend:    %s\n", cfg.Index.Backend)
		if status.Stale != "" {
			fmt.Printf("\nWarning: %s. Run 'kbrag ingest' to rebuild.\n", status.Stale)
		}
	}
	return nil
}
