package cli

import (
	"fmt"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build the knowledge base from the source document",
	Long: `Extract, chunk and embed the configured knowledge document and persist
the vector index and chunk store under the data directory.

A failed ingestion leaves the previously persisted knowledge base untouched.

Examples:
  kbrag ingest
  kbrag ingest -d /srv/kb`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	a, err := newApp(cfg, GetRootDir(), false)
	if err != nil {
		return err
	}

	fmt.Printf("Ingesting %s...\n", cfg.Source.Document)
	fmt.Printf("Embedding: provider=%s, model=%s, backend=%s\n", cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Index.Backend)

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time

	progress := func(done, total int) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(done)

		if done > 0 && done < total {
			rate := float64(done) / time.Since(startTime).Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}

	result, err := a.ingest.Ingest(cmd.Context(), progress)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Source:  %s\n", result.Source)
	fmt.Printf("  Chunks:  %d\n", result.Chunks)
	fmt.Printf("  Build:   %s\n", result.BuildID)
	fmt.Printf("\nIndex stored at: %s\n", cfg.IndexPath(a.root))
	fmt.Printf("Chunks stored at: %s\n", cfg.ChunksPath(a.root))
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
