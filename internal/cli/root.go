package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"kbrag/config"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "kbrag",
	Short: "Knowledge base RAG - answer questions from a single document",
	Long: `kbrag ingests one knowledge document (PDF, Markdown or text), embeds it
into a vector index and answers questions grounded in the retrieved chunks.

Example usage:
  kbrag ingest                       # Build the index from data/knowledge.*
  kbrag chat -q "how do I file a claim?"
  kbrag search -q "office hours" -k 2
  kbrag serve --addr :8000           # HTTP API with /ingest and /chat`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if err := loadDotEnv(rootDir); err != nil {
			return err
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./kbrag.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}

// loadDotEnv reads <root>/.env if present. Variables already set win.
func loadDotEnv(root string) error {
	path := root + string(os.PathSeparator) + ".env"
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
