package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"kbrag/internal/tui"
	"kbrag/internal/usecase"
)

var (
	chatQuestion string
	chatTopK     int
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions about the knowledge base",
	Long: `Answer questions grounded in the retrieved chunks of the knowledge base.

With -q a single answer is printed. Without it an interactive session starts.

Examples:
  kbrag chat -q "how do I file a claim?"
  kbrag chat`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatQuestion, "query", "q", "", "ask one question and exit")
	chatCmd.Flags().IntVarP(&chatTopK, "top-k", "k", 0, "number of chunks in the prompt (default from config)")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if chatTopK > 0 {
		cfg.Retrieve.TopK = chatTopK
	}

	a, err := newApp(cfg, GetRootDir(), true)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if chatQuestion != "" {
		result, err := a.chat.Chat(ctx, chatQuestion)
		if err != nil {
			return fmt.Errorf("%s", usecase.FailureDetail(usecase.OpChat, err))
		}
		fmt.Println(result.Answer)
		return nil
	}

	summary := fmt.Sprintf("%s via %s", cfg.Chat.Model, cfg.Chat.Provider)
	if status := a.chat.Status(); status.State == usecase.StateReady {
		summary = fmt.Sprintf("%s · %d chunks from %s", summary, status.Chunks, status.Info.Source)
	}

	if _, err := tea.NewProgram(tui.New(ctx, a.chat, summary), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("chat session failed: %w", err)
	}

	if stats := a.llm.Stats(); stats.Calls > 0 {
		fmt.Printf("%d questions, %d prompt tokens, %d completion tokens\n", stats.Calls, stats.PromptTokens, stats.CompletionTokens)
	}
	return nil
}
