package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/instaloom-cli/internal/ai"
	"github.com/KaramelBytes/instaloom-cli/internal/chat"
)

var (
	chatProvider    string
	chatModel       string
	chatMaxTokens   int
	chatTemperature float64
	chatStream      bool
	chatFile        string
	chatLimit       int
	chatPrintPrompt bool
	chatSheetName   string
	chatSheetIndex  int
)

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Ask questions about your post metrics",
	Long: `Ask a single question, or start an interactive session when no question is given.
In a session, /reset forgets the conversation, /usage prints token usage and /exit quits.`,
	Example: `  instaloom chat "Qual o melhor horário para postar?"
  instaloom chat --provider ollama --model llama3.1:8b
  instaloom chat --file export.csv --print-prompt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		var fileArgs []string
		if chatFile != "" {
			fileArgs = []string{chatFile}
		}
		posts, err := loadPosts(cmd, fileArgs, chatLimit, chatSheetName, chatSheetIndex)
		if err != nil {
			return err
		}
		opt, err := c.ParseOptions()
		if err != nil {
			return err
		}
		cc := chat.BuildContext(posts, opt.Locale)
		if chatPrintPrompt {
			fmt.Println(chat.SystemPrompt(cc))
			return nil
		}

		f := cmd.Flags()
		provider := c.AI.Provider
		if f.Changed("provider") {
			provider = chatProvider
		}
		model := c.AI.Model
		if f.Changed("model") {
			model = chatModel
		}
		maxTokens := c.AI.MaxTokens
		if f.Changed("max-tokens") {
			maxTokens = chatMaxTokens
		}
		temperature := c.AI.Temperature
		if f.Changed("temperature") {
			temperature = chatTemperature
		}
		stream := c.AI.Stream
		if f.Changed("stream") {
			stream = chatStream
		}
		if strings.EqualFold(provider, ai.ProviderOpenRouter) && c.AI.APIKey == "" {
			return fmt.Errorf("AI API key not set. Set INSTALOOM_AI_API_KEY or run 'instaloom config set ai.api_key <key>'")
		}
		rt, err := ai.GetRuntime(provider, c.RuntimeConfig(log))
		if err != nil {
			return err
		}

		s := chat.NewSession(rt, cc, chat.Options{
			Model:       model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			Logger:      log,
		})
		log.Debug("chat session started", "session", s.ID, "provider", provider, "posts", len(posts))

		if len(args) > 0 {
			return askOnce(cmd.Context(), s, strings.Join(args, " "), stream, os.Stdout)
		}
		return chatLoop(cmd.Context(), s, stream, os.Stdin, os.Stdout)
	},
}

func askOnce(ctx context.Context, s *chat.Session, q string, stream bool, out io.Writer) error {
	var err error
	if stream {
		_, err = s.AskStream(ctx, q, func(d string) { fmt.Fprint(out, d) })
		fmt.Fprintln(out)
	} else {
		var answer string
		answer, err = s.Ask(ctx, q)
		if err == nil {
			fmt.Fprintln(out, answer)
		}
	}
	if err != nil && !errors.Is(err, chat.ErrEmptyQuestion) {
		log.Error("chat failed", "error", err)
		return errors.New(ai.UserMessage(err))
	}
	return err
}

// chatLoop reads one question per line until EOF or /exit. Failed questions
// are reported and the session continues.
func chatLoop(ctx context.Context, s *chat.Session, stream bool, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Pergunte sobre seus dados (/reset, /usage, /exit).")
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/reset":
			s.Reset()
			fmt.Fprintln(out, "Conversa reiniciada.")
			continue
		case "/usage":
			u := s.Usage()
			fmt.Fprintf(out, "Tokens: prompt=%d completion=%d total=%d\n", u.PromptTokens, u.CompletionTokens, u.TotalTokens)
			if cost, ok := s.EstimatedCostUSD(); ok {
				fmt.Fprintf(out, "Estimated cost: ~$%.4f\n", cost)
			}
			continue
		}
		if err := askOnce(ctx, s, line, stream, out); err != nil {
			fmt.Fprintln(out, "✗", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatProvider, "provider", "", "AI provider: openrouter | ollama (default from config)")
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "model name (default from config)")
	chatCmd.Flags().IntVar(&chatMaxTokens, "max-tokens", 0, "maximum tokens per answer (default from config)")
	chatCmd.Flags().Float64Var(&chatTemperature, "temperature", 0, "sampling temperature (default from config)")
	chatCmd.Flags().BoolVar(&chatStream, "stream", true, "stream answers as they are generated")
	chatCmd.Flags().StringVar(&chatFile, "file", "", "answer from an export file instead of the post store")
	chatCmd.Flags().IntVar(&chatLimit, "limit", 0, "only use the N most recent posts (0 = all)")
	chatCmd.Flags().BoolVar(&chatPrintPrompt, "print-prompt", false, "print the system prompt and exit without calling the model")
	chatCmd.Flags().StringVar(&chatSheetName, "sheet-name", "", "XLSX: sheet name for --file")
	chatCmd.Flags().IntVar(&chatSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index for --file")
}
