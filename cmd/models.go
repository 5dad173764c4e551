package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/instaloom-cli/internal/ai"
)

var (
	modelsJSON bool
	syncPath   string
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the model catalog used for context budgets and cost estimates",
	Example: `  instaloom models show
  instaloom models show --json
  instaloom models sync --file ./models.json`,
}

var modelsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current model catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := ai.Catalog()
		if modelsJSON {
			return printJSON(cat)
		}
		keys := make([]string, 0, len(cat))
		for k := range cat {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Printf("Providers: %v\n", ai.Providers())
		for _, k := range keys {
			mi := cat[k]
			fmt.Printf("- %s: context=%d in=$%.5f/1K out=$%.5f/1K\n", k, mi.ContextTokens, mi.InputPerK, mi.OutputPerK)
		}
		return nil
	},
}

var modelsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Merge model entries from a JSON file for this run",
	Long: `Merge model entries from a JSON object keyed by model name into the in-memory
catalog and print the result. Set ai.models_catalog to merge a file on every run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncPath == "" {
			return fmt.Errorf("--file is required")
		}
		if err := ai.MergeCatalogFile(syncPath); err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		fmt.Println("Merged model catalog from file")
		return printJSON(ai.Catalog())
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsShowCmd)
	modelsCmd.AddCommand(modelsSyncCmd)

	modelsShowCmd.Flags().BoolVar(&modelsJSON, "json", false, "print the catalog as JSON")
	modelsSyncCmd.Flags().StringVar(&syncPath, "file", "", "path to JSON catalog file")
}
