package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/instaloom-cli/internal/analysis"
	"github.com/KaramelBytes/instaloom-cli/internal/ingest"
	"github.com/KaramelBytes/instaloom-cli/internal/store"
	"github.com/KaramelBytes/instaloom-cli/internal/utils"
)

var (
	anaOutputPath string
	anaName       string
	anaJSON       bool
	anaLimit      int
	anaSheetName  string
	anaSheetIndex int
	anaFollowers  float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Build the performance report from the post store or directly from an export",
	Example: `  instaloom analyze
  instaloom analyze export.csv --json -o report.json
  instaloom analyze --limit 90 --followers 12000`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		posts, err := loadPosts(cmd, args, anaLimit, anaSheetName, anaSheetIndex)
		if err != nil {
			return err
		}
		if len(posts) == 0 {
			fmt.Fprintln(os.Stderr, "⚠ Warning: no posts to analyze; run 'instaloom import' first")
		}

		opt := c.DashboardOptions()
		opt.Name = anaName
		if anaFollowers > 0 {
			opt.Benchmarks.EstimatedFollowers = anaFollowers
		}
		d, err := analysis.BuildDashboard(posts, opt)
		if err != nil {
			return err
		}
		log.Debug("dashboard built", "posts", len(posts), "insights", len(d.Insights))

		var out []byte
		if anaJSON {
			b, err := utils.PrettyJSON(d)
			if err != nil {
				return err
			}
			out = append(b, '\n')
		} else {
			out = []byte(d.Markdown())
		}
		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

// loadPosts reads posts from a file argument without touching the store, or
// from the store when no file is given. Either way they come back newest first.
func loadPosts(cmd *cobra.Command, args []string, limit int, sheet string, sheetIndex int) ([]analysis.Post, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, err
	}
	opt, err := c.ParseOptions()
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		im := &ingest.Importer{Options: opt, Log: log, DryRun: true}
		res, err := im.Import(cmd.Context(), ingest.SourceForPath(args[0], sheet, sheetIndex), ingest.StrategyAppendByKey)
		if err != nil {
			return nil, err
		}
		posts := res.Posts
		if limit > 0 && len(posts) > limit {
			posts = posts[:limit]
		}
		return posts, nil
	}
	st, err := openStore(cmd.Context())
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.ListPosts(cmd.Context(), store.ListOptions{Locale: opt.Locale, Location: opt.Location, Limit: limit})
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report")
	analyzeCmd.Flags().StringVar(&anaName, "name", "", "report title")
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "emit the full report as JSON instead of Markdown")
	analyzeCmd.Flags().IntVar(&anaLimit, "limit", 0, "only analyze the N most recent posts (0 = all)")
	analyzeCmd.Flags().StringVar(&anaSheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	analyzeCmd.Flags().IntVar(&anaSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	analyzeCmd.Flags().Float64Var(&anaFollowers, "followers", 0, "follower count for benchmark comparison (overrides config)")
}
