package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/instaloom-cli/internal/ingest"
)

var (
	impSheetID    string
	impRange      string
	impSheetName  string
	impSheetIndex int
	impDelimiter  string
	impStrategy   string
	impDryRun     bool
	impJSON       bool
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import an Instagram export (CSV, XLSX or Google Sheets) into the post store",
	Example: `  instaloom import export.csv
  instaloom import export.xlsx --sheet-name Posts --strategy replace
  instaloom import --sheet-id https://docs.google.com/spreadsheets/d/<id>/edit --range "Posts!A:Z"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		strategy, err := ingest.ParseStrategy(impStrategy)
		if err != nil {
			return err
		}
		src, err := importSource(args)
		if err != nil {
			return err
		}
		opt, err := c.ParseOptions()
		if err != nil {
			return err
		}
		if impDelimiter != "" {
			d, err := parseDelimiter(impDelimiter)
			if err != nil {
				return err
			}
			opt.Delimiter = d
			if cs, ok := src.(*ingest.CSVSource); ok {
				cs.Delimiter = d
			}
		}

		im := &ingest.Importer{Options: opt, Log: log, DryRun: impDryRun}
		if !impDryRun {
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			im.Store = st
		}
		res, err := im.Import(cmd.Context(), src, strategy)
		if err != nil {
			return err
		}
		if impJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		if impDryRun {
			fmt.Println("--dry-run: nothing was written")
		}
		fmt.Printf("✓ Imported %s (batch %s)\n", res.Source, res.BatchID)
		fmt.Printf("  rows: %d, parsed: %d, dropped: %d, duplicates: %d, stored: %d, strategy: %s\n",
			res.Rows, res.Parsed, res.Dropped, res.Duplicates, res.Stored, res.Strategy)
		return nil
	},
}

func importSource(args []string) (ingest.Source, error) {
	switch {
	case impSheetID != "" && len(args) > 0:
		return nil, fmt.Errorf("pass either a file or --sheet-id, not both")
	case impSheetID != "":
		c, err := requireConfig()
		if err != nil {
			return nil, err
		}
		rng := impRange
		if rng == "" {
			rng = c.Sheets.Range
		}
		return &ingest.SheetsSource{
			SpreadsheetID:   ingest.SpreadsheetID(impSheetID),
			Range:           rng,
			CredentialsJSON: c.Sheets.CredentialsJSON,
			CredentialsFile: c.Sheets.CredentialsFile,
		}, nil
	case len(args) == 1:
		if _, err := os.Stat(args[0]); err != nil {
			return nil, err
		}
		return ingest.SourceForPath(args[0], impSheetName, impSheetIndex), nil
	}
	return nil, fmt.Errorf("a file path or --sheet-id is required")
}

func parseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "\t", "tab":
		return '\t', nil
	}
	return 0, fmt.Errorf("unsupported --delimiter: %s (use ',' | ';' | 'tab')", s)
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&impSheetID, "sheet-id", "", "Google spreadsheet id or URL")
	importCmd.Flags().StringVar(&impRange, "range", "", "Google Sheets A1 range (default from config, A:Z)")
	importCmd.Flags().StringVar(&impSheetName, "sheet-name", "", "XLSX: sheet name to read")
	importCmd.Flags().IntVar(&impSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	importCmd.Flags().StringVar(&impDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (auto-detect if omitted)")
	importCmd.Flags().StringVar(&impStrategy, "strategy", "append", "merge strategy: append (upsert by post id) | replace")
	importCmd.Flags().BoolVar(&impDryRun, "dry-run", false, "parse and report without writing")
	importCmd.Flags().BoolVar(&impJSON, "json", false, "print the import result as JSON")
}
