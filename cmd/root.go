package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/instaloom-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/instaloom-cli/internal/config"
	"github.com/KaramelBytes/instaloom-cli/internal/logger"
	"github.com/KaramelBytes/instaloom-cli/internal/store"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	flagDB    string
	flagLog   string
	flagTZ    string
	flagLocal string
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global
	log = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "instaloom",
	Short: "Instaloom CLI: analyze Instagram post exports and chat with your metrics",
	Long: `Instaloom imports Instagram performance exports (CSV, XLSX or Google Sheets)
into a local SQLite store, builds an analytics report (aggregations, correlations,
clusters, forecasts, insights) and answers questions about the data through an
OpenRouter or Ollama model.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	err := rootCmd.Execute()
	log.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.instaloom/config.yaml)")
	pf.BoolVar(&debug, "debug", false, "enable debug logging")
	pf.StringVar(&flagLog, "log-mode", "", "log encoder: dev | prod (overrides config)")
	pf.StringVar(&flagDB, "db", "", "SQLite database path (overrides config)")
	pf.StringVar(&flagTZ, "timezone", "", "IANA zone for export timestamps (overrides config)")
	pf.StringVar(&flagLocal, "locale", "", "report locale: pt-BR | en (overrides config)")
	pf.IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	pf.IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	pf.IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	pf.IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: config show/set still work on defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("db") && flagDB != "" {
		cfg.DBPath = flagDB
	}
	if f.Changed("log-mode") && flagLog != "" {
		cfg.LogMode = flagLog
	}
	if f.Changed("timezone") && flagTZ != "" {
		cfg.Timezone = flagTZ
	}
	if f.Changed("locale") && flagLocal != "" {
		cfg.Locale = flagLocal
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.AI.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.AI.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.AI.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.AI.RetryMaxDelayMs = flagRetryMaxDelayMs
	}

	l, err := logger.New(cfg.LogMode, debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
	} else {
		log = l
	}

	if cfg.AI.ModelsCatalog != "" {
		if err := ai.MergeCatalogFile(cfg.AI.ModelsCatalog); err != nil {
			log.Warn("model catalog not merged", "path", cfg.AI.ModelsCatalog, "error", err)
		}
	}
}

// requireConfig returns the loaded config or loads it on demand.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

// openStore opens the configured post database. Callers close it.
func openStore(ctx context.Context) (*store.Store, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, c.DBPath, log)
}
