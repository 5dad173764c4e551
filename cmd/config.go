package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cfgpkg "github.com/KaramelBytes/instaloom-cli/internal/config"
)

var configShowYAML bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set Instaloom configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		if configShowYAML {
			c := *cfg
			c.AI.APIKey = mask(c.AI.APIKey)
			c.Sheets.CredentialsJSON = mask(c.Sheets.CredentialsJSON)
			b, err := yaml.Marshal(&c)
			if err != nil {
				return fmt.Errorf("marshal yaml: %w", err)
			}
			fmt.Print(string(b))
			return nil
		}
		fmt.Printf("db_path: %s\n", cfg.DBPath)
		fmt.Printf("locale: %s\n", cfg.Locale)
		fmt.Printf("timezone: %s\n", cfg.Timezone)
		fmt.Printf("log_mode: %s\n", cfg.LogMode)
		fmt.Printf("ai.provider: %s\n", cfg.AI.Provider)
		fmt.Printf("ai.model: %s\n", cfg.AI.Model)
		fmt.Printf("ai.api_key: %s\n", mask(cfg.AI.APIKey))
		if cfg.AI.BaseURL != "" {
			fmt.Printf("ai.base_url: %s\n", cfg.AI.BaseURL)
		}
		fmt.Printf("ai.max_tokens: %d\n", cfg.AI.MaxTokens)
		fmt.Printf("ai.temperature: %.3f\n", cfg.AI.Temperature)
		fmt.Printf("ai.stream: %t\n", cfg.AI.Stream)
		if cfg.Sheets.CredentialsFile != "" {
			fmt.Printf("sheets.credentials_file: %s\n", cfg.Sheets.CredentialsFile)
		}
		fmt.Printf("sheets.range: %s\n", cfg.Sheets.Range)
		fmt.Printf("analysis.strong_correlation: %.2f\n", cfg.Analysis.StrongCorrelation)
		fmt.Printf("analysis.benchmarks.estimated_followers: %.0f\n", cfg.Analysis.Benchmarks.EstimatedFollowers)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Example: `  instaloom config set ai.api_key sk-or-...
  instaloom config set timezone America/Sao_Paulo
  instaloom config set analysis.benchmarks.estimated_followers 12000`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if err := c.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			fmt.Println(cfgFile)
			return nil
		}
		dir, err := cfgpkg.Dir()
		if err != nil {
			return err
		}
		fmt.Println(filepath.Join(dir, "config.yaml"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	configShowCmd.Flags().BoolVar(&configShowYAML, "yaml", false, "print the full configuration as YAML")
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
