package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/instaloom-cli/internal/ai"
	"github.com/KaramelBytes/instaloom-cli/internal/analysis"
	"github.com/KaramelBytes/instaloom-cli/internal/logger"
	"github.com/KaramelBytes/instaloom-cli/internal/utils"
)

const (
	envPrefix = "INSTALOOM"
	dirName   = ".instaloom"
)

// Global configuration structure.
type Global struct {
	DBPath   string `mapstructure:"db_path" yaml:"db_path"`
	Locale   string `mapstructure:"locale" yaml:"locale"`
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
	LogMode  string `mapstructure:"log_mode" yaml:"log_mode"`

	AI       AI       `mapstructure:"ai" yaml:"ai"`
	Sheets   Sheets   `mapstructure:"sheets" yaml:"sheets"`
	Analysis Analysis `mapstructure:"analysis" yaml:"analysis"`
}

// AI configures the chat runtime.
type AI struct {
	Provider    string  `mapstructure:"provider" yaml:"provider"`
	Model       string  `mapstructure:"model" yaml:"model"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	Stream      bool    `mapstructure:"stream" yaml:"stream"`
	// ModelsCatalog is an optional JSON file merged into the model catalog.
	ModelsCatalog string `mapstructure:"models_catalog" yaml:"models_catalog,omitempty"`

	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`
}

// Sheets configures Google Sheets imports.
type Sheets struct {
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file,omitempty"`
	CredentialsJSON string `mapstructure:"credentials_json" yaml:"credentials_json,omitempty"`
	Range           string `mapstructure:"range" yaml:"range"`
}

// Analysis holds the tunable heuristics of the pipeline.
type Analysis struct {
	ClusterWeights    analysis.ClusterWeights  `mapstructure:"cluster_weights" yaml:"cluster_weights"`
	Forecast          analysis.ForecastOptions `mapstructure:"forecast" yaml:"forecast"`
	StrongCorrelation float64                  `mapstructure:"strong_correlation" yaml:"strong_correlation"`
	MaxCorrelations   int                      `mapstructure:"max_correlations" yaml:"max_correlations"`
	TopPosts          int                      `mapstructure:"top_posts" yaml:"top_posts"`
	Lexicon           analysis.Lexicon         `mapstructure:"lexicon" yaml:"lexicon"`
	Benchmarks        analysis.Benchmarks      `mapstructure:"benchmarks" yaml:"benchmarks"`
}

// Dir returns ~/.instaloom.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

func setDefaults(v *viper.Viper) {
	dashboard := analysis.DefaultDashboardOptions()

	v.SetDefault("db_path", filepath.Join("~", dirName, "posts.db"))
	v.SetDefault("locale", analysis.LocalePTBR.Name)
	v.SetDefault("timezone", "Local")
	v.SetDefault("log_mode", "dev")

	v.SetDefault("ai.provider", ai.ProviderOpenRouter)
	v.SetDefault("ai.model", ai.DefaultModel)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", ai.DefaultBaseURL)
	v.SetDefault("ai.max_tokens", 2048)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.stream", true)
	v.SetDefault("ai.models_catalog", "")
	v.SetDefault("ai.http_timeout_sec", 60)
	v.SetDefault("ai.retry_max_attempts", 3)
	v.SetDefault("ai.retry_base_delay_ms", 500)
	v.SetDefault("ai.retry_max_delay_ms", 4000)
	v.SetDefault("ai.ollama_host", ai.DefaultOllamaHost)

	v.SetDefault("sheets.credentials_file", "")
	v.SetDefault("sheets.credentials_json", "")
	v.SetDefault("sheets.range", "A:Z")

	v.SetDefault("analysis.cluster_weights.views", dashboard.ClusterWeights.Views)
	v.SetDefault("analysis.cluster_weights.reach", dashboard.ClusterWeights.Reach)
	v.SetDefault("analysis.cluster_weights.engagement", dashboard.ClusterWeights.Engagement)
	v.SetDefault("analysis.forecast.horizon", dashboard.Forecast.Horizon)
	v.SetDefault("analysis.forecast.band_multiplier", dashboard.Forecast.BandMultiplier)
	v.SetDefault("analysis.forecast.trend_threshold", dashboard.Forecast.TrendThreshold)
	v.SetDefault("analysis.strong_correlation", dashboard.StrongCorrelation)
	v.SetDefault("analysis.max_correlations", dashboard.MaxCorrelations)
	v.SetDefault("analysis.top_posts", dashboard.TopPosts)
	v.SetDefault("analysis.lexicon.positive", dashboard.Lexicon.Positive)
	v.SetDefault("analysis.lexicon.negative", dashboard.Lexicon.Negative)
	b := dashboard.Benchmarks
	v.SetDefault("analysis.benchmarks.engagement_rate", b.EngagementRate)
	v.SetDefault("analysis.benchmarks.likes_per_post", b.LikesPerPost)
	v.SetDefault("analysis.benchmarks.comments_per_post", b.CommentsPerPost)
	v.SetDefault("analysis.benchmarks.posts_per_week", b.PostsPerWeek)
	v.SetDefault("analysis.benchmarks.video_engagement", b.VideoEngagement)
	v.SetDefault("analysis.benchmarks.image_engagement", b.ImageEngagement)
	v.SetDefault("analysis.benchmarks.carousel_engagement", b.CarouselEngagement)
	v.SetDefault("analysis.benchmarks.estimated_followers", b.EstimatedFollowers)
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
// Nested keys map to env vars with "_", e.g. INSTALOOM_AI_API_KEY.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.DBPath = utils.ExpandHome(c.DBPath)
	return &c, nil
}

// Save writes the configuration as YAML to cfgFile, or ~/.instaloom/config.yaml.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Set assigns one dotted key from its string form.
func (c *Global) Set(key, val string) error {
	var err error
	switch key {
	case "db_path":
		c.DBPath = val
	case "locale":
		c.Locale = val
	case "timezone":
		if _, lerr := time.LoadLocation(val); lerr != nil {
			return fmt.Errorf("invalid timezone %q: %w", val, lerr)
		}
		c.Timezone = val
	case "log_mode":
		c.LogMode = val
	case "ai.provider":
		switch strings.ToLower(val) {
		case ai.ProviderOpenRouter:
			c.AI.Provider = ai.ProviderOpenRouter
		case ai.ProviderOllama, "local":
			c.AI.Provider = ai.ProviderOllama
		default:
			return fmt.Errorf("invalid ai.provider: %s (use openrouter or ollama)", val)
		}
	case "ai.model":
		c.AI.Model = val
	case "ai.api_key":
		c.AI.APIKey = val
	case "ai.base_url":
		c.AI.BaseURL = val
	case "ai.ollama_host":
		c.AI.OllamaHost = val
	case "ai.models_catalog":
		c.AI.ModelsCatalog = val
	case "ai.max_tokens":
		c.AI.MaxTokens, err = parseInt(key, val)
	case "ai.temperature":
		c.AI.Temperature, err = parseFloat(key, val)
	case "ai.stream":
		c.AI.Stream, err = strconv.ParseBool(val)
	case "ai.http_timeout_sec":
		c.AI.HTTPTimeoutSec, err = parseInt(key, val)
	case "ai.retry_max_attempts":
		c.AI.RetryMaxAttempts, err = parseInt(key, val)
	case "sheets.credentials_file":
		c.Sheets.CredentialsFile = val
	case "sheets.range":
		c.Sheets.Range = val
	case "analysis.strong_correlation":
		c.Analysis.StrongCorrelation, err = parseFloat(key, val)
	case "analysis.max_correlations":
		c.Analysis.MaxCorrelations, err = parseInt(key, val)
	case "analysis.top_posts":
		c.Analysis.TopPosts, err = parseInt(key, val)
	case "analysis.cluster_weights.views":
		c.Analysis.ClusterWeights.Views, err = parseFloat(key, val)
	case "analysis.cluster_weights.reach":
		c.Analysis.ClusterWeights.Reach, err = parseFloat(key, val)
	case "analysis.cluster_weights.engagement":
		c.Analysis.ClusterWeights.Engagement, err = parseFloat(key, val)
	case "analysis.forecast.horizon":
		c.Analysis.Forecast.Horizon, err = parseInt(key, val)
	case "analysis.forecast.band_multiplier":
		c.Analysis.Forecast.BandMultiplier, err = parseFloat(key, val)
	case "analysis.forecast.trend_threshold":
		c.Analysis.Forecast.TrendThreshold, err = parseFloat(key, val)
	case "analysis.benchmarks.estimated_followers":
		c.Analysis.Benchmarks.EstimatedFollowers, err = parseFloat(key, val)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

func parseInt(key, val string) (int, error) {
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid int for %s: %q", key, val)
	}
	return i, nil
}

func parseFloat(key, val string) (float64, error) {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float for %s: %q", key, val)
	}
	return f, nil
}

// Location resolves Timezone; "" and "Local" mean the process zone.
func (c *Global) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ParseOptions builds row-parsing options from locale and timezone.
func (c *Global) ParseOptions() (analysis.ParseOptions, error) {
	loc, err := c.Location()
	if err != nil {
		return analysis.ParseOptions{}, err
	}
	return analysis.ParseOptions{Locale: analysis.LocaleByName(c.Locale), Location: loc}, nil
}

// DashboardOptions overlays the configured heuristics on the defaults.
func (c *Global) DashboardOptions() analysis.DashboardOptions {
	opt := analysis.DefaultDashboardOptions()
	opt.Locale = analysis.LocaleByName(c.Locale)
	a := c.Analysis
	if a.ClusterWeights != (analysis.ClusterWeights{}) {
		opt.ClusterWeights = a.ClusterWeights
	}
	if a.Forecast.Horizon > 0 {
		opt.Forecast = a.Forecast
	}
	if a.StrongCorrelation > 0 {
		opt.StrongCorrelation = a.StrongCorrelation
	}
	if a.MaxCorrelations > 0 {
		opt.MaxCorrelations = a.MaxCorrelations
	}
	if a.TopPosts > 0 {
		opt.TopPosts = a.TopPosts
	}
	if len(a.Lexicon.Positive)+len(a.Lexicon.Negative) > 0 {
		opt.Lexicon = a.Lexicon
	}
	if a.Benchmarks != (analysis.Benchmarks{}) {
		opt.Benchmarks = a.Benchmarks
	}
	return opt
}

// RuntimeConfig converts the AI block for ai.GetRuntime.
func (c *Global) RuntimeConfig(log *logger.Logger) ai.RuntimeConfig {
	return ai.RuntimeConfig{
		HTTPTimeout: time.Duration(c.AI.HTTPTimeoutSec) * time.Second,
		RetryMax:    c.AI.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.AI.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.AI.RetryMaxDelayMs) * time.Millisecond,
		APIKey:      c.AI.APIKey,
		BaseURL:     c.AI.BaseURL,
		Host:        c.AI.OllamaHost,
		Logger:      log,
	}
}
