package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/planproof/planproof/internal/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "planproof",
	Short: "Planproof - accessibility pre-check for Revit-exported PDF sheets",
	Long: `Planproof reviews exported architectural PDF sheets against an
accessibility ruleset (FHA, ANSI A117.1 Type A or Type B) using LLM
inference, and produces validated, deduplicated findings.

It is a pre-check, not a code compliance determination: every finding
still needs verification by a qualified reviewer.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("planproof v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.planproof/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".planproof"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match PLANPROOF_*
	viper.SetEnvPrefix("PLANPROOF")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig layers the config file over the defaults and resolves
// environment-provided secrets.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	if v := viper.GetString("llm.provider"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := viper.GetString("llm.model"); v != "" {
		cfg.LLM.Model = v
	}
	if v := viper.GetString("llm.base_url"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := viper.GetInt("llm.timeout"); v > 0 {
		cfg.LLM.Timeout = v
	}
	if v := viper.GetInt("llm.max_tokens"); v > 0 {
		cfg.LLM.MaxTokens = v
	}
	if v := viper.GetInt("llm.schema_retries"); v > 0 {
		cfg.LLM.SchemaRetries = v
	}
	if v := viper.GetInt("llm.request_retries"); v > 0 {
		cfg.LLM.RequestRetries = v
	}
	if v := viper.GetFloat64("llm.rate_per_second"); v > 0 {
		cfg.LLM.RatePerSecond = v
	}
	if v := viper.GetInt("llm.rate_burst"); v > 0 {
		cfg.LLM.RateBurst = v
	}
	if v := viper.GetInt("concurrency.extract_workers"); v > 0 {
		cfg.Concurrency.ExtractWorkers = v
	}
	if viper.IsSet("cache.enabled") {
		cfg.Cache.Enabled = viper.GetBool("cache.enabled")
	}
	if v := viper.GetDuration("cache.ttl"); v > 0 {
		cfg.Cache.TTL = v
	}
	if v := viper.GetString("cache.dir"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := viper.GetString("render.work_dir"); v != "" {
		cfg.Render.WorkDir = v
	}
	if v := viper.GetString("render.text_dir"); v != "" {
		cfg.Render.TextDir = v
	}
	if v := viper.GetString("history.path"); v != "" {
		cfg.History.Path = v
	}
	if viper.IsSet("output.include_footer") {
		cfg.Output.IncludeFooter = viper.GetBool("output.include_footer")
	}
	cfg.Output.Verbose = verbose

	// API keys come from the environment, never the config file.
	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	case "ollama":
		if base := os.Getenv("OLLAMA_BASE_URL"); base != "" {
			cfg.LLM.BaseURL = base
		}
	}

	cfg.LLM.HTTPProxy = os.Getenv("HTTP_PROXY")
	cfg.LLM.HTTPSProxy = os.Getenv("HTTPS_PROXY")
	cfg.LLM.NoProxy = os.Getenv("NO_PROXY")

	return cfg
}

// historyPath resolves the review history database location.
func historyPath(cfg *model.Config) (string, error) {
	if cfg.History.Path != "" {
		return cfg.History.Path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".planproof", "reviews.db"), nil
}

// defaultCacheDir resolves the disk cache location when caching is enabled
// but no directory is configured.
func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".planproof", "cache")
}

// sessionTimeout bounds a whole review run: per-page ceiling across all
// pages, with headroom for rendering and aggregation.
func sessionTimeout(cfg *model.Config, pages int) time.Duration {
	perPage := time.Duration(cfg.LLM.Timeout) * time.Second
	if perPage <= 0 {
		perPage = 90 * time.Second
	}
	return perPage*time.Duration(pages) + 2*time.Minute
}
