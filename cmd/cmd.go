// Package cmd defines the command-line interface for recap.
package cmd

import (
	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	flags := rootCmd.PersistentFlags()
	flags.String("gitlab-url", contract.DefaultGitLabURL, "GitLab instance URL")
	flags.String("gitlab-token", "", "GitLab personal access token (prefer GITLAB_TOKEN)")
	flags.String("group-id", "", "Only keep activity in projects of this group and its subgroups")
	flags.String("start", "", "Start date in ISO8601, YYYY-MM-DD or time ago (default 30 days ago)")
	flags.String("end", "", "End date in ISO8601, YYYY-MM-DD or time ago (default now)")
	flags.IntP("limit", "l", contract.DefaultResultLimit, "Keep only the top N records (0 keeps all)")
	flags.Int("workers", contract.DefaultWorkers, "Number of concurrent merge request fetches")
	flags.String("enrich-timeout", contract.DefaultEnrichTimeout, "Timeout of a single merge request fetch")
	flags.Bool("clamp-weights", false, "Clamp weights of events older than a day to 1")
	flags.Bool("strict-timestamps", false, "Fail the run on an unparseable event timestamp")
	flags.String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	flags.String("output-file", "", "Optional path to write output to")
	flags.Int("precision", contract.DefaultPrecision, "Decimal precision for weights")
	flags.Int("width", 0, "Terminal width override (0 = auto-detect)")
	flags.String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	flags.String("log-level", contract.DefaultLogLevel, "Log level: debug or info or warn or error")
	flags.String("log-format", contract.DefaultLogFormat, "Log format: text or json")
	flags.String("cache-backend", string(schema.SQLiteBackend), "Event cache backend: sqlite or mysql or postgresql or none")
	flags.String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	flags.String("cache-ttl", contract.DefaultCacheTTL, "How long a cached event feed stays fresh")
	flags.String("history-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	flags.String("history-db-connect", "", "Database connection string for run history (must differ from cache-db-connect)")
	flags.String("metrics-file", "", "Write Prometheus metrics to this textfile on exit")
	flags.String("profile", "", "Enable profiling and write profiles to files with this prefix")
	flags.String("config", "", "Path to config file")

	// Text generation flags are read by summary and by the mcp tools
	flags.String("llm-provider", string(schema.OpenAIProvider), "Text generation provider: openai or anthropic")
	flags.String("llm-model", "", "Model name (defaults per provider)")
	flags.String("llm-api-key", "", "API key of the provider (prefer OPENAI_API_KEY or ANTHROPIC_API_KEY)")
	flags.String("llm-base-url", "", "Override the provider base URL")
	flags.Float64("temperature", contract.DefaultTemperature, "Sampling temperature")
	flags.Int("max-tokens", contract.DefaultMaxTokens, "Maximum tokens of the generated summary")
	if err := viper.BindPFlags(flags); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
