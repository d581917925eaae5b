package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hfadhel/consolepull/internal/build"
	"github.com/hfadhel/consolepull/internal/catalog"
	"github.com/hfadhel/consolepull/internal/collector"
	"github.com/hfadhel/consolepull/internal/config"
	"github.com/hfadhel/consolepull/internal/fetcher"
	"github.com/hfadhel/consolepull/internal/metadata"
	"github.com/hfadhel/consolepull/internal/normalize"
	"github.com/hfadhel/consolepull/internal/retriever"
	"github.com/hfadhel/consolepull/internal/storage"
	"github.com/hfadhel/consolepull/internal/transport"
	"github.com/hfadhel/consolepull/pkg/hashutil"
	"github.com/hfadhel/consolepull/pkg/limiter"
	"github.com/hfadhel/consolepull/pkg/retry"
	"github.com/hfadhel/consolepull/pkg/timeutil"
)

var (
	cfgFile          string
	baseURL          string
	fallbackBaseURLs []string
	basePinned       bool
	apiToken         string
	outputDir        string
	filePrefix       string
	datasets         []string
	timeout          time.Duration
	minPageDelay     time.Duration
	logLevel         string
	pretty           bool
	dryRun           bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "consolepull",
	Short:   "Pull management console datasets into CSV files.",
	Version: build.FullVersion(),
	Long: `consolepull collects inventory and detection datasets from a management
console API and materializes each one as a CSV file.

Datasets are collected strictly sequentially. Endpoint paths that moved
between console versions are resolved by walking alternate paths and
fallback base URLs; transient faults are retried with exponential backoff.
One dataset's failure never blocks the remaining datasets.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfig()
		if err != nil {
			return err
		}

		descriptors, err := catalog.Select(cfg.Catalog(), cfg.Datasets())
		if err != nil {
			return err
		}
		if len(descriptors) == 0 {
			return fmt.Errorf("no datasets selected")
		}

		result, err := executeRun(cmd, cfg, descriptors)
		if err != nil {
			return err
		}

		printRunSummary(cmd, result)
		return nil
	},
	SilenceUsage: true,
}

func executeRun(
	cmd *cobra.Command,
	cfg config.Config,
	descriptors []catalog.DatasetDescriptor,
) (collector.RunResult, error) {
	logger := metadata.SetupLogger(cfg.LogLevel(), cfg.Pretty(), os.Stderr)
	recorder := metadata.NewRecorder(logger)

	client := transport.NewHTTPClient(&recorder, cfg.AuthScheme(), cfg.APIToken(), cfg.Timeout())

	governor := limiter.NewConcurrentRateGovernor()
	governor.SetDefaultRate(cfg.DefaultRate())
	governor.SetMinimumDelay(cfg.MinPageDelay())
	governor.SetRateTable(catalog.DefaultRateTable())

	retryParam := retry.NewRetryParam(
		0,
		time.Now().UnixNano(),
		cfg.MaxAttempts(),
		timeutil.NewBackoffParam(
			cfg.RetryBaseDelay(),
			cfg.BackoffMultiplier(),
			cfg.BackoffMaxDuration(),
		),
	)
	pageRetriever := retriever.NewPageRetriever(&client, governor, &recorder, retryParam, cfg.PageCeiling())

	orchestrator := fetcher.NewOrchestrator(
		pageRetriever,
		governor,
		&recorder,
		cfg.BaseURL(),
		cfg.FallbackBaseURLs(),
		cfg.BasePinned(),
	)

	normalizer := normalize.NewSchemaNormalizer(&recorder)
	storageSink := storage.NewLocalSink(&recorder)

	runCollector := collector.NewCollector(
		&recorder,
		&recorder,
		&orchestrator,
		normalizer,
		&storageSink,
		cfg.OutputDir(),
		cfg.FilePrefix(),
		hashutil.HashAlgoBLAKE3,
		cfg.DryRun(),
	)

	return runCollector.ExecuteRun(cmd.Context(), descriptors)
}

func printRunSummary(cmd *cobra.Command, result collector.RunResult) {
	out := cmd.OutOrStdout()
	for _, outcome := range result.Outcomes() {
		mark := "❌"
		if outcome.Success() {
			mark = "✅"
		}
		line := fmt.Sprintf("%s %s: %d records", mark, outcome.Dataset(), outcome.Records())
		if outcome.Provenance() != "" && outcome.Provenance() != "none" {
			line += fmt.Sprintf(" (%s)", outcome.Provenance())
		}
		if outcome.Truncated() {
			line += " [truncated]"
		}
		if outcome.ArtifactPath() != "" {
			line += " -> " + outcome.ArtifactPath()
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "%d of %d datasets succeeded\n", result.Succeeded(), len(result.Outcomes()))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "management console base URL (or CONSOLE_BASE_URL)")
	rootCmd.PersistentFlags().StringArrayVar(&fallbackBaseURLs, "fallback-base-url", []string{}, "alternate base URL tried when the primary yields nothing (can be repeated)")
	rootCmd.PersistentFlags().BoolVar(&basePinned, "base-pinned", false, "only contact the primary base URL")
	rootCmd.PersistentFlags().StringVar(&apiToken, "api-token", "", "API credential (or CONSOLE_API_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "directory receiving the CSV artifacts")
	rootCmd.PersistentFlags().StringVar(&filePrefix, "file-prefix", "", "artifact filename prefix")
	rootCmd.PersistentFlags().StringArrayVar(&datasets, "dataset", []string{}, "dataset to collect (can be repeated, default all)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "timeout for a single page request")
	rootCmd.PersistentFlags().DurationVar(&minPageDelay, "min-page-delay", 0, "minimum delay between two pages of the same dataset")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "human-readable log output")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "fetch and report without writing artifacts")
}

// InitConfig assembles the effective configuration: config file values first
// when provided, then environment overrides, then explicit flag overrides.
func InitConfig() (config.Config, error) {
	var configBuilder *config.Config

	if cfgFile != "" {
		fileBuilder, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("error initializing config from file: %w", err)
		}
		configBuilder = fileBuilder
	} else {
		configBuilder = config.WithDefault(baseURL)
	}

	configBuilder = configBuilder.WithEnvOverrides()

	if baseURL != "" {
		configBuilder = configBuilder.WithBaseURL(baseURL)
	}
	if len(fallbackBaseURLs) > 0 {
		configBuilder = configBuilder.WithFallbackBaseURLs(fallbackBaseURLs)
	}
	if basePinned {
		configBuilder = configBuilder.WithBasePinned(basePinned)
	}
	if apiToken != "" {
		configBuilder = configBuilder.WithAPIToken(apiToken)
	}
	if outputDir != "" {
		configBuilder = configBuilder.WithOutputDir(outputDir)
	}
	if filePrefix != "" {
		configBuilder = configBuilder.WithFilePrefix(filePrefix)
	}
	if len(datasets) > 0 {
		configBuilder = configBuilder.WithDatasets(datasets)
	}
	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}
	if minPageDelay > 0 {
		configBuilder = configBuilder.WithMinPageDelay(minPageDelay)
	}
	if logLevel != "" {
		configBuilder = configBuilder.WithLogLevel(logLevel)
	}
	if pretty {
		configBuilder = configBuilder.WithPretty(pretty)
	}
	if dryRun {
		configBuilder = configBuilder.WithDryRun(dryRun)
	}

	return configBuilder.Build()
}

func ResetFlags() {
	cfgFile = ""
	baseURL = ""
	fallbackBaseURLs = []string{}
	basePinned = false
	apiToken = ""
	outputDir = ""
	filePrefix = ""
	datasets = []string{}
	timeout = 0
	minPageDelay = 0
	logLevel = ""
	pretty = false
	dryRun = false
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetBaseURLForTest(url string) {
	baseURL = url
}

func SetAPITokenForTest(token string) {
	apiToken = token
}

func SetOutputDirForTest(dir string) {
	outputDir = dir
}

func SetDatasetsForTest(names []string) {
	datasets = names
}

func SetDryRunForTest(dry bool) {
	dryRun = dry
}
