package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/hfadhel/consolepull/internal/catalog"
	"github.com/hfadhel/consolepull/internal/retriever"
)

const (
	// environment variables consulted by WithEnvOverrides
	EnvAPIToken = "CONSOLE_API_TOKEN"
	EnvBaseURL  = "CONSOLE_BASE_URL"
)

type Config struct {
	//===============
	// Target
	//===============
	// Primary management console base URL, including scheme
	baseURL string
	// Alternate base URLs tried when the primary yields nothing
	fallbackBaseURLs []string
	// When true, only the primary base URL is ever contacted
	basePinned bool

	//===============
	// Auth
	//===============
	// Bearer credential sent on every request
	apiToken string
	// Authorization scheme prefix, e.g. "ApiToken"
	authScheme string

	//===============
	// Politeness
	//===============
	// Minimum enforced delay between two pages of the same dataset
	minPageDelay time.Duration
	// Baseline request rate in requests per second when no override applies
	defaultRate float64
	// Maximum attempts per page request
	maxAttempts int
	// Initial delay for retry backoff
	retryBaseDelay time.Duration
	// Multiplier for exponential backoff
	backoffMultiplier float64
	// Capped maximum backoff delay
	backoffMaxDuration time.Duration

	//===============
	// Fetch
	//===============
	// Maximum duration of a single page request
	timeout time.Duration
	// Hard ceiling on pages fetched per dataset
	pageCeiling int

	//===============
	// Selection
	//===============
	// Dataset names to collect; empty means the full catalog
	datasets []string
	// Replaces the built-in catalog when non-empty
	customDatasets []catalog.DatasetDescriptor

	//===============
	// Output
	//===============
	// Directory receiving the CSV artifacts
	outputDir string
	// Filename prefix: artifacts are written as <prefix>_<dataset>.csv
	filePrefix string
	// Fetch and report without writing any artifact
	dryRun bool

	//===============
	// Logging
	//===============
	logLevel string
	pretty   bool
}

type datasetDTO struct {
	Name           string            `json:"name"`
	PrimaryPath    string            `json:"primaryPath"`
	AlternatePaths []string          `json:"alternatePaths,omitempty"`
	Params         map[string]string `json:"params,omitempty"`
	Paginate       bool              `json:"paginate,omitempty"`
	RateLimit      float64           `json:"rateLimit,omitempty"`
}

type configDTO struct {
	BaseURL            string        `json:"baseUrl"`
	FallbackBaseURLs   []string      `json:"fallbackBaseUrls,omitempty"`
	BasePinned         bool          `json:"basePinned,omitempty"`
	APIToken           string        `json:"apiToken,omitempty"`
	AuthScheme         string        `json:"authScheme,omitempty"`
	MinPageDelay       time.Duration `json:"minPageDelay,omitempty"`
	DefaultRate        float64       `json:"defaultRate,omitempty"`
	MaxAttempts        int           `json:"maxAttempts,omitempty"`
	RetryBaseDelay     time.Duration `json:"retryBaseDelay,omitempty"`
	BackoffMultiplier  float64       `json:"backoffMultiplier,omitempty"`
	BackoffMaxDuration time.Duration `json:"backoffMaxDuration,omitempty"`
	Timeout            time.Duration `json:"timeout,omitempty"`
	PageCeiling        int           `json:"pageCeiling,omitempty"`
	Datasets           []string      `json:"datasets,omitempty"`
	CustomDatasets     []datasetDTO  `json:"customDatasets,omitempty"`
	OutputDir          string        `json:"outputDir,omitempty"`
	FilePrefix         string        `json:"filePrefix,omitempty"`
	DryRun             bool          `json:"dryRun,omitempty"`
	LogLevel           string        `json:"logLevel,omitempty"`
	Pretty             bool          `json:"pretty,omitempty"`
}

func newConfigFromDTO(dto configDTO) (*Config, error) {
	cfg := WithDefault(dto.BaseURL)

	// Only override when a non-zero value is provided
	if len(dto.FallbackBaseURLs) > 0 {
		cfg.fallbackBaseURLs = dto.FallbackBaseURLs
	}
	cfg.basePinned = dto.BasePinned
	if dto.APIToken != "" {
		cfg.apiToken = dto.APIToken
	}
	if dto.AuthScheme != "" {
		cfg.authScheme = dto.AuthScheme
	}
	if dto.MinPageDelay != 0 {
		cfg.minPageDelay = dto.MinPageDelay
	}
	if dto.DefaultRate != 0 {
		cfg.defaultRate = dto.DefaultRate
	}
	if dto.MaxAttempts != 0 {
		cfg.maxAttempts = dto.MaxAttempts
	}
	if dto.RetryBaseDelay != 0 {
		cfg.retryBaseDelay = dto.RetryBaseDelay
	}
	if dto.BackoffMultiplier != 0 {
		cfg.backoffMultiplier = dto.BackoffMultiplier
	}
	if dto.BackoffMaxDuration != 0 {
		cfg.backoffMaxDuration = dto.BackoffMaxDuration
	}
	if dto.Timeout != 0 {
		cfg.timeout = dto.Timeout
	}
	if dto.PageCeiling != 0 {
		cfg.pageCeiling = dto.PageCeiling
	}
	if len(dto.Datasets) > 0 {
		cfg.datasets = dto.Datasets
	}
	for _, d := range dto.CustomDatasets {
		cfg.customDatasets = append(cfg.customDatasets, catalog.NewDatasetDescriptor(
			d.Name,
			d.PrimaryPath,
			d.AlternatePaths,
			d.Params,
			d.Paginate,
			d.RateLimit,
		))
	}
	if dto.OutputDir != "" {
		cfg.outputDir = dto.OutputDir
	}
	if dto.FilePrefix != "" {
		cfg.filePrefix = dto.FilePrefix
	}
	cfg.dryRun = dto.DryRun
	if dto.LogLevel != "" {
		cfg.logLevel = dto.LogLevel
	}
	cfg.pretty = dto.Pretty

	return cfg, nil
}

func WithConfigFile(path string) (*Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	err = json.Unmarshal(configContent, &cfgDTO)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO)
}

// WithDefault creates a new Config with the provided base URL and default
// values for all other fields.
func WithDefault(baseURL string) *Config {
	defaultConfig := Config{
		baseURL:            baseURL,
		fallbackBaseURLs:   nil,
		basePinned:         false,
		apiToken:           "",
		authScheme:         "ApiToken",
		minPageDelay:       time.Second,
		defaultRate:        1.0,
		maxAttempts:        retriever.DefaultMaxAttempts,
		retryBaseDelay:     retriever.DefaultBaseRetryDelay,
		backoffMultiplier:  retriever.DefaultBackoffFactor,
		backoffMaxDuration: retriever.DefaultMaxRetryDelay,
		timeout:            time.Second * 30,
		pageCeiling:        retriever.DefaultPageCeiling,
		outputDir:          "output",
		filePrefix:         "console",
		dryRun:             false,
		logLevel:           "info",
		pretty:             false,
	}
	return &defaultConfig
}

// WithEnvOverrides applies credential and target overrides from the process
// environment. Environment values win over file and default values but lose
// to explicit With* calls made afterwards.
func (c *Config) WithEnvOverrides() *Config {
	if token := os.Getenv(EnvAPIToken); token != "" {
		c.apiToken = token
	}
	if base := os.Getenv(EnvBaseURL); base != "" {
		c.baseURL = base
	}
	return c
}

func (c *Config) WithBaseURL(baseURL string) *Config {
	c.baseURL = baseURL
	return c
}

func (c *Config) WithFallbackBaseURLs(urls []string) *Config {
	c.fallbackBaseURLs = urls
	return c
}

func (c *Config) WithBasePinned(pinned bool) *Config {
	c.basePinned = pinned
	return c
}

func (c *Config) WithAPIToken(token string) *Config {
	c.apiToken = token
	return c
}

func (c *Config) WithAuthScheme(scheme string) *Config {
	c.authScheme = scheme
	return c
}

func (c *Config) WithMinPageDelay(delay time.Duration) *Config {
	c.minPageDelay = delay
	return c
}

func (c *Config) WithDefaultRate(rate float64) *Config {
	c.defaultRate = rate
	return c
}

func (c *Config) WithMaxAttempts(attempts int) *Config {
	c.maxAttempts = attempts
	return c
}

func (c *Config) WithRetryBaseDelay(delay time.Duration) *Config {
	c.retryBaseDelay = delay
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithPageCeiling(ceiling int) *Config {
	c.pageCeiling = ceiling
	return c
}

func (c *Config) WithDatasets(names []string) *Config {
	c.datasets = names
	return c
}

func (c *Config) WithCustomDatasets(descriptors []catalog.DatasetDescriptor) *Config {
	c.customDatasets = descriptors
	return c
}

func (c *Config) WithOutputDir(outputDir string) *Config {
	c.outputDir = outputDir
	return c
}

func (c *Config) WithFilePrefix(prefix string) *Config {
	c.filePrefix = prefix
	return c
}

func (c *Config) WithDryRun(dryRun bool) *Config {
	c.dryRun = dryRun
	return c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.logLevel = level
	return c
}

func (c *Config) WithPretty(pretty bool) *Config {
	c.pretty = pretty
	return c
}

func (c *Config) Build() (Config, error) {
	if c.baseURL == "" {
		return Config{}, fmt.Errorf("%w: baseUrl cannot be empty", ErrInvalidConfig)
	}
	parsed, err := url.Parse(c.baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Config{}, fmt.Errorf("%w: baseUrl %q is not an absolute URL", ErrInvalidConfig, c.baseURL)
	}
	if c.apiToken == "" {
		return Config{}, fmt.Errorf("%w: apiToken cannot be empty", ErrInvalidConfig)
	}
	if c.maxAttempts < 1 {
		return Config{}, fmt.Errorf("%w: maxAttempts must be at least 1", ErrInvalidConfig)
	}
	if c.pageCeiling < 1 {
		return Config{}, fmt.Errorf("%w: pageCeiling must be at least 1", ErrInvalidConfig)
	}
	if c.defaultRate <= 0 {
		return Config{}, fmt.Errorf("%w: defaultRate must be positive", ErrInvalidConfig)
	}
	for _, d := range c.customDatasets {
		if err := d.Validate(); err != nil {
			return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
		}
	}

	return *c, nil
}

func (c Config) BaseURL() string {
	return c.baseURL
}

func (c Config) FallbackBaseURLs() []string {
	urls := make([]string, len(c.fallbackBaseURLs))
	copy(urls, c.fallbackBaseURLs)
	return urls
}

func (c Config) BasePinned() bool {
	return c.basePinned
}

func (c Config) APIToken() string {
	return c.apiToken
}

func (c Config) AuthScheme() string {
	return c.authScheme
}

func (c Config) MinPageDelay() time.Duration {
	return c.minPageDelay
}

func (c Config) DefaultRate() float64 {
	return c.defaultRate
}

func (c Config) MaxAttempts() int {
	return c.maxAttempts
}

func (c Config) RetryBaseDelay() time.Duration {
	return c.retryBaseDelay
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) PageCeiling() int {
	return c.pageCeiling
}

func (c Config) Datasets() []string {
	names := make([]string, len(c.datasets))
	copy(names, c.datasets)
	return names
}

// Catalog returns the dataset descriptors this run collects from: the
// custom descriptors when configured, the built-in catalog otherwise.
func (c Config) Catalog() []catalog.DatasetDescriptor {
	if len(c.customDatasets) > 0 {
		descriptors := make([]catalog.DatasetDescriptor, len(c.customDatasets))
		copy(descriptors, c.customDatasets)
		return descriptors
	}
	return catalog.Default()
}

func (c Config) OutputDir() string {
	return c.outputDir
}

func (c Config) FilePrefix() string {
	return c.filePrefix
}

func (c Config) DryRun() bool {
	return c.dryRun
}

func (c Config) LogLevel() string {
	return c.logLevel
}

func (c Config) Pretty() bool {
	return c.pretty
}
