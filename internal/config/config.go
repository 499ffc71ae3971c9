package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config carries every recognized configuration key, plus a golf-specific
// block for per-run defaults. Unexported fields, public getters, a configDTO
// for JSON (de)serialization, and a functional WithXxx builder chain
// terminated by Build().
type Config struct {
	//===============
	// Identity / politeness
	//===============
	userAgent string

	//===============
	// Robots policy cache
	//===============
	robotsDefaultCrawlDelay time.Duration
	robotsErrorDelay        time.Duration
	robotsCacheTTL          time.Duration

	//===============
	// Fetch
	//===============
	staticFetchTimeout    time.Duration
	dynamicPageTimeout    time.Duration
	stealthTLS            bool
	browserExecutablePath string

	//===============
	// Retry
	//===============
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	retryFactor      float64

	//===============
	// Circuit breaker
	//===============
	breakerThreshold    int
	breakerResetTimeout time.Duration

	//===============
	// Golf run defaults
	//===============
	defaultPriority string
	mediaDir        string
	dryRun          bool
}

type configDTO struct {
	UserAgent               string        `json:"userAgent,omitempty"`
	RobotsDefaultCrawlDelay time.Duration `json:"robotsDefaultCrawlDelay,omitempty"`
	RobotsErrorDelay        time.Duration `json:"robotsErrorDelay,omitempty"`
	RobotsCacheTTL          time.Duration `json:"robotsCacheTtl,omitempty"`
	StaticFetchTimeout      time.Duration `json:"staticFetchTimeout,omitempty"`
	DynamicPageTimeout      time.Duration `json:"dynamicPageTimeout,omitempty"`
	StealthTLS              bool          `json:"stealthTls,omitempty"`
	BrowserExecutablePath   string        `json:"browserExecutablePath,omitempty"`
	RetryMaxAttempts        int           `json:"retryMaxAttempts,omitempty"`
	RetryBaseDelay          time.Duration `json:"retryBaseDelay,omitempty"`
	RetryMaxDelay           time.Duration `json:"retryMaxDelay,omitempty"`
	RetryFactor             float64       `json:"retryFactor,omitempty"`
	BreakerThreshold        int           `json:"breakerThreshold,omitempty"`
	BreakerResetTimeout     time.Duration `json:"breakerResetTimeout,omitempty"`
	DefaultPriority         string        `json:"defaultPriority,omitempty"`
	MediaDir                string        `json:"mediaDir,omitempty"`
	DryRun                  bool          `json:"dryRun,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	cfg := WithDefault()

	if dto.UserAgent != "" {
		cfg = cfg.WithUserAgent(dto.UserAgent)
	}
	if dto.RobotsDefaultCrawlDelay != 0 {
		cfg = cfg.WithRobotsDefaultCrawlDelay(dto.RobotsDefaultCrawlDelay)
	}
	if dto.RobotsErrorDelay != 0 {
		cfg = cfg.WithRobotsErrorDelay(dto.RobotsErrorDelay)
	}
	if dto.RobotsCacheTTL != 0 {
		cfg = cfg.WithRobotsCacheTTL(dto.RobotsCacheTTL)
	}
	if dto.StaticFetchTimeout != 0 {
		cfg = cfg.WithStaticFetchTimeout(dto.StaticFetchTimeout)
	}
	if dto.DynamicPageTimeout != 0 {
		cfg = cfg.WithDynamicPageTimeout(dto.DynamicPageTimeout)
	}
	cfg = cfg.WithStealthTLS(dto.StealthTLS)
	if dto.BrowserExecutablePath != "" {
		cfg = cfg.WithBrowserExecutablePath(dto.BrowserExecutablePath)
	}
	if dto.RetryMaxAttempts != 0 {
		cfg = cfg.WithRetryMaxAttempts(dto.RetryMaxAttempts)
	}
	if dto.RetryBaseDelay != 0 {
		cfg = cfg.WithRetryBaseDelay(dto.RetryBaseDelay)
	}
	if dto.RetryMaxDelay != 0 {
		cfg = cfg.WithRetryMaxDelay(dto.RetryMaxDelay)
	}
	if dto.RetryFactor != 0 {
		cfg = cfg.WithRetryFactor(dto.RetryFactor)
	}
	if dto.BreakerThreshold != 0 {
		cfg = cfg.WithBreakerThreshold(dto.BreakerThreshold)
	}
	if dto.BreakerResetTimeout != 0 {
		cfg = cfg.WithBreakerResetTimeout(dto.BreakerResetTimeout)
	}
	if dto.DefaultPriority != "" {
		cfg = cfg.WithDefaultPriority(dto.DefaultPriority)
	}
	if dto.MediaDir != "" {
		cfg = cfg.WithMediaDir(dto.MediaDir)
	}
	cfg = cfg.WithDryRun(dto.DryRun)

	return cfg, nil
}

// WithConfigFile reads Config from a JSON file, layered over WithDefault()
// for any key the file omits.
func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	if err := json.Unmarshal(configContent, &cfgDTO); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO)
}

// WithDefault returns the module's spec defaults.
func WithDefault() Config {
	return Config{
		userAgent:               "golfscrape/1.0 (+https://example.invalid/bot)",
		robotsDefaultCrawlDelay: 2000 * time.Millisecond,
		robotsErrorDelay:        4000 * time.Millisecond,
		robotsCacheTTL:          24 * time.Hour,
		staticFetchTimeout:      10 * time.Second,
		dynamicPageTimeout:      30 * time.Second,
		stealthTLS:              false,
		browserExecutablePath:   "",
		retryMaxAttempts:        3,
		retryBaseDelay:          1000 * time.Millisecond,
		retryMaxDelay:           10 * time.Second,
		retryFactor:             2.0,
		breakerThreshold:        5,
		breakerResetTimeout:     60 * time.Second,
		defaultPriority:         "medium",
		mediaDir:                "media",
		dryRun:                  false,
	}
}

func (c Config) WithUserAgent(agent string) Config {
	c.userAgent = agent
	return c
}

func (c Config) WithRobotsDefaultCrawlDelay(d time.Duration) Config {
	c.robotsDefaultCrawlDelay = d
	return c
}

func (c Config) WithRobotsErrorDelay(d time.Duration) Config {
	c.robotsErrorDelay = d
	return c
}

func (c Config) WithRobotsCacheTTL(d time.Duration) Config {
	c.robotsCacheTTL = d
	return c
}

func (c Config) WithStaticFetchTimeout(d time.Duration) Config {
	c.staticFetchTimeout = d
	return c
}

func (c Config) WithDynamicPageTimeout(d time.Duration) Config {
	c.dynamicPageTimeout = d
	return c
}

func (c Config) WithStealthTLS(enabled bool) Config {
	c.stealthTLS = enabled
	return c
}

func (c Config) WithBrowserExecutablePath(path string) Config {
	c.browserExecutablePath = path
	return c
}

func (c Config) WithRetryMaxAttempts(attempts int) Config {
	c.retryMaxAttempts = attempts
	return c
}

func (c Config) WithRetryBaseDelay(d time.Duration) Config {
	c.retryBaseDelay = d
	return c
}

func (c Config) WithRetryMaxDelay(d time.Duration) Config {
	c.retryMaxDelay = d
	return c
}

func (c Config) WithRetryFactor(factor float64) Config {
	c.retryFactor = factor
	return c
}

func (c Config) WithBreakerThreshold(threshold int) Config {
	c.breakerThreshold = threshold
	return c
}

func (c Config) WithBreakerResetTimeout(d time.Duration) Config {
	c.breakerResetTimeout = d
	return c
}

func (c Config) WithDefaultPriority(priority string) Config {
	c.defaultPriority = priority
	return c
}

func (c Config) WithMediaDir(dir string) Config {
	c.mediaDir = dir
	return c
}

func (c Config) WithDryRun(dryRun bool) Config {
	c.dryRun = dryRun
	return c
}

// Build validates and returns the finished Config.
func (c Config) Build() (Config, error) {
	if c.retryMaxAttempts < 1 {
		return c, fmt.Errorf("%w: retryMaxAttempts must be at least 1, got %d", ErrInvalidConfig, c.retryMaxAttempts)
	}
	if c.breakerThreshold < 1 {
		return c, fmt.Errorf("%w: breakerThreshold must be at least 1, got %d", ErrInvalidConfig, c.breakerThreshold)
	}
	if c.retryFactor <= 1.0 {
		return c, fmt.Errorf("%w: retryFactor must be greater than 1.0, got %f", ErrInvalidConfig, c.retryFactor)
	}
	return c, nil
}

func (c Config) UserAgent() string                    { return c.userAgent }
func (c Config) RobotsDefaultCrawlDelay() time.Duration { return c.robotsDefaultCrawlDelay }
func (c Config) RobotsErrorDelay() time.Duration       { return c.robotsErrorDelay }
func (c Config) RobotsCacheTTL() time.Duration         { return c.robotsCacheTTL }
func (c Config) StaticFetchTimeout() time.Duration     { return c.staticFetchTimeout }
func (c Config) DynamicPageTimeout() time.Duration     { return c.dynamicPageTimeout }
func (c Config) StealthTLS() bool                      { return c.stealthTLS }
func (c Config) BrowserExecutablePath() string         { return c.browserExecutablePath }
func (c Config) RetryMaxAttempts() int                 { return c.retryMaxAttempts }
func (c Config) RetryBaseDelay() time.Duration         { return c.retryBaseDelay }
func (c Config) RetryMaxDelay() time.Duration          { return c.retryMaxDelay }
func (c Config) RetryFactor() float64                  { return c.retryFactor }
func (c Config) BreakerThreshold() int                 { return c.breakerThreshold }
func (c Config) BreakerResetTimeout() time.Duration    { return c.breakerResetTimeout }
func (c Config) DefaultPriority() string               { return c.defaultPriority }
func (c Config) MediaDir() string                      { return c.mediaDir }
func (c Config) DryRun() bool                          { return c.dryRun }
