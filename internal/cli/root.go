package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rohmanhakim/docs-crawler/internal/browserpool"
	"github.com/rohmanhakim/docs-crawler/internal/build"
	"github.com/rohmanhakim/docs-crawler/internal/config"
	"github.com/rohmanhakim/docs-crawler/internal/dynamicfetcher"
	"github.com/rohmanhakim/docs-crawler/internal/fetcher"
	"github.com/rohmanhakim/docs-crawler/internal/metadata"
	"github.com/rohmanhakim/docs-crawler/internal/model"
	"github.com/rohmanhakim/docs-crawler/internal/requestmanager"
	"github.com/rohmanhakim/docs-crawler/internal/robots"
	"github.com/rohmanhakim/docs-crawler/internal/robots/cache"
	"github.com/rohmanhakim/docs-crawler/internal/storage"
	"github.com/rohmanhakim/docs-crawler/pkg/circuitbreaker"
	"github.com/rohmanhakim/docs-crawler/pkg/limiter"
)

var (
	cfgFile         string
	targetURL       string
	targetName      string
	priority        string
	sourceType      string
	javascript      bool
	waitForSelector string
	waitTimeMs      int
	screenshots     bool
	timeoutMs       int
	quiet           bool
	showVersion     bool
)

// rootCmd is golfscrape's single entry point: fetch one target politely,
// through the static or dynamic path, and print the resulting
// model.ProcessingResult as JSON.
var rootCmd = &cobra.Command{
	Use:   "golfscrape",
	Short: "A polite, concurrent scraper for golf course data.",
	Long: `golfscrape fetches a single golf course page, respecting robots.txt,
rate limits and circuit breakers, and renders the result as a
model.ProcessingResult. It can fetch statically (HTTP + HTML parsing) or
dynamically (a pooled headless browser) depending on the target.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Fprintln(os.Stdout, build.FullVersion())
			return nil
		}
		if targetURL == "" {
			return fmt.Errorf("--url is required")
		}

		cfg, err := initConfigWithError()
		if err != nil {
			return err
		}

		parsed, err := url.Parse(targetURL)
		if err != nil {
			return fmt.Errorf("parsing --url: %w", err)
		}

		p := model.ParsePriority(priority)
		if sourceType == "" {
			sourceType = "course-page"
		}
		if targetName == "" {
			targetName = parsed.String()
		}

		target := model.NewScrapingTarget(parsed.String(), targetName, *parsed, p, sourceType)

		opts := model.DefaultScrapingOptions()
		if javascript {
			opts = model.NewScrapingOptions(timeoutMs, cfg.UserAgent(), true, waitForSelector, waitTimeMs, screenshots, model.DefaultViewport())
		} else if timeoutMs > 0 {
			opts = model.NewScrapingOptions(timeoutMs, cfg.UserAgent(), false, "", 0, false, model.DefaultViewport())
		}

		manager, cleanup, err := buildManager(cfg, quiet)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.StaticFetchTimeout()+cfg.DynamicPageTimeout()+30*time.Second)
		defer cancel()

		result := manager.AddRequest(ctx, target, opts)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

// buildManager wires every collaborator a request manager needs into a single
// requestmanager.Manager: the robots cache, rate limiter, circuit breaker,
// the static and dynamic fetchers sharing one metadata sink, and the
// browser pool and screenshot sink backing the dynamic path.
func buildManager(cfg config.Config, quiet bool) (*requestmanager.Manager, func(), error) {
	logLevel := zerolog.InfoLevel
	if quiet {
		logLevel = zerolog.Disabled
	}
	logger := zerolog.New(os.Stderr).Level(logLevel).With().Timestamp().Logger()
	sink := metadata.NewRecorder(logger)

	robotsCache := cache.NewMemoryCacheWithTTL(cfg.RobotsCacheTTL())
	robotsGate := robots.NewCachedRobot(sink)
	robotsGate.InitWithCache(cfg.UserAgent(), robotsCache)

	rateLimiter := limiter.NewConcurrentRateLimiter()

	breakerParams := circuitbreaker.NewParams(cfg.BreakerThreshold(), cfg.BreakerResetTimeout())
	breaker := circuitbreaker.NewConcurrentBreaker(breakerParams)

	var staticFetcher requestmanager.Fetcher
	if cfg.StealthTLS() {
		staticFetcher = fetcher.NewHtmlFetcherWithStealthTLS(sink)
	} else {
		staticFetcher = fetcher.NewHtmlFetcher(sink)
	}

	pool := browserpool.NewPoolWithExecutable(cfg.UserAgent(), cfg.BrowserExecutablePath(), sink)
	mediaSink := storage.NewLocalSink(sink, cfg.MediaDir())
	dynamicFetcherValue := dynamicfetcher.NewDynamicFetcher(pool, sink, &mediaSink)
	dynamicFetcher := &dynamicFetcherValue

	params := requestmanager.NewParams()
	params.DefaultCrawlDelay = cfg.RobotsDefaultCrawlDelay()
	params.RobotsErrorDelay = cfg.RobotsErrorDelay()
	params.RetryBaseDelay = cfg.RetryBaseDelay()
	params.RetryFactor = cfg.RetryFactor()
	params.RetryMaxDelay = cfg.RetryMaxDelay()
	params.RetryMaxAttempts = cfg.RetryMaxAttempts()
	params.BreakerParams = breakerParams

	manager := requestmanager.NewManager(params, robotsGate, rateLimiter, breaker, staticFetcher, dynamicFetcher, sink)

	cleanup := func() {
		manager.Cleanup()
		robotsCache.Close()
	}
	return manager, cleanup, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.Flags().StringVar(&targetURL, "url", "", "target URL to fetch (required)")
	rootCmd.Flags().StringVar(&targetName, "name", "", "human-readable name for the target (defaults to the URL)")
	rootCmd.Flags().StringVar(&priority, "priority", "", "low|medium|high|critical (defaults to the golf.defaultPriority config key)")
	rootCmd.Flags().StringVar(&sourceType, "source-type", "course-page", "source type label attached to the target")
	rootCmd.Flags().BoolVar(&javascript, "javascript", false, "fetch through the headless-browser pool instead of static HTTP")
	rootCmd.Flags().StringVar(&waitForSelector, "wait-for-selector", "", "CSS selector to await before extracting (dynamic fetch only)")
	rootCmd.Flags().IntVar(&waitTimeMs, "wait-time-ms", 0, "extra wait after the selector resolves, in milliseconds")
	rootCmd.Flags().BoolVar(&screenshots, "screenshots", false, "capture a full-page screenshot (dynamic fetch only)")
	rootCmd.Flags().IntVar(&timeoutMs, "timeout-ms", 0, "per-request timeout override, in milliseconds")
	rootCmd.Flags().BoolVar(&quiet, "quiet", false, "suppress structured logging, print only the result")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print the version and exit")
}

// initConfigWithError reads in the config file if one is set, returning any errors.
func initConfigWithError() (config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		return applyFlagOverrides(cfg), nil
	}
	return applyFlagOverrides(config.WithDefault()), nil
}

func applyFlagOverrides(cfg config.Config) config.Config {
	if priority == "" {
		priority = cfg.DefaultPriority()
	}
	return cfg
}

func ResetFlags() {
	cfgFile = ""
	targetURL = ""
	targetName = ""
	priority = ""
	sourceType = "course-page"
	javascript = false
	waitForSelector = ""
	waitTimeMs = 0
	screenshots = false
	timeoutMs = 0
	quiet = false
	showVersion = false
}

// Test helper functions to set flag values from tests.
func SetConfigFileForTest(path string)    { cfgFile = path }
func SetURLForTest(u string)              { targetURL = u }
func SetNameForTest(name string)          { targetName = name }
func SetPriorityForTest(p string)         { priority = p }
func SetSourceTypeForTest(s string)       { sourceType = s }
func SetJavascriptForTest(js bool)        { javascript = js }
func SetWaitForSelectorForTest(sel string) { waitForSelector = sel }
func SetWaitTimeMsForTest(ms int)         { waitTimeMs = ms }
func SetScreenshotsForTest(s bool)        { screenshots = s }
func SetTimeoutMsForTest(ms int)          { timeoutMs = ms }
func SetQuietForTest(q bool)              { quiet = q }
func SetVersionForTest(v bool)            { showVersion = v }
