package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rohmanhakim/docs-crawler/internal/config"
)

func TestWithDefault(t *testing.T) {
	cfg := config.WithDefault()

	if cfg.UserAgent() == "" {
		t.Error("expected a non-empty default UserAgent")
	}
	if cfg.RobotsDefaultCrawlDelay() != 2000*time.Millisecond {
		t.Errorf("expected RobotsDefaultCrawlDelay 2000ms, got %v", cfg.RobotsDefaultCrawlDelay())
	}
	if cfg.RobotsErrorDelay() != 4000*time.Millisecond {
		t.Errorf("expected RobotsErrorDelay 4000ms, got %v", cfg.RobotsErrorDelay())
	}
	if cfg.RobotsCacheTTL() != 24*time.Hour {
		t.Errorf("expected RobotsCacheTTL 24h, got %v", cfg.RobotsCacheTTL())
	}
	if cfg.StaticFetchTimeout() != 10*time.Second {
		t.Errorf("expected StaticFetchTimeout 10s, got %v", cfg.StaticFetchTimeout())
	}
	if cfg.DynamicPageTimeout() != 30*time.Second {
		t.Errorf("expected DynamicPageTimeout 30s, got %v", cfg.DynamicPageTimeout())
	}
	if cfg.StealthTLS() {
		t.Error("expected StealthTLS false by default")
	}
	if cfg.BrowserExecutablePath() != "" {
		t.Errorf("expected empty BrowserExecutablePath by default, got %q", cfg.BrowserExecutablePath())
	}
	if cfg.RetryMaxAttempts() != 3 {
		t.Errorf("expected RetryMaxAttempts 3, got %d", cfg.RetryMaxAttempts())
	}
	if cfg.RetryBaseDelay() != 1000*time.Millisecond {
		t.Errorf("expected RetryBaseDelay 1000ms, got %v", cfg.RetryBaseDelay())
	}
	if cfg.RetryMaxDelay() != 10*time.Second {
		t.Errorf("expected RetryMaxDelay 10s, got %v", cfg.RetryMaxDelay())
	}
	if cfg.RetryFactor() != 2.0 {
		t.Errorf("expected RetryFactor 2.0, got %f", cfg.RetryFactor())
	}
	if cfg.BreakerThreshold() != 5 {
		t.Errorf("expected BreakerThreshold 5, got %d", cfg.BreakerThreshold())
	}
	if cfg.BreakerResetTimeout() != 60*time.Second {
		t.Errorf("expected BreakerResetTimeout 60s, got %v", cfg.BreakerResetTimeout())
	}
	if cfg.DefaultPriority() != "medium" {
		t.Errorf("expected DefaultPriority 'medium', got %q", cfg.DefaultPriority())
	}
	if cfg.MediaDir() != "media" {
		t.Errorf("expected MediaDir 'media', got %q", cfg.MediaDir())
	}
	if cfg.DryRun() {
		t.Error("expected DryRun false by default")
	}
}

func TestBuild(t *testing.T) {
	built, err := config.WithDefault().Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if built.UserAgent() != config.WithDefault().UserAgent() {
		t.Error("Build() did not return matching config")
	}
}

func TestBuildRejectsInvalidRetryMaxAttempts(t *testing.T) {
	_, err := config.WithDefault().WithRetryMaxAttempts(0).Build()
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestBuildRejectsInvalidBreakerThreshold(t *testing.T) {
	_, err := config.WithDefault().WithBreakerThreshold(0).Build()
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestBuildRejectsInvalidRetryFactor(t *testing.T) {
	_, err := config.WithDefault().WithRetryFactor(1.0).Build()
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestWithUserAgent(t *testing.T) {
	cfg := config.WithDefault().WithUserAgent("golfscrape-test/1.0")
	if cfg.UserAgent() != "golfscrape-test/1.0" {
		t.Errorf("expected UserAgent 'golfscrape-test/1.0', got %q", cfg.UserAgent())
	}
}

func TestWithRobotsDefaultCrawlDelay(t *testing.T) {
	cfg := config.WithDefault().WithRobotsDefaultCrawlDelay(5 * time.Second)
	if cfg.RobotsDefaultCrawlDelay() != 5*time.Second {
		t.Errorf("expected RobotsDefaultCrawlDelay 5s, got %v", cfg.RobotsDefaultCrawlDelay())
	}
}

func TestWithRobotsCacheTTL(t *testing.T) {
	cfg := config.WithDefault().WithRobotsCacheTTL(time.Hour)
	if cfg.RobotsCacheTTL() != time.Hour {
		t.Errorf("expected RobotsCacheTTL 1h, got %v", cfg.RobotsCacheTTL())
	}
}

func TestWithStaticFetchTimeout(t *testing.T) {
	cfg := config.WithDefault().WithStaticFetchTimeout(20 * time.Second)
	if cfg.StaticFetchTimeout() != 20*time.Second {
		t.Errorf("expected StaticFetchTimeout 20s, got %v", cfg.StaticFetchTimeout())
	}
}

func TestWithDynamicPageTimeout(t *testing.T) {
	cfg := config.WithDefault().WithDynamicPageTimeout(45 * time.Second)
	if cfg.DynamicPageTimeout() != 45*time.Second {
		t.Errorf("expected DynamicPageTimeout 45s, got %v", cfg.DynamicPageTimeout())
	}
}

func TestWithStealthTLS(t *testing.T) {
	cfg := config.WithDefault().WithStealthTLS(true)
	if !cfg.StealthTLS() {
		t.Error("expected StealthTLS true")
	}
}

func TestWithBrowserExecutablePath(t *testing.T) {
	cfg := config.WithDefault().WithBrowserExecutablePath("/usr/bin/chromium")
	if cfg.BrowserExecutablePath() != "/usr/bin/chromium" {
		t.Errorf("expected BrowserExecutablePath '/usr/bin/chromium', got %q", cfg.BrowserExecutablePath())
	}
}

func TestWithRetryMaxAttempts(t *testing.T) {
	cfg := config.WithDefault().WithRetryMaxAttempts(7)
	if cfg.RetryMaxAttempts() != 7 {
		t.Errorf("expected RetryMaxAttempts 7, got %d", cfg.RetryMaxAttempts())
	}
}

func TestWithRetryBaseDelay(t *testing.T) {
	cfg := config.WithDefault().WithRetryBaseDelay(2 * time.Second)
	if cfg.RetryBaseDelay() != 2*time.Second {
		t.Errorf("expected RetryBaseDelay 2s, got %v", cfg.RetryBaseDelay())
	}
}

func TestWithRetryMaxDelay(t *testing.T) {
	cfg := config.WithDefault().WithRetryMaxDelay(30 * time.Second)
	if cfg.RetryMaxDelay() != 30*time.Second {
		t.Errorf("expected RetryMaxDelay 30s, got %v", cfg.RetryMaxDelay())
	}
}

func TestWithRetryFactor(t *testing.T) {
	cfg := config.WithDefault().WithRetryFactor(1.5)
	if cfg.RetryFactor() != 1.5 {
		t.Errorf("expected RetryFactor 1.5, got %f", cfg.RetryFactor())
	}
}

func TestWithBreakerThreshold(t *testing.T) {
	cfg := config.WithDefault().WithBreakerThreshold(10)
	if cfg.BreakerThreshold() != 10 {
		t.Errorf("expected BreakerThreshold 10, got %d", cfg.BreakerThreshold())
	}
}

func TestWithBreakerResetTimeout(t *testing.T) {
	cfg := config.WithDefault().WithBreakerResetTimeout(2 * time.Minute)
	if cfg.BreakerResetTimeout() != 2*time.Minute {
		t.Errorf("expected BreakerResetTimeout 2m, got %v", cfg.BreakerResetTimeout())
	}
}

func TestWithDefaultPriority(t *testing.T) {
	cfg := config.WithDefault().WithDefaultPriority("high")
	if cfg.DefaultPriority() != "high" {
		t.Errorf("expected DefaultPriority 'high', got %q", cfg.DefaultPriority())
	}
}

func TestWithMediaDir(t *testing.T) {
	cfg := config.WithDefault().WithMediaDir("/tmp/screens")
	if cfg.MediaDir() != "/tmp/screens" {
		t.Errorf("expected MediaDir '/tmp/screens', got %q", cfg.MediaDir())
	}
}

func TestWithDryRun(t *testing.T) {
	cfg := config.WithDefault().WithDryRun(true)
	if !cfg.DryRun() {
		t.Error("expected DryRun true")
	}
}

func TestWithConfigFile_FileDoesNotExist(t *testing.T) {
	_, err := config.WithConfigFile("/nonexistent/path/config.json")

	if err == nil {
		t.Fatal("expected error for non-existent file, got nil")
	}
	if !errors.Is(err, config.ErrFileDoesNotExist) {
		t.Errorf("expected ErrFileDoesNotExist, got: %v", err)
	}
}

func TestWithConfigFile_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.json")

	if err := os.WriteFile(configPath, []byte("{invalid json content}"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	_, err := config.WithConfigFile(configPath)
	if err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
	if !errors.Is(err, config.ErrConfigParsingFail) {
		t.Errorf("expected ErrConfigParsingFail, got: %v", err)
	}
}

func TestWithConfigFile_ValidCompleteConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(completeConfigJson()), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loadedConfig, err := config.WithConfigFile(configPath)
	if err != nil {
		t.Fatalf("unexpected error loading valid config: %v", err)
	}

	if loadedConfig.UserAgent() != "golfscrape-test/2.0" {
		t.Errorf("expected UserAgent 'golfscrape-test/2.0', got %q", loadedConfig.UserAgent())
	}
	if loadedConfig.RobotsDefaultCrawlDelay() != 3*time.Second {
		t.Errorf("expected RobotsDefaultCrawlDelay 3s, got %v", loadedConfig.RobotsDefaultCrawlDelay())
	}
	if loadedConfig.RetryMaxAttempts() != 5 {
		t.Errorf("expected RetryMaxAttempts 5, got %d", loadedConfig.RetryMaxAttempts())
	}
	if loadedConfig.BreakerThreshold() != 8 {
		t.Errorf("expected BreakerThreshold 8, got %d", loadedConfig.BreakerThreshold())
	}
	if loadedConfig.DefaultPriority() != "critical" {
		t.Errorf("expected DefaultPriority 'critical', got %q", loadedConfig.DefaultPriority())
	}
	if !loadedConfig.DryRun() {
		t.Errorf("expected DryRun true, got %v", loadedConfig.DryRun())
	}
}

func TestWithConfigFile_PartialConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "partial.json")

	partialData := `{
		"userAgent": "PartialBot/1.0",
		"retryMaxAttempts": 9
	}`

	if err := os.WriteFile(configPath, []byte(partialData), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loadedConfig, err := config.WithConfigFile(configPath)
	if err != nil {
		t.Fatalf("unexpected error loading partial config: %v", err)
	}

	if loadedConfig.UserAgent() != "PartialBot/1.0" {
		t.Errorf("expected UserAgent 'PartialBot/1.0', got %q", loadedConfig.UserAgent())
	}
	if loadedConfig.RetryMaxAttempts() != 9 {
		t.Errorf("expected RetryMaxAttempts 9, got %d", loadedConfig.RetryMaxAttempts())
	}

	// Fields not present in the file keep the module defaults.
	if loadedConfig.BreakerThreshold() != 5 {
		t.Errorf("expected BreakerThreshold to remain default 5, got %d", loadedConfig.BreakerThreshold())
	}
	if loadedConfig.MediaDir() != "media" {
		t.Errorf("expected MediaDir to remain default 'media', got %q", loadedConfig.MediaDir())
	}
}

func TestWithConfigFile_EmptyJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "empty.json")

	if err := os.WriteFile(configPath, []byte("{}"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loadedConfig, err := config.WithConfigFile(configPath)
	if err != nil {
		t.Fatalf("unexpected error loading empty config: %v", err)
	}

	// Every key is optional; an empty file is just the module defaults.
	if loadedConfig.UserAgent() != config.WithDefault().UserAgent() {
		t.Errorf("expected default UserAgent, got %q", loadedConfig.UserAgent())
	}
}

// Note: zero values in JSON with `omitempty` tags are omitted during
// marshaling, so they cannot override defaults back to zero. To set a zero
// value, a caller must modify the returned Config directly via its WithXxx
// builders.

func completeConfigJson() string {
	return `
	{
    "userAgent": "golfscrape-test/2.0",
    "robotsDefaultCrawlDelay": 3000000000,
    "robotsErrorDelay": 6000000000,
    "robotsCacheTtl": 3600000000000,
    "staticFetchTimeout": 15000000000,
    "dynamicPageTimeout": 40000000000,
    "stealthTls": true,
    "browserExecutablePath": "/usr/bin/chromium",
    "retryMaxAttempts": 5,
    "retryBaseDelay": 2000000000,
    "retryMaxDelay": 20000000000,
    "retryFactor": 3.0,
    "breakerThreshold": 8,
    "breakerResetTimeout": 90000000000,
    "defaultPriority": "critical",
    "mediaDir": "test_media",
    "dryRun": true
}
	`
}
