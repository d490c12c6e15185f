package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppConfig     *AppConfig
	BrowserConfig *BrowserConfig
	WaitConfig    *WaitConfig
	SiteConfig    *SiteConfig
	ReportConfig  *ReportConfig
}

type AppConfig struct {
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	Debug        bool   `envconfig:"DEBUG" default:"false"`
	TraceEnabled bool   `envconfig:"TRACE_ENABLED" default:"false"`
}

type BrowserConfig struct {
	Headless          bool          `envconfig:"BROWSER_HEADLESS" default:"true"`
	Maximize          bool          `envconfig:"BROWSER_MAXIMIZE" default:"true"`
	Install           bool          `envconfig:"BROWSER_INSTALL" default:"false"`
	SlowMo            int           `envconfig:"BROWSER_SLOW_MO" default:"0"`
	NavigationTimeout time.Duration `envconfig:"BROWSER_NAVIGATION_TIMEOUT" default:"30s"`
	ClickTimeout      time.Duration `envconfig:"BROWSER_CLICK_TIMEOUT" default:"2s"`
}

type WaitConfig struct {
	Timeout         time.Duration `envconfig:"WAIT_TIMEOUT" default:"10s"`
	PollInterval    time.Duration `envconfig:"WAIT_POLL_INTERVAL" default:"250ms"`
	OptionalTimeout time.Duration `envconfig:"WAIT_OPTIONAL_TIMEOUT" default:"3s"`
}

type SiteConfig struct {
	BaseURL string `envconfig:"SITE_BASE_URL" default:"https://useinsider.com/"`
}

type ReportConfig struct {
	Path        string `envconfig:"REPORT_PATH" default:""`
	MetricsPath string `envconfig:"METRICS_PATH" default:""`
}

func GetConfig() (*Config, error) {
	_ = godotenv.Load()

	var conf Config

	if err := envconfig.Process("", &conf); err != nil {
		return nil, fmt.Errorf("read config from env vars: %w", err)
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}

	return &conf, nil
}

func (c *Config) validate() error {
	if c.WaitConfig.Timeout <= 0 {
		return fmt.Errorf("WAIT_TIMEOUT must be positive, got %s", c.WaitConfig.Timeout)
	}

	if c.WaitConfig.PollInterval <= 0 {
		return fmt.Errorf("WAIT_POLL_INTERVAL must be positive, got %s", c.WaitConfig.PollInterval)
	}

	if c.WaitConfig.OptionalTimeout <= 0 {
		return fmt.Errorf("WAIT_OPTIONAL_TIMEOUT must be positive, got %s", c.WaitConfig.OptionalTimeout)
	}

	return nil
}
