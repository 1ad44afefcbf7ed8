package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. TERMINAL_SERVER_HTTP_ADDR.
const EnvPrefix = "TERMINAL"

// Ranges are the history windows the provider accepts.
var Ranges = []string{"1mo", "3mo", "6mo", "1y", "2y", "5y", "ytd"}

// Moving-average period bounds, in trading days.
const (
	MinMAPeriod  = 10
	MaxMAPeriod  = 200
	MAPeriodStep = 10
)

// Config holds all application configuration.
type Config struct {
	LogLevel    string `yaml:"log_level" envconfig:"LOG_LEVEL"`
	CatalogFile string `yaml:"catalog_file" envconfig:"CATALOG_FILE"`
	Server      struct {
		Addr  string `yaml:"addr" envconfig:"HTTP_ADDR"`
		Debug bool   `yaml:"debug" envconfig:"GIN_DEBUG"`
	} `yaml:"server" envconfig:"SERVER"`
	DataSource struct {
		Provider    string        `yaml:"provider" envconfig:"PROVIDER"`
		BaseURL     string        `yaml:"base_url" envconfig:"CHART_BASE_URL"`
		BatchFile   string        `yaml:"batch_file" envconfig:"BATCH_FILE"`
		Timeout     time.Duration `yaml:"timeout" envconfig:"FETCH_TIMEOUT"`
		Concurrency int           `yaml:"concurrency" envconfig:"FETCH_CONCURRENCY"`
	} `yaml:"data_source" envconfig:"DATA"`
	Dashboard struct {
		Range      string `yaml:"range" envconfig:"DEFAULT_RANGE"`
		MAPeriod   int    `yaml:"ma_period" envconfig:"MA_PERIOD"`
		ChartStyle string `yaml:"chart_style" envconfig:"CHART_STYLE"`
		HideMA     bool   `yaml:"hide_ma" envconfig:"HIDE_MA"`
	} `yaml:"dashboard" envconfig:"DASHBOARD"`
	Schedule struct {
		RefreshCron    string `yaml:"refresh_cron" envconfig:"REFRESH_CRON"`
		DigestCron     string `yaml:"digest_cron" envconfig:"DIGEST_CRON"`
		SkipClosedDays bool   `yaml:"skip_closed_days" envconfig:"SKIP_CLOSED_DAYS"`
		MarketMIC      string `yaml:"market_mic" envconfig:"MARKET_MIC"`
	} `yaml:"schedule" envconfig:"SCHEDULE"`
	Telegram struct {
		BotToken string `yaml:"bot_token" envconfig:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `yaml:"chat_id" envconfig:"TELEGRAM_CHAT_ID"`
	} `yaml:"telegram" envconfig:"NOTIFY"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
	} `yaml:"database" envconfig:"DB"`
	Proxy string `yaml:"proxy" envconfig:"HTTPS_PROXY"`
}

// Load reads config from a YAML file, then .env and environment overrides,
// then fills defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional
	_ = godotenv.Load()

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.BaseURL == "" {
		c.DataSource.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 30 * time.Second
	}
	if c.DataSource.Concurrency == 0 {
		c.DataSource.Concurrency = 8
	}
	if c.Dashboard.Range == "" {
		c.Dashboard.Range = "1y"
	}
	if c.Dashboard.MAPeriod == 0 {
		c.Dashboard.MAPeriod = 50
	}
	if c.Dashboard.ChartStyle == "" {
		c.Dashboard.ChartStyle = "line"
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "0 */5 * * * *"
	}
	if c.Schedule.DigestCron == "" {
		c.Schedule.DigestCron = "0 0 22 * * 1-5"
	}
	if c.Schedule.MarketMIC == "" {
		c.Schedule.MarketMIC = "xnys"
	}
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if err := ValidateRange(c.Dashboard.Range); err != nil {
		return fmt.Errorf("dashboard.range: %w", err)
	}
	if err := ValidateMAPeriod(c.Dashboard.MAPeriod); err != nil {
		return fmt.Errorf("dashboard.ma_period: %w", err)
	}
	if c.Dashboard.ChartStyle != "line" && c.Dashboard.ChartStyle != "candle" {
		return fmt.Errorf("dashboard.chart_style must be line or candle, got %q", c.Dashboard.ChartStyle)
	}
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "file":
		if c.DataSource.BatchFile == "" {
			return fmt.Errorf("data_source.batch_file is required for the file provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.DataSource.Concurrency <= 0 {
		return fmt.Errorf("data_source.concurrency must be positive")
	}
	if c.DataSource.Timeout <= 0 {
		return fmt.Errorf("data_source.timeout must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether digests and commands should run.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// ValidateRange checks a history range against Ranges.
func ValidateRange(r string) error {
	for _, v := range Ranges {
		if r == v {
			return nil
		}
	}
	return fmt.Errorf("unsupported range %q", r)
}

// ValidateMAPeriod checks a moving-average period against the slider bounds.
func ValidateMAPeriod(p int) error {
	if p < MinMAPeriod || p > MaxMAPeriod || p%MAPeriodStep != 0 {
		return fmt.Errorf("period %d must be a multiple of %d in [%d, %d]", p, MAPeriodStep, MinMAPeriod, MaxMAPeriod)
	}
	return nil
}
