package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rustyeddy/fxlot/input"
	"github.com/rustyeddy/fxlot/market"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the complete fxlot configuration.
type Config struct {
	Rates    map[string]string `json:"rates,omitempty" yaml:"rates,omitempty"`
	Provider ProviderConfig    `json:"provider" yaml:"provider"`
	Refresh  RefreshConfig     `json:"refresh" yaml:"refresh"`
	Journal  JournalConfig     `json:"journal" yaml:"journal"`
	Server   ServerConfig      `json:"server" yaml:"server"`
	Log      LogConfig         `json:"log" yaml:"log"`
	Defaults DefaultsConfig    `json:"defaults" yaml:"defaults"`
}

// ProviderConfig describes the exchange rate provider.
type ProviderConfig struct {
	BaseURL      string `json:"base_url" yaml:"base_url"`
	APIKey       string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	RequestDelay string `json:"request_delay" yaml:"request_delay"` // e.g. "12s"
	Timeout      string `json:"timeout" yaml:"timeout"`
}

// ParseRequestDelay returns the spacing between two provider requests.
func (p ProviderConfig) ParseRequestDelay() (time.Duration, error) {
	if p.RequestDelay == "" {
		return 0, nil
	}
	return time.ParseDuration(p.RequestDelay)
}

// ParseTimeout returns the per-request HTTP timeout.
func (p ProviderConfig) ParseTimeout() (time.Duration, error) {
	if p.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(p.Timeout)
}

// RefreshConfig controls the periodic rate refresh. Schedule is a cron
// expression with a leading seconds field.
type RefreshConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Schedule string `json:"schedule" yaml:"schedule"`
}

type JournalConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	DBPath  string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type ServerConfig struct {
	Addr           string   `json:"addr" yaml:"addr"`
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Pretty bool   `json:"pretty" yaml:"pretty"`
}

// DefaultsConfig holds the initial calculator inputs.
type DefaultsConfig struct {
	Balance         string  `json:"balance" yaml:"balance"`
	BalanceCurrency string  `json:"balance_currency" yaml:"balance_currency"`
	RiskPercent     float64 `json:"risk_percent" yaml:"risk_percent"`
	StopLossPips    int64   `json:"stop_loss_pips" yaml:"stop_loss_pips"`
	Traded          string  `json:"traded" yaml:"traded"`
	Leverage        int     `json:"leverage" yaml:"leverage"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes the configuration as YAML for .yaml/.yml paths and
// indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads a .env file when present and lets FXLOT_* variables
// override the file settings.
func (c *Config) ApplyEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	if v := os.Getenv("FXLOT_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("FXLOT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("FXLOT_DB_PATH"); v != "" {
		c.Journal.Enabled = true
		c.Journal.DBPath = v
	}
	if v := os.Getenv("FXLOT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := c.RateTable(); err != nil {
		return fmt.Errorf("rates: %w", err)
	}

	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	if d, err := c.Provider.ParseRequestDelay(); err != nil || d < 0 {
		return fmt.Errorf("provider.request_delay must be a non-negative duration")
	}
	if d, err := c.Provider.ParseTimeout(); err != nil || d < 0 {
		return fmt.Errorf("provider.timeout must be a non-negative duration")
	}

	if c.Refresh.Enabled {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.Refresh.Schedule); err != nil {
			return fmt.Errorf("refresh.schedule: %w", err)
		}
	}

	if c.Journal.Enabled && c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path required when journal is enabled")
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("log.level %q is not a known level", c.Log.Level)
	}

	d := c.Defaults
	if _, err := market.ParseBalanceCurrency(d.BalanceCurrency); err != nil {
		return fmt.Errorf("defaults.balance_currency: %w", err)
	}
	if _, err := market.ParseCurrency(d.Traded); err != nil {
		return fmt.Errorf("defaults.traded: %w", err)
	}
	if !input.ValidRiskPercent(decimal.NewFromFloat(d.RiskPercent)) {
		return fmt.Errorf("defaults.risk_percent must be between 0.5 and 30 in steps of 0.5")
	}
	if d.StopLossPips < 0 {
		return fmt.Errorf("defaults.stop_loss_pips must not be negative")
	}
	if !input.ValidLeverage(d.Leverage) {
		return fmt.Errorf("defaults.leverage %d is not offered", d.Leverage)
	}
	return nil
}

// RateTable builds the startup rate table. Codes missing from Rates keep
// their built-in default.
func (c *Config) RateTable() (market.RateTable, error) {
	m := market.DefaultRates().Map()
	for code, s := range c.Rates {
		cur, err := market.ParseCurrency(code)
		if err != nil {
			return market.RateTable{}, err
		}
		r, err := decimal.NewFromString(s)
		if err != nil {
			return market.RateTable{}, fmt.Errorf("rate for %s: %w", cur, err)
		}
		m[cur] = r
	}
	return market.NewRateTable(m)
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			BaseURL:      "https://www.alphavantage.co",
			RequestDelay: "12s",
			Timeout:      "30s",
		},
		Refresh: RefreshConfig{
			Enabled:  true,
			Schedule: "0 0 * * * *",
		},
		Journal: JournalConfig{
			Enabled: true,
			DBPath:  "./fxlot.db",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
		Defaults: DefaultsConfig{
			Balance:         "0",
			BalanceCurrency: "JPY",
			RiskPercent:     2.5,
			StopLossPips:    25,
			Traded:          "JPY",
			Leverage:        500,
		},
	}
}
