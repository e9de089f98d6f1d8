package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. Configuration errors are
// rejected up front, before any fetch begins.
type Config struct {
	Account string `yaml:"account"`
	Pair    struct {
		BaseSymbol     string   `yaml:"base_symbol"`
		BaseAddresses  []string `yaml:"base_addresses"`
		QuoteSymbol    string   `yaml:"quote_symbol"`
		QuoteAddresses []string `yaml:"quote_addresses"`
	} `yaml:"pair"`
	PriceSource struct {
		CandleBaseURL      string `yaml:"candle_base_url"`
		CandleProduct      string `yaml:"candle_product"`
		FeedURL            string `yaml:"feed_url"`
		AlternativeFeedURL string `yaml:"alternative_feed_url"`
		HistoryFile        string `yaml:"history_file"`
		DatabaseURL        string `yaml:"database_url"`
		DatabaseSymbol     string `yaml:"database_symbol"`
		GapSeconds         int    `yaml:"gap_seconds"`
	} `yaml:"price_source"`
	Vwap struct {
		Minutes int `yaml:"minutes"`
	} `yaml:"vwap"`
	Cache struct {
		Dir string `yaml:"dir"`
	} `yaml:"cache"`
	Output struct {
		Text bool   `yaml:"text"`
		JSON bool   `yaml:"json"`
		File string `yaml:"file"`
	} `yaml:"output"`
	Recorder struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"recorder"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	FillsFile  string `yaml:"fills_file"`
	StatesFile string `yaml:"states_file"`
	Past       string `yaml:"past"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults.
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

	// Environment variable overrides
	if v := os.Getenv("MMSTATS_ACCOUNT"); v != "" {
		cfg.Account = v
	}
	if v := os.Getenv("MMSTATS_DATABASE_URL"); v != "" {
		cfg.PriceSource.DatabaseURL = v
	}
	if v := os.Getenv("MMSTATS_CANDLE_BASE_URL"); v != "" {
		cfg.PriceSource.CandleBaseURL = v
	}
	if v := os.Getenv("MMSTATS_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("MMSTATS_SQLITE_PATH"); v != "" {
		cfg.Recorder.SQLitePath = v
	}
	if v := os.Getenv("MMSTATS_PAST"); v != "" {
		cfg.Past = v
	}

	// Defaults
	if cfg.PriceSource.CandleBaseURL == "" {
		cfg.PriceSource.CandleBaseURL = "https://api.gdax.com"
	}
	if cfg.PriceSource.GapSeconds == 0 {
		cfg.PriceSource.GapSeconds = 180
	}
	if cfg.Vwap.Minutes == 0 {
		cfg.Vwap.Minutes = 240
	}
	if cfg.Past == "" {
		cfg.Past = "3d"
	}

	return cfg, nil
}

// Validate checks that the configuration names a usable price source, a
// single output mode and, when fills are analyzed, a complete pair mapping.
func (c *Config) Validate() error {
	ps := c.PriceSource
	if ps.CandleProduct == "" && ps.FeedURL == "" && ps.HistoryFile == "" && ps.DatabaseURL == "" {
		return fmt.Errorf("no price source configured")
	}
	if ps.DatabaseURL != "" && ps.DatabaseSymbol == "" {
		return fmt.Errorf("price_source.database_symbol is required with database_url")
	}
	if ps.GapSeconds < 0 {
		return fmt.Errorf("price_source.gap_seconds %d must not be negative", ps.GapSeconds)
	}

	if c.Vwap.Minutes <= 0 {
		return fmt.Errorf("vwap.minutes %d must be positive", c.Vwap.Minutes)
	}

	if c.Output.Text == c.Output.JSON {
		return fmt.Errorf("exactly one of output.text and output.json must be set")
	}

	if _, err := PastSeconds(c.Past); err != nil {
		return err
	}

	if c.FillsFile != "" {
		if !common.IsHexAddress(c.Account) {
			return fmt.Errorf("account %q is not a valid address", c.Account)
		}
		if c.Pair.BaseSymbol == "" || c.Pair.QuoteSymbol == "" {
			return fmt.Errorf("pair.base_symbol and pair.quote_symbol are required with fills_file")
		}
		for _, addr := range append(append([]string{}, c.Pair.BaseAddresses...), c.Pair.QuoteAddresses...) {
			if !common.IsHexAddress(addr) {
				return fmt.Errorf("pair address %q is not a valid address", addr)
			}
		}
		if len(c.Pair.BaseAddresses) == 0 || len(c.Pair.QuoteAddresses) == 0 {
			return fmt.Errorf("pair.base_addresses and pair.quote_addresses are required with fills_file")
		}
	}
	return nil
}

// PastSeconds parses a past-period spec like "3d", "12h", "30m", "2w" into
// seconds.
func PastSeconds(spec string) (int64, error) {
	if len(spec) < 2 {
		return 0, fmt.Errorf("past period %q is too short", spec)
	}
	perUnit := map[string]int64{"s": 1, "m": 60, "h": 3600, "d": 86400, "w": 604800}
	unit, ok := perUnit[strings.ToLower(spec[len(spec)-1:])]
	if !ok {
		return 0, fmt.Errorf("past period %q has an unknown unit", spec)
	}
	n, err := strconv.ParseInt(spec[:len(spec)-1], 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("past period %q has an invalid count", spec)
	}
	return n * unit, nil
}
