package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.PriceSource.CandleBaseURL = "https://api.gdax.com"
	cfg.PriceSource.CandleProduct = "ETH-USD"
	cfg.PriceSource.GapSeconds = 180
	cfg.Vwap.Minutes = 240
	cfg.Output.Text = true
	cfg.Past = "3d"
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("price_source:\n  candle_product: ETH-USD\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PriceSource.CandleBaseURL != "https://api.gdax.com" {
		t.Errorf("candle base url = %q, want default", cfg.PriceSource.CandleBaseURL)
	}
	if cfg.Vwap.Minutes != 240 {
		t.Errorf("vwap minutes = %d, want 240", cfg.Vwap.Minutes)
	}
	if cfg.PriceSource.GapSeconds != 180 {
		t.Errorf("gap seconds = %d, want 180", cfg.PriceSource.GapSeconds)
	}
	if cfg.Past != "3d" {
		t.Errorf("past = %q, want 3d", cfg.Past)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MMSTATS_CANDLE_BASE_URL", "http://localhost:9999")
	t.Setenv("MMSTATS_PAST", "12h")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PriceSource.CandleBaseURL != "http://localhost:9999" {
		t.Errorf("candle base url = %q, want env override", cfg.PriceSource.CandleBaseURL)
	}
	if cfg.Past != "12h" {
		t.Errorf("past = %q, want 12h", cfg.Past)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid candle config", func(c *Config) {}, false},
		{"no price source", func(c *Config) {
			c.PriceSource.CandleProduct = ""
		}, true},
		{"both output modes", func(c *Config) {
			c.Output.JSON = true
		}, true},
		{"no output mode", func(c *Config) {
			c.Output.Text = false
		}, true},
		{"json output alone", func(c *Config) {
			c.Output.Text = false
			c.Output.JSON = true
		}, false},
		{"database without symbol", func(c *Config) {
			c.PriceSource.DatabaseURL = "postgres://localhost/prices"
		}, true},
		{"negative gap seconds", func(c *Config) {
			c.PriceSource.GapSeconds = -180
		}, true},
		{"negative vwap minutes", func(c *Config) {
			c.Vwap.Minutes = -5
		}, true},
		{"zero vwap minutes", func(c *Config) {
			c.Vwap.Minutes = 0
		}, true},
		{"bad past period", func(c *Config) {
			c.Past = "yesterday"
		}, true},
		{"fills with bad account", func(c *Config) {
			c.FillsFile = "fills.json"
			c.Account = "not-an-address"
		}, true},
		{"fills without pair addresses", func(c *Config) {
			c.FillsFile = "fills.json"
			c.Account = "0x0000000000000000000000000000000000000001"
			c.Pair.BaseSymbol = "WETH"
			c.Pair.QuoteSymbol = "DAI"
		}, true},
		{"fills fully mapped", func(c *Config) {
			c.FillsFile = "fills.json"
			c.Account = "0x0000000000000000000000000000000000000001"
			c.Pair.BaseSymbol = "WETH"
			c.Pair.BaseAddresses = []string{"0x0000000000000000000000000000000000000002"}
			c.Pair.QuoteSymbol = "DAI"
			c.Pair.QuoteAddresses = []string{"0x0000000000000000000000000000000000000003"}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPastSeconds(t *testing.T) {
	tests := []struct {
		spec    string
		want    int64
		wantErr bool
	}{
		{"30m", 1800, false},
		{"12h", 43200, false},
		{"3d", 259200, false},
		{"2w", 1209600, false},
		{"90s", 90, false},
		{"d", 0, true},
		{"3x", 0, true},
		{"-3d", 0, true},
		{"0h", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := PastSeconds(tt.spec)
		if (err != nil) != tt.wantErr {
			t.Errorf("PastSeconds(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("PastSeconds(%q) = %d, want %d", tt.spec, got, tt.want)
		}
	}
}
