package main

import (
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"mmstats/internal/config"
	"mmstats/internal/engine"
	"mmstats/internal/pricecache"
	"mmstats/internal/pricesource"
	"mmstats/internal/recorder"
	"mmstats/internal/report"
	"mmstats/internal/repository"
	"mmstats/internal/trades"
	"mmstats/types"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	_ = godotenv.Load()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	eng, cleanup := buildEngine(cfg)
	defer cleanup()

	var rec recorder.Recorder
	if cfg.Recorder.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Recorder.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	if cfg.Schedule.Cron != "" {
		runOnSchedule(cfg, eng, rec)
		return
	}
	if err := runOnce(cfg, eng, rec); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
}

// buildEngine constructs the price sources and normalizer from config. The
// primary source is the first one configured, in fixed precedence order:
// exchange candles, price feed, history file, database.
func buildEngine(cfg *config.Config) (*engine.Engine, func()) {
	cleanup := func() {}

	var primary pricesource.Source
	ps := cfg.PriceSource
	switch {
	case ps.CandleProduct != "":
		primary = pricesource.NewCandleSource(ps.CandleBaseURL, ps.CandleProduct, openCache(cfg))
	case ps.FeedURL != "":
		primary = pricesource.NewFeedSource(ps.FeedURL)
	case ps.HistoryFile != "":
		primary = pricesource.NewFileSource(ps.HistoryFile)
	case ps.DatabaseURL != "":
		db, err := repository.NewDatabase(ps.DatabaseURL)
		if err != nil {
			log.Fatalf("[FATAL] connect to price database: %v", err)
		}
		cleanup = db.Close
		primary = db.Source(ps.DatabaseSymbol)
	}

	var alternative pricesource.Source
	if ps.AlternativeFeedURL != "" {
		alternative = pricesource.NewFeedSource(ps.AlternativeFeedURL)
	}

	var normalizer *trades.Normalizer
	if cfg.FillsFile != "" {
		normalizer = &trades.Normalizer{
			Account: common.HexToAddress(cfg.Account),
			Base:    asset(cfg.Pair.BaseSymbol, cfg.Pair.BaseAddresses),
			Quote:   asset(cfg.Pair.QuoteSymbol, cfg.Pair.QuoteAddresses),
		}
	}

	eng := engine.New(primary, alternative, normalizer)
	eng.VwapMinutes = cfg.Vwap.Minutes
	eng.GapThreshold = time.Duration(ps.GapSeconds) * time.Second
	eng.ShowProgress = cfg.Output.Text && cfg.Output.File == ""
	return eng, cleanup
}

func asset(symbol string, addresses []string) trades.Asset {
	a := trades.Asset{Symbol: symbol}
	for _, addr := range addresses {
		a.Addresses = append(a.Addresses, common.HexToAddress(addr))
	}
	return a
}

// openCache opens the on-disk price cache. Cache failures are not fatal, the
// candle source just fetches everything upstream.
func openCache(cfg *config.Config) *pricecache.Cache {
	dir := cfg.Cache.Dir
	if dir == "" {
		var err error
		dir, err = pricecache.DefaultDir()
		if err != nil {
			log.Printf("[WARN] no cache dir available, caching disabled: %v", err)
			return nil
		}
	}
	cache, err := pricecache.New(dir)
	if err != nil {
		log.Printf("[WARN] open price cache failed, caching disabled: %v", err)
		return nil
	}
	return cache
}

func runOnce(cfg *config.Config, eng *engine.Engine, rec recorder.Recorder) error {
	past, err := config.PastSeconds(cfg.Past)
	if err != nil {
		return err
	}
	end := time.Now().UTC().Unix()
	start := end - past

	var fills []types.RawFill
	if cfg.FillsFile != "" {
		fills, err = trades.ReadFillsFile(cfg.FillsFile)
		if err != nil {
			return err
		}
		log.Printf("[INFO] loaded %d fills from %s", len(fills), cfg.FillsFile)
	}
	if cfg.StatesFile != "" {
		eng.States, err = pricesource.ReadStatesFile(cfg.StatesFile)
		if err != nil {
			return err
		}
		log.Printf("[INFO] loaded %d interval states from %s", len(eng.States), cfg.StatesFile)
	}

	result, err := eng.Run(fills, start, end)
	if err != nil {
		return err
	}
	for _, gap := range result.Gaps {
		log.Printf("[WARN] price history gap: %s .. %s",
			report.FormatTimestamp(gap.Start), report.FormatTimestamp(gap.End))
	}

	out, closeOut, err := openOutput(cfg.Output.File)
	if err != nil {
		return err
	}
	defer closeOut()

	if cfg.Output.JSON {
		listing := append([]types.Trade(nil), result.Trades...)
		trades.SortForListing(listing)
		if err := report.WriteJSON(out, listing, result.Records, result.Gaps, result.States); err != nil {
			return err
		}
	} else {
		if len(result.Trades) > 0 {
			listing := append([]types.Trade(nil), result.Trades...)
			trades.SortForListing(listing)
			if err := report.WriteTradesTable(out, listing, cfg.Pair.BaseSymbol, cfg.Pair.QuoteSymbol); err != nil {
				return err
			}
			io.WriteString(out, "\n")
		}
		if err := report.WritePnlTable(out, result.Records, cfg.Pair.BaseSymbol, cfg.Pair.QuoteSymbol, cfg.Vwap.Minutes); err != nil {
			return err
		}
	}

	sum := &recorder.RunSummary{
		Start:       start,
		End:         end,
		Pair:        cfg.Pair.BaseSymbol + "/" + cfg.Pair.QuoteSymbol,
		VwapMinutes: cfg.Vwap.Minutes,
		TradeCount:  len(result.Trades),
	}
	if n := len(result.Records); n > 0 {
		sum.TotalPnl = result.Records[n-1].CumulativePnl
	}
	if err := rec.RecordRun(sum, result.Records); err != nil {
		log.Printf("[WARN] record run: %v", err)
	}
	return nil
}

// runOnSchedule evaluates the window repeatedly on a cron schedule, for
// standing dashboards fed from the recorder database.
func runOnSchedule(cfg *config.Config, eng *engine.Engine, rec recorder.Recorder) {
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(cfg.Schedule.Cron, func() {
		log.Println("[INFO] scheduled evaluation starting")
		if err := runOnce(cfg, eng, rec); err != nil {
			log.Printf("[WARN] scheduled evaluation failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("[FATAL] register cron schedule: %v", err)
	}
	log.Printf("[INFO] running on schedule %q, press Ctrl+C to stop", cfg.Schedule.Cron)
	c.Run()
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || strings.TrimSpace(path) == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
