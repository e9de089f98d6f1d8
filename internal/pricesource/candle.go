package pricesource

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"mmstats/internal/pricecache"
	"mmstats/types"
)

const (
	// Candle batches cover four hours of one-minute buckets, comfortably
	// under the upstream's per-request point limit.
	candleBatchSpan = 4 * 60 * 60

	// Ranges ending less than an hour ago may still change upstream, so
	// they are never cached. One hour is a safety margin, nothing more.
	cacheSafetyMargin = time.Hour
)

// CandleSource fetches OHLCV candles from an exchange HTTP endpoint and
// consults the shared on-disk cache for ranges old enough to be immutable.
type CandleSource struct {
	BaseURL     string
	Product     string
	Granularity int
	Client      *http.Client
	Cache       *pricecache.Cache

	// Fixed retry delays, injectable for tests. Retrying is unbounded: a
	// historical backfill should eventually complete rather than fail fast.
	NetworkWait   time.Duration
	RateLimitWait time.Duration

	// Now is the clock used for the cacheability cutoff.
	Now func() time.Time
}

// NewCandleSource creates a candle source for one product with the standard
// one-minute granularity and retry delays.
func NewCandleSource(baseURL, product string, cache *pricecache.Cache) *CandleSource {
	return &CandleSource{
		BaseURL:       baseURL,
		Product:       product,
		Granularity:   60,
		Client:        &http.Client{Timeout: 30 * time.Second},
		Cache:         cache,
		NetworkWait:   10 * time.Second,
		RateLimitWait: 2 * time.Second,
		Now:           time.Now,
	}
}

func (s *CandleSource) Name() string { return "gdax" }

// AlignStart snaps the window start back to the beginning of its UTC calendar
// day, so cache keys line up across runs with differing start times.
func (s *CandleSource) AlignStart(start int64) int64 {
	t := time.Unix(start, 0).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix()
}

func (s *CandleSource) BatchSpan() int64 { return candleBatchSpan }

// FetchBatch returns the candles for [start, end], cache first when the range
// qualifies, upstream otherwise. The raw payload is written back to the cache
// best-effort before decoding.
func (s *CandleSource) FetchBatch(start, end int64) (types.PriceSeries, error) {
	cacheable := s.Cache != nil && end < s.Now().Add(-cacheSafetyMargin).Unix()
	key := pricecache.Key{
		Source:      s.Name(),
		Product:     s.Product,
		Start:       start,
		End:         end,
		Granularity: s.Granularity,
	}

	if cacheable {
		if payload, ok := s.Cache.Read(key); ok {
			points, err := decodeCandles(payload, start, end)
			if err == nil {
				return points, nil
			}
			log.Printf("[WARN] cached payload for %s [%d, %d] does not decode, refetching: %v", s.Product, start, end, err)
		}
	}

	payload := s.fetch(s.url(start, end))
	if cacheable {
		s.Cache.Write(key, payload)
	}
	return decodeCandles(payload, start, end)
}

func (s *CandleSource) url(start, end int64) string {
	return fmt.Sprintf("%s/products/%s/candles?start=%s&end=%s&granularity=%d",
		s.BaseURL, s.Product, iso8601(start), iso8601(end), s.Granularity)
}

// fetch blocks until the upstream hands back a JSON candle payload. Network
// failures and non-JSON bodies wait NetworkWait, a rate-limit signal waits
// RateLimitWait; both retry the identical request with no attempt limit.
func (s *CandleSource) fetch(url string) []byte {
	for {
		body, err := s.get(url)
		if err == nil {
			if msg, ok := rateLimited(body); ok {
				log.Printf("[INFO] candle API rate limiting (%s), slowing down for %v...", msg, s.RateLimitWait)
				time.Sleep(s.RateLimitWait)
				continue
			}
			if json.Valid(body) {
				return body
			}
			err = errors.New("response body is not JSON")
		}
		log.Printf("[INFO] candle API network error (%v), waiting %v...", err, s.NetworkWait)
		time.Sleep(s.NetworkWait)
	}
}

func (s *CandleSource) get(url string) ([]byte, error) {
	resp, err := s.Client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// decodeCandles maps the raw [time, low, high, open, close, volume] tuples to
// price points, using the low/high midpoint as the representative market
// price. The upstream may return buckets slightly outside the requested
// range, so points are filtered to [start, end] before returning.
func decodeCandles(payload []byte, start, end int64) (types.PriceSeries, error) {
	var candles [][]float64
	if err := json.Unmarshal(payload, &candles); err != nil {
		return nil, fmt.Errorf("decode candles: %w", err)
	}

	points := make(types.PriceSeries, 0, len(candles))
	for _, c := range candles {
		if len(c) < 6 {
			return nil, fmt.Errorf("malformed candle tuple of length %d", len(c))
		}
		ts := int64(c[0])
		if ts < start || ts > end {
			continue
		}
		low, high, volume := c[1], c[2], c[5]
		points = append(points, types.PricePoint{
			Timestamp: ts,
			Mid:       (low + high) / 2,
			Low:       &low,
			High:      &high,
			Volume:    &volume,
		})
	}
	return points, nil
}
