package pricesource

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"mmstats/types"
)

// Feed batches are shorter than candle batches and start at the raw window
// start: feed endpoints have no shared cache, so there is nothing to gain
// from day alignment.
const feedBatchSpan = 3 * 60 * 60

// FeedSource reads price history from an internal price-feed endpoint. The
// feed reports a single price per observation, used verbatim as the market
// price (unlike candle sources, which use the low/high midpoint).
type FeedSource struct {
	URL         string
	Client      *http.Client
	NetworkWait time.Duration
}

// NewFeedSource creates a price-feed source for one endpoint.
func NewFeedSource(url string) *FeedSource {
	return &FeedSource{
		URL:         url,
		Client:      &http.Client{Timeout: 30 * time.Second},
		NetworkWait: 10 * time.Second,
	}
}

func (s *FeedSource) Name() string { return "feed" }

func (s *FeedSource) AlignStart(start int64) int64 { return start }

func (s *FeedSource) BatchSpan() int64 { return feedBatchSpan }

// FetchBatch returns the feed observations inside [start, end], retrying
// forever on network failures like the candle source does.
func (s *FeedSource) FetchBatch(start, end int64) (types.PriceSeries, error) {
	url := fmt.Sprintf("%s?start=%d&end=%d", s.URL, start, end)

	var records []struct {
		Timestamp int64   `json:"timestamp"`
		Price     float64 `json:"price"`
	}
	for {
		body, err := s.get(url)
		if err == nil {
			if uerr := json.Unmarshal(body, &records); uerr == nil {
				break
			}
			err = errors.New("response body is not a JSON price list")
		}
		log.Printf("[INFO] price feed network error (%v), waiting %v...", err, s.NetworkWait)
		time.Sleep(s.NetworkWait)
	}

	points := make(types.PriceSeries, 0, len(records))
	for _, r := range records {
		if r.Timestamp < start || r.Timestamp > end {
			continue
		}
		points = append(points, types.PricePoint{Timestamp: r.Timestamp, Mid: r.Price})
	}
	return points, nil
}

func (s *FeedSource) get(url string) ([]byte, error) {
	resp, err := s.Client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
