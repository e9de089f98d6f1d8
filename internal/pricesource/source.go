// Package pricesource builds reference price series for a bounded historical
// window out of imperfect upstream sources: an exchange candle API, price-feed
// endpoints, history files and a Postgres candle store. Fetching is strictly
// sequential and blocking; transient upstream failures are retried forever
// with fixed delays rather than surfaced to the caller.
package pricesource

import (
	"encoding/json"
	"time"

	"mmstats/types"
)

// Source yields price points for one fetch batch. BatchSpan returns the batch
// length in seconds; a non-positive span means the source reads the whole
// window in a single call. AlignStart maps the raw window start to the first
// batch boundary (candle sources day-align it so cache keys are reused across
// runs that start at different times of day).
type Source interface {
	Name() string
	AlignStart(start int64) int64
	BatchSpan() int64
	FetchBatch(start, end int64) (types.PriceSeries, error)
}

// iso8601 renders a unix timestamp the way the candle upstream expects it:
// UTC with a trailing Z.
func iso8601(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

// rateLimited reports whether the payload is the upstream's rate-limit signal,
// a JSON object carrying a message field instead of a candle array.
func rateLimited(body []byte) (string, bool) {
	var obj struct {
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(body, &obj); err != nil || obj.Message == nil {
		return "", false
	}
	return *obj.Message, true
}
