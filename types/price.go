package types

// PricePoint is one observation of the reference market price. Mid is the
// market price for the bucket: the low/high midpoint for candle sources, the
// reported price verbatim for feed and file sources. Low, High and Volume are
// present only when the source reports them.
type PricePoint struct {
	Timestamp int64    `json:"timestamp"`
	Mid       float64  `json:"price"`
	Low       *float64 `json:"low,omitempty"`
	High      *float64 `json:"high,omitempty"`
	Volume    *float64 `json:"volume,omitempty"`
}

// PriceSeries is a price history sorted ascending by timestamp with unique
// timestamps.
type PriceSeries []PricePoint

// Start returns the timestamp of the first point, or 0 for an empty series.
func (s PriceSeries) Start() int64 {
	if len(s) == 0 {
		return 0
	}
	return s[0].Timestamp
}

// Gap is a stretch of the evaluated window with no price observations for
// longer than the configured threshold. Charts break their lines across gaps.
type Gap struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}
