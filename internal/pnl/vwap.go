// Package pnl computes the rolling approximate VWAP over a reference price
// series and folds normalized trades against it into a profit-and-loss
// attribution.
package pnl

import (
	"mmstats/types"
)

// Vwap computes a trailing volume-weighted average for every point of the
// series. The window for the point at time T is (T - windowMinutes*60, T];
// near the series start it truncates to the available history. Observations
// without volume data fall out of the weighted mean; when no observation in
// the window carries volume at all, the plain mean over the window is used.
//
// This is an approximation: the reference feed has no trade-level volume for
// the venue being priced, and the design accepts that bias.
func Vwap(series types.PriceSeries, windowMinutes int) []types.VwapPoint {
	window := int64(windowMinutes) * 60

	out := make([]types.VwapPoint, 0, len(series))
	start := 0
	for i, p := range series {
		// The point at T itself always stays in the window, whatever the
		// window size.
		for start < i && series[start].Timestamp <= p.Timestamp-window {
			start++
		}

		var weighted, totalVolume float64
		var sum float64
		for _, obs := range series[start : i+1] {
			sum += obs.Mid
			if obs.Volume != nil && *obs.Volume > 0 {
				weighted += obs.Mid * *obs.Volume
				totalVolume += *obs.Volume
			}
		}

		value := sum / float64(i+1-start)
		if totalVolume > 0 {
			value = weighted / totalVolume
		}
		out = append(out, types.VwapPoint{Timestamp: p.Timestamp, Vwap: value})
	}
	return out
}
