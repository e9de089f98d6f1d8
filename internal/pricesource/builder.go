package pricesource

import (
	"fmt"
	"sort"
	"time"

	"mmstats/types"
)

// DefaultGapThreshold is the smallest span between consecutive points that
// counts as missing price data.
const DefaultGapThreshold = 180 * time.Second

// Builder partitions a window into fetch batches, drives a Source per batch
// and assembles the results into one ascending, timestamp-unique series.
// Batches run strictly sequentially.
type Builder struct {
	GapThreshold time.Duration

	// OnBatch, when set, is invoked after each completed batch. The engine
	// hangs its progress bar off this.
	OnBatch func(done, total int)
}

func NewBuilder() *Builder {
	return &Builder{GapThreshold: DefaultGapThreshold}
}

// NumBatches returns how many batches Build will fetch for the window.
func NumBatches(src Source, start, end int64) int {
	span := src.BatchSpan()
	if span <= 0 {
		return 1
	}
	n := 0
	for ts := src.AlignStart(start); ts <= end; ts += span {
		n++
	}
	return n
}

// Build fetches [start, end] from src batch by batch and finalizes the
// result. Each batch begins where the previous one ended; adjacent batches
// may overlap at boundaries, which dedup resolves in favour of the first
// occurrence.
func (b *Builder) Build(src Source, start, end int64) (types.PriceSeries, error) {
	span := src.BatchSpan()
	total := NumBatches(src, start, end)

	var raw types.PriceSeries
	if span <= 0 {
		points, err := src.FetchBatch(start, end)
		if err != nil {
			return nil, fmt.Errorf("fetch prices from %s: %w", src.Name(), err)
		}
		raw = points
		b.notify(1, total)
	} else {
		done := 0
		for ts := src.AlignStart(start); ts <= end; ts += span {
			points, err := src.FetchBatch(ts, ts+span)
			if err != nil {
				return nil, fmt.Errorf("fetch batch [%d, %d] from %s: %w", ts, ts+span, src.Name(), err)
			}
			raw = append(raw, points...)
			done++
			b.notify(done, total)
		}
	}
	return Finalize(raw, start, end), nil
}

func (b *Builder) notify(done, total int) {
	if b.OnBatch != nil {
		b.OnBatch(done, total)
	}
}

// Finalize bounds raw points to [start, end], sorts them ascending and drops
// duplicate timestamps, keeping the first occurrence.
func Finalize(raw types.PriceSeries, start, end int64) types.PriceSeries {
	bounded := make(types.PriceSeries, 0, len(raw))
	for _, p := range raw {
		if p.Timestamp >= start && p.Timestamp <= end {
			bounded = append(bounded, p)
		}
	}
	sort.SliceStable(bounded, func(i, j int) bool {
		return bounded[i].Timestamp < bounded[j].Timestamp
	})

	series := make(types.PriceSeries, 0, len(bounded))
	for _, p := range bounded {
		if n := len(series); n > 0 && series[n-1].Timestamp == p.Timestamp {
			continue
		}
		series = append(series, p)
	}
	return series
}

// Merge combines a primary and an alternative series into one: the primary
// value wins at every timestamp it covers, alternative points fill the
// timestamps the primary lacks. Nothing is interpolated; holes remain holes
// and are reported separately by Gaps.
func Merge(primary, alternative types.PriceSeries) types.PriceSeries {
	covered := make(map[int64]bool, len(primary))
	for _, p := range primary {
		covered[p.Timestamp] = true
	}

	merged := make(types.PriceSeries, 0, len(primary)+len(alternative))
	merged = append(merged, primary...)
	for _, p := range alternative {
		if !covered[p.Timestamp] {
			merged = append(merged, p)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}

// Gaps flags every span between consecutive points wider than the configured
// threshold. Presentation may break the plotted line at these spans; the
// series itself keeps every point.
func (b *Builder) Gaps(series types.PriceSeries) []types.Gap {
	threshold := int64(b.GapThreshold / time.Second)
	if threshold <= 0 {
		threshold = int64(DefaultGapThreshold / time.Second)
	}

	var gaps []types.Gap
	for i := 1; i < len(series); i++ {
		if series[i].Timestamp-series[i-1].Timestamp > threshold {
			gaps = append(gaps, types.Gap{Start: series[i-1].Timestamp, End: series[i].Timestamp})
		}
	}
	return gaps
}
