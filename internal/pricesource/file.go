package pricesource

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"mmstats/types"
)

// FileSource reads price history from a newline-delimited JSON file of
// {"timestamp": ..., "price": ...} records. Malformed lines are skipped
// silently; records outside the requested window are discarded.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource { return &FileSource{Path: path} }

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) AlignStart(start int64) int64 { return start }

// BatchSpan is non-positive: the whole file is read in one pass.
func (s *FileSource) BatchSpan() int64 { return 0 }

func (s *FileSource) FetchBatch(start, end int64) (types.PriceSeries, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open price history file: %w", err)
	}
	defer f.Close()

	var points types.PriceSeries
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var record struct {
			Timestamp int64   `json:"timestamp"`
			Price     float64 `json:"price"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			continue
		}
		if record.Timestamp < start || record.Timestamp > end {
			continue
		}
		points = append(points, types.PricePoint{Timestamp: record.Timestamp, Mid: record.Price})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read price history file: %w", err)
	}
	return points, nil
}
