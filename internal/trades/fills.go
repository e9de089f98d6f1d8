package trades

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"mmstats/types"
)

// ReadFills decodes a JSON array of raw fill records, the shape the exchange
// log parsing collaborator produces.
func ReadFills(r io.Reader) ([]types.RawFill, error) {
	var fills []types.RawFill
	if err := json.NewDecoder(r).Decode(&fills); err != nil {
		return nil, fmt.Errorf("decode fills: %w", err)
	}
	return fills, nil
}

// ReadFillsFile reads raw fills from a file.
func ReadFillsFile(path string) ([]types.RawFill, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fills file: %w", err)
	}
	defer f.Close()
	return ReadFills(f)
}
