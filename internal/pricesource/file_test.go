package pricesource

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"mmstats/types"
)

func TestFileSourceSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.json")
	content := `{"timestamp": 100, "price": 1.5}
not json at all
{"timestamp": 160, "price": 2.5}
{"timestamp": 999, "price": 9.9}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := NewFileSource(path).FetchBatch(100, 200)
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	want := types.PriceSeries{
		{Timestamp: 100, Mid: 1.5},
		{Timestamp: 160, Mid: 2.5},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FetchBatch() = %+v, want %+v", got, want)
	}
}

func TestFileSourceMissingFileIsFatal(t *testing.T) {
	if _, err := NewFileSource("does/not/exist.json").FetchBatch(0, 100); err == nil {
		t.Fatal("FetchBatch() on a missing file should fail")
	}
}
