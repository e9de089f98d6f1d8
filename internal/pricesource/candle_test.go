package pricesource

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"mmstats/internal/pricecache"
	"mmstats/types"
)

// fixedNow keeps every test range safely cacheable or not, independent of the
// wall clock.
var fixedNow = time.Unix(1600000000, 0).UTC()

func newTestCandleSource(t *testing.T, serverURL string, cache *pricecache.Cache) *CandleSource {
	t.Helper()
	s := NewCandleSource(serverURL, "ETH-USD", cache)
	s.NetworkWait = 0
	s.RateLimitWait = 0
	s.Now = func() time.Time { return fixedNow }
	return s
}

func TestCandleSourceDecodesMidpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("granularity"); got != "60" {
			t.Errorf("granularity = %q, want 60", got)
		}
		if got := r.URL.Query().Get("start"); got != "2017-07-14T02:40:00Z" {
			t.Errorf("start = %q, want ISO-8601 with trailing Z", got)
		}
		// [time, low, high, open, close, volume]; the second tuple is
		// outside the requested range and must be filtered out.
		fmt.Fprint(w, `[[1500000060,100,110,101,109,5.5],[1500086400,200,210,202,208,1]]`)
	}))
	defer server.Close()

	s := newTestCandleSource(t, server.URL, nil)
	got, err := s.FetchBatch(1500000000, 1500014400)
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}

	low, high, volume := 100.0, 110.0, 5.5
	want := types.PriceSeries{{Timestamp: 1500000060, Mid: 105, Low: &low, High: &high, Volume: &volume}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FetchBatch() = %+v, want %+v", got, want)
	}
}

func TestCandleSourceRetriesRateLimit(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			fmt.Fprint(w, `{"message":"too many requests"}`)
			return
		}
		fmt.Fprint(w, `[[1500000060,100,110,101,109,5.5]]`)
	}))
	defer server.Close()

	s := newTestCandleSource(t, server.URL, nil)
	got, err := s.FetchBatch(1500000000, 1500014400)
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("upstream calls = %d, want 3 (two rate-limited attempts retried)", calls)
	}
	if len(got) != 1 {
		t.Errorf("len(points) = %d, want 1", len(got))
	}
}

func TestCandleSourceRetriesNonJSONBody(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			fmt.Fprint(w, `<html>bad gateway</html>`)
			return
		}
		fmt.Fprint(w, `[[1500000060,100,110,101,109,5.5]]`)
	}))
	defer server.Close()

	s := newTestCandleSource(t, server.URL, nil)
	got, err := s.FetchBatch(1500000000, 1500014400)
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("upstream calls = %d, want 2", calls)
	}
	if len(got) != 1 {
		t.Errorf("len(points) = %d, want 1", len(got))
	}
}

// A cacheable range primed once must be served without any network call: the
// second fetch runs against a server that is already closed.
func TestCandleSourceCacheTransparency(t *testing.T) {
	cache, err := pricecache.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `[[1500000060,100,110,101,109,5.5]]`)
	}))

	s := newTestCandleSource(t, server.URL, cache)
	first, err := s.FetchBatch(1500000000, 1500014400)
	if err != nil {
		t.Fatalf("priming FetchBatch() error = %v", err)
	}
	if calls != 1 {
		t.Fatalf("upstream calls = %d, want 1", calls)
	}

	server.Close()

	second, err := s.FetchBatch(1500000000, 1500014400)
	if err != nil {
		t.Fatalf("cached FetchBatch() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached fetch = %+v, want %+v", second, first)
	}
}

// A range ending within the safety margin of now must not be cached.
func TestCandleSourceRecentRangeNotCached(t *testing.T) {
	cache, err := pricecache.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	s := newTestCandleSource(t, server.URL, cache)
	end := fixedNow.Unix() - 60 // inside the one-hour margin
	start := end - candleBatchSpan

	for i := 0; i < 2; i++ {
		if _, err := s.FetchBatch(start, end); err != nil {
			t.Fatalf("FetchBatch() error = %v", err)
		}
	}
	if calls != 2 {
		t.Errorf("upstream calls = %d, want 2 (recent range must bypass the cache)", calls)
	}
}

func TestCandleSourceAlignStart(t *testing.T) {
	// 2017-07-14 02:40:00 UTC -> 2017-07-14 00:00:00 UTC
	s := NewCandleSource("http://example.invalid", "ETH-USD", nil)
	got := s.AlignStart(1500000000)
	want := time.Date(2017, 7, 14, 0, 0, 0, 0, time.UTC).Unix()
	if got != want {
		t.Errorf("AlignStart(1500000000) = %d, want %d", got, want)
	}
}
