package cache

import (
	"net/url"
	"testing"
)

func TestKeyDeterministic(t *testing.T) {
	a := url.Values{}
	a.Set("bin", "1008760")
	a.Set("$where", "filing_date > '2024-01-01'")

	b := url.Values{}
	b.Set("$where", "filing_date > '2024-01-01'")
	b.Set("bin", "1008760")

	if Key("nyc_open_data", "ipu4-2q9a", a) != Key("nyc_open_data", "ipu4-2q9a", b) {
		t.Fatalf("key depends on parameter insertion order")
	}
}

func TestKeyDistinguishesDatasets(t *testing.T) {
	params := url.Values{}
	params.Set("bin", "1008760")
	if Key("nyc_open_data", "ipu4-2q9a", params) == Key("nyc_open_data", "3h2n-5cm9", params) {
		t.Fatalf("different datasets share a key")
	}
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	if _, ok := c.Get(t.Context(), "k"); ok {
		t.Fatalf("nil cache reported a hit")
	}
	c.Set(t.Context(), "k", []byte("v"))
	if n, err := c.Purge(t.Context(), "nyc_open_data"); err != nil || n != 0 {
		t.Fatalf("purge on nil cache: n=%d err=%v", n, err)
	}
}
