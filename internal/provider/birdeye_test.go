package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"memetracker/internal/config"
)

func newBirdeyeForTest(baseURL, key string) *BirdeyeClient {
	return NewBirdeyeClient(
		config.BirdeyeConfig{BaseURL: baseURL, APIKey: key, Timeout: time.Second},
		&RetryPolicy{MaxAttempts: 1, Logger: zap.NewNop()},
		NewCache(0),
		zap.NewNop(),
	)
}

func TestBirdeyeFetchMarket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "k" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("x-chain") != "solana" {
			t.Errorf("chain header = %q", r.Header.Get("x-chain"))
		}
		w.Write([]byte(`{"success": true, "data": {
			"price": 0.0021, "liquidity": 34000, "v24hUSD": 120000,
			"marketCap": 2100000, "priceChange1hPercent": -4.2,
			"buy24h": 300, "sell24h": 180, "holder": 1200,
			"symbol": "WIF", "name": "dogwifhat"}}`))
	}))
	defer srv.Close()

	md, err := newBirdeyeForTest(srv.URL, "k").FetchMarket(context.Background(), "solana", "addr")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if md.PriceUSD != 0.0021 || md.TotalLiquidity != 34000 || md.TokenSymbol != "WIF" {
		t.Fatalf("coerced = %+v", md)
	}
	if md.HolderCount == nil || *md.HolderCount != 1200 {
		t.Fatalf("holders = %v", md.HolderCount)
	}
	if md.PriceChange1h == nil || *md.PriceChange1h != -4.2 {
		t.Fatalf("price change = %v", md.PriceChange1h)
	}
}

func TestBirdeyeEmptyOverviewIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false}`))
	}))
	defer srv.Close()

	_, err := newBirdeyeForTest(srv.URL, "k").FetchMarket(context.Background(), "solana", "gone")
	if !IsNoData(err) {
		t.Fatalf("error = %v, want no_data", err)
	}
}

func TestBirdeyeMissingAPIKeyFailsFast(t *testing.T) {
	_, err := newBirdeyeForTest("http://unused.invalid", "").FetchMarket(context.Background(), "solana", "addr")
	if KindOf(err) != KindClient {
		t.Fatalf("error = %v, want client", err)
	}
}
