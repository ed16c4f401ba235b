package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"memetracker/internal/config"
)

func newRugCheckForTest(baseURL string) *RugCheckClient {
	return NewRugCheckClient(
		config.RugCheckConfig{BaseURL: baseURL, Timeout: time.Second},
		&RetryPolicy{MaxAttempts: 1, Logger: zap.NewNop()},
		NewCache(0),
		zap.NewNop(),
	)
}

func TestAuthorityRevoked(t *testing.T) {
	str := func(s string) *string { return &s }
	if !authorityRevoked(nil) || !authorityRevoked(str("")) || !authorityRevoked(str("null")) {
		t.Fatal("missing authority must count as revoked")
	}
	if authorityRevoked(str("7YttL...")) {
		t.Fatal("live authority must not count as revoked")
	}
}

func TestCoerceRugcheckReport(t *testing.T) {
	raw := []byte(`{
		"mintAuthority": null,
		"freezeAuthority": "8abc",
		"topHolders": [
			{"address": "w1", "pct": 18.5},
			{"address": "w2", "pct": "6.25"},
			{"address": "w3", "pct": 3}
		],
		"markets": [{"holder": 950}],
		"score": "412",
		"risks": [{"name": "Honeypot risk detected", "level": "danger"}],
		"transferFee": {"pct": 4.5}
	}`)
	var parsed rugcheckReport
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	sd := coerceRugcheckReport(parsed, raw)

	if !sd.MintAuthorityRevoked || sd.FreezeAuthorityRevoked {
		t.Fatalf("authorities = mint %v freeze %v", sd.MintAuthorityRevoked, sd.FreezeAuthorityRevoked)
	}
	if sd.TopHolderPct != 18.5 {
		t.Fatalf("top holder = %v", sd.TopHolderPct)
	}
	if sd.Top10HoldersPct != 27.75 {
		t.Fatalf("top10 = %v", sd.Top10HoldersPct)
	}
	if sd.HolderCount != 950 || sd.SecurityScore != 412 {
		t.Fatalf("holders = %d score = %v", sd.HolderCount, sd.SecurityScore)
	}
	if !sd.Honeypot {
		t.Fatal("honeypot risk must be flagged")
	}
	if sd.SellTaxPct == nil || *sd.SellTaxPct != 4.5 {
		t.Fatalf("sell tax = %v", sd.SellTaxPct)
	}
	if len(sd.TopHolders) != 3 || sd.TopHolders[1].Pct != 6.25 {
		t.Fatalf("top holders = %+v", sd.TopHolders)
	}
}

func TestRugCheckNotFoundIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newRugCheckForTest(srv.URL).FetchSecurity(context.Background(), "solana", "gone")
	if !IsNoData(err) {
		t.Fatalf("error = %v, want no_data", err)
	}
}

func TestRugCheckUnsupportedChainIsNoData(t *testing.T) {
	c := newRugCheckForTest("http://unused.invalid")
	_, err := c.FetchSecurity(context.Background(), "ethereum", "addr")
	if !IsNoData(err) {
		t.Fatalf("error = %v, want no_data", err)
	}
}
