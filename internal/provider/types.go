package provider

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// MarketData is the typed, coerced view of a market provider payload.
// Untyped maps never flow past this package.
type MarketData struct {
	Provider string

	PriceUSD          float64
	LiquidityUSD      float64
	MainPoolLiquidity float64
	TotalLiquidity    float64
	MainPoolDex       string
	Volume24h         float64
	MarketCap         float64

	PriceChange5m  *float64
	PriceChange1h  *float64
	PriceChange24h *float64

	BuyCount24h  *int
	SellCount24h *int
	HolderCount  *int

	TokenSymbol string
	TokenName   string

	PairCreatedAt *time.Time

	Raw json.RawMessage
}

// TokenAgeHours derives the token age from the pair creation time, 0 when
// the provider does not report one.
func (m *MarketData) TokenAgeHours(now time.Time) float64 {
	if m == nil || m.PairCreatedAt == nil {
		return 0
	}
	age := now.Sub(*m.PairCreatedAt)
	if age < 0 {
		return 0
	}
	return age.Hours()
}

// Holder is one top-holder entry from the security provider.
type Holder struct {
	Address string
	Pct     float64
}

// SecurityData is the typed, coerced view of a security provider payload.
type SecurityData struct {
	MintAuthorityRevoked   bool
	FreezeAuthorityRevoked bool

	TopHolderPct    float64
	Top10HoldersPct float64
	HolderCount     int
	TopHolders      []Holder

	SecurityScore float64
	SellTaxPct    *float64
	Honeypot      bool

	Raw json.RawMessage
}

// flexFloat tolerates providers that encode numbers as strings (for
// example DexScreener's priceUsd). Missing, null, and empty values decode
// to zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

func (f flexFloat) value() float64 {
	return float64(f)
}

func (f *flexFloat) ptr() *float64 {
	if f == nil {
		return nil
	}
	v := float64(*f)
	return &v
}

// chainIDs maps the normalized blockchain name to per-provider chain
// identifiers. Unknown chains fall back to solana, the dominant chain for
// this kind of token.
type chainIDs struct {
	Birdeye     string
	DexScreener string
}

var chains = map[string]chainIDs{
	"solana":   {Birdeye: "solana", DexScreener: "solana"},
	"ethereum": {Birdeye: "ethereum", DexScreener: "ethereum"},
	"base":     {Birdeye: "base", DexScreener: "base"},
	"bsc":      {Birdeye: "bsc", DexScreener: "bsc"},
}

func chainFor(name string) chainIDs {
	if ids, ok := chains[strings.ToLower(strings.TrimSpace(name))]; ok {
		return ids
	}
	return chains["solana"]
}
