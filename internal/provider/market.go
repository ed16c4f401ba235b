package provider

import (
	"context"

	"go.uber.org/zap"
)

// marketFetcher is the shape both market providers share.
type marketFetcher interface {
	Name() string
	FetchMarket(ctx context.Context, chain, address string) (*MarketData, error)
}

// MarketResult distinguishes three outcomes: data, confirmed-absent
// (the provider responded and the token does not resolve), and unknown
// (every provider failed). Unknown must never be treated as token death.
type MarketResult struct {
	Data   *MarketData
	Absent bool
}

// Known reports whether the fetch produced a usable answer (data or a
// confirmed absence).
func (r MarketResult) Known() bool {
	return r.Data != nil || r.Absent
}

// MarketClient fronts the primary provider with a fallback. It never
// returns an error to its caller; total failure degrades to an unknown
// result after logging.
type MarketClient struct {
	Primary  marketFetcher
	Fallback marketFetcher
	Logger   *zap.Logger
}

func NewMarketClient(primary, fallback marketFetcher, logger *zap.Logger) *MarketClient {
	return &MarketClient{Primary: primary, Fallback: fallback, Logger: logger}
}

func (c *MarketClient) Fetch(ctx context.Context, chain, address string) MarketResult {
	data, primaryErr := c.Primary.FetchMarket(ctx, chain, address)
	if primaryErr == nil {
		return MarketResult{Data: data}
	}
	c.logFailure(c.Primary.Name(), address, primaryErr)

	if c.Fallback == nil {
		return MarketResult{Absent: IsNoData(primaryErr)}
	}

	data, fallbackErr := c.Fallback.FetchMarket(ctx, chain, address)
	if fallbackErr == nil {
		return MarketResult{Data: data}
	}
	c.logFailure(c.Fallback.Name(), address, fallbackErr)

	// Only a double confirmation counts as token death; any transient
	// failure leaves the result unknown.
	return MarketResult{Absent: IsNoData(primaryErr) && IsNoData(fallbackErr)}
}

func (c *MarketClient) logFailure(provider, address string, err error) {
	if c.Logger == nil {
		return
	}
	c.Logger.Warn("market fetch failed",
		zap.String("provider", provider),
		zap.String("address", truncateAddress(address)),
		zap.String("kind", KindOf(err).String()),
		zap.Error(err),
	)
}

func truncateAddress(address string) string {
	if len(address) > 16 {
		return address[:16]
	}
	return address
}
