package provider

import (
	"context"

	"go.uber.org/zap"
)

// SecurityClient fronts the security provider. Security data is
// best-effort: any failure degrades to nil and analysis proceeds with
// market data alone.
type SecurityClient struct {
	Provider *RugCheckClient
	Logger   *zap.Logger
}

func NewSecurityClient(p *RugCheckClient, logger *zap.Logger) *SecurityClient {
	return &SecurityClient{Provider: p, Logger: logger}
}

func (c *SecurityClient) Fetch(ctx context.Context, chain, address string) *SecurityData {
	if c == nil || c.Provider == nil {
		return nil
	}
	data, err := c.Provider.FetchSecurity(ctx, chain, address)
	if err != nil {
		if c.Logger != nil {
			c.Logger.Warn("security fetch failed",
				zap.String("provider", c.Provider.Name()),
				zap.String("address", truncateAddress(address)),
				zap.String("kind", KindOf(err).String()),
				zap.Error(err),
			)
		}
		return nil
	}
	return data
}
