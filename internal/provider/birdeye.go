package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"memetracker/internal/config"
)

const birdeyeName = "birdeye"

// BirdeyeClient is the primary market data provider.
type BirdeyeClient struct {
	HTTP    *http.Client
	BaseURL string
	APIKey  string
	Logger  *zap.Logger
	Retry   *RetryPolicy
	Cache   *Cache
}

func NewBirdeyeClient(cfg config.BirdeyeConfig, retry *RetryPolicy, cache *Cache, logger *zap.Logger) *BirdeyeClient {
	return &BirdeyeClient{
		HTTP:    &http.Client{Timeout: cfg.Timeout},
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Logger:  logger,
		Retry:   retry,
		Cache:   cache,
	}
}

func (c *BirdeyeClient) Name() string { return birdeyeName }

// birdeyeOverview mirrors the token_overview response envelope.
type birdeyeOverview struct {
	Success bool `json:"success"`
	Data    struct {
		Price          flexFloat  `json:"price"`
		Liquidity      flexFloat  `json:"liquidity"`
		Volume24h      flexFloat  `json:"v24hUSD"`
		MarketCap      flexFloat  `json:"marketCap"`
		PriceChange5m  *flexFloat `json:"priceChange5mPercent"`
		PriceChange1h  *flexFloat `json:"priceChange1hPercent"`
		PriceChange24h *flexFloat `json:"priceChange24hPercent"`
		Buy24h         *int       `json:"buy24h"`
		Sell24h        *int       `json:"sell24h"`
		Holder         *int       `json:"holder"`
		Symbol         string     `json:"symbol"`
		Name           string     `json:"name"`
	} `json:"data"`
}

func (c *BirdeyeClient) FetchMarket(ctx context.Context, chain, address string) (*MarketData, error) {
	if cached, ok := c.Cache.Get(birdeyeName, chain, address); ok {
		return cached.(*MarketData), nil
	}
	if c.APIKey == "" {
		return nil, wrapErr(birdeyeName, KindClient, fmt.Errorf("api key not configured"))
	}

	var out *MarketData
	err := c.Retry.Do(ctx, "birdeye.token_overview", func(ctx context.Context) error {
		data, err := c.fetchOnce(ctx, chain, address)
		if err != nil {
			return err
		}
		out = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.Cache.Set(birdeyeName, chain, address, out)
	return out, nil
}

func (c *BirdeyeClient) fetchOnce(ctx context.Context, chain, address string) (*MarketData, error) {
	u := c.BaseURL + "/defi/token_overview?address=" + url.QueryEscape(address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, wrapErr(birdeyeName, KindClient, err)
	}
	req.Header.Set("X-API-KEY", c.APIKey)
	req.Header.Set("x-chain", chainFor(chain).Birdeye)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, classifyTransport(birdeyeName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(birdeyeName, resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapErr(birdeyeName, KindNetwork, err)
	}

	var parsed birdeyeOverview
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, wrapErr(birdeyeName, KindParse, err)
	}
	if !parsed.Success || parsed.Data.Price.value() <= 0 {
		return nil, wrapErr(birdeyeName, KindNoData, fmt.Errorf("empty overview for %s", address))
	}

	d := parsed.Data
	liquidity := d.Liquidity.value()
	md := &MarketData{
		Provider:          birdeyeName,
		PriceUSD:          d.Price.value(),
		LiquidityUSD:      liquidity,
		MainPoolLiquidity: liquidity,
		TotalLiquidity:    liquidity,
		MainPoolDex:       "birdeye",
		Volume24h:         d.Volume24h.value(),
		MarketCap:         d.MarketCap.value(),
		PriceChange5m:     d.PriceChange5m.ptr(),
		PriceChange1h:     d.PriceChange1h.ptr(),
		PriceChange24h:    d.PriceChange24h.ptr(),
		BuyCount24h:       d.Buy24h,
		SellCount24h:      d.Sell24h,
		HolderCount:       d.Holder,
		TokenSymbol:       d.Symbol,
		TokenName:         d.Name,
		Raw:               json.RawMessage(body),
	}
	return md, nil
}
