package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"memetracker/internal/config"
)

const dexscreenerName = "dexscreener"

// DexScreenerClient is the fallback market data provider. Unlike Birdeye
// it reports per-pair data, so liquidity is aggregated across pairs and
// the highest-liquidity pair becomes the main pool.
type DexScreenerClient struct {
	HTTP    *http.Client
	BaseURL string
	Logger  *zap.Logger
	Retry   *RetryPolicy
	Cache   *Cache
}

func NewDexScreenerClient(cfg config.DexScreenerConfig, retry *RetryPolicy, cache *Cache, logger *zap.Logger) *DexScreenerClient {
	return &DexScreenerClient{
		HTTP:    &http.Client{Timeout: cfg.Timeout},
		BaseURL: cfg.BaseURL,
		Logger:  logger,
		Retry:   retry,
		Cache:   cache,
	}
}

func (c *DexScreenerClient) Name() string { return dexscreenerName }

type dexScreenerResponse struct {
	Pairs []dexScreenerPair `json:"pairs"`
}

type dexScreenerPair struct {
	ChainID     string `json:"chainId"`
	DexID       string `json:"dexId"`
	PairAddress string `json:"pairAddress"`
	BaseToken   struct {
		Symbol string `json:"symbol"`
		Name   string `json:"name"`
	} `json:"baseToken"`
	PriceUSD  flexFloat `json:"priceUsd"`
	Liquidity struct {
		USD flexFloat `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H24 flexFloat `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		M5  *flexFloat `json:"m5"`
		H1  *flexFloat `json:"h1"`
		H24 *flexFloat `json:"h24"`
	} `json:"priceChange"`
	Txns struct {
		H24 struct {
			Buys  *int `json:"buys"`
			Sells *int `json:"sells"`
		} `json:"h24"`
	} `json:"txns"`
	FDV           flexFloat `json:"fdv"`
	PairCreatedAt int64     `json:"pairCreatedAt"`
}

func (c *DexScreenerClient) FetchMarket(ctx context.Context, chain, address string) (*MarketData, error) {
	if cached, ok := c.Cache.Get(dexscreenerName, chain, address); ok {
		return cached.(*MarketData), nil
	}

	var out *MarketData
	err := c.Retry.Do(ctx, "dexscreener.tokens", func(ctx context.Context) error {
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
	c.Cache.Set(dexscreenerName, chain, address, out)
	return out, nil
}

func (c *DexScreenerClient) fetchOnce(ctx context.Context, chain, address string) (*MarketData, error) {
	u := c.BaseURL + "/latest/dex/tokens/" + address
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, wrapErr(dexscreenerName, KindClient, err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, classifyTransport(dexscreenerName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(dexscreenerName, resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapErr(dexscreenerName, KindNetwork, err)
	}

	var parsed dexScreenerResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, wrapErr(dexscreenerName, KindParse, err)
	}
	if len(parsed.Pairs) == 0 {
		return nil, wrapErr(dexscreenerName, KindNoData, fmt.Errorf("no pairs for %s", address))
	}

	return coerceDexScreenerPairs(parsed.Pairs, body), nil
}

// coerceDexScreenerPairs folds the pair list into a single MarketData:
// main pool = highest-liquidity pair, total liquidity = sum over pairs.
func coerceDexScreenerPairs(pairs []dexScreenerPair, raw []byte) *MarketData {
	sorted := make([]dexScreenerPair, len(pairs))
	copy(sorted, pairs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Liquidity.USD.value() > sorted[j].Liquidity.USD.value()
	})
	main := sorted[0]

	total := 0.0
	for _, p := range sorted {
		total += p.Liquidity.USD.value()
	}
	mainLiquidity := main.Liquidity.USD.value()

	md := &MarketData{
		Provider:          dexscreenerName,
		PriceUSD:          main.PriceUSD.value(),
		LiquidityUSD:      mainLiquidity,
		MainPoolLiquidity: mainLiquidity,
		TotalLiquidity:    total,
		MainPoolDex:       main.DexID,
		Volume24h:         main.Volume.H24.value(),
		MarketCap:         main.FDV.value(),
		PriceChange5m:     main.PriceChange.M5.ptr(),
		PriceChange1h:     main.PriceChange.H1.ptr(),
		PriceChange24h:    main.PriceChange.H24.ptr(),
		BuyCount24h:       main.Txns.H24.Buys,
		SellCount24h:      main.Txns.H24.Sells,
		TokenSymbol:       main.BaseToken.Symbol,
		TokenName:         main.BaseToken.Name,
		Raw:               json.RawMessage(raw),
	}
	if main.PairCreatedAt > 0 {
		created := time.UnixMilli(main.PairCreatedAt).UTC()
		md.PairCreatedAt = &created
	}
	return md
}
