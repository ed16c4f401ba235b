package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"memetracker/internal/config"
)

const rugcheckName = "rugcheck"

// RugCheckClient is the security data provider. It only covers solana;
// other chains report no data.
type RugCheckClient struct {
	HTTP    *http.Client
	BaseURL string
	Logger  *zap.Logger
	Retry   *RetryPolicy
	Cache   *Cache
}

func NewRugCheckClient(cfg config.RugCheckConfig, retry *RetryPolicy, cache *Cache, logger *zap.Logger) *RugCheckClient {
	return &RugCheckClient{
		HTTP:    &http.Client{Timeout: cfg.Timeout},
		BaseURL: cfg.BaseURL,
		Logger:  logger,
		Retry:   retry,
		Cache:   cache,
	}
}

func (c *RugCheckClient) Name() string { return rugcheckName }

type rugcheckReport struct {
	MintAuthority   *string `json:"mintAuthority"`
	FreezeAuthority *string `json:"freezeAuthority"`
	TopHolders      []struct {
		Address string    `json:"address"`
		Pct     flexFloat `json:"pct"`
	} `json:"topHolders"`
	Markets []struct {
		Holder int `json:"holder"`
	} `json:"markets"`
	Score flexFloat `json:"score"`
	Risks []struct {
		Name  string `json:"name"`
		Level string `json:"level"`
	} `json:"risks"`
	TransferFee struct {
		Pct *flexFloat `json:"pct"`
	} `json:"transferFee"`
}

func (c *RugCheckClient) FetchSecurity(ctx context.Context, chain, address string) (*SecurityData, error) {
	if !strings.EqualFold(strings.TrimSpace(chain), "solana") && strings.TrimSpace(chain) != "" {
		return nil, wrapErr(rugcheckName, KindNoData, fmt.Errorf("unsupported chain %q", chain))
	}
	if cached, ok := c.Cache.Get(rugcheckName, chain, address); ok {
		return cached.(*SecurityData), nil
	}

	var out *SecurityData
	err := c.Retry.Do(ctx, "rugcheck.report", func(ctx context.Context) error {
		data, err := c.fetchOnce(ctx, address)
		if err != nil {
			return err
		}
		out = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.Cache.Set(rugcheckName, chain, address, out)
	return out, nil
}

func (c *RugCheckClient) fetchOnce(ctx context.Context, address string) (*SecurityData, error) {
	u := c.BaseURL + "/v1/tokens/" + address + "/report"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, wrapErr(rugcheckName, KindClient, err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, classifyTransport(rugcheckName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, wrapErr(rugcheckName, KindNoData, fmt.Errorf("no report for %s", address))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(rugcheckName, resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapErr(rugcheckName, KindNetwork, err)
	}

	var parsed rugcheckReport
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, wrapErr(rugcheckName, KindParse, err)
	}

	return coerceRugcheckReport(parsed, body), nil
}

func coerceRugcheckReport(r rugcheckReport, raw []byte) *SecurityData {
	sd := &SecurityData{
		MintAuthorityRevoked:   authorityRevoked(r.MintAuthority),
		FreezeAuthorityRevoked: authorityRevoked(r.FreezeAuthority),
		SecurityScore:          r.Score.value(),
		SellTaxPct:             r.TransferFee.Pct.ptr(),
		Raw:                    json.RawMessage(raw),
	}

	for i, h := range r.TopHolders {
		pct := h.Pct.value()
		if i == 0 {
			sd.TopHolderPct = pct
		}
		if i < 10 {
			sd.Top10HoldersPct += pct
		}
		sd.TopHolders = append(sd.TopHolders, Holder{Address: h.Address, Pct: pct})
	}
	if len(r.Markets) > 0 {
		sd.HolderCount = r.Markets[0].Holder
	}
	for _, risk := range r.Risks {
		if strings.Contains(strings.ToLower(risk.Name), "honeypot") {
			sd.Honeypot = true
		}
	}
	return sd
}

// authorityRevoked treats a missing or literal "null" authority as
// permanently revoked, matching the provider's report semantics.
func authorityRevoked(authority *string) bool {
	return authority == nil || *authority == "" || *authority == "null"
}
