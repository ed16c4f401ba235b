// Package analyzer turns an incoming token call into a scored snapshot
// and manages the decision lifecycle around it.
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"memetracker/internal/models"
	"memetracker/internal/provider"
	"memetracker/internal/repository"
	"memetracker/internal/scoring"
)

type Service struct {
	Repo     repository.Repository
	Market   *provider.MarketClient
	Security *provider.SecurityClient
	Logger   *zap.Logger

	now func() time.Time
}

func New(repo repository.Repository, market *provider.MarketClient, security *provider.SecurityClient, logger *zap.Logger) *Service {
	return &Service{
		Repo:     repo,
		Market:   market,
		Security: security,
		Logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CallRequest is an incoming alert about a token.
type CallRequest struct {
	ContractAddress string
	TokenSymbol     string
	TokenName       string
	Blockchain      string
	Sources         []string
}

// SmartMoneyMatch is a tracked wallet found among a token's top holders.
type SmartMoneyMatch struct {
	WalletAddress string
	WalletName    string
	HoldingPct    float64
}

// Analysis is the scored view returned to the caller. Duplicate is set
// when the address was already known; the stored snapshot is returned
// unchanged in that case.
type Analysis struct {
	Call         *models.TokenCall
	Snapshot     *models.Snapshot
	Duplicate    bool
	DataKnown    bool
	SafetyScore  float64
	Momentum     float64
	HoneypotRisk scoring.Risk
	Distribution string
	RedFlags     []string
	SmartMoney   []SmartMoneyMatch
}

// AnalyzeCall ingests one call. A repeated address merges the new source
// labels into the existing call instead of creating a second row, so a
// token called by five channels stays one tracked position credited to
// all five.
func (s *Service) AnalyzeCall(ctx context.Context, req CallRequest) (*Analysis, error) {
	address := strings.TrimSpace(req.ContractAddress)
	if address == "" {
		return nil, fmt.Errorf("contract address is required")
	}
	chain := strings.ToLower(strings.TrimSpace(req.Blockchain))
	if chain == "" {
		chain = "solana"
	}

	existing, err := s.Repo.GetCallByAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("look up call: %w", err)
	}
	if existing != nil {
		return s.mergeSources(ctx, existing, req.Sources)
	}

	call := &models.TokenCall{
		ContractAddress: address,
		TokenSymbol:     strings.TrimSpace(req.TokenSymbol),
		TokenName:       strings.TrimSpace(req.TokenName),
		Sources:         models.JoinSources("", req.Sources...),
		Blockchain:      chain,
		ReceivedAt:      s.now(),
	}

	market := s.Market.Fetch(ctx, chain, address)
	var security *provider.SecurityData
	if market.Known() && !market.Absent {
		security = s.Security.Fetch(ctx, chain, address)
	}
	if call.TokenSymbol == "" && market.Data != nil {
		call.TokenSymbol = market.Data.TokenSymbol
		call.TokenName = market.Data.TokenName
	}

	if err := s.Repo.CreateCall(ctx, call); err != nil {
		return nil, fmt.Errorf("create call: %w", err)
	}
	// CreateCall returns the existing row when a concurrent insert won the
	// race; fold our labels into it like any other duplicate.
	if merged := models.JoinSources(call.Sources, req.Sources...); merged != call.Sources {
		if err := s.Repo.UpdateCallSources(ctx, call.ID, merged); err != nil {
			return nil, fmt.Errorf("merge sources: %w", err)
		}
		call.Sources = merged
	}

	analysis := &Analysis{Call: call}
	if !market.Known() || market.Absent {
		s.Logger.Warn("call stored without snapshot, no market data",
			zap.String("address", address),
			zap.Bool("absent", market.Absent))
		return analysis, nil
	}

	analysis.DataKnown = true
	s.score(analysis, market.Data, security)

	wallets, err := s.Repo.ListWallets(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	analysis.SmartMoney = matchSmartMoney(security, wallets)
	if n := len(analysis.SmartMoney); n > 0 {
		// Smart-money presence feeds back into the safety score.
		in := scoringInput(market.Data, security, s.now())
		in.SmartMoneyCount = n
		analysis.SafetyScore = scoring.SafetyScore(in)
	}

	snapshot := buildSnapshot(call.ID, market.Data, security, analysis, s.now())
	if err := s.Repo.UpsertSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	analysis.Snapshot = snapshot

	s.Logger.Info("call analyzed",
		zap.String("address", address),
		zap.String("symbol", call.TokenSymbol),
		zap.Float64("safety", analysis.SafetyScore),
		zap.Float64("momentum", analysis.Momentum),
		zap.String("honeypot", string(analysis.HoneypotRisk)))
	return analysis, nil
}

func (s *Service) mergeSources(ctx context.Context, call *models.TokenCall, sources []string) (*Analysis, error) {
	merged := models.JoinSources(call.Sources, sources...)
	if merged != call.Sources {
		if err := s.Repo.UpdateCallSources(ctx, call.ID, merged); err != nil {
			return nil, fmt.Errorf("merge sources: %w", err)
		}
		call.Sources = merged
		s.Logger.Info("duplicate call, sources merged",
			zap.String("address", call.ContractAddress),
			zap.String("sources", merged))
	}
	snapshot, err := s.Repo.GetSnapshotByCallID(ctx, call.ID)
	if err != nil {
		return nil, err
	}
	return &Analysis{
		Call:      call,
		Snapshot:  snapshot,
		Duplicate: true,
		DataKnown: snapshot != nil,
	}, nil
}

func (s *Service) score(a *Analysis, md *provider.MarketData, sec *provider.SecurityData) {
	in := scoringInput(md, sec, s.now())
	a.SafetyScore = scoring.SafetyScore(in)
	a.Momentum = scoring.MomentumScore(in)
	a.HoneypotRisk = scoring.HoneypotRisk(in)
	a.RedFlags = scoring.RedFlags(in)
	a.Distribution, _ = scoring.HolderDistribution(in.TopHolderPct, in.Top5HoldersPct, in.Top10HoldersPct)
}

func scoringInput(md *provider.MarketData, sec *provider.SecurityData, now time.Time) scoring.Input {
	in := scoring.Input{
		LiquidityUSD:   md.LiquidityUSD,
		Volume24h:      md.Volume24h,
		TokenAgeHours:  md.TokenAgeHours(now),
		BuyCount24h:    md.BuyCount24h,
		SellCount24h:   md.SellCount24h,
		PriceChange5m:  md.PriceChange5m,
		PriceChange1h:  md.PriceChange1h,
		PriceChange24h: md.PriceChange24h,
	}
	if sec != nil {
		in.MintAuthorityRevoked = &sec.MintAuthorityRevoked
		in.FreezeAuthorityRevoked = &sec.FreezeAuthorityRevoked
		in.TopHolderPct = &sec.TopHolderPct
		in.Top10HoldersPct = &sec.Top10HoldersPct
		in.SellTaxPct = sec.SellTaxPct
	}
	return in
}

func buildSnapshot(callID uint64, md *provider.MarketData, sec *provider.SecurityData, a *Analysis, now time.Time) *models.Snapshot {
	snap := &models.Snapshot{
		CallID:            callID,
		SnapshotAt:        now,
		PriceUSD:          decimal.NewFromFloat(md.PriceUSD),
		LiquidityUSD:      decimal.NewFromFloat(md.LiquidityUSD),
		MainPoolLiquidity: decimal.NewFromFloat(md.MainPoolLiquidity),
		TotalLiquidity:    decimal.NewFromFloat(md.TotalLiquidity),
		MainPoolDex:       md.MainPoolDex,
		MarketCap:         decimal.NewFromFloat(md.MarketCap),
		Volume24h:         decimal.NewFromFloat(md.Volume24h),
		HolderCount:       md.HolderCount,
		TokenAgeHours:     md.TokenAgeHours(now),
		SafetyScore:       a.SafetyScore,
		HoneypotRisk:      string(a.HoneypotRisk),
		MomentumScore:     a.Momentum,
		BuyCount24h:       md.BuyCount24h,
		SellCount24h:      md.SellCount24h,
		PriceChange5m:     md.PriceChange5m,
		PriceChange1h:     md.PriceChange1h,
		PriceChange24h:    md.PriceChange24h,
	}
	if sec != nil {
		snap.TopHolderPct = &sec.TopHolderPct
		snap.Top10HoldersPct = &sec.Top10HoldersPct
		snap.MintAuthorityRevoked = &sec.MintAuthorityRevoked
		snap.FreezeAuthorityRevoked = &sec.FreezeAuthorityRevoked
		snap.SecurityScore = &sec.SecurityScore
	}
	if len(md.Raw) > 0 {
		snap.RawData = datatypes.JSON(md.Raw)
	}
	return snap
}

func matchSmartMoney(sec *provider.SecurityData, wallets []models.WalletStats) []SmartMoneyMatch {
	if sec == nil || len(sec.TopHolders) == 0 || len(wallets) == 0 {
		return nil
	}
	byAddress := make(map[string]models.WalletStats, len(wallets))
	for _, w := range wallets {
		byAddress[strings.ToLower(w.WalletAddress)] = w
	}
	var out []SmartMoneyMatch
	for _, h := range sec.TopHolders {
		w, ok := byAddress[strings.ToLower(h.Address)]
		if !ok {
			continue
		}
		out = append(out, SmartMoneyMatch{
			WalletAddress: w.WalletAddress,
			WalletName:    w.WalletName,
			HoldingPct:    h.Pct,
		})
	}
	return out
}
