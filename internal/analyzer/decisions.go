package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"memetracker/internal/models"
)

// DecisionRequest records a disposition for an analyzed call.
type DecisionRequest struct {
	ContractAddress string
	Status          string
	TradeSizeUSD    *float64
	EntryPrice      *float64
	Reasoning       string
	Confidence      int
	EmotionalState  string
	ChartAssessment string
}

// RecordDecision stores the disposition for a call. A TRADE without an
// explicit entry price takes the snapshot price as entry; PASS and WATCH
// carry no entry.
func (s *Service) RecordDecision(ctx context.Context, req DecisionRequest) (*models.Decision, error) {
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	switch status {
	case models.DecisionTrade, models.DecisionPass, models.DecisionWatch:
	default:
		return nil, fmt.Errorf("unknown decision status %q", req.Status)
	}

	call, err := s.requireCall(ctx, req.ContractAddress)
	if err != nil {
		return nil, err
	}

	now := s.now()
	item := &models.Decision{
		CallID:          call.ID,
		Status:          status,
		DecidedAt:       now,
		Reasoning:       strings.TrimSpace(req.Reasoning),
		Confidence:      req.Confidence,
		EmotionalState:  strings.TrimSpace(req.EmotionalState),
		ChartAssessment: strings.TrimSpace(req.ChartAssessment),
	}
	if status == models.DecisionTrade {
		entry, err := s.resolveEntryPrice(ctx, call.ID, req.EntryPrice)
		if err != nil {
			return nil, err
		}
		item.EntryPrice = entry
		item.EntryAt = &now
		if req.TradeSizeUSD != nil {
			size := decimal.NewFromFloat(*req.TradeSizeUSD)
			item.TradeSizeUSD = &size
		}
	}

	if err := s.Repo.UpsertDecision(ctx, item); err != nil {
		return nil, fmt.Errorf("save decision: %w", err)
	}
	s.Logger.Info("decision recorded",
		zap.String("address", call.ContractAddress),
		zap.String("status", status))
	return item, nil
}

// ConvertToTrade promotes a WATCH to a TRADE with a fresh entry price and
// timestamp. Performance tracking restarts from the new entry.
func (s *Service) ConvertToTrade(ctx context.Context, address string, entryPrice *float64, tradeSizeUSD *float64) (*models.Decision, error) {
	call, err := s.requireCall(ctx, address)
	if err != nil {
		return nil, err
	}
	item, err := s.Repo.GetDecisionByCallID(ctx, call.ID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.Status != models.DecisionWatch {
		return nil, fmt.Errorf("no WATCH decision for %s", address)
	}

	entry, err := s.resolveEntryPrice(ctx, call.ID, entryPrice)
	if err != nil {
		return nil, err
	}
	now := s.now()
	item.Status = models.DecisionTrade
	item.EntryPrice = entry
	item.EntryAt = &now
	item.ExitPrice = nil
	item.HoldDurationHours = nil
	if tradeSizeUSD != nil {
		size := decimal.NewFromFloat(*tradeSizeUSD)
		item.TradeSizeUSD = &size
	}
	if err := s.Repo.UpsertDecision(ctx, item); err != nil {
		return nil, fmt.Errorf("convert decision: %w", err)
	}
	s.Logger.Info("watch converted to trade", zap.String("address", call.ContractAddress))
	return item, nil
}

// DemoteWatch downgrades a WATCH to PASS, ending its tracking.
func (s *Service) DemoteWatch(ctx context.Context, address string) (*models.Decision, error) {
	call, err := s.requireCall(ctx, address)
	if err != nil {
		return nil, err
	}
	item, err := s.Repo.GetDecisionByCallID(ctx, call.ID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.Status != models.DecisionWatch {
		return nil, fmt.Errorf("no WATCH decision for %s", address)
	}
	item.Status = models.DecisionPass
	if err := s.Repo.UpsertDecision(ctx, item); err != nil {
		return nil, fmt.Errorf("demote decision: %w", err)
	}
	return item, nil
}

// RecordExit closes an open TRADE with its exit price and computes the
// hold duration.
func (s *Service) RecordExit(ctx context.Context, address string, exitPrice float64) (*models.Decision, error) {
	if exitPrice <= 0 {
		return nil, fmt.Errorf("exit price must be positive")
	}
	call, err := s.requireCall(ctx, address)
	if err != nil {
		return nil, err
	}
	item, err := s.Repo.GetDecisionByCallID(ctx, call.ID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.Status != models.DecisionTrade || !item.Open() {
		return nil, fmt.Errorf("no open TRADE for %s", address)
	}

	exit := decimal.NewFromFloat(exitPrice)
	item.ExitPrice = &exit
	if item.EntryAt != nil {
		hours := s.now().Sub(*item.EntryAt).Hours()
		item.HoldDurationHours = &hours
	}
	if err := s.Repo.UpsertDecision(ctx, item); err != nil {
		return nil, fmt.Errorf("record exit: %w", err)
	}
	s.Logger.Info("trade closed",
		zap.String("address", call.ContractAddress),
		zap.Float64("exit_price", exitPrice))
	return item, nil
}

// AddWallet registers a wallet whose buys should count as smart money.
func (s *Service) AddWallet(ctx context.Context, address, name, notes string) (*models.WalletStats, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("wallet address is required")
	}
	existing, err := s.Repo.GetWalletByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	item := &models.WalletStats{
		WalletAddress: address,
		WalletName:    strings.TrimSpace(name),
		Notes:         strings.TrimSpace(notes),
		Tier:          models.TierC,
		AddedAt:       s.now(),
	}
	if err := s.Repo.UpsertWallet(ctx, item); err != nil {
		return nil, fmt.Errorf("save wallet: %w", err)
	}
	s.Logger.Info("wallet tracked", zap.String("wallet", address))
	return item, nil
}

// RemoveWallet drops a wallet from the registry. Past call outcomes
// credited to it stay in the history.
func (s *Service) RemoveWallet(ctx context.Context, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return fmt.Errorf("wallet address is required")
	}
	existing, err := s.Repo.GetWalletByAddress(ctx, address)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("unknown wallet %s", address)
	}
	if err := s.Repo.DeleteWallet(ctx, address); err != nil {
		return fmt.Errorf("delete wallet: %w", err)
	}
	s.Logger.Info("wallet untracked", zap.String("wallet", address))
	return nil
}

// WalletImport is one row of a bulk wallet registration.
type WalletImport struct {
	WalletAddress string `json:"wallet_address"`
	WalletName    string `json:"wallet_name"`
	Notes         string `json:"notes"`
}

// ImportWallets registers a batch of wallets, skipping blanks and
// already-tracked addresses. Returns how many were newly added.
func (s *Service) ImportWallets(ctx context.Context, items []WalletImport) (int, error) {
	added := 0
	for _, item := range items {
		address := strings.TrimSpace(item.WalletAddress)
		if address == "" {
			continue
		}
		existing, err := s.Repo.GetWalletByAddress(ctx, address)
		if err != nil {
			return added, err
		}
		if existing != nil {
			continue
		}
		if _, err := s.AddWallet(ctx, address, item.WalletName, item.Notes); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

func (s *Service) requireCall(ctx context.Context, address string) (*models.TokenCall, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("contract address is required")
	}
	call, err := s.Repo.GetCallByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	if call == nil {
		return nil, fmt.Errorf("unknown call %s", address)
	}
	return call, nil
}

func (s *Service) resolveEntryPrice(ctx context.Context, callID uint64, explicit *float64) (*decimal.Decimal, error) {
	if explicit != nil {
		if *explicit <= 0 {
			return nil, fmt.Errorf("entry price must be positive")
		}
		d := decimal.NewFromFloat(*explicit)
		return &d, nil
	}
	snap, err := s.Repo.GetSnapshotByCallID(ctx, callID)
	if err != nil {
		return nil, err
	}
	if snap == nil || snap.PriceUSD.IsZero() {
		return nil, fmt.Errorf("no entry price available, supply one explicitly")
	}
	d := snap.PriceUSD
	return &d, nil
}
