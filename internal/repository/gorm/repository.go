package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"memetracker/internal/models"
	"memetracker/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- Token calls ------------------------------------------------------------

func (s *Store) CreateCall(ctx context.Context, item *models.TokenCall) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.ContractAddress = strings.TrimSpace(item.ContractAddress)
	if item.ContractAddress == "" {
		return nil
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "contract_address"}},
		DoNothing: true,
	}).Create(item)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Lost a race with a concurrent insert for the same address;
		// hand back the winner's row instead of a constraint error.
		existing, err := s.GetCallByAddress(ctx, item.ContractAddress)
		if err != nil {
			return err
		}
		if existing != nil {
			*item = *existing
		}
	}
	return nil
}

func (s *Store) GetCallByAddress(ctx context.Context, address string) (*models.TokenCall, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, nil
	}
	var item models.TokenCall
	err := s.db.WithContext(ctx).
		Model(&models.TokenCall{}).
		Where("contract_address = ?", address).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetCallByID(ctx context.Context, id uint64) (*models.TokenCall, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if id == 0 {
		return nil, nil
	}
	var item models.TokenCall
	err := s.db.WithContext(ctx).Model(&models.TokenCall{}).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateCallSources(ctx context.Context, id uint64, sources string) error {
	if s == nil || s.db == nil {
		return nil
	}
	if id == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.TokenCall{}).
		Where("id = ?", id).
		Updates(map[string]any{"sources": sources, "updated_at": time.Now().UTC()}).
		Error
}

func (s *Store) ListCalls(ctx context.Context, params repository.ListCallsParams) ([]models.TokenCall, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.TokenCall{})
	if params.Source != nil && strings.TrimSpace(*params.Source) != "" {
		query = query.Where(sourceMatchExpr, sourceMatchArg(*params.Source))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("received_at >= ?", params.Since.UTC())
	}
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.TokenCall
	if err := query.Order("received_at desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountCalls(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := s.db.WithContext(ctx).Model(&models.TokenCall{}).Count(&total).Error
	return total, err
}

// --- Snapshots --------------------------------------------------------------

func (s *Store) UpsertSnapshot(ctx context.Context, item *models.Snapshot) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if item.CallID == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "call_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"snapshot_at",
			"price_usd",
			"liquidity_usd",
			"main_pool_liquidity",
			"total_liquidity",
			"main_pool_dex",
			"market_cap",
			"volume24h",
			"holder_count",
			"top_holder_pct",
			"top10_holders_pct",
			"token_age_hours",
			"mint_authority_revoked",
			"freeze_authority_revoked",
			"security_score",
			"safety_score",
			"honeypot_risk",
			"momentum_score",
			"buy_count24h",
			"sell_count24h",
			"price_change5m",
			"price_change1h",
			"price_change24h",
			"raw_data",
		}),
	}).Create(item).Error
}

func (s *Store) GetSnapshotByCallID(ctx context.Context, callID uint64) (*models.Snapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if callID == 0 {
		return nil, nil
	}
	var item models.Snapshot
	err := s.db.WithContext(ctx).Model(&models.Snapshot{}).Where("call_id = ?", callID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// --- Decisions --------------------------------------------------------------

func (s *Store) UpsertDecision(ctx context.Context, item *models.Decision) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if item.CallID == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "call_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status",
			"decided_at",
			"trade_size_usd",
			"entry_price",
			"entry_at",
			"exit_price",
			"hold_duration_hours",
			"reasoning",
			"confidence",
			"emotional_state",
			"chart_assessment",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetDecisionByCallID(ctx context.Context, callID uint64) (*models.Decision, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if callID == 0 {
		return nil, nil
	}
	var item models.Decision
	err := s.db.WithContext(ctx).Model(&models.Decision{}).Where("call_id = ?", callID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListOpenPositions(ctx context.Context, params repository.OpenPositionsParams) ([]repository.OpenPosition, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	statuses := cleanStrings(params.Statuses)
	if len(statuses) == 0 {
		statuses = []string{models.DecisionTrade, models.DecisionWatch}
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	query := s.db.WithContext(ctx).
		Model(&models.Decision{}).
		Where("status IN ?", statuses).
		Where("status <> ? OR exit_price IS NULL OR exit_price = 0", models.DecisionTrade)
	var decisions []models.Decision
	limit := normalizeLimit(params.Limit, 500)
	if err := query.Order("decided_at asc").Limit(limit).Find(&decisions).Error; err != nil {
		return nil, err
	}
	if len(decisions) == 0 {
		return nil, nil
	}

	callIDs := make([]uint64, 0, len(decisions))
	for _, d := range decisions {
		callIDs = append(callIDs, d.CallID)
	}

	var calls []models.TokenCall
	if err := s.db.WithContext(ctx).
		Model(&models.TokenCall{}).
		Where("id IN ?", callIDs).
		Find(&calls).Error; err != nil {
		return nil, err
	}
	callByID := make(map[uint64]models.TokenCall, len(calls))
	for _, c := range calls {
		callByID[c.ID] = c
	}

	var records []models.PerformanceRecord
	if err := s.db.WithContext(ctx).
		Model(&models.PerformanceRecord{}).
		Where("call_id IN ?", callIDs).
		Find(&records).Error; err != nil {
		return nil, err
	}
	recordByCall := make(map[uint64]*models.PerformanceRecord, len(records))
	for i := range records {
		recordByCall[records[i].CallID] = &records[i]
	}

	out := make([]repository.OpenPosition, 0, len(decisions))
	for _, d := range decisions {
		call, ok := callByID[d.CallID]
		if !ok {
			continue
		}
		if params.MinAge > 0 && now.Sub(call.ReceivedAt) < params.MinAge {
			continue
		}
		out = append(out, repository.OpenPosition{
			Call:     call,
			Decision: d,
			Record:   recordByCall[d.CallID],
		})
	}
	return out, nil
}

// --- Performance ------------------------------------------------------------

func (s *Store) GetPerformanceRecord(ctx context.Context, callID uint64) (*models.PerformanceRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if callID == 0 {
		return nil, nil
	}
	var item models.PerformanceRecord
	err := s.db.WithContext(ctx).
		Model(&models.PerformanceRecord{}).
		Where("call_id = ?", callID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SaveTrackingResult writes a poll's rolled-up record and its history
// point in one transaction, so the ratchet state and the time series can
// never diverge.
func (s *Store) SaveTrackingResult(ctx context.Context, record *models.PerformanceRecord, point *models.PerformanceHistoryPoint) error {
	if s == nil || s.db == nil || record == nil {
		return nil
	}
	if record.CallID == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "call_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"last_updated",
				"current_market_cap",
				"current_liquidity",
				"max_price_since_entry",
				"min_price_since_entry",
				"max_gain_observed",
				"max_loss_observed",
				"alive_status",
				"rug_pull",
				"time_to_max_gain_hours",
				"max_gain_at",
				"time_to_rug_hours",
				"checkpoint",
				"price15m_later",
				"price30m_later",
				"price1h_later",
				"price4h_later",
				"price24h_later",
				"price7d_later",
				"price30d_later",
				"updated_at",
			}),
		}).Create(record).Error; err != nil {
			return err
		}
		if point == nil {
			return nil
		}
		return tx.Create(point).Error
	})
}

func (s *Store) LatestHistoryPoint(ctx context.Context, callID uint64) (*models.PerformanceHistoryPoint, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if callID == 0 {
		return nil, nil
	}
	var item models.PerformanceHistoryPoint
	err := s.db.WithContext(ctx).
		Model(&models.PerformanceHistoryPoint{}).
		Where("call_id = ?", callID).
		Order("observed_at desc, id desc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListHistory(ctx context.Context, callID uint64, limit int) ([]models.PerformanceHistoryPoint, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if callID == 0 {
		return nil, nil
	}
	limit = normalizeLimit(limit, 500)
	var items []models.PerformanceHistoryPoint
	if err := s.db.WithContext(ctx).
		Model(&models.PerformanceHistoryPoint{}).
		Where("call_id = ?", callID).
		Order("observed_at asc, id asc").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Aggregation inputs -----------------------------------------------------

// sourceMatchExpr matches one label inside the comma-joined sources
// column. String concatenation with || works on both postgres and sqlite.
const sourceMatchExpr = "(',' || sources || ',') LIKE ?"

func sourceMatchArg(source string) string {
	return "%," + models.NormalizeSource(source) + ",%"
}

func (s *Store) ListSourceOutcomes(ctx context.Context, source string) ([]repository.SourceOutcome, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	source = models.NormalizeSource(source)
	if source == "" {
		return nil, nil
	}
	var rows []repository.SourceOutcome
	err := s.db.WithContext(ctx).
		Table("token_calls AS c").
		Select("c.id AS call_id, "+
			"COALESCE(d.status, '') AS decision_status, "+
			"d.entry_price AS entry_price, "+
			"d.exit_price AS exit_price, "+
			"r.max_gain_observed AS max_gain_pct, "+
			"COALESCE(r.rug_pull, FALSE) AS rug_pull, "+
			"COALESCE(r.checkpoint, '') AS checkpoint").
		Joins("LEFT JOIN decisions AS d ON d.call_id = c.id").
		Joins("LEFT JOIN performance_records AS r ON r.call_id = c.id").
		Where("(',' || c.sources || ',') LIKE ?", sourceMatchArg(source)).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) ListTrackedSourceNames(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var joined []string
	if err := s.db.WithContext(ctx).
		Model(&models.TokenCall{}).
		Distinct().
		Pluck("sources", &joined).Error; err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []string
	for _, j := range joined {
		for _, src := range models.SplitSources(j) {
			if _, ok := seen[src]; ok {
				continue
			}
			seen[src] = struct{}{}
			out = append(out, src)
		}
	}
	return out, nil
}

// --- Source stats -----------------------------------------------------------

func (s *Store) UpsertSourceStats(ctx context.Context, item *models.SourceStats) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.SourceName = models.NormalizeSource(item.SourceName)
	if item.SourceName == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_calls",
			"calls_traded",
			"win_rate",
			"hit_rate",
			"rug_rate",
			"avg_max_gain",
			"tier",
			"last_updated",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetSourceStats(ctx context.Context, source string) (*models.SourceStats, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	source = models.NormalizeSource(source)
	if source == "" {
		return nil, nil
	}
	var item models.SourceStats
	err := s.db.WithContext(ctx).
		Model(&models.SourceStats{}).
		Where("source_name = ?", source).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSourceStats(ctx context.Context, params repository.ListStatsParams) ([]models.SourceStats, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.SourceStats{})
	if params.Tier != nil && strings.TrimSpace(*params.Tier) != "" {
		query = query.Where("tier = ?", strings.ToUpper(strings.TrimSpace(*params.Tier)))
	}
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.SourceStats
	if err := query.
		Order("avg_max_gain desc, source_name asc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Tracked wallets --------------------------------------------------------

func (s *Store) UpsertWallet(ctx context.Context, item *models.WalletStats) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.WalletAddress = strings.TrimSpace(item.WalletAddress)
	if item.WalletAddress == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "wallet_address"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"wallet_name",
			"total_tracked_buys",
			"win_rate",
			"avg_gain",
			"tier",
			"notes",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetWalletByAddress(ctx context.Context, address string) (*models.WalletStats, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, nil
	}
	var item models.WalletStats
	err := s.db.WithContext(ctx).
		Model(&models.WalletStats{}).
		Where("wallet_address = ?", address).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListWallets(ctx context.Context, activeOnly bool) ([]models.WalletStats, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.WalletStats{})
	if activeOnly {
		query = query.Where("total_tracked_buys > 0")
	}
	var items []models.WalletStats
	if err := query.Order("avg_gain desc, wallet_address asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) DeleteWallet(ctx context.Context, address string) error {
	if s == nil || s.db == nil {
		return nil
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("wallet_address = ?", address).
		Delete(&models.WalletStats{}).Error
}

// --- helpers ----------------------------------------------------------------

func normalizeLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > 5000 {
		return 5000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func cleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
