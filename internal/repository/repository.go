package repository

import (
	"context"
	"time"

	"truth-market/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ============================================================================
// Engine State
// ============================================================================

// EnsureEngineState inserts the singleton counter row if it does not exist
func (r *Repository) EnsureEngineState(ctx context.Context) error {
	state := models.EngineState{
		ID:           models.EngineStateID,
		NextMarketID: 1,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&state).Error
}

// GetEngineState retrieves the singleton counter row
func (r *Repository) GetEngineState(ctx context.Context) (*models.EngineState, error) {
	var state models.EngineState
	err := r.db.WithContext(ctx).Where("id = ?", models.EngineStateID).First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// NextMarketID allocates the next market ID from the engine state counter.
// Callers must run this inside a transaction so the row lock taken by the
// increment covers the read that follows it.
func (r *Repository) NextMarketID(ctx context.Context) (uint, error) {
	res := r.db.WithContext(ctx).
		Model(&models.EngineState{}).
		Where("id = ?", models.EngineStateID).
		UpdateColumn("next_market_id", gorm.Expr("next_market_id + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	var state models.EngineState
	if err := r.db.WithContext(ctx).
		Where("id = ?", models.EngineStateID).
		First(&state).Error; err != nil {
		return 0, err
	}

	return uint(state.NextMarketID - 1), nil
}

// AdjustEngineCounters applies deltas to the aggregate stake and oracle counters
func (r *Repository) AdjustEngineCounters(ctx context.Context, stakedDelta, oraclesDelta int64) error {
	return r.db.WithContext(ctx).
		Model(&models.EngineState{}).
		Where("id = ?", models.EngineStateID).
		UpdateColumns(map[string]interface{}{
			"total_staked":   gorm.Expr("total_staked + ?", stakedDelta),
			"active_oracles": gorm.Expr("active_oracles + ?", oraclesDelta),
			"updated_at":     gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

// ============================================================================
// Markets
// ============================================================================

// CreateMarket creates a new market
func (r *Repository) CreateMarket(ctx context.Context, market *models.Market) error {
	return r.db.WithContext(ctx).Create(market).Error
}

// GetMarketByID retrieves a market by ID
func (r *Repository) GetMarketByID(ctx context.Context, marketID uint) (*models.Market, error) {
	var market models.Market
	err := r.db.WithContext(ctx).Where("id = ?", marketID).First(&market).Error
	if err != nil {
		return nil, err
	}
	return &market, nil
}

// GetMarketByExternalID retrieves a market by its upstream feed identifier
func (r *Repository) GetMarketByExternalID(ctx context.Context, externalID string) (*models.Market, error) {
	var market models.Market
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&market).Error
	if err != nil {
		return nil, err
	}
	return &market, nil
}

// UpdateMarket updates a market
func (r *Repository) UpdateMarket(ctx context.Context, market *models.Market) error {
	return r.db.WithContext(ctx).Save(market).Error
}

// SetMarketVolume overwrites the volume of a still-pending market. Volume
// feeds the reward pool at settlement, so validated markets are frozen.
func (r *Repository) SetMarketVolume(ctx context.Context, marketID uint, volume int64) error {
	res := r.db.WithContext(ctx).
		Model(&models.Market{}).
		Where("id = ? AND status = ?", marketID, models.MarketStatusPending).
		UpdateColumn("volume", volume)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementMarketParticipants bumps the participant counter for a market
func (r *Repository) IncrementMarketParticipants(ctx context.Context, marketID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Market{}).
		Where("id = ?", marketID).
		UpdateColumn("participants", gorm.Expr("participants + 1")).Error
}

// ListMarkets retrieves markets with an optional status filter and total count
func (r *Repository) ListMarkets(
	ctx context.Context,
	status models.MarketStatus,
	limit, offset int,
) ([]*models.Market, int64, error) {
	var total int64
	countQuery := r.db.WithContext(ctx).Model(&models.Market{})
	if status != "" {
		countQuery = countQuery.Where("status = ?", status)
	}
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var markets []*models.Market
	findQuery := r.db.WithContext(ctx)
	if status != "" {
		findQuery = findQuery.Where("status = ?", status)
	}
	err := findQuery.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&markets).Error
	if err != nil {
		return nil, 0, err
	}

	return markets, total, nil
}

// GetDueMarkets retrieves pending markets whose deadline passed before cutoff.
// The finalizer computes cutoff as now minus the validation window.
func (r *Repository) GetDueMarkets(ctx context.Context, cutoff time.Time, limit int) ([]*models.Market, error) {
	var markets []*models.Market
	err := r.db.WithContext(ctx).
		Where("status = ? AND deadline < ?", models.MarketStatusPending, cutoff).
		Order("deadline ASC").
		Limit(limit).
		Find(&markets).Error
	if err != nil {
		return nil, err
	}
	return markets, nil
}

// ============================================================================
// Oracles
// ============================================================================

// CreateOracle creates a new oracle
func (r *Repository) CreateOracle(ctx context.Context, oracle *models.Oracle) error {
	return r.db.WithContext(ctx).Create(oracle).Error
}

// GetOracleByID retrieves an oracle by ID
func (r *Repository) GetOracleByID(ctx context.Context, oracleID uint) (*models.Oracle, error) {
	var oracle models.Oracle
	err := r.db.WithContext(ctx).Where("id = ?", oracleID).First(&oracle).Error
	if err != nil {
		return nil, err
	}
	return &oracle, nil
}

// GetOracleByAddress retrieves an oracle by wallet address
func (r *Repository) GetOracleByAddress(ctx context.Context, address string) (*models.Oracle, error) {
	var oracle models.Oracle
	err := r.db.WithContext(ctx).Where("address = ?", address).First(&oracle).Error
	if err != nil {
		return nil, err
	}
	return &oracle, nil
}

// UpdateOracle updates an oracle
func (r *Repository) UpdateOracle(ctx context.Context, oracle *models.Oracle) error {
	return r.db.WithContext(ctx).Save(oracle).Error
}

// TouchOracleActivity updates an oracle's last activity timestamp
func (r *Repository) TouchOracleActivity(ctx context.Context, oracleID uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Oracle{}).
		Where("id = ?", oracleID).
		UpdateColumn("last_active_at", at).Error
}

// ApplySettlementToOracle adjusts an oracle's reputation, vote counters and
// registered stake in a single statement
func (r *Repository) ApplySettlementToOracle(
	ctx context.Context,
	oracleID uint,
	reputationDelta int64,
	stakeDelta int64,
	successIncr int64,
	failIncr int64,
) error {
	return r.db.WithContext(ctx).
		Model(&models.Oracle{}).
		Where("id = ?", oracleID).
		UpdateColumns(map[string]interface{}{
			"reputation":       gorm.Expr("reputation + ?", reputationDelta),
			"total_staked":     gorm.Expr("total_staked + ?", stakeDelta),
			"successful_votes": gorm.Expr("successful_votes + ?", successIncr),
			"failed_votes":     gorm.Expr("failed_votes + ?", failIncr),
			"updated_at":       gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

// ListOracles retrieves oracles ordered by reputation with total count
func (r *Repository) ListOracles(
	ctx context.Context,
	activeOnly bool,
	limit, offset int,
) ([]*models.Oracle, int64, error) {
	var total int64
	countQuery := r.db.WithContext(ctx).Model(&models.Oracle{})
	if activeOnly {
		countQuery = countQuery.Where("is_active = ?", true)
	}
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var oracles []*models.Oracle
	findQuery := r.db.WithContext(ctx)
	if activeOnly {
		findQuery = findQuery.Where("is_active = ?", true)
	}
	err := findQuery.
		Order("reputation DESC").
		Limit(limit).
		Offset(offset).
		Find(&oracles).Error
	if err != nil {
		return nil, 0, err
	}

	return oracles, total, nil
}

// ============================================================================
// Votes
// ============================================================================

// CreateVote creates a new vote
func (r *Repository) CreateVote(ctx context.Context, vote *models.Vote) error {
	return r.db.WithContext(ctx).Create(vote).Error
}

// GetVote retrieves the vote one oracle cast on one market
func (r *Repository) GetVote(ctx context.Context, marketID, oracleID uint) (*models.Vote, error) {
	var vote models.Vote
	err := r.db.WithContext(ctx).
		Where("market_id = ? AND oracle_id = ?", marketID, oracleID).
		First(&vote).Error
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// GetVotesByMarket retrieves all votes cast on a market
func (r *Repository) GetVotesByMarket(ctx context.Context, marketID uint) ([]*models.Vote, error) {
	var votes []*models.Vote
	err := r.db.WithContext(ctx).
		Where("market_id = ?", marketID).
		Order("created_at ASC").
		Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}

// GetOracleVotes retrieves an oracle's votes with total count
func (r *Repository) GetOracleVotes(
	ctx context.Context,
	oracleID uint,
	limit, offset int,
) ([]*models.Vote, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Vote{}).
		Where("oracle_id = ?", oracleID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var votes []*models.Vote
	err = r.db.WithContext(ctx).
		Where("oracle_id = ?", oracleID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&votes).Error
	if err != nil {
		return nil, 0, err
	}

	return votes, total, nil
}

// ============================================================================
// Tallies
// ============================================================================

// CreateTally creates the empty counter row for a market
func (r *Repository) CreateTally(ctx context.Context, tally *models.Tally) error {
	return r.db.WithContext(ctx).Create(tally).Error
}

// GetTallyByMarketID retrieves the vote counters for a market
func (r *Repository) GetTallyByMarketID(ctx context.Context, marketID uint) (*models.Tally, error) {
	var tally models.Tally
	err := r.db.WithContext(ctx).Where("market_id = ?", marketID).First(&tally).Error
	if err != nil {
		return nil, err
	}
	return &tally, nil
}

// ApplyVoteToTally folds one vote into the per-market counters
func (r *Repository) ApplyVoteToTally(
	ctx context.Context,
	marketID uint,
	outcome models.Outcome,
	stake int64,
) error {
	initial := models.Tally{
		MarketID:        marketID,
		TotalVotes:      1,
		TotalStakeVoted: stake,
	}

	column := "no_votes"
	switch outcome {
	case models.OutcomeYes:
		initial.YesVotes = 1
		column = "yes_votes"
	case models.OutcomeInvalid:
		initial.InvalidVotes = 1
		column = "invalid_votes"
	default:
		initial.NoVotes = 1
	}

	// Upsert with atomic increments so concurrent votes never lose counts.
	// The completed guard stops votes landing after a finalizer claimed the
	// tally between the service's status check and this write.
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "market_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_votes":       gorm.Expr("tallies.total_votes + 1"),
			column:              gorm.Expr("tallies." + column + " + 1"),
			"total_stake_voted": gorm.Expr("tallies.total_stake_voted + ?", stake),
			"updated_at":        gorm.Expr("CURRENT_TIMESTAMP"),
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			gorm.Expr("tallies.completed = ?", false),
		}},
	}).Create(&initial)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrAlreadyValidated
	}
	return nil
}

// CompleteTally flips the completed flag for a market's tally. It reports
// false when an earlier finalization already claimed the market, which is
// how concurrent finalizers lose the race.
func (r *Repository) CompleteTally(ctx context.Context, marketID uint, outcome *models.Outcome) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Tally{}).
		Where("market_id = ? AND completed = ?", marketID, false).
		Updates(map[string]interface{}{
			"completed": true,
			"outcome":   outcome,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ============================================================================
// Finalization Records
// ============================================================================

// CreateFinalizationRecord creates the settlement summary for a market
func (r *Repository) CreateFinalizationRecord(ctx context.Context, record *models.FinalizationRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// GetFinalizationRecord retrieves the settlement summary for a market
func (r *Repository) GetFinalizationRecord(ctx context.Context, marketID uint) (*models.FinalizationRecord, error) {
	var record models.FinalizationRecord
	err := r.db.WithContext(ctx).Where("market_id = ?", marketID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
