package reward

import (
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/go-pg/pg/v10/orm"
	"github.com/suilfg/staking-engine/models"
)

type Repository struct {
	db *pg.DB
}

func NewRepository(db *pg.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// AddPoints applies a storage-level atomic increment to the wallet's tier
// accumulator. The balance row is created lazily; the add itself is a
// single UPDATE so concurrent accruals for the same wallet never lose
// updates.
func (r *Repository) AddPoints(wallet string, tier models.Tier, points float64, at time.Time) error {
	_, err := r.db.Model(&models.RewardBalance{UserWallet: wallet, LastUpdated: at}).
		OnConflict("(user_wallet) DO NOTHING").
		Insert()
	if err != nil {
		return err
	}
	column := models.TierColumn(tier)
	_, err = r.db.Model((*models.RewardBalance)(nil)).
		Set(column+" = "+column+" + ?", points).
		Set("last_updated = ?", at).
		Where("user_wallet = ?", wallet).
		Update()
	return err
}

// BalanceByWallet returns the wallet's balance row, or a zero-valued row
// when none exists yet.
func (r *Repository) BalanceByWallet(wallet string) (*models.RewardBalance, error) {
	balance := new(models.RewardBalance)
	err := r.db.Model(balance).
		Where("user_wallet = ?", wallet).
		Select()
	if err == pg.ErrNoRows {
		return &models.RewardBalance{UserWallet: wallet}, nil
	}
	if err != nil {
		return nil, err
	}
	return balance, nil
}

type GrantRepository struct {
	db *pg.DB
}

func NewGrantRepository(db *pg.DB) *GrantRepository {
	return &GrantRepository{
		db: db,
	}
}

// ActiveGrants returns grants that accrue at the given time.
func (r *GrantRepository) ActiveGrants(at time.Time) ([]*models.ManualGrant, error) {
	var grants []*models.ManualGrant
	err := r.db.Model(&grants).
		Where("status = ?", models.GrantActive).
		WhereGroup(func(q *orm.Query) (*orm.Query, error) {
			return q.Where("grant_end_time IS NULL").
				WhereOr("grant_end_time >= ?", at), nil
		}).
		Order("id ASC").
		Select()
	return grants, err
}

// ActiveGrantsByWallet lists a wallet's currently accruing grants.
func (r *GrantRepository) ActiveGrantsByWallet(wallet string, at time.Time) ([]*models.ManualGrant, error) {
	var grants []*models.ManualGrant
	err := r.db.Model(&grants).
		Where("user_wallet = ?", wallet).
		Where("status = ?", models.GrantActive).
		WhereGroup(func(q *orm.Query) (*orm.Query, error) {
			return q.Where("grant_end_time IS NULL").
				WhereOr("grant_end_time >= ?", at), nil
		}).
		Order("created_at DESC").
		Select()
	return grants, err
}

// ClaimAccrualTick advances the grant's accrual watermark, mirroring the
// stake-side guard against re-delivered cycles.
func (r *GrantRepository) ClaimAccrualTick(grantID uint64, cycleTime time.Time, minGap time.Duration) (bool, error) {
	res, err := r.db.Model((*models.ManualGrant)(nil)).
		Set("last_accrued_at = ?", cycleTime).
		Where("id = ?", grantID).
		Where("status = ?", models.GrantActive).
		Where("last_accrued_at IS NULL OR last_accrued_at <= ?", cycleTime.Add(-minGap)).
		Update()
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}
