package stake

import (
	"context"
	"time"

	"github.com/go-pg/pg/v10"
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

func (r *Repository) ActiveStakes() ([]*models.Stake, error) {
	var stakes []*models.Stake
	err := r.db.Model(&stakes).
		Relation("Referral").
		Where("stake.status = ?", models.StakeActive).
		Order("stake.id ASC").
		Select()
	return stakes, err
}

func (r *Repository) ExistsActiveByObject(nftObjectID string) (bool, error) {
	return r.db.Model((*models.Stake)(nil)).
		Where("nft_object_id = ?", nftObjectID).
		Where("status = ?", models.StakeActive).
		Exists()
}

// ReferralPairUsed reports whether the (asset, referral code) pair appears
// on any prior stake, regardless of that stake's status.
func (r *Repository) ReferralPairUsed(nftObjectID, referralCode string) (bool, error) {
	return r.db.Model((*models.Stake)(nil)).
		Where("nft_object_id = ?", nftObjectID).
		Where("referral_code_used = ?", referralCode).
		Exists()
}

// CreateWithReferral persists the referral (when present) and the stake as
// one transaction, backfilling the referral's stake back-reference. A
// partial failure rolls everything back, so no dangling referral can be
// left behind.
func (r *Repository) CreateWithReferral(stake *models.Stake, referral *models.Referral) error {
	return r.db.RunInTransaction(context.Background(), func(tx *pg.Tx) error {
		if referral != nil {
			if _, err := tx.Model(referral).Insert(); err != nil {
				return err
			}
			stake.ReferralID = &referral.ID
		}
		if _, err := tx.Model(stake).Insert(); err != nil {
			return err
		}
		if referral != nil {
			referral.StakeID = &stake.ID
			_, err := tx.Model(referral).
				Set("staked_nft_id = ?", stake.ID).
				Where("id = ?", referral.ID).
				Update()
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ForfeitCascade marks the stake forfeited, cascades to its referral and
// appends the audit record, all in one transaction. The stake update is
// guarded on status so a concurrent cycle cannot forfeit twice; the audit
// insert is additionally keyed on the stake id so the record exists exactly
// once.
func (r *Repository) ForfeitCascade(stake *models.Stake, reason models.ForfeitureReason, referrerWallet string, occurredAt time.Time) (bool, error) {
	applied := false
	err := r.db.RunInTransaction(context.Background(), func(tx *pg.Tx) error {
		res, err := tx.Model((*models.Stake)(nil)).
			Set("status = ?", models.StakeForfeited).
			Set("forfeited_by_referrer = ?", stake.ReferralCodeUsed).
			Where("id = ?", stake.ID).
			Where("status = ?", models.StakeActive).
			Update()
		if err != nil {
			return err
		}
		if res.RowsAffected() == 0 {
			return nil
		}
		applied = true

		if stake.ReferralID != nil {
			_, err = tx.Model((*models.Referral)(nil)).
				Set("status = ?", models.ReferralForfeited).
				Where("id = ?", *stake.ReferralID).
				Update()
			if err != nil {
				return err
			}
		}

		forfeiture := &models.Forfeiture{
			StakeID:        stake.ID,
			OriginalWallet: stake.UserWallet,
			ReferrerWallet: referrerWallet,
			Reason:         reason,
			OccurredAt:     occurredAt,
		}
		_, err = tx.Model(forfeiture).
			OnConflict("(staked_nft_id) DO NOTHING").
			Insert()
		return err
	})
	return applied, err
}

// ClaimAccrualTick advances the stake's accrual watermark for this cycle.
// The guarded update requires most of the cycle interval to have elapsed
// since the previous claim, so a re-delivered or overlapping cycle skips
// the stake instead of double-counting it.
func (r *Repository) ClaimAccrualTick(stakeID uint64, cycleTime time.Time, minGap time.Duration) (bool, error) {
	res, err := r.db.Model((*models.Stake)(nil)).
		Set("last_accrued_at = ?", cycleTime).
		Where("id = ?", stakeID).
		Where("status = ?", models.StakeActive).
		Where("last_accrued_at IS NULL OR last_accrued_at <= ?", cycleTime.Add(-minGap)).
		Update()
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// CompleteExpired closes out stakes whose staking window has ended.
func (r *Repository) CompleteExpired(now time.Time) (int, error) {
	res, err := r.db.Model((*models.Stake)(nil)).
		Set("status = ?", models.StakeCompleted).
		Where("status = ?", models.StakeActive).
		Where("stake_end_time <= ?", now).
		Update()
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}
