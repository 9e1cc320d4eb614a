package referral

import (
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

// PendingMatured returns pending referrals whose linked stake is still
// active and started at or before the threshold.
func (r *Repository) PendingMatured(threshold time.Time) ([]*models.Referral, error) {
	var referrals []*models.Referral
	err := r.db.Model(&referrals).
		Relation("Stake").
		Where("referral.status = ?", models.ReferralPending).
		Where("stake.status = ?", models.StakeActive).
		Where("stake.stake_start_time <= ?", threshold).
		Order("referral.id ASC").
		Select()
	return referrals, err
}

// Confirm flips a pending referral to confirmed. Guarded on the current
// status so a forfeiture landing between select and update wins.
func (r *Repository) Confirm(id uint64) (bool, error) {
	res, err := r.db.Model((*models.Referral)(nil)).
		Set("status = ?", models.ReferralConfirmed).
		Where("id = ?", id).
		Where("status = ?", models.ReferralPending).
		Update()
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// Groupable returns unmapped referrals eligible for cohort formation, with
// the linked stake loaded for its tier, oldest first.
func (r *Repository) Groupable() ([]*models.Referral, error) {
	var referrals []*models.Referral
	err := r.db.Model(&referrals).
		Relation("Stake").
		Where("referral.status in (?)", pg.In([]models.ReferralStatus{models.ReferralPending, models.ReferralConfirmed})).
		Where("referral.is_mapped_to_reward = ?", false).
		Order("referral.created_at ASC").
		Order("referral.id ASC").
		Select()
	return referrals, err
}

// StatusesByIDs returns the statuses of the given referrals keyed by id.
func (r *Repository) StatusesByIDs(ids []uint64) (map[uint64]models.ReferralStatus, error) {
	if len(ids) == 0 {
		return map[uint64]models.ReferralStatus{}, nil
	}
	var referrals []*models.Referral
	err := r.db.Model(&referrals).
		Column("id", "status").
		Where("id in (?)", pg.In(ids)).
		Select()
	if err != nil {
		return nil, err
	}
	statuses := make(map[uint64]models.ReferralStatus, len(referrals))
	for _, ref := range referrals {
		statuses[ref.ID] = ref.Status
	}
	return statuses, nil
}

// SetMapped updates the reward-mapping flag for the given referrals.
func (r *Repository) SetMapped(ids []uint64, mapped bool) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Model((*models.Referral)(nil)).
		Set("is_mapped_to_reward = ?", mapped).
		Where("id in (?)", pg.In(ids)).
		Update()
	return err
}
