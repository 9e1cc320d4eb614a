package group

import (
	"context"
	"errors"
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

func (r *Repository) ByID(id uint64) (*models.ReferralGroup, error) {
	g := new(models.ReferralGroup)
	err := r.db.Model(g).Where("id = ?", id).Select()
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r *Repository) VestingGroups() ([]*models.ReferralGroup, error) {
	var groups []*models.ReferralGroup
	err := r.db.Model(&groups).
		Where("status = ?", models.GroupVesting).
		Order("id ASC").
		Select()
	return groups, err
}

// CreateWithMembers inserts the cohort and maps its three referrals in one
// transaction. The mapping update is guarded on is_mapped_to_reward so a
// referral racing into two cohorts rolls the second one back.
func (r *Repository) CreateWithMembers(g *models.ReferralGroup, memberIDs []uint64) error {
	return r.db.RunInTransaction(context.Background(), func(tx *pg.Tx) error {
		if _, err := tx.Model(g).Insert(); err != nil {
			return err
		}
		res, err := tx.Model((*models.Referral)(nil)).
			Set("is_mapped_to_reward = ?", true).
			Where("id in (?)", pg.In(memberIDs)).
			Where("is_mapped_to_reward = ?", false).
			Update()
		if err != nil {
			return err
		}
		if res.RowsAffected() != len(memberIDs) {
			return errors.New("referral already mapped to another group")
		}
		return nil
	})
}

// ForfeitWithUnmap flips the cohort to forfeited and releases the surviving
// referrals back into the grouping pool, atomically. Guarded on the vesting
// status so a repeated cycle applies it once.
func (r *Repository) ForfeitWithUnmap(groupID uint64, survivorIDs []uint64) (bool, error) {
	applied := false
	err := r.db.RunInTransaction(context.Background(), func(tx *pg.Tx) error {
		res, err := tx.Model((*models.ReferralGroup)(nil)).
			Set("status = ?", models.GroupForfeited).
			Where("id = ?", groupID).
			Where("status = ?", models.GroupVesting).
			Update()
		if err != nil {
			return err
		}
		if res.RowsAffected() == 0 {
			return nil
		}
		applied = true
		if len(survivorIDs) == 0 {
			return nil
		}
		_, err = tx.Model((*models.Referral)(nil)).
			Set("is_mapped_to_reward = ?", false).
			Where("id in (?)", pg.In(survivorIDs)).
			Update()
		return err
	})
	return applied, err
}

// MarkClaimable resolves a fully-confirmed, fully-vested cohort.
func (r *Repository) MarkClaimable(groupID uint64) (bool, error) {
	res, err := r.db.Model((*models.ReferralGroup)(nil)).
		Set("status = ?", models.GroupClaimable).
		Where("id = ?", groupID).
		Where("status = ?", models.GroupVesting).
		Update()
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// GambleWin applies the winning transition. The compare-and-swap on
// gamble_status makes the play one-shot under concurrent invocation.
func (r *Repository) GambleWin(groupID uint64, wallet string) (bool, error) {
	res, err := r.db.Model((*models.ReferralGroup)(nil)).
		Set("gamble_status = ?", models.GambleWon).
		Set("status = ?", models.GroupClaimable).
		Where("id = ?", groupID).
		Where("referrer_wallet = ?", wallet).
		Where("status = ?", models.GroupVesting).
		Where("gamble_status = ?", models.GambleOffered).
		Update()
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// GambleLose applies the losing transition, pushing vesting_end out by the
// extension. Same compare-and-swap guard as GambleWin.
func (r *Repository) GambleLose(groupID uint64, wallet string, extension time.Duration) (bool, error) {
	res, err := r.db.Model((*models.ReferralGroup)(nil)).
		Set("gamble_status = ?", models.GambleLost).
		Set("vesting_end_time = vesting_end_time + make_interval(secs => ?)", extension.Seconds()).
		Where("id = ?", groupID).
		Where("referrer_wallet = ?", wallet).
		Where("status = ?", models.GroupVesting).
		Where("gamble_status = ?", models.GambleOffered).
		Update()
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}
