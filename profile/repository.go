package profile

import (
	"github.com/go-pg/pg/v10"
	"github.com/suilfg/staking-engine/models"
)

// Repository reads the externally-owned profiles table. The engine never
// writes to it.
type Repository struct {
	db *pg.DB
}

func NewRepository(db *pg.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) WalletByReferralCode(code string) (string, error) {
	p := new(models.Profile)
	err := r.db.Model(p).
		Column("user_wallet").
		Where("referral_code = ?", code).
		Select()
	if err != nil {
		return "", err
	}
	return p.UserWallet, nil
}
