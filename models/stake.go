package models

import "time"

type Stake struct {
	tableName struct{} `pg:"staked_nfts"`

	ID                  uint64      `json:"id"                    pg:",pk"`
	UserWallet          string      `json:"user_wallet"           pg:"user_wallet,notnull"`
	NftObjectID         string      `json:"nft_object_id"         pg:"nft_object_id,notnull"`
	Tier                Tier        `json:"nft_tier"              pg:"nft_tier,notnull"`
	DurationDays        int         `json:"staking_duration_days" pg:"staking_duration_days"`
	DurationMonths      int         `json:"stake_duration_months" pg:"stake_duration_months"`
	StartTime           time.Time   `json:"stake_start_time"      pg:"stake_start_time"`
	EndTime             time.Time   `json:"stake_end_time"        pg:"stake_end_time"`
	LastAccruedAt       *time.Time  `json:"-"                     pg:"last_accrued_at"`
	ReferralCodeUsed    string      `json:"referral_code_used,omitempty"    pg:"referral_code_used"`
	VerificationCode    string      `json:"verification_code,omitempty"     pg:"verification_code"`
	ForfeitedByReferrer string      `json:"forfeited_by_referrer,omitempty" pg:"forfeited_by_referrer"`
	Status              StakeStatus `json:"status"                pg:"status"`
	ReferralID          *uint64     `json:"referral_id,omitempty" pg:"referral_id"`
	CreatedAt           time.Time   `json:"created_at"            pg:"created_at,default:now()"`
	Referral            *Referral   `json:"-"                     pg:"rel:has-one"` //Relation has one to Referral
}
