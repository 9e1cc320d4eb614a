package models

import "time"

// ReferralGroup is a vesting cohort of exactly three same-tier referrals
// from one referrer.
type ReferralGroup struct {
	tableName struct{} `pg:"referral_groups"`

	ID             uint64       `json:"id"              pg:",pk"`
	ReferrerWallet string       `json:"referrer_wallet" pg:"referrer_wallet,notnull"`
	Tier           Tier         `json:"reward_tier"     pg:"reward_tier,notnull"`
	Referral1ID    uint64       `json:"referral_1_id"   pg:"referral_1_id"`
	Referral2ID    uint64       `json:"referral_2_id"   pg:"referral_2_id"`
	Referral3ID    uint64       `json:"referral_3_id"   pg:"referral_3_id"`
	Status         GroupStatus  `json:"status"          pg:"status"`
	GambleStatus   GambleStatus `json:"gamble_status"   pg:"gamble_status"`
	VestingStart   time.Time    `json:"vesting_start_time" pg:"vesting_start_time"`
	VestingEnd     time.Time    `json:"vesting_end_time"   pg:"vesting_end_time"`
	CreatedAt      time.Time    `json:"created_at"      pg:"created_at,default:now()"`
}

// MemberIDs returns the cohort's referral ids in slot order.
func (g *ReferralGroup) MemberIDs() []uint64 {
	return []uint64{g.Referral1ID, g.Referral2ID, g.Referral3ID}
}
