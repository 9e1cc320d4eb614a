package models

import "time"

type Referral struct {
	tableName struct{} `pg:"referrals"`

	ID               uint64         `json:"id"              pg:",pk"`
	ReferrerWallet   string         `json:"referrer_wallet" pg:"referrer_wallet,notnull"`
	StakeID          *uint64        `json:"staked_nft_id"   pg:"staked_nft_id"`
	Status           ReferralStatus `json:"status"          pg:"status"`
	IsMappedToReward bool           `json:"is_mapped_to_reward" pg:"is_mapped_to_reward,use_zero"`
	CreatedAt        time.Time      `json:"created_at"      pg:"created_at,default:now()"`
	Stake            *Stake         `json:"-"               pg:"rel:has-one,fk:staked_nft_id"` //Relation has one to Stake
}
