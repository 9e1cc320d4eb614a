package models

import "time"

type ForfeitureReason string

const (
	ForfeitureListed      ForfeitureReason = "listed"
	ForfeitureTransferred ForfeitureReason = "transferred"
)

// Forfeiture is an append-only audit record, written once per forfeiture
// event.
type Forfeiture struct {
	tableName struct{} `pg:"forfeitures"`

	ID             uint64           `json:"id"                     pg:",pk"`
	StakeID        uint64           `json:"staked_nft_id"          pg:"staked_nft_id"`
	OriginalWallet string           `json:"original_staker_wallet" pg:"original_staker_wallet"`
	ReferrerWallet string           `json:"referrer_wallet,omitempty" pg:"referrer_wallet"`
	Reason         ForfeitureReason `json:"forfeiture_reason"      pg:"forfeiture_reason"`
	OccurredAt     time.Time        `json:"forfeited_at"           pg:"forfeited_at"`
}
