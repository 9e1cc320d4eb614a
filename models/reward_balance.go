package models

import "time"

// RewardBalance is the per-wallet points row. Rows are created lazily on
// first accrual and the three accumulators only grow, except for
// administrative correction.
type RewardBalance struct {
	tableName struct{} `pg:"staking_rewards"`

	UserWallet     string    `json:"user_wallet"     pg:"user_wallet,pk"`
	VoterPoints    float64   `json:"voter_points"    pg:"voter_points,use_zero"`
	GovernorPoints float64   `json:"governor_points" pg:"governor_points,use_zero"`
	CouncilPoints  float64   `json:"council_points"  pg:"council_points,use_zero"`
	LastUpdated    time.Time `json:"last_updated"    pg:"last_updated"`
}

// TierColumn maps a tier to its accumulator column.
func TierColumn(t Tier) string {
	switch t {
	case TierGovernor:
		return "governor_points"
	case TierCouncil:
		return "council_points"
	default:
		return "voter_points"
	}
}
