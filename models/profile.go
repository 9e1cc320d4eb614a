package models

// Profile maps a referral code to its owner wallet. The table is owned by
// the profile service; the engine only reads it.
type Profile struct {
	tableName struct{} `pg:"user_profiles"`

	UserWallet   string `json:"user_wallet"   pg:"user_wallet,pk"`
	ReferralCode string `json:"referral_code" pg:"referral_code"`
}
