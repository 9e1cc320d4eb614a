package models

import "time"

type GrantStatus string

const (
	GrantActive   GrantStatus = "active"
	GrantInactive GrantStatus = "inactive"
)

type ManualGrant struct {
	tableName struct{} `pg:"manual_reward_grants"`

	ID            uint64      `json:"id"               pg:",pk"`
	UserWallet    string      `json:"user_wallet"      pg:"user_wallet,notnull"`
	Tier          Tier        `json:"reward_tier"      pg:"reward_tier,notnull"`
	StartTime     time.Time   `json:"grant_start_time" pg:"grant_start_time"`
	EndTime       *time.Time  `json:"grant_end_time,omitempty" pg:"grant_end_time"`
	LastAccruedAt *time.Time  `json:"-"                pg:"last_accrued_at"`
	Status        GrantStatus `json:"status"           pg:"status"`
	AdminNotes    string      `json:"admin_notes,omitempty" pg:"admin_notes"`
	CreatedAt     time.Time   `json:"created_at"       pg:"created_at,default:now()"`
}

// ActiveAt reports whether the grant accrues at the given time.
func (g *ManualGrant) ActiveAt(t time.Time) bool {
	if g.Status != GrantActive {
		return false
	}
	return g.EndTime == nil || !g.EndTime.Before(t)
}
