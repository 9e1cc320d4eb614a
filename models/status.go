package models

// Entity statuses are closed variant types with explicit transition tables.
// Repositories guard terminal transitions with conditional UPDATEs; these
// tables let services reject illegal transitions before touching storage.

type StakeStatus string

const (
	StakeActive    StakeStatus = "active"
	StakeCompleted StakeStatus = "completed"
	StakeForfeited StakeStatus = "forfeited"
)

type ReferralStatus string

const (
	ReferralPending   ReferralStatus = "pending"
	ReferralConfirmed ReferralStatus = "confirmed"
	ReferralForfeited ReferralStatus = "forfeited"
)

type GroupStatus string

const (
	GroupVesting   GroupStatus = "vesting"
	GroupClaimable GroupStatus = "claimable"
	GroupForfeited GroupStatus = "forfeited"
)

type GambleStatus string

const (
	GambleOffered GambleStatus = "offered"
	GambleWon     GambleStatus = "won"
	GambleLost    GambleStatus = "lost"
)

var stakeTransitions = map[StakeStatus][]StakeStatus{
	StakeActive: {StakeCompleted, StakeForfeited},
}

var referralTransitions = map[ReferralStatus][]ReferralStatus{
	ReferralPending: {ReferralConfirmed, ReferralForfeited},
	// Forfeiture of the linked stake is authoritative and overrides a
	// confirmed referral.
	ReferralConfirmed: {ReferralForfeited},
}

var groupTransitions = map[GroupStatus][]GroupStatus{
	GroupVesting: {GroupClaimable, GroupForfeited},
}

var gambleTransitions = map[GambleStatus][]GambleStatus{
	GambleOffered: {GambleWon, GambleLost},
}

func (s StakeStatus) CanTransitionTo(next StakeStatus) bool {
	return containsStatus(stakeTransitions[s], next)
}

func (s ReferralStatus) CanTransitionTo(next ReferralStatus) bool {
	return containsStatus(referralTransitions[s], next)
}

func (s GroupStatus) CanTransitionTo(next GroupStatus) bool {
	return containsStatus(groupTransitions[s], next)
}

func (s GambleStatus) CanTransitionTo(next GambleStatus) bool {
	return containsStatus(gambleTransitions[s], next)
}

func containsStatus[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
