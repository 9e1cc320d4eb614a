package models

import "fmt"

// Tier is the reward class of a staked NFT. The tier set is a fixed domain
// constant, not configuration.
type Tier string

const (
	TierVoter    Tier = "Voter"
	TierGovernor Tier = "Governor"
	TierCouncil  Tier = "Council"
)

// TierParams holds the per-tier reward constants.
type TierParams struct {
	HourlyRate float64
}

var tierParams = map[Tier]TierParams{
	TierVoter:    {HourlyRate: 12},
	TierGovernor: {HourlyRate: 60},
	TierCouncil:  {HourlyRate: 300},
}

// Params returns the reward constants for the tier.
func (t Tier) Params() (TierParams, error) {
	p, ok := tierParams[t]
	if !ok {
		return TierParams{}, fmt.Errorf("unknown tier %q", string(t))
	}
	return p, nil
}

func (t Tier) Valid() bool {
	_, ok := tierParams[t]
	return ok
}

// DurationMultiplier returns the accrual multiplier for a stake duration in
// months. Months outside {1,2,3} never pass intake validation.
func DurationMultiplier(months int) float64 {
	switch months {
	case 2:
		return 1.5
	case 3:
		return 2.0
	default:
		return 1.0
	}
}
