package reward

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/suilfg/staking-engine/models"
)

// BalanceStorage is the accumulator surface; the add must be atomic at the
// storage level.
type BalanceStorage interface {
	AddPoints(wallet string, tier models.Tier, points float64, at time.Time) error
	BalanceByWallet(wallet string) (*models.RewardBalance, error)
}

// TickClaimer guards one accrual application per item per cycle.
type TickClaimer interface {
	ClaimAccrualTick(id uint64, cycleTime time.Time, minGap time.Duration) (bool, error)
}

type GrantStorage interface {
	TickClaimer
	ActiveGrants(at time.Time) ([]*models.ManualGrant, error)
}

type Broadcaster interface {
	PublishBalance(wallet string)
}

type Service struct {
	balances     BalanceStorage
	stakeTicks   TickClaimer
	grants       GrantStorage
	broadcast    Broadcaster
	ticksPerHour float64
	tickGap      time.Duration
	logger       *logrus.Entry
}

// NewService wires the accrual engine. ticksPerHour is the number of cycle
// invocations per hour at the configured cadence; tickGap is the minimum
// spacing the idempotency claim enforces between two applied ticks for the
// same item.
func NewService(balances BalanceStorage, stakeTicks TickClaimer, grants GrantStorage,
	broadcast Broadcaster, ticksPerHour float64, tickGap time.Duration, logger *logrus.Entry) *Service {
	return &Service{
		balances:     balances,
		stakeTicks:   stakeTicks,
		grants:       grants,
		broadcast:    broadcast,
		ticksPerHour: ticksPerHour,
		tickGap:      tickGap,
		logger:       logger,
	}
}

// StakeIncrement is the per-tick point increment for a verified-owned stake.
func (s *Service) StakeIncrement(tier models.Tier, durationMonths int) (float64, error) {
	params, err := tier.Params()
	if err != nil {
		return 0, err
	}
	return params.HourlyRate / s.ticksPerHour * models.DurationMultiplier(durationMonths), nil
}

// GrantIncrement is the per-tick point increment for an active manual
// grant. Grants carry no duration multiplier.
func (s *Service) GrantIncrement(tier models.Tier) (float64, error) {
	params, err := tier.Params()
	if err != nil {
		return 0, err
	}
	return params.HourlyRate / s.ticksPerHour, nil
}

// AccrueStake applies one tick of points for a stake that passed the
// ownership check. Returns the applied increment, zero when the tick was
// already claimed by an earlier delivery of the same cycle.
func (s *Service) AccrueStake(st *models.Stake, cycleTime time.Time) (float64, error) {
	claimed, err := s.stakeTicks.ClaimAccrualTick(st.ID, cycleTime, s.tickGap)
	if err != nil {
		return 0, err
	}
	if !claimed {
		return 0, nil
	}

	increment, err := s.StakeIncrement(st.Tier, st.DurationMonths)
	if err != nil {
		return 0, err
	}
	if err := s.balances.AddPoints(st.UserWallet, st.Tier, increment, cycleTime); err != nil {
		return 0, err
	}
	if s.broadcast != nil {
		s.broadcast.PublishBalance(st.UserWallet)
	}
	return increment, nil
}

// ProcessGrants applies one tick of points for every active manual grant.
// A failure on one grant is logged and the rest continue.
func (s *Service) ProcessGrants(cycleTime time.Time) (processed int, accrued float64, err error) {
	grants, err := s.grants.ActiveGrants(cycleTime)
	if err != nil {
		return 0, 0, err
	}

	for _, grant := range grants {
		if !grant.ActiveAt(cycleTime) {
			continue
		}
		claimed, err := s.grants.ClaimAccrualTick(grant.ID, cycleTime, s.tickGap)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"grant": grant.ID,
			}).Error(err)
			continue
		}
		if !claimed {
			continue
		}
		increment, err := s.GrantIncrement(grant.Tier)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"grant": grant.ID,
				"tier":  grant.Tier,
			}).Error(err)
			continue
		}
		if err := s.balances.AddPoints(grant.UserWallet, grant.Tier, increment, cycleTime); err != nil {
			s.logger.WithFields(logrus.Fields{
				"grant":  grant.ID,
				"wallet": grant.UserWallet,
			}).Error(err)
			continue
		}
		if s.broadcast != nil {
			s.broadcast.PublishBalance(grant.UserWallet)
		}
		processed++
		accrued += increment
	}
	return processed, accrued, nil
}

// Balance returns the wallet's reward balance for the read API.
func (s *Service) Balance(wallet string) (*models.RewardBalance, error) {
	return s.balances.BalanceByWallet(wallet)
}
