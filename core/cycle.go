package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/suilfg/staking-engine/helpers"
	"github.com/suilfg/staking-engine/models"
	"github.com/suilfg/staking-engine/ownership"
)

// CycleReport carries the counts of one processing cycle back to the
// scheduler.
type CycleReport struct {
	ProcessedStakes    int     `json:"processedStakes"`
	ProcessedGrants    int     `json:"processedGrants"`
	CompletedStakes    int     `json:"completedStakes"`
	ForfeitedStakes    int     `json:"forfeitedStakes"`
	DeferredStakes     int     `json:"deferredStakes"`
	ConfirmedReferrals int     `json:"confirmedReferrals"`
	GroupsCreated      int     `json:"groupsCreated"`
	GroupsClaimable    int     `json:"groupsClaimable"`
	GroupsForfeited    int     `json:"groupsForfeited"`
	PointsAccrued      float64 `json:"pointsAccrued"`
}

// RunCycle executes one full processing pass: ownership verification and
// accrual over every active stake, referral confirmation, cohort formation
// and resolution, then manual grants. Item failures are logged and skipped;
// only total storage unavailability fails the cycle. A cycle that finds
// another one still running returns a conflict without touching anything.
func (e *Engine) RunCycle() (*CycleReport, error) {
	select {
	case e.cycleGate <- struct{}{}:
	default:
		return nil, helpers.NewConflict("cycle_already_running")
	}
	defer func() { <-e.cycleGate }()

	start := time.Now()
	cycleTime := start.UTC()
	report := new(CycleReport)

	completed, err := e.stakeRepository.CompleteExpired(cycleTime)
	if err != nil {
		return nil, helpers.NewPersistence("complete_expired_failed", err)
	}
	report.CompletedStakes = completed

	stakes, err := e.stakeRepository.ActiveStakes()
	if err != nil {
		return nil, helpers.NewPersistence("active_stakes_fetch_failed", err)
	}
	e.processStakes(stakes, cycleTime, report)

	confirmed, err := e.referralService.ConfirmMatured(cycleTime)
	if err != nil {
		e.logger.Error(err)
	}
	report.ConfirmedReferrals = confirmed
	e.metrics.ReferralsConfirmed.Add(float64(confirmed))

	created, err := e.referralService.FormGroups(cycleTime)
	if err != nil {
		e.logger.Error(err)
	}
	report.GroupsCreated = created
	e.metrics.GroupsCreated.Add(float64(created))

	claimable, forfeitedGroups, err := e.groupService.Resolve(cycleTime)
	if err != nil {
		e.logger.Error(err)
	}
	report.GroupsClaimable = claimable
	report.GroupsForfeited = forfeitedGroups
	e.metrics.GroupsClaimable.Add(float64(claimable))
	e.metrics.GroupsForfeited.Add(float64(forfeitedGroups))

	grantsProcessed, grantPoints, err := e.rewardService.ProcessGrants(cycleTime)
	if err != nil {
		return nil, helpers.NewPersistence("grants_fetch_failed", err)
	}
	report.ProcessedGrants = grantsProcessed
	report.PointsAccrued += grantPoints
	e.metrics.GrantsProcessed.Add(float64(grantsProcessed))

	e.metrics.CycleDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	return report, nil
}

// processStakes runs the ownership check for every active stake with
// bounded concurrency and applies the outcome: accrue, forfeit-cascade, or
// defer to the next cycle when the ledger could not answer.
func (e *Engine) processStakes(stakes []*models.Stake, cycleTime time.Time, report *CycleReport) {
	var processed, forfeited, deferred int64
	var accruedMu sync.Mutex
	accrued := 0.0

	jobs := make(chan *models.Stake)
	var wg sync.WaitGroup

	workers := e.env.OwnershipWorkers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for st := range jobs {
				ctx, cancel := context.WithTimeout(context.Background(), e.ownershipTimeout)
				result := e.verifier.Verify(ctx, st.NftObjectID, st.UserWallet)
				cancel()

				switch {
				case result.ContinueAccruing():
					increment, err := e.rewardService.AccrueStake(st, cycleTime)
					if err != nil {
						e.logger.WithFields(logrus.Fields{
							"stake": st.ID,
						}).Error(err)
						continue
					}
					atomic.AddInt64(&processed, 1)
					if increment > 0 {
						accruedMu.Lock()
						accrued += increment
						accruedMu.Unlock()
						e.metrics.PointsAccrued.WithLabelValues(string(st.Tier)).Add(increment)
					}
				case result.Outcome == ownership.Unknown:
					atomic.AddInt64(&deferred, 1)
					e.metrics.StakesDeferred.Inc()
					e.logger.WithFields(logrus.Fields{
						"stake":  st.ID,
						"detail": result.Detail,
					}).Warn("ownership unknown, deferred to next cycle")
				default:
					reason, ok := result.Forfeit()
					if !ok {
						continue
					}
					referrerWallet := ""
					if st.Referral != nil {
						referrerWallet = st.Referral.ReferrerWallet
					}
					if err := e.stakeService.Forfeit(st, reason, referrerWallet); err != nil {
						e.logger.WithFields(logrus.Fields{
							"stake": st.ID,
						}).Error(err)
						continue
					}
					atomic.AddInt64(&forfeited, 1)
					e.metrics.StakesForfeited.WithLabelValues(string(reason)).Inc()
				}
			}
		}()
	}

	for _, st := range stakes {
		jobs <- st
	}
	close(jobs)
	wg.Wait()

	report.ProcessedStakes = int(processed)
	report.ForfeitedStakes = int(forfeited)
	report.DeferredStakes = int(deferred)
	report.PointsAccrued += accrued
	e.metrics.StakesProcessed.Add(float64(processed))
}
