package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	CycleDurationMs    prometheus.Summary
	StakesProcessed    prometheus.Counter
	StakesForfeited    *prometheus.CounterVec
	StakesDeferred     prometheus.Counter
	PointsAccrued      *prometheus.CounterVec
	GrantsProcessed    prometheus.Counter
	ReferralsConfirmed prometheus.Counter
	GroupsCreated      prometheus.Counter
	GroupsClaimable    prometheus.Counter
	GroupsForfeited    prometheus.Counter
	Gambles            *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		CycleDurationMs: prometheus.NewSummary(prometheus.SummaryOpts{
			Name: "se_cycle_duration_ms",
		}),
		StakesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "se_stakes_processed_total",
		}),
		StakesForfeited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "se_stakes_forfeited_total",
		}, []string{"reason"}),
		StakesDeferred: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "se_stakes_deferred_total",
		}),
		PointsAccrued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "se_points_accrued_total",
		}, []string{"tier"}),
		GrantsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "se_grants_processed_total",
		}),
		ReferralsConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "se_referrals_confirmed_total",
		}),
		GroupsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "se_referral_groups_created_total",
		}),
		GroupsClaimable: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "se_referral_groups_claimable_total",
		}),
		GroupsForfeited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "se_referral_groups_forfeited_total",
		}),
		Gambles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "se_gambles_total",
		}, []string{"outcome"}),
	}

	prometheus.MustRegister(
		m.CycleDurationMs,
		m.StakesProcessed,
		m.StakesForfeited,
		m.StakesDeferred,
		m.PointsAccrued,
		m.GrantsProcessed,
		m.ReferralsConfirmed,
		m.GroupsCreated,
		m.GroupsClaimable,
		m.GroupsForfeited,
		m.Gambles,
	)

	return m
}
