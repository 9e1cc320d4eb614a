package core

import (
	"math/rand"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/sirupsen/logrus"
	"github.com/suilfg/staking-engine/broadcast"
	"github.com/suilfg/staking-engine/group"
	"github.com/suilfg/staking-engine/ledger"
	"github.com/suilfg/staking-engine/metrics"
	"github.com/suilfg/staking-engine/models"
	"github.com/suilfg/staking-engine/ownership"
	"github.com/suilfg/staking-engine/profile"
	"github.com/suilfg/staking-engine/referral"
	"github.com/suilfg/staking-engine/reward"
	"github.com/suilfg/staking-engine/stake"
)

type Engine struct {
	env             *models.Environment
	db              *pg.DB
	logger          *logrus.Entry
	metrics         *metrics.Metrics
	verifier        *ownership.Verifier
	stakeRepository *stake.Repository
	grantRepository *reward.GrantRepository
	stakeService    *stake.Service
	rewardService   *reward.Service
	referralService *referral.Service
	groupService    *group.Service

	cycleInterval    time.Duration
	ownershipTimeout time.Duration

	cycleGate chan struct{}
}

func NewEngine(env *models.Environment) *Engine {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetReportCaller(true)
	if env.Debug {
		logger.SetFormatter(&logrus.TextFormatter{})
		logger.SetLevel(logrus.DebugLevel)
	}
	contextLogger := logger.WithFields(logrus.Fields{
		"version": "1.0",
		"app":     env.AppName,
	})

	db := pg.Connect(&pg.Options{
		Addr:         env.DbHost + ":" + env.DbPort,
		User:         env.DbUser,
		Password:     env.DbPassword,
		Database:     env.DbName,
		MinIdleConns: env.DbMinIdleConns,
		PoolSize:     env.DbPoolSize,
	})

	cycleInterval := time.Duration(env.CycleMinutes) * time.Minute
	ownershipTimeout := time.Duration(env.OwnershipTimeoutSec) * time.Second
	// The idempotency claim requires most of an interval between two
	// applied ticks, leaving room for scheduler jitter.
	tickGap := cycleInterval * 9 / 10

	stakeRepository := stake.NewRepository(db)
	rewardRepository := reward.NewRepository(db)
	grantRepository := reward.NewGrantRepository(db)
	referralRepository := referral.NewRepository(db)
	groupRepository := group.NewRepository(db)
	profileRepository := profile.NewRepository(db)

	broadcastService := broadcast.NewService(env, rewardRepository, contextLogger)
	ledgerClient := ledger.NewClient(env.SuiRpcUrl, ownershipTimeout)

	return &Engine{
		env:             env,
		db:              db,
		logger:          contextLogger,
		metrics:         metrics.New(),
		verifier:        ownership.NewVerifier(ledgerClient, env.MarketplaceAddresses, contextLogger),
		stakeRepository: stakeRepository,
		grantRepository: grantRepository,
		stakeService:    stake.NewService(stakeRepository, profileRepository, contextLogger),
		rewardService: reward.NewService(rewardRepository, stakeRepository, grantRepository,
			broadcastService, env.TicksPerHour(), tickGap, contextLogger),
		referralService: referral.NewService(referralRepository, groupRepository, contextLogger),
		groupService: group.NewService(groupRepository, referralRepository, broadcastService,
			rand.Float64, contextLogger),
		cycleInterval:    cycleInterval,
		ownershipTimeout: ownershipTimeout,
		cycleGate:        make(chan struct{}, 1),
	}
}

// Run drives the engine on the configured cadence until the process stops.
// The first cycle fires immediately.
func (e *Engine) Run() {
	e.logger.WithFields(logrus.Fields{
		"interval": e.cycleInterval.String(),
	}).Info("engine started")

	ticker := time.NewTicker(e.cycleInterval)
	defer ticker.Stop()

	for {
		report, err := e.RunCycle()
		if err != nil {
			e.logger.Error(err)
		} else {
			e.logger.WithFields(logrus.Fields{
				"stakes":    report.ProcessedStakes,
				"grants":    report.ProcessedGrants,
				"forfeited": report.ForfeitedStakes,
				"deferred":  report.DeferredStakes,
			}).Info("cycle finished")
		}
		<-ticker.C
	}
}

// Logger returns the engine's root log entry for reuse by the HTTP layer.
func (e *Engine) Logger() *logrus.Entry {
	return e.logger
}

// StakeIntake exposes the intake operation to the HTTP layer.
func (e *Engine) StakeIntake(req *stake.IntakeRequest) (*models.Stake, error) {
	return e.stakeService.Intake(req)
}

// PlayGamble exposes the gamble operation to the HTTP layer.
func (e *Engine) PlayGamble(groupID uint64, wallet string) (*group.GambleResult, error) {
	res, err := e.groupService.PlayGamble(groupID, wallet)
	if err == nil {
		e.metrics.Gambles.WithLabelValues(string(res.Outcome)).Inc()
	}
	return res, err
}

// Balance returns a wallet's reward balance.
func (e *Engine) Balance(wallet string) (*models.RewardBalance, error) {
	return e.rewardService.Balance(wallet)
}

// ActiveGrants returns a wallet's currently accruing manual grants.
func (e *Engine) ActiveGrants(wallet string) ([]*models.ManualGrant, error) {
	return e.grantRepository.ActiveGrantsByWallet(wallet, time.Now().UTC())
}
