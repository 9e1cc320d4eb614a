package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/suilfg/staking-engine/core"
	"github.com/suilfg/staking-engine/group"
	"github.com/suilfg/staking-engine/models"
	"github.com/suilfg/staking-engine/stake"
)

// Engine is the surface of engine operations the HTTP layer forwards to.
type Engine interface {
	RunCycle() (*core.CycleReport, error)
	StakeIntake(req *stake.IntakeRequest) (*models.Stake, error)
	PlayGamble(groupID uint64, wallet string) (*group.GambleResult, error)
	Balance(wallet string) (*models.RewardBalance, error)
	ActiveGrants(wallet string) ([]*models.ManualGrant, error)
}

// Api is the engine's HTTP surface: the cycle trigger, the stake intake,
// the gamble, two read endpoints and prometheus metrics.
type Api struct {
	env    *models.Environment
	engine Engine
	logger *logrus.Entry
}

func New(env *models.Environment, engine Engine, logger *logrus.Entry) *Api {
	return &Api{
		env:    env,
		engine: engine,
		logger: logger,
	}
}

func (api *Api) Run() {
	if !api.env.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.router()

	addr := fmt.Sprintf("%s:%d", api.env.ApiHost, api.env.ApiPort)
	if err := router.Run(addr); err != nil {
		api.logger.Fatal(err)
	}
}

func (api *Api) router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/cycle", api.runCycle)
	router.POST("/stake", api.stakeIntake)
	router.POST("/gamble", api.playGamble)
	router.GET("/rewards/:wallet", api.walletRewards)
	router.GET("/grants", api.walletGrants)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
