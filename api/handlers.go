package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suilfg/staking-engine/helpers"
	"github.com/suilfg/staking-engine/stake"
)

// runCycle triggers one processing cycle. The scheduler authorizes with
// either a bearer credential or the shared cron secret header.
func (api *Api) runCycle(c *gin.Context) {
	if !api.cycleAuthorized(c) {
		abortWithError(c, helpers.NewAuth("unauthorized"))
		return
	}

	report, err := api.engine.RunCycle()
	if err != nil {
		api.logger.Error(err)
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "reward processing completed",
		"report":  report,
	})
}

func (api *Api) cycleAuthorized(c *gin.Context) bool {
	if strings.Contains(c.GetHeader("Authorization"), "Bearer") {
		return true
	}
	secret := api.env.CronSecret
	return secret != "" && c.GetHeader("X-Cron-Secret") == secret
}

// stakeIntake opens a stake. Authorized by the shared stake API secret.
func (api *Api) stakeIntake(c *gin.Context) {
	secret := api.env.StakeApiSecret
	if secret == "" || c.GetHeader("X-Stake-Api-Secret") != secret {
		abortWithError(c, helpers.NewAuth("unauthorized"))
		return
	}

	req := new(stake.IntakeRequest)
	if err := c.ShouldBindJSON(req); err != nil {
		abortWithError(c, helpers.NewValidation("malformed_body"))
		return
	}

	st, err := api.engine.StakeIntake(req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "NFT staked successfully",
		"stake":   st,
	})
}

type gambleRequest struct {
	GroupID    uint64 `json:"group_id"`
	UserWallet string `json:"user_wallet"`
}

// playGamble runs the one-shot vesting gamble. The caller must present the
// cohort's referrer wallet; the service enforces the match.
func (api *Api) playGamble(c *gin.Context) {
	if c.GetHeader("Authorization") == "" {
		abortWithError(c, helpers.NewAuth("missing_authorization"))
		return
	}

	req := new(gambleRequest)
	if err := c.ShouldBindJSON(req); err != nil {
		abortWithError(c, helpers.NewValidation("malformed_body"))
		return
	}
	if req.GroupID == 0 || req.UserWallet == "" {
		abortWithError(c, helpers.NewValidation("missing_required_fields"))
		return
	}

	result, err := api.engine.PlayGamble(req.GroupID, req.UserWallet)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result.Outcome,
		"group":   result.Group,
	})
}

func (api *Api) walletRewards(c *gin.Context) {
	wallet := c.Param("wallet")
	balance, err := api.engine.Balance(wallet)
	if err != nil {
		api.logger.Error(err)
		abortWithError(c, helpers.NewPersistence("rewards_fetch_failed", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"rewards": balance,
	})
}

func (api *Api) walletGrants(c *gin.Context) {
	wallet := c.Query("wallet")
	if wallet == "" {
		abortWithError(c, helpers.NewValidation("missing_wallet"))
		return
	}
	grants, err := api.engine.ActiveGrants(wallet)
	if err != nil {
		api.logger.Error(err)
		abortWithError(c, helpers.NewPersistence("grants_fetch_failed", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"grants":  grants,
	})
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusOf(err), gin.H{
		"success": false,
		"error":   helpers.ReasonOf(err),
	})
}

func statusOf(err error) int {
	switch helpers.KindOf(err) {
	case helpers.KindValidation:
		return http.StatusBadRequest
	case helpers.KindAuth:
		return http.StatusUnauthorized
	case helpers.KindForbidden:
		return http.StatusForbidden
	case helpers.KindNotFound:
		return http.StatusNotFound
	case helpers.KindConflict:
		return http.StatusConflict
	case helpers.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
