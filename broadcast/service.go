package broadcast

import (
	"context"
	"encoding/json"

	"github.com/centrifugal/gocent"
	"github.com/sirupsen/logrus"
	"github.com/suilfg/staking-engine/models"
)

// BalanceReader fetches the current balance row for publishing; implemented
// by the reward repository.
type BalanceReader interface {
	BalanceByWallet(wallet string) (*models.RewardBalance, error)
}

// Service pushes live updates to the dashboard over centrifugo: balance
// rows to the wallet's channel, cohort transitions to the referrer's
// channel. Publishing is best effort; failures are logged and dropped.
type Service struct {
	client   *gocent.Client
	balances BalanceReader
	ctx      context.Context
	logger   *logrus.Entry
}

func NewService(env *models.Environment, balances BalanceReader, logger *logrus.Entry) *Service {
	wsClient := gocent.New(gocent.Config{
		Addr: env.WsLink,
		Key:  env.WsKey,
	})

	return &Service{
		client:   wsClient,
		balances: balances,
		ctx:      context.Background(),
		logger:   logger,
	}
}

func (s *Service) PublishBalance(wallet string) {
	balance, err := s.balances.BalanceByWallet(wallet)
	if err != nil {
		s.logger.Error(err)
		return
	}
	msg, err := json.Marshal(balance)
	if err != nil {
		s.logger.Error(err)
		return
	}
	s.publish("rewards#"+wallet, msg)
}

func (s *Service) PublishGroup(g *models.ReferralGroup) {
	msg, err := json.Marshal(g)
	if err != nil {
		s.logger.Error(err)
		return
	}
	s.publish("referral_groups#"+g.ReferrerWallet, msg)
}

func (s *Service) publish(ch string, msg []byte) {
	err := s.client.Publish(s.ctx, ch, msg)
	if err != nil {
		s.logger.Warn(err)
	}
}
