package group

import (
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/sirupsen/logrus"
	"github.com/suilfg/staking-engine/helpers"
	"github.com/suilfg/staking-engine/models"
)

const (
	// WinProbability is the gamble's chance of an immediate claimable.
	WinProbability = 0.10
	// LossExtension is how far a lost gamble pushes vesting_end out.
	LossExtension = 10 * 24 * time.Hour
)

type Storage interface {
	ByID(id uint64) (*models.ReferralGroup, error)
	VestingGroups() ([]*models.ReferralGroup, error)
	ForfeitWithUnmap(groupID uint64, survivorIDs []uint64) (bool, error)
	MarkClaimable(groupID uint64) (bool, error)
	GambleWin(groupID uint64, wallet string) (bool, error)
	GambleLose(groupID uint64, wallet string, extension time.Duration) (bool, error)
}

// MemberReader resolves cohort member statuses; implemented by the referral
// repository, which owns referral rows.
type MemberReader interface {
	StatusesByIDs(ids []uint64) (map[uint64]models.ReferralStatus, error)
}

type Broadcaster interface {
	PublishGroup(g *models.ReferralGroup)
}

type Service struct {
	storage   Storage
	members   MemberReader
	broadcast Broadcaster
	rand      func() float64
	logger    *logrus.Entry
}

func NewService(storage Storage, members MemberReader, broadcast Broadcaster,
	rand func() float64, logger *logrus.Entry) *Service {
	return &Service{
		storage:   storage,
		members:   members,
		broadcast: broadcast,
		rand:      rand,
		logger:    logger,
	}
}

// Resolve advances every vesting cohort: any forfeited member forfeits the
// cohort and frees the survivors for re-grouping; a fully confirmed cohort
// past its vesting end becomes claimable. A cohort with a lost gamble still
// claims through ordinary expiry of its extended vesting end. One cohort's
// failure never stops the rest.
func (s *Service) Resolve(now time.Time) (claimable, forfeited int, err error) {
	groups, err := s.storage.VestingGroups()
	if err != nil {
		return 0, 0, err
	}

	for _, g := range groups {
		statuses, err := s.members.StatusesByIDs(g.MemberIDs())
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"group": g.ID,
			}).Error(err)
			continue
		}

		anyForfeited := false
		allConfirmed := true
		var survivors []uint64
		for _, id := range g.MemberIDs() {
			switch statuses[id] {
			case models.ReferralForfeited:
				anyForfeited = true
			case models.ReferralConfirmed:
				survivors = append(survivors, id)
			default:
				survivors = append(survivors, id)
				allConfirmed = false
			}
		}

		if anyForfeited {
			if !g.Status.CanTransitionTo(models.GroupForfeited) {
				continue
			}
			applied, err := s.storage.ForfeitWithUnmap(g.ID, survivors)
			if err != nil {
				s.logger.WithFields(logrus.Fields{
					"group": g.ID,
				}).Error(err)
				continue
			}
			if applied {
				forfeited++
				g.Status = models.GroupForfeited
				s.publish(g)
				s.logger.WithFields(logrus.Fields{
					"group":    g.ID,
					"referrer": g.ReferrerWallet,
				}).Info("referral group forfeited")
			}
			continue
		}

		if allConfirmed && !now.Before(g.VestingEnd) {
			applied, err := s.storage.MarkClaimable(g.ID)
			if err != nil {
				s.logger.WithFields(logrus.Fields{
					"group": g.ID,
				}).Error(err)
				continue
			}
			if applied {
				claimable++
				g.Status = models.GroupClaimable
				s.publish(g)
				s.logger.WithFields(logrus.Fields{
					"group":    g.ID,
					"referrer": g.ReferrerWallet,
				}).Info("referral group claimable")
			}
		}
	}
	return claimable, forfeited, nil
}

type GambleResult struct {
	Outcome models.GambleStatus   `json:"result"`
	Group   *models.ReferralGroup `json:"group"`
}

// PlayGamble runs the one-shot dice roll for the cohort. The storage-level
// compare-and-swap on gamble_status=offered keeps the play single even
// under concurrent requests.
func (s *Service) PlayGamble(groupID uint64, wallet string) (*GambleResult, error) {
	g, err := s.storage.ByID(groupID)
	if err != nil {
		if err == pg.ErrNoRows {
			return nil, helpers.NewNotFound("group_not_found")
		}
		return nil, helpers.NewPersistence("group_lookup_failed", err)
	}
	if g.ReferrerWallet != wallet {
		return nil, helpers.NewForbidden("wallet_mismatch")
	}
	if g.Status != models.GroupVesting {
		return nil, helpers.NewConflict("group_not_vesting")
	}
	if !g.GambleStatus.CanTransitionTo(models.GambleWon) {
		return nil, helpers.NewConflict("gamble_already_played")
	}

	win := s.rand() < WinProbability
	if win {
		applied, err := s.storage.GambleWin(groupID, wallet)
		if err != nil {
			return nil, helpers.NewPersistence("gamble_update_failed", err)
		}
		if !applied {
			return nil, helpers.NewConflict("gamble_already_played")
		}
		g.GambleStatus = models.GambleWon
		g.Status = models.GroupClaimable
	} else {
		applied, err := s.storage.GambleLose(groupID, wallet, LossExtension)
		if err != nil {
			return nil, helpers.NewPersistence("gamble_update_failed", err)
		}
		if !applied {
			return nil, helpers.NewConflict("gamble_already_played")
		}
		g.GambleStatus = models.GambleLost
		g.VestingEnd = g.VestingEnd.Add(LossExtension)
	}

	s.publish(g)
	s.logger.WithFields(logrus.Fields{
		"group":   g.ID,
		"wallet":  wallet,
		"outcome": g.GambleStatus,
	}).Info("gamble played")
	return &GambleResult{Outcome: g.GambleStatus, Group: g}, nil
}

func (s *Service) publish(g *models.ReferralGroup) {
	if s.broadcast != nil {
		s.broadcast.PublishGroup(g)
	}
}
