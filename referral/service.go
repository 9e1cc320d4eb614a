package referral

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/suilfg/staking-engine/models"
)

const (
	// MaturationWindow is how long a referral's stake must have been active
	// before the referral confirms.
	MaturationWindow = 10 * 24 * time.Hour
	// CohortSize is the fixed member count of a vesting cohort.
	CohortSize = 3
	// VestingWindow is the initial vesting duration of a new cohort.
	VestingWindow = 10 * 24 * time.Hour
)

type Storage interface {
	PendingMatured(threshold time.Time) ([]*models.Referral, error)
	Confirm(id uint64) (bool, error)
	Groupable() ([]*models.Referral, error)
	StatusesByIDs(ids []uint64) (map[uint64]models.ReferralStatus, error)
	SetMapped(ids []uint64, mapped bool) error
}

// GroupWriter creates a cohort and marks its members mapped in one
// transaction. Implemented by the group repository, which owns cohort rows.
type GroupWriter interface {
	CreateWithMembers(group *models.ReferralGroup, memberIDs []uint64) error
}

type Service struct {
	storage Storage
	groups  GroupWriter
	logger  *logrus.Entry
}

func NewService(storage Storage, groups GroupWriter, logger *logrus.Entry) *Service {
	return &Service{
		storage: storage,
		groups:  groups,
		logger:  logger,
	}
}

// ConfirmMatured confirms pending referrals whose stake has been active for
// at least the maturation window.
func (s *Service) ConfirmMatured(now time.Time) (int, error) {
	matured, err := s.storage.PendingMatured(now.Add(-MaturationWindow))
	if err != nil {
		return 0, err
	}

	confirmed := 0
	for _, ref := range matured {
		if !ref.Status.CanTransitionTo(models.ReferralConfirmed) {
			continue
		}
		ok, err := s.storage.Confirm(ref.ID)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"referral": ref.ID,
			}).Error(err)
			continue
		}
		if ok {
			confirmed++
			s.logger.WithFields(logrus.Fields{
				"referral": ref.ID,
				"referrer": ref.ReferrerWallet,
			}).Info("referral confirmed")
		}
	}
	return confirmed, nil
}

// FormGroups partitions unmapped pending/confirmed referrals by
// (referrer, tier) and turns every full triple into a vesting cohort,
// oldest referrals first. Partitions below the cohort size are left for a
// later cycle.
func (s *Service) FormGroups(now time.Time) (int, error) {
	eligible, err := s.storage.Groupable()
	if err != nil {
		return 0, err
	}

	type partitionKey struct {
		referrer string
		tier     models.Tier
	}
	partitions := make(map[partitionKey][]*models.Referral)
	var order []partitionKey
	for _, ref := range eligible {
		if ref.Stake == nil {
			// No stake back-reference yet; it cannot carry a tier.
			continue
		}
		key := partitionKey{referrer: ref.ReferrerWallet, tier: ref.Stake.Tier}
		if _, seen := partitions[key]; !seen {
			order = append(order, key)
		}
		partitions[key] = append(partitions[key], ref)
	}

	created := 0
	for _, key := range order {
		members := partitions[key]
		// Groupable returns referrals oldest first, so each full window of
		// CohortSize is already the FIFO pick.
		for len(members) >= CohortSize {
			picked := members[:CohortSize]
			members = members[CohortSize:]

			group := &models.ReferralGroup{
				ReferrerWallet: key.referrer,
				Tier:           key.tier,
				Referral1ID:    picked[0].ID,
				Referral2ID:    picked[1].ID,
				Referral3ID:    picked[2].ID,
				Status:         models.GroupVesting,
				GambleStatus:   models.GambleOffered,
				VestingStart:   now,
				VestingEnd:     now.Add(VestingWindow),
				CreatedAt:      now,
			}
			memberIDs := []uint64{picked[0].ID, picked[1].ID, picked[2].ID}
			if err := s.groups.CreateWithMembers(group, memberIDs); err != nil {
				s.logger.WithFields(logrus.Fields{
					"referrer": key.referrer,
					"tier":     key.tier,
				}).Error(err)
				break
			}
			created++
			s.logger.WithFields(logrus.Fields{
				"group":    group.ID,
				"referrer": key.referrer,
				"tier":     key.tier,
			}).Info("referral group created")
		}
	}
	return created, nil
}
