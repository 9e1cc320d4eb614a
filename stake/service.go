package stake

import (
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/sirupsen/logrus"
	"github.com/suilfg/staking-engine/helpers"
	"github.com/suilfg/staking-engine/models"
)

// durationDayTolerance is the advisory allowance between staking_duration_days
// and stake_duration_months*30. Larger gaps are normalized, never rejected.
const durationDayTolerance = 5

// Storage is the persistence surface the stake service needs.
type Storage interface {
	ActiveStakes() ([]*models.Stake, error)
	ExistsActiveByObject(nftObjectID string) (bool, error)
	ReferralPairUsed(nftObjectID, referralCode string) (bool, error)
	CreateWithReferral(stake *models.Stake, referral *models.Referral) error
	ForfeitCascade(stake *models.Stake, reason models.ForfeitureReason, referrerWallet string, occurredAt time.Time) (bool, error)
	ClaimAccrualTick(stakeID uint64, cycleTime time.Time, minGap time.Duration) (bool, error)
	CompleteExpired(now time.Time) (int, error)
}

// ProfileResolver resolves a referral code to the referrer's wallet. The
// profiles table belongs to an external collaborator.
type ProfileResolver interface {
	WalletByReferralCode(code string) (string, error)
}

type IntakeRequest struct {
	UserWallet       string      `json:"user_wallet"`
	NftObjectID      string      `json:"nft_object_id"`
	Tier             models.Tier `json:"nft_tier"`
	DurationDays     int         `json:"staking_duration_days"`
	DurationMonths   int         `json:"stake_duration_months"`
	ReferralCodeUsed string      `json:"referral_code_used"`
	VerificationCode string      `json:"verification_code"`
}

type Service struct {
	storage  Storage
	profiles ProfileResolver
	logger   *logrus.Entry
}

func NewService(storage Storage, profiles ProfileResolver, logger *logrus.Entry) *Service {
	return &Service{
		storage:  storage,
		profiles: profiles,
		logger:   logger,
	}
}

// Intake validates the request and opens the stake, creating the pending
// referral first when a code is supplied. The referral, the stake and the
// back-reference are written in one transaction by the storage layer.
func (s *Service) Intake(req *IntakeRequest) (*models.Stake, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if gap := req.DurationDays - req.DurationMonths*30; gap > durationDayTolerance || gap < -durationDayTolerance {
		// Advisory only; the end time is normalized from duration_days.
		s.logger.WithFields(logrus.Fields{
			"wallet": req.UserWallet,
			"days":   req.DurationDays,
			"months": req.DurationMonths,
		}).Debug("stake duration mismatch normalized")
	}

	exists, err := s.storage.ExistsActiveByObject(req.NftObjectID)
	if err != nil {
		return nil, helpers.NewPersistence("stake_lookup_failed", err)
	}
	if exists {
		return nil, helpers.NewConflict("nft_already_staked")
	}

	var referral *models.Referral
	if req.ReferralCodeUsed != "" {
		referrerWallet, err := s.profiles.WalletByReferralCode(req.ReferralCodeUsed)
		if err != nil {
			if err == pg.ErrNoRows {
				return nil, helpers.NewValidation("unknown_referral_code")
			}
			return nil, helpers.NewUpstream("referral_code_lookup_failed", err)
		}

		used, err := s.storage.ReferralPairUsed(req.NftObjectID, req.ReferralCodeUsed)
		if err != nil {
			return nil, helpers.NewPersistence("referral_reuse_check_failed", err)
		}
		if used {
			return nil, helpers.NewConflict("referral_pair_already_used")
		}

		referral = &models.Referral{
			ReferrerWallet: referrerWallet,
			Status:         models.ReferralPending,
			CreatedAt:      time.Now().UTC(),
		}
	}

	now := time.Now().UTC()
	st := &models.Stake{
		UserWallet:       req.UserWallet,
		NftObjectID:      req.NftObjectID,
		Tier:             req.Tier,
		DurationDays:     req.DurationDays,
		DurationMonths:   req.DurationMonths,
		StartTime:        now,
		EndTime:          now.Add(time.Duration(req.DurationDays) * 24 * time.Hour),
		ReferralCodeUsed: req.ReferralCodeUsed,
		VerificationCode: req.VerificationCode,
		Status:           models.StakeActive,
		CreatedAt:        now,
	}

	if err := s.storage.CreateWithReferral(st, referral); err != nil {
		if pgErr, ok := err.(pg.Error); ok && pgErr.IntegrityViolation() {
			// The partial unique index on active stakes closes the
			// check-then-act race.
			return nil, helpers.NewConflict("nft_already_staked")
		}
		return nil, helpers.NewPersistence("stake_create_failed", err)
	}

	s.logger.WithFields(logrus.Fields{
		"stake":  st.ID,
		"wallet": st.UserWallet,
		"tier":   st.Tier,
	}).Info("stake opened")
	return st, nil
}

// Forfeit cascades a failed ownership check: the stake flips to forfeited,
// its referral (if any) is forfeited, and the audit record is appended.
func (s *Service) Forfeit(st *models.Stake, reason models.ForfeitureReason, referrerWallet string) error {
	if !st.Status.CanTransitionTo(models.StakeForfeited) {
		return helpers.NewConflict("stake_not_active")
	}
	applied, err := s.storage.ForfeitCascade(st, reason, referrerWallet, time.Now().UTC())
	if err != nil {
		return helpers.NewPersistence("forfeit_failed", err)
	}
	if applied {
		s.logger.WithFields(logrus.Fields{
			"stake":  st.ID,
			"wallet": st.UserWallet,
			"reason": reason,
		}).Info("stake forfeited")
	}
	return nil
}

func validate(req *IntakeRequest) error {
	if req.UserWallet == "" || req.NftObjectID == "" {
		return helpers.NewValidation("missing_required_fields")
	}
	if !req.Tier.Valid() {
		return helpers.NewValidation("invalid_tier")
	}
	if req.DurationDays < 30 || req.DurationDays > 1095 {
		return helpers.NewValidation("duration_days_out_of_range")
	}
	if req.DurationMonths < 1 || req.DurationMonths > 3 {
		return helpers.NewValidation("invalid_duration_months")
	}
	return nil
}
