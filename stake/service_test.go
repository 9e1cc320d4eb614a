package stake

import (
	"testing"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suilfg/staking-engine/helpers"
	"github.com/suilfg/staking-engine/models"
)

type fakeStakeStorage struct {
	activeObject string
	usedPairs    map[string]bool

	createdStake    *models.Stake
	createdReferral *models.Referral

	forfeited       []uint64
	forfeitReason   models.ForfeitureReason
	forfeitReferrer string
}

func (f *fakeStakeStorage) ActiveStakes() ([]*models.Stake, error) { return nil, nil }

func (f *fakeStakeStorage) ExistsActiveByObject(nftObjectID string) (bool, error) {
	return nftObjectID == f.activeObject, nil
}

func (f *fakeStakeStorage) ReferralPairUsed(nftObjectID, referralCode string) (bool, error) {
	return f.usedPairs[nftObjectID+"|"+referralCode], nil
}

func (f *fakeStakeStorage) CreateWithReferral(stake *models.Stake, referral *models.Referral) error {
	stake.ID = 1
	f.createdStake = stake
	f.createdReferral = referral
	return nil
}

func (f *fakeStakeStorage) ForfeitCascade(stake *models.Stake, reason models.ForfeitureReason,
	referrerWallet string, occurredAt time.Time) (bool, error) {
	f.forfeited = append(f.forfeited, stake.ID)
	f.forfeitReason = reason
	f.forfeitReferrer = referrerWallet
	return true, nil
}

func (f *fakeStakeStorage) ClaimAccrualTick(stakeID uint64, cycleTime time.Time, minGap time.Duration) (bool, error) {
	return true, nil
}

func (f *fakeStakeStorage) CompleteExpired(now time.Time) (int, error) { return 0, nil }

type fakeProfiles struct {
	wallets map[string]string
}

func (f *fakeProfiles) WalletByReferralCode(code string) (string, error) {
	wallet, ok := f.wallets[code]
	if !ok {
		return "", pg.ErrNoRows
	}
	return wallet, nil
}

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(logger)
}

func intakeRequest() *IntakeRequest {
	return &IntakeRequest{
		UserWallet:     "0xstaker",
		NftObjectID:    "0xnft",
		Tier:           models.TierGovernor,
		DurationDays:   90,
		DurationMonths: 3,
	}
}

func TestIntakeOpensStake(t *testing.T) {
	storage := &fakeStakeStorage{}
	s := NewService(storage, &fakeProfiles{}, testLogger())

	st, err := s.Intake(intakeRequest())
	require.NoError(t, err)

	assert.Equal(t, "0xstaker", st.UserWallet)
	assert.Equal(t, models.TierGovernor, st.Tier)
	assert.Equal(t, models.StakeActive, st.Status)
	assert.Equal(t, st.StartTime.Add(90*24*time.Hour), st.EndTime)
	assert.Nil(t, storage.createdReferral)
}

func TestIntakeWithReferralCode(t *testing.T) {
	storage := &fakeStakeStorage{}
	profiles := &fakeProfiles{wallets: map[string]string{"FRIEND42": "0xreferrer"}}
	s := NewService(storage, profiles, testLogger())

	req := intakeRequest()
	req.ReferralCodeUsed = "FRIEND42"
	_, err := s.Intake(req)
	require.NoError(t, err)

	require.NotNil(t, storage.createdReferral)
	assert.Equal(t, "0xreferrer", storage.createdReferral.ReferrerWallet)
	assert.Equal(t, models.ReferralPending, storage.createdReferral.Status)
	assert.Equal(t, "FRIEND42", storage.createdStake.ReferralCodeUsed)
}

func TestIntakeValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(r *IntakeRequest)
		reason string
	}{
		{"missing wallet", func(r *IntakeRequest) { r.UserWallet = "" }, "missing_required_fields"},
		{"missing object", func(r *IntakeRequest) { r.NftObjectID = "" }, "missing_required_fields"},
		{"bad tier", func(r *IntakeRequest) { r.Tier = "Emperor" }, "invalid_tier"},
		{"days too low", func(r *IntakeRequest) { r.DurationDays = 29 }, "duration_days_out_of_range"},
		{"days too high", func(r *IntakeRequest) { r.DurationDays = 1096 }, "duration_days_out_of_range"},
		{"months too low", func(r *IntakeRequest) { r.DurationMonths = 0 }, "invalid_duration_months"},
		{"months too high", func(r *IntakeRequest) { r.DurationMonths = 4 }, "invalid_duration_months"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewService(&fakeStakeStorage{}, &fakeProfiles{}, testLogger())
			req := intakeRequest()
			tc.mutate(req)

			_, err := s.Intake(req)
			require.Error(t, err)
			assert.Equal(t, helpers.KindValidation, helpers.KindOf(err))
			assert.Equal(t, tc.reason, helpers.ReasonOf(err))
		})
	}
}

func TestIntakeDurationBounds(t *testing.T) {
	for _, days := range []int{30, 1095} {
		s := NewService(&fakeStakeStorage{}, &fakeProfiles{}, testLogger())
		req := intakeRequest()
		req.DurationDays = days

		_, err := s.Intake(req)
		assert.NoError(t, err)
	}
}

func TestIntakeRejectsActiveDuplicate(t *testing.T) {
	storage := &fakeStakeStorage{activeObject: "0xnft"}
	s := NewService(storage, &fakeProfiles{}, testLogger())

	_, err := s.Intake(intakeRequest())
	require.Error(t, err)
	assert.Equal(t, helpers.KindConflict, helpers.KindOf(err))
	assert.Equal(t, "nft_already_staked", helpers.ReasonOf(err))
}

func TestIntakeUnknownReferralCode(t *testing.T) {
	s := NewService(&fakeStakeStorage{}, &fakeProfiles{}, testLogger())

	req := intakeRequest()
	req.ReferralCodeUsed = "NOBODY"
	_, err := s.Intake(req)
	require.Error(t, err)
	assert.Equal(t, helpers.KindValidation, helpers.KindOf(err))
	assert.Equal(t, "unknown_referral_code", helpers.ReasonOf(err))
}

func TestIntakeRejectsReferralPairReuse(t *testing.T) {
	storage := &fakeStakeStorage{usedPairs: map[string]bool{"0xnft|FRIEND42": true}}
	profiles := &fakeProfiles{wallets: map[string]string{"FRIEND42": "0xreferrer"}}
	s := NewService(storage, profiles, testLogger())

	req := intakeRequest()
	req.ReferralCodeUsed = "FRIEND42"
	_, err := s.Intake(req)
	require.Error(t, err)
	assert.Equal(t, helpers.KindConflict, helpers.KindOf(err))
	assert.Equal(t, "referral_pair_already_used", helpers.ReasonOf(err))
}

func TestForfeitCascades(t *testing.T) {
	storage := &fakeStakeStorage{}
	s := NewService(storage, &fakeProfiles{}, testLogger())

	st := &models.Stake{ID: 5, UserWallet: "0xstaker", Status: models.StakeActive}
	err := s.Forfeit(st, models.ForfeitureListed, "0xreferrer")
	require.NoError(t, err)

	assert.Equal(t, []uint64{5}, storage.forfeited)
	assert.Equal(t, models.ForfeitureListed, storage.forfeitReason)
	assert.Equal(t, "0xreferrer", storage.forfeitReferrer)
}

func TestForfeitRequiresActiveStake(t *testing.T) {
	storage := &fakeStakeStorage{}
	s := NewService(storage, &fakeProfiles{}, testLogger())

	st := &models.Stake{ID: 5, Status: models.StakeCompleted}
	err := s.Forfeit(st, models.ForfeitureTransferred, "")
	require.Error(t, err)
	assert.Equal(t, helpers.KindConflict, helpers.KindOf(err))
	assert.Empty(t, storage.forfeited)
}
