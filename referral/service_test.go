package referral

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suilfg/staking-engine/models"
)

type fakeStorage struct {
	matured   []*models.Referral
	groupable []*models.Referral
	confirmed []uint64
}

func (f *fakeStorage) PendingMatured(threshold time.Time) ([]*models.Referral, error) {
	var out []*models.Referral
	for _, ref := range f.matured {
		if ref.Stake != nil && !ref.Stake.StartTime.After(threshold) {
			out = append(out, ref)
		}
	}
	return out, nil
}

func (f *fakeStorage) Confirm(id uint64) (bool, error) {
	f.confirmed = append(f.confirmed, id)
	return true, nil
}

func (f *fakeStorage) Groupable() ([]*models.Referral, error) {
	return f.groupable, nil
}

func (f *fakeStorage) StatusesByIDs(ids []uint64) (map[uint64]models.ReferralStatus, error) {
	return map[uint64]models.ReferralStatus{}, nil
}

func (f *fakeStorage) SetMapped(ids []uint64, mapped bool) error {
	return nil
}

type fakeGroupWriter struct {
	groups  []*models.ReferralGroup
	members [][]uint64
}

func (f *fakeGroupWriter) CreateWithMembers(g *models.ReferralGroup, memberIDs []uint64) error {
	g.ID = uint64(len(f.groups) + 1)
	f.groups = append(f.groups, g)
	f.members = append(f.members, memberIDs)
	return nil
}

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(logger)
}

func pendingReferral(id uint64, referrer string, tier models.Tier, createdAt time.Time) *models.Referral {
	stakeID := id * 100
	return &models.Referral{
		ID:             id,
		ReferrerWallet: referrer,
		StakeID:        &stakeID,
		Status:         models.ReferralPending,
		CreatedAt:      createdAt,
		Stake:          &models.Stake{ID: stakeID, Tier: tier, Status: models.StakeActive},
	}
}

func TestConfirmMaturedWindow(t *testing.T) {
	now := time.Now()
	young := pendingReferral(1, "0xref", models.TierVoter, now)
	young.Stake.StartTime = now.Add(-9 * 24 * time.Hour)
	old := pendingReferral(2, "0xref", models.TierVoter, now)
	old.Stake.StartTime = now.Add(-10*24*time.Hour - time.Minute)

	storage := &fakeStorage{matured: []*models.Referral{young, old}}
	s := NewService(storage, &fakeGroupWriter{}, testLogger())

	confirmed, err := s.ConfirmMatured(now)
	require.NoError(t, err)

	// Only the stake active for >= 10 days confirms.
	assert.Equal(t, 1, confirmed)
	assert.Equal(t, []uint64{2}, storage.confirmed)
}

func TestFormGroupsBelowCohortSize(t *testing.T) {
	now := time.Now()
	storage := &fakeStorage{groupable: []*models.Referral{
		pendingReferral(1, "0xref", models.TierVoter, now.Add(-3*time.Hour)),
		pendingReferral(2, "0xref", models.TierVoter, now.Add(-2*time.Hour)),
	}}
	writer := &fakeGroupWriter{}
	s := NewService(storage, writer, testLogger())

	created, err := s.FormGroups(now)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Empty(t, writer.groups)
}

func TestFormGroupsTriggersAtThird(t *testing.T) {
	now := time.Now()
	storage := &fakeStorage{groupable: []*models.Referral{
		pendingReferral(1, "0xref", models.TierVoter, now.Add(-3*time.Hour)),
		pendingReferral(2, "0xref", models.TierVoter, now.Add(-2*time.Hour)),
		pendingReferral(3, "0xref", models.TierVoter, now.Add(-1*time.Hour)),
	}}
	writer := &fakeGroupWriter{}
	s := NewService(storage, writer, testLogger())

	created, err := s.FormGroups(now)
	require.NoError(t, err)

	assert.Equal(t, 1, created)
	require.Len(t, writer.groups, 1)
	g := writer.groups[0]
	assert.Equal(t, "0xref", g.ReferrerWallet)
	assert.Equal(t, models.TierVoter, g.Tier)
	assert.Equal(t, models.GroupVesting, g.Status)
	assert.Equal(t, models.GambleOffered, g.GambleStatus)
	assert.Equal(t, now, g.VestingStart)
	assert.Equal(t, now.Add(VestingWindow), g.VestingEnd)
	assert.Equal(t, []uint64{1, 2, 3}, writer.members[0])
}

func TestFormGroupsPicksOldestThree(t *testing.T) {
	now := time.Now()
	// Groupable returns oldest first; ids 4,1,2 are the three oldest.
	storage := &fakeStorage{groupable: []*models.Referral{
		pendingReferral(4, "0xref", models.TierCouncil, now.Add(-5*time.Hour)),
		pendingReferral(1, "0xref", models.TierCouncil, now.Add(-4*time.Hour)),
		pendingReferral(2, "0xref", models.TierCouncil, now.Add(-3*time.Hour)),
		pendingReferral(9, "0xref", models.TierCouncil, now.Add(-1*time.Hour)),
	}}
	writer := &fakeGroupWriter{}
	s := NewService(storage, writer, testLogger())

	created, err := s.FormGroups(now)
	require.NoError(t, err)

	assert.Equal(t, 1, created)
	assert.Equal(t, []uint64{4, 1, 2}, writer.members[0])
}

func TestFormGroupsPartitionsByReferrerAndTier(t *testing.T) {
	now := time.Now()
	storage := &fakeStorage{groupable: []*models.Referral{
		pendingReferral(1, "0xref", models.TierVoter, now.Add(-6*time.Hour)),
		pendingReferral(2, "0xref", models.TierGovernor, now.Add(-5*time.Hour)),
		pendingReferral(3, "0xref", models.TierVoter, now.Add(-4*time.Hour)),
		pendingReferral(4, "0xother", models.TierVoter, now.Add(-3*time.Hour)),
		pendingReferral(5, "0xref", models.TierVoter, now.Add(-2*time.Hour)),
	}}
	writer := &fakeGroupWriter{}
	s := NewService(storage, writer, testLogger())

	created, err := s.FormGroups(now)
	require.NoError(t, err)

	// Only (0xref, Voter) reaches three members.
	assert.Equal(t, 1, created)
	require.Len(t, writer.groups, 1)
	assert.Equal(t, models.TierVoter, writer.groups[0].Tier)
	assert.Equal(t, []uint64{1, 3, 5}, writer.members[0])
}

func TestFormGroupsTwoCohortsFromSixReferrals(t *testing.T) {
	now := time.Now()
	var eligible []*models.Referral
	for i := uint64(1); i <= 6; i++ {
		eligible = append(eligible, pendingReferral(i, "0xref", models.TierGovernor,
			now.Add(-time.Duration(7-i)*time.Hour)))
	}
	storage := &fakeStorage{groupable: eligible}
	writer := &fakeGroupWriter{}
	s := NewService(storage, writer, testLogger())

	created, err := s.FormGroups(now)
	require.NoError(t, err)

	assert.Equal(t, 2, created)
	assert.Equal(t, []uint64{1, 2, 3}, writer.members[0])
	assert.Equal(t, []uint64{4, 5, 6}, writer.members[1])
}

func TestFormGroupsSkipsReferralWithoutStake(t *testing.T) {
	now := time.Now()
	dangling := &models.Referral{ID: 1, ReferrerWallet: "0xref", Status: models.ReferralPending}
	storage := &fakeStorage{groupable: []*models.Referral{
		dangling,
		pendingReferral(2, "0xref", models.TierVoter, now.Add(-3*time.Hour)),
		pendingReferral(3, "0xref", models.TierVoter, now.Add(-2*time.Hour)),
	}}
	writer := &fakeGroupWriter{}
	s := NewService(storage, writer, testLogger())

	created, err := s.FormGroups(now)
	require.NoError(t, err)
	assert.Zero(t, created)
}
