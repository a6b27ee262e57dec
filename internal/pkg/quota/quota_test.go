package quota

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/LeTienDat/ViralCut/app/models"
	"github.com/LeTienDat/ViralCut/internal/pkg/plans"
)

type fakeSubStore struct {
	sub *models.Subscription
	err error
}

func (f *fakeSubStore) GetActiveByOwner(string) (*models.Subscription, error) {
	return f.sub, f.err
}

type fakeUsageStore struct {
	count int64
	err   error
}

func (f *fakeUsageStore) CountByOwnerSince(string, time.Time) (int64, error) {
	return f.count, f.err
}

func activeSub(expires time.Time) *models.Subscription {
	return &models.Subscription{
		PlanID:    "premium_monthly",
		Status:    models.SubscriptionStatusActive,
		ExpiresAt: &expires,
	}
}

func TestOracleTierFor(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	notFound := errors.New("record not found")

	tests := []struct {
		name  string
		subs  *fakeSubStore
		usage *fakeUsageStore
		email string
		want  plans.Tier
	}{
		{
			name:  "active subscription wins",
			subs:  &fakeSubStore{sub: activeSub(now.Add(24 * time.Hour))},
			usage: &fakeUsageStore{count: 99},
			email: "premium@example.com",
			want:  plans.TierPremium,
		},
		{
			name:  "expired subscription falls through to usage",
			subs:  &fakeSubStore{sub: activeSub(now.Add(-time.Hour))},
			usage: &fakeUsageStore{count: 0},
			email: "lapsed@example.com",
			want:  plans.TierFreeHigh,
		},
		{
			name:  "allowance remaining grants free high quality",
			subs:  &fakeSubStore{err: notFound},
			usage: &fakeUsageStore{count: 1},
			email: "casual@example.com",
			want:  plans.TierFreeHigh,
		},
		{
			name:  "allowance exhausted drops to standard",
			subs:  &fakeSubStore{err: notFound},
			usage: &fakeUsageStore{count: 2},
			email: "heavy@example.com",
			want:  plans.TierStandard,
		},
		{
			name:  "usage lookup failure degrades to standard",
			subs:  &fakeSubStore{err: notFound},
			usage: &fakeUsageStore{err: errors.New("db down")},
			email: "unlucky@example.com",
			want:  plans.TierStandard,
		},
		{
			name:  "anonymous caller gets standard",
			subs:  &fakeSubStore{},
			usage: &fakeUsageStore{},
			email: "",
			want:  plans.TierStandard,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			oracle := NewOracle(tt.subs, tt.usage)
			oracle.now = func() time.Time { return now }
			assert.Equal(t, tt.want, oracle.TierFor(tt.email))
		})
	}
}

func TestOracleStatus(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("premium owner keeps full allowance", func(t *testing.T) {
		t.Parallel()
		expires := now.Add(10 * 24 * time.Hour)
		oracle := NewOracle(&fakeSubStore{sub: activeSub(expires)}, &fakeUsageStore{count: 5})
		oracle.now = func() time.Time { return now }

		status := oracle.Status("premium@example.com")
		assert.True(t, status.IsPremium)
		assert.Equal(t, plans.TierPremium, status.Tier)
		assert.Equal(t, "premium_monthly", status.PlanID)
		assert.Equal(t, plans.FreeHighQualityAllowance, status.RemainingHQ)
	})

	t.Run("free owner sees remaining allowance", func(t *testing.T) {
		t.Parallel()
		oracle := NewOracle(&fakeSubStore{err: errors.New("record not found")}, &fakeUsageStore{count: 1})
		oracle.now = func() time.Time { return now }

		status := oracle.Status("casual@example.com")
		assert.False(t, status.IsPremium)
		assert.Equal(t, plans.TierFreeHigh, status.Tier)
		assert.Equal(t, 1, status.UsedHQ)
		assert.Equal(t, 1, status.RemainingHQ)
		assert.Equal(t, now.Add(-plans.UsageWindow), status.WindowStart)
	})

	t.Run("exhausted owner reports standard with zero remaining", func(t *testing.T) {
		t.Parallel()
		oracle := NewOracle(&fakeSubStore{err: errors.New("record not found")}, &fakeUsageStore{count: 3})
		oracle.now = func() time.Time { return now }

		status := oracle.Status("heavy@example.com")
		assert.Equal(t, plans.TierStandard, status.Tier)
		assert.Equal(t, 3, status.UsedHQ)
		assert.Equal(t, 0, status.RemainingHQ)
	})
}
