package ledger_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stylenest/club/internal/db"
	"github.com/stylenest/club/internal/ledger"
	"github.com/stylenest/club/internal/models"
)

func newStore(t *testing.T) *ledger.Store {
	s, _ := newStoreDB(t)
	return s
}

func newStoreDB(t *testing.T) (*ledger.Store, *gorm.DB) {
	t.Helper()
	gdb, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return ledger.NewStore(gdb), gdb
}

func TestEnsureUser_FirstInteractionOnly(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.EnsureUser(42, "alice", "uk"))
	u1, err := s.UserByTgID(42)
	require.NoError(t, err)
	require.NotNil(t, u1)

	// A second interaction must not touch the row: created_at anchors the
	// winback schedule.
	require.NoError(t, s.EnsureUser(42, "alice_renamed", "en"))
	u2, err := s.UserByTgID(42)
	require.NoError(t, err)
	assert.Equal(t, u1.ID, u2.ID)
	assert.Equal(t, "alice", u2.Username)
	assert.True(t, u1.CreatedAt.Equal(u2.CreatedAt))
}

func TestPaymentByOrderReference_Unknown(t *testing.T) {
	s := newStore(t)
	p, err := s.PaymentByOrderReference("tg1_123_1m")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestApprovePayment_Idempotent(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.CreatePayment(&models.Payment{
		TgID:           42,
		OrderReference: "tg42_1_1m",
		TariffCode:     models.Tariff1m,
		Amount:         500,
		Currency:       "UAH",
		Status:         models.PaymentPending,
	}))

	paidAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	applied, p, err := s.ApprovePayment("tg42_1_1m", paidAt, nil)
	require.NoError(t, err)
	assert.True(t, applied)
	require.NotNil(t, p.ApprovedAt)
	assert.True(t, p.ApprovedAt.Equal(paidAt))

	// Redelivery: not applied, paid-at untouched.
	later := paidAt.Add(2 * time.Hour)
	applied, p, err = s.ApprovePayment("tg42_1_1m", later, nil)
	require.NoError(t, err)
	assert.False(t, applied)
	require.NotNil(t, p.ApprovedAt)
	assert.True(t, p.ApprovedAt.Equal(paidAt))
}

func TestSetPaymentStatus_NeverDowngradesApproved(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.CreatePayment(&models.Payment{
		TgID:           42,
		OrderReference: "tg42_2_1m",
		Status:         models.PaymentPending,
	}))

	_, _, err := s.ApprovePayment("tg42_2_1m", time.Now().UTC(), nil)
	require.NoError(t, err)

	require.NoError(t, s.SetPaymentStatus("tg42_2_1m", models.PaymentDeclined, nil))
	p, err := s.PaymentByOrderReference("tg42_2_1m")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentApproved, p.Status)
}

func TestSetPaymentStatus_Declined(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.CreatePayment(&models.Payment{
		TgID:           7,
		OrderReference: "tg7_3_2m",
		Status:         models.PaymentPending,
	}))

	require.NoError(t, s.SetPaymentStatus("tg7_3_2m", models.PaymentDeclined, nil))
	p, err := s.PaymentByOrderReference("tg7_3_2m")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentDeclined, p.Status)
}

func TestHasApprovedPayment(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.CreatePayment(&models.Payment{
		TgID:           9,
		OrderReference: "tg9_4_1m",
		Status:         models.PaymentPending,
	}))

	got, err := s.HasApprovedPayment(9)
	require.NoError(t, err)
	assert.False(t, got, "pending payment must not count")

	_, _, err = s.ApprovePayment("tg9_4_1m", time.Now().UTC(), nil)
	require.NoError(t, err)

	got, err = s.HasApprovedPayment(9)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestActiveSubscription_IgnoresExpiredAndElapsed(t *testing.T) {
	s := newStore(t)
	now := time.Now().UTC()

	require.NoError(t, s.CreateSubscription(&models.Subscription{
		TgID: 1, Status: models.SubscriptionExpired,
		StartsAt: now.AddDate(0, 0, -60), EndsAt: now.AddDate(0, 0, -30),
	}))
	require.NoError(t, s.CreateSubscription(&models.Subscription{
		TgID: 1, Status: models.SubscriptionActive,
		StartsAt: now.AddDate(0, 0, -31), EndsAt: now.Add(-time.Minute),
	}))

	sub, err := s.ActiveSubscription(1, now)
	require.NoError(t, err)
	assert.Nil(t, sub, "status=active with elapsed ends_at is not renewable")
}
