package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stylenest/club/internal/config"
	"github.com/stylenest/club/internal/ledger"
	"github.com/stylenest/club/internal/models"
)

func seedUser(t *testing.T, gdb *gorm.DB, tgID int64, registeredAt time.Time) {
	t.Helper()
	require.NoError(t, gdb.Create(&models.User{TgID: tgID, CreatedAt: registeredAt}).Error)
}

func newWinback(t *testing.T, messenger Messenger, photo string) (*Winback, *ledger.Store, *gorm.DB, time.Time) {
	t.Helper()
	store, gdb := openStore(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	w := NewWinback(discard(), store, messenger, config.TariffConfig{}, photo)
	w.now = func() time.Time { return now }
	return w, store, gdb, now
}

// A user past every threshold walks the sequence one stage per scan.
func TestWinback_OneStagePerScan(t *testing.T) {
	messenger := &recMessenger{}
	w, _, gdb, now := newWinback(t, messenger, "")
	seedUser(t, gdb, 42, now.Add(-40*24*time.Hour))

	for scan, want := range []int{1, 2, 3, 3} {
		require.NoError(t, w.RunOnce(context.Background()))
		assert.Equal(t, want, messenger.sent(), "after scan %d", scan+1)
	}

	var u models.User
	require.NoError(t, gdb.Where("tg_id = ?", 42).First(&u).Error)
	assert.NotNil(t, u.Winback3dSentAt)
	assert.NotNil(t, u.Winback7dSentAt)
	assert.NotNil(t, u.Winback30dSentAt)
}

func TestWinback_StopsAfterPayment(t *testing.T) {
	messenger := &recMessenger{}
	w, store, gdb, now := newWinback(t, messenger, "")
	seedUser(t, gdb, 42, now.Add(-10*24*time.Hour))

	require.NoError(t, w.RunOnce(context.Background()))
	assert.Equal(t, 1, messenger.sent())

	require.NoError(t, store.CreatePayment(&models.Payment{
		TgID: 42, OrderReference: "tg42_1_1m", Status: models.PaymentPending,
	}))
	_, _, err := store.ApprovePayment("tg42_1_1m", now, nil)
	require.NoError(t, err)

	require.NoError(t, w.RunOnce(context.Background()))
	assert.Equal(t, 1, messenger.sent(), "a paying user leaves the campaign")
}

func TestWinback_PhotoWhenConfigured(t *testing.T) {
	messenger := &recMessenger{}
	w, _, gdb, now := newWinback(t, messenger, "AgACAgIAAxkBAAM")
	seedUser(t, gdb, 42, now.Add(-4*24*time.Hour))

	require.NoError(t, w.RunOnce(context.Background()))
	assert.Empty(t, messenger.texts)
	require.Len(t, messenger.photos, 1)
	assert.Contains(t, messenger.photos[0], "Обирай тариф")
}
