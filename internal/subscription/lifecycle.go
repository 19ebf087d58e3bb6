// Package subscription owns the payment→subscription lifecycle: activation,
// renewal and invite issuance.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/stylenest/club/internal/ledger"
	"github.com/stylenest/club/internal/models"
)

// PeriodDays maps tariff codes to paid days.
var PeriodDays = map[string]int{
	models.Tariff1m: 30,
	models.Tariff2m: 60,
	models.Tariff3m: 90,
}

// InviteIssuer is the slice of the channel membership synchronizer the
// manager needs.
type InviteIssuer interface {
	CreateInviteLink(ctx context.Context, chatID int64, name string, expireAt time.Time, memberLimit int) (string, error)
}

type Manager struct {
	log       *slog.Logger
	store     *ledger.Store
	invites   InviteIssuer
	channelID int64
	now       func() time.Time

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewManager(log *slog.Logger, store *ledger.Store, invites InviteIssuer, channelID int64) *Manager {
	return &Manager{
		log:       log,
		store:     store,
		invites:   invites,
		channelID: channelID,
		now:       time.Now,
		locks:     make(map[int64]*sync.Mutex),
	}
}

// userLock serializes lookup-then-write per tg_id. Two concurrent approvals
// for the same user would otherwise both read the same ends_at and lose one
// extension, or both create a row.
func (m *Manager) userLock(tgID int64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[tgID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[tgID] = l
	}
	return l
}

// EnsureActive creates a subscription for the tariff period, or extends the
// existing active one. Extension is additive to the current ends_at, never
// to now, so unused paid time is preserved. After the ledger commit it
// requests a single-use invite link, best-effort.
func (m *Manager) EnsureActive(ctx context.Context, tgID int64, tariffCode string) (*models.Subscription, error) {
	days, ok := PeriodDays[tariffCode]
	if !ok {
		return nil, fmt.Errorf("unknown tariff code %q", tariffCode)
	}

	lock := m.userLock(tgID)
	lock.Lock()
	defer lock.Unlock()

	now := m.now().UTC()
	var sub *models.Subscription
	err := m.store.Transaction(func(tx *ledger.Store) error {
		cur, err := tx.ActiveSubscription(tgID, now)
		if err != nil {
			return err
		}
		if cur != nil {
			cur.EndsAt = cur.EndsAt.AddDate(0, 0, days)
			sub = cur
			return tx.SaveSubscription(cur)
		}
		sub = &models.Subscription{
			TgID:       tgID,
			TariffCode: tariffCode,
			Status:     models.SubscriptionActive,
			StartsAt:   now,
			EndsAt:     now.AddDate(0, 0, days),
		}
		return tx.CreateSubscription(sub)
	})
	if err != nil {
		return nil, err
	}
	m.log.Info("subscription ensured",
		"tg_id", tgID, "tariff", tariffCode, "ends_at", sub.EndsAt)

	m.attachInvite(ctx, sub)
	return sub, nil
}

// attachInvite requests a 24h single-use invite link and stores it on the
// row. Failures are logged only; the subscription stands without a link.
func (m *Manager) attachInvite(ctx context.Context, sub *models.Subscription) {
	if m.channelID == 0 || m.invites == nil {
		return
	}
	name := fmt.Sprintf("sub-%d-%s", sub.TgID, sub.TariffCode)
	link, err := m.invites.CreateInviteLink(ctx, m.channelID, name, m.now().Add(24*time.Hour), 1)
	if err != nil {
		m.log.Warn("create invite link", "tg_id", sub.TgID, "error", err)
		return
	}
	sub.InviteLink = link
	if err := m.store.SaveSubscription(sub); err != nil {
		m.log.Warn("store invite link", "tg_id", sub.TgID, "error", err)
	}
}
