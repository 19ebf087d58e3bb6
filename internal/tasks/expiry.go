package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/stylenest/club/internal/bot"
	"github.com/stylenest/club/internal/config"
	"github.com/stylenest/club/internal/ledger"
)

const expiredText = "Ваша підписка на STYLENEST CLUB закінчилась. Продовжіть її, щоб нічого не пропустити 🙌🏻"

// Expiry flips elapsed subscriptions to expired, removes the member from the
// channel and sends the expiry notice.
type Expiry struct {
	log        *slog.Logger
	store      *ledger.Store
	messenger  Messenger
	membership ChannelMembership
	channelID  int64
	tariffs    config.TariffConfig
	now        func() time.Time
}

func NewExpiry(log *slog.Logger, store *ledger.Store, messenger Messenger, membership ChannelMembership, channelID int64, tariffs config.TariffConfig) *Expiry {
	return &Expiry{
		log:        log,
		store:      store,
		messenger:  messenger,
		membership: membership,
		channelID:  channelID,
		tariffs:    tariffs,
		now:        time.Now,
	}
}

// RunOnce processes every active subscription whose ends_at has passed. The
// status flip is the authoritative transition and commits before the notice
// goes out; neither a failed channel removal nor a failed message blocks it.
func (e *Expiry) RunOnce(ctx context.Context) error {
	now := e.now().UTC()
	subs, err := e.store.ExpiredActive(now)
	if err != nil {
		return err
	}

	for _, sub := range subs {
		e.log.Info("subscription expired", "tg_id", sub.TgID, "ends_at", sub.EndsAt)

		if e.channelID != 0 && e.membership != nil {
			if err := e.membership.RemoveMember(ctx, e.channelID, sub.TgID); err != nil {
				e.log.Warn("remove member", "tg_id", sub.TgID, "error", err)
			}
		}

		if err := e.store.MarkSubscriptionExpired(sub.ID, now); err != nil {
			e.log.Error("mark expired", "tg_id", sub.TgID, "error", err)
			continue
		}

		if err := e.messenger.SendMessage(ctx, sub.TgID, expiredText, bot.TariffsKeyboard(e.tariffs)); err != nil {
			e.log.Warn("send expiry notice", "tg_id", sub.TgID, "error", err)
		}
	}
	return nil
}
