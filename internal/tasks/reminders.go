package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/stylenest/club/internal/bot"
	"github.com/stylenest/club/internal/config"
	"github.com/stylenest/club/internal/ledger"
)

var reminderTexts = map[ledger.ReminderMarker]string{
	ledger.Remind3d: "Ваша підписка на STYLENEST CLUB закінчиться через 3 дні. Продовжіть підписку, щоб залишатись з нами 👜",
	ledger.Remind1d: "Ваша підписка на STYLENEST CLUB закінчиться завтра. Продовжіть підписку, щоб залишатись з нами 👜",
}

// Reminders sends the one-shot 3-day and 1-day pre-expiry nudges.
type Reminders struct {
	log       *slog.Logger
	store     *ledger.Store
	messenger Messenger
	slack     time.Duration
	tariffs   config.TariffConfig
	now       func() time.Time
}

func NewReminders(log *slog.Logger, store *ledger.Store, messenger Messenger, slack time.Duration, tariffs config.TariffConfig) *Reminders {
	return &Reminders{
		log:       log,
		store:     store,
		messenger: messenger,
		slack:     slack,
		tariffs:   tariffs,
		now:       time.Now,
	}
}

// RunOnce scans both reminder windows. The marker is stamped after the
// delivery attempt whether or not it succeeded: a failed send is not retried
// (at-most-once per window), while a crash before the stamp at worst repeats
// the notification on the next scan.
func (r *Reminders) RunOnce(ctx context.Context) error {
	now := r.now().UTC()
	for _, marker := range []ledger.ReminderMarker{ledger.Remind3d, ledger.Remind1d} {
		subs, err := r.store.DueReminders(now, r.slack, marker)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			if err := r.messenger.SendMessage(ctx, sub.TgID, reminderTexts[marker], bot.TariffsKeyboard(r.tariffs)); err != nil {
				r.log.Warn("send reminder", "horizon", marker, "tg_id", sub.TgID, "error", err)
			}
			if err := r.store.MarkReminded(sub.ID, marker, now); err != nil {
				r.log.Error("mark reminded", "horizon", marker, "tg_id", sub.TgID, "error", err)
				continue
			}
			r.log.Info("reminder sent", "horizon", marker, "tg_id", sub.TgID, "ends_at", sub.EndsAt)
		}
	}
	return nil
}
