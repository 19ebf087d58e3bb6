package ledger

import (
	"time"

	"github.com/stylenest/club/internal/models"
)

// ReminderMarker identifies one of the two pre-expiry reminder horizons.
type ReminderMarker int

const (
	Remind3d ReminderMarker = iota
	Remind1d
)

func (m ReminderMarker) Horizon() time.Duration {
	if m == Remind3d {
		return 3 * 24 * time.Hour
	}
	return 24 * time.Hour
}

func (m ReminderMarker) column() string {
	if m == Remind3d {
		return "reminded_3d_at"
	}
	return "reminded_1d_at"
}

func (m ReminderMarker) String() string {
	if m == Remind3d {
		return "3d"
	}
	return "1d"
}

// DueReminders selects active subscriptions inside the reminder window
// [now+horizon, now+horizon+slack) whose marker is still unset. The window
// must be wider than the scan interval, otherwise ends_at can pass through
// it between two scans.
func (s *Store) DueReminders(now time.Time, slack time.Duration, m ReminderMarker) ([]models.Subscription, error) {
	from := now.Add(m.Horizon())
	to := from.Add(slack)

	var subs []models.Subscription
	err := s.db.
		Where("status = ? AND "+m.column()+" IS NULL", models.SubscriptionActive).
		Where("ends_at >= ? AND ends_at < ?", from, to).
		Find(&subs).Error
	return subs, err
}

// MarkReminded stamps a reminder marker. The IS NULL guard keeps the stamp
// one-shot even if two scans race.
func (s *Store) MarkReminded(subID uint, m ReminderMarker, at time.Time) error {
	return s.db.Model(&models.Subscription{}).
		Where("id = ? AND "+m.column()+" IS NULL", subID).
		Update(m.column(), at).Error
}

// ExpiredActive selects subscriptions whose paid period has elapsed but
// whose status has not been flipped yet.
func (s *Store) ExpiredActive(now time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := s.db.
		Where("status = ? AND ends_at <= ?", models.SubscriptionActive, now).
		Find(&subs).Error
	return subs, err
}

// MarkSubscriptionExpired flips active→expired and stamps the expiry-notice
// marker in one transaction. This commit is the authoritative transition;
// channel removal and the notice message happen after it, best-effort.
func (s *Store) MarkSubscriptionExpired(subID uint, now time.Time) error {
	return s.db.Model(&models.Subscription{}).
		Where("id = ? AND status = ?", subID, models.SubscriptionActive).
		Updates(map[string]any{
			"status":              models.SubscriptionExpired,
			"reminded_expired_at": now,
		}).Error
}

// WinbackStage identifies one step of the drip campaign for users who never
// completed a payment.
type WinbackStage int

const (
	Winback3d WinbackStage = iota
	Winback7d
	Winback30d
)

func (w WinbackStage) Age() time.Duration {
	switch w {
	case Winback3d:
		return 3 * 24 * time.Hour
	case Winback7d:
		return 7 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}

func (w WinbackStage) column() string {
	switch w {
	case Winback3d:
		return "winback_3d_sent_at"
	case Winback7d:
		return "winback_7d_sent_at"
	default:
		return "winback_30d_sent_at"
	}
}

// prevColumn is the marker gating this stage; a later stage may only fire
// once the prior stage has been sent, so a long-dormant user walks the whole
// sequence one scan at a time instead of getting three messages at once.
func (w WinbackStage) prevColumn() string {
	switch w {
	case Winback7d:
		return "winback_3d_sent_at"
	case Winback30d:
		return "winback_7d_sent_at"
	default:
		return ""
	}
}

func (w WinbackStage) String() string {
	switch w {
	case Winback3d:
		return "3d"
	case Winback7d:
		return "7d"
	default:
		return "30d"
	}
}

// WinbackDue selects users eligible for one winback stage: registered long
// enough ago, zero approved payments, stage marker unset, prior stage done.
func (s *Store) WinbackDue(now time.Time, w WinbackStage) ([]models.User, error) {
	q := s.db.
		Where("created_at <= ?", now.Add(-w.Age())).
		Where(w.column() + " IS NULL").
		Where("NOT EXISTS (SELECT 1 FROM payments WHERE payments.tg_id = users.tg_id AND payments.status = ?)",
			models.PaymentApproved)
	if prev := w.prevColumn(); prev != "" {
		q = q.Where(prev + " IS NOT NULL")
	}

	var users []models.User
	err := q.Find(&users).Error
	return users, err
}

func (s *Store) MarkWinbackSent(userID uint, w WinbackStage, at time.Time) error {
	return s.db.Model(&models.User{}).
		Where("id = ? AND "+w.column()+" IS NULL", userID).
		Update(w.column(), at).Error
}
