// Package ledger is the persistent store of users, payments and
// subscriptions. All read-modify-write access goes through one transaction
// scope; callers never hold rows across a network call.
package ledger

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/stylenest/club/internal/models"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Transaction runs fn against a transactional view of the store. An error
// from fn rolls the whole transaction back.
func (s *Store) Transaction(fn func(tx *Store) error) error {
	return s.db.Transaction(func(txdb *gorm.DB) error {
		return fn(&Store{db: txdb})
	})
}

// ---- users ----

// EnsureUser creates the user row on first interaction. Existing rows are
// left untouched (created_at is the winback anchor and must not move).
func (s *Store) EnsureUser(tgID int64, username, lang string) error {
	var u models.User
	err := s.db.Where("tg_id = ?", tgID).First(&u).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	u = models.User{TgID: tgID, Username: username, Lang: lang}
	return s.db.Create(&u).Error
}

func (s *Store) UserByTgID(tgID int64) (*models.User, error) {
	var u models.User
	err := s.db.Where("tg_id = ?", tgID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ---- payments ----

func (s *Store) CreatePayment(p *models.Payment) error {
	return s.db.Create(p).Error
}

// PaymentByOrderReference returns (nil, nil) when the reference is unknown;
// the webhook processor treats that as an accepted no-op.
func (s *Store) PaymentByOrderReference(ref string) (*models.Payment, error) {
	var p models.Payment
	err := s.db.Where("order_reference = ?", ref).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ApprovePayment flips the payment to approved and stamps paid-at, once.
// Returns applied=false when the payment was already approved, which makes a
// redelivered callback observably identical to the first delivery.
func (s *Store) ApprovePayment(ref string, paidAt time.Time, raw datatypes.JSON) (applied bool, p *models.Payment, err error) {
	err = s.Transaction(func(tx *Store) error {
		cur, err := tx.PaymentByOrderReference(ref)
		if err != nil {
			return err
		}
		if cur == nil {
			return gorm.ErrRecordNotFound
		}
		p = cur
		if cur.Status == models.PaymentApproved {
			return nil
		}
		cur.Status = models.PaymentApproved
		if cur.ApprovedAt == nil {
			cur.ApprovedAt = &paidAt
		}
		if raw != nil {
			cur.RawPayload = raw
		}
		applied = true
		return tx.db.Save(cur).Error
	})
	if err != nil {
		return false, nil, err
	}
	return applied, p, nil
}

// SetPaymentStatus records a terminal declined/expired gateway outcome.
// Approved payments are never downgraded.
func (s *Store) SetPaymentStatus(ref string, status models.PaymentStatus, raw datatypes.JSON) error {
	return s.Transaction(func(tx *Store) error {
		cur, err := tx.PaymentByOrderReference(ref)
		if err != nil {
			return err
		}
		if cur == nil || cur.Status == models.PaymentApproved {
			return nil
		}
		cur.Status = status
		if raw != nil {
			cur.RawPayload = raw
		}
		return tx.db.Save(cur).Error
	})
}

// HasApprovedPayment reports whether the user ever completed a payment.
func (s *Store) HasApprovedPayment(tgID int64) (bool, error) {
	var n int64
	err := s.db.Model(&models.Payment{}).
		Where("tg_id = ? AND status = ?", tgID, models.PaymentApproved).
		Count(&n).Error
	return n > 0, err
}

// ---- subscriptions ----

// ActiveSubscription returns the subscription with status=active and
// ends_at in the future, or (nil, nil).
func (s *Store) ActiveSubscription(tgID int64, now time.Time) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.
		Where("tg_id = ? AND status = ? AND ends_at > ?", tgID, models.SubscriptionActive, now).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *Store) CreateSubscription(sub *models.Subscription) error {
	return s.db.Create(sub).Error
}

func (s *Store) SaveSubscription(sub *models.Subscription) error {
	return s.db.Save(sub).Error
}
