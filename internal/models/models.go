package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentDeclined PaymentStatus = "declined"
	PaymentExpired  PaymentStatus = "expired"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Tariff codes: 1m | 2m | 3m
const (
	Tariff1m = "1m"
	Tariff2m = "2m"
	Tariff3m = "3m"
)

func ValidTariff(code string) bool {
	switch code {
	case Tariff1m, Tariff2m, Tariff3m:
		return true
	}
	return false
}

type User struct {
	ID        uint  `gorm:"primaryKey"`
	TgID      int64 `gorm:"uniqueIndex;not null"`
	Username  string
	Lang      string `gorm:"size:10"`
	CreatedAt time.Time

	// Winback markers, filled strictly in order: 3d, then 7d, then 30d.
	Winback3dSentAt  *time.Time `gorm:"column:winback_3d_sent_at"`
	Winback7dSentAt  *time.Time `gorm:"column:winback_7d_sent_at"`
	Winback30dSentAt *time.Time `gorm:"column:winback_30d_sent_at"`
}

type Payment struct {
	ID             uint   `gorm:"primaryKey"`
	TgID           int64  `gorm:"index;not null"`
	OrderReference string `gorm:"uniqueIndex;size:128;not null"`
	InvoiceID      string `gorm:"size:128"`
	InvoiceURL     string
	TariffCode     string         `gorm:"size:8"`
	Amount         int            `gorm:"not null"`
	Currency       string         `gorm:"size:8"`
	Status         PaymentStatus  `gorm:"size:16;index;default:pending"`
	RawPayload     datatypes.JSON // last gateway callback, kept for debugging
	CreatedAt      time.Time
	ApprovedAt     *time.Time // paid-at; set exactly once, at first approval
}

// Status "cancelled" is set manually (refunds etc.), never by the scheduler.
type Subscription struct {
	ID         uint   `gorm:"primaryKey"`
	TgID       int64  `gorm:"index;not null"`
	TariffCode string `gorm:"size:8"`
	StartsAt   time.Time
	EndsAt     time.Time          `gorm:"index"`
	Status     SubscriptionStatus `gorm:"size:16;index;default:active"`
	InviteLink string

	// One-shot reminder markers for the current active period.
	Reminded3dAt      *time.Time `gorm:"column:reminded_3d_at"`
	Reminded1dAt      *time.Time `gorm:"column:reminded_1d_at"`
	RemindedExpiredAt *time.Time
}
