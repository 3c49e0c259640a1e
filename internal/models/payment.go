package models

import "time"

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentExpired PaymentStatus = "expired"
)

// Payment is one hosted-checkout attempt for a card. ID doubles as the gateway invoice id.
type Payment struct {
	ID        int64         `db:"id" json:"id"`
	UserID    string        `db:"user_id" json:"userId"`
	CardID    string        `db:"card_id" json:"cardId"`
	Amount    float64       `db:"amount" json:"amount"`
	Status    PaymentStatus `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
	PaidAt    *time.Time    `db:"paid_at" json:"paidAt,omitempty"`
}
