package models

import "time"

const (
	TransactionTypeSale   = "sale"
	TransactionTypeRefund = "refund"
)

// PaymentTransaction is an append-only ledger entry recording the outcome of a
// single gateway interaction for an order. Rows are created as a side effect of
// a status change or refund and never mutated.
//
// The unique index over (order_id, ngenius_payment_ref, transaction_type)
// makes the insert idempotent when two concurrent verify calls race on the
// same order.
type PaymentTransaction struct {
	ID                uint      `gorm:"primaryKey" json:"-"`
	TransactionID     string    `gorm:"type:char(36);not null;uniqueIndex" json:"id"`
	OrderID           string    `gorm:"type:char(36);not null;index:ux_payment_tx_order_ref_type,unique,priority:1" json:"order_id"`
	NGeniusOrderRef   string    `gorm:"type:varchar(64);column:ngenius_order_ref" json:"ngenius_order_ref"`
	NGeniusPaymentRef string    `gorm:"type:varchar(64);column:ngenius_payment_ref;index:ux_payment_tx_order_ref_type,unique,priority:2" json:"ngenius_payment_ref"`
	TransactionType   string    `gorm:"type:varchar(10);not null;index:ux_payment_tx_order_ref_type,unique,priority:3" json:"transaction_type"`
	Amount            float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency          string    `gorm:"type:varchar(3);not null;default:'AED'" json:"currency"`
	Status            string    `gorm:"type:varchar(20);not null" json:"status"`
	AuthCode          string    `gorm:"type:varchar(20)" json:"auth_code,omitempty"`
	CardBrand         string    `gorm:"type:varchar(30)" json:"card_brand,omitempty"`
	CardLastFour      string    `gorm:"type:varchar(4)" json:"card_last_four,omitempty"`
	RawResponse       string    `gorm:"type:longtext" json:"-"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}
