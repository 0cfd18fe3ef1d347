package models

import "time"

const (
	BillingCycleMonth = "month"
	BillingCycleYear  = "year"
)

const (
	OrderStatusPending         = "pending"
	OrderStatusAwaitingPayment = "awaiting_payment"
	OrderStatusProcessing      = "processing"
	OrderStatusPaid            = "paid"
	OrderStatusFailed          = "failed"
	OrderStatusRefunded        = "refunded"
)

// Order is a single purchase attempt for a plan, tracked from creation to
// settlement against the N-Genius gateway. Orders are never deleted; the
// payment_transactions ledger supplements them.
type Order struct {
	ID           uint    `gorm:"primaryKey" json:"-"`
	OrderID      string  `gorm:"type:char(36);not null;uniqueIndex" json:"id"`
	UserID       *uint   `gorm:"index" json:"user_id,omitempty"`
	PlanID       uint    `gorm:"not null;index" json:"plan_id"`
	PlanName     string  `gorm:"type:varchar(100);not null" json:"plan_name"`
	BillingCycle string  `gorm:"type:varchar(10);not null" json:"billing_cycle"`
	Quantity     int     `gorm:"not null;default:1" json:"quantity"`
	BasePrice    float64 `gorm:"type:decimal(10,2);not null" json:"base_price"`
	Discount     float64 `gorm:"type:decimal(10,2);not null;default:0;column:discount_amount" json:"discount_amount"`
	TotalAmount  float64 `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Currency     string  `gorm:"type:varchar(3);not null;default:'AED'" json:"currency"`

	FirstName string `gorm:"type:varchar(100)" json:"first_name"`
	LastName  string `gorm:"type:varchar(100)" json:"last_name"`
	Email     string `gorm:"type:varchar(200);not null;index" json:"email"`
	Phone     string `gorm:"type:varchar(30)" json:"phone,omitempty"`

	Country      string `gorm:"type:varchar(100)" json:"country"`
	AddressLine1 string `gorm:"type:varchar(255)" json:"address_line1"`
	AddressLine2 string `gorm:"type:varchar(255)" json:"address_line2,omitempty"`
	City         string `gorm:"type:varchar(100)" json:"city"`
	State        string `gorm:"type:varchar(100)" json:"state,omitempty"`
	PostalCode   string `gorm:"type:varchar(20)" json:"postal_code,omitempty"`

	PaymentMethod string `gorm:"type:varchar(30)" json:"payment_method"`

	// MerchantOrderReference correlates the local order with the gateway.
	// Unique and immutable once created.
	MerchantOrderReference string `gorm:"type:varchar(64);not null;uniqueIndex" json:"merchant_order_reference"`
	NGeniusOrderRef        string `gorm:"type:varchar(64);index;column:ngenius_order_ref" json:"ngenius_order_ref,omitempty"`
	NGeniusPaymentRef      string `gorm:"type:varchar(64);column:ngenius_payment_ref" json:"ngenius_payment_ref,omitempty"`
	PaymentURL             string `gorm:"type:varchar(1024)" json:"payment_url,omitempty"`

	Status    string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaidAt    *time.Time `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the order has reached a state that VerifyPayment
// will never move it out of.
func (o *Order) IsTerminal() bool {
	switch o.Status {
	case OrderStatusPaid, OrderStatusFailed, OrderStatusRefunded:
		return true
	default:
		return false
	}
}
