package checkout

import (
	"context"

	"github.com/befree-edtech/befree-backend/app/models"
)

// Gateway is the payment-gateway surface the service depends on. Implemented
// by NGeniusClient; mocked in tests.
type Gateway interface {
	CreateOrder(ctx context.Context, in GatewayOrderRequest) (*GatewayOrder, error)
	GetOrderStatus(ctx context.Context, orderRef string) (*GatewayOrderStatus, error)
	RefundPayment(ctx context.Context, orderRef, paymentRef string, amount *float64) (*GatewayRefund, error)
}

// Notifier receives fire-and-forget side effects on order state transitions.
// Implementations must not block and must swallow their own errors.
type Notifier interface {
	OrderReceived(order *models.Order)
	PaymentSucceeded(order *models.Order, payment *GatewayPayment)
	PaymentFailed(order *models.Order)
}

// ContactInfo carries the billing contact fields of a create-order request.
type ContactInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// BillingAddress carries the billing address fields of a create-order request.
type BillingAddress struct {
	Country  string `json:"country"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
}

// CreateOrderInput is the normalized input for creating an order.
type CreateOrderInput struct {
	PlanID         string
	BillingCycle   string
	Quantity       int
	ContactInfo    ContactInfo
	BillingAddress BillingAddress
	PaymentMethod  string
	UserID         *uint
}

// CreateOrderResult is returned to the caller after a successful order
// creation; PaymentURL is where the payer is redirected.
type CreateOrderResult struct {
	OrderID                string  `json:"id"`
	MerchantOrderReference string  `json:"merchantOrderReference"`
	NGeniusOrderRef        string  `json:"ngeniusOrderRef"`
	PaymentURL             string  `json:"paymentUrl"`
	Amount                 float64 `json:"amount"`
	Currency               string  `json:"currency"`
}

// VerifyResult is the reconciled view of an order's payment state.
type VerifyResult struct {
	OrderID       string  `json:"orderId"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"paymentStatus,omitempty"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	CardBrand     string  `json:"cardBrand,omitempty"`
	CardLastFour  string  `json:"cardLastFour,omitempty"`
}

// RefundResult is returned after a successful refund.
type RefundResult struct {
	OrderID   string  `json:"orderId"`
	RefundRef string  `json:"refundRef"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
}
