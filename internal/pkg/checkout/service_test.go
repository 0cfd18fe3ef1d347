package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/befree-edtech/befree-backend/app/models"
	"gorm.io/gorm"
)

// fakeRepo is an in-memory Repository with transactional rollback semantics.
type fakeRepo struct {
	plans  []*models.Plan
	orders map[string]*models.Order
	ledger []*models.PaymentTransaction
}

func newFakeRepo(plans ...*models.Plan) *fakeRepo {
	return &fakeRepo{
		plans:  plans,
		orders: map[string]*models.Order{},
	}
}

func (r *fakeRepo) Transaction(fn func(Repository) error) error {
	snapOrders := make(map[string]*models.Order, len(r.orders))
	for k, v := range r.orders {
		cp := *v
		snapOrders[k] = &cp
	}
	snapLedger := append([]*models.PaymentTransaction(nil), r.ledger...)

	if err := fn(r); err != nil {
		r.orders = snapOrders
		r.ledger = snapLedger
		return err
	}
	return nil
}

func (r *fakeRepo) FindPlan(idOrName string) (*models.Plan, error) {
	for _, p := range r.plans {
		if p.Name == idOrName {
			return p, nil
		}
		if id, err := strconv.ParseUint(idOrName, 10, 64); err == nil && uint(id) == p.ID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) CreateOrder(order *models.Order) error {
	cp := *order
	r.orders[order.OrderID] = &cp
	return nil
}

func (r *fakeRepo) GetOrderByOrderID(orderID string) (*models.Order, error) {
	order, ok := r.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *order
	return &cp, nil
}

func (r *fakeRepo) UpdateOrder(orderID string, updates map[string]interface{}) error {
	order, ok := r.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for col, val := range updates {
		switch col {
		case "status":
			order.Status = val.(string)
		case "ngenius_order_ref":
			order.NGeniusOrderRef = val.(string)
		case "ngenius_payment_ref":
			order.NGeniusPaymentRef = val.(string)
		case "payment_url":
			order.PaymentURL = val.(string)
		case "paid_at":
			// presence is what matters here
		default:
			return fmt.Errorf("unexpected update column %q", col)
		}
	}
	return nil
}

func (r *fakeRepo) ListOrdersByUser(userID uint) ([]models.Order, error) {
	var out []models.Order
	for _, o := range r.orders {
		if o.UserID != nil && *o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeRepo) CreatePaymentTransactionIfNotExists(entry *models.PaymentTransaction) (bool, error) {
	for _, existing := range r.ledger {
		if existing.OrderID == entry.OrderID &&
			existing.NGeniusPaymentRef == entry.NGeniusPaymentRef &&
			existing.TransactionType == entry.TransactionType {
			return false, nil
		}
	}
	cp := *entry
	r.ledger = append(r.ledger, &cp)
	return true, nil
}

// fakeGateway records calls and serves canned responses.
type fakeGateway struct {
	createErr error
	status    *GatewayOrderStatus
	statusErr error
	refund    *GatewayRefund
	refundErr error

	createCalls int
	statusCalls int
	refundCalls int

	lastRefundOrderRef   string
	lastRefundPaymentRef string
	lastRefundAmount     *float64
}

func (g *fakeGateway) CreateOrder(_ context.Context, in GatewayOrderRequest) (*GatewayOrder, error) {
	g.createCalls++
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &GatewayOrder{
		OrderRef:   "ng-order-1",
		PaymentURL: "https://pay.example/ng-order-1",
	}, nil
}

func (g *fakeGateway) GetOrderStatus(_ context.Context, orderRef string) (*GatewayOrderStatus, error) {
	g.statusCalls++
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	return g.status, nil
}

func (g *fakeGateway) RefundPayment(_ context.Context, orderRef, paymentRef string, amount *float64) (*GatewayRefund, error) {
	g.refundCalls++
	g.lastRefundOrderRef = orderRef
	g.lastRefundPaymentRef = paymentRef
	g.lastRefundAmount = amount
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	return g.refund, nil
}

// fakeNotifier counts transitions.
type fakeNotifier struct {
	received  int
	succeeded int
	failed    int
}

func (n *fakeNotifier) OrderReceived(*models.Order)                      { n.received++ }
func (n *fakeNotifier) PaymentSucceeded(*models.Order, *GatewayPayment) { n.succeeded++ }
func (n *fakeNotifier) PaymentFailed(*models.Order)                     { n.failed++ }

func basicPlan() *models.Plan {
	return &models.Plan{ID: 1, Name: "Premium", Price: 100, Period: "month"}
}

func validInput() CreateOrderInput {
	return CreateOrderInput{
		PlanID:       "Premium",
		BillingCycle: "month",
		Quantity:     1,
		ContactInfo: ContactInfo{
			FirstName: "Aisha",
			LastName:  "Khan",
			Email:     "aisha@example.com",
		},
		BillingAddress: BillingAddress{
			Country: "United Arab Emirates",
			City:    "Dubai",
		},
		PaymentMethod: "card",
	}
}

func TestCreateOrderMonthly(t *testing.T) {
	repo := newFakeRepo(basicPlan())
	gateway := &fakeGateway{}
	notifier := &fakeNotifier{}
	svc := NewService(repo, gateway, notifier, "AED", "https://app.example")

	result, err := svc.CreateOrder(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if result.Amount != 100 {
		t.Fatalf("Amount = %v, want 100", result.Amount)
	}
	if result.Currency != "AED" {
		t.Fatalf("Currency = %q, want AED", result.Currency)
	}
	if result.PaymentURL != "https://pay.example/ng-order-1" {
		t.Fatalf("PaymentURL = %q", result.PaymentURL)
	}
	if !strings.HasPrefix(result.MerchantOrderReference, "BF-") {
		t.Fatalf("MerchantOrderReference = %q, want BF- prefix", result.MerchantOrderReference)
	}

	order, err := repo.GetOrderByOrderID(result.OrderID)
	if err != nil {
		t.Fatalf("order not persisted: %v", err)
	}
	if order.Status != models.OrderStatusAwaitingPayment {
		t.Fatalf("order status = %q, want %q", order.Status, models.OrderStatusAwaitingPayment)
	}
	if order.NGeniusOrderRef != "ng-order-1" {
		t.Fatalf("NGeniusOrderRef = %q, want ng-order-1", order.NGeniusOrderRef)
	}
	if notifier.received != 1 {
		t.Fatalf("OrderReceived calls = %d, want 1", notifier.received)
	}
}

func TestCreateOrderYearlyAppliesDiscount(t *testing.T) {
	repo := newFakeRepo(basicPlan())
	svc := NewService(repo, &fakeGateway{}, nil, "AED", "https://app.example")

	in := validInput()
	in.BillingCycle = "year"
	result, err := svc.CreateOrder(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if result.Amount != 960 {
		t.Fatalf("Amount = %v, want 960 (100*12 minus 20%%)", result.Amount)
	}

	order, _ := repo.GetOrderByOrderID(result.OrderID)
	if order.Discount != 240 {
		t.Fatalf("Discount = %v, want 240", order.Discount)
	}
}

func TestCreateOrderRollsBackOnGatewayFailure(t *testing.T) {
	repo := newFakeRepo(basicPlan())
	gateway := &fakeGateway{createErr: &GatewayError{StatusCode: 502, Message: "gateway down"}}
	notifier := &fakeNotifier{}
	svc := NewService(repo, gateway, notifier, "AED", "https://app.example")

	_, err := svc.CreateOrder(context.Background(), validInput())
	if !IsGatewayError(err) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if len(repo.orders) != 0 {
		t.Fatalf("expected rollback to leave no orders, found %d", len(repo.orders))
	}
	if notifier.received != 0 {
		t.Fatalf("OrderReceived calls = %d, want 0 after rollback", notifier.received)
	}
}

func TestCreateOrderUnknownPlan(t *testing.T) {
	repo := newFakeRepo(basicPlan())
	svc := NewService(repo, &fakeGateway{}, nil, "AED", "https://app.example")

	in := validInput()
	in.PlanID = "Nonexistent"
	if _, err := svc.CreateOrder(context.Background(), in); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestCreateOrderRequiredFields(t *testing.T) {
	svc := NewService(newFakeRepo(basicPlan()), &fakeGateway{}, nil, "AED", "https://app.example")

	in := validInput()
	in.ContactInfo.Email = ""
	if _, err := svc.CreateOrder(context.Background(), in); !IsValidationError(err) {
		t.Fatalf("expected validation error for missing email, got %v", err)
	}
}

// seedOrder puts an order into the repo directly, bypassing the service.
func seedOrder(repo *fakeRepo, order models.Order) *models.Order {
	cp := order
	repo.orders[order.OrderID] = &cp
	return &cp
}

func TestVerifyPaymentPaidFastPath(t *testing.T) {
	repo := newFakeRepo()
	seedOrder(repo, models.Order{
		OrderID:         "ord-1",
		Status:          models.OrderStatusPaid,
		NGeniusOrderRef: "ng-order-1",
		TotalAmount:     100,
		Currency:        "AED",
	})
	gateway := &fakeGateway{}
	svc := NewService(repo, gateway, nil, "AED", "https://app.example")

	result, err := svc.VerifyPayment(context.Background(), "ord-1")
	if err != nil {
		t.Fatalf("VerifyPayment returned error: %v", err)
	}
	if result.Status != models.OrderStatusPaid {
		t.Fatalf("Status = %q, want paid", result.Status)
	}
	if gateway.statusCalls != 0 {
		t.Fatalf("gateway calls = %d, want 0 for a paid order", gateway.statusCalls)
	}
}

func TestVerifyPaymentCapturesOrder(t *testing.T) {
	repo := newFakeRepo()
	seedOrder(repo, models.Order{
		OrderID:         "ord-1",
		Status:          models.OrderStatusAwaitingPayment,
		NGeniusOrderRef: "ng-order-1",
		TotalAmount:     960,
		Currency:        "AED",
	})
	gateway := &fakeGateway{
		status: &GatewayOrderStatus{
			OrderRef: "ng-order-1",
			State:    "PURCHASED",
			Amount:   960,
			Currency: "AED",
			Payment: &GatewayPayment{
				PaymentRef:   "ng-pay-1",
				State:        "CAPTURED",
				AuthCode:     "AUTH42",
				CardBrand:    "VISA",
				CardLastFour: "1111",
			},
			RawResponse: `{"state":"PURCHASED"}`,
		},
	}
	notifier := &fakeNotifier{}
	svc := NewService(repo, gateway, notifier, "AED", "https://app.example")

	result, err := svc.VerifyPayment(context.Background(), "ord-1")
	if err != nil {
		t.Fatalf("VerifyPayment returned error: %v", err)
	}
	if result.Status != models.OrderStatusPaid {
		t.Fatalf("Status = %q, want paid", result.Status)
	}
	if result.PaymentStatus != "CAPTURED" {
		t.Fatalf("PaymentStatus = %q, want CAPTURED", result.PaymentStatus)
	}
	if result.CardBrand != "VISA" || result.CardLastFour != "1111" {
		t.Fatalf("card fields = %q/%q, want VISA/1111", result.CardBrand, result.CardLastFour)
	}

	order, _ := repo.GetOrderByOrderID("ord-1")
	if order.Status != models.OrderStatusPaid {
		t.Fatalf("persisted status = %q, want paid", order.Status)
	}
	if order.NGeniusPaymentRef != "ng-pay-1" {
		t.Fatalf("NGeniusPaymentRef = %q, want ng-pay-1", order.NGeniusPaymentRef)
	}
	if len(repo.ledger) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(repo.ledger))
	}
	entry := repo.ledger[0]
	if entry.TransactionType != models.TransactionTypeSale {
		t.Fatalf("ledger type = %q, want sale", entry.TransactionType)
	}
	if entry.Amount != 960 {
		t.Fatalf("ledger amount = %v, want 960", entry.Amount)
	}
	if notifier.succeeded != 1 {
		t.Fatalf("PaymentSucceeded calls = %d, want 1", notifier.succeeded)
	}

	// A second verify answers from the local record without touching the
	// gateway or the ledger.
	if _, err := svc.VerifyPayment(context.Background(), "ord-1"); err != nil {
		t.Fatalf("second VerifyPayment returned error: %v", err)
	}
	if gateway.statusCalls != 1 {
		t.Fatalf("gateway calls = %d, want 1 after second verify", gateway.statusCalls)
	}
	if len(repo.ledger) != 1 {
		t.Fatalf("ledger entries = %d after second verify, want 1", len(repo.ledger))
	}
}

func TestVerifyPaymentDegradesOnGatewayFailure(t *testing.T) {
	repo := newFakeRepo()
	seedOrder(repo, models.Order{
		OrderID:         "ord-1",
		Status:          models.OrderStatusAwaitingPayment,
		NGeniusOrderRef: "ng-order-1",
		TotalAmount:     100,
		Currency:        "AED",
	})
	gateway := &fakeGateway{statusErr: &GatewayError{StatusCode: 503, Message: "unavailable"}}
	svc := NewService(repo, gateway, nil, "AED", "https://app.example")

	result, err := svc.VerifyPayment(context.Background(), "ord-1")
	if err != nil {
		t.Fatalf("expected cached status instead of error, got %v", err)
	}
	if result.Status != models.OrderStatusAwaitingPayment {
		t.Fatalf("Status = %q, want last-known awaiting_payment", result.Status)
	}

	order, _ := repo.GetOrderByOrderID("ord-1")
	if order.Status != models.OrderStatusAwaitingPayment {
		t.Fatalf("persisted status changed to %q on gateway failure", order.Status)
	}
}

func TestVerifyPaymentFailedState(t *testing.T) {
	repo := newFakeRepo()
	seedOrder(repo, models.Order{
		OrderID:         "ord-1",
		Status:          models.OrderStatusAwaitingPayment,
		NGeniusOrderRef: "ng-order-1",
		TotalAmount:     100,
		Currency:        "AED",
	})
	gateway := &fakeGateway{
		status: &GatewayOrderStatus{
			OrderRef: "ng-order-1",
			State:    "FAILED",
			Payment:  &GatewayPayment{PaymentRef: "ng-pay-1", State: "FAILED"},
		},
	}
	notifier := &fakeNotifier{}
	svc := NewService(repo, gateway, notifier, "AED", "https://app.example")

	result, err := svc.VerifyPayment(context.Background(), "ord-1")
	if err != nil {
		t.Fatalf("VerifyPayment returned error: %v", err)
	}
	if result.Status != models.OrderStatusFailed {
		t.Fatalf("Status = %q, want failed", result.Status)
	}
	if notifier.failed != 1 {
		t.Fatalf("PaymentFailed calls = %d, want 1", notifier.failed)
	}
}

func TestVerifyPaymentUnknownOrder(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeGateway{}, nil, "AED", "https://app.example")
	if _, err := svc.VerifyPayment(context.Background(), "missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestMapGatewayState(t *testing.T) {
	tests := []struct {
		state   string
		current string
		want    string
	}{
		{state: "CAPTURED", current: models.OrderStatusAwaitingPayment, want: models.OrderStatusPaid},
		{state: "PURCHASED", current: models.OrderStatusAwaitingPayment, want: models.OrderStatusPaid},
		{state: "FAILED", current: models.OrderStatusAwaitingPayment, want: models.OrderStatusFailed},
		{state: "DECLINED", current: models.OrderStatusProcessing, want: models.OrderStatusFailed},
		{state: "STARTED", current: models.OrderStatusPending, want: models.OrderStatusAwaitingPayment},
		{state: "PENDING", current: models.OrderStatusPending, want: models.OrderStatusAwaitingPayment},
		{state: "AUTHORISED", current: models.OrderStatusAwaitingPayment, want: models.OrderStatusProcessing},
		{state: "SOMETHING_NEW", current: models.OrderStatusAwaitingPayment, want: models.OrderStatusAwaitingPayment},
		{state: "", current: models.OrderStatusPending, want: models.OrderStatusPending},
	}

	for _, tt := range tests {
		if got := mapGatewayState(tt.state, tt.current); got != tt.want {
			t.Fatalf("mapGatewayState(%q, %q) = %q, want %q", tt.state, tt.current, got, tt.want)
		}
	}
}

func TestRefundOrderPreconditions(t *testing.T) {
	repo := newFakeRepo()
	seedOrder(repo, models.Order{
		OrderID:         "ord-pending",
		Status:          models.OrderStatusAwaitingPayment,
		NGeniusOrderRef: "ng-order-1",
		TotalAmount:     100,
	})
	seedOrder(repo, models.Order{
		OrderID:     "ord-no-ref",
		Status:      models.OrderStatusPaid,
		TotalAmount: 100,
	})
	gateway := &fakeGateway{}
	svc := NewService(repo, gateway, nil, "AED", "https://app.example")

	if _, err := svc.RefundOrder(context.Background(), "ord-pending", nil); !IsValidationError(err) {
		t.Fatalf("expected validation error for unpaid order, got %v", err)
	}
	if _, err := svc.RefundOrder(context.Background(), "ord-no-ref", nil); !IsValidationError(err) {
		t.Fatalf("expected validation error for missing payment ref, got %v", err)
	}
	if _, err := svc.RefundOrder(context.Background(), "missing", nil); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
	if gateway.refundCalls != 0 {
		t.Fatalf("gateway refund calls = %d, want 0 when preconditions fail", gateway.refundCalls)
	}
	if len(repo.ledger) != 0 {
		t.Fatalf("ledger entries = %d, want 0 when preconditions fail", len(repo.ledger))
	}
}

func TestRefundOrderFull(t *testing.T) {
	repo := newFakeRepo()
	seedOrder(repo, models.Order{
		OrderID:           "ord-1",
		Status:            models.OrderStatusPaid,
		NGeniusOrderRef:   "ng-order-1",
		NGeniusPaymentRef: "ng-pay-1",
		TotalAmount:       500,
		Currency:          "AED",
	})
	gateway := &fakeGateway{
		refund: &GatewayRefund{RefundRef: "ng-refund-1", State: "REFUNDED", RawResponse: `{"state":"REFUNDED"}`},
	}
	svc := NewService(repo, gateway, nil, "AED", "https://app.example")

	result, err := svc.RefundOrder(context.Background(), "ord-1", nil)
	if err != nil {
		t.Fatalf("RefundOrder returned error: %v", err)
	}
	if result.RefundRef != "ng-refund-1" {
		t.Fatalf("RefundRef = %q, want ng-refund-1", result.RefundRef)
	}
	if result.Amount != 500 {
		t.Fatalf("Amount = %v, want full amount 500", result.Amount)
	}
	if gateway.lastRefundOrderRef != "ng-order-1" || gateway.lastRefundPaymentRef != "ng-pay-1" {
		t.Fatalf("gateway refs = %q/%q", gateway.lastRefundOrderRef, gateway.lastRefundPaymentRef)
	}
	if gateway.lastRefundAmount != nil {
		t.Fatalf("gateway amount = %v, want nil for full refund", *gateway.lastRefundAmount)
	}

	order, _ := repo.GetOrderByOrderID("ord-1")
	if order.Status != models.OrderStatusRefunded {
		t.Fatalf("persisted status = %q, want refunded", order.Status)
	}
	if len(repo.ledger) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(repo.ledger))
	}
	if repo.ledger[0].TransactionType != models.TransactionTypeRefund {
		t.Fatalf("ledger type = %q, want refund", repo.ledger[0].TransactionType)
	}
}

func TestRefundOrderGatewayFailureRollsBack(t *testing.T) {
	repo := newFakeRepo()
	seedOrder(repo, models.Order{
		OrderID:           "ord-1",
		Status:            models.OrderStatusPaid,
		NGeniusOrderRef:   "ng-order-1",
		NGeniusPaymentRef: "ng-pay-1",
		TotalAmount:       500,
		Currency:          "AED",
	})
	gateway := &fakeGateway{refundErr: &GatewayError{StatusCode: 409, Message: "already refunded"}}
	svc := NewService(repo, gateway, nil, "AED", "https://app.example")

	if _, err := svc.RefundOrder(context.Background(), "ord-1", nil); !IsGatewayError(err) {
		t.Fatalf("expected gateway error, got %v", err)
	}

	order, _ := repo.GetOrderByOrderID("ord-1")
	if order.Status != models.OrderStatusPaid {
		t.Fatalf("persisted status = %q, want paid after rollback", order.Status)
	}
	if len(repo.ledger) != 0 {
		t.Fatalf("ledger entries = %d, want 0 after rollback", len(repo.ledger))
	}
}
