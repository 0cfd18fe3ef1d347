package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/befree-edtech/befree-backend/app/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service drives an order from submission to a settled state, keeping the
// local order record consistent with the gateway's view. Verification is
// pull-based: the client calls VerifyPayment after returning from the hosted
// payment page, there is no webhook.
type Service struct {
	repo        Repository
	gateway     Gateway
	notifier    Notifier
	currency    string
	frontendURL string
}

// NewService creates a checkout service. notifier may be nil.
func NewService(repo Repository, gateway Gateway, notifier Notifier, currency, frontendURL string) *Service {
	if currency == "" {
		currency = defaultNGeniusCurrency
	}
	return &Service{
		repo:        repo,
		gateway:     gateway,
		notifier:    notifier,
		currency:    currency,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// CreateOrder quotes pricing, persists a pending order, creates the remote
// payment order and attaches its reference, all inside one local transaction.
// A failure at any step after the initial insert rolls the whole operation
// back, so no pending order without a remote reference can be observed.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	if strings.TrimSpace(in.PlanID) == "" || strings.TrimSpace(in.BillingCycle) == "" || strings.TrimSpace(in.ContactInfo.Email) == "" {
		return nil, newValidationError("missing required fields: planId, billing, and email are required")
	}

	qty := in.Quantity
	if qty < 1 {
		qty = 1
	}

	orderID := uuid.NewString()
	merchantRef := fmt.Sprintf("BF-%d-%s", time.Now().UnixMilli(), strings.ToUpper(orderID[:8]))

	var order *models.Order
	err := s.repo.Transaction(func(tx Repository) error {
		plan, err := tx.FindPlan(strings.TrimSpace(in.PlanID))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPlanNotFound
			}
			return err
		}

		pricing, err := ComputePricing(plan.Price, in.BillingCycle, qty)
		if err != nil {
			return err
		}

		order = &models.Order{
			OrderID:                orderID,
			UserID:                 in.UserID,
			PlanID:                 plan.ID,
			PlanName:               plan.Name,
			BillingCycle:           in.BillingCycle,
			Quantity:               qty,
			BasePrice:              pricing.BasePrice,
			Discount:               pricing.Discount,
			TotalAmount:            pricing.TotalAmount,
			Currency:               s.currency,
			FirstName:              in.ContactInfo.FirstName,
			LastName:               in.ContactInfo.LastName,
			Email:                  in.ContactInfo.Email,
			Phone:                  in.ContactInfo.Phone,
			Country:                in.BillingAddress.Country,
			AddressLine1:           in.BillingAddress.Address1,
			AddressLine2:           in.BillingAddress.Address2,
			City:                   in.BillingAddress.City,
			State:                  in.BillingAddress.State,
			PostalCode:             in.BillingAddress.Zip,
			PaymentMethod:          in.PaymentMethod,
			MerchantOrderReference: merchantRef,
			Status:                 models.OrderStatusPending,
		}
		if err := tx.CreateOrder(order); err != nil {
			return err
		}

		remote, err := s.gateway.CreateOrder(ctx, GatewayOrderRequest{
			Amount:                 pricing.TotalAmount,
			Currency:               s.currency,
			MerchantOrderReference: merchantRef,
			Email:                  in.ContactInfo.Email,
			FirstName:              in.ContactInfo.FirstName,
			LastName:               in.ContactInfo.LastName,
			Phone:                  in.ContactInfo.Phone,
			Country:                in.BillingAddress.Country,
			Address1:               in.BillingAddress.Address1,
			Address2:               in.BillingAddress.Address2,
			City:                   in.BillingAddress.City,
			State:                  in.BillingAddress.State,
			PostalCode:             in.BillingAddress.Zip,
			RedirectURL:            fmt.Sprintf("%s/payment-success?orderId=%s", s.frontendURL, orderID),
			CancelURL:              fmt.Sprintf("%s/payment-cancel?orderId=%s", s.frontendURL, orderID),
		})
		if err != nil {
			return err
		}

		if err := tx.UpdateOrder(orderID, map[string]interface{}{
			"ngenius_order_ref": remote.OrderRef,
			"payment_url":       remote.PaymentURL,
			"status":            models.OrderStatusAwaitingPayment,
		}); err != nil {
			return err
		}
		order.NGeniusOrderRef = remote.OrderRef
		order.PaymentURL = remote.PaymentURL
		order.Status = models.OrderStatusAwaitingPayment
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.OrderReceived(order)
	}

	return &CreateOrderResult{
		OrderID:                order.OrderID,
		MerchantOrderReference: order.MerchantOrderReference,
		NGeniusOrderRef:        order.NGeniusOrderRef,
		PaymentURL:             order.PaymentURL,
		Amount:                 order.TotalAmount,
		Currency:               order.Currency,
	}, nil
}

// VerifyPayment reconciles the local order status against the gateway. It is
// idempotent and safe to call on every page load: a paid order is answered
// from the local record without a gateway call, and a gateway failure
// degrades to the last-known local status instead of an error.
func (s *Service) VerifyPayment(ctx context.Context, orderID string) (*VerifyResult, error) {
	order, err := s.getOrder(orderID)
	if err != nil {
		return nil, err
	}

	cached := &VerifyResult{
		OrderID:  order.OrderID,
		Status:   order.Status,
		Amount:   order.TotalAmount,
		Currency: order.Currency,
	}

	if order.Status == models.OrderStatusPaid || order.NGeniusOrderRef == "" {
		return cached, nil
	}

	status, err := s.gateway.GetOrderStatus(ctx, order.NGeniusOrderRef)
	if err != nil {
		log.Printf("checkout: status check failed for order %s: %v", order.OrderID, err)
		return cached, nil
	}

	paymentState := status.State
	if status.Payment != nil {
		paymentState = status.Payment.State
	}
	newStatus := mapGatewayState(paymentState, order.Status)

	if newStatus != order.Status {
		if err := s.applyTransition(order, newStatus, status); err != nil {
			return nil, err
		}
		s.notifyTransition(order, newStatus, status.Payment)
	}

	result := &VerifyResult{
		OrderID:       order.OrderID,
		Status:        newStatus,
		PaymentStatus: paymentState,
		Amount:        order.TotalAmount,
		Currency:      order.Currency,
	}
	if status.Amount > 0 {
		result.Amount = status.Amount
	}
	if status.Currency != "" {
		result.Currency = status.Currency
	}
	if status.Payment != nil {
		result.CardBrand = status.Payment.CardBrand
		result.CardLastFour = status.Payment.CardLastFour
	}
	return result, nil
}

// RefundOrder refunds a paid order, full or partial. Preconditions are
// checked before any remote call; the status update and the refund ledger
// entry commit together or not at all.
func (s *Service) RefundOrder(ctx context.Context, orderID string, amount *float64) (*RefundResult, error) {
	order, err := s.getOrder(orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.OrderStatusPaid {
		return nil, newValidationError("only paid orders can be refunded")
	}
	if order.NGeniusOrderRef == "" || order.NGeniusPaymentRef == "" {
		return nil, newValidationError("payment reference not found")
	}

	refundAmount := order.TotalAmount
	if amount != nil {
		refundAmount = *amount
	}

	var refund *GatewayRefund
	err = s.repo.Transaction(func(tx Repository) error {
		var err error
		refund, err = s.gateway.RefundPayment(ctx, order.NGeniusOrderRef, order.NGeniusPaymentRef, amount)
		if err != nil {
			return err
		}

		if err := tx.UpdateOrder(order.OrderID, map[string]interface{}{
			"status": models.OrderStatusRefunded,
		}); err != nil {
			return err
		}

		_, err = tx.CreatePaymentTransactionIfNotExists(&models.PaymentTransaction{
			TransactionID:     uuid.NewString(),
			OrderID:           order.OrderID,
			NGeniusOrderRef:   order.NGeniusOrderRef,
			NGeniusPaymentRef: refund.RefundRef,
			TransactionType:   models.TransactionTypeRefund,
			Amount:            refundAmount,
			Currency:          order.Currency,
			Status:            models.OrderStatusRefunded,
			RawResponse:       refund.RawResponse,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &RefundResult{
		OrderID:   order.OrderID,
		RefundRef: refund.RefundRef,
		Status:    models.OrderStatusRefunded,
		Amount:    refundAmount,
	}, nil
}

// GetOrder returns the order snapshot.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	_ = ctx
	return s.getOrder(orderID)
}

// ListUserOrders returns the orders owned by a user, newest first.
func (s *Service) ListUserOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	_ = ctx
	return s.repo.ListOrdersByUser(userID)
}

func (s *Service) getOrder(orderID string) (*models.Order, error) {
	order, err := s.repo.GetOrderByOrderID(strings.TrimSpace(orderID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// applyTransition writes the new status and appends a sale ledger entry in
// one transaction. The ledger insert is idempotent under racing verify calls.
func (s *Service) applyTransition(order *models.Order, newStatus string, status *GatewayOrderStatus) error {
	err := s.repo.Transaction(func(tx Repository) error {
		updates := map[string]interface{}{
			"status": newStatus,
		}
		if status.Payment != nil {
			updates["ngenius_payment_ref"] = status.Payment.PaymentRef
		}
		if newStatus == models.OrderStatusPaid {
			updates["paid_at"] = time.Now()
		}
		if err := tx.UpdateOrder(order.OrderID, updates); err != nil {
			return err
		}

		if status.Payment == nil {
			return nil
		}

		amount := status.Amount
		if amount == 0 {
			amount = order.TotalAmount
		}
		currency := status.Currency
		if currency == "" {
			currency = order.Currency
		}
		_, err := tx.CreatePaymentTransactionIfNotExists(&models.PaymentTransaction{
			TransactionID:     uuid.NewString(),
			OrderID:           order.OrderID,
			NGeniusOrderRef:   order.NGeniusOrderRef,
			NGeniusPaymentRef: status.Payment.PaymentRef,
			TransactionType:   models.TransactionTypeSale,
			Amount:            amount,
			Currency:          currency,
			Status:            newStatus,
			AuthCode:          status.Payment.AuthCode,
			CardBrand:         status.Payment.CardBrand,
			CardLastFour:      status.Payment.CardLastFour,
			RawResponse:       status.RawResponse,
		})
		return err
	})
	if err != nil {
		return err
	}

	order.Status = newStatus
	if status.Payment != nil {
		order.NGeniusPaymentRef = status.Payment.PaymentRef
	}
	if newStatus == models.OrderStatusPaid {
		now := time.Now()
		order.PaidAt = &now
	}
	return nil
}

func (s *Service) notifyTransition(order *models.Order, newStatus string, payment *GatewayPayment) {
	if s.notifier == nil {
		return
	}
	switch newStatus {
	case models.OrderStatusPaid:
		s.notifier.PaymentSucceeded(order, payment)
	case models.OrderStatusFailed:
		s.notifier.PaymentFailed(order)
	}
}

// mapGatewayState maps a gateway payment state to the local order status.
// Unknown states leave the order unchanged.
func mapGatewayState(paymentState, current string) string {
	switch paymentState {
	case "CAPTURED", "PURCHASED":
		return models.OrderStatusPaid
	case "FAILED", "DECLINED":
		return models.OrderStatusFailed
	case "STARTED", "PENDING":
		return models.OrderStatusAwaitingPayment
	case "AUTHORISED":
		return models.OrderStatusProcessing
	default:
		return current
	}
}
