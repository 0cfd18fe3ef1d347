package controllers

import (
	"errors"
	"log"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/befree-edtech/befree-backend/internal/pkg/checkout"
	"github.com/befree-edtech/befree-backend/internal/pkg/database"
	"github.com/befree-edtech/befree-backend/internal/pkg/env"
	"github.com/befree-edtech/befree-backend/internal/pkg/notify"
	"github.com/befree-edtech/befree-backend/internal/pkg/usercontext"
)

var (
	checkoutService     *checkout.Service
	checkoutServiceOnce sync.Once
)

func getCheckoutService() *checkout.Service {
	checkoutServiceOnce.Do(func() {
		checkoutService = checkout.NewService(
			checkout.NewRepository(database.GetDB()),
			checkout.NewNGeniusClientFromEnv(),
			notify.NewOrderNotifier(),
			env.GetEnv("NGENIUS_CURRENCY", "AED"),
			env.GetEnv("FRONTEND_URL", "http://localhost:5173"),
		)
	})
	return checkoutService
}

type createOrderRequest struct {
	PlanID         string                  `json:"planId"`
	Billing        string                  `json:"billing"`
	Quantity       int                     `json:"quantity"`
	ContactInfo    checkout.ContactInfo    `json:"contactInfo"`
	PaymentMethod  string                  `json:"paymentMethod"`
	BillingAddress checkout.BillingAddress `json:"billingAddress"`
}

// HandleCreateOrder creates an order and initiates payment.
// POST /api/v1/orders (optional auth)
func HandleCreateOrder(c *fiber.Ctx) error {
	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	input := checkout.CreateOrderInput{
		PlanID:         req.PlanID,
		BillingCycle:   req.Billing,
		Quantity:       req.Quantity,
		ContactInfo:    req.ContactInfo,
		BillingAddress: req.BillingAddress,
		PaymentMethod:  req.PaymentMethod,
	}
	if userCtx := usercontext.GetUserContext(c); userCtx.IsLoggedIn {
		userID := userCtx.UserID
		input.UserID = &userID
	}

	result, err := getCheckoutService().CreateOrder(c.Context(), input)
	if err != nil {
		var ve *checkout.ValidationError
		var ge *checkout.GatewayError
		switch {
		case errors.As(err, &ve):
			return respondError(c, fiber.StatusBadRequest, ve.Message)
		case errors.Is(err, checkout.ErrPlanNotFound):
			return respondError(c, fiber.StatusNotFound, "Plan not found")
		case errors.As(err, &ge):
			// Gateway message is surfaced for order creation failures so the
			// frontend can show why the payment could not be started.
			log.Printf("create order: gateway failure: %v", err)
			return respondError(c, fiber.StatusInternalServerError, ge.Message)
		default:
			log.Printf("create order failed: %v", err)
			return respondError(c, fiber.StatusInternalServerError, "Failed to create order")
		}
	}

	return respondData(c, fiber.StatusCreated, result)
}

// HandleGetOrder returns a single order snapshot.
// GET /api/v1/orders/:id
func HandleGetOrder(c *fiber.Ctx) error {
	order, err := getCheckoutService().GetOrder(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, checkout.ErrOrderNotFound) {
			return respondError(c, fiber.StatusNotFound, "Order not found")
		}
		log.Printf("get order failed: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "Failed to get order")
	}
	return respondData(c, fiber.StatusOK, order)
}

// HandleVerifyPayment reconciles the order against the gateway and returns
// the current status. Called when the user returns from the payment page and
// by frontend polling; cheap to call repeatedly.
// GET /api/v1/orders/:id/verify
func HandleVerifyPayment(c *fiber.Ctx) error {
	result, err := getCheckoutService().VerifyPayment(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, checkout.ErrOrderNotFound) {
			return respondError(c, fiber.StatusNotFound, "Order not found")
		}
		log.Printf("verify payment failed: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "Failed to verify payment")
	}
	return respondData(c, fiber.StatusOK, result)
}

// HandleMyOrders lists the authenticated caller's orders.
// GET /api/v1/orders/my-orders
func HandleMyOrders(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	orders, err := getCheckoutService().ListUserOrders(c.Context(), userID)
	if err != nil {
		log.Printf("list orders for user %d failed: %v", userID, err)
		return respondError(c, fiber.StatusInternalServerError, "Failed to get orders")
	}
	return respondData(c, fiber.StatusOK, orders)
}

type refundOrderRequest struct {
	Amount *float64 `json:"amount"`
}

// HandleRefundOrder refunds a paid order, fully or partially.
// POST /api/v1/orders/:id/refund (admin)
func HandleRefundOrder(c *fiber.Ctx) error {
	var req refundOrderRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}

	result, err := getCheckoutService().RefundOrder(c.Context(), c.Params("id"), req.Amount)
	if err != nil {
		var ve *checkout.ValidationError
		switch {
		case errors.Is(err, checkout.ErrOrderNotFound):
			return respondError(c, fiber.StatusNotFound, "Order not found")
		case errors.As(err, &ve):
			return respondError(c, fiber.StatusBadRequest, ve.Message)
		default:
			log.Printf("refund order failed: %v", err)
			return respondError(c, fiber.StatusInternalServerError, "Failed to process refund")
		}
	}
	return respondData(c, fiber.StatusOK, result)
}
