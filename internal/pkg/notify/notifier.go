// Package notify fans order state transitions out to email and in-app
// notifications. All delivery is fire-and-forget: failures are logged, never
// propagated back into the checkout flow.
package notify

import (
	"fmt"
	"log"

	"github.com/befree-edtech/befree-backend/app/models"
	"github.com/befree-edtech/befree-backend/internal/pkg/checkout"
	"github.com/befree-edtech/befree-backend/internal/pkg/database"
	"github.com/befree-edtech/befree-backend/internal/pkg/mail"
)

// OrderNotifier implements checkout.Notifier.
type OrderNotifier struct{}

func NewOrderNotifier() *OrderNotifier {
	return &OrderNotifier{}
}

func (n *OrderNotifier) OrderReceived(order *models.Order) {
	go func() {
		if err := mail.SendOrderReceivedEmail(order); err != nil {
			log.Printf("notify: order received email for %s failed: %v", order.OrderID, err)
		}
	}()
}

func (n *OrderNotifier) PaymentSucceeded(order *models.Order, payment *checkout.GatewayPayment) {
	cardBrand, cardLastFour := "", ""
	if payment != nil {
		cardBrand, cardLastFour = payment.CardBrand, payment.CardLastFour
	}
	go func() {
		if err := mail.SendPaymentSuccessEmail(order, cardBrand, cardLastFour); err != nil {
			log.Printf("notify: payment success email for %s failed: %v", order.OrderID, err)
		}
	}()
	n.createInAppNotification(order, fmt.Sprintf("Your payment for the %s plan was successful.", order.PlanName))
}

func (n *OrderNotifier) PaymentFailed(order *models.Order) {
	go func() {
		if err := mail.SendPaymentFailedEmail(order); err != nil {
			log.Printf("notify: payment failed email for %s failed: %v", order.OrderID, err)
		}
	}()
	n.createInAppNotification(order, fmt.Sprintf("Your payment for the %s plan was declined.", order.PlanName))
}

// createInAppNotification writes a notification row for the owning user.
// Anonymous orders have no user to notify.
func (n *OrderNotifier) createInAppNotification(order *models.Order, content string) {
	if order.UserID == nil {
		return
	}
	db := database.GetDB()
	if db == nil {
		return
	}
	if err := models.CreateNotification(db, *order.UserID, models.NotificationTypePayment, content, order.OrderID); err != nil {
		log.Printf("notify: in-app notification for %s failed: %v", order.OrderID, err)
	}
}
