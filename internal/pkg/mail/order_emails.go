package mail

import (
	"fmt"

	"github.com/befree-edtech/befree-backend/app/models"
)

// SendOrderReceivedEmail confirms that an order was created and payment is
// pending.
func SendOrderReceivedEmail(order *models.Order) error {
	subject := fmt.Sprintf("We received your order %s", order.MerchantOrderReference)
	body := fmt.Sprintf(`
		<h2>Thank you for your order!</h2>
		<p>Hi %s,</p>
		<p>We received your order for the <strong>%s</strong> plan (%s billing).</p>
		<table>
			<tr><td>Order number:</td><td>%s</td></tr>
			<tr><td>Total:</td><td>%.2f %s</td></tr>
		</table>
		<p>Your order will be confirmed as soon as the payment completes.</p>
	`, order.FirstName, order.PlanName, order.BillingCycle, order.MerchantOrderReference, order.TotalAmount, order.Currency)

	return SendMail(order.Email, subject, body)
}

// SendPaymentSuccessEmail confirms a completed payment. Card details are the
// masked values reported by the gateway.
func SendPaymentSuccessEmail(order *models.Order, cardBrand, cardLastFour string) error {
	subject := fmt.Sprintf("Payment confirmed for order %s", order.MerchantOrderReference)
	cardLine := ""
	if cardLastFour != "" {
		cardLine = fmt.Sprintf("<tr><td>Paid with:</td><td>%s ending in %s</td></tr>", cardBrand, cardLastFour)
	}
	body := fmt.Sprintf(`
		<h2>Payment successful</h2>
		<p>Hi %s,</p>
		<p>Your payment for the <strong>%s</strong> plan was successful. Welcome aboard!</p>
		<table>
			<tr><td>Order number:</td><td>%s</td></tr>
			<tr><td>Amount:</td><td>%.2f %s</td></tr>
			%s
		</table>
	`, order.FirstName, order.PlanName, order.MerchantOrderReference, order.TotalAmount, order.Currency, cardLine)

	return SendMail(order.Email, subject, body)
}

// SendPaymentFailedEmail tells the customer the payment did not go through.
func SendPaymentFailedEmail(order *models.Order) error {
	subject := fmt.Sprintf("Payment failed for order %s", order.MerchantOrderReference)
	body := fmt.Sprintf(`
		<h2>Payment failed</h2>
		<p>Hi %s,</p>
		<p>Unfortunately your payment for the <strong>%s</strong> plan was declined by the bank.</p>
		<p>No money was taken. You can place a new order at any time.</p>
		<table>
			<tr><td>Order number:</td><td>%s</td></tr>
			<tr><td>Amount:</td><td>%.2f %s</td></tr>
		</table>
	`, order.FirstName, order.PlanName, order.MerchantOrderReference, order.TotalAmount, order.Currency)

	return SendMail(order.Email, subject, body)
}
