// Package notifications holds the customer-facing order messages.
package notifications

import (
	"fmt"
	"strings"

	"github.com/Rasmogul/greatsoko/pkg/notification"
)

// OrderURL is the API location of an order.
func OrderURL(appURL, orderID string) string {
	return strings.TrimRight(appURL, "/") + "/api/orders/" + orderID
}

func OrderPlaced(email, orderID, appURL string) notification.Notice {
	return notification.Notice{
		Recipient: email,
		Subject:   "Your order has been placed",
		Message: fmt.Sprintf(
			"Thank you for your order! Your order ID is %s. You can view your order details here: %s",
			orderID, OrderURL(appURL, orderID)),
	}
}

func OrderPaid(email, orderID string) notification.Notice {
	return notification.Notice{
		Recipient: email,
		Subject:   "Your payment was received",
		Message:   fmt.Sprintf("We've received your payment for order %s. Thank you!", orderID),
	}
}

func OrderDelivered(email, orderID string) notification.Notice {
	return notification.Notice{
		Recipient: email,
		Subject:   "Your order has been delivered",
		Message:   fmt.Sprintf("Your order %s has been delivered. Thank you for shopping with us!", orderID),
	}
}
