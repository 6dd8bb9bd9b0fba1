// Package events names the storefront's domain events and relays them to
// connected clients.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Rasmogul/greatsoko/app/models"
	"github.com/Rasmogul/greatsoko/pkg/event"
	"github.com/Rasmogul/greatsoko/pkg/logger"
)

const (
	OrderPlaced    = "order.placed"
	OrderPaid      = "order.paid"
	OrderDelivered = "order.delivered"
)

// Order is the payload of every order event.
type Order struct {
	Event      string    `json:"event"`
	OrderID    string    `json:"orderId"`
	UserID     string    `json:"userId"`
	TotalPrice float64   `json:"totalPrice"`
	At         time.Time `json:"at"`
}

// NewOrder describes o for event name.
func NewOrder(name string, o *models.Order) Order {
	return Order{
		Event:      name,
		OrderID:    o.ID.Hex(),
		UserID:     o.User.Hex(),
		TotalPrice: o.TotalPrice,
		At:         time.Now().UTC(),
	}
}

// Sender delivers a payload to every connection of a user.
type Sender interface {
	SendTo(userID string, data []byte) bool
}

// RelayOrders forwards order events to their owner's live feed.
func RelayOrders(bus *event.Bus, to Sender) {
	relay := func(ctx context.Context, name string, payload interface{}) {
		ev, ok := payload.(Order)
		if !ok {
			return
		}
		data, err := json.Marshal(ev)
		if err != nil {
			logger.WithCtx(ctx).Error("events: encode order event", "event", name, "error", err)
			return
		}
		to.SendTo(ev.UserID, data)
	}
	for _, name := range []string{OrderPlaced, OrderPaid, OrderDelivered} {
		bus.Listen(name, relay)
	}
}
