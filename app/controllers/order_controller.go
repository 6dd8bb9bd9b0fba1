package controllers

import (
	"github.com/Rasmogul/greatsoko/app/services"
	"github.com/Rasmogul/greatsoko/pkg/ctx"
	"github.com/Rasmogul/greatsoko/pkg/ws"
)

type OrderController struct {
	orders *services.OrderService
	feed   *ws.Hub
}

func NewOrderController(orders *services.OrderService, feed *ws.Hub) *OrderController {
	return &OrderController{orders: orders, feed: feed}
}

// Store is checkout.
func (h *OrderController) Store(c *ctx.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var in services.CheckoutInput
	if !c.BindJSON(&in) {
		return
	}
	o, err := h.orders.Checkout(c.Context(), a, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(o)
}

func (h *OrderController) Show(c *ctx.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	o, err := h.orders.Get(c.Context(), a, c.Param("id"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(o)
}

func (h *OrderController) Mine(c *ctx.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	orders, err := h.orders.Mine(c.Context(), a)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(orders)
}

func (h *OrderController) Index(c *ctx.Context) {
	orders, err := h.orders.All(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(orders)
}

func (h *OrderController) Pay(c *ctx.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var in services.PayInput
	if !c.BindJSON(&in) {
		return
	}
	o, err := h.orders.Pay(c.Context(), a, c.Param("id"), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(o)
}

func (h *OrderController) Deliver(c *ctx.Context) {
	o, err := h.orders.Deliver(c.Context(), c.Param("id"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(o)
}

// Feed upgrades to a WebSocket that streams the caller's order events.
func (h *OrderController) Feed(c *ctx.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	h.feed.Upgrade(c.W, c.R, a.ID.Hex())
}
