package controllers

import (
	"github.com/Rasmogul/greatsoko/app/services"
	"github.com/Rasmogul/greatsoko/pkg/ctx"
)

type CartController struct {
	carts *services.CartService
}

func NewCartController(carts *services.CartService) *CartController {
	return &CartController{carts: carts}
}

func (h *CartController) Show(c *ctx.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	cart, err := h.carts.Get(c.Context(), a)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(cart)
}

func (h *CartController) Add(c *ctx.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var in services.AddToCartInput
	if !c.BindJSON(&in) {
		return
	}
	cart, err := h.carts.Add(c.Context(), a, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(cart)
}

func (h *CartController) Update(c *ctx.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var in services.UpdateCartInput
	if !c.BindJSON(&in) {
		return
	}
	cart, err := h.carts.Update(c.Context(), a, c.Param("productId"), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(cart)
}

func (h *CartController) Remove(c *ctx.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	cart, err := h.carts.Remove(c.Context(), a, c.Param("productId"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(cart)
}

func (h *CartController) Clear(c *ctx.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	cart, err := h.carts.Clear(c.Context(), a)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(cart)
}
