package services

import (
	"context"
	"errors"

	"github.com/Rasmogul/greatsoko/app/models"
	"github.com/Rasmogul/greatsoko/app/repositories"
	"github.com/Rasmogul/greatsoko/pkg/apperr"
)

const msgItemNotInCart = "Item not found in cart"

type AddToCartInput struct {
	ProductID string `json:"productId" validate:"required,objectid"`
	Quantity  int    `json:"quantity"  validate:"required,gte=1"`
}

type UpdateCartInput struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

type CartService struct {
	carts    repositories.CartRepository
	products repositories.ProductRepository
}

func NewCartService(carts repositories.CartRepository, products repositories.ProductRepository) *CartService {
	return &CartService{carts: carts, products: products}
}

// Get returns the actor's cart, or an empty one when none was saved yet.
func (s *CartService) Get(ctx context.Context, actor Actor) (*models.Cart, error) {
	c, err := s.carts.FindByUser(ctx, actor.ID)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.EmptyCart(actor.ID), nil
	}
	return c, err
}

// Add puts quantity units of a product in the cart, merging with an existing
// line. The merged quantity must be in stock.
func (s *CartService) Add(ctx context.Context, actor Actor, in AddToCartInput) (*models.Cart, error) {
	p, err := s.product(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	c, err := s.Get(ctx, actor)
	if err != nil {
		return nil, err
	}

	i := c.Index(p.ID)
	want := in.Quantity
	if i >= 0 {
		want += c.Items[i].Quantity
	}
	if p.Quantity < want {
		return nil, apperr.InsufficientStock(repositories.MsgNotEnoughStock)
	}

	line := models.CartItem{Product: p.ID, Name: p.Name, Quantity: want, Price: p.Price}
	if i >= 0 {
		c.Items[i] = line
	} else {
		c.Items = append(c.Items, line)
	}
	return s.save(ctx, c)
}

// Update sets the quantity of a line already in the cart.
func (s *CartService) Update(ctx context.Context, actor Actor, productID string, in UpdateCartInput) (*models.Cart, error) {
	p, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Quantity < in.Quantity {
		return nil, apperr.InsufficientStock(repositories.MsgNotEnoughStock)
	}
	c, err := s.carts.FindByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	i := c.Index(p.ID)
	if i < 0 {
		return nil, apperr.NotFound(msgItemNotInCart)
	}
	c.Items[i].Quantity = in.Quantity
	c.Items[i].Price = p.Price
	return s.save(ctx, c)
}

func (s *CartService) Remove(ctx context.Context, actor Actor, productID string) (*models.Cart, error) {
	c, err := s.carts.FindByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	id, err := parseID(productID, msgItemNotInCart)
	if err != nil {
		return nil, err
	}
	i := c.Index(id)
	if i < 0 {
		return nil, apperr.NotFound(msgItemNotInCart)
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return s.save(ctx, c)
}

func (s *CartService) Clear(ctx context.Context, actor Actor) (*models.Cart, error) {
	if err := s.carts.Clear(ctx, actor.ID); err != nil {
		return nil, err
	}
	return s.carts.FindByUser(ctx, actor.ID)
}

func (s *CartService) product(ctx context.Context, id string) (*models.Product, error) {
	oid, err := parseID(id, repositories.MsgProductNotFound)
	if err != nil {
		return nil, err
	}
	return s.products.FindByID(ctx, oid)
}

func (s *CartService) save(ctx context.Context, c *models.Cart) (*models.Cart, error) {
	c.Recalculate()
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
