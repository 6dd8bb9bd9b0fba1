package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cart is a user's basket. There is at most one line per product.
type Cart struct {
	ID         primitive.ObjectID `json:"_id"        bson:"_id,omitempty"`
	User       primitive.ObjectID `json:"user"       bson:"user"`
	Items      []CartItem         `json:"items"      bson:"items"`
	TotalPrice float64            `json:"totalPrice" bson:"totalPrice"`
	CreatedAt  time.Time          `json:"createdAt"  bson:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"  bson:"updatedAt"`
}

type CartItem struct {
	Product  primitive.ObjectID `json:"product"  bson:"product"`
	Name     string             `json:"name"     bson:"name"`
	Quantity int                `json:"quantity" bson:"quantity"`
	Price    float64            `json:"price"    bson:"price"`
}

// EmptyCart is what a user without a cart sees.
func EmptyCart(user primitive.ObjectID) *Cart {
	return &Cart{User: user, Items: []CartItem{}}
}

// Index returns the position of product's line or -1.
func (c *Cart) Index(product primitive.ObjectID) int {
	for i, it := range c.Items {
		if it.Product == product {
			return i
		}
	}
	return -1
}

// Recalculate refreshes TotalPrice from the lines.
func (c *Cart) Recalculate() {
	total := 0.0
	for _, it := range c.Items {
		total += float64(it.Quantity) * it.Price
	}
	c.TotalPrice = RoundCents(total)
}

// Empty removes every line.
func (c *Cart) Empty() {
	c.Items = []CartItem{}
	c.TotalPrice = 0
}

// Clone returns a deep copy, used to restore a cart after a failed checkout.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = append([]CartItem{}, c.Items...)
	return &cp
}
