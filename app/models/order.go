package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order is immutable after creation except for the paid and delivered
// fields.
type Order struct {
	ID              primitive.ObjectID `json:"_id"                     bson:"_id,omitempty"`
	User            primitive.ObjectID `json:"user"                    bson:"user"`
	Items           []OrderItem        `json:"items"                   bson:"items"`
	ShippingAddress ShippingAddress    `json:"shippingAddress"         bson:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod"           bson:"paymentMethod"`
	ItemsPrice      float64            `json:"itemsPrice"              bson:"itemsPrice"`
	TaxPrice        float64            `json:"taxPrice"                bson:"taxPrice"`
	ShippingPrice   float64            `json:"shippingPrice"           bson:"shippingPrice"`
	TotalPrice      float64            `json:"totalPrice"              bson:"totalPrice"`
	IsPaid          bool               `json:"isPaid"                  bson:"isPaid"`
	PaidAt          *time.Time         `json:"paidAt,omitempty"        bson:"paidAt,omitempty"`
	PaymentResult   *PaymentResult     `json:"paymentResult,omitempty" bson:"paymentResult,omitempty"`
	IsDelivered     bool               `json:"isDelivered"             bson:"isDelivered"`
	DeliveredAt     *time.Time         `json:"deliveredAt,omitempty"   bson:"deliveredAt,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"               bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"               bson:"updatedAt"`
}

// OrderItem is a point-in-time copy of a product line.
type OrderItem struct {
	Product  primitive.ObjectID `json:"product"  bson:"product"`
	Name     string             `json:"name"     bson:"name"`
	Quantity int                `json:"quantity" bson:"quantity"`
	Price    float64            `json:"price"    bson:"price"`
}

type ShippingAddress struct {
	Address    string `json:"address"    bson:"address"    validate:"required"`
	City       string `json:"city"       bson:"city"       validate:"required"`
	PostalCode string `json:"postalCode" bson:"postalCode" validate:"required"`
	Country    string `json:"country"    bson:"country"    validate:"required"`
}

// PaymentResult is the opaque confirmation a payment provider returned to
// the client.
type PaymentResult struct {
	ID           string `json:"id"            bson:"id"`
	Status       string `json:"status"        bson:"status"`
	UpdateTime   string `json:"update_time"   bson:"update_time"`
	EmailAddress string `json:"email_address" bson:"email_address"`
}

// OwnedBy reports whether user placed o.
func (o *Order) OwnedBy(user primitive.ObjectID) bool { return o.User == user }
