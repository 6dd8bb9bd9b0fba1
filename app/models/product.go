package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rasmogul/greatsoko/pkg/storage"
)

// Categories a product may belong to.
var Categories = []string{
	"Electronics", "Cameras", "Laptops", "Accessories", "Headphones", "Food",
	"Books", "Clothes/Shoes", "Beauty/Health", "Sports", "Outdoor", "Home",
}

// Product is a catalog entry. Quantity is the stock on hand and never goes
// below zero.
type Product struct {
	ID            primitive.ObjectID `json:"_id"           bson:"_id,omitempty"`
	User          primitive.ObjectID `json:"user"          bson:"user"`
	Name          string             `json:"name"          bson:"name"`
	SKU           string             `json:"sku"           bson:"sku"`
	Category      string             `json:"category"      bson:"category"`
	Quantity      int                `json:"quantity"      bson:"quantity"`
	Price         float64            `json:"price"         bson:"price"`
	Description   string             `json:"description"   bson:"description"`
	Image         storage.Blob       `json:"image"         bson:"image"`
	Reviews       []Review           `json:"reviews"       bson:"reviews"`
	AverageRating float64            `json:"averageRating" bson:"averageRating"`
	NumReviews    int                `json:"numReviews"    bson:"numReviews"`
	Seller        string             `json:"seller"        bson:"seller"`
	CreatedAt     time.Time          `json:"createdAt"     bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"     bson:"updatedAt"`
}

// Review is one user's rating of a product.
type Review struct {
	User      primitive.ObjectID `json:"user"      bson:"user"`
	Name      string             `json:"name"      bson:"name"`
	Rating    int                `json:"rating"    bson:"rating"`
	Comment   string             `json:"comment"   bson:"comment"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// ReviewedBy reports whether user already reviewed p.
func (p *Product) ReviewedBy(user primitive.ObjectID) bool {
	for _, r := range p.Reviews {
		if r.User == user {
			return true
		}
	}
	return false
}

// AverageRating is the arithmetic mean of the ratings, 0 for none.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}

// RoundCents rounds a money amount to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
