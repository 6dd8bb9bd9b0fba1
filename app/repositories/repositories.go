// Package repositories persists the storefront's documents in MongoDB.
// Every method takes the caller's context so writes join an open
// transaction when the context is a session context.
package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rasmogul/greatsoko/app/models"
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	// List pages through products whose name contains keyword, ignoring
	// case. It returns the page and the total match count.
	List(ctx context.Context, keyword string, page, size int) ([]models.Product, int64, error)
	Top(ctx context.Context, n int) ([]models.Product, error)
	// Update writes the editable fields; reviews and ratings are untouched.
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// DecrementStock takes qty units only if that many are on hand, in a
	// single conditional write. It fails with apperr.ErrInsufficientStock
	// otherwise.
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
	IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error

	// AddReview appends r and recomputes the rating aggregates unless r.User
	// already reviewed the product (apperr.ErrAlreadyReviewed).
	AddReview(ctx context.Context, id primitive.ObjectID, r models.Review) (*models.Product, error)
}

type CartRepository interface {
	FindByUser(ctx context.Context, user primitive.ObjectID) (*models.Cart, error)
	// Save upserts the user's cart.
	Save(ctx context.Context, c *models.Cart) error
	// Clear empties the user's cart.
	Clear(ctx context.Context, user primitive.ObjectID) error
}

type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	ListByUser(ctx context.Context, user primitive.ObjectID) ([]models.Order, error)
	List(ctx context.Context) ([]models.Order, error)

	// MarkPaid and MarkDelivered only match orders not yet in the target
	// state. changed is false when the order was already there; the current
	// order is returned either way.
	MarkPaid(ctx context.Context, id primitive.ObjectID, res models.PaymentResult, at time.Time) (o *models.Order, changed bool, err error)
	MarkDelivered(ctx context.Context, id primitive.ObjectID, at time.Time) (o *models.Order, changed bool, err error)
}

// Error messages shared by every implementation.
const (
	MsgUserNotFound    = "User not found"
	MsgUserExists      = "User already exists"
	MsgProductNotFound = "Product not found"
	MsgSKUExists       = "Product with this SKU already exists"
	MsgAlreadyReviewed = "Product already reviewed"
	MsgCartNotFound    = "Cart not found"
	MsgOrderNotFound   = "Order not found"
	MsgNotEnoughStock  = "Not enough stock available"
)
