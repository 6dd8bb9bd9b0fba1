package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Rasmogul/greatsoko/app/models"
	"github.com/Rasmogul/greatsoko/pkg/apperr"
	"github.com/Rasmogul/greatsoko/pkg/mongodb"
)

type MongoCartRepository struct {
	col *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{col: db.Collection(mongodb.Carts)}
}

func (r *MongoCartRepository) FindByUser(ctx context.Context, user primitive.ObjectID) (*models.Cart, error) {
	var c models.Cart
	if err := r.col.FindOne(ctx, bson.M{"user": user}).Decode(&c); err != nil {
		if mongodb.IsNotFound(err) {
			return nil, apperr.NotFound(MsgCartNotFound)
		}
		return nil, fmt.Errorf("carts: find: %w", err)
	}
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	return &c, nil
}

// Save upserts the user's lines. The document id is assigned by the first
// insert, so concurrent first saves for one user land on the same cart.
func (r *MongoCartRepository) Save(ctx context.Context, c *models.Cart) error {
	now := time.Now().UTC()
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}

	var saved models.Cart
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"user": c.User},
		bson.M{
			"$set": bson.M{
				"items":      c.Items,
				"totalPrice": c.TotalPrice,
				"updatedAt":  now,
			},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&saved)
	if err != nil {
		return fmt.Errorf("carts: save: %w", err)
	}
	c.ID, c.CreatedAt, c.UpdatedAt = saved.ID, saved.CreatedAt, saved.UpdatedAt
	return nil
}

func (r *MongoCartRepository) Clear(ctx context.Context, user primitive.ObjectID) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"user": user}, bson.M{"$set": bson.M{
		"items":      bson.A{},
		"totalPrice": 0,
		"updatedAt":  time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("carts: clear: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound(MsgCartNotFound)
	}
	return nil
}
