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

type MongoOrderRepository struct {
	col *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{col: db.Collection(mongodb.Orders)}
}

func (r *MongoOrderRepository) Create(ctx context.Context, o *models.Order) error {
	now := time.Now().UTC()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	o.CreatedAt, o.UpdatedAt = now, now
	if _, err := r.col.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("orders: insert: %w", err)
	}
	return nil
}

func (r *MongoOrderRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("orders: delete: %w", err)
	}
	return nil
}

func (r *MongoOrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		if mongodb.IsNotFound(err) {
			return nil, apperr.NotFound(MsgOrderNotFound)
		}
		return nil, fmt.Errorf("orders: find: %w", err)
	}
	return &o, nil
}

func (r *MongoOrderRepository) ListByUser(ctx context.Context, user primitive.ObjectID) ([]models.Order, error) {
	return r.list(ctx, bson.M{"user": user})
}

func (r *MongoOrderRepository) List(ctx context.Context) ([]models.Order, error) {
	return r.list(ctx, bson.M{})
}

func (r *MongoOrderRepository) list(ctx context.Context, filter bson.M) ([]models.Order, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("orders: list: %w", err)
	}
	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("orders: decode: %w", err)
	}
	return orders, nil
}

func (r *MongoOrderRepository) MarkPaid(ctx context.Context, id primitive.ObjectID, res models.PaymentResult, at time.Time) (*models.Order, bool, error) {
	return r.transition(ctx, id, "isPaid", bson.M{
		"isPaid":        true,
		"paidAt":        at,
		"paymentResult": res,
		"updatedAt":     at,
	})
}

func (r *MongoOrderRepository) MarkDelivered(ctx context.Context, id primitive.ObjectID, at time.Time) (*models.Order, bool, error) {
	return r.transition(ctx, id, "isDelivered", bson.M{
		"isDelivered": true,
		"deliveredAt": at,
		"updatedAt":   at,
	})
}

// transition sets fields on the order only while flag is still false.
func (r *MongoOrderRepository) transition(ctx context.Context, id primitive.ObjectID, flag string, set bson.M) (*models.Order, bool, error) {
	var o models.Order
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, flag: false},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&o)
	if err == nil {
		return &o, true, nil
	}
	if !mongodb.IsNotFound(err) {
		return nil, false, fmt.Errorf("orders: set %s: %w", flag, err)
	}

	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}
