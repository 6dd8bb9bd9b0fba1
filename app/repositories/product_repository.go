package repositories

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Rasmogul/greatsoko/app/models"
	"github.com/Rasmogul/greatsoko/pkg/apperr"
	"github.com/Rasmogul/greatsoko/pkg/mongodb"
)

type MongoProductRepository struct {
	col *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{col: db.Collection(mongodb.Products)}
}

func (r *MongoProductRepository) Create(ctx context.Context, p *models.Product) error {
	now := time.Now().UTC()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Reviews == nil {
		p.Reviews = []models.Review{}
	}
	p.CreatedAt, p.UpdatedAt = now, now

	if _, err := r.col.InsertOne(ctx, p); err != nil {
		if mongodb.IsDuplicateKey(err) {
			return apperr.Wrap(apperr.KindConflict, err, MsgSKUExists)
		}
		return fmt.Errorf("products: insert: %w", err)
	}
	return nil
}

func (r *MongoProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if mongodb.IsNotFound(err) {
			return nil, apperr.NotFound(MsgProductNotFound)
		}
		return nil, fmt.Errorf("products: find: %w", err)
	}
	return &p, nil
}

func keywordFilter(keyword string) bson.M {
	if keyword == "" {
		return bson.M{}
	}
	return bson.M{"name": primitive.Regex{Pattern: regexp.QuoteMeta(keyword), Options: "i"}}
}

func (r *MongoProductRepository) List(ctx context.Context, keyword string, page, size int) ([]models.Product, int64, error) {
	filter := keywordFilter(keyword)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("products: count: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(size * (page - 1))).
		SetLimit(int64(size))
	products, err := r.find(ctx, filter, opts)
	return products, total, err
}

func (r *MongoProductRepository) Top(ctx context.Context, n int) ([]models.Product, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "averageRating", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(n))
	return r.find(ctx, bson.M{}, opts)
}

func (r *MongoProductRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Product, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("products: find: %w", err)
	}
	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("products: decode: %w", err)
	}
	return products, nil
}

func (r *MongoProductRepository) Update(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": bson.M{
		"name":        p.Name,
		"sku":         p.SKU,
		"category":    p.Category,
		"quantity":    p.Quantity,
		"price":       p.Price,
		"description": p.Description,
		"image":       p.Image,
		"seller":      p.Seller,
		"updatedAt":   p.UpdatedAt,
	}})
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return apperr.Wrap(apperr.KindConflict, err, MsgSKUExists)
		}
		return fmt.Errorf("products: update: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound(MsgProductNotFound)
	}
	return nil
}

func (r *MongoProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("products: delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound(MsgProductNotFound)
	}
	return nil
}

func (r *MongoProductRepository) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "quantity": bson.M{"$gte": qty}},
		bson.M{
			"$inc": bson.M{"quantity": -qty},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("products: decrement stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.InsufficientStock(MsgNotEnoughStock)
	}
	return nil
}

func (r *MongoProductRepository) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"quantity": qty},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("products: increment stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound(MsgProductNotFound)
	}
	return nil
}

// AddReview appends and re-aggregates in one pipeline update so concurrent
// reviews never lose each other or skew the average.
func (r *MongoProductRepository) AddReview(ctx context.Context, id primitive.ObjectID, rev models.Review) (*models.Product, error) {
	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = time.Now().UTC()
	}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"reviews": bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$reviews", bson.A{}}},
				bson.M{"$literal": bson.A{rev}},
			}},
		}}},
		{{Key: "$set", Value: bson.M{
			"averageRating": bson.M{"$avg": "$reviews.rating"},
			"numReviews":    bson.M{"$size": "$reviews"},
			"updatedAt":     time.Now().UTC(),
		}}},
	}

	var p models.Product
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "reviews.user": bson.M{"$ne": rev.User}},
		pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err == nil {
		return &p, nil
	}
	if !mongodb.IsNotFound(err) {
		return nil, fmt.Errorf("products: add review: %w", err)
	}

	// No match: either the product is gone or the user already reviewed it.
	if _, ferr := r.FindByID(ctx, id); ferr != nil {
		return nil, ferr
	}
	return nil, apperr.AlreadyReviewed(MsgAlreadyReviewed)
}
