package migrations

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Rasmogul/greatsoko/pkg/migration"
	"github.com/Rasmogul/greatsoko/pkg/mongodb"
)

var schema = []struct {
	name string
	m    *Indexes
}{
	{"20260101000000_create_users_indexes", &Indexes{
		Collection: mongodb.Users,
		Models: []mongo.IndexModel{
			unique("users_email_unique", bson.D{{Key: "email", Value: 1}}),
		},
	}},
	{"20260101000001_create_products_indexes", &Indexes{
		Collection: mongodb.Products,
		Models: []mongo.IndexModel{
			unique("products_sku_unique", bson.D{{Key: "sku", Value: 1}}),
			index("products_rating", bson.D{{Key: "averageRating", Value: -1}, {Key: "_id", Value: 1}}),
			index("products_name", bson.D{{Key: "name", Value: 1}}),
		},
	}},
	{"20260101000002_create_carts_indexes", &Indexes{
		Collection: mongodb.Carts,
		Models: []mongo.IndexModel{
			unique("carts_user_unique", bson.D{{Key: "user", Value: 1}}),
		},
	}},
	{"20260101000003_create_orders_indexes", &Indexes{
		Collection: mongodb.Orders,
		Models: []mongo.IndexModel{
			index("orders_user_created", bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}),
		},
	}},
}

func init() {
	for _, s := range schema {
		migration.Register(s.name, s.m)
	}
}

// Indexes creates named indexes on one collection and drops them on
// rollback.
type Indexes struct {
	Collection string
	Models     []mongo.IndexModel
}

func (m *Indexes) Up(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection(m.Collection).Indexes().CreateMany(ctx, m.Models); err != nil {
		return fmt.Errorf("create %s indexes: %w", m.Collection, err)
	}
	return nil
}

func (m *Indexes) Down(ctx context.Context, db *mongo.Database) error {
	idx := db.Collection(m.Collection).Indexes()
	for _, model := range m.Models {
		name := *model.Options.Name
		if _, err := idx.DropOne(ctx, name); err != nil && !isMissingIndex(err) {
			return fmt.Errorf("drop %s.%s: %w", m.Collection, name, err)
		}
	}
	return nil
}

func unique(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name).SetUnique(true)}
}

func index(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name)}
}

// IndexNotFound and NamespaceNotFound.
func isMissingIndex(err error) bool {
	var cmd mongo.CommandError
	if errors.As(err, &cmd) {
		return cmd.Code == 27 || cmd.Code == 26
	}
	return false
}
