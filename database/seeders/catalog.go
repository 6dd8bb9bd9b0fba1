package seeders

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Rasmogul/greatsoko/app/services"
	"github.com/Rasmogul/greatsoko/config"
	"github.com/Rasmogul/greatsoko/pkg/apperr"
)

func init() {
	Register("admin", seedAdmin)
	Register("catalog", seedCatalog)
}

func seedAdmin(ctx context.Context, d Deps, out io.Writer) error {
	_, err := d.Users.CreateAdmin(ctx, services.RegisterInput{
		Name:     "Admin",
		Email:    config.Get("SEED_ADMIN_EMAIL", "admin@greatsoko.test"),
		Password: config.Get("SEED_ADMIN_PASSWORD", "changeme123"),
	})
	return skipExisting(err, out, "admin user")
}

var catalog = []services.ProductInput{
	{Name: "Mirrorless Camera", SKU: "CAM-001", Category: "Cameras", Quantity: 8, Price: 849.99,
		Description: "24MP mirrorless body with in-body stabilisation.", Seller: "Lens House"},
	{Name: "Noise Cancelling Headphones", SKU: "AUD-001", Category: "Headphones", Quantity: 25, Price: 199,
		Description: "Over-ear wireless headphones with 30 hour battery.", Seller: "SoundCo"},
	{Name: "13-inch Ultrabook", SKU: "LAP-001", Category: "Laptops", Quantity: 5, Price: 1099,
		Description: "Lightweight laptop, 16GB RAM, 512GB SSD.", Seller: "Compute Ltd"},
	{Name: "USB-C Charger 65W", SKU: "ACC-001", Category: "Accessories", Quantity: 60, Price: 29.5,
		Description: "GaN charger with two USB-C ports.", Seller: "Compute Ltd"},
	{Name: "Trail Running Shoes", SKU: "SPT-001", Category: "Sports", Quantity: 14, Price: 89,
		Description: "Grippy outsole for wet and rocky trails.", Seller: "Outdoor Supply"},
}

func seedCatalog(ctx context.Context, d Deps, out io.Writer) error {
	admin, err := d.Users.Login(ctx, services.LoginInput{
		Email:    config.Get("SEED_ADMIN_EMAIL", "admin@greatsoko.test"),
		Password: config.Get("SEED_ADMIN_PASSWORD", "changeme123"),
	})
	if err != nil {
		return fmt.Errorf("catalog needs the admin user: %w", err)
	}
	actor := services.Actor{ID: admin.User.ID, Admin: true}

	for _, in := range catalog {
		_, err := d.Products.Create(ctx, actor, in, nil)
		if err := skipExisting(err, out, in.SKU); err != nil {
			return err
		}
	}
	return nil
}

func skipExisting(err error, out io.Writer, what string) error {
	if errors.Is(err, apperr.ErrConflict) {
		fmt.Fprintf(out, "(%s exists) ", what)
		return nil
	}
	return err
}
