package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rasmogul/greatsoko/app/models"
	"github.com/Rasmogul/greatsoko/app/repositories/memory"
	"github.com/Rasmogul/greatsoko/pkg/event"
	"github.com/Rasmogul/greatsoko/pkg/storage"
	"github.com/Rasmogul/greatsoko/pkg/testkit"
)

type fixture struct {
	store    *memory.Store
	disk     *storage.LocalDisk
	notifier *testkit.Notifier
	bus      *event.Bus

	users    *UserService
	products *ProductService
	carts    *CartService
	orders   *OrderService

	alice, bob, admin Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	disk, err := storage.NewLocalDisk(t.TempDir(), "http://localhost:8080/storage/")
	require.NoError(t, err)

	st := memory.New()
	f := &fixture{
		store:    st,
		disk:     disk,
		notifier: testkit.NewNotifier(),
		bus:      event.New(),
	}
	f.users = NewUserService(st.Users())
	f.products = NewProductService(st.Products(), st.Users(), storage.NewBlobs(disk, "products"))
	f.carts = NewCartService(st.Carts(), st.Products())
	f.orders = NewOrderService(OrderDeps{
		Orders:   st.Orders(),
		Products: st.Products(),
		Carts:    st.Carts(),
		Users:    st.Users(),
		Notifier: f.notifier,
		Bus:      f.bus,
		AppURL:   "https://shop.example.com",
	})

	f.alice = f.register(t, "Alice", "alice@example.com", false)
	f.bob = f.register(t, "Bob", "bob@example.com", false)
	f.admin = f.register(t, "Admin", "admin@example.com", true)
	return f
}

func (f *fixture) register(t *testing.T, name, email string, admin bool) Actor {
	t.Helper()
	in := RegisterInput{Name: name, Email: email, Password: "secret123"}
	create := f.users.Register
	if admin {
		create = f.users.CreateAdmin
	}
	res, err := create(context.Background(), in)
	require.NoError(t, err)
	return Actor{ID: res.User.ID, Admin: admin}
}

func (f *fixture) product(t *testing.T, name string, price float64, qty int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, SKU: "SKU-" + primitive.NewObjectID().Hex(), Category: "Cameras", Price: price, Quantity: qty}
	require.NoError(t, f.store.Products().Create(context.Background(), p))
	return p
}

func (f *fixture) fillCart(t *testing.T, who Actor, p *models.Product, qty int) {
	t.Helper()
	_, err := f.carts.Add(context.Background(), who, AddToCartInput{ProductID: p.ID.Hex(), Quantity: qty})
	require.NoError(t, err)
}
