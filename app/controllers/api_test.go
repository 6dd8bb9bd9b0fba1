package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rasmogul/greatsoko/app/controllers"
	appgraphql "github.com/Rasmogul/greatsoko/app/graphql"
	"github.com/Rasmogul/greatsoko/app/models"
	"github.com/Rasmogul/greatsoko/app/repositories/memory"
	"github.com/Rasmogul/greatsoko/app/routes"
	"github.com/Rasmogul/greatsoko/app/services"
	"github.com/Rasmogul/greatsoko/internal/kernel"
	"github.com/Rasmogul/greatsoko/pkg/event"
	"github.com/Rasmogul/greatsoko/pkg/graphql"
	"github.com/Rasmogul/greatsoko/pkg/storage"
	"github.com/Rasmogul/greatsoko/pkg/testkit"
	"github.com/Rasmogul/greatsoko/pkg/ws"
)

type api struct {
	*testkit.Env
	store    *memory.Store
	products *services.ProductService
	carts    *services.CartService
	orders   *services.OrderService
	actors   map[string]services.Actor
}

// newAPI serves the full route table over the in-memory store with three
// accounts (alice, bob, admin) and one product, "Lens": price 10, stock 5.
func newAPI(t *testing.T) *api {
	t.Helper()
	ctx := context.Background()

	disk, err := storage.NewLocalDisk(t.TempDir(), "http://localhost:8080/storage")
	require.NoError(t, err)

	st := memory.New()
	notifier := testkit.NewNotifier()
	users := services.NewUserService(st.Users())
	a := &api{
		store:    st,
		products: services.NewProductService(st.Products(), st.Users(), storage.NewBlobs(disk, "products")),
		carts:    services.NewCartService(st.Carts(), st.Products()),
		orders: services.NewOrderService(services.OrderDeps{
			Orders:   st.Orders(),
			Products: st.Products(),
			Carts:    st.Carts(),
			Users:    st.Users(),
			Notifier: notifier,
			Bus:      event.New(),
			AppURL:   "https://shop.example.com",
		}),
		actors: map[string]services.Actor{},
	}

	schema, err := appgraphql.Schema(a.products)
	require.NoError(t, err)

	router := kernel.New(kernel.Options{
		Handlers: routes.Handlers{
			Users:    controllers.NewUserController(users),
			Products: controllers.NewProductController(a.products),
			Cart:     controllers.NewCartController(a.carts),
			Orders:   controllers.NewOrderController(a.orders, ws.NewHub()),
			GraphQL:  graphql.Handler(schema),
		},
		Files: disk.Handler(kernel.StoragePrefix),
	})

	a.Env = &testkit.Env{
		Handler:  router.Handler(),
		Tokens:   map[string]string{},
		Vars:     map[string]string{"missing": primitive.NewObjectID().Hex()},
		Notifier: notifier,
	}

	for _, acc := range []struct {
		key, name string
		admin     bool
	}{{"alice", "Alice", false}, {"bob", "Bob", false}, {"admin", "Admin", true}} {
		in := services.RegisterInput{Name: acc.name, Email: acc.key + "@example.com", Password: "secret123"}
		create := users.Register
		if acc.admin {
			create = users.CreateAdmin
		}
		res, err := create(ctx, in)
		require.NoError(t, err)
		a.Tokens[acc.key] = res.Token
		a.Vars[acc.key] = res.User.ID.Hex()
		a.actors[acc.key] = services.Actor{ID: res.User.ID, Admin: acc.admin}
	}

	lens := &models.Product{Name: "Lens", SKU: "LENS-1", Category: "Cameras", Price: 10, Quantity: 5,
		Description: "50mm prime", User: a.actors["admin"].ID}
	require.NoError(t, st.Products().Create(ctx, lens))
	a.Vars["lens"] = lens.ID.Hex()
	return a
}

// placeOrder checks out one Lens for who and exposes its id as {{order}}.
func (a *api) placeOrder(t *testing.T, who string) {
	t.Helper()
	o, err := a.orders.Checkout(context.Background(), a.actors[who], services.CheckoutInput{
		Items: []services.LineInput{{Product: a.Vars["lens"], Quantity: 1}},
		ShippingAddress: models.ShippingAddress{
			Address: "1 Main St", City: "Nairobi", PostalCode: "00100", Country: "KE",
		},
		PaymentMethod: "PayPal",
	})
	require.NoError(t, err)
	a.Vars["order"] = o.ID.Hex()
	a.Notifier.Reset()
}

func TestUsersAPI(t *testing.T) {
	testkit.Run(t, newAPI(t).Env, "testdata/users.json")
}

func TestCartAndCheckoutAPI(t *testing.T) {
	testkit.Run(t, newAPI(t).Env, "testdata/checkout.json")
}

func TestOrderStatusAPI(t *testing.T) {
	a := newAPI(t)
	a.placeOrder(t, "alice")
	testkit.Run(t, a.Env, "testdata/orders.json")
}

func TestCatalogAPI(t *testing.T) {
	testkit.Run(t, newAPI(t).Env, "testdata/catalog.json")
}

// send issues a multipart request as who and decodes the envelope's data.
func (a *api) send(t *testing.T, method, url, who string, fields map[string]string, image string) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != "" {
		part, err := w.CreateFormFile("image", image)
		require.NoError(t, err)
		_, err = part.Write([]byte("\x89PNG fake image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+a.Tokens[who])
	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, req)

	var env struct {
		Data map[string]interface{} `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec.Code, env.Data
}

func (a *api) fetch(t *testing.T, imageURL string) int {
	t.Helper()
	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, strings.TrimPrefix(imageURL, "http://localhost:8080"), nil))
	return rec.Code
}

func imageURL(t *testing.T, product map[string]interface{}) string {
	t.Helper()
	img, ok := product["image"].(map[string]interface{})
	require.True(t, ok, "product has no image: %v", product)
	url, _ := img["url"].(string)
	require.NotEmpty(t, url)
	return url
}

func TestProductImageLifecycle(t *testing.T) {
	a := newAPI(t)

	code, _ := a.send(t, http.MethodPost, "/api/products", "alice", map[string]string{"name": "Tripod"}, "")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = a.send(t, http.MethodPost, "/api/products", "admin", map[string]string{"name": "Tripod"}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, code, "category and description are required")

	code, p := a.send(t, http.MethodPost, "/api/products", "admin", map[string]string{
		"name": "Tripod", "category": "Cameras", "description": "carbon legs", "price": "45.5", "quantity": "7",
	}, "tripod.png")
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, 45.5, p["price"])
	assert.NotEmpty(t, p["sku"], "sku is generated when omitted")
	first := imageURL(t, p)
	assert.Equal(t, http.StatusOK, a.fetch(t, first))

	id, _ := p["_id"].(string)
	code, p = a.send(t, http.MethodPut, "/api/products/"+id, "admin", map[string]string{"price": "40"}, "tripod-v2.jpg")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 40.0, p["price"])
	assert.Equal(t, "Tripod", p["name"], "fields not sent are kept")
	second := imageURL(t, p)
	assert.NotEqual(t, first, second)
	assert.Equal(t, http.StatusNotFound, a.fetch(t, first), "replaced image is deleted")

	code, _ = a.send(t, http.MethodPut, "/api/products/"+id, "admin", nil, "notes.txt")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, http.StatusOK, a.fetch(t, second), "failed upload keeps the current image")

	req := httptest.NewRequest(http.MethodDelete, "/api/products/"+id, nil)
	req.Header.Set("Authorization", "Bearer "+a.Tokens["admin"])
	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, a.fetch(t, second))
}
