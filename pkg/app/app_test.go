package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rasmogul/greatsoko/pkg/router"
)

func TestRouteTable(t *testing.T) {
	byName := map[string]router.RouteInfo{}
	for _, ri := range RouteTable() {
		byName[ri.Name] = ri
	}

	want := map[string]string{
		"users.register":   "POST /api/users",
		"users.login":      "POST /api/users/login",
		"users.profile":    "GET /api/users/profile",
		"users.index":      "GET /api/users",
		"products.index":   "GET /api/products",
		"products.top":     "GET /api/products/top",
		"products.show":    "GET /api/products/{id}",
		"products.store":   "POST /api/products",
		"products.update":  "PUT /api/products/{id}",
		"products.destroy": "DELETE /api/products/{id}",
		"products.review":  "POST /api/products/{id}/reviews",
		"cart.show":        "GET /api/cart",
		"cart.add":         "POST /api/cart",
		"cart.update":      "PUT /api/cart/{productId}",
		"cart.remove":      "DELETE /api/cart/{productId}",
		"cart.clear":       "DELETE /api/cart",
		"orders.store":     "POST /api/orders",
		"orders.mine":      "GET /api/orders/myorders",
		"orders.feed":      "GET /api/orders/feed",
		"orders.index":     "GET /api/orders",
		"orders.show":      "GET /api/orders/{id}",
		"orders.pay":       "PUT /api/orders/{id}/pay",
		"orders.deliver":   "PUT /api/orders/{id}/deliver",
		"graphql":          "POST /api/graphql",
	}

	require.Len(t, byName, len(want))
	for name, route := range want {
		ri, ok := byName[name]
		if assert.True(t, ok, name) {
			assert.Equal(t, route, ri.Method+" "+ri.Path, name)
		}
	}
}
