// Package routes maps the /api surface onto controllers.
package routes

import (
	"net/http"

	"github.com/Rasmogul/greatsoko/app/controllers"
	"github.com/Rasmogul/greatsoko/pkg/ctx"
	"github.com/Rasmogul/greatsoko/pkg/middleware"
	"github.com/Rasmogul/greatsoko/pkg/rbac"
	"github.com/Rasmogul/greatsoko/pkg/router"
)

// Handlers are the controllers RegisterAPI mounts. GraphQL may be nil.
type Handlers struct {
	Users    *controllers.UserController
	Products *controllers.ProductController
	Cart     *controllers.CartController
	Orders   *controllers.OrderController
	GraphQL  http.Handler
}

func RegisterAPI(r *router.Router, h Handlers) {
	api := r.Group("/api")

	users := api.Group("/users")
	users.Post("", "users.register", ctx.Wrap(h.Users.Register))
	users.Post("/login", "users.login", ctx.Wrap(h.Users.Login))
	users.Get("/profile", "users.profile", ctx.Wrap(h.Users.Profile), middleware.AuthMiddleware)
	users.Get("", "users.index", ctx.Wrap(h.Users.Index), middleware.AuthMiddleware, rbac.Admin)

	products := api.Group("/products")
	products.Get("", "products.index", ctx.Wrap(h.Products.Index))
	products.Get("/top", "products.top", ctx.Wrap(h.Products.Top))
	products.Get("/{id}", "products.show", ctx.Wrap(h.Products.Show))
	products.Post("", "products.store", ctx.Wrap(h.Products.Store), middleware.AuthMiddleware, rbac.Admin)
	products.Put("/{id}", "products.update", ctx.Wrap(h.Products.Update), middleware.AuthMiddleware, rbac.Admin)
	products.Delete("/{id}", "products.destroy", ctx.Wrap(h.Products.Destroy), middleware.AuthMiddleware, rbac.Admin)
	products.Post("/{id}/reviews", "products.review", ctx.Wrap(h.Products.Review), middleware.AuthMiddleware)

	cart := api.Group("/cart", middleware.AuthMiddleware)
	cart.Get("", "cart.show", ctx.Wrap(h.Cart.Show))
	cart.Post("", "cart.add", ctx.Wrap(h.Cart.Add))
	cart.Put("/{productId}", "cart.update", ctx.Wrap(h.Cart.Update))
	cart.Delete("/{productId}", "cart.remove", ctx.Wrap(h.Cart.Remove))
	cart.Delete("", "cart.clear", ctx.Wrap(h.Cart.Clear))

	orders := api.Group("/orders", middleware.AuthMiddleware)
	orders.Post("", "orders.store", ctx.Wrap(h.Orders.Store))
	orders.Get("/myorders", "orders.mine", ctx.Wrap(h.Orders.Mine))
	orders.Get("/feed", "orders.feed", ctx.Wrap(h.Orders.Feed))
	orders.Get("", "orders.index", ctx.Wrap(h.Orders.Index), rbac.Admin)
	orders.Get("/{id}", "orders.show", ctx.Wrap(h.Orders.Show))
	orders.Put("/{id}/pay", "orders.pay", ctx.Wrap(h.Orders.Pay))
	orders.Put("/{id}/deliver", "orders.deliver", ctx.Wrap(h.Orders.Deliver), rbac.Admin)

	if h.GraphQL != nil {
		api.Post("/graphql", "graphql", h.GraphQL.ServeHTTP)
	}
}
