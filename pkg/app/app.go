// Package app is the application container. Connect opens the backing
// stores, Build wires repositories, services, controllers and the HTTP
// kernel on top of them, and Serve runs everything until shutdown:
//
//	a, err := app.Boot(ctx)
//	if err != nil { ... }
//	defer a.Close()
//	return a.Serve(ctx)
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/Rasmogul/greatsoko/app/controllers"
	"github.com/Rasmogul/greatsoko/app/events"
	appgraphql "github.com/Rasmogul/greatsoko/app/graphql"
	"github.com/Rasmogul/greatsoko/app/repositories"
	"github.com/Rasmogul/greatsoko/app/routes"
	"github.com/Rasmogul/greatsoko/app/services"
	"github.com/Rasmogul/greatsoko/config"
	"github.com/Rasmogul/greatsoko/internal/kernel"
	"github.com/Rasmogul/greatsoko/pkg/cache"
	"github.com/Rasmogul/greatsoko/pkg/database"
	"github.com/Rasmogul/greatsoko/pkg/event"
	"github.com/Rasmogul/greatsoko/pkg/graphql"
	grpcsrv "github.com/Rasmogul/greatsoko/pkg/grpc"
	"github.com/Rasmogul/greatsoko/pkg/logger"
	"github.com/Rasmogul/greatsoko/pkg/middleware"
	"github.com/Rasmogul/greatsoko/pkg/mongodb"
	"github.com/Rasmogul/greatsoko/pkg/notification"
	"github.com/Rasmogul/greatsoko/pkg/queue"
	"github.com/Rasmogul/greatsoko/pkg/router"
	"github.com/Rasmogul/greatsoko/pkg/storage"
	"github.com/Rasmogul/greatsoko/pkg/ws"
)

// ProductImages is the blob directory for product images.
const ProductImages = "products"

// Services are the domain services, shared by HTTP, GraphQL and seeders.
type Services struct {
	Users    *services.UserService
	Products *services.ProductService
	Carts    *services.CartService
	Orders   *services.OrderService
}

// App holds every long-lived dependency.
type App struct {
	Mongo *mongo.Client
	DB    *mongo.Database
	Jobs  *gorm.DB // nil when the jobs database is unreachable

	Queue    *queue.Manager
	Bus      *event.Bus
	Hub      *ws.Hub
	Disk     storage.Disk
	Services Services
	Router   *router.Router
	Health   *grpcsrv.Server

	closers []func()
}

// Boot is Connect followed by Build.
func Boot(ctx context.Context) (*App, error) {
	a, err := Connect(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.Build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Connect loads configuration and opens MongoDB (required), Redis and the
// jobs database (both optional).
func Connect(ctx context.Context) (*App, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("app: config: %w", err)
	}

	client, err := mongodb.Connect(ctx, config.MongoURI())
	if err != nil {
		return nil, err
	}
	a := &App{Mongo: client, DB: client.Database(config.MongoDB())}
	a.onClose(func() { mongodb.Disconnect(client) })

	if config.LogToMongo() {
		a.onClose(logger.AttachMongo(a.DB.Collection(mongodb.Logs)))
	}

	if err := cache.Connect(ctx); err != nil {
		logger.Warn("app: redis unavailable, caching and shared rate limits disabled", "error", err)
	} else {
		a.onClose(cache.Close)
	}

	jobs, err := database.Open()
	if err != nil {
		logger.Warn("app: jobs database unavailable, failed jobs kept in memory", "error", err)
	} else {
		a.Jobs = jobs
		a.onClose(func() { _ = database.Close(jobs) })
	}

	return a, nil
}

// Build wires the domain on top of the connections.
func (a *App) Build(ctx context.Context) error {
	q, err := a.NewQueue(config.QueueDriver())
	if err != nil {
		return err
	}
	a.Queue = q

	disk, err := storage.Open(ctx)
	if err != nil {
		return fmt.Errorf("app: storage: %w", err)
	}
	a.Disk = disk

	a.Bus = event.New()
	a.Hub = ws.NewHub()
	events.RelayOrders(a.Bus, a.Hub)

	users := repositories.NewUserRepository(a.DB)
	products := repositories.NewProductRepository(a.DB)
	carts := repositories.NewCartRepository(a.DB)
	orders := repositories.NewOrderRepository(a.DB)

	a.Services = Services{
		Users:    services.NewUserService(users),
		Products: services.NewProductService(products, users, storage.NewBlobs(disk, ProductImages)),
		Carts:    services.NewCartService(carts, products),
		Orders: services.NewOrderService(services.OrderDeps{
			Orders:   orders,
			Products: products,
			Carts:    carts,
			Users:    users,
			Tx:       mongodb.NewTransactor(a.Mongo, config.MongoTransactions()),
			Notifier: notification.NewQueueNotifier(q),
			Bus:      a.Bus,
			AppURL:   config.AppURL(),
		}),
	}

	schema, err := appgraphql.Schema(a.Services.Products)
	if err != nil {
		return fmt.Errorf("app: graphql schema: %w", err)
	}

	opts := kernel.Options{
		Handlers: Handlers(a.Services, a.Hub),
		Limiter:  newLimiter(ctx),
	}
	opts.Handlers.GraphQL = graphql.Handler(schema)
	if local, ok := disk.(*storage.LocalDisk); ok {
		opts.Files = local.Handler(kernel.StoragePrefix)
	}
	a.Router = kernel.New(opts)

	a.Health = grpcsrv.New(func(ctx context.Context) error { return mongodb.Ping(ctx, a.Mongo) })
	return nil
}

// Handlers builds the controllers over s. feed may be nil outside serve.
func Handlers(s Services, feed *ws.Hub) routes.Handlers {
	return routes.Handlers{
		Users:    controllers.NewUserController(s.Users),
		Products: controllers.NewProductController(s.Products),
		Cart:     controllers.NewCartController(s.Carts),
		Orders:   controllers.NewOrderController(s.Orders, feed),
	}
}

// RouteTable lists the named routes without connecting to anything.
func RouteTable() []router.RouteInfo {
	h := Handlers(Services{}, nil)
	h.GraphQL = http.NotFoundHandler()
	return kernel.New(kernel.Options{Handlers: h}).Routes()
}

// NewQueue builds a queue manager on driver ("memory" or "redis") with the
// notification job registered. Redis falls back to memory when it is not
// connected.
func (a *App) NewQueue(driver string) (*queue.Manager, error) {
	var d queue.Driver
	switch driver {
	case "redis":
		if cache.RDB == nil {
			logger.Warn("app: QUEUE_DRIVER=redis but redis is unavailable, using memory queue")
			d = queue.NewMemoryDriver(1000)
		} else {
			d = queue.NewRedisDriver(cache.RDB)
		}
	case "memory", "":
		d = queue.NewMemoryDriver(1000)
	default:
		return nil, fmt.Errorf("app: unknown queue driver %q", driver)
	}

	q := queue.New(d, queue.Options{
		Workers: config.QueueWorkers(),
		Failed:  a.FailedStore(),
	})
	notification.RegisterJobs(q, notification.FromConfig())
	return q, nil
}

// FailedStore returns the jobs-database store, or an in-memory one.
func (a *App) FailedStore() queue.FailedStore {
	if a.Jobs != nil {
		store, err := queue.NewGormFailedStore(a.Jobs)
		if err == nil {
			return store
		}
		logger.Warn("app: failed jobs table unavailable", "error", err)
	}
	return queue.NewMemoryFailedStore()
}

func newLimiter(ctx context.Context) middleware.Limiter {
	perMinute := config.Int("RATE_LIMIT", 200)
	if perMinute <= 0 {
		return nil
	}
	mem := middleware.NewMemoryLimiter(ctx, perMinute, time.Minute)
	if cache.RDB == nil {
		return mem
	}
	return middleware.WithFallback(middleware.NewRedisLimiter(cache.RDB, perMinute, time.Minute), mem)
}

func (a *App) onClose(fn func()) { a.closers = append(a.closers, fn) }

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
