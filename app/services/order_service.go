package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rasmogul/greatsoko/app/events"
	"github.com/Rasmogul/greatsoko/app/models"
	"github.com/Rasmogul/greatsoko/app/notifications"
	"github.com/Rasmogul/greatsoko/app/repositories"
	"github.com/Rasmogul/greatsoko/pkg/apperr"
	"github.com/Rasmogul/greatsoko/pkg/event"
	"github.com/Rasmogul/greatsoko/pkg/logger"
	"github.com/Rasmogul/greatsoko/pkg/metrics"
	"github.com/Rasmogul/greatsoko/pkg/mongodb"
	"github.com/Rasmogul/greatsoko/pkg/notification"
)

const msgNotYourOrder = "Not authorized to view this order"

type LineInput struct {
	Product  string `json:"product"  validate:"required,objectid"`
	Quantity int    `json:"quantity" validate:"required,gte=1"`
}

// CheckoutInput places an order. A missing items key checks out the cart;
// an empty list is rejected.
type CheckoutInput struct {
	Items           []LineInput            `json:"items"           validate:"nullable,dive"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress" validate:"dive"`
	PaymentMethod   string                 `json:"paymentMethod"   validate:"required,max=50"`
	TaxPrice        float64                `json:"taxPrice"        validate:"gte=0,cents"`
	ShippingPrice   float64                `json:"shippingPrice"   validate:"gte=0,cents"`
}

type Payer struct {
	EmailAddress string `json:"email_address" validate:"nullable,email"`
}

// PayInput is the confirmation a payment provider handed the client.
type PayInput struct {
	ID         string `json:"id"          validate:"required,max=100"`
	Status     string `json:"status"      validate:"required,max=50"`
	UpdateTime string `json:"update_time" validate:"nullable,max=50"`
	Payer      Payer  `json:"payer"       validate:"dive"`
}

// OrderDeps wires an OrderService.
type OrderDeps struct {
	Orders   repositories.OrderRepository
	Products repositories.ProductRepository
	Carts    repositories.CartRepository
	Users    repositories.UserRepository
	Tx       mongodb.Transactor
	Notifier notification.Notifier
	Bus      *event.Bus
	AppURL   string
}

type OrderService struct {
	orders   repositories.OrderRepository
	products repositories.ProductRepository
	carts    repositories.CartRepository
	users    repositories.UserRepository
	tx       mongodb.Transactor
	notifier notification.Notifier
	bus      *event.Bus
	appURL   string
	now      func() time.Time
}

func NewOrderService(d OrderDeps) *OrderService {
	tx := d.Tx
	if tx == nil {
		tx = mongodb.Direct{}
	}
	return &OrderService{
		orders:   d.Orders,
		products: d.Products,
		carts:    d.Carts,
		users:    d.Users,
		tx:       tx,
		notifier: d.Notifier,
		bus:      d.Bus,
		appURL:   d.AppURL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type line struct {
	product  primitive.ObjectID
	quantity int
}

// Checkout validates the items against the catalog, then creates the order,
// takes the stock and empties the cart as one unit of work. When the store
// cannot run transactions, completed steps are undone in reverse order on
// failure.
func (s *OrderService) Checkout(ctx context.Context, actor Actor, in CheckoutInput) (order *models.Order, err error) {
	start := time.Now()
	source := "items"
	if in.Items == nil {
		source = "cart"
	}
	defer func() { metrics.RecordCheckout(checkoutResult(err), source, start) }()

	lines, cart, err := s.resolve(ctx, actor, in)
	if err != nil {
		return nil, err
	}
	items, itemsPrice, err := s.price(ctx, lines)
	if err != nil {
		return nil, err
	}

	// Every stored amount is in whole cents and the total is derived from
	// the stored parts.
	tax, shipping := models.RoundCents(in.TaxPrice), models.RoundCents(in.ShippingPrice)
	order = &models.Order{
		User:            actor.ID,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		ItemsPrice:      itemsPrice,
		TaxPrice:        tax,
		ShippingPrice:   shipping,
		TotalPrice:      models.RoundCents(itemsPrice + tax + shipping),
	}

	var undo []func(context.Context) error
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		undo = undo[:0]

		if err := s.orders.Create(ctx, order); err != nil {
			return err
		}
		undo = append(undo, func(ctx context.Context) error { return s.orders.Delete(ctx, order.ID) })

		for _, it := range order.Items {
			if err := s.products.DecrementStock(ctx, it.Product, it.Quantity); err != nil {
				if errors.Is(err, apperr.ErrInsufficientStock) {
					metrics.StockRejections.Inc()
					return apperr.InsufficientStock("Not enough stock for product: %s", it.Name)
				}
				return err
			}
			undo = append(undo, func(ctx context.Context) error {
				return s.products.IncrementStock(ctx, it.Product, it.Quantity)
			})
		}

		if cart != nil {
			if err := s.carts.Clear(ctx, actor.ID); err != nil {
				return err
			}
			prev := cart.Clone()
			undo = append(undo, func(ctx context.Context) error { return s.carts.Save(ctx, prev) })
		}
		return nil
	})
	if err != nil {
		if !s.tx.Atomic() {
			s.compensate(ctx, undo)
		}
		return nil, err
	}

	logger.WithCtx(ctx).Info("order placed",
		"order_id", order.ID.Hex(), "user_id", actor.ID.Hex(), "total", order.TotalPrice, "source", source)

	s.notifyOwner(ctx, order.User, func(email string) notification.Notice {
		return notifications.OrderPlaced(email, order.ID.Hex(), s.appURL)
	})
	s.bus.FireAsync(ctx, events.OrderPlaced, events.NewOrder(events.OrderPlaced, order))
	return order, nil
}

// resolve returns the requested lines with duplicates merged. cart is set
// when the lines came from the actor's cart.
func (s *OrderService) resolve(ctx context.Context, actor Actor, in CheckoutInput) ([]line, *models.Cart, error) {
	if in.Items != nil {
		if len(in.Items) == 0 {
			return nil, nil, apperr.InvalidRequest("No order items")
		}
		var lines []line
		for _, it := range in.Items {
			id, err := primitive.ObjectIDFromHex(it.Product)
			if err != nil {
				return nil, nil, apperr.NotFound("Product not found: %s", it.Product)
			}
			lines = merge(lines, id, it.Quantity)
		}
		return lines, nil, nil
	}

	cart, err := s.carts.FindByUser(ctx, actor.ID)
	if errors.Is(err, apperr.ErrNotFound) || (err == nil && len(cart.Items) == 0) {
		return nil, nil, apperr.InvalidRequest("No items in cart")
	}
	if err != nil {
		return nil, nil, err
	}
	var lines []line
	for _, it := range cart.Items {
		lines = merge(lines, it.Product, it.Quantity)
	}
	return lines, cart, nil
}

func merge(lines []line, id primitive.ObjectID, qty int) []line {
	for i := range lines {
		if lines[i].product == id {
			lines[i].quantity += qty
			return lines
		}
	}
	return append(lines, line{product: id, quantity: qty})
}

// price snapshots each product at its cent price and checks it is in stock.
func (s *OrderService) price(ctx context.Context, lines []line) ([]models.OrderItem, float64, error) {
	items := make([]models.OrderItem, 0, len(lines))
	total := 0.0
	for _, l := range lines {
		p, err := s.products.FindByID(ctx, l.product)
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, 0, apperr.NotFound("Product not found: %s", l.product.Hex())
		}
		if err != nil {
			return nil, 0, err
		}
		if p.Quantity < l.quantity {
			return nil, 0, apperr.InsufficientStock("Not enough stock for product: %s", p.Name)
		}
		unit := models.RoundCents(p.Price)
		items = append(items, models.OrderItem{Product: p.ID, Name: p.Name, Quantity: l.quantity, Price: unit})
		total += float64(l.quantity) * unit
	}
	return items, models.RoundCents(total), nil
}

func (s *OrderService) compensate(ctx context.Context, undo []func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	log := logger.WithCtx(ctx)
	for i := len(undo) - 1; i >= 0; i-- {
		if err := undo[i](ctx); err != nil {
			metrics.Compensations.WithLabelValues("failed").Inc()
			log.Error("checkout: compensation failed", "step", i, "error", err)
			continue
		}
		metrics.Compensations.WithLabelValues("ok").Inc()
	}
}

func checkoutResult(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperr.KindOf(err))
}

// Get returns an order its owner or an admin may see.
func (s *OrderService) Get(ctx context.Context, actor Actor, id string) (*models.Order, error) {
	oid, err := parseID(id, repositories.MsgOrderNotFound)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if !o.OwnedBy(actor.ID) && !actor.Admin {
		return nil, apperr.Unauthorized(msgNotYourOrder)
	}
	return o, nil
}

func (s *OrderService) Mine(ctx context.Context, actor Actor) ([]models.Order, error) {
	return nonNil(s.orders.ListByUser(ctx, actor.ID))
}

func (s *OrderService) All(ctx context.Context) ([]models.Order, error) {
	return nonNil(s.orders.List(ctx))
}

func nonNil(orders []models.Order, err error) ([]models.Order, error) {
	if err == nil && orders == nil {
		orders = []models.Order{}
	}
	return orders, err
}

// Pay marks the order paid. Paying twice returns the order as it is and
// sends nothing.
func (s *OrderService) Pay(ctx context.Context, actor Actor, id string, in PayInput) (*models.Order, error) {
	cur, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	o, changed, err := s.orders.MarkPaid(ctx, cur.ID, models.PaymentResult{
		ID:           in.ID,
		Status:       in.Status,
		UpdateTime:   in.UpdateTime,
		EmailAddress: in.Payer.EmailAddress,
	}, s.now())
	if err != nil || !changed {
		return o, err
	}

	s.notifyOwner(ctx, o.User, func(email string) notification.Notice {
		return notifications.OrderPaid(email, o.ID.Hex())
	})
	s.bus.FireAsync(ctx, events.OrderPaid, events.NewOrder(events.OrderPaid, o))
	return o, nil
}

// Deliver marks the order delivered, once.
func (s *OrderService) Deliver(ctx context.Context, id string) (*models.Order, error) {
	oid, err := parseID(id, repositories.MsgOrderNotFound)
	if err != nil {
		return nil, err
	}
	o, changed, err := s.orders.MarkDelivered(ctx, oid, s.now())
	if err != nil || !changed {
		return o, err
	}

	s.notifyOwner(ctx, o.User, func(email string) notification.Notice {
		return notifications.OrderDelivered(email, o.ID.Hex())
	})
	s.bus.FireAsync(ctx, events.OrderDelivered, events.NewOrder(events.OrderDelivered, o))
	return o, nil
}

// notifyOwner looks up the owner's address and hands the notice off. Lookup
// failures are logged; they never fail the operation.
func (s *OrderService) notifyOwner(ctx context.Context, owner primitive.ObjectID, build func(email string) notification.Notice) {
	if s.notifier == nil {
		return
	}
	u, err := s.users.FindByID(ctx, owner)
	if err != nil {
		logger.WithCtx(ctx).Warn("orders: owner lookup failed, notification skipped", "user_id", owner.Hex(), "error", err)
		return
	}
	s.notifier.Notify(ctx, build(u.Email))
}
