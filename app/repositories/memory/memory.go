// Package memory implements the repositories in process memory with the same
// conditional-update semantics as the MongoDB ones. Services and handlers are
// tested against it.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rasmogul/greatsoko/app/models"
	"github.com/Rasmogul/greatsoko/app/repositories"
	"github.com/Rasmogul/greatsoko/pkg/apperr"
	"github.com/Rasmogul/greatsoko/pkg/collection"
)

// Store holds every collection behind one lock.
type Store struct {
	mu       sync.Mutex
	users    map[primitive.ObjectID]models.User
	products map[primitive.ObjectID]models.Product
	carts    map[primitive.ObjectID]models.Cart // by user
	orders   map[primitive.ObjectID]models.Order

	// Fail, when set, is consulted before each write; a non-nil result is
	// returned instead of performing it. Keys look like "orders.Create".
	Fail func(op string) error
}

func New() *Store {
	return &Store{
		users:    map[primitive.ObjectID]models.User{},
		products: map[primitive.ObjectID]models.Product{},
		carts:    map[primitive.ObjectID]models.Cart{},
		orders:   map[primitive.ObjectID]models.Order{},
	}
}

func (s *Store) fail(op string) error {
	if s.Fail == nil {
		return nil
	}
	return s.Fail(op)
}

func (s *Store) Users() *Users       { return &Users{s} }
func (s *Store) Products() *Products { return &Products{s} }
func (s *Store) Carts() *Carts       { return &Carts{s} }
func (s *Store) Orders() *Orders     { return &Orders{s} }

var (
	_ repositories.UserRepository    = (*Users)(nil)
	_ repositories.ProductRepository = (*Products)(nil)
	_ repositories.CartRepository    = (*Carts)(nil)
	_ repositories.OrderRepository   = (*Orders)(nil)
)

// ─── Users ────────────────────────────────────────────────────────────────────

type Users struct{ s *Store }

func (r *Users) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.Create"); err != nil {
		return err
	}

	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return apperr.Conflict(repositories.MsgUserExists)
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.users[u.ID] = *u
	return nil
}

func (r *Users) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperr.NotFound(repositories.MsgUserNotFound)
	}
	return &u, nil
}

func (r *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperr.NotFound(repositories.MsgUserNotFound)
}

func (r *Users) List(context.Context) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	return collection.SortBy(out, func(a, b models.User) bool { return a.ID.Hex() < b.ID.Hex() }), nil
}

// ─── Products ─────────────────────────────────────────────────────────────────

type Products struct{ s *Store }

func cloneProduct(p models.Product) models.Product {
	p.Reviews = append([]models.Review{}, p.Reviews...)
	return p
}

func (r *Products) Create(_ context.Context, p *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("products.Create"); err != nil {
		return err
	}
	if r.skuTaken(p.SKU, p.ID) {
		return apperr.Conflict(repositories.MsgSKUExists)
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Reviews == nil {
		p.Reviews = []models.Review{}
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.products[p.ID] = cloneProduct(*p)
	return nil
}

func (r *Products) skuTaken(sku string, self primitive.ObjectID) bool {
	for id, p := range r.s.products {
		if id != self && p.SKU == sku {
			return true
		}
	}
	return false
}

func (r *Products) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, apperr.NotFound(repositories.MsgProductNotFound)
	}
	p = cloneProduct(p)
	return &p, nil
}

func (r *Products) sorted(less func(a, b models.Product) bool) []models.Product {
	out := make([]models.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		out = append(out, cloneProduct(p))
	}
	return collection.SortBy(out, less)
}

func byID(a, b models.Product) bool { return a.ID.Hex() < b.ID.Hex() }

func (r *Products) List(_ context.Context, keyword string, page, size int) ([]models.Product, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	kw := strings.ToLower(keyword)
	matched := collection.Filter(r.sorted(byID), func(p models.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), kw)
	})
	return collection.Paginate(matched, page, size), int64(len(matched)), nil
}

func (r *Products) Top(_ context.Context, n int) ([]models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := r.sorted(func(a, b models.Product) bool {
		if a.AverageRating != b.AverageRating {
			return a.AverageRating > b.AverageRating
		}
		return byID(a, b)
	})
	return collection.Take(all, n), nil
}

func (r *Products) Update(_ context.Context, p *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("products.Update"); err != nil {
		return err
	}
	cur, ok := r.s.products[p.ID]
	if !ok {
		return apperr.NotFound(repositories.MsgProductNotFound)
	}
	if r.skuTaken(p.SKU, p.ID) {
		return apperr.Conflict(repositories.MsgSKUExists)
	}
	p.UpdatedAt = time.Now().UTC()
	cur.Name, cur.SKU, cur.Category = p.Name, p.SKU, p.Category
	cur.Quantity, cur.Price, cur.Description = p.Quantity, p.Price, p.Description
	cur.Image, cur.Seller, cur.UpdatedAt = p.Image, p.Seller, p.UpdatedAt
	r.s.products[p.ID] = cur
	return nil
}

func (r *Products) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("products.Delete"); err != nil {
		return err
	}
	if _, ok := r.s.products[id]; !ok {
		return apperr.NotFound(repositories.MsgProductNotFound)
	}
	delete(r.s.products, id)
	return nil
}

func (r *Products) DecrementStock(_ context.Context, id primitive.ObjectID, qty int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("products.DecrementStock"); err != nil {
		return err
	}
	p, ok := r.s.products[id]
	if !ok || p.Quantity < qty {
		return apperr.InsufficientStock(repositories.MsgNotEnoughStock)
	}
	p.Quantity -= qty
	r.s.products[id] = p
	return nil
}

func (r *Products) IncrementStock(_ context.Context, id primitive.ObjectID, qty int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("products.IncrementStock"); err != nil {
		return err
	}
	p, ok := r.s.products[id]
	if !ok {
		return apperr.NotFound(repositories.MsgProductNotFound)
	}
	p.Quantity += qty
	r.s.products[id] = p
	return nil
}

func (r *Products) AddReview(_ context.Context, id primitive.ObjectID, rev models.Review) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("products.AddReview"); err != nil {
		return nil, err
	}
	p, ok := r.s.products[id]
	if !ok {
		return nil, apperr.NotFound(repositories.MsgProductNotFound)
	}
	if p.ReviewedBy(rev.User) {
		return nil, apperr.AlreadyReviewed(repositories.MsgAlreadyReviewed)
	}
	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = time.Now().UTC()
	}
	p = cloneProduct(p)
	p.Reviews = append(p.Reviews, rev)
	p.AverageRating = models.AverageRating(p.Reviews)
	p.NumReviews = len(p.Reviews)
	r.s.products[id] = p

	out := cloneProduct(p)
	return &out, nil
}

// ─── Carts ────────────────────────────────────────────────────────────────────

type Carts struct{ s *Store }

func (r *Carts) FindByUser(_ context.Context, user primitive.ObjectID) (*models.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.carts[user]
	if !ok {
		return nil, apperr.NotFound(repositories.MsgCartNotFound)
	}
	return c.Clone(), nil
}

func (r *Carts) Save(_ context.Context, c *models.Cart) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("carts.Save"); err != nil {
		return err
	}
	now := time.Now().UTC()
	if cur, ok := r.s.carts[c.User]; ok {
		c.ID, c.CreatedAt = cur.ID, cur.CreatedAt
	} else {
		c.ID, c.CreatedAt = primitive.NewObjectID(), now
	}
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	c.UpdatedAt = now
	r.s.carts[c.User] = *c.Clone()
	return nil
}

func (r *Carts) Clear(_ context.Context, user primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("carts.Clear"); err != nil {
		return err
	}
	c, ok := r.s.carts[user]
	if !ok {
		return apperr.NotFound(repositories.MsgCartNotFound)
	}
	c.Empty()
	r.s.carts[user] = c
	return nil
}

// ─── Orders ───────────────────────────────────────────────────────────────────

type Orders struct{ s *Store }

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}

func (r *Orders) Create(_ context.Context, o *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("orders.Create"); err != nil {
		return err
	}
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	r.s.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r *Orders) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("orders.Delete"); err != nil {
		return err
	}
	delete(r.s.orders, id)
	return nil
}

func (r *Orders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, apperr.NotFound(repositories.MsgOrderNotFound)
	}
	o = cloneOrder(o)
	return &o, nil
}

func (r *Orders) ListByUser(_ context.Context, user primitive.ObjectID) ([]models.Order, error) {
	return r.list(func(o models.Order) bool { return o.User == user }), nil
}

func (r *Orders) List(context.Context) ([]models.Order, error) {
	return r.list(func(models.Order) bool { return true }), nil
}

func (r *Orders) list(keep func(models.Order) bool) []models.Order {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]models.Order, 0, len(r.s.orders))
	for _, o := range r.s.orders {
		all = append(all, o)
	}
	kept := collection.Map(collection.Filter(all, keep), cloneOrder)
	return collection.SortBy(kept, func(a, b models.Order) bool { return a.ID.Hex() > b.ID.Hex() })
}

func (r *Orders) MarkPaid(_ context.Context, id primitive.ObjectID, res models.PaymentResult, at time.Time) (*models.Order, bool, error) {
	return r.transition(id, func(o *models.Order) bool {
		if o.IsPaid {
			return false
		}
		o.IsPaid, o.PaidAt, o.PaymentResult = true, &at, &res
		o.UpdatedAt = at
		return true
	})
}

func (r *Orders) MarkDelivered(_ context.Context, id primitive.ObjectID, at time.Time) (*models.Order, bool, error) {
	return r.transition(id, func(o *models.Order) bool {
		if o.IsDelivered {
			return false
		}
		o.IsDelivered, o.DeliveredAt = true, &at
		o.UpdatedAt = at
		return true
	})
}

func (r *Orders) transition(id primitive.ObjectID, apply func(o *models.Order) bool) (*models.Order, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, false, apperr.NotFound(repositories.MsgOrderNotFound)
	}
	changed := apply(&o)
	if changed {
		r.s.orders[id] = o
	}
	out := cloneOrder(o)
	return &out, changed, nil
}

// ─── Test helpers ─────────────────────────────────────────────────────────────

// Stock returns a product's quantity, or -1 when it does not exist.
func (s *Store) Stock(id primitive.ObjectID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return -1
	}
	return p.Quantity
}

// OrderCount returns the number of stored orders.
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}
