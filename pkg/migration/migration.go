// Package migration runs versioned MongoDB schema changes, mostly index
// builds, and records them in the migrations collection.
//
//	func init() {
//	    migration.Register("20240101000000_create_users_indexes", &CreateUsersIndexes{})
//	}
//
//	greatsoko migrate             // run all pending
//	greatsoko migrate:rollback    // roll back the last batch
package migration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Rasmogul/greatsoko/pkg/logger"
	"github.com/Rasmogul/greatsoko/pkg/mongodb"
)

// Migration changes the database schema and can undo the change.
type Migration interface {
	Up(ctx context.Context, db *mongo.Database) error
	Down(ctx context.Context, db *mongo.Database) error
}

// Record is one applied migration.
type Record struct {
	Name  string    `bson:"name"`
	Batch int       `bson:"batch"`
	RunAt time.Time `bson:"runAt"`
}

// Store tracks applied migrations.
type Store interface {
	Applied(ctx context.Context) ([]Record, error)
	Insert(ctx context.Context, rec Record) error
	Delete(ctx context.Context, name string) error
}

type named struct {
	name string
	m    Migration
}

var (
	regMu    sync.Mutex
	registry []named
)

// Register adds a migration. Names are timestamp-prefixed and run in
// lexical order.
func Register(name string, m Migration) {
	regMu.Lock()
	defer regMu.Unlock()
	for _, r := range registry {
		if r.name == name {
			panic("migration: duplicate name " + name)
		}
	}
	registry = append(registry, named{name: name, m: m})
}

func registered() []named {
	regMu.Lock()
	defer regMu.Unlock()
	out := append([]named(nil), registry...)
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Runner applies registered migrations against one database.
type Runner struct {
	db    *mongo.Database
	store Store
	list  func() []named
}

// New tracks migrations in db's migrations collection.
func New(db *mongo.Database) *Runner {
	return NewWithStore(db, &mongoStore{col: db.Collection(mongodb.Migrations)})
}

func NewWithStore(db *mongo.Database, store Store) *Runner {
	return &Runner{db: db, store: store, list: registered}
}

// Status is a registered migration and whether it ran.
type Status struct {
	Name  string
	Ran   bool
	Batch int
}

// Pending lists migrations not yet applied.
func (r *Runner) Pending(ctx context.Context) ([]string, error) {
	status, err := r.Status(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, s := range status {
		if !s.Ran {
			out = append(out, s.Name)
		}
	}
	return out, nil
}

func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	applied, err := r.store.Applied(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration: load applied: %w", err)
	}
	ran := make(map[string]Record, len(applied))
	for _, rec := range applied {
		ran[rec.Name] = rec
	}

	var out []Status
	for _, reg := range r.list() {
		rec, ok := ran[reg.name]
		out = append(out, Status{Name: reg.name, Ran: ok, Batch: rec.Batch})
	}
	return out, nil
}

// Run applies pending migrations as one batch and returns their names.
func (r *Runner) Run(ctx context.Context) ([]string, error) {
	applied, err := r.store.Applied(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration: load applied: %w", err)
	}
	done := make(map[string]bool, len(applied))
	batch := 0
	for _, rec := range applied {
		done[rec.Name] = true
		batch = max(batch, rec.Batch)
	}
	batch++

	var ran []string
	for _, reg := range r.list() {
		if done[reg.name] {
			continue
		}
		logger.Info("migration: running", "name", reg.name, "batch", batch)
		if err := reg.m.Up(ctx, r.db); err != nil {
			return ran, fmt.Errorf("migration: %s up: %w", reg.name, err)
		}
		if err := r.store.Insert(ctx, Record{Name: reg.name, Batch: batch, RunAt: time.Now()}); err != nil {
			return ran, fmt.Errorf("migration: record %s: %w", reg.name, err)
		}
		ran = append(ran, reg.name)
	}
	return ran, nil
}

// Rollback reverses the most recent batch, newest first.
func (r *Runner) Rollback(ctx context.Context) ([]string, error) {
	applied, err := r.store.Applied(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration: load applied: %w", err)
	}
	last := 0
	for _, rec := range applied {
		last = max(last, rec.Batch)
	}
	if last == 0 {
		return nil, nil
	}

	var names []string
	for _, rec := range applied {
		if rec.Batch == last {
			names = append(names, rec.Name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	byName := make(map[string]Migration)
	for _, reg := range r.list() {
		byName[reg.name] = reg.m
	}

	var rolled []string
	for _, name := range names {
		m, ok := byName[name]
		if !ok {
			return rolled, fmt.Errorf("migration: cannot roll back %s: %w", name, ErrNotRegistered)
		}
		logger.Info("migration: rolling back", "name", name)
		if err := m.Down(ctx, r.db); err != nil {
			return rolled, fmt.Errorf("migration: %s down: %w", name, err)
		}
		if err := r.store.Delete(ctx, name); err != nil {
			return rolled, fmt.Errorf("migration: forget %s: %w", name, err)
		}
		rolled = append(rolled, name)
	}
	return rolled, nil
}

var ErrNotRegistered = errors.New("migration not registered")

type mongoStore struct {
	col *mongo.Collection
}

func (s *mongoStore) Applied(ctx context.Context) ([]Record, error) {
	cur, err := s.col.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *mongoStore) Insert(ctx context.Context, rec Record) error {
	_, err := s.col.InsertOne(ctx, rec)
	return err
}

func (s *mongoStore) Delete(ctx context.Context, name string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"name": name})
	return err
}
