package migration

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

type memStore struct {
	recs map[string]Record
}

func (s *memStore) Applied(context.Context) ([]Record, error) {
	var out []Record
	for _, r := range s.recs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) Insert(_ context.Context, r Record) error {
	s.recs[r.Name] = r
	return nil
}

func (s *memStore) Delete(_ context.Context, name string) error {
	delete(s.recs, name)
	return nil
}

type step struct {
	name string
	log  *[]string
	fail bool
}

func (s step) Up(context.Context, *mongo.Database) error {
	if s.fail {
		return errors.New("index build failed")
	}
	*s.log = append(*s.log, "up "+s.name)
	return nil
}

func (s step) Down(context.Context, *mongo.Database) error {
	*s.log = append(*s.log, "down "+s.name)
	return nil
}

func newRunner(migs ...named) (*Runner, *memStore) {
	store := &memStore{recs: map[string]Record{}}
	r := NewWithStore(nil, store)
	r.list = func() []named {
		out := append([]named(nil), migs...)
		sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
		return out
	}
	return r, store
}

func TestRunAppliesPendingInOrderAsOneBatch(t *testing.T) {
	var log []string
	r, store := newRunner(
		named{"002_products", step{name: "002", log: &log}},
		named{"001_users", step{name: "001", log: &log}},
	)
	ctx := context.Background()

	ran, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_users", "002_products"}, ran)
	assert.Equal(t, []string{"up 001", "up 002"}, log)
	assert.Equal(t, 1, store.recs["002_products"].Batch)

	ran, err = r.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ran, "nothing left to run")
}

func TestRollbackUndoesOnlyLastBatch(t *testing.T) {
	var log []string
	first := named{"001_users", step{name: "001", log: &log}}
	r, store := newRunner(first)
	ctx := context.Background()

	_, err := r.Run(ctx)
	require.NoError(t, err)

	second := named{"002_products", step{name: "002", log: &log}}
	third := named{"003_orders", step{name: "003", log: &log}}
	r.list = func() []named { return []named{first, second, third} }
	_, err = r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.recs["003_orders"].Batch)

	log = nil
	rolled, err := r.Rollback(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"003_orders", "002_products"}, rolled)
	assert.Equal(t, []string{"down 003", "down 002"}, log)

	pending, err := r.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"002_products", "003_orders"}, pending)
}

func TestRunStopsAtFailure(t *testing.T) {
	var log []string
	r, store := newRunner(
		named{"001_users", step{name: "001", log: &log}},
		named{"002_broken", step{name: "002", log: &log, fail: true}},
		named{"003_orders", step{name: "003", log: &log}},
	)

	ran, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"001_users"}, ran)
	assert.NotContains(t, store.recs, "002_broken")
	assert.NotContains(t, store.recs, "003_orders")
}

func TestRollbackWithNothingApplied(t *testing.T) {
	r, _ := newRunner()
	rolled, err := r.Rollback(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rolled)
}

func TestStatusReportsBatches(t *testing.T) {
	var log []string
	r, _ := newRunner(named{"001_users", step{name: "001", log: &log}})
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	r.list = func() []named {
		return []named{{"001_users", step{log: &log}}, {"002_products", step{log: &log}}}
	}
	status, err := r.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Status{
		{Name: "001_users", Ran: true, Batch: 1},
		{Name: "002_products"},
	}, status)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	regMu.Lock()
	saved := registry
	registry = nil
	regMu.Unlock()
	defer func() {
		regMu.Lock()
		registry = saved
		regMu.Unlock()
	}()

	Register("001_x", step{})
	assert.Panics(t, func() { Register("001_x", step{}) })
}
