package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rasmogul/greatsoko/app/models"
	"github.com/Rasmogul/greatsoko/pkg/apperr"
)

func TestGetWithoutCartIsEmpty(t *testing.T) {
	f := newFixture(t)
	c, err := f.carts.Get(context.Background(), f.alice)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.NotNil(t, c.Items)
	assert.Zero(t, c.TotalPrice)
}

func TestAddMergesLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lens := f.product(t, "Lens", 10, 5)
	bag := f.product(t, "Bag", 2.5, 5)

	f.fillCart(t, f.alice, lens, 2)
	f.fillCart(t, f.alice, bag, 1)
	c, err := f.carts.Add(ctx, f.alice, AddToCartInput{ProductID: lens.ID.Hex(), Quantity: 1})
	require.NoError(t, err)

	require.Len(t, c.Items, 2)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, "Lens", c.Items[0].Name)
	assert.Equal(t, 32.5, c.TotalPrice)
}

func TestAddChecksCumulativeStock(t *testing.T) {
	f := newFixture(t)
	lens := f.product(t, "Lens", 10, 3)
	f.fillCart(t, f.alice, lens, 2)

	_, err := f.carts.Add(context.Background(), f.alice, AddToCartInput{ProductID: lens.ID.Hex(), Quantity: 2})
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	_, err = f.carts.Add(context.Background(), f.alice, AddToCartInput{ProductID: "65a1b2c3d4e5f60718293a4b", Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lens := f.product(t, "Lens", 10, 3)
	bag := f.product(t, "Bag", 5, 3)

	_, err := f.carts.Update(ctx, f.alice, lens.ID.Hex(), UpdateCartInput{Quantity: 1})
	assert.EqualError(t, err, "Cart not found")

	f.fillCart(t, f.alice, lens, 1)
	c, err := f.carts.Update(ctx, f.alice, lens.ID.Hex(), UpdateCartInput{Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 30.0, c.TotalPrice)

	_, err = f.carts.Update(ctx, f.alice, lens.ID.Hex(), UpdateCartInput{Quantity: 4})
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	_, err = f.carts.Update(ctx, f.alice, bag.ID.Hex(), UpdateCartInput{Quantity: 1})
	assert.EqualError(t, err, "Item not found in cart")
}

func TestRemoveAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lens := f.product(t, "Lens", 10, 3)
	bag := f.product(t, "Bag", 5, 3)

	_, err := f.carts.Clear(ctx, f.bob)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	f.fillCart(t, f.alice, lens, 1)
	f.fillCart(t, f.alice, bag, 2)

	c, err := f.carts.Remove(ctx, f.alice, lens.ID.Hex())
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 10.0, c.TotalPrice)

	_, err = f.carts.Remove(ctx, f.alice, lens.ID.Hex())
	assert.EqualError(t, err, "Item not found in cart")

	c, err = f.carts.Clear(ctx, f.alice)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Zero(t, c.TotalPrice)
}

func TestConcurrentFirstAddsShareOneCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lens := f.product(t, "Lens", 10, 50)

	const n = 8
	var wg sync.WaitGroup
	carts := make([]*models.Cart, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := f.carts.Add(ctx, f.alice, AddToCartInput{ProductID: lens.ID.Hex(), Quantity: 1})
			assert.NoError(t, err)
			carts[i] = c
		}(i)
	}
	wg.Wait()

	stored, err := f.carts.Get(ctx, f.alice)
	require.NoError(t, err)
	for _, c := range carts {
		require.NotNil(t, c)
		assert.Equal(t, stored.ID, c.ID)
	}
}
