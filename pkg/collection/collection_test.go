package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapAndFilter(t *testing.T) {
	prices := []float64{10, 25, 3.5}

	cents := Map(prices, func(p float64) int { return int(p * 100) })
	assert.Equal(t, []int{1000, 2500, 350}, cents)

	cheap := Filter(prices, func(p float64) bool { return p < 20 })
	assert.Equal(t, []float64{10, 3.5}, cheap)

	assert.NotNil(t, Filter(prices, func(float64) bool { return false }))
	assert.NotNil(t, Map[int, int](nil, func(v int) int { return v }))
}

func TestSortByIsStableAndCopies(t *testing.T) {
	type line struct {
		name string
		qty  int
	}
	in := []line{{"a", 2}, {"b", 1}, {"c", 2}}

	out := SortBy(in, func(x, y line) bool { return x.qty > y.qty })

	assert.Equal(t, []line{{"a", 2}, {"c", 2}, {"b", 1}}, out)
	assert.Equal(t, "b", in[1].name, "input untouched")
}

func TestPaginate(t *testing.T) {
	s := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2}, Paginate(s, 1, 2))
	assert.Equal(t, []int{5}, Paginate(s, 3, 2))
	assert.Equal(t, []int{}, Paginate(s, 4, 2))
	assert.Equal(t, []int{1, 2}, Paginate(s, 0, 2), "page below one is the first page")

	page := Paginate(s, 1, 2)
	page[0] = 99
	assert.Equal(t, 1, s[0])
}

func TestTake(t *testing.T) {
	s := []string{"x", "y", "z"}
	assert.Equal(t, []string{"x", "y"}, Take(s, 2))
	assert.Equal(t, s, Take(s, 10))
	assert.Empty(t, Take(s, -1))
}
