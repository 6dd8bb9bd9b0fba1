package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Rasmogul/greatsoko/pkg/apperr"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.InvalidRequest("no order items"), http.StatusBadRequest},
		{apperr.NotFound("order not found"), http.StatusNotFound},
		{apperr.InsufficientStock("not enough stock for product: %s", "Lens"), http.StatusBadRequest},
		{apperr.Unauthorized("not authorized to view this order"), http.StatusUnauthorized},
		{apperr.AlreadyReviewed("product already reviewed"), http.StatusBadRequest},
		{apperr.Forbidden("admin only"), http.StatusForbidden},
		{apperr.Conflict("email already registered"), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, apperr.Status(tc.err), tc.err.Error())
	}
}

func TestWrappedErrorsKeepTheirKind(t *testing.T) {
	err := fmt.Errorf("checkout: %w", apperr.InsufficientStock("not enough stock for product: %s", "Tripod"))

	assert.True(t, errors.Is(err, apperr.ErrInsufficientStock))
	assert.False(t, errors.Is(err, apperr.ErrNotFound))
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
	assert.Equal(t, "not enough stock for product: Tripod", apperr.Message(err))
}

func TestInternalMessagesAreHidden(t *testing.T) {
	err := fmt.Errorf("mongo: %w", errors.New("connection refused"))
	assert.Equal(t, "Internal Server Error", apperr.Message(err))

	wrapped := apperr.Wrap(apperr.KindConflict, errors.New("E11000"), "sku already exists")
	assert.Equal(t, "sku already exists", apperr.Message(wrapped))
	assert.Contains(t, wrapped.Error(), "E11000")
}
