package ctx_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rasmogul/greatsoko/pkg/apperr"
	"github.com/Rasmogul/greatsoko/pkg/auth"
	appctx "github.com/Rasmogul/greatsoko/pkg/ctx"
)

type envelope struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestSuccessAndCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	appctx.Wrap(func(c *appctx.Context) {
		c.Created(map[string]any{"id": "o1"})
		assert.Equal(t, http.StatusCreated, c.WrittenStatus())
	})(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"o1"}`, string(decode(t, rec).Data))
}

func TestFailMapsKinds(t *testing.T) {
	cases := []struct {
		err     error
		code    int
		message string
	}{
		{apperr.NotFound("order not found"), http.StatusNotFound, "order not found"},
		{apperr.InsufficientStock("not enough stock for product: Lens"), http.StatusBadRequest, "not enough stock for product: Lens"},
		{errors.New("socket closed"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		appctx.Wrap(func(c *appctx.Context) { c.Fail(tc.err) })(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		env := decode(t, rec)
		assert.Equal(t, tc.code, rec.Code)
		assert.Equal(t, tc.code, env.Status)
		assert.Equal(t, tc.message, env.Message)
	}
}

func TestBindJSONWritesValidationErrors(t *testing.T) {
	type input struct {
		Quantity int `json:"quantity" validate:"required,gte=1"`
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"quantity":0}`))
	appctx.Wrap(func(c *appctx.Context) {
		var in input
		assert.False(t, c.BindJSON(&in))
	})(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode(t, rec).Errors, "quantity")
}

func TestParamQueryAndIdentity(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/orders/{id}", appctx.Wrap(func(c *appctx.Context) {
		assert.Equal(t, "abc", c.Param("id"))
		assert.Equal(t, 3, c.QueryInt("pageNumber", 1))
		assert.Equal(t, 1, c.QueryInt("missing", 1))
		assert.Equal(t, "u1", c.UserID())
		assert.True(t, c.IsAdmin())
		c.Success(nil)
	}))

	req := httptest.NewRequest(http.MethodGet, "/orders/abc?pageNumber=3", nil)
	req = req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{UserID: "u1", Role: auth.RoleAdmin}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnonymousRequestHasNoIdentity(t *testing.T) {
	rec := httptest.NewRecorder()
	appctx.Wrap(func(c *appctx.Context) {
		assert.Empty(t, c.UserID())
		assert.False(t, c.IsAdmin())
		assert.Nil(t, c.Claims())
		c.Message("ok")
	})(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "ok", decode(t, rec).Message)
}
