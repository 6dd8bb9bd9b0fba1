package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/orders/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(RequestTotal.WithLabelValues("GET", "/api/orders/{id}", "404"))
	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/orders/"+id, nil))
	}
	after := testutil.ToFloat64(RequestTotal.WithLabelValues("GET", "/api/orders/{id}", "404"))

	assert.Equal(t, 3.0, after-before)
}

func TestDomainRecorders(t *testing.T) {
	before := testutil.ToFloat64(CheckoutTotal.WithLabelValues("ok", "cart"))
	RecordCheckout("ok", "cart", time.Now())
	assert.Equal(t, before+1, testutil.ToFloat64(CheckoutTotal.WithLabelValues("ok", "cart")))

	failed := testutil.ToFloat64(NotificationsTotal.WithLabelValues("mail", "failed"))
	RecordNotification("mail", errors.New("smtp down"))
	assert.Equal(t, failed+1, testutil.ToFloat64(NotificationsTotal.WithLabelValues("mail", "failed")))
}

func TestHandlerServesRegistry(t *testing.T) {
	RecordCheckout("insufficient_stock", "items", time.Now())

	rec := httptest.NewRecorder()
	Handler()(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "greatsoko_checkout_attempts_total")
}
