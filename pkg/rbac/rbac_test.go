package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Rasmogul/greatsoko/pkg/auth"
)

func serve(claims *auth.Claims) int {
	h := Admin(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))
	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	if claims != nil {
		req = req.WithContext(auth.WithClaims(req.Context(), claims))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestAdminGate(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, serve(nil))
	assert.Equal(t, http.StatusForbidden, serve(&auth.Claims{UserID: "u1", Role: auth.RoleUser}))
	assert.Equal(t, http.StatusOK, serve(&auth.Claims{UserID: "u2", Role: auth.RoleAdmin}))
}
