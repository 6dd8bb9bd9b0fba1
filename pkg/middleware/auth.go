package middleware

import (
	"net/http"
	"strings"

	"github.com/Rasmogul/greatsoko/pkg/auth"
	"github.com/Rasmogul/greatsoko/pkg/response"
)

// AuthMiddleware rejects requests without a valid bearer token and stores
// the verified claims in the request context. Browsers cannot set headers on
// a WebSocket handshake, so a "token" query parameter is accepted too.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			response.Unauthorized(w, "Not authorized, no token")
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Unauthorized(w, "Not authorized, token failed")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// UserIDFromCtx returns the authenticated user's id.
func UserIDFromCtx(r *http.Request) (string, bool) {
	c, ok := auth.FromCtx(r.Context())
	if !ok {
		return "", false
	}
	return c.UserID, true
}

// RoleFromCtx returns the authenticated user's role.
func RoleFromCtx(r *http.Request) (string, bool) {
	c, ok := auth.FromCtx(r.Context())
	if !ok {
		return "", false
	}
	return c.Role, true
}
