// Package rbac gates routes by the role carried in the verified token.
// It must run after middleware.AuthMiddleware.
package rbac

import (
	"net/http"

	"github.com/Rasmogul/greatsoko/pkg/auth"
	"github.com/Rasmogul/greatsoko/pkg/middleware"
	"github.com/Rasmogul/greatsoko/pkg/response"
)

// HasRole allows only users whose role is one of roles.
func HasRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := middleware.RoleFromCtx(r)
			if !ok {
				response.Unauthorized(w, "Not authorized, no token")
				return
			}
			if !allowed[role] {
				response.Error(w, http.StatusForbidden, "Not authorized as an admin")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Admin is HasRole(auth.RoleAdmin).
func Admin(next http.Handler) http.Handler {
	return HasRole(auth.RoleAdmin)(next)
}
