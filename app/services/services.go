// Package services holds the storefront's use cases. Services take
// repositories and collaborators as interfaces and return *apperr.Error
// values the HTTP layer maps to status codes. Inputs arrive validated by
// the binding layer.
package services

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rasmogul/greatsoko/pkg/apperr"
	"github.com/Rasmogul/greatsoko/pkg/auth"
)

// Actor is the authenticated caller of a use case.
type Actor struct {
	ID    primitive.ObjectID
	Admin bool
}

// ActorFrom converts verified token claims. Malformed subjects are
// Unauthorized.
func ActorFrom(c *auth.Claims) (Actor, error) {
	if c == nil {
		return Actor{}, apperr.Unauthorized("Not authorized, no token")
	}
	id, err := primitive.ObjectIDFromHex(c.UserID)
	if err != nil {
		return Actor{}, apperr.Unauthorized("Not authorized, token failed")
	}
	return Actor{ID: id, Admin: c.IsAdmin()}, nil
}

// parseID turns a path id into an ObjectID. An id that cannot exist is
// reported as missing.
func parseID(hex, notFound string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperr.NotFound("%s", notFound)
	}
	return id, nil
}
