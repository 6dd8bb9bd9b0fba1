package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account. Password holds the bcrypt hash and is never
// serialised to JSON.
type User struct {
	ID        primitive.ObjectID `json:"_id"       bson:"_id,omitempty"`
	Name      string             `json:"name"      bson:"name"`
	Email     string             `json:"email"     bson:"email"`
	Password  string             `json:"-"         bson:"password"`
	Role      string             `json:"role"      bson:"role"`
	Phone     string             `json:"phone"     bson:"phone,omitempty"`
	Address   string             `json:"address"   bson:"address,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
