package services

import (
	"EstateMarket/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session identifies the caller of a service operation. The auth middleware
// builds it from the stored user the bearer token points at, and handlers
// pass it explicitly.
type Session struct {
	UserID primitive.ObjectID
	Email  string
	Role   models.Role
	Fraud  bool
}

// SessionFor describes a stored user as a caller.
func SessionFor(user models.User) Session {
	return Session{UserID: user.ID, Email: user.Email, Role: user.Role, Fraud: user.Fraud}
}

func Guest() Session {
	return Session{Role: models.RoleGuest}
}

func (s Session) Authenticated() bool {
	return s.Role != models.RoleGuest && s.Role != "" && s.Email != ""
}

func (s Session) Is(role models.Role) bool {
	return s.Authenticated() && s.Role == role
}

// OwnsOrAdmin reports whether the caller is the given email or an admin.
func (s Session) OwnsOrAdmin(email string) bool {
	return s.Authenticated() && (s.Email == email || s.Role == models.RoleAdmin)
}

func (s Session) require(roles ...models.Role) error {
	if !s.Authenticated() {
		return ErrUnauthenticated
	}
	for _, role := range roles {
		if s.Role == role {
			return nil
		}
	}
	return ErrForbidden
}
