package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session is the authenticated caller. It is created from a verified token by
// the auth middleware and handed to every service call.
type Session struct {
	UserID    primitive.ObjectID
	Role      Role
	WardID    *primitive.ObjectID
	TokenID   string
	ExpiresAt time.Time
}

func (s Session) IsCitizen() bool {
	return s.Role == RoleCitizen
}

// IsWardAuthority reports whether the session belongs to an authority bound to a ward.
func (s Session) IsWardAuthority() bool {
	return s.Role == RoleAuthority && s.WardID != nil && !s.WardID.IsZero()
}
