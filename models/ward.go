package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"wardsync/geo"
)

// Ward is a named administrative boundary inside a city. A ward without a
// boundary is never matched by location and only shows up on dashboards.
type Ward struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name         string               `bson:"name" json:"name"`
	City         string               `bson:"city" json:"city"`
	Boundary     *geo.Polygon         `bson:"boundary,omitempty" json:"boundary"`
	AdminUserIDs []primitive.ObjectID `bson:"adminUserIds" json:"adminUserIds"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
}
