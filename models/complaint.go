package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status enum
type Status string

const (
	StatusSubmitted    Status = "submitted"
	StatusAcknowledged Status = "acknowledged"
	StatusInProgress   Status = "in_progress"
	StatusResolved     Status = "resolved"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusSubmitted, StatusAcknowledged, StatusInProgress, StatusResolved}

func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusAcknowledged, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// Priority buckets. HighPriorityThreshold is the single cut-off used by the
// dashboard and by analytics.
const (
	HighPriorityThreshold   = 70.0
	MediumPriorityThreshold = 40.0
)

type PriorityBucket string

const (
	PriorityHigh   PriorityBucket = "high"
	PriorityMedium PriorityBucket = "medium"
	PriorityLow    PriorityBucket = "low"
)

func BucketFor(score float64) PriorityBucket {
	switch {
	case score >= HighPriorityThreshold:
		return PriorityHigh
	case score >= MediumPriorityThreshold:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Complaint represents a civic issue reported by a citizen
type Complaint struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReportedBy    primitive.ObjectID `bson:"reportedBy" json:"reportedBy"`
	Description   string             `bson:"description" json:"description"`
	ImageURL      string             `bson:"imageUrl" json:"imageUrl"`
	Location      Location           `bson:"location" json:"location"`
	WardID        primitive.ObjectID `bson:"wardId" json:"wardId"`
	Status        Status             `bson:"status" json:"status"`
	AICategory    string             `bson:"aiCategory" json:"aiCategory"`
	AISeverity    string             `bson:"aiSeverity" json:"aiSeverity"`
	PriorityScore float64            `bson:"priorityScore" json:"priorityScore"`
	UpvoteCount   int64              `bson:"upvoteCount" json:"upvoteCount"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
	ResolvedAt    *time.Time         `bson:"resolvedAt" json:"resolvedAt"`
}

// MapPin is the public projection used by the all-complaints map.
type MapPin struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	Location      Location           `bson:"location" json:"location"`
	PriorityScore float64            `bson:"priorityScore" json:"priorityScore"`
	AICategory    string             `bson:"aiCategory" json:"aiCategory"`
	Status        Status             `bson:"status" json:"status"`
}

func (c Complaint) Pin() MapPin {
	return MapPin{
		ID:            c.ID,
		Location:      c.Location,
		PriorityScore: c.PriorityScore,
		AICategory:    c.AICategory,
		Status:        c.Status,
	}
}
