// Package store persists users, wards, complaints and votes. Every store
// returns the sentinels below (possibly wrapped); services translate them.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"wardsync/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicate       = errors.New("duplicate")
	ErrInvalidState    = errors.New("invalid state")
	// ErrInvalidGeometry means the database refused a ward boundary.
	ErrInvalidGeometry = errors.New("invalid geometry")
)

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type WardStore interface {
	CreateWard(ctx context.Context, ward *models.Ward) error
	FindWardByID(ctx context.Context, id primitive.ObjectID) (*models.Ward, error)
	// FindWardContaining returns the earliest-created ward whose boundary
	// contains (lng, lat).
	FindWardContaining(ctx context.Context, lng, lat float64) (*models.Ward, error)
	ListWards(ctx context.Context, city string) ([]models.Ward, error)
	ListCities(ctx context.Context) ([]string, error)
	AddWardAdmin(ctx context.Context, wardID, userID primitive.ObjectID) error
}

type SortOrder string

const (
	SortPriority SortOrder = "priority"
	SortNewest   SortOrder = "date"
	SortUpvotes  SortOrder = "upvotes"
)

func (s SortOrder) Valid() bool {
	return s == SortPriority || s == SortNewest || s == SortUpvotes
}

// ComplaintFilter narrows a complaint query. Zero fields do not filter.
type ComplaintFilter struct {
	WardID        *primitive.ObjectID
	ReportedBy    *primitive.ObjectID
	Status        models.Status
	ExcludeStatus models.Status
	Category      string
	Severity      string
	MinPriority   *float64
	ResolvedSince *time.Time
}

type FindOptions struct {
	Sort  SortOrder
	Limit int64
}

type ComplaintStore interface {
	CreateComplaint(ctx context.Context, c *models.Complaint) error
	FindComplaintByID(ctx context.Context, id primitive.ObjectID) (*models.Complaint, error)
	FindComplaints(ctx context.Context, filter ComplaintFilter, opts FindOptions) ([]models.Complaint, error)
	FindPins(ctx context.Context, filter ComplaintFilter, opts FindOptions) ([]models.MapPin, error)
	CountComplaints(ctx context.Context, filter ComplaintFilter) (int64, error)
	WardTotals(ctx context.Context, wardID primitive.ObjectID) (*models.WardTotals, error)

	// UpdateStatus changes the status of a non-resolved complaint in wardID.
	// ErrNotFound when no such complaint exists in the ward, ErrInvalidState
	// when it is already resolved.
	UpdateStatus(ctx context.Context, id, wardID primitive.ObjectID, status models.Status, now time.Time) (*models.Complaint, error)

	// DeleteSubmitted removes the complaint and its votes only if reporterID
	// reported it and it is still submitted. ErrNotFound when the id does not
	// exist, ErrInvalidState when the precondition fails.
	DeleteSubmitted(ctx context.Context, id, reporterID primitive.ObjectID) error

	// AddVote inserts the vote and increments upvoteCount atomically, returning
	// the new count. ErrDuplicate when the pair already voted.
	AddVote(ctx context.Context, vote *models.Vote) (int64, error)
	// RemoveVote deletes the vote if present and decrements upvoteCount
	// atomically. removed is false when there was nothing to delete.
	RemoveVote(ctx context.Context, complaintID, userID primitive.ObjectID) (count int64, removed bool, err error)
	VotedComplaintIDs(ctx context.Context, userID primitive.ObjectID, complaintIDs []primitive.ObjectID) (map[primitive.ObjectID]bool, error)
}

// Store bundles every port; both backends implement all of them.
type Store interface {
	UserStore
	WardStore
	ComplaintStore
}
