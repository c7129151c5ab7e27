package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection      = "users"
	wardsCollection      = "wards"
	complaintsCollection = "complaints"
	votesCollection      = "votes"

	defaultOpTimeout = 10 * time.Second
)

// Mongo is the MongoDB-backed Store. Vote and delete operations run in
// multi-document transactions, so the server must be a replica set.
type Mongo struct {
	client     *mongo.Client
	users      *mongo.Collection
	wards      *mongo.Collection
	complaints *mongo.Collection
	votes      *mongo.Collection
	timeout    time.Duration
}

func NewMongo(client *mongo.Client, db *mongo.Database) *Mongo {
	return &Mongo{
		client:     client,
		users:      db.Collection(usersCollection),
		wards:      db.Collection(wardsCollection),
		complaints: db.Collection(complaintsCollection),
		votes:      db.Collection(votesCollection),
		timeout:    defaultOpTimeout,
	}
}

// EnsureIndexes creates every index the store relies on. The unique vote
// index is what rejects concurrent duplicate upvotes.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	specs := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{m.users, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
		{m.wards, []mongo.IndexModel{
			{Keys: bson.D{{Key: "boundary", Value: "2dsphere"}}},
			{Keys: bson.D{{Key: "city", Value: 1}, {Key: "name", Value: 1}}},
		}},
		{m.complaints, []mongo.IndexModel{
			{Keys: bson.D{{Key: "wardId", Value: 1}, {Key: "priorityScore", Value: -1}}},
			{Keys: bson.D{{Key: "wardId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "reportedBy", Value: 1}, {Key: "createdAt", Value: -1}}},
		}},
		{m.votes, []mongo.IndexModel{
			{Keys: bson.D{{Key: "complaintId", Value: 1}, {Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		}},
	}
	for _, s := range specs {
		if _, err := s.coll.Indexes().CreateMany(ctx, s.models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", s.coll.Name(), err)
		}
	}
	return nil
}

// Health pings the primary.
func (m *Mongo) Health(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *Mongo) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// geoKeysErrorCode is the server error raised when a 2dsphere index cannot
// extract keys from a document, e.g. a self-intersecting polygon.
const geoKeysErrorCode = 16755

func invalidGeometry(err error) error {
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorCode(geoKeysErrorCode) {
		return fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	return err
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
