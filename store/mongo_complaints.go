package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"wardsync/models"
)

func (m *Mongo) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if _, err := m.complaints.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("insert complaint: %w", err)
	}
	return nil
}

func (m *Mongo) FindComplaintByID(ctx context.Context, id primitive.ObjectID) (*models.Complaint, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var c models.Complaint
	if err := m.complaints.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (m *Mongo) FindComplaints(ctx context.Context, filter ComplaintFilter, opts FindOptions) ([]models.Complaint, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	cursor, err := m.complaints.Find(ctx, complaintQuery(filter), findOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("find complaints: %w", err)
	}
	defer cursor.Close(ctx)

	complaints := []models.Complaint{}
	if err := cursor.All(ctx, &complaints); err != nil {
		return nil, fmt.Errorf("decode complaints: %w", err)
	}
	return complaints, nil
}

func (m *Mongo) FindPins(ctx context.Context, filter ComplaintFilter, opts FindOptions) ([]models.MapPin, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	projection := bson.M{
		"_id":           1,
		"location":      1,
		"priorityScore": 1,
		"aiCategory":    1,
		"status":        1,
	}
	cursor, err := m.complaints.Find(ctx, complaintQuery(filter), findOptions(opts).SetProjection(projection))
	if err != nil {
		return nil, fmt.Errorf("find complaint pins: %w", err)
	}
	defer cursor.Close(ctx)

	pins := []models.MapPin{}
	if err := cursor.All(ctx, &pins); err != nil {
		return nil, fmt.Errorf("decode complaint pins: %w", err)
	}
	return pins, nil
}

func (m *Mongo) CountComplaints(ctx context.Context, filter ComplaintFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	n, err := m.complaints.CountDocuments(ctx, complaintQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("count complaints: %w", err)
	}
	return n, nil
}

type groupCount struct {
	ID    string `bson:"_id"`
	Count int64  `bson:"count"`
}

type wardFacets struct {
	Categories []groupCount `bson:"categories"`
	Statuses   []groupCount `bson:"statuses"`
	Priority   []struct {
		High   int64 `bson:"high"`
		Medium int64 `bson:"medium"`
		Low    int64 `bson:"low"`
	} `bson:"priority"`
	Resolved []struct {
		Count   int64   `bson:"count"`
		TotalMs float64 `bson:"totalMs"`
	} `bson:"resolved"`
}

// WardTotals gathers every analytics count for a ward in a single $facet pass.
func (m *Mongo) WardTotals(ctx context.Context, wardID primitive.ObjectID) (*models.WardTotals, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	score := "$priorityScore"
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"wardId": wardID}}},
		{{Key: "$facet", Value: bson.M{
			"categories": bson.A{
				bson.M{"$group": bson.M{"_id": "$aiCategory", "count": bson.M{"$sum": 1}}},
			},
			"statuses": bson.A{
				bson.M{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
			},
			"priority": bson.A{
				bson.M{"$group": bson.M{
					"_id": nil,
					"high": bson.M{"$sum": bson.M{"$cond": bson.A{
						bson.M{"$gte": bson.A{score, models.HighPriorityThreshold}}, 1, 0,
					}}},
					"medium": bson.M{"$sum": bson.M{"$cond": bson.A{
						bson.M{"$and": bson.A{
							bson.M{"$gte": bson.A{score, models.MediumPriorityThreshold}},
							bson.M{"$lt": bson.A{score, models.HighPriorityThreshold}},
						}}, 1, 0,
					}}},
					"low": bson.M{"$sum": bson.M{"$cond": bson.A{
						bson.M{"$lt": bson.A{score, models.MediumPriorityThreshold}}, 1, 0,
					}}},
				}},
			},
			"resolved": bson.A{
				bson.M{"$match": bson.M{"status": models.StatusResolved}},
				bson.M{"$group": bson.M{
					"_id":     nil,
					"count":   bson.M{"$sum": 1},
					"totalMs": bson.M{"$sum": bson.M{"$subtract": bson.A{"$updatedAt", "$createdAt"}}},
				}},
			},
		}}},
	}

	cursor, err := m.complaints.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate ward totals: %w", err)
	}
	defer cursor.Close(ctx)

	var facets []wardFacets
	if err := cursor.All(ctx, &facets); err != nil {
		return nil, fmt.Errorf("decode ward totals: %w", err)
	}

	totals := &models.WardTotals{
		Categories: make(map[string]int64),
		Statuses:   make(map[models.Status]int64),
	}
	if len(facets) == 0 {
		return totals, nil
	}
	f := facets[0]
	for _, g := range f.Categories {
		totals.Categories[g.ID] = g.Count
	}
	for _, g := range f.Statuses {
		totals.Statuses[models.Status(g.ID)] = g.Count
	}
	if len(f.Priority) > 0 {
		totals.Priority = models.PriorityCounts{High: f.Priority[0].High, Medium: f.Priority[0].Medium, Low: f.Priority[0].Low}
	}
	if len(f.Resolved) > 0 {
		totals.ResolvedCount = f.Resolved[0].Count
		totals.ResolutionDaysTotal = f.Resolved[0].TotalMs / float64(24*time.Hour/time.Millisecond)
	}
	return totals, nil
}

func (m *Mongo) UpdateStatus(ctx context.Context, id, wardID primitive.ObjectID, status models.Status, now time.Time) (*models.Complaint, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var resolvedAt *time.Time
	if status == models.StatusResolved {
		resolvedAt = &now
	}
	filter := bson.M{
		"_id":    id,
		"wardId": wardID,
		"status": bson.M{"$ne": models.StatusResolved},
	}
	update := bson.M{"$set": bson.M{
		"status":     status,
		"updatedAt":  now,
		"resolvedAt": resolvedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Complaint
	err := m.complaints.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update complaint status: %w", err)
	}

	n, err := m.complaints.CountDocuments(ctx, bson.M{"_id": id, "wardId": wardID})
	if err != nil {
		return nil, fmt.Errorf("check complaint: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return nil, ErrInvalidState
}

func (m *Mongo) DeleteSubmitted(ctx context.Context, id, reporterID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	return m.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := m.complaints.DeleteOne(sc, bson.M{
			"_id":        id,
			"reportedBy": reporterID,
			"status":     models.StatusSubmitted,
		})
		if err != nil {
			return fmt.Errorf("delete complaint: %w", err)
		}
		if res.DeletedCount == 0 {
			n, err := m.complaints.CountDocuments(sc, bson.M{"_id": id})
			if err != nil {
				return fmt.Errorf("check complaint: %w", err)
			}
			if n == 0 {
				return ErrNotFound
			}
			return ErrInvalidState
		}
		if _, err := m.votes.DeleteMany(sc, bson.M{"complaintId": id}); err != nil {
			return fmt.Errorf("delete complaint votes: %w", err)
		}
		return nil
	})
}

func (m *Mongo) AddVote(ctx context.Context, vote *models.Vote) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if vote.ID.IsZero() {
		vote.ID = primitive.NewObjectID()
	}
	var count int64
	err := m.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := m.votes.InsertOne(sc, vote); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("insert vote: %w", err)
		}
		c, err := m.incrementUpvotes(sc, vote.ComplaintID, 1)
		if err != nil {
			return err
		}
		count = c
		return nil
	})
	return count, err
}

func (m *Mongo) RemoveVote(ctx context.Context, complaintID, userID primitive.ObjectID) (int64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var (
		count   int64
		removed bool
	)
	err := m.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := m.votes.DeleteOne(sc, bson.M{"complaintId": complaintID, "userId": userID})
		if err != nil {
			return fmt.Errorf("delete vote: %w", err)
		}
		removed = res.DeletedCount > 0
		delta := int64(0)
		if removed {
			delta = -1
		}
		c, err := m.incrementUpvotes(sc, complaintID, delta)
		if err != nil {
			return err
		}
		count = c
		return nil
	})
	return count, removed, err
}

// incrementUpvotes also serves as the existence check inside vote transactions:
// a missing complaint aborts the transaction with ErrNotFound.
func (m *Mongo) incrementUpvotes(sc mongo.SessionContext, complaintID primitive.ObjectID, delta int64) (int64, error) {
	var c struct {
		UpvoteCount int64 `bson:"upvoteCount"`
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"upvoteCount": 1})
	err := m.complaints.FindOneAndUpdate(sc,
		bson.M{"_id": complaintID},
		bson.M{"$inc": bson.M{"upvoteCount": delta}},
		opts,
	).Decode(&c)
	if err != nil {
		return 0, notFound(err)
	}
	return c.UpvoteCount, nil
}

func (m *Mongo) VotedComplaintIDs(ctx context.Context, userID primitive.ObjectID, complaintIDs []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	voted := make(map[primitive.ObjectID]bool)
	if len(complaintIDs) == 0 {
		return voted, nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	cursor, err := m.votes.Find(ctx,
		bson.M{"userId": userID, "complaintId": bson.M{"$in": complaintIDs}},
		options.Find().SetProjection(bson.M{"complaintId": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("find votes: %w", err)
	}
	defer cursor.Close(ctx)

	var votes []models.Vote
	if err := cursor.All(ctx, &votes); err != nil {
		return nil, fmt.Errorf("decode votes: %w", err)
	}
	for _, v := range votes {
		voted[v.ComplaintID] = true
	}
	return voted, nil
}

func complaintQuery(f ComplaintFilter) bson.M {
	q := bson.M{}
	if f.WardID != nil {
		q["wardId"] = *f.WardID
	}
	if f.ReportedBy != nil {
		q["reportedBy"] = *f.ReportedBy
	}
	switch {
	case f.Status != "" && f.ExcludeStatus != "":
		q["status"] = bson.M{"$eq": f.Status, "$ne": f.ExcludeStatus}
	case f.Status != "":
		q["status"] = f.Status
	case f.ExcludeStatus != "":
		q["status"] = bson.M{"$ne": f.ExcludeStatus}
	}
	if f.Category != "" {
		q["aiCategory"] = f.Category
	}
	if f.Severity != "" {
		q["aiSeverity"] = f.Severity
	}
	if f.MinPriority != nil {
		q["priorityScore"] = bson.M{"$gte": *f.MinPriority}
	}
	if f.ResolvedSince != nil {
		q["resolvedAt"] = bson.M{"$gte": *f.ResolvedSince}
	}
	return q
}

func sortFor(order SortOrder) bson.D {
	switch order {
	case SortNewest:
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	case SortUpvotes:
		return bson.D{{Key: "upvoteCount", Value: -1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	default:
		return bson.D{{Key: "priorityScore", Value: -1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	}
}

func findOptions(opts FindOptions) *options.FindOptions {
	o := options.Find().SetSort(sortFor(opts.Sort))
	if opts.Limit > 0 {
		o.SetLimit(opts.Limit)
	}
	return o
}
