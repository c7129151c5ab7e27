package store

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"wardsync/models"
)

func (m *Mongo) CreateWard(ctx context.Context, ward *models.Ward) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if ward.ID.IsZero() {
		ward.ID = primitive.NewObjectID()
	}
	if ward.AdminUserIDs == nil {
		ward.AdminUserIDs = []primitive.ObjectID{}
	}
	if _, err := m.wards.InsertOne(ctx, ward); err != nil {
		return fmt.Errorf("insert ward: %w", invalidGeometry(err))
	}
	return nil
}

func (m *Mongo) FindWardByID(ctx context.Context, id primitive.ObjectID) (*models.Ward, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var ward models.Ward
	if err := m.wards.FindOne(ctx, bson.M{"_id": id}).Decode(&ward); err != nil {
		return nil, notFound(err)
	}
	return &ward, nil
}

// FindWardContaining delegates the containment test to the 2dsphere index.
// ObjectIDs grow with creation time, so sorting on _id makes the oldest of
// several overlapping wards win.
func (m *Mongo) FindWardContaining(ctx context.Context, lng, lat float64) (*models.Ward, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	filter := bson.M{
		"boundary": bson.M{
			"$geoIntersects": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": bson.A{lng, lat},
				},
			},
		},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})

	var ward models.Ward
	if err := m.wards.FindOne(ctx, filter, opts).Decode(&ward); err != nil {
		return nil, notFound(err)
	}
	return &ward, nil
}

func (m *Mongo) ListWards(ctx context.Context, city string) ([]models.Ward, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	filter := bson.M{}
	if city != "" {
		filter["city"] = bson.M{"$regex": "^" + regexp.QuoteMeta(city) + "$", "$options": "i"}
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := m.wards.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find wards: %w", err)
	}
	defer cursor.Close(ctx)

	wards := []models.Ward{}
	if err := cursor.All(ctx, &wards); err != nil {
		return nil, fmt.Errorf("decode wards: %w", err)
	}
	return wards, nil
}

func (m *Mongo) ListCities(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	values, err := m.wards.Distinct(ctx, "city", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("distinct cities: %w", err)
	}
	cities := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			cities = append(cities, s)
		}
	}
	sort.Strings(cities)
	return cities, nil
}

func (m *Mongo) AddWardAdmin(ctx context.Context, wardID, userID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	res, err := m.wards.UpdateOne(ctx,
		bson.M{"_id": wardID},
		bson.M{"$addToSet": bson.M{"adminUserIds": userID}},
	)
	if err != nil {
		return fmt.Errorf("add ward admin: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
