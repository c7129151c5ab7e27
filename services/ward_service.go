package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"wardsync/apperrors"
	"wardsync/geo"
	"wardsync/models"
	"wardsync/store"
)

type CreateWardInput struct {
	Name     string       `json:"name"`
	City     string       `json:"city"`
	Boundary *geo.Polygon `json:"boundary,omitempty"`
}

// WardService is the ward registry.
type WardService struct {
	wards  store.WardStore
	now    func() time.Time
	logger *zap.Logger
}

func (s *WardService) CreateWard(ctx context.Context, sess models.Session, in CreateWardInput) (*models.Ward, error) {
	if sess.Role != models.RoleAuthority {
		return nil, apperrors.Permission("Only municipal authorities can create wards")
	}

	name, city := strings.TrimSpace(in.Name), strings.TrimSpace(in.City)
	if name == "" || city == "" {
		return nil, apperrors.Validation("Ward name and city are required")
	}
	if in.Boundary != nil {
		if err := in.Boundary.Validate(); err != nil {
			return nil, apperrors.Validation("%s", err.Error())
		}
	}

	ward := &models.Ward{
		Name:         name,
		City:         city,
		Boundary:     in.Boundary,
		AdminUserIDs: []primitive.ObjectID{},
		CreatedAt:    s.now(),
	}
	if err := s.wards.CreateWard(ctx, ward); err != nil {
		return nil, wardWriteError(err)
	}

	s.logger.Info("ward created",
		zap.String("ward_id", ward.ID.Hex()),
		zap.String("name", ward.Name),
		zap.String("city", ward.City),
		zap.Bool("has_boundary", ward.Boundary != nil),
		zap.String("created_by", sess.UserID.Hex()),
	)
	return ward, nil
}

// FindWardContaining returns the ward whose boundary holds the point. When
// boundaries overlap, the ward created first wins.
func (s *WardService) FindWardContaining(ctx context.Context, lat, lng float64) (*models.Ward, error) {
	ward, err := s.wards.FindWardContaining(ctx, lng, lat)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("ward")
		}
		return nil, apperrors.Internal(err)
	}
	return ward, nil
}

func (s *WardService) ListWards(ctx context.Context, city string) ([]models.Ward, error) {
	wards, err := s.wards.ListWards(ctx, strings.TrimSpace(city))
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return wards, nil
}

func (s *WardService) ListCities(ctx context.Context) ([]string, error) {
	cities, err := s.wards.ListCities(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return cities, nil
}

// Seed creates the given wards unless a ward with the same name already
// exists in that city. It bootstraps a deployment before any authority can
// sign up, so it runs without a session.
func (s *WardService) Seed(ctx context.Context, wards []CreateWardInput) (int, error) {
	created := 0
	for _, in := range wards {
		name, city := strings.TrimSpace(in.Name), strings.TrimSpace(in.City)
		if name == "" || city == "" {
			return created, apperrors.Validation("Ward name and city are required")
		}
		if in.Boundary != nil {
			if err := in.Boundary.Validate(); err != nil {
				return created, apperrors.Validation("ward %q: %s", name, err.Error())
			}
		}

		existing, err := s.wards.ListWards(ctx, city)
		if err != nil {
			return created, apperrors.Internal(err)
		}
		if hasWardNamed(existing, name) {
			continue
		}

		ward := &models.Ward{
			Name:         name,
			City:         city,
			Boundary:     in.Boundary,
			AdminUserIDs: []primitive.ObjectID{},
			CreatedAt:    s.now(),
		}
		if err := s.wards.CreateWard(ctx, ward); err != nil {
			return created, wardWriteError(err)
		}
		created++
	}
	if created > 0 {
		s.logger.Info("wards seeded", zap.Int("created", created))
	}
	return created, nil
}

func wardWriteError(err error) error {
	if errors.Is(err, store.ErrInvalidGeometry) {
		return apperrors.Validation("Ward boundary is not a valid polygon")
	}
	return apperrors.Internal(err)
}

func hasWardNamed(wards []models.Ward, name string) bool {
	for _, w := range wards {
		if strings.EqualFold(w.Name, name) {
			return true
		}
	}
	return false
}
