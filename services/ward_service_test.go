package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"wardsync/apperrors"
	"wardsync/geo"
	"wardsync/models"
	"wardsync/store"
)

// geometryRejectingStore fails every ward insert the way MongoDB does when
// the 2dsphere index cannot index the boundary.
type geometryRejectingStore struct {
	*store.Memory
}

func (geometryRejectingStore) CreateWard(context.Context, *models.Ward) error {
	return store.ErrInvalidGeometry
}

func (s *ServicesSuite) TestCreateWard() {
	s.Run("authority creates a ward", func() {
		w, err := s.svc.Wards.CreateWard(s.ctx, s.authority, CreateWardInput{
			Name: " Katra ", City: "Prayagraj",
			Boundary: geo.NewPolygon(
				[]float64{81.70, 25.30}, []float64{81.75, 25.30}, []float64{81.75, 25.35}, []float64{81.70, 25.30},
			),
		})
		s.Require().NoError(err)
		s.Equal("Katra", w.Name)
		s.True(w.CreatedAt.Equal(s.now))
		s.NotNil(w.AdminUserIDs)
	})

	s.Run("without boundary", func() {
		w, err := s.svc.Wards.CreateWard(s.ctx, s.authority, CreateWardInput{Name: "Naini", City: "Prayagraj"})
		s.Require().NoError(err)
		s.Nil(w.Boundary)
	})

	s.Run("citizens cannot create wards", func() {
		_, err := s.svc.Wards.CreateWard(s.ctx, s.citizen, CreateWardInput{Name: "X", City: "Y"})
		s.ErrorIs(err, apperrors.ErrPermission)
	})

	s.Run("name and city required", func() {
		_, err := s.svc.Wards.CreateWard(s.ctx, s.authority, CreateWardInput{Name: "  ", City: "Prayagraj"})
		s.ErrorIs(err, apperrors.ErrValidation)
	})

	s.Run("open ring rejected", func() {
		_, err := s.svc.Wards.CreateWard(s.ctx, s.authority, CreateWardInput{
			Name: "Open", City: "Prayagraj",
			Boundary: geo.NewPolygon(
				[]float64{81.70, 25.30}, []float64{81.75, 25.30}, []float64{81.75, 25.35}, []float64{81.71, 25.31},
			),
		})
		s.ErrorIs(err, apperrors.ErrValidation)
	})

	s.Run("self-intersecting boundary rejected", func() {
		_, err := s.svc.Wards.CreateWard(s.ctx, s.authority, CreateWardInput{
			Name: "Bowtie", City: "Prayagraj",
			Boundary: geo.NewPolygon(
				[]float64{81.70, 25.30}, []float64{81.75, 25.35}, []float64{81.75, 25.30}, []float64{81.70, 25.35}, []float64{81.70, 25.30},
			),
		})
		s.ErrorIs(err, apperrors.ErrValidation)

		_, err = s.svc.Wards.CreateWard(s.ctx, s.authority, CreateWardInput{
			Name: "Dot", City: "Prayagraj",
			Boundary: geo.NewPolygon(
				[]float64{81.70, 25.30}, []float64{81.70, 25.30}, []float64{81.70, 25.30}, []float64{81.70, 25.30},
			),
		})
		s.ErrorIs(err, apperrors.ErrValidation)
	})

	s.Run("lists", func() {
		wards, err := s.svc.Wards.ListWards(s.ctx, "PRAYAGRAJ")
		s.Require().NoError(err)
		s.Len(wards, 3)

		cities, err := s.svc.Wards.ListCities(s.ctx)
		s.Require().NoError(err)
		s.Equal([]string{"Prayagraj"}, cities)
	})
}

func (s *ServicesSuite) TestFindWardContaining() {
	w, err := s.svc.Wards.FindWardContaining(s.ctx, 25.45, 81.84)
	s.Require().NoError(err)
	s.Equal(s.civilLines.ID, w.ID)

	_, err = s.svc.Wards.FindWardContaining(s.ctx, 0, 0)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *ServicesSuite) TestSeedSkipsExisting() {
	n, err := s.svc.Wards.Seed(s.ctx, []CreateWardInput{
		{Name: "civil lines", City: "Prayagraj"},
		{Name: "Hazratganj", City: "Lucknow", Boundary: civilLinesBoundary()},
	})
	s.Require().NoError(err)
	s.Equal(1, n)

	n, err = s.svc.Wards.Seed(s.ctx, []CreateWardInput{{Name: "Hazratganj", City: "Lucknow"}})
	s.Require().NoError(err)
	s.Zero(n)

	_, err = s.svc.Wards.Seed(s.ctx, []CreateWardInput{{Name: "", City: "Lucknow"}})
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *ServicesSuite) TestStoreGeometryRejectionIsValidation() {
	wards := &WardService{
		wards:  geometryRejectingStore{s.store},
		now:    func() time.Time { return s.now },
		logger: zap.NewNop(),
	}

	_, err := wards.CreateWard(s.ctx, s.authority, CreateWardInput{Name: "Katra", City: "Prayagraj", Boundary: civilLinesBoundary()})
	s.ErrorIs(err, apperrors.ErrValidation)
	s.Equal("Ward boundary is not a valid polygon", apperrors.Message(err))

	_, err = wards.Seed(s.ctx, []CreateWardInput{{Name: "Hazratganj", City: "Lucknow", Boundary: civilLinesBoundary()}})
	s.ErrorIs(err, apperrors.ErrValidation)
}
