package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"wardsync/apperrors"
	"wardsync/classifier"
	"wardsync/models"
	"wardsync/store"
)

func (s *ServicesSuite) TestCreateComplaintAssignsWard() {
	s.classifier.push(classifier.Result{Category: "Sanitation", Severity: "medium", PriorityScore: 62})

	c, err := s.svc.Complaints.CreateComplaint(s.ctx, s.citizen, CreateComplaintInput{
		Description: "  Garbage not collected  ",
		ImageURL:    "https://img.example/garbage.jpg",
		Lat:         "25.45",
		Lng:         "81.84",
	})
	s.Require().NoError(err)

	s.Equal(s.civilLines.ID, c.WardID)
	s.Equal(models.StatusSubmitted, c.Status)
	s.Equal("Garbage not collected", c.Description)
	s.Equal("Sanitation", c.AICategory)
	s.Equal(62.0, c.PriorityScore)
	s.Zero(c.UpvoteCount)
	s.Nil(c.ResolvedAt)
	s.True(c.CreatedAt.Equal(s.now))

	stored, err := s.store.FindComplaintByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.Location{Lat: 25.45, Lng: 81.84}, stored.Location)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ComplaintsCreated.WithLabelValues("Sanitation")))
}

func (s *ServicesSuite) TestCreateComplaintRejections() {
	valid := CreateComplaintInput{
		Description: "Broken streetlight",
		ImageURL:    "https://img.example/light.jpg",
		Lat:         "25.45",
		Lng:         "81.84",
	}

	s.Run("authorities cannot report", func() {
		_, err := s.svc.Complaints.CreateComplaint(s.ctx, s.authority, valid)
		s.ErrorIs(err, apperrors.ErrPermission)
	})

	cases := map[string]func(in *CreateComplaintInput){
		"missing description": func(in *CreateComplaintInput) { in.Description = " " },
		"missing image":       func(in *CreateComplaintInput) { in.ImageURL = "" },
		"missing lat":         func(in *CreateComplaintInput) { in.Lat = "" },
		"non numeric lng":     func(in *CreateComplaintInput) { in.Lng = "east" },
		"lat out of range":    func(in *CreateComplaintInput) { in.Lat = "91" },
		"lng out of range":    func(in *CreateComplaintInput) { in.Lng = "-180.5" },
		"lat not finite":      func(in *CreateComplaintInput) { in.Lat = "NaN" },
	}
	for name, mutate := range cases {
		s.Run(name, func() {
			in := valid
			mutate(&in)
			_, err := s.svc.Complaints.CreateComplaint(s.ctx, s.citizen, in)
			s.ErrorIs(err, apperrors.ErrValidation)
		})
	}

	s.Run("no ward contains the point", func() {
		in := valid
		in.Lat, in.Lng = "0", "0"
		_, err := s.svc.Complaints.CreateComplaint(s.ctx, s.citizen, in)
		s.ErrorIs(err, apperrors.ErrNotFound)
		s.Equal("ward", apperrors.ResourceOf(err))

		n, err := s.store.CountComplaints(s.ctx, store.ComplaintFilter{})
		s.Require().NoError(err)
		s.Zero(n)
	})
}

func (s *ServicesSuite) TestCreateComplaintClampsScoreAndFallsBack() {
	s.classifier.push(classifier.Result{Category: "Water", Severity: "high", PriorityScore: 140})
	c, err := s.svc.Complaints.CreateComplaint(s.ctx, s.citizen, CreateComplaintInput{
		Description: "Main burst", ImageURL: "https://img.example/pipe.jpg", Lat: "25.41", Lng: "81.81",
	})
	s.Require().NoError(err)
	s.Equal(100.0, c.PriorityScore)

	s.classifier.push(classifier.Result{PriorityScore: -3})
	c, err = s.svc.Complaints.CreateComplaint(s.ctx, s.citizen, CreateComplaintInput{
		Description: "Something odd", ImageURL: "https://img.example/odd.jpg", Lat: "25.41", Lng: "81.81",
	})
	s.Require().NoError(err)
	s.Equal(0.0, c.PriorityScore)
	s.Equal(classifier.Fallback.Category, c.AICategory)
	s.Equal(classifier.Fallback.Severity, c.AISeverity)
}

func (s *ServicesSuite) TestListings() {
	mine := s.report(s.citizen, 20)
	s.now = s.now.Add(time.Minute)
	other := s.report(s.otherCitizen(), 90)
	s.now = s.now.Add(time.Minute)
	newest := s.report(s.citizen, 55)

	_, err := s.svc.Complaints.Upvote(s.ctx, s.citizen, other.ID)
	s.Require().NoError(err)

	s.Run("public pins by priority", func() {
		pins, err := s.svc.Complaints.ListComplaints(s.ctx, nil)
		s.Require().NoError(err)
		s.Require().Len(pins, 3)
		s.Equal([]primitive.ObjectID{other.ID, newest.ID, mine.ID}, []primitive.ObjectID{pins[0].ID, pins[1].ID, pins[2].ID})
	})

	s.Run("mine is newest first", func() {
		views, err := s.svc.Complaints.ListMine(s.ctx, s.citizen)
		s.Require().NoError(err)
		s.Require().Len(views, 2)
		s.Equal(newest.ID, views[0].ID)
		s.Equal(mine.ID, views[1].ID)
	})

	s.Run("get carries hasUpvoted", func() {
		view, err := s.svc.Complaints.GetComplaint(s.ctx, s.citizen, other.ID)
		s.Require().NoError(err)
		s.True(view.HasUpvoted)
		s.EqualValues(1, view.UpvoteCount)

		_, err = s.svc.Complaints.GetComplaint(s.ctx, s.citizen, primitive.NewObjectID())
		s.ErrorIs(err, apperrors.ErrNotFound)
	})

	s.Run("ward listing sorts and filters", func() {
		views, err := s.svc.Complaints.ListWard(s.ctx, s.authority, WardQuery{Sort: "upvotes"})
		s.Require().NoError(err)
		s.Require().Len(views, 3)
		s.Equal(other.ID, views[0].ID)

		views, err = s.svc.Complaints.ListWard(s.ctx, s.authority, WardQuery{Sort: "date"})
		s.Require().NoError(err)
		s.Equal(newest.ID, views[0].ID)

		views, err = s.svc.Complaints.ListWard(s.ctx, s.authority, WardQuery{Status: "resolved"})
		s.Require().NoError(err)
		s.Empty(views)

		_, err = s.svc.Complaints.ListWard(s.ctx, s.authority, WardQuery{Sort: "alphabetical"})
		s.ErrorIs(err, apperrors.ErrValidation)
		_, err = s.svc.Complaints.ListWard(s.ctx, s.authority, WardQuery{Status: "closed"})
		s.ErrorIs(err, apperrors.ErrValidation)
		_, err = s.svc.Complaints.ListWard(s.ctx, s.citizen, WardQuery{})
		s.ErrorIs(err, apperrors.ErrPermission)
	})
}

func (s *ServicesSuite) TestDeleteComplaint() {
	c := s.report(s.citizen, 50)

	s.Run("other citizens cannot delete", func() {
		err := s.svc.Complaints.DeleteComplaint(s.ctx, s.otherCitizen(), c.ID)
		s.ErrorIs(err, apperrors.ErrPermission)
	})

	s.Run("authorities never delete", func() {
		err := s.svc.Complaints.DeleteComplaint(s.ctx, s.authority, c.ID)
		s.ErrorIs(err, apperrors.ErrPermission)
	})

	s.Run("unknown id", func() {
		err := s.svc.Complaints.DeleteComplaint(s.ctx, s.citizen, primitive.NewObjectID())
		s.ErrorIs(err, apperrors.ErrNotFound)
	})

	s.Run("not once acknowledged", func() {
		acked := s.report(s.citizen, 30)
		_, err := s.svc.Complaints.SetStatus(s.ctx, s.authority, acked.ID, "acknowledged")
		s.Require().NoError(err)
		err = s.svc.Complaints.DeleteComplaint(s.ctx, s.citizen, acked.ID)
		s.ErrorIs(err, apperrors.ErrPermission)
	})

	s.Run("reporter deletes while submitted", func() {
		s.Require().NoError(s.svc.Complaints.DeleteComplaint(s.ctx, s.citizen, c.ID))
		_, err := s.store.FindComplaintByID(s.ctx, c.ID)
		s.Error(err)
	})
}

func (s *ServicesSuite) TestSetStatus() {
	c := s.report(s.citizen, 50)

	s.Run("citizens cannot change status", func() {
		_, err := s.svc.Complaints.SetStatus(s.ctx, s.citizen, c.ID, "acknowledged")
		s.ErrorIs(err, apperrors.ErrPermission)
	})

	s.Run("authority of another ward", func() {
		elsewhere := primitive.NewObjectID()
		sess := models.Session{UserID: primitive.NewObjectID(), Role: models.RoleAuthority, WardID: &elsewhere}
		_, err := s.svc.Complaints.SetStatus(s.ctx, sess, c.ID, "acknowledged")
		s.ErrorIs(err, apperrors.ErrPermission)
	})

	s.Run("unknown status", func() {
		_, err := s.svc.Complaints.SetStatus(s.ctx, s.authority, c.ID, "closed")
		s.ErrorIs(err, apperrors.ErrValidation)
	})

	s.Run("jumping straight to in_progress is allowed", func() {
		updated, err := s.svc.Complaints.SetStatus(s.ctx, s.authority, c.ID, "in_progress")
		s.Require().NoError(err)
		s.Equal(models.StatusInProgress, updated.Status)
		s.Nil(updated.ResolvedAt)
	})

	s.Run("resolving stamps resolvedAt", func() {
		s.now = s.now.Add(2 * time.Hour)
		updated, err := s.svc.Complaints.SetStatus(s.ctx, s.authority, c.ID, "resolved")
		s.Require().NoError(err)
		s.Require().NotNil(updated.ResolvedAt)
		s.True(updated.ResolvedAt.Equal(s.now))
		s.True(updated.UpdatedAt.Equal(s.now))
	})

	s.Run("resolved is terminal", func() {
		_, err := s.svc.Complaints.SetStatus(s.ctx, s.authority, c.ID, "submitted")
		s.ErrorIs(err, apperrors.ErrConflict)
	})

	s.Equal(1.0, testutil.ToFloat64(s.metrics.StatusChanges.WithLabelValues("resolved")))
}

func (s *ServicesSuite) TestVoting() {
	c := s.report(s.otherCitizen(), 50)

	res, err := s.svc.Complaints.Upvote(s.ctx, s.citizen, c.ID)
	s.Require().NoError(err)
	s.Equal(VoteResult{UpvoteCount: 1, HasUpvoted: true}, *res)

	_, err = s.svc.Complaints.Upvote(s.ctx, s.citizen, c.ID)
	s.ErrorIs(err, apperrors.ErrConflict)

	_, err = s.svc.Complaints.Upvote(s.ctx, s.authority, c.ID)
	s.ErrorIs(err, apperrors.ErrPermission)

	_, err = s.svc.Complaints.Upvote(s.ctx, s.citizen, primitive.NewObjectID())
	s.ErrorIs(err, apperrors.ErrNotFound)

	res, err = s.svc.Complaints.RemoveUpvote(s.ctx, s.citizen, c.ID)
	s.Require().NoError(err)
	s.Equal(VoteResult{UpvoteCount: 0, HasUpvoted: false}, *res)

	res, err = s.svc.Complaints.RemoveUpvote(s.ctx, s.citizen, c.ID)
	s.Require().NoError(err)
	s.EqualValues(0, res.UpvoteCount)

	stored, err := s.store.FindComplaintByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.EqualValues(0, stored.UpvoteCount)
	s.True(stored.UpdatedAt.Equal(c.UpdatedAt))
}
