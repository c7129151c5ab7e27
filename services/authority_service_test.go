package services

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"wardsync/apperrors"
	"wardsync/models"
)

func (s *ServicesSuite) TestDashboard() {
	high := s.report(s.citizen, 85)
	working := s.report(s.citizen, 50)
	done := s.report(s.citizen, 30)
	_, err := s.svc.Complaints.SetStatus(s.ctx, s.authority, working.ID, "in_progress")
	s.Require().NoError(err)
	_, err = s.svc.Complaints.SetStatus(s.ctx, s.authority, done.ID, "resolved")
	s.Require().NoError(err)

	d, err := s.svc.Authority.Dashboard(s.ctx, s.authority)
	s.Require().NoError(err)

	s.Equal(DashboardStats{Total: 3, HighPriority: 1, InProgress: 1, ResolvedToday: 1}, d.Stats)
	s.Require().Len(d.HighPriorityIssues, 1)
	s.Equal(high.ID, d.HighPriorityIssues[0].ID)
	s.Len(d.Recent, 3)
}

func (s *ServicesSuite) TestDashboardLimitsAndDayBoundary() {
	for i := 0; i < 7; i++ {
		s.report(s.citizen, 70+float64(i))
		s.now = s.now.Add(time.Minute)
	}
	resolvedYesterday := s.report(s.citizen, 99)
	_, err := s.svc.Complaints.SetStatus(s.ctx, s.authority, resolvedYesterday.ID, "resolved")
	s.Require().NoError(err)

	s.now = s.now.Add(24 * time.Hour)
	for i := 0; i < 10; i++ {
		s.report(s.citizen, 10)
	}

	d, err := s.svc.Authority.Dashboard(s.ctx, s.authority)
	s.Require().NoError(err)
	s.EqualValues(18, d.Stats.Total)
	s.EqualValues(7, d.Stats.HighPriority)
	s.Zero(d.Stats.ResolvedToday)

	s.Require().Len(d.HighPriorityIssues, 5)
	s.Equal(76.0, d.HighPriorityIssues[0].PriorityScore)
	for _, c := range d.HighPriorityIssues {
		s.NotEqual(models.StatusResolved, c.Status)
	}
	s.Len(d.Recent, 15)
}

func (s *ServicesSuite) TestDashboardIsWardScoped() {
	s.report(s.citizen, 80)

	otherWard := &models.Ward{Name: "Naini", City: "Prayagraj"}
	s.Require().NoError(s.store.CreateWard(s.ctx, otherWard))
	sess := models.Session{UserID: primitive.NewObjectID(), Role: models.RoleAuthority, WardID: &otherWard.ID}

	d, err := s.svc.Authority.Dashboard(s.ctx, sess)
	s.Require().NoError(err)
	s.Zero(d.Stats.Total)
	s.NotNil(d.HighPriorityIssues)
	s.NotNil(d.Recent)

	_, err = s.svc.Authority.Dashboard(s.ctx, s.citizen)
	s.ErrorIs(err, apperrors.ErrPermission)
	_, err = s.svc.Authority.Dashboard(s.ctx, models.Session{UserID: primitive.NewObjectID(), Role: models.RoleAuthority})
	s.ErrorIs(err, apperrors.ErrPermission)
}

func (s *ServicesSuite) TestAnalytics() {
	s.Run("empty ward", func() {
		a, err := s.svc.Authority.Analytics(s.ctx, s.authority)
		s.Require().NoError(err)
		s.Empty(a.CategoryMap)
		s.Zero(a.AvgResolutionTime)
		s.Len(a.Status, 4)
		for _, st := range models.Statuses {
			s.Zero(a.Status[st])
		}
	})

	s.Run("counts and average", func() {
		s.report(s.citizen, 85)
		working := s.report(s.citizen, 50)
		first := s.report(s.citizen, 30)
		second := s.report(s.citizen, 45)
		_, err := s.svc.Complaints.SetStatus(s.ctx, s.authority, working.ID, "in_progress")
		s.Require().NoError(err)

		s.now = s.now.Add(24 * time.Hour)
		_, err = s.svc.Complaints.SetStatus(s.ctx, s.authority, first.ID, "resolved")
		s.Require().NoError(err)
		s.now = s.now.Add(10 * time.Hour)
		_, err = s.svc.Complaints.SetStatus(s.ctx, s.authority, second.ID, "resolved")
		s.Require().NoError(err)

		a, err := s.svc.Authority.Analytics(s.ctx, s.authority)
		s.Require().NoError(err)
		s.Equal(map[string]int64{"Roads": 4}, a.CategoryMap)
		s.Equal(models.PriorityCounts{High: 1, Medium: 2, Low: 1}, a.Priority)
		s.Equal(map[models.Status]int64{
			models.StatusSubmitted:    1,
			models.StatusAcknowledged: 0,
			models.StatusInProgress:   1,
			models.StatusResolved:     2,
		}, a.Status)
		// (1 day + 34/24 days) / 2 = 1.208..., one decimal
		s.Equal(1.2, a.AvgResolutionTime)
	})

	s.Run("citizens are refused", func() {
		_, err := s.svc.Authority.Analytics(s.ctx, s.citizen)
		s.ErrorIs(err, apperrors.ErrPermission)
	})
}
