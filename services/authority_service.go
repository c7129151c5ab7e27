package services

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"wardsync/apperrors"
	"wardsync/models"
	"wardsync/store"
)

const (
	dashboardHighPriorityLimit = 5
	dashboardRecentLimit       = 15
)

type DashboardStats struct {
	Total         int64 `json:"total"`
	HighPriority  int64 `json:"highPriority"`
	InProgress    int64 `json:"inProgress"`
	ResolvedToday int64 `json:"resolvedToday"`
}

type Dashboard struct {
	Stats              DashboardStats     `json:"stats"`
	HighPriorityIssues []models.Complaint `json:"highPriorityIssues"`
	Recent             []models.Complaint `json:"recent"`
}

type Analytics struct {
	CategoryMap       map[string]int64        `json:"categoryMap"`
	Priority          models.PriorityCounts   `json:"priority"`
	Status            map[models.Status]int64 `json:"status"`
	AvgResolutionTime float64                 `json:"avgResolutionTime"`
}

// AuthorityService builds the ward dashboard and analytics. Everything is
// computed from the store on each call.
type AuthorityService struct {
	complaints store.ComplaintStore
	now        func() time.Time
	logger     *zap.Logger
}

func (s *AuthorityService) Dashboard(ctx context.Context, sess models.Session) (*Dashboard, error) {
	if !sess.IsWardAuthority() {
		return nil, apperrors.Permission("Access denied")
	}

	ward := sess.WardID
	threshold := models.HighPriorityThreshold
	midnight := startOfDay(s.now())
	out := &Dashboard{}

	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int64, filter store.ComplaintFilter) {
		g.Go(func() error {
			n, err := s.complaints.CountComplaints(gctx, filter)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}
	count(&out.Stats.Total, store.ComplaintFilter{WardID: ward})
	count(&out.Stats.HighPriority, store.ComplaintFilter{
		WardID:        ward,
		MinPriority:   &threshold,
		ExcludeStatus: models.StatusResolved,
	})
	count(&out.Stats.InProgress, store.ComplaintFilter{WardID: ward, Status: models.StatusInProgress})
	count(&out.Stats.ResolvedToday, store.ComplaintFilter{
		WardID:        ward,
		Status:        models.StatusResolved,
		ResolvedSince: &midnight,
	})

	g.Go(func() error {
		found, err := s.complaints.FindComplaints(gctx, store.ComplaintFilter{
			WardID:        ward,
			MinPriority:   &threshold,
			ExcludeStatus: models.StatusResolved,
		}, store.FindOptions{Sort: store.SortPriority, Limit: dashboardHighPriorityLimit})
		out.HighPriorityIssues = found
		return err
	})
	g.Go(func() error {
		found, err := s.complaints.FindComplaints(gctx,
			store.ComplaintFilter{WardID: ward},
			store.FindOptions{Sort: store.SortNewest, Limit: dashboardRecentLimit})
		out.Recent = found
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, apperrors.Internal(err)
	}
	if out.HighPriorityIssues == nil {
		out.HighPriorityIssues = []models.Complaint{}
	}
	if out.Recent == nil {
		out.Recent = []models.Complaint{}
	}
	return out, nil
}

func (s *AuthorityService) Analytics(ctx context.Context, sess models.Session) (*Analytics, error) {
	if !sess.IsWardAuthority() {
		return nil, apperrors.Permission("Access denied")
	}

	totals, err := s.complaints.WardTotals(ctx, *sess.WardID)
	if err != nil {
		s.logger.Error("ward totals failed", zap.String("ward_id", sess.WardID.Hex()), zap.Error(err))
		return nil, apperrors.Internal(err)
	}

	out := &Analytics{
		CategoryMap: totals.Categories,
		Priority:    totals.Priority,
		Status:      make(map[models.Status]int64, len(models.Statuses)),
	}
	if out.CategoryMap == nil {
		out.CategoryMap = map[string]int64{}
	}
	for _, st := range models.Statuses {
		out.Status[st] = totals.Statuses[st]
	}
	if totals.ResolvedCount > 0 {
		avg := totals.ResolutionDaysTotal / float64(totals.ResolvedCount)
		out.AvgResolutionTime = math.Round(avg*10) / 10
	}
	return out, nil
}
