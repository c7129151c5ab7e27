package services

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"wardsync/apperrors"
	"wardsync/classifier"
	"wardsync/metrics"
	"wardsync/models"
	"wardsync/store"
)

// CreateComplaintInput carries the raw request values. Lat and Lng stay as
// text until they are parsed here, so "missing" and "not a number" can be
// told apart.
type CreateComplaintInput struct {
	Description string
	ImageURL    string
	Lat         string
	Lng         string
}

// WardQuery filters the authority complaint listing. Empty fields do not filter.
type WardQuery struct {
	Category string
	Status   string
	Severity string
	Sort     string
}

// ComplaintView is a complaint as seen by a particular caller.
type ComplaintView struct {
	models.Complaint
	HasUpvoted bool `json:"hasUpvoted"`
}

type VoteResult struct {
	UpvoteCount int64 `json:"upvoteCount"`
	HasUpvoted  bool  `json:"hasUpvoted"`
}

// ComplaintService applies the complaint lifecycle: submission with ward
// assignment, listing, deletion, status changes and voting.
type ComplaintService struct {
	complaints store.ComplaintStore
	wards      *WardService
	classifier classifier.Classifier
	metrics    *metrics.Metrics
	now        func() time.Time
	logger     *zap.Logger
}

func (s *ComplaintService) CreateComplaint(ctx context.Context, sess models.Session, in CreateComplaintInput) (*models.Complaint, error) {
	if !sess.IsCitizen() {
		return nil, apperrors.Permission("Only citizens can report complaints")
	}

	description := strings.TrimSpace(in.Description)
	imageURL := strings.TrimSpace(in.ImageURL)
	if description == "" || imageURL == "" || strings.TrimSpace(in.Lat) == "" || strings.TrimSpace(in.Lng) == "" {
		return nil, apperrors.Validation("Description, image and location are required")
	}
	lat, err := parseCoordinate(in.Lat, 90)
	if err != nil {
		return nil, apperrors.Validation("Invalid latitude")
	}
	lng, err := parseCoordinate(in.Lng, 180)
	if err != nil {
		return nil, apperrors.Validation("Invalid longitude")
	}

	ward, err := s.wards.FindWardContaining(ctx, lat, lng)
	if err != nil {
		return nil, err
	}

	result, err := s.classifier.Classify(ctx, description, imageURL)
	if err != nil {
		s.logger.Warn("classifier error, using fallback", zap.Error(err))
		result = classifier.Fallback
	}
	if result.Category == "" {
		result.Category = classifier.Fallback.Category
	}
	if result.Severity == "" {
		result.Severity = classifier.Fallback.Severity
	}

	now := s.now()
	complaint := &models.Complaint{
		ReportedBy:    sess.UserID,
		Description:   description,
		ImageURL:      imageURL,
		Location:      models.Location{Lat: lat, Lng: lng},
		WardID:        ward.ID,
		Status:        models.StatusSubmitted,
		AICategory:    result.Category,
		AISeverity:    result.Severity,
		PriorityScore: clampScore(result.PriorityScore),
		UpvoteCount:   0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.complaints.CreateComplaint(ctx, complaint); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.metrics.ComplaintsCreated.WithLabelValues(complaint.AICategory).Inc()
	s.logger.Info("complaint created",
		zap.String("complaint_id", complaint.ID.Hex()),
		zap.String("ward_id", ward.ID.Hex()),
		zap.String("category", complaint.AICategory),
		zap.Float64("priority", complaint.PriorityScore),
	)
	return complaint, nil
}

// ListComplaints returns the public map projection, highest priority first.
// wardID may be nil for every ward.
func (s *ComplaintService) ListComplaints(ctx context.Context, wardID *primitive.ObjectID) ([]models.MapPin, error) {
	pins, err := s.complaints.FindPins(ctx, store.ComplaintFilter{WardID: wardID}, store.FindOptions{Sort: store.SortPriority})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return pins, nil
}

// ListMine returns the caller's own complaints, newest first.
func (s *ComplaintService) ListMine(ctx context.Context, sess models.Session) ([]ComplaintView, error) {
	if !sess.IsCitizen() {
		return nil, apperrors.Permission("Only citizens have reported complaints")
	}
	found, err := s.complaints.FindComplaints(ctx,
		store.ComplaintFilter{ReportedBy: &sess.UserID},
		store.FindOptions{Sort: store.SortNewest})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return s.views(ctx, sess, found)
}

// ListWard is the authority's full listing for their own ward.
func (s *ComplaintService) ListWard(ctx context.Context, sess models.Session, q WardQuery) ([]ComplaintView, error) {
	if !sess.IsWardAuthority() {
		return nil, apperrors.Permission("Only ward authorities can list ward complaints")
	}

	filter := store.ComplaintFilter{
		WardID:   sess.WardID,
		Category: strings.TrimSpace(q.Category),
		Severity: strings.TrimSpace(q.Severity),
	}
	if q.Status != "" {
		status := models.Status(q.Status)
		if !status.Valid() {
			return nil, apperrors.Validation("Invalid status")
		}
		filter.Status = status
	}
	sort := store.SortPriority
	if q.Sort != "" {
		sort = store.SortOrder(q.Sort)
		if !sort.Valid() {
			return nil, apperrors.Validation("Invalid sort, use priority, date or upvotes")
		}
	}

	found, err := s.complaints.FindComplaints(ctx, filter, store.FindOptions{Sort: sort})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return s.views(ctx, sess, found)
}

func (s *ComplaintService) GetComplaint(ctx context.Context, sess models.Session, id primitive.ObjectID) (*ComplaintView, error) {
	c, err := s.complaints.FindComplaintByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "complaint")
	}
	views, err := s.views(ctx, sess, []models.Complaint{*c})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// DeleteComplaint lets the reporter withdraw a complaint nobody has acted on.
func (s *ComplaintService) DeleteComplaint(ctx context.Context, sess models.Session, id primitive.ObjectID) error {
	if !sess.IsCitizen() {
		return apperrors.Permission("Only the reporting citizen can delete a complaint")
	}

	err := s.complaints.DeleteSubmitted(ctx, id, sess.UserID)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrInvalidState):
		return apperrors.Permission("You can only delete your own complaints that are still submitted")
	default:
		return storeError(err, "complaint")
	}

	s.logger.Info("complaint deleted",
		zap.String("complaint_id", id.Hex()),
		zap.String("user_id", sess.UserID.Hex()),
	)
	return nil
}

// SetStatus moves a complaint in the authority's ward to status. Resolved
// complaints cannot change again.
func (s *ComplaintService) SetStatus(ctx context.Context, sess models.Session, id primitive.ObjectID, status string) (*models.Complaint, error) {
	if !sess.IsWardAuthority() {
		return nil, apperrors.Permission("Only ward authorities can update complaint status")
	}
	next := models.Status(status)
	if !next.Valid() {
		return nil, apperrors.Validation("Invalid status")
	}

	current, err := s.complaints.FindComplaintByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "complaint")
	}
	if current.WardID != *sess.WardID {
		return nil, apperrors.Permission("Complaint does not belong to your ward")
	}

	updated, err := s.complaints.UpdateStatus(ctx, id, *sess.WardID, next, s.now())
	switch {
	case err == nil:
	case errors.Is(err, store.ErrInvalidState):
		return nil, apperrors.Conflict("Complaint is already resolved")
	default:
		return nil, storeError(err, "complaint")
	}

	s.metrics.StatusChanges.WithLabelValues(string(next)).Inc()
	s.logger.Info("complaint status changed",
		zap.String("complaint_id", id.Hex()),
		zap.String("from", string(current.Status)),
		zap.String("to", string(next)),
		zap.String("by", sess.UserID.Hex()),
	)
	return updated, nil
}

func (s *ComplaintService) Upvote(ctx context.Context, sess models.Session, id primitive.ObjectID) (*VoteResult, error) {
	if !sess.IsCitizen() {
		return nil, apperrors.Permission("Only citizens can upvote complaints")
	}

	count, err := s.complaints.AddVote(ctx, &models.Vote{
		ComplaintID: id,
		UserID:      sess.UserID,
		CreatedAt:   s.now(),
	})
	switch {
	case err == nil:
	case errors.Is(err, store.ErrDuplicate):
		return nil, apperrors.Conflict("You have already upvoted this complaint")
	default:
		return nil, storeError(err, "complaint")
	}

	s.metrics.Votes.WithLabelValues("add").Inc()
	return &VoteResult{UpvoteCount: count, HasUpvoted: true}, nil
}

// RemoveUpvote withdraws the caller's vote. Removing a vote that does not
// exist changes nothing.
func (s *ComplaintService) RemoveUpvote(ctx context.Context, sess models.Session, id primitive.ObjectID) (*VoteResult, error) {
	if !sess.IsCitizen() {
		return nil, apperrors.Permission("Only citizens can remove upvotes")
	}

	count, removed, err := s.complaints.RemoveVote(ctx, id, sess.UserID)
	if err != nil {
		return nil, storeError(err, "complaint")
	}
	if removed {
		s.metrics.Votes.WithLabelValues("remove").Inc()
	}
	return &VoteResult{UpvoteCount: count, HasUpvoted: false}, nil
}

// views attaches hasUpvoted for citizens. Authorities never vote, so their
// views skip the lookup.
func (s *ComplaintService) views(ctx context.Context, sess models.Session, found []models.Complaint) ([]ComplaintView, error) {
	views := make([]ComplaintView, len(found))
	for i := range found {
		views[i].Complaint = found[i]
	}
	if !sess.IsCitizen() || len(found) == 0 {
		return views, nil
	}

	ids := make([]primitive.ObjectID, len(found))
	for i := range found {
		ids[i] = found[i].ID
	}
	voted, err := s.complaints.VotedComplaintIDs(ctx, sess.UserID, ids)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	for i := range views {
		views[i].HasUpvoted = voted[views[i].ID]
	}
	return views, nil
}

func parseCoordinate(raw string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < -limit || v > limit {
		return 0, errors.New("coordinate out of range")
	}
	return v, nil
}

func clampScore(score float64) float64 {
	switch {
	case math.IsNaN(score) || score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
