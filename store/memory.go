package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"wardsync/models"
)

type voteKey struct {
	complaintID primitive.ObjectID
	userID      primitive.ObjectID
}

// Memory is an in-process Store. A single mutex serializes writes, which gives
// the same atomicity the Mongo store gets from unique indexes and transactions.
type Memory struct {
	mu         sync.RWMutex
	users      map[primitive.ObjectID]models.User
	wards      []models.Ward // creation order
	complaints map[primitive.ObjectID]models.Complaint
	votes      map[voteKey]models.Vote
}

func NewMemory() *Memory {
	return &Memory{
		users:      make(map[primitive.ObjectID]models.User),
		complaints: make(map[primitive.ObjectID]models.Complaint),
		votes:      make(map[voteKey]models.Vote),
	}
}

func (m *Memory) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) FindUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateWard(_ context.Context, ward *models.Ward) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ward.ID.IsZero() {
		ward.ID = primitive.NewObjectID()
	}
	if ward.AdminUserIDs == nil {
		ward.AdminUserIDs = []primitive.ObjectID{}
	}
	m.wards = append(m.wards, *ward)
	return nil
}

func (m *Memory) FindWardByID(_ context.Context, id primitive.ObjectID) (*models.Ward, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, w := range m.wards {
		if w.ID == id {
			return &w, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindWardContaining(_ context.Context, lng, lat float64) (*models.Ward, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, w := range m.wards {
		if w.Boundary != nil && w.Boundary.Contains(lng, lat) {
			return &w, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListWards(_ context.Context, city string) ([]models.Ward, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wards := make([]models.Ward, 0, len(m.wards))
	for _, w := range m.wards {
		if city == "" || strings.EqualFold(w.City, city) {
			wards = append(wards, w)
		}
	}
	sort.SliceStable(wards, func(i, j int) bool { return wards[i].Name < wards[j].Name })
	return wards, nil
}

func (m *Memory) ListCities(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	cities := []string{}
	for _, w := range m.wards {
		if !seen[w.City] {
			seen[w.City] = true
			cities = append(cities, w.City)
		}
	}
	sort.Strings(cities)
	return cities, nil
}

func (m *Memory) AddWardAdmin(_ context.Context, wardID, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.wards {
		if m.wards[i].ID != wardID {
			continue
		}
		for _, id := range m.wards[i].AdminUserIDs {
			if id == userID {
				return nil
			}
		}
		m.wards[i].AdminUserIDs = append(m.wards[i].AdminUserIDs, userID)
		return nil
	}
	return ErrNotFound
}

func (m *Memory) CreateComplaint(_ context.Context, c *models.Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	m.complaints[c.ID] = *c
	return nil
}

func (m *Memory) FindComplaintByID(_ context.Context, id primitive.ObjectID) (*models.Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.complaints[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *Memory) FindComplaints(_ context.Context, filter ComplaintFilter, opts FindOptions) ([]models.Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.find(filter, opts), nil
}

func (m *Memory) FindPins(_ context.Context, filter ComplaintFilter, opts FindOptions) ([]models.MapPin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	found := m.find(filter, opts)
	pins := make([]models.MapPin, 0, len(found))
	for _, c := range found {
		pins = append(pins, c.Pin())
	}
	return pins, nil
}

func (m *Memory) CountComplaints(_ context.Context, filter ComplaintFilter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, c := range m.complaints {
		if matches(c, filter) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) WardTotals(_ context.Context, wardID primitive.ObjectID) (*models.WardTotals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	totals := &models.WardTotals{
		Categories: make(map[string]int64),
		Statuses:   make(map[models.Status]int64),
	}
	for _, c := range m.complaints {
		if c.WardID != wardID {
			continue
		}
		totals.Categories[c.AICategory]++
		totals.Statuses[c.Status]++
		totals.Priority.Add(c.PriorityScore)
		if c.Status == models.StatusResolved {
			totals.ResolvedCount++
			totals.ResolutionDaysTotal += c.UpdatedAt.Sub(c.CreatedAt).Hours() / 24
		}
	}
	return totals, nil
}

func (m *Memory) UpdateStatus(_ context.Context, id, wardID primitive.ObjectID, status models.Status, now time.Time) (*models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.complaints[id]
	if !ok || c.WardID != wardID {
		return nil, ErrNotFound
	}
	if c.Status == models.StatusResolved {
		return nil, ErrInvalidState
	}
	c.Status = status
	c.UpdatedAt = now
	c.ResolvedAt = nil
	if status == models.StatusResolved {
		resolvedAt := now
		c.ResolvedAt = &resolvedAt
	}
	m.complaints[id] = c
	return &c, nil
}

func (m *Memory) DeleteSubmitted(_ context.Context, id, reporterID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.complaints[id]
	if !ok {
		return ErrNotFound
	}
	if c.ReportedBy != reporterID || c.Status != models.StatusSubmitted {
		return ErrInvalidState
	}
	delete(m.complaints, id)
	for k := range m.votes {
		if k.complaintID == id {
			delete(m.votes, k)
		}
	}
	return nil
}

func (m *Memory) AddVote(_ context.Context, vote *models.Vote) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.complaints[vote.ComplaintID]
	if !ok {
		return 0, ErrNotFound
	}
	key := voteKey{complaintID: vote.ComplaintID, userID: vote.UserID}
	if _, exists := m.votes[key]; exists {
		return c.UpvoteCount, ErrDuplicate
	}
	if vote.ID.IsZero() {
		vote.ID = primitive.NewObjectID()
	}
	m.votes[key] = *vote
	c.UpvoteCount++
	m.complaints[c.ID] = c
	return c.UpvoteCount, nil
}

func (m *Memory) RemoveVote(_ context.Context, complaintID, userID primitive.ObjectID) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.complaints[complaintID]
	if !ok {
		return 0, false, ErrNotFound
	}
	key := voteKey{complaintID: complaintID, userID: userID}
	if _, exists := m.votes[key]; !exists {
		return c.UpvoteCount, false, nil
	}
	delete(m.votes, key)
	c.UpvoteCount--
	m.complaints[c.ID] = c
	return c.UpvoteCount, true, nil
}

func (m *Memory) VotedComplaintIDs(_ context.Context, userID primitive.ObjectID, complaintIDs []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	voted := make(map[primitive.ObjectID]bool)
	for _, id := range complaintIDs {
		if _, ok := m.votes[voteKey{complaintID: id, userID: userID}]; ok {
			voted[id] = true
		}
	}
	return voted, nil
}

// find must be called with m.mu held.
func (m *Memory) find(filter ComplaintFilter, opts FindOptions) []models.Complaint {
	found := make([]models.Complaint, 0)
	for _, c := range m.complaints {
		if matches(c, filter) {
			found = append(found, c)
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return less(found[i], found[j], opts.Sort) })
	if opts.Limit > 0 && int64(len(found)) > opts.Limit {
		found = found[:opts.Limit]
	}
	return found
}

func matches(c models.Complaint, f ComplaintFilter) bool {
	switch {
	case f.WardID != nil && c.WardID != *f.WardID:
		return false
	case f.ReportedBy != nil && c.ReportedBy != *f.ReportedBy:
		return false
	case f.Status != "" && c.Status != f.Status:
		return false
	case f.ExcludeStatus != "" && c.Status == f.ExcludeStatus:
		return false
	case f.Category != "" && c.AICategory != f.Category:
		return false
	case f.Severity != "" && c.AISeverity != f.Severity:
		return false
	case f.MinPriority != nil && c.PriorityScore < *f.MinPriority:
		return false
	case f.ResolvedSince != nil && (c.ResolvedAt == nil || c.ResolvedAt.Before(*f.ResolvedSince)):
		return false
	}
	return true
}

// less mirrors the Mongo sort documents in sortFor; ties fall back to newest
// first, then id.
func less(a, b models.Complaint, order SortOrder) bool {
	switch order {
	case SortNewest:
	case SortUpvotes:
		if a.UpvoteCount != b.UpvoteCount {
			return a.UpvoteCount > b.UpvoteCount
		}
	default:
		if a.PriorityScore != b.PriorityScore {
			return a.PriorityScore > b.PriorityScore
		}
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.Hex() > b.ID.Hex()
}
